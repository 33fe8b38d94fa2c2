package config

import (
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"

	"github.com/gushphp/gush-bitbucket/pkg/shared/files"
)

// Config is the global configuration read from the YAML file.
type Config struct {
	Logger     Logger     `yaml:"logger"`
	HTTPClient HTTPClient `yaml:"http_client"`
	Bitbucket  Bitbucket  `yaml:"bitbucket"`
}

// Logger holds the logger settings.
type Logger struct {
	Level           string `yaml:"level"`
	DisableTime     *bool  `yaml:"disable_time"`
	JSONFormat      *bool  `yaml:"json_format"`
	IncludeLocation *bool  `yaml:"include_location"`
}

// HTTPClient holds the settings of the outbound HTTP client.
type HTTPClient struct {
	Debug            *bool           `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

// TLSClientConfig holds TLS settings.
type TLSClientConfig struct {
	Verify *bool `yaml:"verify"`
}

// Proxy holds the outbound proxy address.
type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Bitbucket holds the adapter settings.
type Bitbucket struct {
	BaseURL        string         `yaml:"base_url"`
	RepoDomainURL  string         `yaml:"repo_domain_url"`
	TokenURL       string         `yaml:"token_url"`
	Authentication Authentication `yaml:"authentication"`
	Repository     Repository     `yaml:"repository"`
}

// Authentication holds the raw credential values. Secrets may be keyring references.
type Authentication struct {
	Username      string `yaml:"username"`
	SecretOrToken string `yaml:"secret-or-token"`
	OAuthSecret   string `yaml:"oauth-secret"`
}

// Repository names the repository the adapter works on.
type Repository struct {
	Owner string `yaml:"owner"`
	Name  string `yaml:"name"`
}

// LoadYAML decodes the YAML file at configPath into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := files.ValidatePath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// NewConfig reads the configuration file and applies defaults and environment overrides.
func NewConfig(configPath string) (*Config, error) {
	config := &Config{}

	if err := LoadYAML(configPath, config); err != nil {
		return nil, err
	}

	ApplyDefaults(config)
	UpdateConfigFromEnv(config)
	return config, nil
}

// LoadConfig behaves like NewConfig but tolerates a missing file, in which
// case only defaults and environment overrides are used.
func LoadConfig(configPath string) (*Config, error) {
	configPath, err := files.ExpandPath(configPath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := &Config{}
		ApplyDefaults(config)
		UpdateConfigFromEnv(config)
		return config, nil
	}
	return NewConfig(configPath)
}
