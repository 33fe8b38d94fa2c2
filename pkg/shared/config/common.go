package config

import (
	"crypto/tls"
	"os"
	"strings"
	"time"
)

// Bitbucket Cloud endpoints used when the configuration leaves them empty.
const (
	DefaultBaseURL       = "https://api.bitbucket.org"
	DefaultRepoDomainURL = "https://bitbucket.org"
	DefaultTokenURL      = "https://bitbucket.org/site/oauth2/access_token"
)

// BaseHTTPConfig holds common HTTP client configuration settings.
type BaseHTTPConfig struct {
	RetryCount       int
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
	Timeout          time.Duration
	TLSClientConfig  *tls.Config
	Proxy            string
}

// RestyHTTPClientConfig holds additional configuration settings for the resty http client.
type RestyHTTPClientConfig struct {
	BaseHTTPConfig
	Debug bool
}

// DefaultHTTPConfig returns the base configuration for HTTP clients.
// Failed requests are not retried unless the configuration asks for it.
func DefaultHTTPConfig() BaseHTTPConfig {
	return BaseHTTPConfig{
		RetryCount:       0,
		RetryWaitTime:    1 * time.Second,
		RetryMaxWaitTime: 5 * time.Second,
		Timeout:          30 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12, // Enforce a minimum TLS version
		},
		Proxy: "",
	}
}

// DefaultRestyConfig returns the default resty configuration.
func DefaultRestyConfig() RestyHTTPClientConfig {
	return RestyHTTPClientConfig{
		BaseHTTPConfig: DefaultHTTPConfig(),
		Debug:          false,
	}
}

// ApplyDefaults fills empty Bitbucket endpoints and strips trailing slashes.
func ApplyDefaults(cfg *Config) {
	bb := &cfg.Bitbucket
	bb.BaseURL = strings.TrimRight(SetThen(bb.BaseURL, DefaultBaseURL), "/")
	bb.RepoDomainURL = strings.TrimRight(SetThen(bb.RepoDomainURL, DefaultRepoDomainURL), "/")
	bb.TokenURL = SetThen(bb.TokenURL, DefaultTokenURL)
}

// UpdateConfigFromEnv sets configuration values from environment variables, if they are set.
func UpdateConfigFromEnv(cfg *Config) {
	envVars := map[string]*string{
		"GUSH_BITBUCKET_USERNAME":        &cfg.Bitbucket.Authentication.Username,
		"GUSH_BITBUCKET_SECRET_OR_TOKEN": &cfg.Bitbucket.Authentication.SecretOrToken,
		"GUSH_BITBUCKET_OAUTH_SECRET":    &cfg.Bitbucket.Authentication.OAuthSecret,
	}
	urlVars := map[string]*string{
		"GUSH_BITBUCKET_BASE_URL":        &cfg.Bitbucket.BaseURL,
		"GUSH_BITBUCKET_REPO_DOMAIN_URL": &cfg.Bitbucket.RepoDomainURL,
	}

	for env, val := range envVars {
		if v := os.Getenv(env); v != "" {
			*val = v
		}
	}
	for env, val := range urlVars {
		if v := os.Getenv(env); v != "" {
			*val = strings.TrimRight(v, "/")
		}
	}
}
