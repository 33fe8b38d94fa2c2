package version

import (
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gushphp/gush-bitbucket/internal/bitbucket"
	"github.com/gushphp/gush-bitbucket/pkg/shared"
	"github.com/gushphp/gush-bitbucket/pkg/shared/config"
)

var (
	AppConfig     *config.Config
	CoreVersion   = "unknown"
	GolangVersion = runtime.Version()
	BuildTime     = "unknown"
)

// Versions holds version information about the binary and the API it talks to.
type Versions struct {
	Version       string `json:"version"`
	GolangVersion string `json:"golang_version"`
	BuildTime     string `json:"build_time"`
	APIVersion    string `json:"api_version"`
	BaseURL       string `json:"base_url"`
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// NewVersionCmd creates a new cobra.Command for the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "version",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the version of the application",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVersionInfo(cmd.OutOrStdout(), AppConfig)
		},
	}
}

func currentVersions(cfg *config.Config) Versions {
	baseURL := config.DefaultBaseURL
	if cfg != nil {
		baseURL = config.SetThen(cfg.Bitbucket.BaseURL, config.DefaultBaseURL)
	}
	return Versions{
		Version:       CoreVersion,
		GolangVersion: GolangVersion,
		BuildTime:     BuildTime,
		APIVersion:    bitbucket.APIVersionPath[1:],
		BaseURL:       baseURL,
	}
}

func printVersionInfo(w io.Writer, cfg *config.Config) error {
	return shared.WriteJSON(w, currentVersions(cfg))
}
