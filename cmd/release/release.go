package release

import (
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/gushphp/gush-bitbucket/internal/adapter"
	"github.com/gushphp/gush-bitbucket/pkg/shared"
	"github.com/gushphp/gush-bitbucket/pkg/shared/config"
	"github.com/gushphp/gush-bitbucket/pkg/shared/errors"
)

var (
	AppConfig *config.Config
	logger    hclog.Logger

	prereleaseOnly bool

	ReleaseCmd = &cobra.Command{
		Use:                   "release [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Work with releases, which Bitbucket represents as tags",
	}

	listCmd = &cobra.Command{
		Use:                   "list [flags]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "List tags as releases, newest first",
		Args:                  cobra.NoArgs,
		RunE:                  runListCommand,
	}
)

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func init() {
	listCmd.Flags().BoolVar(&prereleaseOnly, "prerelease", false, "only list pre-release tags")
	ReleaseCmd.AddCommand(listCmd)
}

func runListCommand(cmd *cobra.Command, args []string) error {
	err := shared.WithSession(cmd.Context(), AppConfig, "release", func(s *shared.Session) error {
		releases, err := s.Repo.GetReleases(cmd.Context())
		if err != nil {
			return err
		}
		if prereleaseOnly {
			releases = filterPrereleases(releases)
		}
		return shared.WriteJSON(cmd.OutOrStdout(), releases)
	})
	if err != nil {
		logger.Debug("listing releases failed", "error", err)
		return errors.NewCommandError(err, 2)
	}
	return nil
}

func filterPrereleases(releases []adapter.Release) []adapter.Release {
	filtered := make([]adapter.Release, 0, len(releases))
	for _, r := range releases {
		if r.Prerelease {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
