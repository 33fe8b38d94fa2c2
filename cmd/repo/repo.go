package repo

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/gushphp/gush-bitbucket/internal/adapter"
	"github.com/gushphp/gush-bitbucket/pkg/shared"
	"github.com/gushphp/gush-bitbucket/pkg/shared/config"
	"github.com/gushphp/gush-bitbucket/pkg/shared/errors"
)

// RemoteInfo describes a git remote URL.
type RemoteInfo struct {
	Remote    string `json:"remote"`
	Supported bool   `json:"supported"`
	Owner     string `json:"owner,omitempty"`
	Name      string `json:"name,omitempty"`
}

var (
	AppConfig *config.Config
	logger    hclog.Logger

	forkOrg string

	RepoCmd = &cobra.Command{
		Use:                   "repo [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Work with the repository",
	}

	forkCmd = &cobra.Command{
		Use:                   "fork --org ORG",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Fork the repository",
		Args:                  cobra.NoArgs,
		RunE:                  runForkCommand,
	}

	remoteCmd = &cobra.Command{
		Use:                   "remote URL",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Check whether a git remote points at Bitbucket",
		Example:               "  gush-bitbucket repo remote git@bitbucket.org:acme/widgets.git",
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return shared.WriteJSON(cmd.OutOrStdout(), describeRemote(args[0]))
		},
	}
)

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func init() {
	forkCmd.Flags().StringVar(&forkOrg, "org", "", "organization the fork is made for (default is the authenticated user)")
	RepoCmd.AddCommand(forkCmd, remoteCmd)
}

func runForkCommand(cmd *cobra.Command, args []string) error {
	org := config.SetThen(forkOrg, AppConfig.Bitbucket.Authentication.Username)
	if org == "" {
		return errors.NewCommandError(fmt.Errorf("--org is required without a configured username"), 1)
	}

	err := shared.WithSession(cmd.Context(), AppConfig, "repo", func(s *shared.Session) error {
		fork, err := s.Repo.CreateFork(cmd.Context(), org)
		if err != nil {
			return err
		}
		return shared.WriteJSON(cmd.OutOrStdout(), fork)
	})
	if err != nil {
		logger.Debug("forking failed", "org", org, "error", err)
		return errors.NewCommandError(err, 2)
	}
	return nil
}

func describeRemote(remote string) RemoteInfo {
	_, ra := adapter.NewAdapters(nil, AppConfig, logger)
	info := RemoteInfo{Remote: remote, Supported: ra.SupportsRepository(remote)}
	if !info.Supported {
		return info
	}
	if owner, name, err := adapter.ParseRemote(remote); err == nil {
		info.Owner, info.Name = owner, name
	}
	return info
}
