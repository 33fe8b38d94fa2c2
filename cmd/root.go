package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/gushphp/gush-bitbucket/cmd/auth"
	"github.com/gushphp/gush-bitbucket/cmd/issue"
	"github.com/gushphp/gush-bitbucket/cmd/pr"
	"github.com/gushphp/gush-bitbucket/cmd/release"
	"github.com/gushphp/gush-bitbucket/cmd/repo"
	"github.com/gushphp/gush-bitbucket/cmd/version"
	"github.com/gushphp/gush-bitbucket/internal/adapter"
	"github.com/gushphp/gush-bitbucket/internal/git"
	"github.com/gushphp/gush-bitbucket/pkg/shared/config"
	gusherrors "github.com/gushphp/gush-bitbucket/pkg/shared/errors"
	"github.com/gushphp/gush-bitbucket/pkg/shared/logger"
)

var (
	cfgFile   string
	remoteURL string
	AppConfig *config.Config
	Logger    hclog.Logger
	rootCmd   = &cobra.Command{
		Use:                   "gush-bitbucket [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "Gush adapter for Bitbucket Cloud.",
		Long: `Gush adapter for Bitbucket Cloud issue trackers, pull requests and tags.

Credentials are read from the bitbucket.authentication section of the
configuration file. A secret-or-token or oauth-secret value of the form
keyring:<key> is read from the system keyring.`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is config.yml)")
	rootCmd.PersistentFlags().StringVar(&remoteURL, "remote", "", "git remote URL naming the repository, overrides bitbucket.repository")

	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(auth.AuthCmd)
	rootCmd.AddCommand(issue.IssueCmd)
	rootCmd.AddCommand(pr.PullRequestCmd)
	rootCmd.AddCommand(release.ReleaseCmd)
	rootCmd.AddCommand(repo.RepoCmd)
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)

		var cmdErr *gusherrors.CommandError
		if errors.As(err, &cmdErr) {
			return cmdErr.ExitCode
		}
		return 1
	}
	return 0
}

func initConfig() {
	var err error

	if cfgFile == "" {
		cfgFile = "config.yml"
	}
	AppConfig, err = config.LoadConfig(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config file %q: %v\n", cfgFile, err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	Logger = logger.NewLogger(AppConfig, "core")

	if remoteURL != "" {
		owner, repo, err := adapter.ParseRemote(remoteURL)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		AppConfig.Bitbucket.Repository = config.Repository{Owner: owner, Name: repo}
	} else if AppConfig.Bitbucket.Repository.Name == "" {
		detectRepository(AppConfig, Logger)
	}

	version.Init(AppConfig)
	auth.Init(AppConfig, Logger.Named("auth"))
	issue.Init(AppConfig, Logger.Named("issue"))
	pr.Init(AppConfig, Logger.Named("pr"))
	release.Init(AppConfig, Logger.Named("release"))
	repo.Init(AppConfig, Logger.Named("repo"))
}

// detectRepository fills the repository from the origin remote of the
// working copy, when it points at Bitbucket.
func detectRepository(cfg *config.Config, lg hclog.Logger) {
	md, err := git.CollectRepositoryMetadata(".", git.DefaultRemote)
	if err != nil {
		lg.Debug("no repository detected from the working copy", "error", err)
		return
	}
	owner, repo, err := adapter.ParseRemote(md.RemoteURL)
	if err != nil {
		lg.Debug("origin is not a Bitbucket repository", "remote", md.RemoteURL, "error", err)
		return
	}
	lg.Debug("repository detected from the working copy", "owner", owner, "name", repo)
	cfg.Bitbucket.Repository = config.Repository{Owner: owner, Name: repo}
}
