package pr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/gushphp/gush-bitbucket/internal/adapter"
	"github.com/gushphp/gush-bitbucket/internal/git"
	"github.com/gushphp/gush-bitbucket/pkg/shared"
	"github.com/gushphp/gush-bitbucket/pkg/shared/config"
	"github.com/gushphp/gush-bitbucket/pkg/shared/errors"
)

// RunOptionsPullRequestList holds the arguments of pr list.
type RunOptionsPullRequestList struct {
	State   string
	Page    int
	PerPage int
}

// RunOptionsPullRequestCreate holds the arguments of pr create.
type RunOptionsPullRequestCreate struct {
	Base  string
	Head  string
	Title string
	Body  string
}

var (
	AppConfig *config.Config
	logger    hclog.Logger

	listOptions    RunOptionsPullRequestList
	createOptions  RunOptionsPullRequestCreate
	mergeMessage   string
	commentMessage string

	PullRequestCmd = &cobra.Command{
		Use:                   "pr [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Work with pull requests",
	}

	listCmd = &cobra.Command{
		Use:                   "list [flags]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "List pull requests",
		Example:               "  gush-bitbucket pr list --state merged",
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateState(listOptions.State); err != nil {
				return err
			}
			return withRepo(cmd, func(ra *adapter.RepoAdapter) (interface{}, error) {
				return ra.GetPullRequests(cmd.Context(), listOptions.State, listOptions.Page, listOptions.PerPage)
			})
		},
	}

	showCmd = &cobra.Command{
		Use:                   "show ID",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Show a pull request with its comments",
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRepo(cmd, func(ra *adapter.RepoAdapter) (interface{}, error) {
				pr, err := ra.GetPullRequest(cmd.Context(), id)
				if err != nil {
					return nil, err
				}
				comments, err := ra.GetComments(cmd.Context(), id)
				if err != nil {
					return nil, err
				}
				return pullRequestWithComments{PullRequest: pr, Comments: comments}, nil
			})
		},
	}

	statesCmd = &cobra.Command{
		Use:                   "states",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the states accepted by pr list",
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return shared.WriteJSON(cmd.OutOrStdout(), pullRequestStates())
		},
	}

	commitsCmd = &cobra.Command{
		Use:                   "commits ID",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "List the commits of a pull request",
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRepo(cmd, func(ra *adapter.RepoAdapter) (interface{}, error) {
				return ra.GetPullRequestCommits(cmd.Context(), id)
			})
		},
	}

	createCmd = &cobra.Command{
		Use:                   "create [flags]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Open a pull request",
		Example:               "  gush-bitbucket pr create --base main --head alice:feature --title \"Add feature\"",
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o := createOptions
			if o.Head == "" {
				if branch, err := git.CurrentBranch("."); err == nil {
					o.Head = branch
				}
			}
			if o.Base == "" || o.Head == "" || o.Title == "" {
				return errors.NewCommandError(fmt.Errorf("--base, --head and --title are required"), 1)
			}
			return withRepo(cmd, func(ra *adapter.RepoAdapter) (interface{}, error) {
				return ra.OpenPullRequest(cmd.Context(), o.Base, o.Head, o.Title, o.Body)
			})
		},
	}

	mergeCmd = &cobra.Command{
		Use:                   "merge ID",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Merge a pull request and print the merge commit",
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRepo(cmd, func(ra *adapter.RepoAdapter) (interface{}, error) {
				hash, err := ra.MergePullRequest(cmd.Context(), id, mergeMessage)
				if err != nil {
					return nil, err
				}
				return map[string]string{"sha": hash}, nil
			})
		},
	}

	closeCmd = &cobra.Command{
		Use:                   "close ID",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Decline a pull request",
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRepo(cmd, func(ra *adapter.RepoAdapter) (interface{}, error) {
				if err := ra.ClosePullRequest(cmd.Context(), id); err != nil {
					return nil, err
				}
				return ra.GetPullRequest(cmd.Context(), id)
			})
		},
	}

	commentCmd = &cobra.Command{
		Use:                   "comment ID --message TEXT",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Comment on a pull request",
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if commentMessage == "" {
				return errors.NewCommandError(fmt.Errorf("--message is required"), 1)
			}
			return withRepo(cmd, func(ra *adapter.RepoAdapter) (interface{}, error) {
				url, err := ra.CreateComment(cmd.Context(), id, commentMessage)
				if err != nil {
					return nil, err
				}
				return map[string]string{"url": url}, nil
			})
		},
	}
)

type pullRequestWithComments struct {
	*adapter.PullRequest
	Comments []adapter.Comment `json:"comments"`
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func init() {
	listCmd.Flags().StringVar(&listOptions.State, "state", "", "pull request state, see pr states (default OPEN)")
	listCmd.Flags().IntVar(&listOptions.Page, "page", adapter.DefaultPage, "page number")
	listCmd.Flags().IntVar(&listOptions.PerPage, "per-page", adapter.DefaultPerPage, "pull requests per page")

	createCmd.Flags().StringVar(&createOptions.Base, "base", "", "destination branch")
	createCmd.Flags().StringVar(&createOptions.Head, "head", "", "source branch, or org:branch for a fork (default is the current branch)")
	createCmd.Flags().StringVar(&createOptions.Title, "title", "", "pull request title")
	createCmd.Flags().StringVar(&createOptions.Body, "body", "", "pull request description")

	mergeCmd.Flags().StringVarP(&mergeMessage, "message", "m", "", "merge commit message")
	commentCmd.Flags().StringVarP(&commentMessage, "message", "m", "", "comment text")

	PullRequestCmd.AddCommand(listCmd, showCmd, statesCmd, commitsCmd, createCmd, mergeCmd, closeCmd, commentCmd)
}

// pullRequestStates needs no API access, so the adapter is built without a client.
func pullRequestStates() []string {
	_, ra := adapter.NewAdapters(nil, AppConfig, logger)
	return ra.PullRequestStates()
}

func validateState(state string) error {
	if state == "" {
		return nil
	}
	for _, s := range pullRequestStates() {
		if strings.EqualFold(s, state) {
			return nil
		}
	}
	return errors.NewCommandError(fmt.Errorf("unknown pull request state %q, expected one of %v", state, pullRequestStates()), 1)
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, errors.NewCommandError(fmt.Errorf("invalid pull request id %q", arg), 1)
	}
	return id, nil
}

func withRepo(cmd *cobra.Command, f func(*adapter.RepoAdapter) (interface{}, error)) error {
	err := shared.WithSession(cmd.Context(), AppConfig, "pr", func(s *shared.Session) error {
		result, err := f(s.Repo)
		if err != nil {
			return err
		}
		return shared.WriteJSON(cmd.OutOrStdout(), result)
	})
	if err != nil {
		logger.Debug("pull request command failed", "command", cmd.Name(), "error", err)
		return errors.NewCommandError(err, 2)
	}
	return nil
}
