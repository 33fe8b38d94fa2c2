package issue

import (
	"fmt"
	"strconv"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/gushphp/gush-bitbucket/internal/adapter"
	"github.com/gushphp/gush-bitbucket/pkg/shared"
	"github.com/gushphp/gush-bitbucket/pkg/shared/config"
	"github.com/gushphp/gush-bitbucket/pkg/shared/errors"
)

// RunOptionsIssueList holds the arguments of issue list.
type RunOptionsIssueList struct {
	State    string
	Kind     string
	Assignee string
	Creator  string
	Page     int
	PerPage  int
}

// RunOptionsIssueCreate holds the arguments of issue create.
type RunOptionsIssueCreate struct {
	Title    string
	Body     string
	Kind     string
	Priority string
}

var (
	AppConfig *config.Config
	logger    hclog.Logger

	listOptions    RunOptionsIssueList
	createOptions  RunOptionsIssueCreate
	commentMessage string

	IssueCmd = &cobra.Command{
		Use:                   "issue [command]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Work with the repository issue tracker",
	}

	listCmd = &cobra.Command{
		Use:                   "list [flags]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "List issues",
		Example:               "  gush-bitbucket issue list --state open --kind bug --per-page 10",
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd, func(it *adapter.IssueTracker) (interface{}, error) {
				return it.GetIssues(cmd.Context(), listOptions.filters(), listOptions.Page, listOptions.PerPage)
			})
		},
	}

	showCmd = &cobra.Command{
		Use:                   "show ID",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Show an issue with its comments",
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withTracker(cmd, func(it *adapter.IssueTracker) (interface{}, error) {
				issue, err := it.GetIssue(cmd.Context(), id)
				if err != nil {
					return nil, err
				}
				comments, err := it.GetComments(cmd.Context(), id)
				if err != nil {
					return nil, err
				}
				return issueWithComments{Issue: issue, Comments: comments}, nil
			})
		},
	}

	createCmd = &cobra.Command{
		Use:                   "create [flags]",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Open a new issue",
		Example:               "  gush-bitbucket issue create --title \"Crash on start\" --kind bug",
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if createOptions.Title == "" {
				return errors.NewCommandError(fmt.Errorf("--title is required"), 1)
			}
			return withTracker(cmd, func(it *adapter.IssueTracker) (interface{}, error) {
				id, err := it.OpenIssue(cmd.Context(), createOptions.Title, createOptions.Body, createOptions.options())
				if err != nil {
					return nil, err
				}
				return adapter.CommentResult{Number: id, URL: it.GetIssueURL(id)}, nil
			})
		},
	}

	commentCmd = &cobra.Command{
		Use:                   "comment ID --message TEXT",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Comment on an issue",
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if commentMessage == "" {
				return errors.NewCommandError(fmt.Errorf("--message is required"), 1)
			}
			return withTracker(cmd, func(it *adapter.IssueTracker) (interface{}, error) {
				return it.CreateComment(cmd.Context(), id, commentMessage)
			})
		},
	}

	closeCmd = &cobra.Command{
		Use:                   "close ID",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Resolve an issue",
		Args:                  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withTracker(cmd, func(it *adapter.IssueTracker) (interface{}, error) {
				if err := it.CloseIssue(cmd.Context(), id); err != nil {
					return nil, err
				}
				return it.GetIssue(cmd.Context(), id)
			})
		},
	}

	labelsCmd = &cobra.Command{
		Use:                   "labels",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "List the components usable as labels",
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd, func(it *adapter.IssueTracker) (interface{}, error) {
				return it.GetLabels(cmd.Context())
			})
		},
	}

	milestonesCmd = &cobra.Command{
		Use:                   "milestones",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "List milestones",
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd, func(it *adapter.IssueTracker) (interface{}, error) {
				return it.GetMilestones(cmd.Context())
			})
		},
	}
)

type issueWithComments struct {
	*adapter.Issue
	Comments []adapter.Comment `json:"comments"`
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func init() {
	listCmd.Flags().StringVar(&listOptions.State, "state", "", "issue state, e.g. new, open, resolved")
	listCmd.Flags().StringVar(&listOptions.Kind, "kind", "", "issue kind, e.g. bug, enhancement")
	listCmd.Flags().StringVar(&listOptions.Assignee, "assignee", "", "username of the assignee")
	listCmd.Flags().StringVar(&listOptions.Creator, "creator", "", "username of the reporter")
	listCmd.Flags().IntVar(&listOptions.Page, "page", adapter.DefaultPage, "page number")
	listCmd.Flags().IntVar(&listOptions.PerPage, "per-page", adapter.DefaultPerPage, "issues per page")

	createCmd.Flags().StringVar(&createOptions.Title, "title", "", "issue title")
	createCmd.Flags().StringVar(&createOptions.Body, "body", "", "issue body")
	createCmd.Flags().StringVar(&createOptions.Kind, "kind", "", "issue kind")
	createCmd.Flags().StringVar(&createOptions.Priority, "priority", "", "issue priority")

	commentCmd.Flags().StringVarP(&commentMessage, "message", "m", "", "comment text")

	IssueCmd.AddCommand(listCmd, showCmd, createCmd, commentCmd, closeCmd, labelsCmd, milestonesCmd)
}

func (o RunOptionsIssueList) filters() map[string]string {
	filters := map[string]string{}
	for key, value := range map[string]string{
		"state":    o.State,
		"kind":     o.Kind,
		"assignee": o.Assignee,
		"creator":  o.Creator,
	} {
		if value != "" {
			filters[key] = value
		}
	}
	return filters
}

func (o RunOptionsIssueCreate) options() map[string]interface{} {
	options := map[string]interface{}{}
	if o.Kind != "" {
		options["kind"] = o.Kind
	}
	if o.Priority != "" {
		options["priority"] = o.Priority
	}
	return options
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, errors.NewCommandError(fmt.Errorf("invalid issue id %q", arg), 1)
	}
	return id, nil
}

func withTracker(cmd *cobra.Command, f func(*adapter.IssueTracker) (interface{}, error)) error {
	err := shared.WithSession(cmd.Context(), AppConfig, "issue", func(s *shared.Session) error {
		result, err := f(s.Issues)
		if err != nil {
			return err
		}
		return shared.WriteJSON(cmd.OutOrStdout(), result)
	})
	if err != nil {
		logger.Debug("issue command failed", "command", cmd.Name(), "error", err)
		return errors.NewCommandError(err, 2)
	}
	return nil
}
