package bitbucket

import (
	"encoding/json"
	"time"
)

// Page wraps paginated API responses.
type Page[T any] struct {
	Size     int    `json:"size"`
	Page     int    `json:"page"`
	Pagelen  int    `json:"pagelen"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Values   []T    `json:"values"`
}

// Link is a single hyperlink.
type Link struct {
	Href string `json:"href"`
}

// Links stores URLs for accessing related resources.
type Links struct {
	Self   Link        `json:"self"`
	HTML   Link        `json:"html"`
	Avatar Link        `json:"avatar"`
	Clone  []CloneLink `json:"clone,omitempty"`
}

// CloneLink represents a link to clone the repository.
type CloneLink struct {
	Href string `json:"href"`
	Name string `json:"name"`
}

// Account represents a user or team.
type Account struct {
	UUID        string `json:"uuid,omitempty"`
	Username    string `json:"username,omitempty"`
	Nickname    string `json:"nickname,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AccountID   string `json:"account_id,omitempty"`
	Type        string `json:"type,omitempty"`
	Links       Links  `json:"links"`
}

// Login returns the best available login name for the account.
func (a *Account) Login() string {
	if a == nil {
		return ""
	}
	if a.Username != "" {
		return a.Username
	}
	if a.Nickname != "" {
		return a.Nickname
	}
	return a.DisplayName
}

// Content is a rendered text field.
type Content struct {
	Raw    string `json:"raw"`
	Markup string `json:"markup,omitempty"`
	HTML   string `json:"html,omitempty"`
}

// Named is a reference to a milestone, component or version by name.
type Named struct {
	Name string `json:"name"`
}

// Issue is an entry of the repository issue tracker.
type Issue struct {
	ID        int        `json:"id"`
	Title     string     `json:"title"`
	Content   Content    `json:"content"`
	State     string     `json:"state"`
	Kind      string     `json:"kind"`
	Priority  string     `json:"priority"`
	Reporter  *Account   `json:"reporter,omitempty"`
	Assignee  *Account   `json:"assignee,omitempty"`
	Milestone *Named     `json:"milestone,omitempty"`
	Component *Named     `json:"component,omitempty"`
	Version   *Named     `json:"version,omitempty"`
	CreatedOn time.Time  `json:"created_on"`
	UpdatedOn *time.Time `json:"updated_on,omitempty"`
	Links     Links      `json:"links"`
}

// IssueListOptions controls issue listing.
type IssueListOptions struct {
	Page    int
	Pagelen int
	// Query is a Bitbucket filter expression, e.g. state="open".
	Query string
	Sort  string
}

// Milestone is an issue tracker milestone.
type Milestone struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Component is an issue tracker component.
type Component struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Comment is a comment on an issue or a pull request.
type Comment struct {
	ID        int        `json:"id"`
	Content   Content    `json:"content"`
	User      *Account   `json:"user,omitempty"`
	CreatedOn time.Time  `json:"created_on"`
	UpdatedOn *time.Time `json:"updated_on,omitempty"`
	Links     Links      `json:"links"`
}

// Branch names a branch.
type Branch struct {
	Name string `json:"name"`
}

// CommitRef identifies a commit by hash.
type CommitRef struct {
	Hash string `json:"hash"`
}

// RepositoryRef identifies a repository by full name.
type RepositoryRef struct {
	FullName string `json:"full_name,omitempty"`
	Name     string `json:"name,omitempty"`
	UUID     string `json:"uuid,omitempty"`
}

// Endpoint is the source or destination side of a pull request.
type Endpoint struct {
	Branch     Branch         `json:"branch"`
	Commit     *CommitRef     `json:"commit,omitempty"`
	Repository *RepositoryRef `json:"repository,omitempty"`
}

// PullRequest defines the structure of a pull request.
type PullRequest struct {
	ID                int        `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	State             string     `json:"state"`
	Author            *Account   `json:"author,omitempty"`
	Source            Endpoint   `json:"source"`
	Destination       Endpoint   `json:"destination"`
	MergeCommit       *CommitRef `json:"merge_commit,omitempty"`
	ClosedBy          *Account   `json:"closed_by,omitempty"`
	CommentCount      int        `json:"comment_count"`
	CloseSourceBranch bool       `json:"close_source_branch"`
	CreatedOn         time.Time  `json:"created_on"`
	UpdatedOn         *time.Time `json:"updated_on,omitempty"`
	Links             Links      `json:"links"`

	// Raw holds the response body for merge results.
	Raw json.RawMessage `json:"-"`
}

// PullRequestInput is the body used to open a pull request.
type PullRequestInput struct {
	Title             string   `json:"title"`
	Description       string   `json:"description,omitempty"`
	Source            Endpoint `json:"source"`
	Destination       Endpoint `json:"destination"`
	CloseSourceBranch bool     `json:"close_source_branch,omitempty"`
}

// PullRequestListOptions controls pull request listing. An empty State
// lists open pull requests only, as the API does.
type PullRequestListOptions struct {
	State   string
	Page    int
	Pagelen int
}

// CommitAuthor is the author of a commit or tag.
type CommitAuthor struct {
	Raw  string   `json:"raw"`
	User *Account `json:"user,omitempty"`
}

// Commit is a single commit.
type Commit struct {
	Hash    string       `json:"hash"`
	Message string       `json:"message"`
	Author  CommitAuthor `json:"author"`
	Date    time.Time    `json:"date"`
}

// Repository represents a repository, including its owner and metadata.
type Repository struct {
	UUID        string   `json:"uuid"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description string   `json:"description"`
	Scm         string   `json:"scm"`
	IsPrivate   bool     `json:"is_private"`
	ForkPolicy  string   `json:"fork_policy"`
	HasIssues   bool     `json:"has_issues"`
	Owner       *Account `json:"owner,omitempty"`
	Links       Links    `json:"links"`
}

// ForkInput is the body used to fork a repository.
type ForkInput struct {
	Name      string     `json:"name,omitempty"`
	IsPrivate *bool      `json:"is_private,omitempty"`
	Workspace *Workspace `json:"workspace,omitempty"`
}

// Workspace identifies a workspace by slug.
type Workspace struct {
	Slug string `json:"slug"`
}

// Tag is a git tag.
type Tag struct {
	Name    string        `json:"name"`
	Message string        `json:"message"`
	Date    *time.Time    `json:"date,omitempty"`
	Tagger  *CommitAuthor `json:"tagger,omitempty"`
	Target  TagTarget     `json:"target"`
	Links   Links         `json:"links"`
}

// TagTarget is the commit a tag points at.
type TagTarget struct {
	Hash   string       `json:"hash"`
	Date   *time.Time   `json:"date,omitempty"`
	Author CommitAuthor `json:"author"`
}

// Fork policies.
const (
	ForkPolicyAllow    = "allow_forks"
	ForkPolicyNoPublic = "no_public_forks"
	ForkPolicyNoForks  = "no_forks"
)

// Pull request states.
const (
	PullRequestOpen       = "OPEN"
	PullRequestMerged     = "MERGED"
	PullRequestDeclined   = "DECLINED"
	PullRequestSuperseded = "SUPERSEDED"
)
