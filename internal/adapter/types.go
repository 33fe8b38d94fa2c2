package adapter

import "time"

// Issue is the tool-neutral view of an issue tracker entry.
type Issue struct {
	URL         string     `json:"url"`
	Number      int        `json:"number"`
	State       string     `json:"state"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	User        string     `json:"user"`
	Labels      []string   `json:"labels"`
	Assignee    string     `json:"assignee"`
	Milestone   string     `json:"milestone,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	ClosedBy    string     `json:"closed_by,omitempty"`
	PullRequest bool       `json:"pull_request"`
}

// Comment is a comment on an issue or a pull request.
type Comment struct {
	ID        int        `json:"id"`
	URL       string     `json:"url"`
	Body      string     `json:"body"`
	User      string     `json:"user"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// CommentResult identifies a newly created comment.
type CommentResult struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
}

// Ref is one side of a pull request.
type Ref struct {
	Ref   string `json:"ref"`
	Label string `json:"label,omitempty"`
	SHA   string `json:"sha"`
	User  string `json:"user,omitempty"`
	Repo  string `json:"repo"`
}

// PullRequest is the tool-neutral view of a pull request.
type PullRequest struct {
	URL         string     `json:"url"`
	Number      int        `json:"number"`
	State       string     `json:"state"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Labels      []string   `json:"labels"`
	Milestone   string     `json:"milestone,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	User        string     `json:"user"`
	Assignee    string     `json:"assignee,omitempty"`
	MergeCommit string     `json:"merge_commit,omitempty"`
	Merged      bool       `json:"merged"`
	MergedBy    string     `json:"merged_by,omitempty"`
	Head        Ref        `json:"head"`
	Base        Ref        `json:"base"`
}

// PullRequestResult identifies a newly opened pull request.
type PullRequestResult struct {
	HTMLURL string `json:"html_url"`
	Number  int    `json:"number"`
}

// Commit is a commit of a pull request.
type Commit struct {
	SHA     string `json:"sha"`
	User    string `json:"user"`
	Message string `json:"message"`
}

// Release is a tag presented as a release.
type Release struct {
	URL         string     `json:"url"`
	Name        string     `json:"name"`
	TagName     string     `json:"tag_name"`
	Body        string     `json:"body"`
	Draft       bool       `json:"draft"`
	Prerelease  bool       `json:"prerelease"`
	CreatedAt   *time.Time `json:"created_at"`
	PublishedAt *time.Time `json:"published_at"`
	User        string     `json:"user"`
}

// Fork locates a newly created fork.
type Fork struct {
	GitURL  string `json:"git_url"`
	HTMLURL string `json:"html_url"`
}
