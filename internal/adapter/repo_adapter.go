package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/mod/semver"

	"github.com/gushphp/gush-bitbucket/internal/bitbucket"
	"github.com/gushphp/gush-bitbucket/pkg/shared/config"
	gusherrors "github.com/gushphp/gush-bitbucket/pkg/shared/errors"
)

var (
	// ErrForkNotAllowed is returned when the repository fork policy forbids forks.
	ErrForkNotAllowed = errors.New("forking is not allowed for this repository")
	// ErrNotGit is returned for repositories using another SCM.
	ErrNotGit = errors.New("repository type is not git, only git supported")
)

// RepoAdapter works on the pull requests, forks and tags of one repository.
type RepoAdapter struct {
	*base
}

// NewRepoAdapter creates a RepoAdapter for the repository named in cfg.
func NewRepoAdapter(client *bitbucket.Client, cfg *config.Config, logger hclog.Logger) *RepoAdapter {
	return &RepoAdapter{base: newBase(client, cfg, logger)}
}

// CreateFork forks the repository for org. When the authenticated user owns
// the repository the fork is named {org}-{name}, since Bitbucket forks into
// the user's own workspace.
func (ra *RepoAdapter) CreateFork(ctx context.Context, org string) (*Fork, error) {
	if err := ra.requireRepository(); err != nil {
		return nil, err
	}

	repo, err := ra.client.Repositories.Get(ctx, ra.owner, ra.repo)
	if err != nil {
		return nil, err
	}
	if repo.ForkPolicy == bitbucket.ForkPolicyNoForks {
		return nil, ErrForkNotAllowed
	}
	if repo.Scm != "git" {
		return nil, ErrNotGit
	}

	name := repo.Name
	if ra.username != "" && repo.Owner.Login() == ra.username {
		name = org + "-" + repo.Name
	}

	isPrivate := repo.IsPrivate
	fork, err := ra.client.Repositories.Fork(ctx, ra.owner, ra.repo, bitbucket.ForkInput{
		Name:      name,
		IsPrivate: &isPrivate,
	})
	if err != nil {
		return nil, err
	}

	owner, slug := fork.Owner.Login(), fork.Slug
	if fullName := strings.SplitN(fork.FullName, "/", 2); len(fullName) == 2 {
		owner, slug = fullName[0], fullName[1]
	}

	result := &Fork{
		GitURL:  fmt.Sprintf("git@%s:%s/%s.git", ra.domainHost(), owner, slug),
		HTMLURL: fmt.Sprintf("%s/%s/%s", ra.domain, owner, slug),
	}
	if _, ssh := bitbucket.ExtractCloneLinks(fork.Links.Clone); ssh != "" {
		result.GitURL = ssh
	}
	if fork.Links.HTML.Href != "" {
		result.HTMLURL = fork.Links.HTML.Href
	}
	ra.logger.Info("repository forked", "fork", owner+"/"+slug)
	return result, nil
}

// CreateComment leaves a comment on a pull request and returns its URL.
func (ra *RepoAdapter) CreateComment(ctx context.Context, id int, message string) (string, error) {
	if err := ra.requireRepository(); err != nil {
		return "", err
	}

	comment, err := ra.client.PullRequests.CreateComment(ctx, ra.owner, ra.repo, id, message)
	if err != nil {
		return "", err
	}
	return ra.pullRequestCommentURL(id, comment.ID), nil
}

// GetComments returns the comments of a pull request.
func (ra *RepoAdapter) GetComments(ctx context.Context, id int) ([]Comment, error) {
	if err := ra.requireRepository(); err != nil {
		return nil, err
	}

	result, err := ra.client.PullRequests.ListComments(ctx, ra.owner, ra.repo, id)
	if err != nil {
		return nil, err
	}

	comments := make([]Comment, 0, len(result.Values))
	for i := range result.Values {
		c := &result.Values[i]
		u := c.Links.HTML.Href
		if u == "" {
			u = ra.pullRequestCommentURL(id, c.ID)
		}
		comments = append(comments, adaptComment(c, u))
	}
	return comments, nil
}

// GetLabels is not available for pull requests.
func (ra *RepoAdapter) GetLabels(context.Context) ([]string, error) {
	return nil, gusherrors.NewUnsupportedError("components (labels) for pull requests")
}

// GetMilestones is not available for pull requests.
func (ra *RepoAdapter) GetMilestones(context.Context) ([]string, error) {
	return nil, gusherrors.NewUnsupportedError("milestones for pull requests")
}

// OpenPullRequest opens a pull request from head into the base branch. head
// is either a branch or org:branch; a different org means the branch lives
// in that org's fork.
func (ra *RepoAdapter) OpenPullRequest(ctx context.Context, base, head, subject, body string) (*PullRequestResult, error) {
	if err := ra.requireRepository(); err != nil {
		return nil, err
	}

	sourceOrg, sourceBranch := ra.owner, head
	if org, branch, ok := strings.Cut(head, ":"); ok {
		sourceOrg, sourceBranch = org, branch
	}

	input := bitbucket.PullRequestInput{
		Title:       subject,
		Description: body,
		Source:      bitbucket.Endpoint{Branch: bitbucket.Branch{Name: sourceBranch}},
		Destination: bitbucket.Endpoint{Branch: bitbucket.Branch{Name: base}},
	}
	if sourceOrg != ra.owner {
		input.Source.Repository = &bitbucket.RepositoryRef{FullName: sourceOrg + "/" + ra.repo}
	}

	pr, err := ra.client.PullRequests.Create(ctx, ra.owner, ra.repo, input)
	if err != nil {
		return nil, err
	}

	htmlURL := pr.Links.HTML.Href
	if htmlURL == "" {
		htmlURL = ra.GetPullRequestURL(pr.ID)
	}
	return &PullRequestResult{HTMLURL: htmlURL, Number: pr.ID}, nil
}

// GetPullRequest returns the pull request with the given number.
func (ra *RepoAdapter) GetPullRequest(ctx context.Context, id int) (*PullRequest, error) {
	if err := ra.requireRepository(); err != nil {
		return nil, err
	}

	pr, err := ra.client.PullRequests.Get(ctx, ra.owner, ra.repo, id)
	if err != nil {
		return nil, err
	}
	adapted := ra.adaptPullRequest(pr)
	return &adapted, nil
}

// GetPullRequestURL returns the web URL of a pull request.
func (ra *RepoAdapter) GetPullRequestURL(id int) string {
	return ra.repoURL("pull-requests", strconv.Itoa(id))
}

// GetPullRequestCommits returns the first page of commits of a pull request.
func (ra *RepoAdapter) GetPullRequestCommits(ctx context.Context, id int) ([]Commit, error) {
	if err := ra.requireRepository(); err != nil {
		return nil, err
	}

	result, err := ra.client.PullRequests.Commits(ctx, ra.owner, ra.repo, id)
	if err != nil {
		return nil, err
	}

	commits := make([]Commit, 0, len(result.Values))
	for _, c := range result.Values {
		user := c.Author.User.Login()
		if user == "" {
			user = c.Author.Raw
		}
		commits = append(commits, Commit{
			SHA:     c.Hash,
			User:    user,
			Message: strings.TrimSpace(c.Message),
		})
	}
	return commits, nil
}

// MergePullRequest merges a pull request and returns the merge commit hash.
func (ra *RepoAdapter) MergePullRequest(ctx context.Context, id int, message string) (string, error) {
	if err := ra.requireRepository(); err != nil {
		return "", err
	}

	pr, err := ra.client.PullRequests.Merge(ctx, ra.owner, ra.repo, id, message)
	if err != nil {
		return "", err
	}
	if pr.State != bitbucket.PullRequestMerged {
		return "", fmt.Errorf("pull request %d was not merged: %s", id, string(pr.Raw))
	}
	if pr.MergeCommit == nil {
		return "", nil
	}
	return pr.MergeCommit.Hash, nil
}

// UpdatePullRequest is not implemented: Bitbucket requires every existing
// value to be sent back on update.
func (ra *RepoAdapter) UpdatePullRequest(context.Context, int, map[string]interface{}) error {
	return gusherrors.NewNotImplementedError("UpdatePullRequest", Name)
}

// ClosePullRequest declines a pull request.
func (ra *RepoAdapter) ClosePullRequest(ctx context.Context, id int) error {
	if err := ra.requireRepository(); err != nil {
		return err
	}
	_, err := ra.client.PullRequests.Decline(ctx, ra.owner, ra.repo, id)
	return err
}

// GetPullRequests returns one page of pull requests in state. An empty state
// lists open pull requests.
func (ra *RepoAdapter) GetPullRequests(ctx context.Context, state string, page, perPage int) ([]PullRequest, error) {
	if err := ra.requireRepository(); err != nil {
		return nil, err
	}
	if page <= 0 {
		page = DefaultPage
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	result, err := ra.client.PullRequests.List(ctx, ra.owner, ra.repo, bitbucket.PullRequestListOptions{
		State:   strings.ToUpper(state),
		Page:    page,
		Pagelen: perPage,
	})
	if err != nil {
		return nil, err
	}

	prs := make([]PullRequest, 0, len(result.Values))
	for i := range result.Values {
		prs = append(prs, ra.adaptPullRequest(&result.Values[i]))
	}
	return prs, nil
}

// PullRequestStates returns the states accepted by GetPullRequests.
func (ra *RepoAdapter) PullRequestStates() []string {
	return []string{
		bitbucket.PullRequestOpen,
		bitbucket.PullRequestMerged,
		bitbucket.PullRequestDeclined,
	}
}

// CreateRelease is not implemented; tag the commit with git instead.
func (ra *RepoAdapter) CreateRelease(context.Context, string, map[string]interface{}) (*Release, error) {
	return nil, gusherrors.NewNotImplementedError("CreateRelease", Name)
}

// GetReleases returns the repository tags as releases.
func (ra *RepoAdapter) GetReleases(ctx context.Context) ([]Release, error) {
	if err := ra.requireRepository(); err != nil {
		return nil, err
	}

	result, err := ra.client.Repositories.ListTags(ctx, ra.owner, ra.repo)
	if err != nil {
		return nil, err
	}

	releases := make([]Release, 0, len(result.Values))
	for i := range result.Values {
		releases = append(releases, ra.adaptRelease(&result.Values[i]))
	}
	return releases, nil
}

// RemoveRelease is not implemented.
func (ra *RepoAdapter) RemoveRelease(context.Context, int) error {
	return gusherrors.NewNotImplementedError("RemoveRelease", Name)
}

// CreateReleaseAssets is not available on Bitbucket.
func (ra *RepoAdapter) CreateReleaseAssets(context.Context, int, string, string, []byte) error {
	return gusherrors.NewUnsupportedError("release assets")
}

func (ra *RepoAdapter) adaptPullRequest(pr *bitbucket.PullRequest) PullRequest {
	sourceOrg, sourceRepo := splitFullName(pr.Source.Repository)
	_, destRepo := splitFullName(pr.Destination.Repository)

	adapted := PullRequest{
		URL:       pr.Links.HTML.Href,
		Number:    pr.ID,
		State:     pr.State,
		Title:     pr.Title,
		Body:      pr.Description,
		Labels:    []string{},
		CreatedAt: pr.CreatedOn,
		UpdatedAt: pr.UpdatedOn,
		User:      pr.Author.Login(),
		Merged:    strings.EqualFold(pr.State, bitbucket.PullRequestMerged) && pr.ClosedBy != nil,
		MergedBy:  pr.ClosedBy.Login(),
		Head: Ref{
			Ref:  pr.Source.Branch.Name,
			SHA:  commitHash(pr.Source.Commit),
			User: sourceOrg,
			Repo: sourceRepo,
		},
		Base: Ref{
			Ref:   pr.Destination.Branch.Name,
			Label: pr.Destination.Branch.Name,
			SHA:   commitHash(pr.Destination.Commit),
			Repo:  destRepo,
		},
	}
	if adapted.URL == "" {
		adapted.URL = ra.GetPullRequestURL(pr.ID)
	}
	adapted.MergeCommit = commitHash(pr.MergeCommit)
	return adapted
}

func (ra *RepoAdapter) adaptRelease(tag *bitbucket.Tag) Release {
	date := tag.Date
	if date == nil {
		date = tag.Target.Date
	}

	var user string
	if tag.Tagger != nil {
		user = tag.Tagger.User.Login()
		if user == "" {
			user = tag.Tagger.Raw
		}
	}
	if user == "" {
		user = tag.Target.Author.User.Login()
	}

	return Release{
		URL:         ra.repoURL("commits", "tag", url.PathEscape(tag.Name)),
		Name:        tag.Name,
		TagName:     tag.Name,
		Body:        tag.Message,
		Prerelease:  IsPrerelease(tag.Name),
		CreatedAt:   copyTime(date),
		PublishedAt: copyTime(date),
		User:        user,
	}
}

// IsPrerelease reports whether a tag name is a semantic version with a
// prerelease part. A leading v is optional.
func IsPrerelease(name string) bool {
	v := "v" + strings.TrimPrefix(name, "v")
	return semver.IsValid(v) && semver.Prerelease(v) != ""
}

func (ra *RepoAdapter) pullRequestCommentURL(id, commentID int) string {
	return fmt.Sprintf("%s/_/diff#comment-%d", ra.GetPullRequestURL(id), commentID)
}

func (ra *RepoAdapter) domainHost() string {
	if u, err := url.Parse(ra.domain); err == nil && u.Host != "" {
		return u.Host
	}
	return bitbucketHost
}

func splitFullName(ref *bitbucket.RepositoryRef) (owner, name string) {
	if ref == nil {
		return "", ""
	}
	if o, n, ok := strings.Cut(ref.FullName, "/"); ok {
		return o, n
	}
	return "", ref.Name
}

func commitHash(ref *bitbucket.CommitRef) string {
	if ref == nil {
		return ""
	}
	return ref.Hash
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
