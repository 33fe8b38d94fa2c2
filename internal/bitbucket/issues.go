package bitbucket

import (
	"context"
	"fmt"
	"strconv"
)

// issuesService implements the IssuesService interface.
type issuesService struct {
	*service
}

// List retrieves a single page of issues matching opts.
func (is *issuesService) List(ctx context.Context, owner, repo string, opts IssueListOptions) (*Page[Issue], error) {
	is.client.Logger.Info("fetching list of issues",
		"owner", owner,
		"repository", repo,
		"query", opts.Query,
	)

	query := pageQuery(opts.Page, opts.Pagelen)
	if opts.Query != "" {
		query["q"] = opts.Query
	}
	if opts.Sort != "" {
		query["sort"] = opts.Sort
	}

	response, err := is.client.get(ctx, repoPath(owner, repo, "issues"), query)
	if err != nil {
		return nil, fmt.Errorf("error fetching issues: %w", err)
	}

	var page Page[Issue]
	if err := unmarshalResponse(response, &page); err != nil {
		return nil, err
	}
	is.client.Logger.Debug("fetched issues", "count", len(page.Values))
	return &page, nil
}

// Get retrieves a single issue by id.
func (is *issuesService) Get(ctx context.Context, owner, repo string, id int) (*Issue, error) {
	is.client.Logger.Debug("fetching issue", "owner", owner, "repository", repo, "id", id)

	response, err := is.client.get(ctx, repoPath(owner, repo, "issues", strconv.Itoa(id)), nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching issue %d: %w", id, err)
	}

	var issue Issue
	if err := unmarshalResponse(response, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// Create opens a new issue from params, which follow the issue JSON schema.
func (is *issuesService) Create(ctx context.Context, owner, repo string, params map[string]interface{}) (*Issue, error) {
	is.client.Logger.Info("creating issue", "owner", owner, "repository", repo)

	response, err := is.client.post(ctx, repoPath(owner, repo, "issues"), pruneNil(params))
	if err != nil {
		return nil, fmt.Errorf("error creating issue: %w", err)
	}

	var issue Issue
	if err := unmarshalResponse(response, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// Update modifies an existing issue. Keys mapped to nil are not sent.
func (is *issuesService) Update(ctx context.Context, owner, repo string, id int, params map[string]interface{}) (*Issue, error) {
	is.client.Logger.Info("updating issue", "owner", owner, "repository", repo, "id", id)

	response, err := is.client.put(ctx, repoPath(owner, repo, "issues", strconv.Itoa(id)), pruneNil(params))
	if err != nil {
		return nil, fmt.Errorf("error updating issue %d: %w", id, err)
	}

	var issue Issue
	if err := unmarshalResponse(response, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// ListComments retrieves the comments of an issue.
func (is *issuesService) ListComments(ctx context.Context, owner, repo string, id int) (*Page[Comment], error) {
	is.client.Logger.Debug("fetching issue comments", "owner", owner, "repository", repo, "id", id)

	response, err := is.client.get(ctx, repoPath(owner, repo, "issues", strconv.Itoa(id), "comments"), nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching comments of issue %d: %w", id, err)
	}

	var page Page[Comment]
	if err := unmarshalResponse(response, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateComment adds a comment to an issue.
func (is *issuesService) CreateComment(ctx context.Context, owner, repo string, id int, body string) (*Comment, error) {
	is.client.Logger.Info("commenting on issue", "owner", owner, "repository", repo, "id", id)

	payload := map[string]interface{}{"content": Content{Raw: body}}
	response, err := is.client.post(ctx, repoPath(owner, repo, "issues", strconv.Itoa(id), "comments"), payload)
	if err != nil {
		return nil, fmt.Errorf("error commenting on issue %d: %w", id, err)
	}

	var comment Comment
	if err := unmarshalResponse(response, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListMilestones retrieves the milestones of the issue tracker.
func (is *issuesService) ListMilestones(ctx context.Context, owner, repo string) (*Page[Milestone], error) {
	response, err := is.client.get(ctx, repoPath(owner, repo, "milestones"), nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching milestones: %w", err)
	}

	var page Page[Milestone]
	if err := unmarshalResponse(response, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListComponents retrieves the components of the issue tracker.
func (is *issuesService) ListComponents(ctx context.Context, owner, repo string) (*Page[Component], error) {
	response, err := is.client.get(ctx, repoPath(owner, repo, "components"), nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching components: %w", err)
	}

	var page Page[Component]
	if err := unmarshalResponse(response, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
