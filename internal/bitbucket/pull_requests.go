package bitbucket

import (
	"context"
	"fmt"
	"strconv"
)

// pullRequestsService implements the PullRequestsService interface.
type pullRequestsService struct {
	*service
}

// List retrieves a single page of pull requests in the given state.
func (prs *pullRequestsService) List(ctx context.Context, owner, repo string, opts PullRequestListOptions) (*Page[PullRequest], error) {
	prs.client.Logger.Info("fetching list of pull requests",
		"owner", owner,
		"repository", repo,
		"state", opts.State,
	)

	query := pageQuery(opts.Page, opts.Pagelen)
	if opts.State != "" {
		query["state"] = opts.State
	}

	response, err := prs.client.get(ctx, repoPath(owner, repo, "pullrequests"), query)
	if err != nil {
		return nil, fmt.Errorf("error fetching pull requests: %w", err)
	}

	var page Page[PullRequest]
	if err := unmarshalResponse(response, &page); err != nil {
		return nil, err
	}
	prs.client.Logger.Debug("fetched pull requests", "count", len(page.Values))
	return &page, nil
}

// Get retrieves a pull request for a given owner, repository, and ID.
func (prs *pullRequestsService) Get(ctx context.Context, owner, repo string, id int) (*PullRequest, error) {
	prs.client.Logger.Debug("fetching pull request information", "owner", owner, "repository", repo, "id", id)

	response, err := prs.client.get(ctx, prPath(owner, repo, id), nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching pull request: %w", err)
	}

	var result PullRequest
	if err := unmarshalResponse(response, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Create opens a pull request.
func (prs *pullRequestsService) Create(ctx context.Context, owner, repo string, input PullRequestInput) (*PullRequest, error) {
	prs.client.Logger.Info("opening pull request",
		"owner", owner,
		"repository", repo,
		"source", input.Source.Branch.Name,
		"destination", input.Destination.Branch.Name,
	)

	response, err := prs.client.post(ctx, repoPath(owner, repo, "pullrequests"), input)
	if err != nil {
		return nil, fmt.Errorf("error opening pull request: %w", err)
	}

	var result PullRequest
	if err := unmarshalResponse(response, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Commits retrieves the commits of a pull request.
func (prs *pullRequestsService) Commits(ctx context.Context, owner, repo string, id int) (*Page[Commit], error) {
	prs.client.Logger.Debug("fetching pull request commits", "owner", owner, "repository", repo, "id", id)

	response, err := prs.client.get(ctx, prPath(owner, repo, id, "commits"), nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching commits: %w", err)
	}

	var page Page[Commit]
	if err := unmarshalResponse(response, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Merge merges a pull request with an optional commit message.
func (prs *pullRequestsService) Merge(ctx context.Context, owner, repo string, id int, message string) (*PullRequest, error) {
	prs.client.Logger.Info("merging pull request", "owner", owner, "repository", repo, "id", id)

	body := map[string]interface{}{}
	if message != "" {
		body["message"] = message
	}

	response, err := prs.client.post(ctx, prPath(owner, repo, id, "merge"), body)
	if err != nil {
		return nil, fmt.Errorf("error merging pull request: %w", err)
	}

	var result PullRequest
	if err := unmarshalResponse(response, &result); err != nil {
		return nil, err
	}
	result.Raw = response.Body()
	return &result, nil
}

// Decline closes a pull request without merging it.
func (prs *pullRequestsService) Decline(ctx context.Context, owner, repo string, id int) (*PullRequest, error) {
	prs.client.Logger.Info("declining pull request", "owner", owner, "repository", repo, "id", id)

	response, err := prs.client.post(ctx, prPath(owner, repo, id, "decline"), nil)
	if err != nil {
		return nil, fmt.Errorf("error declining pull request: %w", err)
	}

	var result PullRequest
	if err := unmarshalResponse(response, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListComments retrieves the comments of a pull request.
func (prs *pullRequestsService) ListComments(ctx context.Context, owner, repo string, id int) (*Page[Comment], error) {
	response, err := prs.client.get(ctx, prPath(owner, repo, id, "comments"), nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching comments: %w", err)
	}

	var page Page[Comment]
	if err := unmarshalResponse(response, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateComment leaves a comment on a pull request.
func (prs *pullRequestsService) CreateComment(ctx context.Context, owner, repo string, id int, body string) (*Comment, error) {
	prs.client.Logger.Debug("leaving a comment on a pull request", "owner", owner, "repository", repo, "id", id)

	payload := map[string]interface{}{"content": Content{Raw: body}}
	response, err := prs.client.post(ctx, prPath(owner, repo, id, "comments"), payload)
	if err != nil {
		return nil, fmt.Errorf("error leaving a comment: %w", err)
	}

	var result Comment
	if err := unmarshalResponse(response, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func prPath(owner, repo string, id int, elems ...string) string {
	return repoPath(owner, repo, append([]string{"pullrequests", strconv.Itoa(id)}, elems...)...)
}
