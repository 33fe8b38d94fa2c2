package bitbucket

import (
	"context"
	"fmt"
)

// repositoriesService implements the RepositoriesService interface.
type repositoriesService struct {
	*service
}

// Get retrieves repository metadata.
func (rs *repositoriesService) Get(ctx context.Context, owner, repo string) (*Repository, error) {
	rs.client.Logger.Debug("fetching repository information", "owner", owner, "repository", repo)

	response, err := rs.client.get(ctx, repoPath(owner, repo), nil)
	if err != nil {
		return nil, fmt.Errorf("error fetching repository: %w", err)
	}

	var result Repository
	if err := unmarshalResponse(response, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Fork creates a fork of the repository, under input.Workspace when set.
func (rs *repositoriesService) Fork(ctx context.Context, owner, repo string, input ForkInput) (*Repository, error) {
	rs.client.Logger.Info("forking repository",
		"owner", owner,
		"repository", repo,
		"name", input.Name,
	)

	response, err := rs.client.post(ctx, repoPath(owner, repo, "forks"), input)
	if err != nil {
		return nil, fmt.Errorf("error forking repository: %w", err)
	}

	var result Repository
	if err := unmarshalResponse(response, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListTags retrieves the tags of the repository, newest first.
func (rs *repositoriesService) ListTags(ctx context.Context, owner, repo string) (*Page[Tag], error) {
	rs.client.Logger.Info("fetching list of tags", "owner", owner, "repository", repo)

	query := map[string]string{"sort": "-target.date"}
	response, err := rs.client.get(ctx, repoPath(owner, repo, "refs", "tags"), query)
	if err != nil {
		return nil, fmt.Errorf("error fetching tags: %w", err)
	}

	var page Page[Tag]
	if err := unmarshalResponse(response, &page); err != nil {
		return nil, err
	}
	rs.client.Logger.Debug("fetched tags", "count", len(page.Values))
	return &page, nil
}
