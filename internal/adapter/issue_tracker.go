package adapter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/gushphp/gush-bitbucket/internal/bitbucket"
	"github.com/gushphp/gush-bitbucket/pkg/shared/config"
)

// Issue states of the Bitbucket issue tracker.
const (
	IssueStateNew      = "new"
	IssueStateOpen     = "open"
	IssueStateResolved = "resolved"
)

// Defaults for GetIssues.
const (
	DefaultPage    = 1
	DefaultPerPage = 30
)

// issueQueryFields maps filter names to Bitbucket issue query fields.
var issueQueryFields = map[string]string{
	"assignee":  "assignee.username",
	"creator":   "reporter.username",
	"milestone": "milestone.name",
	"component": "component.name",
	"version":   "version.name",
}

// IssueTracker works on the issue tracker of one repository.
type IssueTracker struct {
	*base
}

// NewIssueTracker creates an IssueTracker for the repository named in cfg.
func NewIssueTracker(client *bitbucket.Client, cfg *config.Config, logger hclog.Logger) *IssueTracker {
	return &IssueTracker{base: newBase(client, cfg, logger)}
}

// OpenIssue creates an issue and returns its number. options are sent as
// additional issue fields, e.g. kind or priority.
func (it *IssueTracker) OpenIssue(ctx context.Context, subject, body string, options map[string]interface{}) (int, error) {
	if err := it.requireRepository(); err != nil {
		return 0, err
	}

	params := make(map[string]interface{}, len(options)+2)
	for k, v := range options {
		params[k] = v
	}
	params["title"] = subject
	params["content"] = bitbucket.Content{Raw: body}

	issue, err := it.client.Issues.Create(ctx, it.owner, it.repo, params)
	if err != nil {
		return 0, err
	}
	return issue.ID, nil
}

// GetIssue returns the issue with the given number.
func (it *IssueTracker) GetIssue(ctx context.Context, id int) (*Issue, error) {
	if err := it.requireRepository(); err != nil {
		return nil, err
	}

	issue, err := it.client.Issues.Get(ctx, it.owner, it.repo, id)
	if err != nil {
		return nil, err
	}
	adapted := it.adaptIssue(issue)
	return &adapted, nil
}

// GetIssueURL returns the web URL of an issue.
func (it *IssueTracker) GetIssueURL(id int) string {
	return it.repoURL("issues", strconv.Itoa(id))
}

// GetIssues returns one page of issues matching params. Keys are issue
// fields (state, kind, priority) or one of assignee, creator, milestone,
// component and version.
func (it *IssueTracker) GetIssues(ctx context.Context, params map[string]string, page, perPage int) ([]Issue, error) {
	if err := it.requireRepository(); err != nil {
		return nil, err
	}
	if page <= 0 {
		page = DefaultPage
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	result, err := it.client.Issues.List(ctx, it.owner, it.repo, bitbucket.IssueListOptions{
		Page:    page,
		Pagelen: perPage,
		Query:   buildIssueQuery(params),
	})
	if err != nil {
		return nil, err
	}

	issues := make([]Issue, 0, len(result.Values))
	for i := range result.Values {
		issues = append(issues, it.adaptIssue(&result.Values[i]))
	}
	return issues, nil
}

// UpdateIssue changes the fields of an issue. An assignee is given by
// username. Nil values are left unchanged.
func (it *IssueTracker) UpdateIssue(ctx context.Context, id int, params map[string]interface{}) error {
	if err := it.requireRepository(); err != nil {
		return err
	}

	fields := make(map[string]interface{}, len(params))
	for k, v := range params {
		fields[k] = v
	}
	if assignee, ok := fields["assignee"].(string); ok {
		fields["assignee"] = map[string]string{"username": assignee}
	}

	_, err := it.client.Issues.Update(ctx, it.owner, it.repo, id, fields)
	return err
}

// CloseIssue marks an issue resolved.
func (it *IssueTracker) CloseIssue(ctx context.Context, id int) error {
	return it.UpdateIssue(ctx, id, map[string]interface{}{"state": IssueStateResolved})
}

// CreateComment adds a comment to an issue.
func (it *IssueTracker) CreateComment(ctx context.Context, id int, message string) (*CommentResult, error) {
	if err := it.requireRepository(); err != nil {
		return nil, err
	}

	comment, err := it.client.Issues.CreateComment(ctx, it.owner, it.repo, id, message)
	if err != nil {
		return nil, err
	}
	return &CommentResult{
		Number: comment.ID,
		URL:    it.issueCommentURL(id, comment),
	}, nil
}

// GetComments returns the comments of an issue.
func (it *IssueTracker) GetComments(ctx context.Context, id int) ([]Comment, error) {
	if err := it.requireRepository(); err != nil {
		return nil, err
	}

	result, err := it.client.Issues.ListComments(ctx, it.owner, it.repo, id)
	if err != nil {
		return nil, err
	}

	comments := make([]Comment, 0, len(result.Values))
	for i := range result.Values {
		c := &result.Values[i]
		comments = append(comments, adaptComment(c, it.issueCommentURL(id, c)))
	}
	return comments, nil
}

// GetLabels returns the component names, which serve as issue labels.
func (it *IssueTracker) GetLabels(ctx context.Context) ([]string, error) {
	if err := it.requireRepository(); err != nil {
		return nil, err
	}

	result, err := it.client.Issues.ListComponents(ctx, it.owner, it.repo)
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(result.Values))
	for _, c := range result.Values {
		labels = append(labels, c.Name)
	}
	return labels, nil
}

// GetMilestones returns the milestone names.
func (it *IssueTracker) GetMilestones(ctx context.Context) ([]string, error) {
	if err := it.requireRepository(); err != nil {
		return nil, err
	}

	result, err := it.client.Issues.ListMilestones(ctx, it.owner, it.repo)
	if err != nil {
		return nil, err
	}

	milestones := make([]string, 0, len(result.Values))
	for _, m := range result.Values {
		milestones = append(milestones, m.Name)
	}
	return milestones, nil
}

func (it *IssueTracker) issueCommentURL(id int, c *bitbucket.Comment) string {
	if c.Links.HTML.Href != "" {
		return c.Links.HTML.Href
	}
	return fmt.Sprintf("%s#comment-%d", it.GetIssueURL(id), c.ID)
}

func (it *IssueTracker) adaptIssue(issue *bitbucket.Issue) Issue {
	labels := make([]string, 0, 3)
	for _, l := range []string{issue.Kind, issue.Priority} {
		if l != "" {
			labels = append(labels, l)
		}
	}
	if issue.Component != nil && issue.Component.Name != "" {
		labels = append(labels, issue.Component.Name)
	}

	adapted := Issue{
		URL:       it.GetIssueURL(issue.ID),
		Number:    issue.ID,
		State:     issue.State,
		Title:     issue.Title,
		Body:      issue.Content.Raw,
		User:      issue.Reporter.Login(),
		Labels:    labels,
		Assignee:  issue.Assignee.Login(),
		CreatedAt: issue.CreatedOn,
		UpdatedAt: issue.UpdatedOn,
	}
	if issue.Milestone != nil {
		adapted.Milestone = issue.Milestone.Name
	}
	return adapted
}

func adaptComment(c *bitbucket.Comment, url string) Comment {
	comment := Comment{
		ID:        c.ID,
		URL:       url,
		Body:      c.Content.Raw,
		User:      c.User.Login(),
		UpdatedAt: c.UpdatedOn,
	}
	if !c.CreatedOn.IsZero() {
		created := c.CreatedOn
		comment.CreatedAt = &created
	}
	return comment
}

// buildIssueQuery turns filter parameters into a Bitbucket query expression.
// Keys are sorted so the expression is stable.
func buildIssueQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	terms := make([]string, 0, len(keys))
	for _, k := range keys {
		field := k
		if mapped, ok := issueQueryFields[k]; ok {
			field = mapped
		}
		terms = append(terms, fmt.Sprintf("%s=%s", field, strconv.Quote(params[k])))
	}
	return strings.Join(terms, " AND ")
}
