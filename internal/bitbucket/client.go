package bitbucket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"

	"github.com/gushphp/gush-bitbucket/internal/auth"
	"github.com/gushphp/gush-bitbucket/internal/listener"
	"github.com/gushphp/gush-bitbucket/pkg/shared/config"
	"github.com/gushphp/gush-bitbucket/pkg/shared/httpclient"
)

// APIVersionPath is appended to the configured base URL.
const APIVersionPath = "/2.0"

// service wraps a client to access different services.
type service struct {
	client *Client
}

// Client configures and manages access to the API, holding service implementations and an HTTP client.
type Client struct {
	HTTPClient   *httpclient.Client
	BaseURL      string
	Logger       hclog.Logger
	Users        UsersService
	Issues       IssuesService
	PullRequests PullRequestsService
	Repositories RepositoriesService

	tokenURL      string
	errorListener *listener.ErrorListener
}

// UsersService defines the interface for user-related operations.
type UsersService interface {
	Current(ctx context.Context) (*Account, error)
}

// IssuesService defines the interface for issue tracker operations.
type IssuesService interface {
	List(ctx context.Context, owner, repo string, opts IssueListOptions) (*Page[Issue], error)
	Get(ctx context.Context, owner, repo string, id int) (*Issue, error)
	Create(ctx context.Context, owner, repo string, params map[string]interface{}) (*Issue, error)
	Update(ctx context.Context, owner, repo string, id int, params map[string]interface{}) (*Issue, error)
	ListComments(ctx context.Context, owner, repo string, id int) (*Page[Comment], error)
	CreateComment(ctx context.Context, owner, repo string, id int, body string) (*Comment, error)
	ListMilestones(ctx context.Context, owner, repo string) (*Page[Milestone], error)
	ListComponents(ctx context.Context, owner, repo string) (*Page[Component], error)
}

// PullRequestsService defines the interface for pull request-related operations.
type PullRequestsService interface {
	List(ctx context.Context, owner, repo string, opts PullRequestListOptions) (*Page[PullRequest], error)
	Get(ctx context.Context, owner, repo string, id int) (*PullRequest, error)
	Create(ctx context.Context, owner, repo string, input PullRequestInput) (*PullRequest, error)
	Commits(ctx context.Context, owner, repo string, id int) (*Page[Commit], error)
	Merge(ctx context.Context, owner, repo string, id int, message string) (*PullRequest, error)
	Decline(ctx context.Context, owner, repo string, id int) (*PullRequest, error)
	ListComments(ctx context.Context, owner, repo string, id int) (*Page[Comment], error)
	CreateComment(ctx context.Context, owner, repo string, id int, body string) (*Comment, error)
}

// RepositoriesService defines the interface for repository-related operations.
type RepositoriesService interface {
	Get(ctx context.Context, owner, repo string) (*Repository, error)
	Fork(ctx context.Context, owner, repo string, input ForkInput) (*Repository, error)
	ListTags(ctx context.Context, owner, repo string) (*Page[Tag], error)
}

// New initializes a new API client with configured services.
// desc may be nil for anonymous access to public repositories.
func New(ctx context.Context, globalConfig *config.Config, logger hclog.Logger, desc auth.AuthDescriptor) (*Client, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	httpClient, err := httpclient.New(logger, globalConfig)
	if err != nil {
		logger.Error("failed to initialize HTTP client", "error", err)
		return nil, err
	}

	errorListener := listener.New()
	httpClient.RestyClient.OnAfterResponse(errorListener.Middleware())

	baseURL := strings.TrimRight(config.SetThen(globalConfig.Bitbucket.BaseURL, config.DefaultBaseURL), "/")
	client := &Client{
		HTTPClient:    httpClient,
		BaseURL:       baseURL + APIVersionPath,
		Logger:        logger,
		tokenURL:      globalConfig.Bitbucket.TokenURL,
		errorListener: errorListener,
	}

	if desc != nil {
		if err := client.SetCredentials(ctx, desc); err != nil {
			return nil, err
		}
	}

	client.Users = &usersService{&service{client}}
	client.Issues = &issuesService{&service{client}}
	client.PullRequests = &pullRequestsService{&service{client}}
	client.Repositories = &repositoriesService{&service{client}}

	return client, nil
}

// SetCredentials attaches the authentication descriptor to all subsequent requests.
func (c *Client) SetCredentials(ctx context.Context, desc auth.AuthDescriptor) error {
	if err := auth.Apply(ctx, c.HTTPClient.RestyClient, desc, c.tokenURL); err != nil {
		return fmt.Errorf("failed to set up authentication: %w", err)
	}
	c.Logger.Debug("authentication configured", "scheme", desc.Scheme())
	return nil
}

// DisableErrorListener stops translating failed responses into errors,
// for the next response only or until EnableErrorListener when permanent.
func (c *Client) DisableErrorListener(permanent bool) {
	c.errorListener.Disable(permanent)
}

// EnableErrorListener restores error translation.
func (c *Client) EnableErrorListener() {
	c.errorListener.Enable()
}

// ErrorListenerState reports the state of the error listener.
func (c *Client) ErrorListenerState() listener.State {
	return c.errorListener.State()
}

// Authenticate probes the credentials with GET /user. The error listener is
// suspended for this single request, so rejected credentials are reported
// as false rather than as an error. A consumer key/secret refused by the
// token endpoint counts as rejected too.
func (c *Client) Authenticate(ctx context.Context) (bool, error) {
	c.DisableErrorListener(false)

	response, err := c.get(ctx, "/user", nil)
	if err != nil {
		// the listener never saw a response; do not leak the suppression
		c.EnableErrorListener()
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			c.Logger.Debug("token endpoint rejected the consumer credentials", "error", retrieveErr)
			return false, nil
		}
		return false, fmt.Errorf("error probing credentials: %w", err)
	}

	c.Logger.Debug("credentials probed", "status", response.StatusCode())
	return response.IsSuccess(), nil
}

// resolveURL constructs the full URL by checking if the path is absolute or relative.
func (c *Client) resolveURL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.BaseURL + path
}

// headersBuilder returns a common request builder with the necessary headers.
func (c *Client) headersBuilder(ctx context.Context) *resty.Request {
	return c.HTTPClient.RestyClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

// get sends a GET request using the client's base URL, path, and query parameters provided.
func (c *Client) get(ctx context.Context, path string, queryParams map[string]string) (*resty.Response, error) {
	return c.headersBuilder(ctx).
		SetQueryParams(queryParams).
		Get(c.resolveURL(path))
}

// post sends a POST request using the client's base URL, path and body provided.
func (c *Client) post(ctx context.Context, path string, body interface{}) (*resty.Response, error) {
	req := c.headersBuilder(ctx)
	if body != nil {
		req.SetBody(body)
	}
	return req.Post(c.resolveURL(path))
}

// put sends a PUT request using the client's base URL, path and body provided.
func (c *Client) put(ctx context.Context, path string, body interface{}) (*resty.Response, error) {
	return c.headersBuilder(ctx).
		SetBody(body).
		Put(c.resolveURL(path))
}

// unmarshalResponse parses the JSON body of resp into out. Status checks
// belong to the error listener; an empty body leaves out untouched.
func unmarshalResponse[T any](resp *resty.Response, out *T) error {
	body := resp.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// repoPath builds /repositories/{owner}/{repo} followed by the optional suffix elements.
func repoPath(owner, repo string, elems ...string) string {
	var b strings.Builder
	b.WriteString("/repositories/")
	b.WriteString(url.PathEscape(owner))
	b.WriteString("/")
	b.WriteString(url.PathEscape(repo))
	for _, e := range elems {
		b.WriteString("/")
		b.WriteString(e)
	}
	return b.String()
}
