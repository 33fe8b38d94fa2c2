package bitbucket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gushphp/gush-bitbucket/internal/auth"
	"github.com/gushphp/gush-bitbucket/internal/listener"
	"github.com/gushphp/gush-bitbucket/pkg/shared/config"
	gusherrors "github.com/gushphp/gush-bitbucket/pkg/shared/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, desc auth.AuthDescriptor) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{Bitbucket: config.Bitbucket{BaseURL: srv.URL + "/"}}
	client, err := New(context.Background(), cfg, hclog.NewNullLogger(), desc)
	require.NoError(t, err)
	return client
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil, nil, nil)
	assert.Error(t, err)
}

func TestNewSetsBaseURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, nil)
	assert.Regexp(t, `^http://127\.0\.0\.1:\d+/2\.0$`, client.BaseURL)
	assert.Equal(t, listener.Enabled, client.ErrorListenerState())
}

func TestBasicAuthHeader(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "alice", user)
		assert.Equal(t, "app-pass", pass)
		assert.Equal(t, "/2.0/user", r.URL.Path)
		_, _ = w.Write([]byte(`{"username":"alice","display_name":"Alice"}`))
	}, auth.Basic{Username: "alice", Token: "app-pass"})

	account, err := client.Users.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Login())
	assert.Equal(t, "Alice", account.DisplayName)
}

func TestAuthenticate(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusUnauthorized)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"type":"error","error":{"message":"Bad credentials"}}`))
	}, auth.Basic{Username: "alice", Token: "wrong"})

	ok, err := client.Authenticate(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, listener.Enabled, client.ErrorListenerState())

	// the suppression covered the probe only
	_, err = client.Users.Current(context.Background())
	var apiErr *gusherrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Bad credentials", apiErr.Message)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)

	status.Store(http.StatusOK)
	ok, err = client.Authenticate(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthenticateTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	cfg := &config.Config{Bitbucket: config.Bitbucket{BaseURL: srv.URL}}
	srv.Close()

	client, err := New(context.Background(), cfg, hclog.NewNullLogger(), nil)
	require.NoError(t, err)

	ok, err := client.Authenticate(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, listener.Enabled, client.ErrorListenerState())
}

func TestAuthenticateRejectedConsumer(t *testing.T) {
	var userRequests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/site/oauth2/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_client","error_description":"Invalid OAuth client credentials"}`))
	})
	mux.HandleFunc("/2.0/user", func(w http.ResponseWriter, r *http.Request) {
		userRequests.Add(1)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := &config.Config{Bitbucket: config.Bitbucket{
		BaseURL:  srv.URL,
		TokenURL: srv.URL + "/site/oauth2/access_token",
	}}
	client, err := New(context.Background(), cfg, hclog.NewNullLogger(), auth.OAuth{ConsumerKey: "key", ConsumerSecret: "bad"})
	require.NoError(t, err)

	ok, err := client.Authenticate(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, listener.Enabled, client.ErrorListenerState())
	assert.Zero(t, userRequests.Load())
}

func TestSetCredentialsReplacesOAuth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/site/oauth2/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"TOK","token_type":"bearer","expires_in":7200}`))
	})
	mux.HandleFunc("/2.0/user", func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "bob" || pass != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"username":"bob"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := &config.Config{Bitbucket: config.Bitbucket{
		BaseURL:  srv.URL,
		TokenURL: srv.URL + "/site/oauth2/access_token",
	}}
	client, err := New(context.Background(), cfg, hclog.NewNullLogger(), auth.OAuth{ConsumerKey: "key", ConsumerSecret: "sec"})
	require.NoError(t, err)

	ok, err := client.Authenticate(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, client.SetCredentials(context.Background(), auth.Basic{Username: "bob", Token: "pw"}))
	ok, err = client.Authenticate(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAPIErrorRawContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}, nil)

	_, err := client.Issues.Get(context.Background(), "acme", "widgets", 3)
	var apiErr *gusherrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, gusherrors.RawContentPrefix+"upstream down", apiErr.Message)
}

func TestDisableErrorListenerPermanent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{}`))
	}, nil)

	client.DisableErrorListener(true)
	for i := 0; i < 3; i++ {
		_, err := client.Repositories.Get(context.Background(), "acme", "widgets")
		assert.NoError(t, err)
	}
	assert.Equal(t, listener.SuppressedPermanent, client.ErrorListenerState())

	client.EnableErrorListener()
	_, err := client.Repositories.Get(context.Background(), "acme", "widgets")
	assert.Error(t, err)
}

func TestIssuesList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2.0/repositories/acme/widgets/issues", r.URL.Path)
		assert.Equal(t, `state="open"`, r.URL.Query().Get("q"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("pagelen"))
		_, _ = w.Write([]byte(`{"page":2,"pagelen":50,"size":51,"values":[{"id":51,"title":"Broken","state":"open","kind":"bug"}]}`))
	}, nil)

	page, err := client.Issues.List(context.Background(), "acme", "widgets", IssueListOptions{Page: 2, Pagelen: 50, Query: `state="open"`})
	require.NoError(t, err)
	require.Len(t, page.Values, 1)
	assert.Equal(t, 51, page.Values[0].ID)
	assert.Equal(t, "bug", page.Values[0].Kind)
	assert.Equal(t, 51, page.Size)
}

func TestIssuesUpdatePrunesNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/2.0/repositories/acme/widgets/issues/9", r.URL.Path)

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "resolved", body["state"])
		assert.NotContains(t, body, "milestone")
		_, _ = w.Write([]byte(`{"id":9,"state":"resolved"}`))
	}, nil)

	issue, err := client.Issues.Update(context.Background(), "acme", "widgets", 9, map[string]interface{}{
		"state":     "resolved",
		"milestone": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, "resolved", issue.State)
}

func TestIssuesCreateComment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2.0/repositories/acme/widgets/issues/4/comments", r.URL.Path)

		var body struct {
			Content Content `json:"content"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "looks good", body.Content.Raw)
		_, _ = w.Write([]byte(`{"id":77,"content":{"raw":"looks good"}}`))
	}, nil)

	comment, err := client.Issues.CreateComment(context.Background(), "acme", "widgets", 4, "looks good")
	require.NoError(t, err)
	assert.Equal(t, 77, comment.ID)
}

func TestPullRequestsCreate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2.0/repositories/acme/widgets/pullrequests", r.URL.Path)

		var input PullRequestInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		assert.Equal(t, "feature", input.Source.Branch.Name)
		assert.Equal(t, "bob/widgets", input.Source.Repository.FullName)
		assert.Equal(t, "main", input.Destination.Branch.Name)
		_, _ = w.Write([]byte(`{"id":12,"state":"OPEN","title":"Add it"}`))
	}, nil)

	pr, err := client.PullRequests.Create(context.Background(), "acme", "widgets", PullRequestInput{
		Title:       "Add it",
		Source:      Endpoint{Branch: Branch{Name: "feature"}, Repository: &RepositoryRef{FullName: "bob/widgets"}},
		Destination: Endpoint{Branch: Branch{Name: "main"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 12, pr.ID)
	assert.Equal(t, PullRequestOpen, pr.State)
}

func TestPullRequestsListState(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "MERGED", r.URL.Query().Get("state"))
		assert.Empty(t, r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"values":[{"id":1,"state":"MERGED"},{"id":2,"state":"MERGED"}]}`))
	}, nil)

	page, err := client.PullRequests.List(context.Background(), "acme", "widgets", PullRequestListOptions{State: PullRequestMerged})
	require.NoError(t, err)
	assert.Len(t, page.Values, 2)
}

func TestPullRequestsMerge(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2.0/repositories/acme/widgets/pullrequests/5/merge", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Merge it", body["message"])
		_, _ = w.Write([]byte(`{"id":5,"state":"MERGED","merge_commit":{"hash":"abc123"}}`))
	}, nil)

	pr, err := client.PullRequests.Merge(context.Background(), "acme", "widgets", 5, "Merge it")
	require.NoError(t, err)
	require.NotNil(t, pr.MergeCommit)
	assert.Equal(t, "abc123", pr.MergeCommit.Hash)
}

func TestRepositoriesListTags(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2.0/repositories/acme/widgets/refs/tags", r.URL.Path)
		assert.Equal(t, "-target.date", r.URL.Query().Get("sort"))
		_, _ = w.Write([]byte(`{"values":[{"name":"v1.1.0","target":{"hash":"f00"}},{"name":"v1.0.0"}]}`))
	}, nil)

	page, err := client.Repositories.ListTags(context.Background(), "acme", "widgets")
	require.NoError(t, err)
	require.Len(t, page.Values, 2)
	assert.Equal(t, "v1.1.0", page.Values[0].Name)
	assert.Equal(t, "f00", page.Values[0].Target.Hash)
}

func TestExtractCloneLinks(t *testing.T) {
	httpLink, sshLink := ExtractCloneLinks([]CloneLink{
		{Name: "https", Href: "https://bitbucket.org/acme/widgets.git"},
		{Name: "ssh", Href: "git@bitbucket.org:acme/widgets.git"},
	})
	assert.Equal(t, "https://bitbucket.org/acme/widgets.git", httpLink)
	assert.Equal(t, "git@bitbucket.org:acme/widgets.git", sshLink)
}
