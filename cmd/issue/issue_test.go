package issue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gushphp/gush-bitbucket/pkg/shared/config"
	gusherrors "github.com/gushphp/gush-bitbucket/pkg/shared/errors"
)

func setup(t *testing.T, handler http.HandlerFunc) *bytes.Buffer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	Init(&config.Config{Bitbucket: config.Bitbucket{
		BaseURL:       srv.URL,
		RepoDomainURL: "https://bitbucket.org",
		Repository:    config.Repository{Owner: "acme", Name: "widgets"},
	}}, hclog.NewNullLogger())
	listOptions = RunOptionsIssueList{}
	createOptions = RunOptionsIssueCreate{}
	commentMessage = ""

	var out bytes.Buffer
	IssueCmd.SetOut(&out)
	return &out
}

func run(args ...string) error {
	IssueCmd.SetArgs(args)
	return IssueCmd.ExecuteContext(context.Background())
}

func TestListFilters(t *testing.T) {
	var query string
	out := setup(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2.0/repositories/acme/widgets/issues", r.URL.Path)
		query = r.URL.Query().Get("q")
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		_, _ = w.Write([]byte(`{"values":[{"id":4,"title":"Crash","state":"open","kind":"bug","created_on":"2024-01-02T03:04:05Z"}]}`))
	})

	require.NoError(t, run("list", "--state", "open", "--assignee", "bob", "--page", "2"))
	assert.Equal(t, `assignee.username="bob" AND state="open"`, query)

	var issues []map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &issues))
	require.Len(t, issues, 1)
	assert.Equal(t, float64(4), issues[0]["number"])
	assert.Equal(t, "https://bitbucket.org/acme/widgets/issues/4", issues[0]["url"])
}

func TestShowIncludesComments(t *testing.T) {
	out := setup(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/2.0/repositories/acme/widgets/issues/4":
			_, _ = w.Write([]byte(`{"id":4,"title":"Crash","state":"new","created_on":"2024-01-02T03:04:05Z"}`))
		case "/2.0/repositories/acme/widgets/issues/4/comments":
			_, _ = w.Write([]byte(`{"values":[{"id":11,"content":{"raw":"me too"}}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	require.NoError(t, run("show", "4"))

	var shown struct {
		Number   int `json:"number"`
		Comments []struct {
			Body string `json:"body"`
		} `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &shown))
	assert.Equal(t, 4, shown.Number)
	require.Len(t, shown.Comments, 1)
	assert.Equal(t, "me too", shown.Comments[0].Body)
}

func TestInvalidIDIsValidationError(t *testing.T) {
	setup(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})

	err := run("show", "abc")
	var cmdErr *gusherrors.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 1, cmdErr.ExitCode)
}

func TestAPIFailureExitCode(t *testing.T) {
	setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"type":"error","error":{"message":"Repository not found"}}`))
	})

	err := run("show", "4")
	var cmdErr *gusherrors.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 2, cmdErr.ExitCode)
	assert.Contains(t, err.Error(), "Repository not found")
}

func TestCreateRequiresTitle(t *testing.T) {
	setup(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s", r.URL.Path)
	})

	err := run("create", "--body", "text")
	var cmdErr *gusherrors.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 1, cmdErr.ExitCode)
}

func TestCreate(t *testing.T) {
	var payload map[string]interface{}
	out := setup(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		_, _ = w.Write([]byte(`{"id":9,"title":"Crash","created_on":"2024-01-02T03:04:05Z"}`))
	})

	require.NoError(t, run("create", "--title", "Crash", "--kind", "bug"))
	assert.Equal(t, "Crash", payload["title"])
	assert.Equal(t, "bug", payload["kind"])
	assert.NotContains(t, payload, "priority")
	assert.Contains(t, out.String(), `"url": "https://bitbucket.org/acme/widgets/issues/9"`)
}
