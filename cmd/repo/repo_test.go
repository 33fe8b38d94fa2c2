package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gushphp/gush-bitbucket/pkg/shared/config"
)

func TestDescribeRemote(t *testing.T) {
	Init(&config.Config{}, hclog.NewNullLogger())

	info := describeRemote("git@bitbucket.org:acme/widgets.git")
	assert.True(t, info.Supported)
	assert.Equal(t, "acme", info.Owner)
	assert.Equal(t, "widgets", info.Name)

	info = describeRemote("https://github.com/acme/widgets.git")
	assert.False(t, info.Supported)
	assert.Empty(t, info.Owner)
}

func TestForkRequiresOrg(t *testing.T) {
	Init(&config.Config{Bitbucket: config.Bitbucket{
		Repository: config.Repository{Owner: "acme", Name: "widgets"},
	}}, hclog.NewNullLogger())
	forkOrg = ""

	RepoCmd.SetArgs([]string{"fork"})
	assert.Error(t, RepoCmd.ExecuteContext(context.Background()))
}

func TestFork(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/2.0/repositories/acme/widgets", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"widgets","scm":"git","fork_policy":"allow_forks","owner":{"username":"acme"}}`))
	})
	mux.HandleFunc("/2.0/repositories/acme/widgets/forks", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{"slug":"widgets","full_name":"bob/widgets"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	Init(&config.Config{Bitbucket: config.Bitbucket{
		BaseURL:       srv.URL,
		RepoDomainURL: "https://bitbucket.org",
		Repository:    config.Repository{Owner: "acme", Name: "widgets"},
	}}, hclog.NewNullLogger())
	forkOrg = ""

	var out bytes.Buffer
	RepoCmd.SetOut(&out)
	RepoCmd.SetArgs([]string{"fork", "--org", "bob"})
	require.NoError(t, RepoCmd.ExecuteContext(context.Background()))

	var fork map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &fork))
	assert.Equal(t, "git@bitbucket.org:bob/widgets.git", fork["git_url"])
	assert.Equal(t, "https://bitbucket.org/bob/widgets", fork["html_url"])
}
