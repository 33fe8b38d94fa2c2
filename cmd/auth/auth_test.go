package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/99designs/keyring"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gushphp/gush-bitbucket/pkg/shared/config"
	"github.com/gushphp/gush-bitbucket/pkg/shared/credential"
	gusherrors "github.com/gushphp/gush-bitbucket/pkg/shared/errors"
)

func useArrayKeyring(t *testing.T, items ...keyring.Item) keyring.Keyring {
	t.Helper()
	ring := keyring.NewArrayKeyring(items)
	newStore = func() *credential.Store {
		return credential.NewStoreWithOpener(func() (keyring.Keyring, error) { return ring, nil })
	}
	t.Cleanup(func() { newStore = credential.NewStore })
	return ring
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	AuthCmd.SetOut(&out)
	AuthCmd.SetIn(strings.NewReader(stdin))
	if args == nil {
		args = []string{}
	}
	AuthCmd.SetArgs(args)
	err := AuthCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2.0/user", r.URL.Path)
		if _, pass, _ := r.BasicAuth(); pass != "app-password" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"username":"alice"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func authConfig(baseURL, secret string) *config.Config {
	return &config.Config{Bitbucket: config.Bitbucket{
		BaseURL: baseURL,
		Authentication: config.Authentication{
			Username:      "alice",
			SecretOrToken: secret,
		},
		Repository: config.Repository{Owner: "acme", Name: "widgets"},
	}}
}

func TestProbeWithKeyringSecret(t *testing.T) {
	useArrayKeyring(t, keyring.Item{Key: "bitbucket-alice", Data: []byte("app-password")})
	Init(authConfig(testServer(t).URL, "keyring:bitbucket-alice"), hclog.NewNullLogger())

	out, err := execute(t, "")
	require.NoError(t, err)

	var result Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, Result{
		Username:           "alice",
		Scheme:             "http_password",
		Authenticated:      true,
		TokenGenerationURL: "https://bitbucket.org/account/user/alice/api",
	}, result)
}

func TestProbeRejected(t *testing.T) {
	useArrayKeyring(t)
	Init(authConfig(testServer(t).URL, "wrong"), hclog.NewNullLogger())

	out, err := execute(t, "")
	var cmdErr *gusherrors.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 2, cmdErr.ExitCode)
	assert.Contains(t, out, `"authenticated": false`)
}

func TestProbeWithoutUsername(t *testing.T) {
	useArrayKeyring(t)
	Init(&config.Config{}, hclog.NewNullLogger())

	_, err := execute(t, "")
	var cmdErr *gusherrors.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 1, cmdErr.ExitCode)
}

func TestStoreAndForget(t *testing.T) {
	ring := useArrayKeyring(t)
	Init(&config.Config{}, hclog.NewNullLogger())

	out, err := execute(t, "s3cret\n", "store", "bitbucket-alice")
	require.NoError(t, err)
	assert.Equal(t, "keyring:bitbucket-alice\n", out)

	item, err := ring.Get("bitbucket-alice")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", string(item.Data))

	_, err = execute(t, "", "forget", "bitbucket-alice")
	require.NoError(t, err)
	_, err = ring.Get("bitbucket-alice")
	assert.ErrorIs(t, err, keyring.ErrKeyNotFound)
}

func TestProbeMissingSecretIsConfigError(t *testing.T) {
	useArrayKeyring(t)
	Init(authConfig(testServer(t).URL, ""), hclog.NewNullLogger())

	_, err := execute(t, "")
	var cmdErr *gusherrors.CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, 1, cmdErr.ExitCode)
	assert.ErrorIs(t, err, gusherrors.ErrInvalidCredentials)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("stdin closed")
}

func TestStoreReportsReadError(t *testing.T) {
	useArrayKeyring(t)
	Init(&config.Config{}, hclog.NewNullLogger())

	AuthCmd.SetIn(failingReader{})
	t.Cleanup(func() { AuthCmd.SetIn(nil) })
	AuthCmd.SetArgs([]string{"store", "bitbucket-alice"})
	err := AuthCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdin closed")
}

func TestStoreRequiresSecret(t *testing.T) {
	useArrayKeyring(t)
	Init(&config.Config{}, hclog.NewNullLogger())

	_, err := execute(t, "\n", "store", "bitbucket-alice")
	assert.Error(t, err)
}
