package credential

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	ring := keyring.NewArrayKeyring([]keyring.Item{
		{Key: "bitbucket-bob", Data: []byte("s3cr3t")},
	})
	return NewStoreWithOpener(func() (keyring.Keyring, error) { return ring, nil })
}

func TestResolve(t *testing.T) {
	store := newTestStore()

	testCases := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{name: "Plain", value: "app-password", want: "app-password"},
		{name: "Empty", value: "", want: ""},
		{name: "Reference", value: "keyring:bitbucket-bob", want: "s3cr3t"},
		{name: "MissingItem", value: "keyring:nobody", wantErr: true},
		{name: "EmptyReference", value: "keyring:", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := store.Resolve(tc.value)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSetGetDelete(t *testing.T) {
	store := newTestStore()

	require.NoError(t, store.Set("bitbucket-alice", "token"))
	got, err := store.Get("bitbucket-alice")
	require.NoError(t, err)
	assert.Equal(t, "token", got)

	require.NoError(t, store.Delete("bitbucket-alice"))
	_, err = store.Get("bitbucket-alice")
	assert.True(t, errors.Is(err, keyring.ErrKeyNotFound))
}

func TestOpenFailure(t *testing.T) {
	store := NewStoreWithOpener(func() (keyring.Keyring, error) { return nil, errors.New("locked") })

	_, err := store.Resolve("keyring:anything")
	assert.ErrorContains(t, err, "locked")

	plain, err := store.Resolve("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", plain)
}
