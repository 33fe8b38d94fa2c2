// Package auth selects the authentication scheme for Bitbucket requests and
// attaches it to the HTTP client.
package auth

import (
	"fmt"
	"strings"

	gusherrors "github.com/gushphp/gush-bitbucket/pkg/shared/errors"
)

// Credential bag keys.
const (
	KeyUsername      = "username"
	KeySecretOrToken = "secret-or-token"
	KeyOAuthSecret   = "oauth-secret"
)

// Scheme names the authentication scheme a descriptor stands for.
type Scheme string

const (
	SchemeHTTPPassword Scheme = "http_password" // HTTP basic authentication
	SchemeHTTPToken    Scheme = "http_token"    // OAuth consumer key/secret
)

// CredentialBag is an immutable set of credential values keyed by the Key* constants.
type CredentialBag struct {
	values map[string]string
}

// NewCredentialBag copies values into a new bag.
func NewCredentialBag(values map[string]string) CredentialBag {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return CredentialBag{values: copied}
}

// Credentials builds a bag from the three known fields. An empty oauthSecret is left out.
func Credentials(username, secretOrToken, oauthSecret string) CredentialBag {
	values := map[string]string{
		KeyUsername:      username,
		KeySecretOrToken: secretOrToken,
	}
	if oauthSecret != "" {
		values[KeyOAuthSecret] = oauthSecret
	}
	return CredentialBag{values: values}
}

// Get returns the value stored under key and whether it is present and non-empty.
func (b CredentialBag) Get(key string) (string, bool) {
	v, ok := b.values[key]
	return v, ok && strings.TrimSpace(v) != ""
}

// Username returns the username, empty when absent.
func (b CredentialBag) Username() string {
	v, _ := b.Get(KeyUsername)
	return v
}

// IsOAuth reports whether the bag selects OAuth authentication.
func (b CredentialBag) IsOAuth() bool {
	_, ok := b.Get(KeyOAuthSecret)
	return ok
}

// AuthDescriptor is either Basic or OAuth.
type AuthDescriptor interface {
	Scheme() Scheme
	isAuthDescriptor()
}

// Basic is HTTP basic authentication with a username and a password or app token.
type Basic struct {
	Username string
	Token    string
}

// Scheme returns SchemeHTTPPassword.
func (Basic) Scheme() Scheme { return SchemeHTTPPassword }
func (Basic) isAuthDescriptor() {}

// OAuth is an OAuth consumer key/secret pair.
type OAuth struct {
	ConsumerKey    string
	ConsumerSecret string
}

// Scheme returns SchemeHTTPToken.
func (OAuth) Scheme() Scheme { return SchemeHTTPToken }
func (OAuth) isAuthDescriptor() {}

// SelectAuth derives the authentication descriptor from a credential bag.
// The bag selects OAuth when it carries an oauth-secret and basic
// authentication otherwise. A missing username or secret-or-token fails
// with errors.ErrInvalidCredentials whichever scheme applies.
func SelectAuth(bag CredentialBag) (AuthDescriptor, error) {
	username, ok := bag.Get(KeyUsername)
	if !ok {
		return nil, fmt.Errorf("%w: %s is required", gusherrors.ErrInvalidCredentials, KeyUsername)
	}
	secret, ok := bag.Get(KeySecretOrToken)
	if !ok {
		return nil, fmt.Errorf("%w: %s is required", gusherrors.ErrInvalidCredentials, KeySecretOrToken)
	}

	if oauthSecret, ok := bag.Get(KeyOAuthSecret); ok {
		return OAuth{ConsumerKey: secret, ConsumerSecret: oauthSecret}, nil
	}
	return Basic{Username: username, Token: secret}, nil
}
