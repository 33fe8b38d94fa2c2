package shared

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"

	"github.com/gushphp/gush-bitbucket/internal/adapter"
	"github.com/gushphp/gush-bitbucket/internal/auth"
	"github.com/gushphp/gush-bitbucket/internal/bitbucket"
	"github.com/gushphp/gush-bitbucket/pkg/shared/config"
	"github.com/gushphp/gush-bitbucket/pkg/shared/credential"
	"github.com/gushphp/gush-bitbucket/pkg/shared/logger"
)

// SecretResolver turns a configured secret, possibly a keyring reference, into its value.
type SecretResolver interface {
	Resolve(value string) (string, error)
}

// Session holds the client and adapters for the configured repository.
type Session struct {
	Client      *bitbucket.Client
	Issues      *adapter.IssueTracker
	Repo        *adapter.RepoAdapter
	Credentials auth.CredentialBag
	Logger      hclog.Logger
}

// ResolveCredentials builds the credential bag from the authentication
// section, reading keyring references through resolver.
func ResolveCredentials(authCfg config.Authentication, resolver SecretResolver) (auth.CredentialBag, error) {
	secret, err := resolver.Resolve(authCfg.SecretOrToken)
	if err != nil {
		return auth.CredentialBag{}, fmt.Errorf("resolving %s: %w", auth.KeySecretOrToken, err)
	}
	oauthSecret, err := resolver.Resolve(authCfg.OAuthSecret)
	if err != nil {
		return auth.CredentialBag{}, fmt.Errorf("resolving %s: %w", auth.KeyOAuthSecret, err)
	}
	return auth.Credentials(authCfg.Username, secret, oauthSecret), nil
}

// NewSession builds an unauthenticated session.
func NewSession(ctx context.Context, cfg *config.Config, lg hclog.Logger, resolver SecretResolver) (*Session, error) {
	bag, err := ResolveCredentials(cfg.Bitbucket.Authentication, resolver)
	if err != nil {
		return nil, err
	}

	client, err := bitbucket.New(ctx, cfg, lg, nil)
	if err != nil {
		return nil, err
	}

	issues, repo := adapter.NewAdapters(client, cfg, lg)
	return &Session{
		Client:      client,
		Issues:      issues,
		Repo:        repo,
		Credentials: bag,
		Logger:      lg,
	}, nil
}

// Login authenticates the session with its credentials and reports whether
// Bitbucket accepted them.
func (s *Session) Login(ctx context.Context) (bool, error) {
	if err := s.Issues.Authenticate(ctx, s.Credentials); err != nil {
		return false, err
	}
	return s.Issues.IsAuthenticated(), nil
}

// WithSession runs f with a session for cfg. When a username is configured
// the session is authenticated first and rejected credentials are an error.
func WithSession(ctx context.Context, cfg *config.Config, loggerName string, f func(*Session) error) error {
	lg := logger.NewLogger(cfg, loggerName)

	s, err := NewSession(ctx, cfg, lg, credential.NewStore())
	if err != nil {
		return err
	}

	if s.Credentials.Username() != "" {
		ok, err := s.Login(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("bitbucket rejected the credentials of %q, create new ones at %s",
				s.Credentials.Username(), s.Issues.TokenGenerationURL())
		}
	}

	return f(s)
}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
