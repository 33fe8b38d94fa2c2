// Package adapter exposes the Bitbucket issue tracker and repository
// operations in the tool-neutral shapes the command layer prints.
package adapter

import (
	"context"
	"fmt"
	"net/url"

	"github.com/hashicorp/go-hclog"

	"github.com/gushphp/gush-bitbucket/internal/auth"
	"github.com/gushphp/gush-bitbucket/internal/bitbucket"
	"github.com/gushphp/gush-bitbucket/pkg/shared/config"
)

// Name identifies the adapter in error messages.
const Name = "bitbucket"

const tokenGenerationURL = "https://bitbucket.org/account/user/%s/api"

// base holds the state shared by IssueTracker and RepoAdapter.
type base struct {
	client        *bitbucket.Client
	logger        hclog.Logger
	domain        string
	owner         string
	repo          string
	username      string
	authenticated bool
}

func newBase(client *bitbucket.Client, cfg *config.Config, logger hclog.Logger) *base {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	bb := cfg.Bitbucket
	return &base{
		client:   client,
		logger:   logger,
		domain:   config.SetThen(bb.RepoDomainURL, config.DefaultRepoDomainURL),
		owner:    config.SetThen(bb.Repository.Owner, bb.Authentication.Username),
		repo:     bb.Repository.Name,
		username: bb.Authentication.Username,
	}
}

// Authenticate selects the authentication scheme from bag, attaches it to
// the client and probes the API. Rejected credentials are not an error;
// they leave IsAuthenticated false.
func (b *base) Authenticate(ctx context.Context, bag auth.CredentialBag) error {
	desc, err := auth.SelectAuth(bag)
	if err != nil {
		return err
	}
	if err := b.client.SetCredentials(ctx, desc); err != nil {
		return err
	}

	ok, err := b.client.Authenticate(ctx)
	if err != nil {
		return err
	}

	b.username = bag.Username()
	if b.owner == "" {
		b.owner = b.username
	}
	b.authenticated = ok
	b.logger.Info("authentication probed", "username", b.username, "scheme", desc.Scheme(), "authenticated", ok)
	return nil
}

// IsAuthenticated reports the result of the last Authenticate call.
func (b *base) IsAuthenticated() bool {
	return b.authenticated
}

// TokenGenerationURL returns the page where the user creates API credentials,
// or an empty string when no username is known.
func (b *base) TokenGenerationURL() string {
	if b.username == "" {
		return ""
	}
	return fmt.Sprintf(tokenGenerationURL, url.PathEscape(b.username))
}

// SupportsRepository reports whether remoteURL points at Bitbucket.
func (b *base) SupportsRepository(remoteURL string) bool {
	return IsBitbucketRemote(remoteURL)
}

// NewAdapters returns an IssueTracker and a RepoAdapter that share
// repository and authentication state.
func NewAdapters(client *bitbucket.Client, cfg *config.Config, logger hclog.Logger) (*IssueTracker, *RepoAdapter) {
	b := newBase(client, cfg, logger)
	return &IssueTracker{base: b}, &RepoAdapter{base: b}
}

// Owner returns the repository owner requests are made against.
func (b *base) Owner() string {
	return b.owner
}

// Repository returns the repository slug requests are made against.
func (b *base) Repository() string {
	return b.repo
}

// SetRepository points the adapter at another repository.
func (b *base) SetRepository(owner, repo string) {
	b.owner = owner
	b.repo = repo
}

func (b *base) repoURL(elems ...string) string {
	u := fmt.Sprintf("%s/%s/%s", b.domain, b.owner, b.repo)
	for _, e := range elems {
		u += "/" + e
	}
	return u
}

func (b *base) requireRepository() error {
	if b.owner == "" || b.repo == "" {
		return fmt.Errorf("repository is not configured: owner %q, name %q", b.owner, b.repo)
	}
	return nil
}
