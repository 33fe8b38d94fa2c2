package adapter

import (
	"fmt"
	"strings"

	"github.com/gitsight/go-vcsurl"
)

const bitbucketHost = "bitbucket.org"

// IsBitbucketRemote reports whether remoteURL is a Bitbucket remote. URLs the
// parser rejects fall back to a case-insensitive host match.
func IsBitbucketRemote(remoteURL string) bool {
	if info, err := vcsurl.Parse(remoteURL); err == nil {
		return info.Host == vcsurl.Bitbucket
	}
	return strings.Contains(strings.ToLower(remoteURL), bitbucketHost)
}

// ParseRemote extracts the owner and repository slug from a Bitbucket git remote.
func ParseRemote(remoteURL string) (owner, repo string, err error) {
	info, err := vcsurl.Parse(remoteURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse remote %q: %w", remoteURL, err)
	}
	if info.Host != vcsurl.Bitbucket {
		return "", "", fmt.Errorf("remote %q is not a Bitbucket repository", remoteURL)
	}
	if info.Username == "" || info.Name == "" {
		return "", "", fmt.Errorf("remote %q does not name a repository", remoteURL)
	}
	return info.Username, strings.TrimSuffix(info.Name, ".git"), nil
}
