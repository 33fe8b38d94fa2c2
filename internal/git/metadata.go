// Package git reads the local working copy to find the Bitbucket
// repository and branch a command applies to.
package git

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// DefaultRemote is the remote consulted when none is named.
const DefaultRemote = "origin"

var (
	ErrNotRepository = errors.New("folder is not inside a git repository")
	ErrNoRemoteURL   = errors.New("remote has no URL")
)

// RepositoryMetadata describes the working copy.
type RepositoryMetadata struct {
	RootFolder string
	BranchName *string
	CommitHash *string
	RemoteURL  string
}

// CollectRepositoryMetadata opens the repository containing sourceFolder and
// reads the current branch, the HEAD commit and the URL of remoteName. A
// missing HEAD, as in a fresh repository, leaves branch and commit unset.
func CollectRepositoryMetadata(sourceFolder, remoteName string) (*RepositoryMetadata, error) {
	if absSource, err := filepath.Abs(sourceFolder); err == nil {
		sourceFolder = absSource
	}
	if remoteName == "" {
		remoteName = DefaultRemote
	}

	root, err := findGitRepositoryPath(sourceFolder)
	if err != nil {
		return nil, err
	}
	md := &RepositoryMetadata{RootFolder: filepath.Clean(root)}

	repo, err := git.PlainOpen(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	if head, err := repo.Head(); err == nil {
		if head.Name().IsBranch() {
			branchName := head.Name().Short()
			md.BranchName = &branchName
		}
		hash := head.Hash().String()
		md.CommitHash = &hash
	}

	remote, err := repo.Remote(remoteName)
	if err != nil {
		return md, fmt.Errorf("failed to read remote %q: %w", remoteName, err)
	}
	if cfg := remote.Config(); cfg != nil && len(cfg.URLs) > 0 {
		md.RemoteURL = cfg.URLs[0]
	}
	if md.RemoteURL == "" {
		return md, ErrNoRemoteURL
	}
	return md, nil
}

// CurrentBranch returns the branch checked out in the repository containing
// sourceFolder.
func CurrentBranch(sourceFolder string) (string, error) {
	md, err := CollectRepositoryMetadata(sourceFolder, DefaultRemote)
	if md == nil {
		return "", err
	}
	if md.BranchName == nil {
		return "", fmt.Errorf("HEAD of %s is not a branch", md.RootFolder)
	}
	return *md.BranchName, nil
}
