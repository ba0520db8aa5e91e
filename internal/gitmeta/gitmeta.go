// Package gitmeta extracts revision metadata from the presence store
// checkout so builds can stamp compiled output with their source revision.
package gitmeta

import (
	"fmt"

	git "github.com/go-git/go-git/v5"
)

// Revision returns the short (8 character) HEAD commit hash of the
// repository containing dir. The .git directory is detected upward from dir,
// so any path inside the store checkout works.
func Revision(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repository at %s: %w", dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return head.Hash().String()[:8], nil
}
