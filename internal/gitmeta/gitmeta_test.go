package gitmeta

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevision(t *testing.T) {
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("store\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	// Resolution works from a nested directory via .git detection.
	nested := filepath.Join(root, "Y", "YouTube")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	rev, err := Revision(nested)
	require.NoError(t, err)
	assert.Len(t, rev, 8)
	assert.Equal(t, hash.String()[:8], rev)
}

func TestRevision_NotARepo(t *testing.T) {
	_, err := Revision(t.TempDir())
	assert.Error(t, err)
}
