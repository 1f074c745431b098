// Package testutil provides fixtures for tests: throwaway repositories on disk
// and module graphs assembled in code.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// RepoFixture is a temporary package directory written from an in-memory file map.
type RepoFixture struct {
	// Root is the absolute path to the fixture directory
	Root string
}

// WriteRepo writes files (repo-relative path -> content) into a temp dir.
func WriteRepo(t *testing.T, files map[string]string) *RepoFixture {
	t.Helper()

	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return &RepoFixture{Root: root}
}

// Path returns the absolute path of a repo-relative file.
func (r *RepoFixture) Path(rel string) string {
	return filepath.Join(r.Root, filepath.FromSlash(rel))
}
