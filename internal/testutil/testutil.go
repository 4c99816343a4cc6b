// Package testutil provides shared test helpers for building source trees,
// metadata stores and journals.
package testutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/claudekit/internal/checksum"
	"github.com/starford/claudekit/internal/journal"
	"github.com/starford/claudekit/internal/metadata"
)

// FileState is a snapshot of one file.
type FileState struct {
	Checksum string
	ModTime  time.Time
}

// AgentDoc returns an artifact with name/description frontmatter.
func AgentDoc(name, description string) string {
	return fmt.Sprintf("---\nname: %s\ndescription: %s\n---\n\n# %s\n", name, description, name)
}

// WriteFiles writes files (slash-separated relative path → content) under root.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// Snapshot records checksum and modification time of every file under root.
// A missing root yields an empty snapshot.
func Snapshot(t *testing.T, root string) map[string]FileState {
	t.Helper()
	out := make(map[string]FileState)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		sum, err := checksum.File(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, p)
		out[filepath.ToSlash(rel)] = FileState{Checksum: sum, ModTime: info.ModTime()}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return out
}

// TestStore creates a JSON metadata store in a temporary directory.
func TestStore(t *testing.T) *metadata.Store {
	t.Helper()
	s, err := metadata.NewStore(filepath.Join(t.TempDir(), ".claudekit-metadata.json"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// TestJournal creates a temporary journal database that is automatically closed.
func TestJournal(t *testing.T) *journal.DB {
	t.Helper()
	db, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
