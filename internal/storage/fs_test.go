package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/claudekit/internal/apperr"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestEnsureDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := NewFS().EnsureDirectory(dir); err != nil {
		t.Fatalf("EnsureDirectory: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
}

func TestEnsureDirectory_FileInTheWay(t *testing.T) {
	root := t.TempDir()
	blocker := filepath.Join(root, "blocker")
	writeFile(t, blocker, "x")
	if err := NewFS().EnsureDirectory(filepath.Join(blocker, "sub")); err == nil {
		t.Error("expected error when a file blocks the directory path")
	}
}

func TestCopyFileCreatesSubdirs(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src.md")
	writeFile(t, src, "deep")
	dst := filepath.Join(root, "out", "x", "dst.md")
	if err := NewFS().CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	if got := readFile(t, dst); got != "deep" {
		t.Errorf("content = %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(root, "out", "x", ".claudekit-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	root := t.TempDir()
	if err := NewFS().CopyFile(filepath.Join(root, "nope"), filepath.Join(root, "dst")); err == nil {
		t.Error("expected error for missing source")
	}
}

func TestRemoveFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "del.md")
	writeFile(t, p, "bye")
	fm := NewFS()
	if err := fm.RemoveFile(p); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}
	err := fm.RemoveFile(p)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second remove err = %v, want ErrNotFound", err)
	}
}

func TestBackupAndRestore(t *testing.T) {
	p := filepath.Join(t.TempDir(), "agent.md")
	writeFile(t, p, "v1")
	fm := NewFS()

	backup, err := fm.BackupFile(p)
	if err != nil {
		t.Fatalf("BackupFile: %v", err)
	}
	if backup != p+BackupSuffix {
		t.Errorf("backup = %q, want %q", backup, p+BackupSuffix)
	}

	writeFile(t, p, "v2")
	original, err := fm.RestoreBackup(backup)
	if err != nil {
		t.Fatalf("RestoreBackup: %v", err)
	}
	if original != p {
		t.Errorf("original = %q, want %q", original, p)
	}
	if got := readFile(t, p); got != "v1" {
		t.Errorf("restored content = %q, want v1", got)
	}
	if _, err := os.Stat(backup); !os.IsNotExist(err) {
		t.Error("backup should be consumed by restore")
	}
}

func TestBackupReplacesExistingBackup(t *testing.T) {
	p := filepath.Join(t.TempDir(), "agent.md")
	writeFile(t, p, "new")
	writeFile(t, p+BackupSuffix, "stale backup")

	backup, err := NewFS().BackupFile(p)
	if err != nil {
		t.Fatalf("BackupFile: %v", err)
	}
	if got := readFile(t, backup); got != "new" {
		t.Errorf("backup content = %q, want %q", got, "new")
	}
}

func TestRestoreBackup_RejectsNonBackup(t *testing.T) {
	if _, err := NewFS().RestoreBackup("/tmp/file.md"); err == nil {
		t.Error("expected error for path without backup suffix")
	}
}

func TestRemoveBackup(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.md")
	writeFile(t, p, "x")
	fm := NewFS()
	backup, err := fm.BackupFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := fm.RemoveBackup(backup); err != nil {
		t.Fatalf("RemoveBackup: %v", err)
	}
	if _, err := os.Stat(backup); !os.IsNotExist(err) {
		t.Error("backup should be removed")
	}
}

func TestWithin_TraversalBlocked(t *testing.T) {
	root := t.TempDir()
	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
		"sub/../../escape.md",
	}
	for _, p := range cases {
		if _, err := Within(root, p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
	}
}

func TestWithin_Nested(t *testing.T) {
	root := t.TempDir()
	got, err := Within(root, "sc/build.md")
	if err != nil {
		t.Fatalf("Within: %v", err)
	}
	want, _ := filepath.Abs(filepath.Join(root, "sc", "build.md"))
	if got != want {
		t.Errorf("Within = %q, want %q", got, want)
	}
}

func TestWriteFileAtomic_Overwrite(t *testing.T) {
	p := filepath.Join(t.TempDir(), "meta.json")
	if err := WriteFileAtomic(p, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(p, []byte("updated"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if got := readFile(t, p); got != "updated" {
		t.Errorf("content = %q", got)
	}
	info, err := os.Stat(p)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("perm = %v, want 0600", info.Mode().Perm())
	}
}
