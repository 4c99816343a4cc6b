package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/claudekit/internal/apperr"
)

// FS implements FileManager on the local file system.
type FS struct {
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// NewFS creates a new FS file manager.
func NewFS() *FS {
	return &FS{dirPerm: 0o755, filePerm: 0o644}
}

var _ FileManager = (*FS)(nil)

// Within resolves rel against root and rejects any result that escapes it.
func Within(root, rel string) (string, error) {
	if rel == "" {
		return root, nil
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("storage: resolve root: %w", err)
	}
	abs, err := filepath.Abs(filepath.Join(absRoot, cleaned))
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, absRoot+string(os.PathSeparator)) && abs != absRoot {
		return "", fmt.Errorf("storage: path escapes root: %s", rel)
	}
	return abs, nil
}

// EnsureDirectory creates path and any missing parents.
func (f *FS) EnsureDirectory(path string) error {
	if err := os.MkdirAll(path, f.dirPerm); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", path, err)
	}
	return nil
}

// CopyFile reads src and atomically writes it to dst.
func (f *FS) CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("storage: read %s: %w", src, err)
	}
	perm := f.filePerm
	if info, statErr := os.Stat(src); statErr == nil {
		perm = info.Mode().Perm()
	}
	return WriteFileAtomic(dst, data, perm)
}

// RemoveFile removes a single file.
func (f *FS) RemoveFile(path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("storage: remove %s: %w", path, apperr.ErrNotFound)
		}
		return fmt.Errorf("storage: remove %s: %w", path, err)
	}
	return nil
}

// BackupFile writes a side-by-side copy of path. An existing backup of the
// same name is replaced by the rename, never partially overwritten.
func (f *FS) BackupFile(path string) (string, error) {
	backup := path + BackupSuffix
	if err := f.CopyFile(path, backup); err != nil {
		return "", fmt.Errorf("storage: backup %s: %w", path, err)
	}
	return backup, nil
}

// RestoreBackup moves backup back over its original path.
func (f *FS) RestoreBackup(backup string) (string, error) {
	if !strings.HasSuffix(backup, BackupSuffix) {
		return "", fmt.Errorf("storage: not a backup path: %s", backup)
	}
	original := strings.TrimSuffix(backup, BackupSuffix)
	if err := os.Rename(backup, original); err != nil {
		return "", fmt.Errorf("storage: restore %s: %w", backup, err)
	}
	return original, nil
}

// RemoveBackup deletes a backup file.
func (f *FS) RemoveBackup(backup string) error {
	if err := os.Remove(backup); err != nil {
		return fmt.Errorf("storage: remove backup %s: %w", backup, err)
	}
	return nil
}

// WriteFileAtomic writes content to path: tmp file → fsync → rename.
func WriteFileAtomic(path string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".claudekit-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("storage: chmod temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}
