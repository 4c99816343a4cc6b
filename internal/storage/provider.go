// Package storage implements the file operations used by component lifecycles.
package storage

// BackupSuffix is appended to a file's path to name its backup.
const BackupSuffix = ".backup"

// FileManager is the interface for component file operations.
// All paths are absolute.
type FileManager interface {
	// EnsureDirectory creates path and any missing parents.
	EnsureDirectory(path string) error
	// CopyFile atomically copies src to dst, creating dst's parent directories.
	CopyFile(src, dst string) error
	// RemoveFile removes the file at path. A missing file yields apperr.ErrNotFound.
	RemoveFile(path string) error
	// BackupFile copies path to path+BackupSuffix and returns the backup path.
	BackupFile(path string) (string, error)
	// RestoreBackup renames a backup over its original and returns the original path.
	RestoreBackup(backup string) (string, error)
	// RemoveBackup deletes a backup file.
	RemoveBackup(backup string) error
}
