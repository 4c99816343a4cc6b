package component

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/claudekit/internal/logging"
	"github.com/starford/claudekit/internal/storage"
)

// Outcome classifies the result of Update.
type Outcome string

const (
	OutcomeNoOp       Outcome = "noop"
	OutcomeUpdated    Outcome = "updated"
	OutcomeRolledBack Outcome = "rolled_back"
)

// UpdateResult reports the outcome of Update.
type UpdateResult struct {
	Outcome     Outcome
	FromVersion string
	ToVersion   string
	BackedUp    int
	Restored    int
	Install     InstallResult
}

// Update reinstalls the component when the recorded version differs from
// the declared one. Existing files are backed up first and restored if the
// install fails.
//
// Update is not atomic: a crash after install starts overwriting files and
// before the restore finishes can leave a mix of old and new files.
func (c *Component) Update() (res UpdateResult, err error) {
	defer c.guard("update", &err)

	current, _ := c.settings.GetComponentVersion(c.def.Name)
	res.FromVersion = current
	res.ToVersion = c.def.Version

	if current == c.def.Version {
		c.log.Info("component already at version", slog.String("version", c.def.Version))
		res.Outcome = OutcomeNoOp
		return res, nil
	}

	c.log.Info("updating component",
		slog.String("from", current),
		slog.String("to", c.def.Version))

	backups := c.backupInstalled()
	res.BackedUp = len(backups)

	res.Install, err = c.Install()
	if err == nil {
		for _, b := range backups {
			if rmErr := c.files.RemoveBackup(b); rmErr != nil {
				c.log.Debug("leftover backup", slog.String("path", b), logging.Err(rmErr))
			}
		}
		c.log.Success("component updated", slog.String("version", c.def.Version))
		res.Outcome = OutcomeUpdated
		return res, nil
	}

	c.log.Warn("update failed, restoring from backup", logging.Err(err))
	for _, b := range backups {
		original, rErr := c.files.RestoreBackup(b)
		if rErr != nil {
			c.log.Error("could not restore", rErr, slog.String("backup", b))
			continue
		}
		res.Restored++
		c.log.Debug("restored", slog.String("file", original))
	}
	res.Outcome = OutcomeRolledBack
	return res, fmt.Errorf("update %s: %w", c.def.Name, err)
}

// backupInstalled backs up every component file present in the target
// directory. A failed backup is logged and leaves that file uncovered.
func (c *Component) backupInstalled() []string {
	var backups []string
	if info, err := os.Stat(c.targetDir); err != nil || !info.IsDir() {
		return backups
	}
	for _, rel := range c.componentFiles {
		p, err := storage.Within(c.targetDir, rel)
		if err != nil {
			continue
		}
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		b, err := c.files.BackupFile(p)
		if err != nil {
			c.log.Warn("backup failed", slog.String("file", rel), logging.Err(err))
			continue
		}
		backups = append(backups, b)
		c.log.Debug("backed up", slog.String("file", rel))
	}
	return backups
}
