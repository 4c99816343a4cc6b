package component

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/claudekit/internal/logging"
	"github.com/starford/claudekit/internal/storage"
)

// UninstallResult reports the outcome of Uninstall.
type UninstallResult struct {
	Removed int
	Missing int
}

// Uninstall removes the component's files and registration. Cleanup is
// best-effort: files that cannot be removed and metadata errors are logged
// and skipped, and the call still succeeds.
func (c *Component) Uninstall() (res UninstallResult, err error) {
	defer c.guard("uninstall", &err)

	c.log.Info("uninstalling component")

	dirs := make(map[string]struct{})
	for _, rel := range c.componentFiles {
		p, err := storage.Within(c.targetDir, rel)
		if err != nil {
			c.log.Warn("could not remove", slog.String("file", rel), logging.Err(err))
			res.Missing++
			continue
		}
		if err := c.files.RemoveFile(p); err != nil {
			c.log.Warn("could not remove", slog.String("file", rel), logging.Err(err))
			res.Missing++
			continue
		}
		res.Removed++
		dirs[filepath.Dir(p)] = struct{}{}
		c.log.Debug("removed", slog.String("file", rel))
	}

	c.pruneEmptyDirs(dirs)

	if err := c.unregister(); err != nil {
		c.log.Warn("could not update metadata", logging.Err(err))
	} else {
		c.log.Info("removed component from metadata")
	}

	c.log.Success("component uninstalled", slog.Int("removed", res.Removed))
	return res, nil
}

// pruneEmptyDirs removes emptied artifact subdirectories, deepest first,
// and then the target directory itself. The install root is never removed.
func (c *Component) pruneEmptyDirs(dirs map[string]struct{}) {
	var list []string
	for d := range dirs {
		if d != c.targetDir && strings.HasPrefix(d, c.targetDir+string(os.PathSeparator)) {
			list = append(list, d)
		}
	}
	sort.Slice(list, func(i, j int) bool { return len(list[i]) > len(list[j]) })
	for _, d := range list {
		removeIfEmpty(d)
	}

	if c.targetDir == c.installDir {
		return
	}
	entries, err := os.ReadDir(c.targetDir)
	if err != nil || len(entries) > 0 {
		return
	}
	if err := os.Remove(c.targetDir); err != nil {
		c.log.Warn("could not remove component directory", slog.String("path", c.targetDir), logging.Err(err))
		return
	}
	c.log.Debug("removed empty component directory", slog.String("path", c.targetDir))
}

func removeIfEmpty(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return false
	}
	return os.Remove(dir) == nil
}

// unregister drops the registration and the component's metadata section.
func (c *Component) unregister() error {
	if c.settings.IsComponentInstalled(c.def.Name) {
		if err := c.settings.RemoveComponentRegistration(c.def.Name); err != nil {
			return fmt.Errorf("remove registration: %w", err)
		}
	}
	if c.def.Section == "" {
		return nil
	}
	m, err := c.settings.LoadMetadata()
	if err != nil {
		return fmt.Errorf("load metadata: %w", err)
	}
	if _, ok := m[c.def.Section]; !ok {
		return nil
	}
	delete(m, c.def.Section)
	if err := c.settings.SaveMetadata(m); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	return nil
}
