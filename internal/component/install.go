package component

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/starford/claudekit/internal/frontmatter"
	"github.com/starford/claudekit/internal/metadata"
	"github.com/starford/claudekit/internal/models"
	"github.com/starford/claudekit/internal/storage"
)

// summaryDescriptionLen bounds descriptions in the installed-items summary.
const summaryDescriptionLen = 60

// InstallResult reports the outcome of Install.
type InstallResult struct {
	Installed int
	Failed    int
	Items     []models.Item
}

// Install copies every valid artifact into the target directory and
// registers the component. Each file is handled independently; the call
// fails when nothing was installed or metadata could not be written.
func (c *Component) Install() (res InstallResult, err error) {
	defer c.guard("install", &err)

	c.log.Info("installing component", slog.String("version", c.def.Version))

	if err := c.files.EnsureDirectory(c.targetDir); err != nil {
		c.log.Error("could not create target directory", err, slog.String("path", c.targetDir))
		return res, fmt.Errorf("%w: %s: %w", ErrTargetDir, c.targetDir, err)
	}

	for _, rel := range c.componentFiles {
		if c.installFile(rel) {
			res.Installed++
		} else {
			res.Failed++
		}
	}

	if res.Failed > 0 {
		c.log.Warn("installed with failures",
			slog.Int("installed", res.Installed),
			slog.Int("failed", res.Failed))
	} else {
		c.log.Success("installed component files", slog.Int("installed", res.Installed))
	}

	if res.Installed == 0 {
		return res, fmt.Errorf("install %s: %w", c.def.Name, ErrNothingInstalled)
	}

	items, err := c.postInstall()
	if err != nil {
		c.log.Error("failed to update metadata", err)
		return res, fmt.Errorf("install %s: %w: %w", c.def.Name, ErrPostInstall, err)
	}
	res.Items = items
	return res, nil
}

func (c *Component) installFile(rel string) bool {
	src, err := storage.Within(c.sourceDir, rel)
	if err != nil {
		c.log.Error("invalid source path", err, slog.String("file", rel))
		return false
	}
	dst, err := storage.Within(c.targetDir, rel)
	if err != nil {
		c.log.Error("invalid target path", err, slog.String("file", rel))
		return false
	}
	if err := c.files.EnsureDirectory(filepath.Dir(dst)); err != nil {
		c.log.Error("could not create directory", err, slog.String("file", rel))
		return false
	}
	if !c.ValidateFile(src) {
		c.log.Error("invalid artifact format", nil, slog.String("file", rel))
		return false
	}
	if err := c.files.CopyFile(src, dst); err != nil {
		c.log.Error("failed to install artifact", err, slog.String("file", rel))
		return false
	}
	c.log.Debug("installed artifact", slog.String("file", rel))
	return true
}

func (c *Component) postInstall() ([]models.Item, error) {
	reg := models.Registration{
		Version:     c.def.Version,
		Category:    c.def.Category,
		FilesCount:  len(c.componentFiles),
		InstalledAt: c.now().Format(models.InstalledAtLayout),
	}
	if err := c.settings.AddComponentRegistration(c.def.Name, reg); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	c.log.Info("updated metadata with component registration")

	if err := c.settings.UpdateMetadata(c.MetadataModifications()); err != nil {
		return nil, fmt.Errorf("update metadata: %w", err)
	}
	c.log.Info("updated metadata with component configuration")

	items := c.InstalledItems()
	c.logSummary(items)
	return items, nil
}

// MetadataModifications returns the metadata merged in after install.
// The items list is rebuilt from the installed files on every call.
func (c *Component) MetadataModifications() metadata.Metadata {
	mods := metadata.Metadata{
		metadata.ComponentsKey: map[string]any{
			c.def.Name: map[string]any{
				"version":     c.def.Version,
				"installed":   true,
				"files_count": len(c.componentFiles),
			},
		},
	}
	if c.def.Section == "" {
		return mods
	}
	sec := map[string]any{
		"enabled":     true,
		"version":     c.def.Version,
		"auto_update": false,
	}
	if c.def.ItemsKey != "" {
		sec[c.def.ItemsKey] = c.installedNames()
	}
	mods[c.def.Section] = sec
	return mods
}

func (c *Component) logSummary(items []models.Item) {
	if len(items) == 0 {
		return
	}
	c.log.Info("installed items summary")
	for _, it := range items {
		line := "• " + it.Name
		if it.Description != "" {
			line += ": " + frontmatter.Truncate(it.Description, summaryDescriptionLen)
		}
		c.log.Info(line)
	}
	c.log.Info("total items installed", slog.Int("count", len(items)))
}
