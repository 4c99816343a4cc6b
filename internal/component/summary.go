package component

import (
	"os"

	"github.com/starford/claudekit/internal/storage"
)

// sizeOverhead accounts for the directory entry and metadata updates.
const sizeOverhead = 2048

// Summary describes what installing the component involves.
type Summary struct {
	Component        string   `json:"component"`
	Version          string   `json:"version"`
	FilesInstalled   int      `json:"files_installed"`
	Files            []string `json:"files"`
	EstimatedSize    int64    `json:"estimated_size"`
	InstallDirectory string   `json:"install_directory"`
	Dependencies     []string `json:"dependencies"`
}

// SizeEstimate returns the byte size of the source artifacts plus overhead.
func (c *Component) SizeEstimate() int64 {
	var total int64
	for _, rel := range c.componentFiles {
		p, err := storage.Within(c.sourceDir, rel)
		if err != nil {
			continue
		}
		if info, err := os.Stat(p); err == nil {
			total += info.Size()
		}
	}
	return total + sizeOverhead
}

// InstallationSummary describes the component's install footprint.
func (c *Component) InstallationSummary() Summary {
	deps := c.Dependencies()
	if deps == nil {
		deps = []string{}
	}
	return Summary{
		Component:        c.def.Name,
		Version:          c.def.Version,
		FilesInstalled:   len(c.componentFiles),
		Files:            append([]string{}, c.componentFiles...),
		EstimatedSize:    c.SizeEstimate(),
		InstallDirectory: c.targetDir,
		Dependencies:     deps,
	}
}
