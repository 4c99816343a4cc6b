package component

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/claudekit/internal/storage"
)

// ValidateInstallation audits the installed files and registration without
// changing anything. It returns false with one message per problem.
func (c *Component) ValidateInstallation() (bool, []string) {
	var errs []string

	if info, err := os.Stat(c.targetDir); err != nil || !info.IsDir() {
		errs = append(errs, fmt.Sprintf("%s directory not found", c.def.Name))
		return false, errs
	}

	valid := 0
	for _, rel := range c.componentFiles {
		p, err := storage.Within(c.targetDir, rel)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s file path: %s", c.def.Name, rel))
			continue
		}
		info, err := os.Stat(p)
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("missing %s file: %s", c.def.Name, rel))
		case !info.Mode().IsRegular():
			errs = append(errs, fmt.Sprintf("%s file is not a regular file: %s", c.def.Name, rel))
		case !c.ValidateFile(p):
			errs = append(errs, fmt.Sprintf("invalid %s file format: %s", c.def.Name, rel))
		default:
			valid++
		}
	}

	if !c.settings.IsComponentInstalled(c.def.Name) {
		errs = append(errs, fmt.Sprintf("%s component not registered in metadata", c.def.Name))
	} else if version, _ := c.settings.GetComponentVersion(c.def.Name); version != c.def.Version {
		errs = append(errs, fmt.Sprintf("version mismatch: installed %s, expected %s", version, c.def.Version))
	}

	if valid > 0 {
		c.log.Info("found valid installed files", slog.Int("count", valid))
	}
	return len(errs) == 0, errs
}
