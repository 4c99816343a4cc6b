// Package component implements the lifecycle of a file-based component:
// discovery, frontmatter validation, install, update with backup and
// rollback, uninstall, and the installation health check.
//
// Operations run sequentially and assume a single installer process per
// install root; concurrent invocations against the same root are not
// guarded against.
package component

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/starford/claudekit/internal/frontmatter"
	"github.com/starford/claudekit/internal/logging"
	"github.com/starford/claudekit/internal/metadata"
	"github.com/starford/claudekit/internal/models"
	"github.com/starford/claudekit/internal/storage"
)

// Sentinel errors returned by lifecycle operations.
var (
	// ErrTargetDir indicates the install directory could not be created.
	ErrTargetDir = errors.New("cannot create target directory")
	// ErrNothingInstalled indicates no artifact was installed.
	ErrNothingInstalled = errors.New("no files installed")
	// ErrPostInstall indicates files were copied but metadata could not be updated.
	ErrPostInstall = errors.New("post-install failed")
	// ErrUnexpected indicates a panic recovered at an operation boundary.
	ErrUnexpected = errors.New("unexpected error")
)

// SettingsManager is the metadata store a component reports to.
type SettingsManager interface {
	AddComponentRegistration(name string, reg models.Registration) error
	RemoveComponentRegistration(name string) error
	IsComponentInstalled(name string) bool
	GetComponentVersion(name string) (string, bool)
	LoadMetadata() (metadata.Metadata, error)
	SaveMetadata(m metadata.Metadata) error
	UpdateMetadata(mods metadata.Metadata) error
}

var _ SettingsManager = (*metadata.Store)(nil)

// Env carries the collaborators shared by every component.
type Env struct {
	SourceRoot string
	InstallDir string
	Files      storage.FileManager
	Settings   SettingsManager
	Logger     *logging.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Component manages one Definition against an install root.
type Component struct {
	def        Definition
	sourceDir  string
	installDir string
	targetDir  string
	files      storage.FileManager
	settings   SettingsManager
	log        *logging.Logger
	now        func() time.Time

	componentFiles []string
}

// New creates a Component and discovers its source files.
func New(def Definition, env Env) (*Component, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("component %q: %w", def.Name, err)
	}
	if env.Files == nil || env.Settings == nil {
		return nil, fmt.Errorf("component %q: file manager and settings manager are required", def.Name)
	}
	log := env.Logger
	if log == nil {
		log = logging.Discard()
	}
	now := env.Now
	if now == nil {
		now = time.Now
	}

	installDir, err := filepath.Abs(env.InstallDir)
	if err != nil {
		return nil, fmt.Errorf("component %q: resolve install dir: %w", def.Name, err)
	}
	targetDir, err := storage.Within(installDir, def.Target)
	if err != nil {
		return nil, fmt.Errorf("component %q: %w", def.Name, err)
	}
	sourceDir, err := storage.Within(env.SourceRoot, def.Source)
	if err != nil {
		return nil, fmt.Errorf("component %q: %w", def.Name, err)
	}
	// A symlinked source directory is walked through its target.
	if resolved, err := filepath.EvalSymlinks(sourceDir); err == nil {
		sourceDir = resolved
	}

	c := &Component{
		def:        def,
		sourceDir:  sourceDir,
		installDir: installDir,
		targetDir:  targetDir,
		files:      env.Files,
		settings:   env.Settings,
		log:        log.With(def.Name),
		now:        now,
	}
	c.componentFiles = c.Discover()
	return c, nil
}

// Name returns the component name.
func (c *Component) Name() string { return c.def.Name }

// Version returns the declared component version.
func (c *Component) Version() string { return c.def.Version }

// Definition returns a copy of the component definition.
func (c *Component) Definition() Definition { return c.def }

// Dependencies returns the names of components that must be installed first.
func (c *Component) Dependencies() []string {
	return append([]string(nil), c.def.Dependencies...)
}

// Files returns the discovered artifact paths, relative and slash-separated.
func (c *Component) Files() []string {
	return append([]string(nil), c.componentFiles...)
}

// SourceDir returns the absolute artifact source directory.
func (c *Component) SourceDir() string { return c.sourceDir }

// TargetDir returns the absolute install directory of the component.
func (c *Component) TargetDir() string { return c.targetDir }

// Discover lists the artifact files under the source directory, sorted.
// A missing source directory yields an empty list.
func (c *Component) Discover() []string {
	info, err := os.Stat(c.sourceDir)
	if err != nil || !info.IsDir() {
		c.log.Warn("source directory not found", slog.String("path", c.sourceDir))
		return []string{}
	}

	out := []string{}
	walkErr := filepath.WalkDir(c.sourceDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != c.sourceDir && !c.def.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !c.isArtifact(d.Name()) || !isRegularFile(p, d) {
			return nil
		}
		rel, err := filepath.Rel(c.sourceDir, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if walkErr != nil {
		c.log.Warn("discovery incomplete", slog.String("path", c.sourceDir), logging.Err(walkErr))
	}

	sort.Strings(out)
	c.log.Debug("discovered component files", slog.Int("count", len(out)))
	return out
}

// isRegularFile accepts regular files and symlinks to regular files.
func isRegularFile(p string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func (c *Component) isArtifact(name string) bool {
	for _, ex := range c.def.Exclude {
		if strings.EqualFold(name, ex) {
			return false
		}
	}
	ext := filepath.Ext(name)
	for _, want := range c.def.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// ValidateFile reports whether the artifact at p is well-formed. It never
// fails loudly: problems are logged at debug level.
func (c *Component) ValidateFile(p string) bool {
	if err := c.CheckFile(p); err != nil {
		c.log.Debug("invalid artifact", slog.String("file", filepath.Base(p)), logging.Err(err))
		return false
	}
	return true
}

// CheckFile returns why the artifact at p is not well-formed, or nil.
func (c *Component) CheckFile(p string) error {
	data, err := os.ReadFile(p)
	if err != nil {
		return err
	}
	if !c.def.Frontmatter {
		return nil
	}
	_, err = frontmatter.ParseValid(string(data))
	return err
}

// Owns reports whether the absolute path p is a source artifact of this
// component, returning its path relative to the source directory.
func (c *Component) Owns(p string) (string, bool) {
	rel, err := filepath.Rel(c.sourceDir, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if !c.def.Recursive && strings.Contains(rel, "/") {
		return "", false
	}
	if !c.isArtifact(path.Base(rel)) {
		return "", false
	}
	return rel, true
}

// InstalledItems returns name and description for every valid installed
// artifact, sorted by name.
func (c *Component) InstalledItems() []models.Item {
	items := []models.Item{}
	for _, rel := range c.componentFiles {
		p, err := storage.Within(c.targetDir, rel)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if !c.def.Frontmatter {
			items = append(items, models.Item{Name: stem(rel), Path: rel})
			continue
		}
		fm, err := frontmatter.ParseValid(string(data))
		if err != nil {
			continue
		}
		items = append(items, models.Item{Name: fm.Name, Description: fm.Description, Path: rel})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].Path < items[j].Path
	})
	return items
}

// installedNames rescans the installed artifacts for their names.
// Artifacts without frontmatter are named by file stem.
func (c *Component) installedNames() []string {
	seen := make(map[string]struct{})
	names := []string{}
	for _, rel := range c.componentFiles {
		p, err := storage.Within(c.targetDir, rel)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		name := stem(rel)
		if c.def.Frontmatter {
			fm, _, err := frontmatter.Parse(string(data))
			if err != nil || fm.Name == "" {
				continue
			}
			name = fm.Name
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// guard converts a panic in a public operation into ErrUnexpected.
func (c *Component) guard(op string, errp *error) {
	if r := recover(); r != nil {
		perr := logging.Panic(r)
		c.log.Exception("unexpected error during "+op, perr)
		*errp = fmt.Errorf("%w: %s %s: %w", ErrUnexpected, op, c.def.Name, perr)
	}
}

func stem(rel string) string {
	base := path.Base(rel)
	return strings.TrimSuffix(base, path.Ext(base))
}
