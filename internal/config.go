package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/claudekit/internal/component"
	"github.com/starford/claudekit/internal/logging"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig      `yaml:"app"`
	Install    InstallConfig          `yaml:"install"`
	Metadata   MetadataConfig         `yaml:"metadata"`
	Journal    JournalConfig          `yaml:"journal"`
	Components []component.Definition `yaml:"components"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Install.Validate(); err != nil {
		return err
	}
	if err := c.Metadata.Validate(); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
		return err
	}
	return c.validateComponents()
}

// validateComponents checks override names only; the merged definition is
// validated when the component is built.
func (c *Config) validateComponents() error {
	seen := make(map[string]struct{}, len(c.Components))
	for i := range c.Components {
		d := &c.Components[i]
		if err := validation.ValidateStruct(d,
			validation.Field(&d.Name, validation.Required),
		); err != nil {
			return fmt.Errorf("components[%d]: %w", i, err)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("components[%d]: duplicate component %q", i, d.Name)
		}
		seen[d.Name] = struct{}{}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.Required, validation.In(logging.FormatText, logging.FormatJSON)),
	)
}

// InstallConfig locates the install root and the artifact sources.
type InstallConfig struct {
	Dir    string `yaml:"dir"`
	Source string `yaml:"source"`
}

// Validate validates the install configuration.
func (c *InstallConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Source, validation.Required),
	)
}

// MetadataConfig holds the metadata file location. A relative path is
// resolved against the install directory. The extension selects the format.
type MetadataConfig struct {
	File string `yaml:"file"`
}

// Validate validates the metadata configuration.
func (c *MetadataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.File, validation.Required,
			validation.By(func(v any) error {
				switch strings.ToLower(filepath.Ext(v.(string))) {
				case "", ".json", ".yaml", ".yml", ".toml":
					return nil
				}
				return fmt.Errorf("unsupported metadata format %q", filepath.Ext(v.(string)))
			})),
	)
}

// JournalConfig holds the operations journal database configuration.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the journal configuration.
func (c *JournalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// Resolve expands "~" in the install directory and makes every path
// absolute. Metadata and journal paths are taken relative to the install
// directory.
func (c *Config) Resolve() error {
	dir, err := expandHome(c.Install.Dir)
	if err != nil {
		return err
	}
	if c.Install.Dir, err = filepath.Abs(dir); err != nil {
		return fmt.Errorf("resolve install dir: %w", err)
	}
	src, err := expandHome(c.Install.Source)
	if err != nil {
		return err
	}
	if c.Install.Source, err = filepath.Abs(src); err != nil {
		return fmt.Errorf("resolve source dir: %w", err)
	}
	if c.Metadata.File, err = c.underInstall(c.Metadata.File); err != nil {
		return err
	}
	if c.Journal.Path != "" {
		if c.Journal.Path, err = c.underInstall(c.Journal.Path); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) underInstall(p string) (string, error) {
	p, err := expandHome(p)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	return filepath.Join(c.Install.Dir, p), nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: logging.FormatText,
		},
		Install: InstallConfig{
			Dir:    "~/.claude",
			Source: ".",
		},
		Metadata: MetadataConfig{
			File: ".claudekit-metadata.json",
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    ".claudekit-journal.db",
		},
	}
}
