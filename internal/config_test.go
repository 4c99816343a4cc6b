package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/claudekit/internal/component"
	pkgconfig "github.com/starford/claudekit/pkg/config"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should pass: %v", err)
	}
}

func TestApplicationConfig_InvalidFormat(t *testing.T) {
	cfg := ApplicationConfig{LogFormat: "xml"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("xml log format should fail validation")
	}
}

func TestMetadataConfig_UnsupportedExtension(t *testing.T) {
	cfg := MetadataConfig{File: "meta.ini"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("ini metadata should fail validation")
	}
	if !strings.Contains(err.Error(), "unsupported metadata format") {
		t.Errorf("unexpected error: %v", err)
	}
	for _, f := range []string{"meta", "meta.json", "meta.YAML", "meta.toml"} {
		cfg := MetadataConfig{File: f}
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s: %v", f, err)
		}
	}
}

func TestJournalConfig_PathRequiredWhenEnabled(t *testing.T) {
	cfg := JournalConfig{Enabled: true}
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled journal without path should fail")
	}
	cfg = JournalConfig{Enabled: false}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled journal should pass: %v", err)
	}
}

func TestConfig_DuplicateComponentOverride(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Components = []component.Definition{{Name: "agents"}, {Name: "agents"}}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("want duplicate error, got %v", err)
	}

	cfg.Components = []component.Definition{{Version: "2.0.0"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("override without name should fail")
	}
}

func TestConfig_Resolve(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := NewDefaultConfig()
	if err := cfg.Resolve(); err != nil {
		t.Fatal(err)
	}
	wantDir := filepath.Join(home, ".claude")
	if cfg.Install.Dir != wantDir {
		t.Errorf("install dir = %q, want %q", cfg.Install.Dir, wantDir)
	}
	if cfg.Metadata.File != filepath.Join(wantDir, ".claudekit-metadata.json") {
		t.Errorf("metadata file = %q", cfg.Metadata.File)
	}
	if cfg.Journal.Path != filepath.Join(wantDir, ".claudekit-journal.db") {
		t.Errorf("journal path = %q", cfg.Journal.Path)
	}
	if !filepath.IsAbs(cfg.Install.Source) {
		t.Errorf("source not absolute: %q", cfg.Install.Source)
	}
}

func TestConfig_ResolveKeepsAbsolutePaths(t *testing.T) {
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Install.Dir = filepath.Join(dir, "install")
	cfg.Metadata.File = filepath.Join(dir, "meta.yaml")
	if err := cfg.Resolve(); err != nil {
		t.Fatal(err)
	}
	if cfg.Metadata.File != filepath.Join(dir, "meta.yaml") {
		t.Errorf("metadata file = %q", cfg.Metadata.File)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("CK_TEST_DIR", "/opt/claude")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `app:
  log_level: debug
  log_format: json
install:
  dir: ${CK_TEST_DIR}
components:
  - name: agents
    version: 2.0.0
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.App.LogFormat != "json" || cfg.App.LogLevel.String() != "DEBUG" {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Install.Dir != "/opt/claude" || cfg.Install.Source != "." {
		t.Errorf("install = %+v", cfg.Install)
	}
	if len(cfg.Components) != 1 || cfg.Components[0].Version != "2.0.0" {
		t.Errorf("components = %+v", cfg.Components)
	}
}

func TestLoadOptional_MissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := pkgconfig.LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Install.Dir != "~/.claude" {
		t.Errorf("install dir = %q", cfg.Install.Dir)
	}
}
