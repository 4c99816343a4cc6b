package installer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/claudekit/internal/apperr"
	"github.com/starford/claudekit/internal/component"
	"github.com/starford/claudekit/internal/journal"
	"github.com/starford/claudekit/internal/metadata"
	"github.com/starford/claudekit/internal/models"
	"github.com/starford/claudekit/internal/storage"
	"github.com/starford/claudekit/internal/testutil"
)

type fixture struct {
	source  string
	install string
	store   *metadata.Store
	journal *journal.DB
	env     component.Env
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		source:  t.TempDir(),
		install: t.TempDir(),
		store:   testutil.TestStore(t),
		journal: testutil.TestJournal(t),
	}
	f.env = component.Env{
		SourceRoot: f.source,
		InstallDir: f.install,
		Files:      storage.NewFS(),
		Settings:   f.store,
	}
	testutil.WriteFiles(t, f.source, map[string]string{
		"SuperClaude/Core/CLAUDE.md":           "# core\n",
		"SuperClaude/Core/RULES.md":            "# rules\n",
		"SuperClaude/Commands/build.md":        "# build\n",
		"SuperClaude/Hooks/session_start.py":   "print('hi')\n",
		"SuperClaude/Agents/backend.md":        testutil.AgentDoc("backend", "Backend work"),
		"SuperClaude/Agents/frontend-agent.md": testutil.AgentDoc("frontend", "Frontend work"),
	})
	return f
}

func (f *fixture) installer(t *testing.T, defs []component.Definition) *Installer {
	t.Helper()
	if defs == nil {
		defs = component.Builtins()
	}
	in, err := New(defs, f.env, f.journal)
	require.NoError(t, err)
	return in
}

func TestResolve_DependenciesFirst(t *testing.T) {
	f := newFixture(t)
	in := f.installer(t, nil)

	order, err := in.Resolve([]string{"agents", "hooks"})
	require.NoError(t, err)
	assert.Equal(t, []string{"core", "agents", "hooks"}, order)
}

func TestResolve_Unknown(t *testing.T) {
	f := newFixture(t)
	in := f.installer(t, nil)

	_, err := in.Resolve([]string{"mcp"})
	assert.ErrorIs(t, err, apperr.ErrUnknownComponent)
}

func TestNew_DependencyCycle(t *testing.T) {
	f := newFixture(t)
	defs := []component.Definition{
		{Name: "a", Version: "1", Source: "a", Extensions: []string{".md"}, Dependencies: []string{"b"}},
		{Name: "b", Version: "1", Source: "b", Extensions: []string{".md"}, Dependencies: []string{"a"}},
	}
	in := f.installer(t, defs)

	_, err := in.Resolve([]string{"a"})
	assert.ErrorIs(t, err, apperr.ErrDependencyCycle)
}

func TestNew_UnknownDependency(t *testing.T) {
	f := newFixture(t)
	defs := []component.Definition{
		{Name: "a", Version: "1", Source: "a", Extensions: []string{".md"}, Dependencies: []string{"ghost"}},
	}
	_, err := New(defs, f.env, nil)
	assert.ErrorIs(t, err, apperr.ErrUnknownComponent)
}

func TestNew_DuplicateName(t *testing.T) {
	f := newFixture(t)
	core := component.Builtins()[0]
	_, err := New([]component.Definition{core, core}, f.env, nil)
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)
}

func TestInstall_WithDependencies(t *testing.T) {
	f := newFixture(t)
	in := f.installer(t, nil)

	require.NoError(t, in.Install("agents"))

	assert.FileExists(t, filepath.Join(f.install, "CLAUDE.md"))
	assert.FileExists(t, filepath.Join(f.install, "agents", "backend.md"))
	assert.True(t, f.store.IsComponentInstalled("core"))
	assert.True(t, f.store.IsComponentInstalled("agents"))
	assert.False(t, f.store.IsComponentInstalled("commands"))

	entries, err := in.History("", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "agents", entries[0].Component)
	assert.Equal(t, models.OpInstall, entries[0].Operation)
	assert.Equal(t, models.OutcomeSuccess, entries[0].Outcome)
	assert.Equal(t, 2, entries[0].Files)
	assert.NotEmpty(t, entries[0].Checksum)
}

func TestInstall_SkipsInstalledDependency(t *testing.T) {
	f := newFixture(t)
	in := f.installer(t, nil)
	require.NoError(t, in.Install("core"))

	require.NoError(t, in.Install("commands"))

	entries, err := in.History("core", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestInstall_StopsOnFailure(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.RemoveAll(filepath.Join(f.source, "SuperClaude", "Core")))
	in := f.installer(t, nil)

	err := in.Install("agents")
	require.Error(t, err)
	assert.ErrorIs(t, err, component.ErrNothingInstalled)
	assert.False(t, f.store.IsComponentInstalled("agents"))

	entries, err := in.History("", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "core", entries[0].Component)
	assert.Equal(t, models.OutcomeFailure, entries[0].Outcome)
	assert.NotEmpty(t, entries[0].Error)
}

func TestUpdate_RecordsOutcomes(t *testing.T) {
	f := newFixture(t)
	in := f.installer(t, nil)
	require.NoError(t, in.Install())

	require.NoError(t, in.Update("agents"))

	defs := Definitions([]component.Definition{{Name: "agents", Version: "2.0.0"}})
	in2 := f.installer(t, defs)
	require.NoError(t, in2.Update("agents"))

	v, ok := f.store.GetComponentVersion("agents")
	require.True(t, ok)
	assert.Equal(t, "2.0.0", v)

	entries, err := in2.History("agents", 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, models.OpUpdate, entries[0].Operation)
	assert.Equal(t, models.OutcomeSuccess, entries[0].Outcome)
	assert.Equal(t, "1.0.0", entries[0].FromVersion)
	assert.Equal(t, "2.0.0", entries[0].ToVersion)
	assert.Equal(t, models.OutcomeNoOp, entries[1].Outcome)
}

func TestUninstall_ReverseOrder(t *testing.T) {
	f := newFixture(t)
	in := f.installer(t, nil)
	require.NoError(t, in.Install())

	require.NoError(t, in.Uninstall("core", "agents"))

	assert.NoFileExists(t, filepath.Join(f.install, "CLAUDE.md"))
	assert.NoDirExists(t, filepath.Join(f.install, "agents"))
	assert.False(t, f.store.IsComponentInstalled("agents"))
	assert.True(t, f.store.IsComponentInstalled("commands"))

	entries, err := in.History("", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "core", entries[0].Component)
	assert.Equal(t, "agents", entries[1].Component)
	assert.Equal(t, "1.0.0", entries[1].FromVersion)
	assert.Empty(t, entries[1].Checksum)
}

func TestValidate_Reports(t *testing.T) {
	f := newFixture(t)
	in := f.installer(t, nil)
	require.NoError(t, in.Install("agents"))

	reports, err := in.Validate("core", "agents", "hooks")
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.True(t, reports[0].OK)
	assert.True(t, reports[1].OK)
	assert.Empty(t, reports[1].Errors)
	assert.False(t, reports[2].OK)
	assert.NotEmpty(t, reports[2].Errors)

	_, err = in.Validate("nope")
	assert.ErrorIs(t, err, apperr.ErrUnknownComponent)
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	in := f.installer(t, nil)
	require.NoError(t, in.Install("core"))

	st := in.Status()
	require.Len(t, st, 4)
	assert.Equal(t, "core", st[0].Name)
	assert.True(t, st[0].Installed)
	assert.Equal(t, "1.0.0", st[0].InstalledVersion)
	assert.Equal(t, 2, st[0].Files)
	assert.False(t, st[3].Installed)
	assert.Equal(t, 2, st[3].Files)
}

type brokenJournal struct{}

func (brokenJournal) Record(models.JournalEntry) error { return errors.New("disk full") }
func (brokenJournal) List(string, int) ([]models.JournalEntry, error) {
	return nil, errors.New("disk full")
}

func TestInstall_JournalFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	in, err := New(component.Builtins(), f.env, brokenJournal{})
	require.NoError(t, err)

	assert.NoError(t, in.Install("core"))
}

func TestHistory_NoJournal(t *testing.T) {
	f := newFixture(t)
	in, err := New(component.Builtins(), f.env, nil)
	require.NoError(t, err)

	entries, err := in.History("", 10)
	assert.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDefinitions_Overrides(t *testing.T) {
	defs := Definitions([]component.Definition{
		{Name: "agents", Version: "1.1.0"},
		{Name: "skills", Version: "0.1.0", Source: "skills", Target: "skills", Extensions: []string{".md"}},
	})
	require.Len(t, defs, 5)
	assert.Equal(t, "1.1.0", defs[3].Version)
	assert.Equal(t, "SuperClaude/Agents", defs[3].Source)
	assert.Equal(t, "skills", defs[4].Name)
}
