// Package installer coordinates component lifecycles across the registry:
// dependency ordering, batch install/update/uninstall, status reporting
// and the operations journal.
package installer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/starford/claudekit/internal/apperr"
	"github.com/starford/claudekit/internal/checksum"
	"github.com/starford/claudekit/internal/component"
	"github.com/starford/claudekit/internal/journal"
	"github.com/starford/claudekit/internal/logging"
	"github.com/starford/claudekit/internal/models"
	"github.com/starford/claudekit/internal/storage"
)

// Status is one row of the component listing.
type Status struct {
	Name             string `json:"name"`
	Description      string `json:"description,omitempty"`
	Category         string `json:"category,omitempty"`
	DeclaredVersion  string `json:"declared_version"`
	InstalledVersion string `json:"installed_version,omitempty"`
	Installed        bool   `json:"installed"`
	Files            int    `json:"files"`
}

// Report is the health-check result for one component.
type Report struct {
	Name   string   `json:"name"`
	OK     bool     `json:"ok"`
	Errors []string `json:"errors"`
}

// Installer runs lifecycle operations over a set of components.
type Installer struct {
	components map[string]*component.Component
	order      []string
	settings   component.SettingsManager
	journal    journal.Recorder
	log        *logging.Logger
}

// New builds an Installer for defs. journal may be nil.
func New(defs []component.Definition, env component.Env, rec journal.Recorder) (*Installer, error) {
	log := env.Logger
	if log == nil {
		log = logging.Discard()
	}
	in := &Installer{
		components: make(map[string]*component.Component, len(defs)),
		settings:   env.Settings,
		journal:    rec,
		log:        log.With("installer"),
	}
	for _, def := range defs {
		if _, dup := in.components[def.Name]; dup {
			return nil, fmt.Errorf("installer: %s: %w", def.Name, apperr.ErrAlreadyExists)
		}
		c, err := component.New(def, env)
		if err != nil {
			return nil, err
		}
		in.components[def.Name] = c
		in.order = append(in.order, def.Name)
	}
	for _, name := range in.order {
		for _, dep := range in.components[name].Dependencies() {
			if _, ok := in.components[dep]; !ok {
				return nil, fmt.Errorf("installer: %s depends on %s: %w", name, dep, apperr.ErrUnknownComponent)
			}
		}
	}
	return in, nil
}

// Names returns every registered component name in definition order.
func (in *Installer) Names() []string {
	return append([]string(nil), in.order...)
}

// Component returns the named component.
func (in *Installer) Component(name string) (*component.Component, error) {
	c, ok := in.components[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, apperr.ErrUnknownComponent)
	}
	return c, nil
}

func (in *Installer) lookup(names []string) ([]*component.Component, error) {
	if len(names) == 0 {
		names = in.order
	}
	out := make([]*component.Component, 0, len(names))
	for _, n := range names {
		c, err := in.Component(n)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// Install installs names and their dependencies, dependencies first.
// Dependencies that are already installed and were not requested are skipped.
// Installation stops at the first failing component.
func (in *Installer) Install(names ...string) error {
	if len(names) == 0 {
		names = in.order
	}
	order, err := in.Resolve(names)
	if err != nil {
		return err
	}
	requested := make(map[string]struct{}, len(names))
	for _, n := range names {
		requested[n] = struct{}{}
	}

	for _, name := range order {
		c := in.components[name]
		if _, ok := requested[name]; !ok && in.settings.IsComponentInstalled(name) {
			in.log.Debug("dependency already installed", slog.String("component", name))
			continue
		}
		res, err := c.Install()
		in.record(c, models.OpInstall, outcomeOf(err), "", res.Installed, err)
		if err != nil {
			return fmt.Errorf("install %s: %w", name, err)
		}
	}
	in.log.Success("installation complete", slog.Int("components", len(order)))
	return nil
}

// Update updates each named component (all when none are given). Every
// component is attempted; the returned error joins the failures.
func (in *Installer) Update(names ...string) error {
	comps, err := in.lookup(names)
	if err != nil {
		return err
	}
	var errs []error
	for _, c := range comps {
		res, err := c.Update()
		outcome := string(res.Outcome)
		if res.Outcome == component.OutcomeUpdated {
			outcome = models.OutcomeSuccess
		}
		if err != nil && res.Outcome == "" {
			outcome = models.OutcomeFailure
		}
		in.record(c, models.OpUpdate, outcome, res.FromVersion, res.Install.Installed, err)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Uninstall removes the named components in reverse of the given order.
func (in *Installer) Uninstall(names ...string) error {
	comps, err := in.lookup(names)
	if err != nil {
		return err
	}
	var errs []error
	for i := len(comps) - 1; i >= 0; i-- {
		c := comps[i]
		from, _ := in.settings.GetComponentVersion(c.Name())
		res, err := c.Uninstall()
		in.record(c, models.OpUninstall, outcomeOf(err), from, res.Removed, err)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Validate runs the installation health check for each named component.
func (in *Installer) Validate(names ...string) ([]Report, error) {
	comps, err := in.lookup(names)
	if err != nil {
		return nil, err
	}
	reports := make([]Report, 0, len(comps))
	for _, c := range comps {
		ok, errs := c.ValidateInstallation()
		if errs == nil {
			errs = []string{}
		}
		reports = append(reports, Report{Name: c.Name(), OK: ok, Errors: errs})
	}
	return reports, nil
}

// Status lists every component with its installation state.
func (in *Installer) Status() []Status {
	out := make([]Status, 0, len(in.order))
	for _, name := range in.order {
		c := in.components[name]
		def := c.Definition()
		st := Status{
			Name:            name,
			Description:     def.Description,
			Category:        def.Category,
			DeclaredVersion: def.Version,
			Files:           len(c.Files()),
		}
		if in.settings.IsComponentInstalled(name) {
			st.Installed = true
			st.InstalledVersion, _ = in.settings.GetComponentVersion(name)
		}
		out = append(out, st)
	}
	return out
}

// History returns journal entries for name (all when empty), newest first.
func (in *Installer) History(name string, limit int) ([]models.JournalEntry, error) {
	if in.journal == nil {
		return nil, nil
	}
	return in.journal.List(name, limit)
}

func (in *Installer) record(c *component.Component, op, outcome, from string, files int, opErr error) {
	if in.journal == nil {
		return
	}
	e := models.JournalEntry{
		Component:   c.Name(),
		Operation:   op,
		Outcome:     outcome,
		FromVersion: from,
		ToVersion:   c.Version(),
		Files:       files,
	}
	if op != models.OpUninstall {
		e.Checksum = installedChecksum(c)
	} else {
		e.ToVersion = ""
	}
	if opErr != nil {
		e.Error = opErr.Error()
	}
	if err := in.journal.Record(e); err != nil {
		in.log.Warn("journal write failed", slog.String("component", c.Name()), logging.Err(err))
	}
}

// installedChecksum digests the component files currently in the target directory.
func installedChecksum(c *component.Component) string {
	sums := make(map[string]string)
	for _, rel := range c.Files() {
		p, err := storage.Within(c.TargetDir(), rel)
		if err != nil {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if s, err := checksum.File(p); err == nil {
			sums[rel] = s
		}
	}
	if len(sums) == 0 {
		return ""
	}
	return checksum.Set(sums)
}

func outcomeOf(err error) string {
	if err != nil {
		return models.OutcomeFailure
	}
	return models.OutcomeSuccess
}

// Resolve returns names plus their transitive dependencies, each after
// everything it depends on. Ties keep the order of the request.
func (in *Installer) Resolve(names []string) ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)
	var order []string

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		c, ok := in.components[name]
		if !ok {
			return fmt.Errorf("%s: %w", name, apperr.ErrUnknownComponent)
		}
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%v -> %s: %w", path, name, apperr.ErrDependencyCycle)
		}
		state[name] = visiting
		deps := c.Dependencies()
		sort.Strings(deps)
		for _, dep := range deps {
			if err := visit(dep, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}

	for _, n := range names {
		if err := visit(n, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}
