// Package watch validates component source artifacts, once or continuously
// as they change on disk.
package watch

import (
	"github.com/starford/claudekit/internal/component"
	"github.com/starford/claudekit/internal/storage"
)

// Finding is the lint result for one source artifact.
type Finding struct {
	Component string `json:"component"`
	Path      string `json:"path"`
	Error     string `json:"error,omitempty"`
}

// Valid reports whether the artifact passed.
func (f Finding) Valid() bool { return f.Error == "" }

// Lint checks every discovered artifact of comps, in component order.
func Lint(comps []*component.Component) []Finding {
	var out []Finding
	for _, c := range comps {
		for _, rel := range c.Files() {
			out = append(out, check(c, rel))
		}
	}
	return out
}

// Invalid filters findings down to the failures.
func Invalid(findings []Finding) []Finding {
	var bad []Finding
	for _, f := range findings {
		if !f.Valid() {
			bad = append(bad, f)
		}
	}
	return bad
}

func check(c *component.Component, rel string) Finding {
	f := Finding{Component: c.Name(), Path: rel}
	p, err := storage.Within(c.SourceDir(), rel)
	if err == nil {
		err = c.CheckFile(p)
	}
	if err != nil {
		f.Error = err.Error()
	}
	return f
}
