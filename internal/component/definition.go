package component

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	nameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	extRe  = regexp.MustCompile(`^\.[A-Za-z0-9]+$`)
)

// Definition describes one installable component category.
type Definition struct {
	Name         string   `yaml:"name"`
	Version      string   `yaml:"version"`
	Description  string   `yaml:"description"`
	Category     string   `yaml:"category"`
	Dependencies []string `yaml:"dependencies"`

	// Source is the artifact directory, relative to the source root.
	Source string `yaml:"source"`
	// Target is the install directory, relative to the install root.
	// Empty means the install root itself.
	Target     string   `yaml:"target"`
	Extensions []string `yaml:"extensions"`
	Recursive  bool     `yaml:"recursive"`
	// Exclude lists basenames skipped by discovery, compared case-insensitively.
	Exclude []string `yaml:"exclude"`
	// Frontmatter requires every artifact to carry name and description.
	Frontmatter bool `yaml:"frontmatter"`

	// Section is the top-level metadata key for component config.
	Section string `yaml:"section"`
	// ItemsKey names the list of installed artifact names inside Section.
	ItemsKey string `yaml:"items_key"`
}

// Validate validates the definition.
func (d *Definition) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Name, validation.Required, validation.Match(nameRe)),
		validation.Field(&d.Version, validation.Required),
		validation.Field(&d.Source, validation.Required),
		validation.Field(&d.Extensions, validation.Required, validation.Each(validation.Match(extRe))),
		validation.Field(&d.Dependencies, validation.Each(validation.Match(nameRe))),
		validation.Field(&d.ItemsKey, validation.When(d.Section == "", validation.Empty.Error("requires section"))),
	)
}

// Merge overlays the non-zero fields of o onto a copy of d.
func (d Definition) Merge(o Definition) Definition {
	if o.Version != "" {
		d.Version = o.Version
	}
	if o.Description != "" {
		d.Description = o.Description
	}
	if o.Category != "" {
		d.Category = o.Category
	}
	if o.Dependencies != nil {
		d.Dependencies = o.Dependencies
	}
	if o.Source != "" {
		d.Source = o.Source
	}
	if o.Target != "" {
		d.Target = o.Target
	}
	if o.Extensions != nil {
		d.Extensions = o.Extensions
	}
	if o.Exclude != nil {
		d.Exclude = o.Exclude
	}
	if o.Recursive {
		d.Recursive = true
	}
	if o.Frontmatter {
		d.Frontmatter = true
	}
	if o.Section != "" {
		d.Section = o.Section
	}
	if o.ItemsKey != "" {
		d.ItemsKey = o.ItemsKey
	}
	return d
}

// Builtins returns the stock component definitions.
func Builtins() []Definition {
	readme := []string{"README.md"}
	return []Definition{
		{
			Name:        "core",
			Version:     "1.0.0",
			Description: "Core framework documents loaded by every session",
			Category:    "core",
			Source:      "SuperClaude/Core",
			Extensions:  []string{".md"},
			Exclude:     readme,
		},
		{
			Name:         "commands",
			Version:      "1.0.0",
			Description:  "Slash command definitions",
			Category:     "commands",
			Dependencies: []string{"core"},
			Source:       "SuperClaude/Commands",
			Target:       "commands/sc",
			Extensions:   []string{".md"},
			Exclude:      readme,
			Section:      "commands",
			ItemsKey:     "installed_commands",
		},
		{
			Name:         "hooks",
			Version:      "1.0.0",
			Description:  "Session lifecycle hook scripts",
			Category:     "integration",
			Dependencies: []string{"core"},
			Source:       "SuperClaude/Hooks",
			Target:       "hooks",
			Extensions:   []string{".py"},
			Exclude:      readme,
			Section:      "hooks",
			ItemsKey:     "installed_hooks",
		},
		{
			Name:         "agents",
			Version:      "1.0.0",
			Description:  "Agent collection for specialized AI behaviors",
			Category:     "extensions",
			Dependencies: []string{"core"},
			Source:       "SuperClaude/Agents",
			Target:       "agents",
			Extensions:   []string{".md"},
			Exclude:      readme,
			Frontmatter:  true,
			Section:      "agents",
			ItemsKey:     "installed_agents",
		},
	}
}
