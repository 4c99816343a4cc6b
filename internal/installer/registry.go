package installer

import "github.com/starford/claudekit/internal/component"

// Definitions returns the built-in definitions with overrides applied.
// An override whose name matches a built-in is merged onto it; any other
// override is appended as a new component.
func Definitions(overrides []component.Definition) []component.Definition {
	defs := component.Builtins()
	index := make(map[string]int, len(defs))
	for i, d := range defs {
		index[d.Name] = i
	}
	for _, o := range overrides {
		if i, ok := index[o.Name]; ok {
			defs[i] = defs[i].Merge(o)
			continue
		}
		index[o.Name] = len(defs)
		defs = append(defs, o)
	}
	return defs
}
