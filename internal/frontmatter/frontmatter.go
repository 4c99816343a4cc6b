// Package frontmatter parses and validates the `---` delimited header block
// at the top of component artifacts.
package frontmatter

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Sentinel errors returned by Split, Parse and Validate.
var (
	// ErrNoFrontmatter indicates the content does not start with the opening delimiter.
	ErrNoFrontmatter = errors.New("content does not start with --- frontmatter delimiter")
	// ErrUnterminated indicates the closing delimiter is missing.
	ErrUnterminated = errors.New("missing closing --- frontmatter delimiter")
	// ErrMalformed indicates neither parse strategy extracted any field.
	ErrMalformed = errors.New("malformed frontmatter")
	// ErrMissingField indicates a required field is absent or empty.
	ErrMissingField = errors.New("required field missing")
)

// Strategy names the parser that produced a Frontmatter.
type Strategy string

const (
	StrategyYAML      Strategy = "yaml"
	StrategyHeuristic Strategy = "heuristic"
)

// Frontmatter is the header metadata of an artifact.
type Frontmatter struct {
	Name        string
	Description string
	Tools       []string
	Model       string
	Color       string
	// Extra holds every key the parser saw, including the typed ones above.
	Extra map[string]any
}

// Split separates the header block from the body. The block is the text
// between the leading "---\n" and the first following "\n---".
func Split(content string) (block, body string, err error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, delim+"\n") {
		return "", "", ErrNoFrontmatter
	}
	rest := content[len(delim)+1:]
	idx := strings.Index(rest, "\n"+delim)
	if idx < 0 {
		return "", "", ErrUnterminated
	}
	block = rest[:idx]
	body = rest[idx+1+len(delim):]
	// Drop the remainder of the closing delimiter line.
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = ""
	}
	return block, body, nil
}

// Parse extracts the frontmatter from content. The YAML parser runs first;
// when it fails the line-oriented heuristic recovers name and description.
func Parse(content string) (*Frontmatter, Strategy, error) {
	block, _, err := Split(content)
	if err != nil {
		return nil, "", err
	}

	if fm, ok := parseYAML(block); ok {
		return fm, StrategyYAML, nil
	}
	if fm, ok := parseHeuristic(block); ok {
		return fm, StrategyHeuristic, nil
	}
	return nil, "", ErrMalformed
}

// Validate checks that the required fields are present.
func Validate(fm *Frontmatter) error {
	if fm == nil {
		return ErrMalformed
	}
	if strings.TrimSpace(fm.Name) == "" {
		return fmt.Errorf("%w: name", ErrMissingField)
	}
	if strings.TrimSpace(fm.Description) == "" {
		return fmt.Errorf("%w: description", ErrMissingField)
	}
	return nil
}

// ParseValid parses content and validates the result.
func ParseValid(content string) (*Frontmatter, error) {
	fm, _, err := Parse(content)
	if err != nil {
		return nil, err
	}
	if err := Validate(fm); err != nil {
		return nil, err
	}
	return fm, nil
}

func parseYAML(block string) (*Frontmatter, bool) {
	var raw map[string]any
	if err := yaml.Unmarshal([]byte(block), &raw); err != nil || len(raw) == 0 {
		return nil, false
	}
	fm := &Frontmatter{
		Name:        scalar(raw["name"]),
		Description: scalar(raw["description"]),
		Model:       scalar(raw["model"]),
		Color:       scalar(raw["color"]),
		Tools:       list(raw["tools"]),
		Extra:       raw,
	}
	return fm, true
}

// parseHeuristic reads "key: value" lines. Indented or colon-less lines
// continue the previous value.
func parseHeuristic(block string) (*Frontmatter, bool) {
	fields := make(map[string]string)
	var (
		key   string
		value []string
	)
	flush := func() {
		if key == "" {
			return
		}
		v := strings.TrimSpace(strings.Join(value, " "))
		fields[key] = strings.Trim(v, `"'`)
	}

	for _, line := range strings.Split(strings.TrimSpace(block), "\n") {
		indented := strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
		if k, v, ok := strings.Cut(line, ":"); ok && !indented {
			flush()
			key = strings.TrimSpace(k)
			value = []string{strings.TrimSpace(v)}
			continue
		}
		if key != "" {
			value = append(value, strings.TrimSpace(line))
		}
	}
	flush()

	fm := &Frontmatter{Extra: make(map[string]any)}
	for _, k := range []string{"name", "description"} {
		if v, ok := fields[k]; ok {
			fm.Extra[k] = v
		}
	}
	if len(fm.Extra) == 0 {
		return nil, false
	}
	fm.Name = fields["name"]
	fm.Description = fields["description"]
	return fm, true
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// list accepts a YAML sequence or a comma-separated string.
func list(v any) []string {
	var out []string
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s := scalar(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.Split(t, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// Truncate shortens s to at most n runes, appending "..." as the summary
// listing does.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s + "..."
	}
	return string(r[:n]) + "..."
}
