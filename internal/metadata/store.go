// Package metadata persists the record of installed components.
//
// The document has a top-level "components" mapping (name → registration)
// plus one free-form section per component, e.g.:
//
//	{
//	  "components": {"agents": {"version": "1.0.0", "files_count": 14, ...}},
//	  "agents": {"enabled": true, "installed_agents": ["backend-architect", ...]}
//	}
//
// Every call reads the file, mutates it and writes it back atomically.
// Nothing is cached between calls.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/starford/claudekit/internal/apperr"
	"github.com/starford/claudekit/internal/models"
	"github.com/starford/claudekit/internal/storage"
)

// ComponentsKey is the top-level key holding component registrations.
const ComponentsKey = "components"

// Metadata is the decoded metadata document.
type Metadata map[string]any

// Store is a file-backed metadata store.
type Store struct {
	path  string
	codec codec
}

// NewStore returns a Store for the file at path. The codec is picked from
// the file extension: .json, .yaml/.yml or .toml.
func NewStore(path string) (*Store, error) {
	c, err := codecFor(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, codec: c}, nil
}

// Path returns the metadata file path.
func (s *Store) Path() string { return s.path }

// LoadMetadata reads the document. A missing file yields an empty document.
func (s *Store) LoadMetadata() (Metadata, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Metadata{}, nil
		}
		return nil, fmt.Errorf("metadata: read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return Metadata{}, nil
	}
	m, err := s.codec.decode(data)
	if err != nil {
		return nil, fmt.Errorf("metadata: decode %s: %w", s.path, err)
	}
	if m == nil {
		return Metadata{}, nil
	}
	return Metadata(normalize(map[string]any(m)).(map[string]any)), nil
}

// SaveMetadata writes the document atomically.
func (s *Store) SaveMetadata(m Metadata) error {
	if m == nil {
		m = Metadata{}
	}
	data, err := s.codec.encode(m)
	if err != nil {
		return fmt.Errorf("metadata: encode: %w", err)
	}
	if err := storage.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("metadata: save: %w", err)
	}
	return nil
}

// UpdateMetadata deep-merges mods into the stored document.
func (s *Store) UpdateMetadata(mods Metadata) error {
	m, err := s.LoadMetadata()
	if err != nil {
		return err
	}
	Merge(m, mods)
	return s.SaveMetadata(m)
}

// AddComponentRegistration records name as installed, replacing any
// previous registration.
func (s *Store) AddComponentRegistration(name string, reg models.Registration) error {
	m, err := s.LoadMetadata()
	if err != nil {
		return err
	}
	reg.Installed = true
	comps := section(m, ComponentsKey)
	comps[name] = registrationToMap(reg)
	return s.SaveMetadata(m)
}

// RemoveComponentRegistration deletes name's registration.
func (s *Store) RemoveComponentRegistration(name string) error {
	m, err := s.LoadMetadata()
	if err != nil {
		return err
	}
	comps, ok := asMap(m[ComponentsKey])
	if !ok {
		return fmt.Errorf("metadata: %s: %w", name, apperr.ErrNotInstalled)
	}
	if _, ok := comps[name]; !ok {
		return fmt.Errorf("metadata: %s: %w", name, apperr.ErrNotInstalled)
	}
	delete(comps, name)
	return s.SaveMetadata(m)
}

// IsComponentInstalled reports whether name is registered. Read errors
// count as not installed.
func (s *Store) IsComponentInstalled(name string) bool {
	_, ok := s.registration(name)
	return ok
}

// GetComponentVersion returns the recorded version of name.
func (s *Store) GetComponentVersion(name string) (string, bool) {
	reg, ok := s.registration(name)
	if !ok {
		return "", false
	}
	return reg.Version, true
}

// Registrations returns every registered component.
func (s *Store) Registrations() (map[string]models.Registration, error) {
	m, err := s.LoadMetadata()
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Registration)
	comps, _ := asMap(m[ComponentsKey])
	for name, raw := range comps {
		if reg, ok := registrationFromAny(raw); ok {
			out[name] = reg
		}
	}
	return out, nil
}

func (s *Store) registration(name string) (models.Registration, bool) {
	m, err := s.LoadMetadata()
	if err != nil {
		return models.Registration{}, false
	}
	comps, _ := asMap(m[ComponentsKey])
	raw, ok := comps[name]
	if !ok {
		return models.Registration{}, false
	}
	return registrationFromAny(raw)
}

// Merge recursively copies src into dst. Nested maps merge; other values
// replace.
func Merge(dst, src map[string]any) {
	for k, v := range src {
		if sv, ok := asMap(v); ok {
			if dv, ok := asMap(dst[k]); ok {
				Merge(dv, sv)
				dst[k] = dv
				continue
			}
			cp := make(map[string]any, len(sv))
			Merge(cp, sv)
			dst[k] = cp
			continue
		}
		dst[k] = v
	}
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Metadata:
		return map[string]any(t), true
	}
	return nil, false
}

// normalize rewrites every nested mapping to map[string]any so lookups
// behave the same whichever codec decoded the document.
func normalize(v any) any {
	switch t := v.(type) {
	case Metadata:
		return normalize(map[string]any(t))
	case map[string]any:
		for k, sub := range t {
			t[k] = normalize(sub)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, sub := range t {
			out[fmt.Sprint(k)] = normalize(sub)
		}
		return out
	case []any:
		for i, sub := range t {
			t[i] = normalize(sub)
		}
		return t
	}
	return v
}

func section(m Metadata, key string) map[string]any {
	if sec, ok := asMap(m[key]); ok {
		m[key] = sec
		return sec
	}
	sec := make(map[string]any)
	m[key] = sec
	return sec
}

func registrationToMap(reg models.Registration) map[string]any {
	return map[string]any{
		"version":      reg.Version,
		"category":     reg.Category,
		"files_count":  reg.FilesCount,
		"installed_at": reg.InstalledAt,
		"installed":    reg.Installed,
	}
}

func registrationFromAny(raw any) (models.Registration, bool) {
	m, ok := asMap(raw)
	if !ok {
		return models.Registration{}, false
	}
	reg := models.Registration{
		Version:     stringField(m["version"]),
		Category:    stringField(m["category"]),
		InstalledAt: stringField(m["installed_at"]),
		FilesCount:  intField(m["files_count"]),
	}
	reg.Installed, _ = m["installed"].(bool)
	return reg, true
}

func stringField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func intField(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case json.Number:
		n, _ := strconv.Atoi(t.String())
		return n
	}
	return 0
}
