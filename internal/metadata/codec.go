package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type codec interface {
	decode(data []byte) (Metadata, error)
	encode(m Metadata) ([]byte, error)
}

func codecFor(path string) (codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", "":
		return jsonCodec{}, nil
	case ".yaml", ".yml":
		return yamlCodec{}, nil
	case ".toml":
		return tomlCodec{}, nil
	default:
		return nil, fmt.Errorf("metadata: unsupported file extension %q", filepath.Ext(path))
	}
}

type jsonCodec struct{}

func (jsonCodec) decode(data []byte) (Metadata, error) {
	var m Metadata
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

func (jsonCodec) encode(m Metadata) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

type yamlCodec struct{}

func (yamlCodec) decode(data []byte) (Metadata, error) {
	var m Metadata
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (yamlCodec) encode(m Metadata) ([]byte, error) {
	return yaml.Marshal(map[string]any(m))
}

type tomlCodec struct{}

func (tomlCodec) decode(data []byte) (Metadata, error) {
	var m Metadata
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (tomlCodec) encode(m Metadata) ([]byte, error) {
	return toml.Marshal(map[string]any(m))
}
