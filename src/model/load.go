// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a configuration from a JSON or YAML file, chosen by extension.
// Property names are interpreted according to policy.
func LoadFile(path string, policy NamingPolicy) (*Config, error) {
	data, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := Unmarshal(data, cfg, policy); err != nil {
		return nil, fmt.Errorf("model: parse config: %w", err)
	}
	return cfg, nil
}

// ReadDocument reads a JSON or YAML configuration file, chosen by extension, and
// returns it as JSON. Property names are left as written.
func ReadDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if data, err = yamlToJSON(data); err != nil {
			return nil, fmt.Errorf("model: parse YAML config: %w", err)
		}
	case ".json", "":
	default:
		return nil, fmt.Errorf("model: unsupported config file extension %q", filepath.Ext(path))
	}
	return data, nil
}

// yamlToJSON converts a YAML document into the equivalent JSON so that it goes
// through the same naming policy and decoding as JSON input.
func yamlToJSON(data []byte) ([]byte, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	return json.Marshal(jsonCompatible(tree))
}

func jsonCompatible(node any) any {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			n[k] = jsonCompatible(v)
		}
		return n
	case map[any]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[fmt.Sprint(k)] = jsonCompatible(v)
		}
		return out
	case []any:
		for i, v := range n {
			n[i] = jsonCompatible(v)
		}
		return n
	default:
		return node
	}
}
