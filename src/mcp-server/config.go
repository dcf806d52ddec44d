// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/H0llyW00dzZ/x509-artifact-builder/src/builder"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/crypt"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/internal/stream"
	"github.com/H0llyW00dzZ/x509-artifact-builder/src/model"
)

// configEnv names the variable holding the server configuration file path.
const configEnv = "X509_BUILDER_CONFIG_FILE"

// Defaults applied by loadConfig.
const (
	defaultTimeoutSeconds  = 60
	defaultMaxPayloadBytes = 8 << 20
)

// configFormat represents supported configuration file formats.
type configFormat int

const (
	// configFormatJSON represents JSON configuration format (.json)
	configFormatJSON configFormat = iota
	// configFormatYAML represents YAML configuration format (.yaml, .yml)
	configFormatYAML
)

// Config represents the MCP server configuration structure.
//
// The configuration can be loaded from a JSON or YAML file named by the
// X509_BUILDER_CONFIG_FILE environment variable, with defaults applied for any
// missing values. Supported file extensions: .json, .yaml, .yml
type Config struct {
	// Defaults: Default settings for tool calls
	Defaults struct {
		// NamingPolicy: Property naming of configuration documents exchanged with clients
		NamingPolicy string `json:"namingPolicy" yaml:"namingPolicy"`
		// Cipher: Content cipher of envelopes sealed by encrypt_payload
		Cipher string `json:"cipher" yaml:"cipher"`
		// Timeout: Limit in seconds for a single tool call
		Timeout int `json:"timeoutSeconds" yaml:"timeoutSeconds"`
	} `json:"defaults" yaml:"defaults"`

	// Limits: Resource limits for payloads handled by the server
	Limits struct {
		// MaxPayloadBytes: Largest decoded payload accepted by a tool or read from a slot
		MaxPayloadBytes int64 `json:"maxPayloadBytes" yaml:"maxPayloadBytes"`
		// CacheThreshold: Size above which envelope input is spooled to a temporary file
		CacheThreshold int `json:"cacheThreshold" yaml:"cacheThreshold"`
	} `json:"limits" yaml:"limits"`
}

// policy returns the configured naming policy. loadConfig has validated it.
func (c *Config) policy() model.NamingPolicy {
	p, _ := model.ParseNamingPolicy(c.Defaults.NamingPolicy)
	return p
}

// cipher returns the configured envelope cipher. loadConfig has validated it.
func (c *Config) cipher() crypt.Cipher {
	ci, _ := crypt.ParseCipher(c.Defaults.Cipher)
	return ci
}

func (c *Config) timeout() time.Duration {
	return time.Duration(c.Defaults.Timeout) * time.Second
}

// builderOptions returns the builder settings derived from the limits.
func (c *Config) builderOptions() []builder.Option {
	return []builder.Option{
		builder.WithMaxInput(c.Limits.MaxPayloadBytes),
		builder.WithCipher(c.cipher()),
		builder.WithCacheOptions(stream.WithThreshold(c.Limits.CacheThreshold)),
	}
}

// detectConfigFormat determines the configuration file format based on file extension.
// It supports .json, .yaml, and .yml extensions for flexible configuration management.
func detectConfigFormat(configPath string) configFormat {
	ext := strings.ToLower(filepath.Ext(configPath))
	switch ext {
	case ".yaml", ".yml":
		return configFormatYAML
	default:
		return configFormatJSON
	}
}

// unmarshalConfig unmarshals configuration data based on the specified format.
func unmarshalConfig(data []byte, config *Config, format configFormat) error {
	switch format {
	case configFormatYAML:
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON config file: %w", err)
		}
	}
	return nil
}

// defaultConfig returns the configuration used when no file is given.
func defaultConfig() *Config {
	config := &Config{}
	config.Defaults.NamingPolicy = string(model.CamelCase)
	config.Defaults.Cipher = crypt.AES256CBC.String()
	config.Defaults.Timeout = defaultTimeoutSeconds
	config.Limits.MaxPayloadBytes = defaultMaxPayloadBytes
	config.Limits.CacheThreshold = stream.DefaultCacheThreshold
	return config
}

// loadConfig loads MCP server configuration from a JSON or YAML file or applies defaults.
//
// Configuration Priority:
//  1. Default values are set
//  2. X509_BUILDER_CONFIG_FILE environment variable is checked if configPath is empty
//  3. Config file values override defaults (if file exists and is valid)
//
// Non-positive limits fall back to their defaults. An unknown naming policy or
// cipher is an error.
func loadConfig(configPath string) (*Config, error) {
	config := defaultConfig()

	if configPath == "" {
		configPath = os.Getenv(configEnv)
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := unmarshalConfig(data, config, detectConfigFormat(configPath)); err != nil {
			return nil, err
		}
	}

	if config.Defaults.Timeout <= 0 {
		config.Defaults.Timeout = defaultTimeoutSeconds
	}
	if config.Limits.MaxPayloadBytes <= 0 {
		config.Limits.MaxPayloadBytes = defaultMaxPayloadBytes
	}
	if config.Limits.CacheThreshold <= 0 {
		config.Limits.CacheThreshold = stream.DefaultCacheThreshold
	}
	if config.Defaults.NamingPolicy == "" {
		config.Defaults.NamingPolicy = string(model.CamelCase)
	}
	if config.Defaults.Cipher == "" {
		config.Defaults.Cipher = crypt.AES256CBC.String()
	}

	if _, err := model.ParseNamingPolicy(config.Defaults.NamingPolicy); err != nil {
		return nil, fmt.Errorf("invalid defaults.namingPolicy: %w", err)
	}
	if _, err := crypt.ParseCipher(config.Defaults.Cipher); err != nil {
		return nil, fmt.Errorf("invalid defaults.cipher: %w", err)
	}
	return config, nil
}
