// Package config loads the optional per-project .zopescan.yaml file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// FileName is the project file looked up in the indexed root.
const FileName = ".zopescan.yaml"

// Config holds project settings. Zero values mean "use the default".
type Config struct {
	// Exclude lists doublestar globs, relative to the indexed root, of
	// files and directories to skip.
	Exclude []string `yaml:"exclude"`

	// Workers bounds the parallel parse pool. 0 selects GOMAXPROCS.
	Workers int `yaml:"workers"`

	// InterfaceRoots are extra full names treated as interface roots in
	// addition to the zope and twisted ones.
	InterfaceRoots []string `yaml:"interface_roots"`

	// TestSegment overrides the ".test." marker for test code. Nil keeps
	// the default; an explicit empty string disables test filtering.
	TestSegment *string `yaml:"test_segment"`
}

// Load reads and validates the YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML config data. Unknown keys are rejected and an empty
// document yields an empty Config.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Find loads FileName from dir. A missing file yields an empty Config.
func Find(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	return cfg, err
}

// Validate checks value ranges and exclude pattern syntax.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must not be negative, got %d", c.Workers)
	}
	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("config: invalid exclude pattern %q", pattern)
		}
	}
	return nil
}

// Merge overlays non-zero fields of other onto a copy of c.
func (c *Config) Merge(other *Config) *Config {
	out := *c
	out.Exclude = append(append([]string(nil), c.Exclude...), other.Exclude...)
	out.InterfaceRoots = append(append([]string(nil), c.InterfaceRoots...), other.InterfaceRoots...)
	if other.Workers != 0 {
		out.Workers = other.Workers
	}
	if other.TestSegment != nil {
		out.TestSegment = other.TestSegment
	}
	return &out
}
