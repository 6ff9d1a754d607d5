// Package config loads and validates the workspace configuration that
// drives a run: workspace root, project list, path-alias map, and
// ignored paths, read from a YAML file at the workspace root.
//
// Unlike the teacher's package-global Load-into-singleton style, this
// loader is instance-based: the core must be able to run against more
// than one workspace per process, which a singleton would prevent.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ConfigInvalid wraps a validation failure on a decoded Config.
type ConfigInvalid struct {
	Err error
}

func (e *ConfigInvalid) Error() string { return fmt.Sprintf("config invalid: %v", e.Err) }
func (e *ConfigInvalid) Unwrap() error { return e.Err }

// Project is one workspace project as declared in affected.yaml.
type Project struct {
	Name        string   `yaml:"name" validate:"required"`
	RootPath    string   `yaml:"root_path" validate:"required"`
	SourceGlobs []string `yaml:"source_globs" validate:"required,min=1"`

	// ImplicitDependencies names other projects this one depends on
	// without any import edge the Reference Finder could discover — a
	// build-time shell-out or an on-disk artifact dependency, say. When
	// one of these is affected, this project is marked affected too.
	ImplicitDependencies []string `yaml:"implicit_dependencies"`
}

// Config is the decoded, validated contents of affected.yaml.
type Config struct {
	WorkspaceRoot string            `yaml:"workspace_root" validate:"required"`
	Projects      []Project         `yaml:"projects" validate:"required,min=1,dive"`
	AliasMap      map[string]string `yaml:"alias_map"`
	IgnoredPaths  []string          `yaml:"ignored_paths"`
}

// DefaultConfig returns an empty but structurally valid starting point,
// for first-run scaffolding.
func DefaultConfig(workspaceRoot string) Config {
	return Config{
		WorkspaceRoot: workspaceRoot,
		Projects:      []Project{},
		AliasMap:      map[string]string{},
		IgnoredPaths:  []string{"node_modules", "dist", "build", ".git"},
	}
}

var validate = validator.New()

// Load reads and validates affected.yaml from path. Unlike the teacher's
// loader, it never scaffolds a default file on disk — callers that want
// first-run behavior call WriteDefault explicitly.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return &ConfigInvalid{Err: err}
	}
	root := filepath.Clean(cfg.WorkspaceRoot)
	for _, p := range cfg.Projects {
		rp := filepath.Clean(p.RootPath)
		if rp != root && !strings.HasPrefix(rp, root+string(filepath.Separator)) {
			return &ConfigInvalid{Err: fmt.Errorf(
				"project %q root_path %q is not beneath workspace_root %q", p.Name, p.RootPath, cfg.WorkspaceRoot)}
		}
	}
	return nil
}

// WriteDefault scaffolds a default affected.yaml at path if one does not
// already exist.
func WriteDefault(path, workspaceRoot string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: creating %s: %w", dir, err)
	}
	data, err := yaml.Marshal(DefaultConfig(workspaceRoot))
	if err != nil {
		return fmt.Errorf("config: marshaling default: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
