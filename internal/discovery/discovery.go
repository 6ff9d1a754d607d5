// Package discovery enumerates workspace projects from plain npm/yarn/
// pnpm workspace manifests, producing the {name, root_path, source_globs}
// list the orchestrator's Workspace Analyzer consumes. Nx and Turborepo
// project graphs are not discovered here; that is left to a separate
// discoverer, consistent with the spec's Non-goals.
package discovery

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aleutian-oss/trueaffected/internal/vfs"
)

// DefaultSourceGlobs is applied to every discovered project; npm/yarn/
// pnpm manifests carry no source-glob concept of their own.
var DefaultSourceGlobs = []string{"**/*.ts", "**/*.tsx", "**/*.js", "**/*.jsx", "**/*.mjs", "**/*.cjs"}

// Project is one discovered workspace package.
type Project struct {
	Name        string
	RootPath    string
	SourceGlobs []string
}

type pnpmWorkspace struct {
	Packages []string `yaml:"packages"`
}

type packageJSON struct {
	Name       string      `json:"name"`
	Workspaces interface{} `json:"workspaces"`
}

// IsWorkspace reports whether root looks like an npm/yarn/pnpm workspace
// root: a pnpm-workspace.yaml, or a package.json declaring "workspaces".
func IsWorkspace(fs vfs.FS, root string) bool {
	if exists, _ := fs.Stat(filepath.Join(root, "pnpm-workspace.yaml")); exists {
		return true
	}
	patterns, _ := packageJSONWorkspaces(fs, root)
	return len(patterns) > 0
}

// Discover returns every workspace project beneath root.
func Discover(fs vfs.FS, root string) ([]Project, error) {
	patterns, err := workspacePatterns(fs, root)
	if err != nil {
		return nil, fmt.Errorf("discovery: reading workspace patterns: %w", err)
	}

	var projects []Project
	for _, pattern := range patterns {
		if strings.HasPrefix(pattern, "!") {
			continue
		}
		matches, err := fs.Glob(root, []string{filepath.Join(pattern, "package.json")}, []string{"node_modules"})
		if err != nil {
			return nil, fmt.Errorf("discovery: globbing pattern %q: %w", pattern, err)
		}
		for _, manifestPath := range matches {
			proj, err := parseProjectManifest(fs, manifestPath)
			if err != nil {
				continue
			}
			projects = append(projects, proj)
		}
	}
	return projects, nil
}

func workspacePatterns(fs vfs.FS, root string) ([]string, error) {
	pnpmPath := filepath.Join(root, "pnpm-workspace.yaml")
	if exists, _ := fs.Stat(pnpmPath); exists {
		content, err := fs.ReadFile(pnpmPath)
		if err != nil {
			return nil, err
		}
		var ws pnpmWorkspace
		if err := yaml.Unmarshal(content, &ws); err != nil {
			return nil, fmt.Errorf("parsing pnpm-workspace.yaml: %w", err)
		}
		return ws.Packages, nil
	}
	return packageJSONWorkspaces(fs, root)
}

func packageJSONWorkspaces(fs vfs.FS, root string) ([]string, error) {
	pkgPath := filepath.Join(root, "package.json")
	exists, _ := fs.Stat(pkgPath)
	if !exists {
		return nil, nil
	}
	content, err := fs.ReadFile(pkgPath)
	if err != nil {
		return nil, err
	}
	var pkg packageJSON
	if err := json.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("parsing package.json: %w", err)
	}
	return workspacesField(pkg.Workspaces), nil
}

// workspacesField normalizes the "workspaces" field, which npm allows as
// either a bare array or an object with a "packages" array (yarn's
// nohoist form).
func workspacesField(raw interface{}) []string {
	switch v := raw.(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case map[string]interface{}:
		if packages, ok := v["packages"].([]interface{}); ok {
			out := make([]string, 0, len(packages))
			for _, item := range packages {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
			return out
		}
	}
	return nil
}

func parseProjectManifest(fs vfs.FS, manifestPath string) (Project, error) {
	content, err := fs.ReadFile(manifestPath)
	if err != nil {
		return Project{}, err
	}
	var pkg packageJSON
	if err := json.Unmarshal(content, &pkg); err != nil {
		return Project{}, fmt.Errorf("parsing %s: %w", manifestPath, err)
	}
	return Project{
		Name:        pkg.Name,
		RootPath:    filepath.Dir(manifestPath),
		SourceGlobs: DefaultSourceGlobs,
	}, nil
}
