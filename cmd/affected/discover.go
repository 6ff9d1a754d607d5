package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aleutian-oss/trueaffected/internal/config"
	"github.com/aleutian-oss/trueaffected/internal/discovery"
	"github.com/aleutian-oss/trueaffected/internal/vfs"
)

var (
	flagDiscoverRoot  string
	flagDiscoverWrite bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Print the workspace's discovered npm/yarn/pnpm projects",
	Long: `discover enumerates the projects of a plain npm/yarn/pnpm workspace
(a root package.json "workspaces" field, or a pnpm-workspace.yaml) and
prints the {name, root_path, source_globs} list the core's orchestrator
consumes.

Nx and Turborepo workspaces are not discovered here; feed their own
project graph into an affected.yaml by hand instead.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringVar(&flagDiscoverRoot, "root", ".", "workspace root to scan")
	discoverCmd.Flags().BoolVar(&flagDiscoverWrite, "write", false,
		"write the discovered projects into --config instead of printing them")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	root, err := absWorkspaceRoot(flagDiscoverRoot)
	if err != nil {
		os.Exit(exitWithError(flagJSON, "resolving workspace root", err))
		return nil
	}

	fs := vfs.NewOSFS()
	if !discovery.IsWorkspace(fs, root) {
		os.Exit(exitWithError(flagJSON, "not an npm/yarn/pnpm workspace root", fmt.Errorf("%s", root)))
		return nil
	}

	projects, err := discovery.Discover(fs, root)
	if err != nil {
		os.Exit(exitWithError(flagJSON, "discovering projects", err))
		return nil
	}

	if flagDiscoverWrite {
		if err := writeDiscoveredConfig(root, projects); err != nil {
			os.Exit(exitWithError(flagJSON, "writing configuration", err))
			return nil
		}
		fmt.Printf("wrote %d project(s) to %s\n", len(projects), flagConfigPath)
		os.Exit(exitSuccess)
		return nil
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(projects)
	} else {
		for _, p := range projects {
			fmt.Printf("%-30s %s\n", p.Name, p.RootPath)
		}
	}
	os.Exit(exitSuccess)
	return nil
}

func absWorkspaceRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	return filepath.Abs(root)
}

func writeDiscoveredConfig(root string, discovered []discovery.Project) error {
	cfg := config.DefaultConfig(root)
	for _, d := range discovered {
		cfg.Projects = append(cfg.Projects, config.Project{
			Name:        d.Name,
			RootPath:    d.RootPath,
			SourceGlobs: d.SourceGlobs,
		})
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(flagConfigPath, data, 0o644)
}
