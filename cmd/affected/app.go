package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aleutian-oss/trueaffected/internal/cache"
	"github.com/aleutian-oss/trueaffected/internal/config"
	"github.com/aleutian-oss/trueaffected/internal/orchestrator"
	"github.com/aleutian-oss/trueaffected/internal/resolver"
	"github.com/aleutian-oss/trueaffected/internal/vfs"
	"github.com/aleutian-oss/trueaffected/internal/workspace"
	"github.com/aleutian-oss/trueaffected/pkg/logging"
)

// runtime bundles everything a subcommand needs to build and run an
// Orchestrator against the loaded configuration.
type runtime struct {
	cfg    *config.Config
	fs     vfs.FS
	logger *logging.Logger
	orch   *orchestrator.Orchestrator
	cache  *cache.Cache
}

// newRuntime loads configPath, validates it, and wires the resolver and
// orchestrator over the real OS filesystem. When flagCacheDir is set, a
// badger-backed parse lookaside (internal/cache) is opened and attached,
// per the spec's Incrementality note; flagCacheDir == "" leaves every run a
// cold, from-scratch parse.
func newRuntime(configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		Service: "affected",
	})

	fs := vfs.NewOSFS()
	res := resolver.New(fs, filepath.Clean(cfg.WorkspaceRoot), cfg.AliasMap)

	projects := make([]workspace.Project, 0, len(cfg.Projects))
	for _, p := range cfg.Projects {
		projects = append(projects, workspace.Project{
			Name:                 p.Name,
			RootPath:             p.RootPath,
			SourceGlobs:          p.SourceGlobs,
			ImplicitDependencies: p.ImplicitDependencies,
		})
	}

	opts := []orchestrator.Option{orchestrator.WithLogger(logger.Slog())}

	var parseCache *cache.Cache
	if flagCacheDir != "" {
		parseCache, err = cache.Open(flagCacheDir)
		if err != nil {
			return nil, fmt.Errorf("opening parse cache: %w", err)
		}
		opts = append(opts, orchestrator.WithCache(parseCache))
	}

	orch := orchestrator.New(fs, cfg.WorkspaceRoot, res, projects, opts...)

	return &runtime{cfg: cfg, fs: fs, logger: logger, orch: orch, cache: parseCache}, nil
}

func (rt *runtime) close() {
	if rt.cache != nil {
		rt.cache.Close()
	}
	rt.logger.Close()
}

// exitWithError prints msg (plus err, if any) to stderr, as JSON when
// jsonOutput is set, and returns the exit code the caller should use.
func exitWithError(jsonOutput bool, msg string, err error) int {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	if jsonOutput {
		enc := json.NewEncoder(os.Stderr)
		enc.SetIndent("", "  ")
		enc.Encode(map[string]string{"error": msg})
	} else {
		fmt.Fprintln(os.Stderr, "Error:", msg)
	}
	return exitInternal
}
