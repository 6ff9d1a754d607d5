package main

import (
	"github.com/spf13/cobra"
)

// Exit codes per the host's CLI harness convention: 0 success, 1 user
// error, 2 internal error.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitInternal  = 2
)

var (
	flagConfigPath string
	flagJSON       bool
	flagCacheDir   string
)

var rootCmd = &cobra.Command{
	Use:   "affected",
	Short: "Detect which workspace projects are affected by a set of code changes",
	Long: `affected computes the set of workspace projects whose behavior could be
influenced by a set of code changes, by statically tracing import/export
edges from the changed symbols out to every transitive importer.

  affected check            analyze the working tree against HEAD
  affected check --staged   analyze the staged index
  affected check --branch main
  affected watch             re-run on every source change
  affected discover          print the workspace's discovered projects`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "affected.yaml",
		"path to the workspace configuration file")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false,
		"output as JSON for scripting")
	rootCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "",
		"directory for a cross-run parse cache keyed by file content hash (disabled if unset)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(discoverCmd)
}
