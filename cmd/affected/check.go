package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/aleutian-oss/trueaffected/internal/orchestrator"
	"github.com/aleutian-oss/trueaffected/internal/reference"
	"github.com/aleutian-oss/trueaffected/internal/report"
	"github.com/aleutian-oss/trueaffected/internal/vcsdriver"
	"github.com/aleutian-oss/trueaffected/internal/workspace"
)

var (
	flagStaged     bool
	flagBranch     string
	flagCommit     string
	flagTimeoutSec int
	flagFormat     string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Analyze a diff and print the affected projects",
	Long: `check computes the set of workspace projects affected by a diff.

Change detection modes (default: working tree against HEAD):
  check                  uncommitted changes
  check --staged         staged index only
  check --branch main    changes since the merge base with main
  check --commit <sha>   a single commit`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&flagStaged, "staged", false, "analyze the staged index (git diff --cached)")
	checkCmd.Flags().StringVar(&flagBranch, "branch", "", "analyze changes since the merge base with this branch")
	checkCmd.Flags().StringVar(&flagCommit, "commit", "", "analyze a single commit")
	checkCmd.Flags().IntVar(&flagTimeoutSec, "timeout", 120, "run timeout in seconds")
	checkCmd.Flags().StringVar(&flagFormat, "format", "summary", "text report detail: summary, full")
}

func runCheck(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(flagConfigPath)
	if err != nil {
		os.Exit(exitWithError(flagJSON, "loading configuration", err))
		return nil
	}
	defer rt.close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(flagTimeoutSec)*time.Second)
	defer cancel()

	driver := vcsdriver.New(rt.cfg.WorkspaceRoot)
	if !driver.IsGitRepo() {
		os.Exit(exitWithError(flagJSON, "not a git repository", nil))
		return nil
	}

	mode, ref, err := resolveMode()
	if err != nil {
		os.Exit(exitWithError(flagJSON, "resolving change mode", err))
		return nil
	}

	diffText, err := driver.Diff(ctx, mode, ref)
	if err != nil {
		os.Exit(exitWithError(flagJSON, "reading diff", err))
		return nil
	}
	return runAndReport(ctx, rt, diffText)
}

// resolveMode determines which single change-detection mode the flags
// select, rejecting an ambiguous combination.
func resolveMode() (vcsdriver.Mode, string, error) {
	count := 0
	mode := vcsdriver.ModeWorkingTree
	var ref string

	if flagStaged {
		mode, count = vcsdriver.ModeStaged, count+1
	}
	if flagBranch != "" {
		mode, ref, count = vcsdriver.ModeBranch, flagBranch, count+1
	}
	if flagCommit != "" {
		mode, ref, count = vcsdriver.ModeCommit, flagCommit, count+1
	}
	if count > 1 {
		return "", "", fmt.Errorf("only one of --staged, --branch, --commit may be given")
	}
	return mode, ref, nil
}

func runAndReport(ctx context.Context, rt *runtime, diffText string) error {
	result, err := rt.orch.Run(ctx, diffText)
	if err != nil {
		os.Exit(exitWithError(flagJSON, "running analysis", err))
		return nil
	}

	rep := reportFromResult(result)

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			os.Exit(exitWithError(false, "encoding report", err))
			return nil
		}
	} else {
		printTextReport(rep, flagFormat)
	}

	os.Exit(exitSuccess)
	return nil
}

func reportFromResult(result *orchestrator.Result) report.Report {
	var diag workspace.Diagnostics
	if result.Index != nil {
		diag = result.Index.Diagnostics
	}
	ref := result.Reference
	if ref == nil {
		ref = &reference.Result{AffectedFiles: map[string]struct{}{}, Chains: map[string]reference.Chain{}}
	}
	rep := report.New(result.AffectedProjects, ref, diag, time.Duration(result.DurationMs)*time.Millisecond)
	rep.RunID = result.RunID
	rep.Truncated = result.Truncated
	rep.Warnings = result.Warnings
	for _, w := range result.ProjectWarnings {
		rep.Diagnostics.OrphanFiles = append(rep.Diagnostics.OrphanFiles, w.File)
	}
	return rep
}

// isTerminal reports whether stdout is an interactive terminal, so
// printTextReport can drop the banner rule on a plain pipe or log file.
func isTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func printTextReport(rep report.Report, format string) {
	fmt.Println("Affected Projects")
	if isTerminal() {
		fmt.Println(strings.Repeat("=", 40))
	}
	if len(rep.AffectedProjects) == 0 {
		fmt.Println("(none)")
	}
	for _, p := range rep.AffectedProjects {
		fmt.Printf("  %s\n", p)
	}

	if format == "full" && len(rep.Chains) > 0 {
		fmt.Println()
		fmt.Println("Reference chains:")
		for _, c := range rep.Chains {
			fmt.Printf("  %s <- seeded by %s:%s (depth %d)\n", c.File, c.SourceFile, c.SourceSymbol, c.Depth)
		}
	}

	if len(rep.Diagnostics.ParseFailures) > 0 {
		fmt.Println()
		fmt.Println("Parse failures:")
		for _, f := range rep.Diagnostics.ParseFailures {
			fmt.Printf("  %s\n", f)
		}
	}
	if len(rep.Diagnostics.ResolutionFailures) > 0 && format == "full" {
		fmt.Println()
		fmt.Println("Resolution failures:")
		for _, f := range rep.Diagnostics.ResolutionFailures {
			fmt.Printf("  %s\n", f)
		}
	}
	if len(rep.Warnings) > 0 {
		fmt.Println()
		fmt.Println("Warnings:")
		for _, w := range rep.Warnings {
			fmt.Printf("  %s\n", w)
		}
	}

	fmt.Println()
	fmt.Printf("Run %s completed in %dms\n", rep.RunID, rep.DurationMS)
	if rep.Truncated {
		fmt.Println("(diff truncated to the per-run file limit)")
	}
}
