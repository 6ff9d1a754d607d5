package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/aleutian-oss/trueaffected/internal/vcsdriver"
)

var (
	flagWatchDebounceMs int
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the affected check on every source change",
	Long: `watch recursively watches the workspace root and re-runs check against
the working tree every time a debounce window passes with no further
changes, printing the refreshed set of affected projects on every run.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&flagWatchDebounceMs, "debounce", 300,
		"milliseconds to wait for more changes before re-running")
}

// watchIgnorePatterns mirrors the ignored-path fragments a workspace
// config already carries, plus the directories no editor write ever
// needs watching inside.
var watchIgnorePatterns = []string{".git", "node_modules", "dist", "build"}

func runWatch(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(flagConfigPath)
	if err != nil {
		os.Exit(exitWithError(flagJSON, "loading configuration", err))
		return nil
	}
	defer rt.close()

	driver := vcsdriver.New(rt.cfg.WorkspaceRoot)
	if !driver.IsGitRepo() {
		os.Exit(exitWithError(flagJSON, "not a git repository", nil))
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		os.Exit(exitWithError(flagJSON, "starting filesystem watcher", err))
		return nil
	}
	defer watcher.Close()

	if err := addRecursive(watcher, rt.cfg.WorkspaceRoot); err != nil {
		os.Exit(exitWithError(flagJSON, "watching workspace root", err))
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Progress-line logging is throttled independently of the debounce
	// window: the "source change detected" line is logged at most once per
	// second, however many debounced re-runs fire in that time.
	limiter := rate.NewLimiter(rate.Every(time.Second), 1)

	rt.logger.Info("watching for changes", "root", rt.cfg.WorkspaceRoot)
	runOnce(ctx, rt, driver)

	var timer *time.Timer
	var timerC <-chan time.Time
	debounce := time.Duration(flagWatchDebounceMs) * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			rt.logger.Info("stopping watch")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if shouldIgnoreWatchPath(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if limiter.Allow() {
				rt.logger.Info("source change detected, re-running")
			}
			runOnce(ctx, rt, driver)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			rt.logger.Warn("watcher error", "error", err)
		}
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if shouldIgnoreWatchPath(path) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func shouldIgnoreWatchPath(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range watchIgnorePatterns {
		if base == pattern || strings.Contains(path, string(filepath.Separator)+pattern+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func runOnce(ctx context.Context, rt *runtime, driver *vcsdriver.Driver) {
	runCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	diffText, err := driver.Diff(runCtx, vcsdriver.ModeWorkingTree, "")
	if err != nil {
		rt.logger.Error("reading diff", "error", err)
		return
	}

	result, err := rt.orch.Run(runCtx, diffText)
	if err != nil {
		rt.logger.Error("running analysis", "error", err)
		return
	}

	if len(result.AffectedProjects) == 0 {
		fmt.Println("(no affected projects)")
		return
	}
	fmt.Println(strings.Join(result.AffectedProjects, ", "))
}
