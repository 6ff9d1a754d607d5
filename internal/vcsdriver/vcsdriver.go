// Package vcsdriver produces the unified diff text the Diff Reader
// consumes, by shelling out to git.
package vcsdriver

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Mode selects which comparison git should produce a diff for.
type Mode string

const (
	ModeWorkingTree Mode = "diff"
	ModeStaged      Mode = "staged"
	ModeCommit      Mode = "commit"
	ModeBranch      Mode = "branch"
)

// Driver runs git commands scoped to one working directory.
//
// # Thread Safety
//
// Driver is safe for concurrent use; it holds no mutable state beyond
// the working directory path.
type Driver struct {
	workDir string
}

// New creates a Driver for the given working directory.
//
// # Inputs
//
//   - workDir: a workspace root, or any directory inside a git
//     repository. Not validated until the first git command runs.
//
// # Outputs
//
//   - *Driver: ready for IsGitRepo/Diff/MergeBase.
func New(workDir string) *Driver {
	return &Driver{workDir: workDir}
}

// IsGitRepo reports whether workDir is inside a git repository.
//
// # Outputs
//
//   - bool: true if `git rev-parse --git-dir` succeeds in workDir.
func (d *Driver) IsGitRepo() bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = d.workDir
	return cmd.Run() == nil
}

// Diff returns the unified diff text for the requested mode.
//
// # Inputs
//
//   - ctx: context for cancellation, passed to the underlying git process.
//   - mode: which comparison to run (working tree, staged, a commit, or
//     against a branch's merge base).
//   - commitOrBranch: the commit hash for ModeCommit, or the base branch
//     for ModeBranch; ignored for the other modes.
//
// # Outputs
//
//   - string: the unified diff text, in the format the Diff Reader
//     expects as input.
//   - error: non-nil if mode is unrecognized, a required
//     commitOrBranch is missing, or the underlying git command fails.
func (d *Driver) Diff(ctx context.Context, mode Mode, commitOrBranch string) (string, error) {
	var args []string
	switch mode {
	case ModeWorkingTree:
		args = []string{"diff", "HEAD"}
	case ModeStaged:
		args = []string{"diff", "--cached"}
	case ModeCommit:
		if commitOrBranch == "" {
			return "", fmt.Errorf("vcsdriver: commit hash required for commit mode")
		}
		args = []string{"show", "--format=", commitOrBranch}
	case ModeBranch:
		if commitOrBranch == "" {
			return "", fmt.Errorf("vcsdriver: base branch required for branch mode")
		}
		if err := d.verifyRef(ctx, commitOrBranch); err != nil {
			return "", err
		}
		args = []string{"diff", commitOrBranch + "...HEAD"}
	default:
		return "", fmt.Errorf("vcsdriver: unknown mode %q", mode)
	}
	return d.run(ctx, args)
}

func (d *Driver) verifyRef(ctx context.Context, ref string) error {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--verify", ref)
	cmd.Dir = d.workDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("vcsdriver: ref %q not found: %w: %s", ref, err, stderr.String())
	}
	return nil
}

func (d *Driver) run(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = d.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("vcsdriver: git %s: %w: %s", strings.Join(args, " "), err, stderr.String())
	}
	return stdout.String(), nil
}

// MergeBase returns the merge base between HEAD and branch.
//
// # Inputs
//
//   - ctx: context for cancellation.
//   - branch: the branch to compare against HEAD.
//
// # Outputs
//
//   - string: the merge-base commit hash, with trailing whitespace trimmed.
//   - error: non-nil if branch does not resolve to a ref.
func (d *Driver) MergeBase(ctx context.Context, branch string) (string, error) {
	out, err := d.run(ctx, []string{"merge-base", branch, "HEAD"})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
