package vcsdriver_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutian-oss/trueaffected/internal/vcsdriver"
)

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoErrorf(t, err, "git %v: %s", args, out)
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.ts"), []byte("export const a = 1\n"), 0o644))
	run("add", ".")
	run("commit", "-q", "-m", "initial")
	return dir
}

func TestIsGitRepo(t *testing.T) {
	dir := initRepo(t)
	d := vcsdriver.New(dir)
	assert.True(t, d.IsGitRepo())
}

func TestIsGitRepo_FalseOutsideRepo(t *testing.T) {
	d := vcsdriver.New(t.TempDir())
	assert.False(t, d.IsGitRepo())
}

func TestDiff_WorkingTreeShowsUnstagedChange(t *testing.T) {
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.ts"), []byte("export const a = 2\n"), 0o644))

	d := vcsdriver.New(dir)
	diff, err := d.Diff(context.Background(), vcsdriver.ModeWorkingTree, "")

	require.NoError(t, err)
	assert.Contains(t, diff, "a.ts")
	assert.Contains(t, diff, "+export const a = 2")
}

func TestDiff_BranchModeUnknownRefErrors(t *testing.T) {
	dir := initRepo(t)
	d := vcsdriver.New(dir)

	_, err := d.Diff(context.Background(), vcsdriver.ModeBranch, "nonexistent-branch")

	assert.Error(t, err)
}

func TestDiff_UnknownModeErrors(t *testing.T) {
	dir := initRepo(t)
	d := vcsdriver.New(dir)

	_, err := d.Diff(context.Background(), vcsdriver.Mode("bogus"), "")

	assert.Error(t, err)
}
