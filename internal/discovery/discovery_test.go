package discovery_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutian-oss/trueaffected/internal/discovery"
	"github.com/aleutian-oss/trueaffected/internal/vfs"
)

func TestIsWorkspace_NpmWorkspacesField(t *testing.T) {
	fs := vfs.NewMapFS(map[string]string{
		"/ws/package.json": `{"name":"root","workspaces":["libs/*"]}`,
	})

	assert.True(t, discovery.IsWorkspace(fs, "/ws"))
}

func TestIsWorkspace_PnpmWorkspaceYaml(t *testing.T) {
	fs := vfs.NewMapFS(map[string]string{
		"/ws/pnpm-workspace.yaml": "packages:\n  - libs/*\n",
	})

	assert.True(t, discovery.IsWorkspace(fs, "/ws"))
}

func TestIsWorkspace_PlainPackageIsNot(t *testing.T) {
	fs := vfs.NewMapFS(map[string]string{
		"/ws/package.json": `{"name":"standalone"}`,
	})

	assert.False(t, discovery.IsWorkspace(fs, "/ws"))
}

func TestDiscover_NpmWorkspacesExpandsGlobs(t *testing.T) {
	fs := vfs.NewMapFS(map[string]string{
		"/ws/package.json":           `{"name":"root","workspaces":["libs/*"]}`,
		"/ws/libs/a/package.json":    `{"name":"a"}`,
		"/ws/libs/b/package.json":    `{"name":"b"}`,
		"/ws/libs/a/node_modules/c/package.json": `{"name":"c"}`,
	})

	projects, err := discovery.Discover(fs, "/ws")

	require.NoError(t, err)
	names := []string{}
	for _, p := range projects {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}

func TestDiscover_PnpmWorkspaceYamlTakesPrecedence(t *testing.T) {
	fs := vfs.NewMapFS(map[string]string{
		"/ws/pnpm-workspace.yaml":   "packages:\n  - packages/*\n",
		"/ws/package.json":         `{"name":"root","workspaces":["ignored/*"]}`,
		"/ws/packages/x/package.json": `{"name":"x"}`,
	})

	projects, err := discovery.Discover(fs, "/ws")

	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "x", projects[0].Name)
	assert.Equal(t, discovery.DefaultSourceGlobs, projects[0].SourceGlobs)
}
