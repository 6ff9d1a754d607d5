package orchestrator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutian-oss/trueaffected/internal/orchestrator"
	"github.com/aleutian-oss/trueaffected/internal/resolver"
	"github.com/aleutian-oss/trueaffected/internal/vfs"
	"github.com/aleutian-oss/trueaffected/internal/workspace"
)

func newOrchestrator(files map[string]string, projects []workspace.Project) *orchestrator.Orchestrator {
	fs := vfs.NewMapFS(files)
	res := resolver.New(fs, "/ws", nil)
	return orchestrator.New(fs, "/ws", res, projects)
}

func modifiedDiff(path, oldLine, newLine string) string {
	return "diff --git a" + path + " b" + path + "\n" +
		"--- a" + path + "\n" +
		"+++ b" + path + "\n" +
		"@@ -1,1 +1,1 @@\n" +
		"-" + oldLine + "\n" +
		"+" + newLine + "\n"
}

func TestRun_ChangeInLibraryAffectsDownstreamProject(t *testing.T) {
	files := map[string]string{
		"/ws/libA/src/util.ts": "export function format(x) { return x }\n",
		"/ws/libB/src/main.ts": "import { format } from '../../libA/src/util'\n",
	}
	projects := []workspace.Project{
		{Name: "libA", RootPath: "/ws/libA", SourceGlobs: []string{"**/*.ts"}},
		{Name: "libB", RootPath: "/ws/libB", SourceGlobs: []string{"**/*.ts"}},
	}
	orch := newOrchestrator(files, projects)

	diff := modifiedDiff("/libA/src/util.ts",
		"export function format(x) { return x }",
		"export function format(x) { return x.trim() }")

	result, err := orch.Run(context.Background(), diff)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"libA", "libB"}, result.AffectedProjects)
	assert.False(t, result.Truncated)
}

func TestRun_UnrelatedSymbolChangeDoesNotAffectImporter(t *testing.T) {
	files := map[string]string{
		"/ws/libA/src/util.ts": "export function parse(x) { return x }\nexport function format(x) { return x }\n",
		"/ws/libB/src/main.ts": "import { format } from '../../libA/src/util'\n",
	}
	projects := []workspace.Project{
		{Name: "libA", RootPath: "/ws/libA", SourceGlobs: []string{"**/*.ts"}},
		{Name: "libB", RootPath: "/ws/libB", SourceGlobs: []string{"**/*.ts"}},
	}
	orch := newOrchestrator(files, projects)

	diff := modifiedDiff("/libA/src/util.ts",
		"export function parse(x) { return x }",
		"export function parse(x) { return x.trim() }")

	result, err := orch.Run(context.Background(), diff)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"libA"}, result.AffectedProjects)
}

func TestRun_EmptyDiffAffectsNothing(t *testing.T) {
	files := map[string]string{
		"/ws/libA/src/util.ts": "export function format(x) { return x }\n",
	}
	projects := []workspace.Project{{Name: "libA", RootPath: "/ws/libA", SourceGlobs: []string{"**/*.ts"}}}
	orch := newOrchestrator(files, projects)

	result, err := orch.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, result.AffectedProjects)
}

func TestRun_DeletedFileSeedsEveryPreviousExport(t *testing.T) {
	files := map[string]string{
		"/ws/libA/src/util.ts": "export function format(x) { return x }\n",
		"/ws/libB/src/main.ts": "import { format } from '../../libA/src/util'\n",
	}
	projects := []workspace.Project{
		{Name: "libA", RootPath: "/ws/libA", SourceGlobs: []string{"**/*.ts"}},
		{Name: "libB", RootPath: "/ws/libB", SourceGlobs: []string{"**/*.ts"}},
	}
	orch := newOrchestrator(files, projects)

	diff := "diff --git a/libA/src/util.ts b/libA/src/util.ts\n" +
		"deleted file mode 100644\n" +
		"--- a/libA/src/util.ts\n" +
		"+++ /dev/null\n" +
		"@@ -1,1 +0,0 @@\n" +
		"-export function format(x) { return x }\n"

	result, err := orch.Run(context.Background(), diff)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"libA", "libB"}, result.AffectedProjects)
}

func TestRun_NewFileFansOutOnEveryExport(t *testing.T) {
	files := map[string]string{
		"/ws/libA/src/util.ts": "export function format(x) { return x }\n",
		"/ws/libB/src/main.ts": "import { format } from '../../libA/src/util'\n",
	}
	projects := []workspace.Project{
		{Name: "libA", RootPath: "/ws/libA", SourceGlobs: []string{"**/*.ts"}},
		{Name: "libB", RootPath: "/ws/libB", SourceGlobs: []string{"**/*.ts"}},
	}
	orch := newOrchestrator(files, projects)

	diff := "diff --git a/libA/src/util.ts b/libA/src/util.ts\n" +
		"new file mode 100644\n" +
		"--- /dev/null\n" +
		"+++ b/libA/src/util.ts\n" +
		"@@ -0,0 +1,1 @@\n" +
		"+export function format(x) { return x }\n"

	result, err := orch.Run(context.Background(), diff)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"libA", "libB"}, result.AffectedProjects)
}

func TestRun_ChangedFileWithParseFailureSeedsModuleSentinel(t *testing.T) {
	files := map[string]string{
		"/ws/libA/src/util.ts": "export function broken( {{{",
		"/ws/libB/src/main.ts": "import { format } from '../../libA/src/util'\n",
	}
	projects := []workspace.Project{
		{Name: "libA", RootPath: "/ws/libA", SourceGlobs: []string{"**/*.ts"}},
		{Name: "libB", RootPath: "/ws/libB", SourceGlobs: []string{"**/*.ts"}},
	}
	orch := newOrchestrator(files, projects)

	diff := modifiedDiff("/libA/src/util.ts",
		"export function format(x) { return x }",
		"export function broken( {{{")

	result, err := orch.Run(context.Background(), diff)
	require.NoError(t, err)
	require.NotEmpty(t, result.Index.Diagnostics.ParseFailures)
	assert.ElementsMatch(t, []string{"libA", "libB"}, result.AffectedProjects)
}

func TestRun_RenameSeedsOldPathImportersAndNewPathImporters(t *testing.T) {
	files := map[string]string{
		"/ws/libA/src/old.ts": "export function format(x) { return x }\n",
		"/ws/libA/src/new.ts": "export function format(x) { return x }\n",
		"/ws/libB/src/main.ts": "import { format } from '../../libA/src/old'\n",
		"/ws/libC/src/main.ts": "import { format } from '../../libA/src/new'\n",
	}
	projects := []workspace.Project{
		{Name: "libA", RootPath: "/ws/libA", SourceGlobs: []string{"**/*.ts"}},
		{Name: "libB", RootPath: "/ws/libB", SourceGlobs: []string{"**/*.ts"}},
		{Name: "libC", RootPath: "/ws/libC", SourceGlobs: []string{"**/*.ts"}},
	}
	orch := newOrchestrator(files, projects)

	diff := "diff --git a/libA/src/old.ts b/libA/src/new.ts\n" +
		"similarity index 100%\n" +
		"rename from libA/src/old.ts\n" +
		"rename to libA/src/new.ts\n"

	result, err := orch.Run(context.Background(), diff)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"libA", "libB", "libC"}, result.AffectedProjects)
}

func TestRun_ImplicitDependencyPropagatesWithoutImportEdge(t *testing.T) {
	files := map[string]string{
		"/ws/lib1/src/util.ts": "export function format(x) { return x }\n",
	}
	projects := []workspace.Project{
		{Name: "lib1", RootPath: "/ws/lib1", SourceGlobs: []string{"**/*.ts"}},
		{Name: "app", RootPath: "/ws/app", SourceGlobs: []string{"**/*.ts"}, ImplicitDependencies: []string{"lib1"}},
	}
	orch := newOrchestrator(files, projects)

	diff := modifiedDiff("/lib1/src/util.ts",
		"export function format(x) { return x }",
		"export function format(x) { return x.trim() }")

	result, err := orch.Run(context.Background(), diff)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"lib1", "app"}, result.AffectedProjects)
}

func TestRun_NilContextErrors(t *testing.T) {
	orch := newOrchestrator(map[string]string{}, nil)
	_, err := orch.Run(nil, "") //nolint:staticcheck // exercising the guard
	assert.Error(t, err)
}
