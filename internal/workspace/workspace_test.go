package workspace_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleutian-oss/trueaffected/internal/ast"
	"github.com/aleutian-oss/trueaffected/internal/resolver"
	"github.com/aleutian-oss/trueaffected/internal/vfs"
	"github.com/aleutian-oss/trueaffected/internal/workspace"
)

func buildIndex(t *testing.T, files map[string]string, projects []workspace.Project) *workspace.Index {
	t.Helper()
	fs := vfs.NewMapFS(files)
	res := resolver.New(fs, "/ws", nil)
	analyzer := workspace.New(fs, "/ws", res)
	idx, err := analyzer.Build(context.Background(), projects)
	require.NoError(t, err)
	return idx
}

func TestBuild_ForwardAndInvertedBasicImport(t *testing.T) {
	files := map[string]string{
		"/ws/libA/src/util.ts": "export function format(x) { return x }\nexport function parse(x) { return x }\n",
		"/ws/libB/src/main.ts": "import { format } from '../../libA/src/util'\n",
	}
	projects := []workspace.Project{
		{Name: "A", RootPath: "/ws/libA", SourceGlobs: []string{"**/*.ts"}},
		{Name: "B", RootPath: "/ws/libB", SourceGlobs: []string{"**/*.ts"}},
	}
	idx := buildIndex(t, files, projects)

	importers := idx.Inverted[workspace.IndexKey{File: "/ws/libA/src/util.ts", Symbol: "format"}]
	require.Len(t, importers, 1)
	assert.Equal(t, "/ws/libB/src/main.ts", importers[0].File)
	assert.Equal(t, "format", importers[0].LocalName)

	assert.Empty(t, idx.Inverted[workspace.IndexKey{File: "/ws/libA/src/util.ts", Symbol: "parse"}])
}

func TestBuild_ReexportChain(t *testing.T) {
	files := map[string]string{
		"/ws/libA/src/util.ts":  "export function format(x) { return x }\n",
		"/ws/libA/src/index.ts": "export { format } from './util'\n",
		"/ws/libB/src/main.ts":  "import { format } from '../../libA/src/index'\n",
	}
	projects := []workspace.Project{
		{Name: "A", RootPath: "/ws/libA", SourceGlobs: []string{"**/*.ts"}},
		{Name: "B", RootPath: "/ws/libB", SourceGlobs: []string{"**/*.ts"}},
	}
	idx := buildIndex(t, files, projects)

	toIndex := idx.Inverted[workspace.IndexKey{File: "/ws/libA/src/util.ts", Symbol: "format"}]
	require.Len(t, toIndex, 1)
	assert.Equal(t, "/ws/libA/src/index.ts", toIndex[0].File)

	toLibB := idx.Inverted[workspace.IndexKey{File: "/ws/libA/src/index.ts", Symbol: "format"}]
	require.Len(t, toLibB, 1)
	assert.Equal(t, "/ws/libB/src/main.ts", toLibB[0].File)
}

func TestBuild_StarReexportExpandsExports(t *testing.T) {
	files := map[string]string{
		"/ws/libA/src/util.ts":  "export function format(x) { return x }\nexport function parse(x) { return x }\n",
		"/ws/libA/src/index.ts": "export * from './util'\n",
	}
	projects := []workspace.Project{
		{Name: "A", RootPath: "/ws/libA", SourceGlobs: []string{"**/*.ts"}},
	}
	idx := buildIndex(t, files, projects)

	names := idx.ExportedNames("/ws/libA/src/index.ts")
	assert.ElementsMatch(t, []string{"format", "parse"}, names)
}

func TestBuild_NamespaceImportUsesStarSlot(t *testing.T) {
	files := map[string]string{
		"/ws/libA/src/util.ts": "export function format(x) { return x }\n",
		"/ws/libB/src/main.ts": "import * as U from '../../libA/src/util'\n",
	}
	projects := []workspace.Project{
		{Name: "A", RootPath: "/ws/libA", SourceGlobs: []string{"**/*.ts"}},
		{Name: "B", RootPath: "/ws/libB", SourceGlobs: []string{"**/*.ts"}},
	}
	idx := buildIndex(t, files, projects)

	importers := idx.Inverted[workspace.IndexKey{File: "/ws/libA/src/util.ts", Symbol: ast.NamespaceSlot}]
	require.Len(t, importers, 1)
	assert.Equal(t, "/ws/libB/src/main.ts", importers[0].File)
}

func TestBuild_UnresolvedImportRecordsDiagnostic(t *testing.T) {
	files := map[string]string{
		"/ws/libA/src/main.ts": "import { z } from 'some-external-pkg'\n",
	}
	projects := []workspace.Project{
		{Name: "A", RootPath: "/ws/libA", SourceGlobs: []string{"**/*.ts"}},
	}
	idx := buildIndex(t, files, projects)

	require.Len(t, idx.Diagnostics.ResolutionFailures, 1)
	assert.Equal(t, resolver.ReasonExternal, idx.Diagnostics.ResolutionFailures[0].Reason)
}

// fakeParseCache is an in-memory stand-in for internal/cache.Cache.
type fakeParseCache struct {
	entries map[string]*ast.ParseResult
}

func newFakeParseCache() *fakeParseCache {
	return &fakeParseCache{entries: make(map[string]*ast.ParseResult)}
}

func (c *fakeParseCache) Get(hash string) (*ast.ParseResult, bool) {
	r, ok := c.entries[hash]
	return r, ok
}

func (c *fakeParseCache) Put(hash string, result *ast.ParseResult) error {
	c.entries[hash] = result
	return nil
}

func TestBuild_CacheHitSkipsReparse(t *testing.T) {
	files := map[string]string{
		"/ws/libA/src/util.ts": "export function format(x) { return x }\n",
	}
	projects := []workspace.Project{
		{Name: "A", RootPath: "/ws/libA", SourceGlobs: []string{"**/*.ts"}},
	}

	fs := vfs.NewMapFS(files)
	res := resolver.New(fs, "/ws", nil)
	fake := newFakeParseCache()

	first := workspace.New(fs, "/ws", res, workspace.WithCache(fake))
	idx1, err := first.Build(context.Background(), projects)
	require.NoError(t, err)
	assert.Equal(t, 0, idx1.CacheStats.Hits)
	assert.Equal(t, 1, idx1.CacheStats.Misses)

	second := workspace.New(fs, "/ws", res, workspace.WithCache(fake))
	idx2, err := second.Build(context.Background(), projects)
	require.NoError(t, err)
	assert.Equal(t, 1, idx2.CacheStats.Hits)
	assert.Equal(t, 0, idx2.CacheStats.Misses)
	assert.Contains(t, idx2.Exports["/ws/libA/src/util.ts"], "format")
}
