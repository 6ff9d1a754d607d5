package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aleutian-oss/trueaffected/internal/resolver"
	"github.com/aleutian-oss/trueaffected/internal/vfs"
)

func newFixture() *vfs.MapFS {
	return vfs.NewMapFS(map[string]string{
		"/ws/libA/src/util.ts":       "export function format() {}",
		"/ws/libA/src/index.ts":      "export * from './util'",
		"/ws/libB/src/main.ts":       "import { format } from '../../libA/src/util'",
		"/ws/libC/package.json":      `{"main": "dist/index.js"}`,
		"/ws/libC/dist/index.js":     "module.exports = {}",
		"/ws/libD/package.json":      `{"exports": {".": {"import": "./esm/index.js"}}}`,
		"/ws/libD/esm/index.js":      "export default {}",
	})
}

func TestResolve_RelativeSpecifier(t *testing.T) {
	fs := newFixture()
	r := resolver.New(fs, "/ws", nil)

	res := r.Resolve("/ws/libB/src/main.ts", "../../libA/src/util")

	assert.False(t, res.Unresolved)
	assert.Equal(t, "/ws/libA/src/util.ts", res.ResolvedPath)
}

func TestResolve_IndexDirectory(t *testing.T) {
	fs := newFixture()
	r := resolver.New(fs, "/ws", nil)

	res := r.Resolve("/ws/libB/src/main.ts", "../../libA/src")

	assert.False(t, res.Unresolved)
	assert.Equal(t, "/ws/libA/src/index.ts", res.ResolvedPath)
}

func TestResolve_Alias(t *testing.T) {
	fs := newFixture()
	r := resolver.New(fs, "/ws", map[string]string{"@libA/*": "/ws/libA/src/*"})

	res := r.Resolve("/ws/libB/src/main.ts", "@libA/util")

	assert.False(t, res.Unresolved)
	assert.Equal(t, "/ws/libA/src/util.ts", res.ResolvedPath)
}

func TestResolve_BareSpecifierIsExternal(t *testing.T) {
	fs := newFixture()
	r := resolver.New(fs, "/ws", nil)

	res := r.Resolve("/ws/libB/src/main.ts", "react")

	assert.True(t, res.Unresolved)
	assert.Equal(t, resolver.ReasonExternal, res.Reason)
}

func TestResolve_PackageJSONMain(t *testing.T) {
	fs := newFixture()
	r := resolver.New(fs, "/ws", nil)

	res := r.Resolve("/ws/libB/src/main.ts", "../../libC")

	assert.False(t, res.Unresolved)
	assert.Equal(t, "/ws/libC/dist/index.js", res.ResolvedPath)
}

func TestResolve_PackageJSONExportsImportCondition(t *testing.T) {
	fs := newFixture()
	r := resolver.New(fs, "/ws", nil)

	res := r.Resolve("/ws/libB/src/main.ts", "../../libD")

	assert.False(t, res.Unresolved)
	assert.Equal(t, "/ws/libD/esm/index.js", res.ResolvedPath)
}

func TestResolve_NotFound(t *testing.T) {
	fs := newFixture()
	r := resolver.New(fs, "/ws", nil)

	res := r.Resolve("/ws/libB/src/main.ts", "./nonexistent")

	assert.True(t, res.Unresolved)
	assert.Equal(t, resolver.ReasonNotFound, res.Reason)
}

func TestResolve_IsMemoized(t *testing.T) {
	fs := newFixture()
	r := resolver.New(fs, "/ws", nil)

	first := r.Resolve("/ws/libB/src/main.ts", "../../libA/src/util")
	second := r.Resolve("/ws/libB/src/main.ts", "../../libA/src/util")

	assert.Equal(t, first, second)
}
