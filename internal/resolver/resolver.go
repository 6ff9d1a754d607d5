// Package resolver implements the Module Resolver: given a specifier
// occurring in a file, it resolves the specifier to an absolute workspace
// file path, honoring relative paths, path aliases, extension probing, and
// package.json-style entry points. Resolutions are memoized on the
// (from_file, specifier) pair.
package resolver

import (
	"encoding/json"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aleutian-oss/trueaffected/internal/vfs"
)

// ExtensionOrder is the probe order for a specifier with no extension,
// per spec 4.4.
var ExtensionOrder = []string{".ts", ".tsx", ".d.ts", ".js", ".jsx", ".mjs", ".cjs"}

// UnresolvedReason classifies why a specifier did not resolve.
type UnresolvedReason string

const (
	ReasonExternal    UnresolvedReason = "external"      // bare specifier outside the workspace
	ReasonNotFound    UnresolvedReason = "file_absent"    // looked like a workspace path but nothing there
	ReasonNonJSExt    UnresolvedReason = "non_js_ext"     // resolved to a file whose extension the core doesn't parse
	ReasonOutsideRoot UnresolvedReason = "outside_root"   // resolved path escapes the workspace root
)

// Resolution is the outcome of resolving one (fromFile, specifier) pair.
type Resolution struct {
	ResolvedPath string
	Unresolved   bool
	Reason       UnresolvedReason
}

type cacheKey struct {
	fromFile  string
	specifier string
}

// Resolver resolves import specifiers to absolute file paths.
//
// # Thread Safety
//
// Resolver is safe for concurrent Resolve calls. The cache is
// write-mostly during the workspace parse barrier and read-only after.
type Resolver struct {
	fs            vfs.FS
	workspaceRoot string
	aliasMap      map[string]string // alias pattern -> target path template

	mu    sync.Mutex
	cache map[cacheKey]Resolution
}

// New creates a Resolver rooted at workspaceRoot.
//
// # Inputs
//
//   - fs: the filesystem to probe for extension/index/package-entry
//     candidates and to canonicalize resolved paths through.
//   - workspaceRoot: the workspace root; any resolution escaping this
//     root (after canonicalization) comes back Unresolved.
//   - aliasMap: a pre-parsed alias map (alias pattern to target path
//     template); the root config's location and format are
//     host-provided, the resolver only consumes the parsed result.
//
// # Outputs
//
//   - *Resolver: ready for concurrent Resolve calls.
func New(fs vfs.FS, workspaceRoot string, aliasMap map[string]string) *Resolver {
	return &Resolver{
		fs:            fs,
		workspaceRoot: fs.Canonicalize(filepath.ToSlash(workspaceRoot)),
		aliasMap:      aliasMap,
		cache:         make(map[cacheKey]Resolution),
	}
}

// Resolve resolves specifier as it occurs in fromFile, memoized on the
// (fromFile, specifier) pair.
//
// # Inputs
//
//   - fromFile: the file containing the specifier; anchors relative
//     resolution.
//   - specifier: the raw import/require string as written.
//
// # Outputs
//
//   - Resolution: the resolved path, or Unresolved with a reason.
func (r *Resolver) Resolve(fromFile, specifier string) Resolution {
	key := cacheKey{fromFile: fromFile, specifier: specifier}

	r.mu.Lock()
	if cached, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return cached
	}
	r.mu.Unlock()

	resolution := r.resolveUncached(fromFile, specifier)

	r.mu.Lock()
	r.cache[key] = resolution
	r.mu.Unlock()
	return resolution
}

func (r *Resolver) resolveUncached(fromFile, specifier string) Resolution {
	var base string
	switch {
	case strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../"):
		base = path.Join(path.Dir(filepath.ToSlash(fromFile)), specifier)
	default:
		if target, ok := r.matchAlias(specifier); ok {
			base = target
		} else {
			return Resolution{Unresolved: true, Reason: ReasonExternal}
		}
	}

	if resolved, ok := r.probeExtensions(base); ok {
		return r.finish(resolved)
	}
	if resolved, ok := r.probeIndex(base); ok {
		return r.finish(resolved)
	}
	if resolved, ok := r.probePackageEntry(base); ok {
		return r.finish(resolved)
	}
	return Resolution{Unresolved: true, Reason: ReasonNotFound}
}

func (r *Resolver) finish(resolvedPath string) Resolution {
	resolvedPath = path.Clean(resolvedPath)
	// Canonicalize before the root check: a symlinked path can resolve
	// outside workspaceRoot's own symlink chain even though its target is
	// inside the canonical root, and vice versa: the canonical form is
	// the one that actually matters for the containment check and for
	// matching the file identity the Workspace Analyzer indexed under.
	resolvedPath = r.fs.Canonicalize(resolvedPath)
	if !withinRoot(r.workspaceRoot, resolvedPath) {
		return Resolution{Unresolved: true, Reason: ReasonOutsideRoot}
	}
	return Resolution{ResolvedPath: resolvedPath}
}

func withinRoot(root, candidate string) bool {
	root = strings.TrimSuffix(root, "/")
	return candidate == root || strings.HasPrefix(candidate, root+"/")
}

// matchAlias finds the longest alias pattern that prefixes specifier and
// substitutes its target template, Node/tsconfig "paths"-style: an alias
// pattern "@app/*" maps specifier "@app/foo/bar" to target "src/foo/bar"
// when the template is "src/*".
func (r *Resolver) matchAlias(specifier string) (string, bool) {
	var bestPattern, bestTarget string
	for pattern, target := range r.aliasMap {
		prefix := strings.TrimSuffix(pattern, "*")
		if !strings.HasPrefix(specifier, prefix) {
			continue
		}
		if len(prefix) > len(bestPattern) {
			bestPattern, bestTarget = pattern, target
		}
	}
	if bestPattern == "" {
		return "", false
	}
	rest := strings.TrimPrefix(specifier, strings.TrimSuffix(bestPattern, "*"))
	targetPrefix := strings.TrimSuffix(bestTarget, "*")
	resolved := targetPrefix + rest
	if !path.IsAbs(resolved) {
		resolved = path.Join(r.workspaceRoot, resolved)
	}
	return resolved, true
}

// probeExtensions tries base as-is, then with each extension appended, in
// ExtensionOrder.
func (r *Resolver) probeExtensions(base string) (string, bool) {
	if exists, isDir := r.fs.Stat(base); exists && !isDir {
		return base, true
	}
	for _, ext := range ExtensionOrder {
		candidate := base + ext
		if exists, isDir := r.fs.Stat(candidate); exists && !isDir {
			return candidate, true
		}
	}
	return "", false
}

// probeIndex tries base as a directory containing an index.* file, using
// the same extension order.
func (r *Resolver) probeIndex(base string) (string, bool) {
	if exists, isDir := r.fs.Stat(base); !exists || !isDir {
		return "", false
	}
	for _, ext := range ExtensionOrder {
		candidate := path.Join(base, "index"+ext)
		if exists, isDir := r.fs.Stat(candidate); exists && !isDir {
			return candidate, true
		}
	}
	return "", false
}

// packageManifest is the subset of package.json entry-point fields the
// resolver consults.
type packageManifest struct {
	Main    string                 `json:"main"`
	Module  string                 `json:"module"`
	Types   string                 `json:"types"`
	Exports map[string]interface{} `json:"exports"`
}

// probePackageEntry treats base as a directory with a package.json and
// resolves its "exports" conditions ("import", "default", "types" in that
// priority), falling back to "module"/"main"/"types".
func (r *Resolver) probePackageEntry(base string) (string, bool) {
	if exists, isDir := r.fs.Stat(base); !exists || !isDir {
		return "", false
	}
	manifestPath := path.Join(base, "package.json")
	exists, isDir := r.fs.Stat(manifestPath)
	if !exists || isDir {
		return "", false
	}
	content, err := r.fs.ReadFile(manifestPath)
	if err != nil {
		return "", false
	}
	var manifest packageManifest
	if err := json.Unmarshal(content, &manifest); err != nil {
		return "", false
	}

	if entry := exportsEntry(manifest.Exports); entry != "" {
		if resolved, ok := r.probeExtensions(path.Join(base, entry)); ok {
			return resolved, true
		}
	}
	for _, entry := range []string{manifest.Module, manifest.Main, manifest.Types} {
		if entry == "" {
			continue
		}
		if resolved, ok := r.probeExtensions(path.Join(base, entry)); ok {
			return resolved, true
		}
	}
	return "", false
}

// exportsEntry extracts the "." export's entry point, preferring "import",
// then "default", then "types", per spec 4.4's priority order.
func exportsEntry(exportsField map[string]interface{}) string {
	if exportsField == nil {
		return ""
	}
	dot, ok := exportsField["."]
	if !ok {
		// Some manifests put the conditions at the top level directly.
		dot = exportsField
	}
	switch v := dot.(type) {
	case string:
		return v
	case map[string]interface{}:
		for _, cond := range []string{"import", "default", "types"} {
			if entry, ok := v[cond].(string); ok {
				return entry
			}
		}
	}
	return ""
}
