// Package vfs is a minimal filesystem abstraction shared by the Module
// Resolver and Workspace Analyzer so both can run against either the real
// filesystem or an in-memory fixture tree in tests.
package vfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FS is the filesystem surface the core needs: existence checks, reads,
// and source-file enumeration. Paths are always slash-separated, absolute,
// canonical paths.
type FS interface {
	// Stat reports whether path exists and, if so, whether it is a directory.
	Stat(path string) (exists bool, isDir bool)
	// ReadFile returns the full content of path.
	ReadFile(path string) ([]byte, error)
	// Glob enumerates files under root matching any of the given glob
	// patterns (relative to root, using filepath.Match semantics per
	// path segment, "**" treated as a recursive wildcard).
	Glob(root string, patterns []string, ignored []string) ([]string, error)
	// Canonicalize resolves path to the identity Glob would have reported
	// it under, so a resolver-computed path and an enumerated path for
	// the same underlying file compare equal. On the real filesystem this
	// resolves symlinks; on a fixture it's the identity function.
	Canonicalize(path string) string
}

// OSFS is FS backed by the real operating system filesystem.
type OSFS struct{}

// NewOSFS returns an OSFS.
func NewOSFS() OSFS { return OSFS{} }

func (OSFS) Stat(path string) (bool, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return false, false
	}
	return true, info.IsDir()
}

func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OSFS) Canonicalize(path string) string {
	return canonicalizePath(path)
}

// Glob enumerates source files under root, canonicalizing each match
// through filepath.EvalSymlinks before returning it. Two source trees
// reachable via different symlinked paths (a workspace package symlinked
// into node_modules, say) collapse to the same canonical path here, so
// everything downstream (the parser, the import index, the reference
// graph) keys off one identity per underlying file rather than one per
// path that happens to reach it.
func (OSFS) Glob(root string, patterns []string, ignored []string) ([]string, error) {
	seen := make(map[string]struct{})
	var matches []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			if isIgnored(rel, ignored) {
				return filepath.SkipDir
			}
			return nil
		}
		if isIgnored(rel, ignored) {
			return nil
		}
		for _, pattern := range patterns {
			if matchGlob(pattern, rel) {
				canonical := canonicalizePath(path)
				if _, dup := seen[canonical]; dup {
					break
				}
				seen[canonical] = struct{}{}
				matches = append(matches, canonical)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vfs: walking %s: %w", root, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// canonicalizePath resolves symlinks in path so two different paths to
// the same underlying file produce the same string. Falls back to the
// slash-normalized input if resolution fails (e.g. a broken symlink);
// treated as its own file rather than dropped, per the conservative
// failure mode elsewhere in this tool.
func canonicalizePath(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(resolved)
}

func isIgnored(rel string, ignored []string) bool {
	for _, frag := range ignored {
		if frag == "" {
			continue
		}
		if strings.Contains(rel, frag) {
			return true
		}
	}
	return false
}

// matchGlob matches a "**"-aware glob (e.g. "src/**/*.ts") against a
// slash-separated relative path.
func matchGlob(pattern, rel string) bool {
	if !strings.Contains(pattern, "**") {
		ok, _ := filepath.Match(pattern, rel)
		return ok
	}
	parts := strings.SplitN(pattern, "**", 2)
	prefix := strings.TrimSuffix(parts[0], "/")
	suffix := strings.TrimPrefix(parts[1], "/")
	if prefix != "" && !strings.HasPrefix(rel, prefix) {
		return false
	}
	trimmed := strings.TrimPrefix(strings.TrimPrefix(rel, prefix), "/")
	// suffix may itself contain a single "*" component glob.
	segments := strings.Split(trimmed, "/")
	for i := range segments {
		candidate := strings.Join(segments[i:], "/")
		if ok, _ := filepath.Match(suffix, candidate); ok {
			return true
		}
	}
	return false
}

// MapFS is an in-memory FS fixture for tests: paths map directly to file
// content; directories are inferred from path prefixes.
type MapFS struct {
	Files map[string][]byte
}

// NewMapFS builds a MapFS from a path->content string map.
func NewMapFS(files map[string]string) *MapFS {
	m := &MapFS{Files: make(map[string][]byte, len(files))}
	for path, content := range files {
		m.Files[filepath.ToSlash(path)] = []byte(content)
	}
	return m
}

func (m *MapFS) Stat(path string) (bool, bool) {
	path = filepath.ToSlash(path)
	if _, ok := m.Files[path]; ok {
		return true, false
	}
	prefix := strings.TrimSuffix(path, "/") + "/"
	for p := range m.Files {
		if strings.HasPrefix(p, prefix) {
			return true, true
		}
	}
	return false, false
}

func (m *MapFS) ReadFile(path string) ([]byte, error) {
	content, ok := m.Files[filepath.ToSlash(path)]
	if !ok {
		return nil, fmt.Errorf("vfs: no such file %s", path)
	}
	return content, nil
}

// Canonicalize is the identity function for MapFS: fixture trees have no
// symlinks, so a path is already its own canonical form.
func (m *MapFS) Canonicalize(path string) string {
	return filepath.ToSlash(path)
}

func (m *MapFS) Glob(root string, patterns []string, ignored []string) ([]string, error) {
	root = strings.TrimSuffix(filepath.ToSlash(root), "/")
	var matches []string
	for path := range m.Files {
		if !strings.HasPrefix(path, root+"/") {
			continue
		}
		rel := strings.TrimPrefix(path, root+"/")
		if isIgnored(rel, ignored) {
			continue
		}
		for _, pattern := range patterns {
			if matchGlob(pattern, rel) {
				matches = append(matches, path)
				break
			}
		}
	}
	sort.Strings(matches)
	return matches, nil
}
