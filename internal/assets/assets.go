// Package assets implements the Asset Reference Finder: it locates
// source files that reference a changed non-source asset (stylesheet,
// template fragment, JSON fixture, image) by filename, verifies the
// reference actually resolves to that asset, and reports the owning
// source files so the orchestrator can fold them into the seed set with
// the module-level sentinel.
package assets

import (
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/aleutian-oss/trueaffected/internal/vfs"
)

// Reference is one occurrence of an asset's filename inside a source
// file's string literal, verified to resolve to that asset.
type Reference struct {
	SourceFile  string
	Line        int
	Column      int
	MatchedPath string
}

// Finder scans a workspace's source files for textual references to
// changed assets.
type Finder struct {
	fs            vfs.FS
	workspaceRoot string

	mu         sync.Mutex
	patternFor map[string]*regexp.Regexp
}

// New creates a Finder rooted at workspaceRoot.
func New(fs vfs.FS, workspaceRoot string) *Finder {
	return &Finder{
		fs:            fs,
		workspaceRoot: workspaceRoot,
		patternFor:    make(map[string]*regexp.Regexp),
	}
}

// FindReferences scans sourceFiles for quoted-string occurrences of
// assetPath's filename, keeping only the ones that resolve back to
// assetPath relative to the referencing file's directory.
func (f *Finder) FindReferences(assetPath string, sourceFiles []string) []Reference {
	fileName := filepath.Base(assetPath)
	if fileName == "." || fileName == "/" {
		return nil
	}
	pattern := f.patternFor_(fileName)

	var refs []Reference
	for _, src := range sourceFiles {
		content, err := f.fs.ReadFile(src)
		if err != nil {
			continue
		}
		text := string(content)
		if !strings.Contains(text, fileName) {
			continue
		}
		refs = append(refs, f.searchFile(src, text, pattern, assetPath)...)
	}
	return refs
}

func (f *Finder) searchFile(sourceFile, content string, pattern *regexp.Regexp, assetPath string) []Reference {
	var refs []Reference
	sourceDir := filepath.Dir(sourceFile)

	for lineNum, line := range strings.Split(content, "\n") {
		matches := pattern.FindAllStringSubmatchIndex(line, -1)
		for _, m := range matches {
			pathStart, pathEnd := m[2], m[3]
			relPath := line[pathStart:pathEnd]
			if f.pathResolvesTo(sourceDir, relPath, assetPath) {
				refs = append(refs, Reference{
					SourceFile:  sourceFile,
					Line:        lineNum + 1,
					Column:      pathStart,
					MatchedPath: relPath,
				})
			}
		}
	}
	return refs
}

// pathResolvesTo joins relPath against the referencing file's directory
// and checks the normalized result against the asset's absolute path.
func (f *Finder) pathResolvesTo(sourceDir, relPath, assetPath string) bool {
	resolved := path.Clean(path.Join(sourceDir, relPath))
	asset := path.Clean(assetPath)
	if !path.IsAbs(asset) {
		asset = path.Clean(path.Join(f.workspaceRoot, assetPath))
	}
	if !path.IsAbs(resolved) {
		resolved = path.Clean(path.Join(f.workspaceRoot, resolved))
	}
	return resolved == asset
}

// patternFor_ returns the memoized regex matching a quoted path ending in
// fileName: ['"`](path ending in fileName)['"`].
func (f *Finder) patternFor_(fileName string) *regexp.Regexp {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.patternFor[fileName]; ok {
		return p
	}
	escaped := regexp.QuoteMeta(fileName)
	p := regexp.MustCompile(`['"` + "`" + `]([^'"` + "`" + `]*` + escaped + `)['"` + "`" + `]`)
	f.patternFor[fileName] = p
	return p
}

// FormatLocation renders a Reference as file:line:col for diagnostics.
func FormatLocation(r Reference) string {
	return r.SourceFile + ":" + strconv.Itoa(r.Line) + ":" + strconv.Itoa(r.Column)
}
