package workspace

import (
	"sort"

	"github.com/aleutian-oss/trueaffected/internal/ast"
	"github.com/aleutian-oss/trueaffected/internal/resolver"
)

// ImportEdge is one resolved import out of a file, with its items intact.
type ImportEdge struct {
	ImporterFile string
	Specifier    string
	Resolution   resolver.Resolution
	Items        []ast.ImportItem
	IsNamespace  bool
}

// IndexKey is a (defining file, exported symbol name) pair, the key of the
// inverted import index.
type IndexKey struct {
	File   string
	Symbol string
}

// Importer is one (file, local binding name) pair that depends on an
// IndexKey.
type Importer struct {
	File      string
	LocalName string
}

// ResolutionFailure records a specifier that did not resolve.
type ResolutionFailure struct {
	FromFile  string
	Specifier string
	Reason    resolver.UnresolvedReason
}

// ParseFailure records a file whose parse produced ParseResult.ParseErrors.
type ParseFailure struct {
	FilePath string
	Errors   []string
}

// Diagnostics accumulates the non-fatal failure taxonomy from section 7.
type Diagnostics struct {
	ParseFailures      []ParseFailure
	ResolutionFailures []ResolutionFailure
	DiffWarnings       []string
}

// Index is the immutable, read-only-after-build result of the Workspace
// Analyzer: the forward import graph, the inverted import index, and each
// file's export surface (including transitive `export *` expansion).
type Index struct {
	// Forward maps an importer file to its outgoing import edges.
	Forward map[string][]ImportEdge

	// Inverted maps (defining_file, symbol_name) to the set of importers
	// that depend on it.
	Inverted map[IndexKey][]Importer

	// Exports maps a file to the set of names it exports, after
	// transitively expanding `export * from` chains (cycle-safe).
	Exports map[string]map[string]struct{}

	// StarReexports maps a file M to the files it `export *`s from,
	// unexpanded — used by the Reference Finder to propagate a touch on
	// any export of R to every M that stars R.
	StarReexports map[string][]string

	// ParseResults holds every file's parsed declarations, keyed by path;
	// the arena the spec's File Parser output lives in for the run.
	ParseResults map[string]*ast.ParseResult

	// LineCounts holds each parsed file's total line count, used to
	// resolve diffreader's full-file sentinel ranges.
	LineCounts map[string]int

	// CacheStats reports parse-lookaside hits and misses for this build,
	// zero-valued when no cache was attached.
	CacheStats CacheStats

	Diagnostics Diagnostics
}

func newIndex() *Index {
	return &Index{
		Forward:       make(map[string][]ImportEdge),
		Inverted:      make(map[IndexKey][]Importer),
		Exports:       make(map[string]map[string]struct{}),
		StarReexports: make(map[string][]string),
		ParseResults:  make(map[string]*ast.ParseResult),
		LineCounts:    make(map[string]int),
	}
}

func (idx *Index) addInverted(key IndexKey, importer Importer) {
	for _, existing := range idx.Inverted[key] {
		if existing == importer {
			return
		}
	}
	idx.Inverted[key] = append(idx.Inverted[key], importer)
}

// ExportedNames returns the sorted list of names a file exports, expanding
// star chains. Returns nil if the file is unknown to the index.
func (idx *Index) ExportedNames(file string) []string {
	set, ok := idx.Exports[file]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
