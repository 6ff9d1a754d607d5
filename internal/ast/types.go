// Package ast holds the parsed representation of one TypeScript/JavaScript
// source file: its top-level symbols, its import edges, and its export
// surface. A File Parser instance turns raw bytes into a *ParseResult;
// everything downstream (Symbol Locator, Workspace Analyzer) reads that
// result without retaining the underlying tree-sitter tree.
package ast

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SymbolKind classifies a top-level declaration.
type SymbolKind string

const (
	SymbolKindFunction    SymbolKind = "function"
	SymbolKindClass       SymbolKind = "class"
	SymbolKindInterface   SymbolKind = "interface"
	SymbolKindType        SymbolKind = "type_alias"
	SymbolKindEnum        SymbolKind = "enum"
	SymbolKindVariable    SymbolKind = "variable"
	SymbolKindConstant    SymbolKind = "constant"
	SymbolKindNamespace   SymbolKind = "namespace"
	SymbolKindReexport    SymbolKind = "reexport"
	SymbolKindNamespaceAll SymbolKind = "reexport_star"
)

// DefaultExportName is the reserved binding name for `export default ...`.
const DefaultExportName = "default"

// ModuleSentinel is the pseudo-symbol name meaning "a top-level statement
// outside any symbol's span changed" (e.g. a bare import/export-from line,
// a top-level side effect). It propagates as "every importer of this file
// is affected."
const ModuleSentinel = "__module__"

// NamespaceSlot is the reserved symbol-name key used in the inverted import
// index for namespace-import fan-out edges: (file, "*").
const NamespaceSlot = "*"

// Location is a symbol or import's source span, 1-indexed inclusive lines.
type Location struct {
	FilePath  string
	StartLine int
	EndLine   int
	StartCol  int
	EndCol    int
}

// Overlaps reports whether the location's line span intersects [start, end].
func (l Location) Overlaps(start, end int) bool {
	return l.StartLine <= end && start <= l.EndLine
}

// Symbol is a named top-level declaration in a module.
type Symbol struct {
	ID         string
	Name       string
	Kind       SymbolKind
	FilePath   string
	StartLine  int
	EndLine    int
	StartCol   int
	EndCol     int
	Exported   bool
	Signature  string
	DocComment string

	// ReexportFrom is set when Kind is SymbolKindReexport or
	// SymbolKindNamespaceAll: the specifier the symbol is re-exported from.
	ReexportFrom string
	// ReexportedName is the original name in the source module, for
	// `export { original as Name } from "./m"`. Empty means same as Name.
	ReexportedName string
}

// Location returns the symbol's source span as a Location value.
func (s *Symbol) Location() Location {
	return Location{
		FilePath:  s.FilePath,
		StartLine: s.StartLine,
		EndLine:   s.EndLine,
		StartCol:  s.StartCol,
		EndCol:    s.EndCol,
	}
}

// Validate reports whether the symbol is well-formed.
func (s *Symbol) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("symbol has empty name in %s", s.FilePath)
	}
	if s.FilePath == "" {
		return fmt.Errorf("symbol %q has empty file path", s.Name)
	}
	if s.StartLine <= 0 || s.EndLine < s.StartLine {
		return fmt.Errorf("symbol %q in %s has invalid span [%d,%d]", s.Name, s.FilePath, s.StartLine, s.EndLine)
	}
	return nil
}

// ImportItem is one named binding pulled in by an Import.
type ImportItem struct {
	ImportedName string
	LocalName    string
}

// Import is one `import ...` or CommonJS `require(...)` edge out of a file.
type Import struct {
	Specifier   string
	Items       []ImportItem
	IsNamespace bool
	IsSideEffect bool
	IsTypeOnly  bool
	IsCommonJS  bool
	// IsDynamic marks an `import("literal")` call expression found anywhere
	// in the file, not just among the top-level import statements. Treated
	// as a namespace import: the members actually accessed after the
	// promise resolves aren't statically knowable.
	IsDynamic bool
	Location  Location
}

// Export describes one name a module makes available, whether it is a
// locally defined symbol or a transparent re-export.
type Export struct {
	Name         string
	ReexportFrom string // empty if locally defined
	ReexportedAs string // original (source-side) name of each `export { ... }` specifier, equal to Name when not aliased; NamespaceSlot for `export * as ns`
	IsStarAll    bool   // `export * from "./m"` — contributes Reexported names transitively
	Location     Location
}

// ParseResult is everything the File Parser extracts from one file.
type ParseResult struct {
	FilePath   string
	Language   string
	Hash       string
	Symbols    []*Symbol
	Imports    []Import
	Exports    []Export
	ParseErrors []string
}

// HasErrors reports whether the parse encountered syntax errors.
func (r *ParseResult) HasErrors() bool {
	return len(r.ParseErrors) > 0
}

// Validate checks internal consistency of the result.
func (r *ParseResult) Validate() error {
	for _, sym := range r.Symbols {
		if err := sym.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// GenerateID builds a stable, opaque symbol identifier: the first 8 bytes
// of the sha256 of its defining file, declaration line, and name, as 16
// hex characters.
func GenerateID(filePath string, startLine int, name string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%s", filePath, startLine, name)))
	return hex.EncodeToString(sum[:8])
}

// HashContent returns the hex sha256 of file content, used for cache keys
// and ParseResult.Hash.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
