// Package locator implements the Symbol Locator: given a parsed file and a
// set of changed line ranges, it determines which top-level exported
// symbols were touched and whether any top-level statement outside a
// symbol's span (a bare import, a side effect, an export-from line) was
// touched — the latter propagating as the __module__ sentinel.
package locator

import (
	"sort"

	"github.com/aleutian-oss/trueaffected/internal/ast"
	"github.com/aleutian-oss/trueaffected/internal/diffreader"
)

// Seed names the set of symbols (by name, possibly including the
// ast.ModuleSentinel) that changed-region analysis attributes to one file.
//
// # Thread Safety
//
// Seed is an immutable value once returned from Locate; safe to share.
type Seed struct {
	FilePath string
	Names    []string
}

// HasModule reports whether the seed includes the __module__ sentinel.
//
// # Outputs
//
//   - bool: true if Names contains ast.ModuleSentinel.
func (s Seed) HasModule() bool {
	for _, n := range s.Names {
		if n == ast.ModuleSentinel {
			return true
		}
	}
	return false
}

// Locate computes the Seed for one file from its parsed declarations and
// its changed line ranges.
//
// # Inputs
//
//   - result: the parsed file, carrying its exported symbols, imports,
//     and re-exports with their line spans.
//   - ranges: the changed line ranges from the Diff Reader, in the
//     coordinate space of result's source.
//   - totalLines: resolves a full-file range whose end is unknown at
//     diff-read time (diffreader.Range{End: -1} for new files or
//     conservative rename expansion); pass 0 when the range endpoints
//     are already concrete.
//
// # Outputs
//
//   - Seed: the symbol names the changed ranges touch, plus
//     ast.ModuleSentinel if a bare import, re-export, or unmodeled
//     top-level statement was touched.
func Locate(result *ast.ParseResult, ranges []diffreader.Range, totalLines int) Seed {
	seed := Seed{FilePath: result.FilePath}
	if len(ranges) == 0 {
		return seed
	}

	resolved := resolveRanges(ranges, totalLines)
	names := make(map[string]struct{})

	for _, sym := range result.Symbols {
		if !sym.Exported {
			continue
		}
		for _, r := range resolved {
			if r.Overlaps(sym.StartLine, sym.EndLine) {
				names[sym.Name] = struct{}{}
				break
			}
		}
	}

	moduleTouched := false
	for _, imp := range result.Imports {
		for _, r := range resolved {
			if r.Overlaps(imp.Location.StartLine, imp.Location.EndLine) {
				moduleTouched = true
				break
			}
		}
		if moduleTouched {
			break
		}
	}
	if !moduleTouched {
		for _, exp := range result.Exports {
			if exp.ReexportFrom == "" {
				continue
			}
			for _, r := range resolved {
				if r.Overlaps(exp.Location.StartLine, exp.Location.EndLine) {
					moduleTouched = true
					break
				}
			}
			if moduleTouched {
				break
			}
		}
	}
	if !moduleTouched && touchesUnknownTopLevel(result, resolved) {
		moduleTouched = true
	}
	if moduleTouched {
		names[ast.ModuleSentinel] = struct{}{}
	}

	for n := range names {
		seed.Names = append(seed.Names, n)
	}
	sort.Strings(seed.Names)
	return seed
}

// touchesUnknownTopLevel reports whether any resolved range falls outside
// every known symbol/import/export span — a bare top-level statement or
// whitespace-only region the locator has no declaration for. Per spec 4.3,
// this is conservatively folded into __module__ since the parser does not
// model every top-level statement shape (e.g. a bare `console.log(...)`).
func touchesUnknownTopLevel(result *ast.ParseResult, ranges []diffreader.Range) bool {
	covered := make([]diffreader.Range, 0, len(result.Symbols)+len(result.Imports)+len(result.Exports))
	for _, sym := range result.Symbols {
		covered = append(covered, diffreader.Range{Start: sym.StartLine, End: sym.EndLine})
	}
	for _, imp := range result.Imports {
		covered = append(covered, diffreader.Range{Start: imp.Location.StartLine, End: imp.Location.EndLine})
	}
	for _, exp := range result.Exports {
		covered = append(covered, diffreader.Range{Start: exp.Location.StartLine, End: exp.Location.EndLine})
	}

	within := func(start, end int) bool {
		for _, c := range covered {
			if c.Start <= start && end <= c.End {
				return true
			}
		}
		return false
	}

	for _, r := range ranges {
		if r.End < r.Start {
			// Empty deletion-site range: covered when one span contains it.
			if !within(r.Start, r.End) {
				return true
			}
			continue
		}
		// A range may span several adjacent declarations; every line must
		// fall inside some known span.
		for line := r.Start; line <= r.End; line++ {
			if !within(line, line) {
				return true
			}
		}
	}
	return false
}

// resolveRanges replaces any range with End == -1 (the diffreader
// full-file sentinel) with a concrete [Start, totalLines] range.
func resolveRanges(ranges []diffreader.Range, totalLines int) []diffreader.Range {
	out := make([]diffreader.Range, len(ranges))
	for i, r := range ranges {
		if r.End == -1 {
			end := totalLines
			if end < r.Start {
				end = r.Start
			}
			r.End = end
		}
		out[i] = r
	}
	return out
}
