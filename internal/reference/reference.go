// Package reference implements the Reference Finder: given a seed set of
// (file, symbol) pairs, it computes the transitive closure of files that
// import them, directly or through re-exports and namespace-import
// fan-out, using a breadth-first worklist over the Workspace Analyzer's
// inverted import index.
package reference

import (
	"context"

	"github.com/aleutian-oss/trueaffected/internal/ast"
	"github.com/aleutian-oss/trueaffected/internal/workspace"
)

// Seed is one (file, symbol) pair the closure search starts from.
type Seed struct {
	File   string
	Symbol string
}

// Chain records how one file entered AffectedFiles, for the optional
// structured debug report: the originating seed and the importer hop that
// led here (empty ViaFile/ViaSymbol for the seed files themselves).
type Chain struct {
	File      string
	ViaFile   string
	ViaSymbol string
	Source    Seed
	Depth     int
}

// Result is the outcome of one closure computation.
type Result struct {
	AffectedFiles map[string]struct{}
	Chains        map[string]Chain
}

// Sorted returns the affected files in lexicographic order.
func (r *Result) Sorted() []string {
	out := make([]string, 0, len(r.AffectedFiles))
	for f := range r.AffectedFiles {
		out = append(out, f)
	}
	sortStrings(out)
	return out
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

type queueItem struct {
	seed    Seed
	via     Chain
	depth   int
	sourceS Seed
}

// Finder computes the affected-file closure over a built workspace Index.
type Finder struct {
	idx *workspace.Index

	// reverseStars[R] lists files M with `export * from R`.
	reverseStars map[string][]string
	// sideEffectImporters[R] lists files with a zero-item (side-effect)
	// import edge resolving to R.
	sideEffectImporters map[string][]string
}

// New builds a Finder over idx, precomputing the reverse indexes the BFS
// needs that the Workspace Analyzer does not materialize directly.
func New(idx *workspace.Index) *Finder {
	f := &Finder{
		idx:                 idx,
		reverseStars:        make(map[string][]string),
		sideEffectImporters: make(map[string][]string),
	}
	for m, sources := range idx.StarReexports {
		for _, r := range sources {
			f.reverseStars[r] = append(f.reverseStars[r], m)
		}
	}
	for importer, edges := range idx.Forward {
		for _, edge := range edges {
			if edge.Resolution.Unresolved {
				continue
			}
			if len(edge.Items) == 0 {
				f.sideEffectImporters[edge.Resolution.ResolvedPath] = append(
					f.sideEffectImporters[edge.Resolution.ResolvedPath], importer)
			}
		}
	}
	return f
}

// Find runs the BFS worklist from seeds to the transitive closure of
// affected files. Honors ctx cancellation at each BFS step, per the
// orchestrator's phase-boundary cancellation contract; a cancellation
// returns the partial result accumulated so far.
func (f *Finder) Find(ctx context.Context, seeds []Seed) *Result {
	result := &Result{
		AffectedFiles: make(map[string]struct{}),
		Chains:        make(map[string]Chain),
	}
	visited := make(map[Seed]bool)
	var queue []queueItem

	for _, s := range seeds {
		if visited[s] {
			continue
		}
		visited[s] = true
		queue = append(queue, queueItem{seed: s, sourceS: s, depth: 0})
	}

	for len(queue) > 0 {
		select {
		case <-ctx.Done():
			return result
		default:
		}

		item := queue[0]
		queue = queue[1:]
		f.markAffected(result, item)

		next := f.expand(item.seed)
		for _, n := range next {
			if visited[n] {
				continue
			}
			visited[n] = true
			queue = append(queue, queueItem{
				seed:    n,
				via:     Chain{File: item.seed.File, ViaFile: item.seed.File, ViaSymbol: item.seed.Symbol},
				depth:   item.depth + 1,
				sourceS: item.sourceS,
			})
		}
	}
	return result
}

func (f *Finder) markAffected(result *Result, item queueItem) {
	file := item.seed.File
	result.AffectedFiles[file] = struct{}{}
	if _, exists := result.Chains[file]; !exists {
		chain := item.via
		chain.File = file
		chain.Source = item.sourceS
		chain.Depth = item.depth
		result.Chains[file] = chain
	}
}

// expand computes the next-hop seeds for one popped (file, symbol) seed.
func (f *Finder) expand(seed Seed) []Seed {
	if seed.Symbol == ast.ModuleSentinel {
		return f.expandModuleSentinel(seed.File)
	}

	var next []Seed

	key := workspace.IndexKey{File: seed.File, Symbol: seed.Symbol}
	for _, importer := range f.idx.Inverted[key] {
		next = append(next, Seed{File: importer.File, Symbol: importer.LocalName})
	}

	// Namespace-import fan-out: any importer consuming the whole namespace
	// of seed.File depends on every exported symbol, so any single one
	// changing reaches it.
	nsKey := workspace.IndexKey{File: seed.File, Symbol: ast.NamespaceSlot}
	for _, importer := range f.idx.Inverted[nsKey] {
		next = append(next, Seed{File: importer.File, Symbol: importer.LocalName})
	}

	// `export * from` chain propagation: every file that stars seed.File
	// re-exports this same symbol name, transitively.
	for _, starrer := range f.reverseStars[seed.File] {
		next = append(next, Seed{File: starrer, Symbol: seed.Symbol})
	}

	return next
}

// expandModuleSentinel implements "every importer of this file is
// affected": it fans out to a per-export seed for every name the file
// exports, plus direct side-effect importers (which bind no name and so
// can't be reached through the per-export fan-out).
func (f *Finder) expandModuleSentinel(file string) []Seed {
	var next []Seed
	for _, name := range f.idx.ExportedNames(file) {
		next = append(next, Seed{File: file, Symbol: name})
	}
	for _, importer := range f.sideEffectImporters[file] {
		next = append(next, Seed{File: importer, Symbol: ast.ModuleSentinel})
	}
	return next
}
