// Package workspace implements the Workspace Analyzer: it parses every
// source file in the workspace's source globs, resolves every import
// specifier through the Module Resolver, and builds the forward import
// graph and the inverted import index the Reference Finder consumes.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aleutian-oss/trueaffected/internal/ast"
	"github.com/aleutian-oss/trueaffected/internal/resolver"
	"github.com/aleutian-oss/trueaffected/internal/vfs"
)

// ParseCache is the subset of internal/cache.Cache's surface the Analyzer
// needs: a content-hash-keyed lookaside for parsed results, so a rebuild
// over an unchanged file skips the tree-sitter parse entirely. Declared
// as an interface here, rather than importing internal/cache directly, to
// keep the Analyzer's cache dependency optional and test-fixture-friendly.
type ParseCache interface {
	Get(contentHash string) (*ast.ParseResult, bool)
	Put(contentHash string, result *ast.ParseResult) error
}

// CacheStats counts lookaside hits and misses for one Build call.
type CacheStats struct {
	Hits   int
	Misses int
}

// Project is the pre-built project descriptor the core consumes from the
// workspace discoverer (section 6: an external collaborator's output).
type Project struct {
	Name                 string
	RootPath             string
	SourceGlobs          []string
	ImplicitDependencies []string
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithWorkerCount overrides the bounded fan-out width for the parse phase.
// Defaults to runtime.GOMAXPROCS(0).
func WithWorkerCount(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.workerCount = n
		}
	}
}

// WithLogger attaches a structured logger, scoped with component=workspace.
func WithLogger(logger *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger.With("component", "workspace")
		}
	}
}

// WithIgnoredPaths sets path fragments to skip during source enumeration.
func WithIgnoredPaths(ignored []string) AnalyzerOption {
	return func(a *Analyzer) {
		a.ignoredPaths = ignored
	}
}

// WithCache attaches a content-hash-keyed parse lookaside. A nil cache
// (the default) disables lookaside entirely; every file is parsed fresh.
func WithCache(c ParseCache) AnalyzerOption {
	return func(a *Analyzer) {
		a.cache = c
	}
}

// Analyzer builds the workspace-wide import/export Index.
//
// Thread Safety: Build is safe to call once per Analyzer instance. The
// returned Index is immutable and safe for concurrent reads thereafter.
type Analyzer struct {
	fs            vfs.FS
	workspaceRoot string
	resolver      *resolver.Resolver
	parser        *ast.Parser
	workerCount   int
	ignoredPaths  []string
	logger        *slog.Logger
	cache         ParseCache
	cacheStats    CacheStats
}

// New creates an Analyzer over the given filesystem, workspace root, and
// resolver (already configured with the workspace's alias map).
func New(fs vfs.FS, workspaceRoot string, res *resolver.Resolver, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		fs:            fs,
		workspaceRoot: workspaceRoot,
		resolver:      res,
		parser:        ast.NewParser(),
		workerCount:   runtime.GOMAXPROCS(0),
		logger:        slog.Default().With("component", "workspace"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type parseRecord struct {
	path   string
	result *ast.ParseResult
	lines  int
	err    error
}

// Build enumerates every source file across projects, parses each in a
// bounded worker pool, and merges the results under a single writer,
// matching the spec's parallel-parse/single-writer-merge discipline.
func (a *Analyzer) Build(ctx context.Context, projects []Project) (*Index, error) {
	files, err := a.enumerate(projects)
	if err != nil {
		return nil, fmt.Errorf("workspace: enumerating sources: %w", err)
	}

	records, err := a.parseAll(ctx, files)
	if err != nil {
		return nil, err
	}

	idx := newIndex()
	a.mergeParseRecords(idx, records)
	a.buildForwardAndInverted(idx)
	a.expandExports(idx)
	idx.CacheStats = a.cacheStats

	return idx, nil
}

func (a *Analyzer) enumerate(projects []Project) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, p := range projects {
		matches, err := a.fs.Glob(p.RootPath, p.SourceGlobs, a.ignoredPaths)
		if err != nil {
			return nil, fmt.Errorf("globbing project %s: %w", p.Name, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	return files, nil
}

// parseAll runs the bounded fan-out parse phase: a semaphore-limited pool
// of workers each parse one file and store its parseRecord in that file's
// slot of the returned slice; Build merges the slice in a single pass
// after the barrier.
func (a *Analyzer) parseAll(ctx context.Context, files []string) ([]parseRecord, error) {
	records := make([]parseRecord, len(files))

	group, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, a.workerCount)
	var mu sync.Mutex

	for i, file := range files {
		i, file := i, file
		group.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			content, err := a.fs.ReadFile(file)
			if err != nil {
				mu.Lock()
				records[i] = parseRecord{path: file, err: err}
				mu.Unlock()
				return nil
			}

			lines := strings.Count(string(content), "\n") + 1

			if a.cache != nil {
				hash := ast.HashContent(content)
				if cached, ok := a.cache.Get(hash); ok {
					// The entry may come from another file with identical
					// content; re-key the copy to the file being built.
					hit := *cached
					hit.FilePath = file
					mu.Lock()
					a.cacheStats.Hits++
					records[i] = parseRecord{path: file, result: &hit, lines: lines}
					mu.Unlock()
					return nil
				}
				mu.Lock()
				a.cacheStats.Misses++
				mu.Unlock()
			}

			result, parseErr := a.parser.Parse(gctx, content, file)
			rec := parseRecord{path: file, err: parseErr}
			if parseErr == nil {
				rec.result = result
				rec.lines = lines
				if a.cache != nil {
					_ = a.cache.Put(ast.HashContent(content), result)
				}
			}
			mu.Lock()
			records[i] = rec
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("workspace: parse barrier: %w", err)
	}
	return records, nil
}

// mergeParseRecords is the single-writer merge step: it owns the global
// index and is the only place parseRecords are folded into it.
func (a *Analyzer) mergeParseRecords(idx *Index, records []parseRecord) {
	for _, rec := range records {
		if rec.err != nil {
			idx.Diagnostics.ParseFailures = append(idx.Diagnostics.ParseFailures, ParseFailure{
				FilePath: rec.path,
				Errors:   []string{rec.err.Error()},
			})
			a.logger.Warn("parse failed", "file", rec.path, "error", rec.err)
			continue
		}
		if rec.result == nil {
			continue
		}
		if rec.result.HasErrors() {
			idx.Diagnostics.ParseFailures = append(idx.Diagnostics.ParseFailures, ParseFailure{
				FilePath: rec.path,
				Errors:   rec.result.ParseErrors,
			})
		}
		idx.ParseResults[rec.path] = rec.result
		idx.LineCounts[rec.path] = rec.lines

		exportSet := make(map[string]struct{})
		for _, sym := range rec.result.Symbols {
			if sym.Exported {
				exportSet[sym.Name] = struct{}{}
			}
		}
		idx.Exports[rec.path] = exportSet
	}
}

// buildForwardAndInverted resolves every import and export-from edge and
// populates the forward graph and inverted index per spec 4.5's population
// rule.
func (a *Analyzer) buildForwardAndInverted(idx *Index) {
	for file, result := range idx.ParseResults {
		var edges []ImportEdge
		for _, imp := range result.Imports {
			res := a.resolver.Resolve(file, imp.Specifier)
			edges = append(edges, ImportEdge{
				ImporterFile: file,
				Specifier:    imp.Specifier,
				Resolution:   res,
				Items:        imp.Items,
				IsNamespace:  imp.IsNamespace,
			})
			if res.Unresolved {
				idx.Diagnostics.ResolutionFailures = append(idx.Diagnostics.ResolutionFailures, ResolutionFailure{
					FromFile:  file,
					Specifier: imp.Specifier,
					Reason:    res.Reason,
				})
				continue
			}
			for _, item := range imp.Items {
				symbolName := item.ImportedName
				if imp.IsNamespace {
					symbolName = ast.NamespaceSlot
				}
				idx.addInverted(IndexKey{File: res.ResolvedPath, Symbol: symbolName}, Importer{
					File:      file,
					LocalName: item.LocalName,
				})
			}
			if len(imp.Items) == 0 {
				// Side-effect import: still an edge, but no symbol
				// dependency to register in the inverted index.
				continue
			}
		}
		idx.Forward[file] = edges

		a.registerReexports(idx, file, result)
		a.registerTwoStatementReexports(idx, file, result, edges)
	}
}

// registerReexports handles `export { i } from "./r"`, aliased forms, and
// `export * from "./r"` / `export * as ns from "./r"`.
func (a *Analyzer) registerReexports(idx *Index, file string, result *ast.ParseResult) {
	for _, exp := range result.Exports {
		if exp.ReexportFrom == "" {
			continue
		}
		res := a.resolver.Resolve(file, exp.ReexportFrom)
		if res.Unresolved {
			idx.Diagnostics.ResolutionFailures = append(idx.Diagnostics.ResolutionFailures, ResolutionFailure{
				FromFile:  file,
				Specifier: exp.ReexportFrom,
				Reason:    res.Reason,
			})
			continue
		}

		if exp.IsStarAll {
			idx.StarReexports[file] = append(idx.StarReexports[file], res.ResolvedPath)
			continue
		}

		source := exp.ReexportedAs
		if source == "" {
			source = exp.Name
		}
		idx.addInverted(IndexKey{File: res.ResolvedPath, Symbol: source}, Importer{
			File:      file,
			LocalName: exp.Name,
		})
		if set, ok := idx.Exports[file]; ok {
			set[exp.Name] = struct{}{}
		} else {
			idx.Exports[file] = map[string]struct{}{exp.Name: {}}
		}
	}
}

// registerTwoStatementReexports handles the `import { x } from "./a";
// export { x };` shape: a plain export whose name matches a locally
// imported binding also constitutes a re-export edge from the import's
// source.
func (a *Analyzer) registerTwoStatementReexports(idx *Index, file string, result *ast.ParseResult, edges []ImportEdge) {
	localImports := make(map[string]resolver.Resolution)
	localImportedName := make(map[string]string)
	for _, edge := range edges {
		if edge.Resolution.Unresolved {
			continue
		}
		for _, item := range edge.Items {
			localImports[item.LocalName] = edge.Resolution
			localImportedName[item.LocalName] = item.ImportedName
		}
	}

	for _, exp := range result.Exports {
		if exp.ReexportFrom != "" {
			continue
		}
		source := exp.ReexportedAs
		if source == "" {
			source = exp.Name
		}
		res, isReexport := localImports[source]
		if !isReexport {
			continue
		}
		importedName := localImportedName[source]
		idx.addInverted(IndexKey{File: res.ResolvedPath, Symbol: importedName}, Importer{
			File:      file,
			LocalName: exp.Name,
		})
	}
}

// expandExports resolves `export * from` chains transitively into each
// file's Exports set, memoizing per query to stay cycle-safe.
func (a *Analyzer) expandExports(idx *Index) {
	memo := make(map[string]map[string]struct{})
	for file := range idx.ParseResults {
		idx.Exports[file] = a.expandFileExports(idx, file, memo, make(map[string]bool))
	}
}

func (a *Analyzer) expandFileExports(idx *Index, file string, memo map[string]map[string]struct{}, visiting map[string]bool) map[string]struct{} {
	if cached, ok := memo[file]; ok {
		return cached
	}
	if visiting[file] {
		return map[string]struct{}{}
	}
	visiting[file] = true
	defer delete(visiting, file)

	set := make(map[string]struct{})
	for name := range idx.Exports[file] {
		set[name] = struct{}{}
	}
	for _, starSource := range idx.StarReexports[file] {
		for name := range a.expandFileExports(idx, starSource, memo, visiting) {
			set[name] = struct{}{}
		}
	}
	memo[file] = set
	return set
}
