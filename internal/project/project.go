// Package project implements the Project Mapper: it resolves each
// affected file to the project that owns it and reduces the result to a
// sorted set of distinct project names.
package project

import (
	"sort"
	"strings"
)

// Descriptor is the project ownership record the mapper selects against.
type Descriptor struct {
	Name     string
	RootPath string

	// ImplicitDependencies names other projects this one depends on
	// without an import edge the Reference Finder can see. See
	// ApplyImplicitDependencies.
	ImplicitDependencies []string
}

// Warning records a file that matched no project's root path.
type Warning struct {
	File string
}

// Result is the mapper's output: the sorted, distinct project names plus
// any files that matched no project.
type Result struct {
	Projects []string
	Warnings []Warning
}

// Map selects, for each file, the project whose RootPath is the longest
// matching prefix, and reduces to the sorted set of distinct project
// names. A file matching no project's root is recorded as a warning and
// dropped.
func Map(files []string, projects []Descriptor) Result {
	names := make(map[string]struct{})
	var warnings []Warning

	for _, file := range files {
		owner, ok := longestPrefixOwner(file, projects)
		if !ok {
			warnings = append(warnings, Warning{File: file})
			continue
		}
		names[owner] = struct{}{}
	}

	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)

	return Result{Projects: out, Warnings: warnings}
}

// ApplyImplicitDependencies runs one pass over affected, the project
// names an import-graph closure already found affected, and adds every
// project that declares one of them as an ImplicitDependency. This is a
// single pass over affected as it stood at call time: a project added
// here does not itself get re-scanned for further implicit dependents in
// the same call, matching the one-shot semantics of the feature this is
// grounded on.
func ApplyImplicitDependencies(affected []string, projects []Descriptor) []string {
	dependents := make(map[string][]string) // dependency name -> dependents
	for _, p := range projects {
		for _, dep := range p.ImplicitDependencies {
			dependents[dep] = append(dependents[dep], p.Name)
		}
	}
	if len(dependents) == 0 {
		return affected
	}

	out := make(map[string]struct{}, len(affected))
	for _, name := range affected {
		out[name] = struct{}{}
	}
	for _, name := range affected {
		for _, dependent := range dependents[name] {
			out[dependent] = struct{}{}
		}
	}

	result := make([]string, 0, len(out))
	for name := range out {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

func longestPrefixOwner(file string, projects []Descriptor) (string, bool) {
	best := ""
	bestLen := -1
	for _, p := range projects {
		root := strings.TrimSuffix(p.RootPath, "/")
		if file != root && !strings.HasPrefix(file, root+"/") {
			continue
		}
		if len(root) > bestLen {
			bestLen = len(root)
			best = p.Name
		}
	}
	if bestLen < 0 {
		return "", false
	}
	return best, true
}
