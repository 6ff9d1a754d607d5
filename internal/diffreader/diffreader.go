// Package diffreader turns a unified diff into the set of changed line
// ranges per post-image file path. Hunk tokenizing is delegated to
// github.com/sourcegraph/go-diff/diff; this package's own logic is the
// post-image line-range reducer that walks each hunk's body and folds
// context/added/removed line runs into closed [start, end] intervals.
package diffreader

import (
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// Range is a closed, 1-indexed line interval in the post-image file.
type Range struct {
	Start int
	End   int
}

// Overlaps reports whether r intersects [start, end].
func (r Range) Overlaps(start, end int) bool {
	return r.Start <= end && start <= r.End
}

// ChangeKind classifies how a file participates in the diff.
type ChangeKind string

const (
	ChangeKindModified ChangeKind = "modified"
	ChangeKindAdded    ChangeKind = "added"
	ChangeKindDeleted  ChangeKind = "deleted"
	ChangeKindRenamed  ChangeKind = "renamed"
)

// ChangedRegion is everything the Diff Reader knows about one file's
// participation in the diff: its post-image path, the kind of change, and
// the (possibly empty, for deletions) set of changed line ranges.
type ChangedRegion struct {
	Path      string
	OldPath   string // set for renames
	Kind      ChangeKind
	Ranges    []Range
	Malformed bool // a hunk header in this file's section failed to parse
}

// Result is the outcome of reading one unified diff.
type Result struct {
	Regions  []ChangedRegion
	Warnings []string // non-fatal: malformed hunk headers, unparsed sections
}

// ByPath indexes the result's regions by post-image path.
func (r *Result) ByPath() map[string]*ChangedRegion {
	out := make(map[string]*ChangedRegion, len(r.Regions))
	for i := range r.Regions {
		out[r.Regions[i].Path] = &r.Regions[i]
	}
	return out
}

// Read parses diffText as a unified diff and emits one ChangedRegion per
// file section. Malformed hunk headers are recorded as warnings and the
// offending file is treated as fully changed, per the spec's conservative
// failure mode; Read itself only returns an error if the overall diff
// cannot be tokenized into file sections at all.
func Read(diffText string) (*Result, error) {
	result := &Result{}
	if strings.TrimSpace(diffText) == "" {
		return result, nil
	}

	diffText = addMissingRenameSimilarity(diffText)
	fileDiffs, err := godiff.NewMultiFileDiffReader(strings.NewReader(diffText)).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("diffreader: tokenizing unified diff: %w", err)
	}

	for _, fd := range fileDiffs {
		region := regionForFile(fd, result)
		result.Regions = append(result.Regions, region)
	}
	return result, nil
}

// addMissingRenameSimilarity inserts a placeholder similarity line after
// any "diff --git" header directly followed by "rename from". go-diff only
// recognizes a header-only rename section when a similarity line precedes
// the rename lines, and otherwise drops the section without a FileDiff.
func addMissingRenameSimilarity(diffText string) string {
	lines := strings.Split(diffText, "\n")
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		out = append(out, line)
		if strings.HasPrefix(line, "diff --git ") && i+1 < len(lines) && strings.HasPrefix(lines[i+1], "rename from ") {
			out = append(out, "similarity index 0%")
		}
	}
	return strings.Join(out, "\n")
}

func regionForFile(fd *godiff.FileDiff, result *Result) ChangedRegion {
	newPath := cleanDiffPath(fd.NewName)
	oldPath := cleanDiffPath(fd.OrigName)

	region := ChangedRegion{Path: newPath, OldPath: oldPath}

	switch {
	case newPath == "" || newPath == "/dev/null":
		// Deletion: no regions in the new tree. The file's former exports
		// are surfaced by the orchestrator from a pre-diff snapshot or the
		// inverted index's key set, not from this region.
		region.Path = oldPath
		region.Kind = ChangeKindDeleted
		return region

	case oldPath == "" || oldPath == "/dev/null":
		region.Kind = ChangeKindAdded
		// A genuinely new file: the whole file is the changed region. We
		// don't know EOF here (the Diff Reader never reads file content),
		// so the orchestrator is responsible for expanding this into
		// 1..EOF once it has the file's line count; we emit a sentinel
		// range that the orchestrator recognizes and replaces.
		region.Ranges = []Range{{Start: 1, End: -1}}
		return region

	case oldPath != newPath:
		// A rename is modeled as a delete of the old path and a full-file
		// change on the new path, per the spec's rename contract, whether
		// or not go-diff surfaced a similarity-index hint: the absence of
		// that hint says nothing about whether the content also changed.
		region.Kind = ChangeKindRenamed
		region.Ranges = []Range{{Start: 1, End: -1}}
		return region

	default:
		region.Kind = ChangeKindModified
	}

	if isBinaryOrModeOnly(fd) {
		return region
	}

	ranges, malformed, warn := reduceHunks(fd)
	region.Ranges = ranges
	region.Malformed = malformed
	if warn != "" {
		result.Warnings = append(result.Warnings, warn)
	}
	if malformed {
		// Offending file is treated as fully changed.
		region.Ranges = []Range{{Start: 1, End: -1}}
	}
	return region
}

func cleanDiffPath(p string) string {
	p = strings.TrimPrefix(p, "a/")
	p = strings.TrimPrefix(p, "b/")
	return p
}

func isBinaryOrModeOnly(fd *godiff.FileDiff) bool {
	if len(fd.Hunks) > 0 {
		return false
	}
	for _, line := range fd.Extended {
		if strings.HasPrefix(line, "Binary files") || strings.Contains(line, "GIT binary patch") {
			return true
		}
	}
	return len(fd.Extended) > 0
}

// reduceHunks walks each hunk's body line-by-line, tracking the post-image
// line counter, and folds runs of added/context-touching-an-addition lines
// into closed ranges. A deletion-only run at the tail of a hunk contributes
// the empty range immediately after the deletion site.
func reduceHunks(fd *godiff.FileDiff) (ranges []Range, malformed bool, warning string) {
	for _, hunk := range fd.Hunks {
		if hunk.NewLines == 0 && hunk.NewStartLine == 0 {
			malformed = true
			warning = fmt.Sprintf("diffreader: empty/malformed hunk header in %s", cleanDiffPath(fd.NewName))
			continue
		}

		lineNo := int(hunk.NewStartLine)
		var runStart int
		inRun := false
		sawDeletionAtTail := false

		flush := func(end int) {
			if inRun {
				ranges = append(ranges, Range{Start: runStart, End: end})
				inRun = false
			}
		}

		body := string(hunk.Body)
		lines := strings.Split(body, "\n")
		// Split on "\n" leaves a trailing empty element for a body ending
		// in a newline; drop it so it isn't treated as a spurious context line.
		if len(lines) > 0 && lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}

		for _, line := range lines {
			if line == "" {
				continue
			}
			switch line[0] {
			case '+':
				if !inRun {
					runStart = lineNo
					inRun = true
				}
				lineNo++
				sawDeletionAtTail = false
			case '-':
				// Deletion site in the new file: it doesn't advance lineNo,
				// but it marks the current position as changed.
				if !inRun {
					runStart = lineNo
					inRun = true
				}
				sawDeletionAtTail = true
			case '\\':
				// "\ No newline at end of file" marker; ignore.
			default:
				flush(lineNo - 1)
				lineNo++
				sawDeletionAtTail = false
			}
		}
		if sawDeletionAtTail && inRun {
			// Tail deletion: the changed site is the empty range
			// immediately after the deletion (runStart == lineNo here).
			ranges = append(ranges, Range{Start: runStart, End: runStart - 1})
			inRun = false
		} else {
			flush(lineNo - 1)
		}
	}
	return ranges, malformed, warning
}
