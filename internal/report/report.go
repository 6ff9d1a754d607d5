// Package report assembles the structured, machine-readable output of
// one orchestrator run: the affected project set, the chains that
// explain why each file was reached, and the run's diagnostics.
package report

import (
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"

	"github.com/aleutian-oss/trueaffected/internal/reference"
	"github.com/aleutian-oss/trueaffected/internal/workspace"
)

// ChainEntry is one affected file's provenance, flattened for JSON
// output.
type ChainEntry struct {
	File          string `json:"file"`
	ViaFile       string `json:"via_file,omitempty"`
	ViaSymbol     string `json:"via_symbol,omitempty"`
	SourceFile    string `json:"source_file"`
	SourceSymbol  string `json:"source_symbol"`
	Depth         int    `json:"depth"`
}

// Diagnostics mirrors workspace.Diagnostics in the report's own JSON
// shape (avoids leaking internal package types across the report
// boundary).
type Diagnostics struct {
	ParseFailures      []string `json:"parse_failures,omitempty"`
	ResolutionFailures []string `json:"resolution_failures,omitempty"`
	DiffWarnings       []string `json:"diff_warnings,omitempty"`
	OrphanFiles        []string `json:"orphan_files,omitempty"`
}

// Report is the final structured output of one run.
type Report struct {
	RunID            string        `json:"run_id"`
	GeneratedAt      strfmt.DateTime `json:"generated_at"`
	AffectedProjects []string      `json:"affected_projects"`
	Chains           []ChainEntry  `json:"chains"`
	Diagnostics      Diagnostics   `json:"diagnostics"`
	DurationMS       int64         `json:"duration_ms"`
	Truncated        bool          `json:"truncated,omitempty"`
	Warnings         []string      `json:"warnings,omitempty"`
}

// New assembles a Report from the orchestrator's intermediate results.
func New(projects []string, result *reference.Result, diag workspace.Diagnostics, duration time.Duration) Report {
	chains := make([]ChainEntry, 0, len(result.Chains))
	for file, chain := range result.Chains {
		chains = append(chains, ChainEntry{
			File:         file,
			ViaFile:      chain.ViaFile,
			ViaSymbol:    chain.ViaSymbol,
			SourceFile:   chain.Source.File,
			SourceSymbol: chain.Source.Symbol,
			Depth:        chain.Depth,
		})
	}

	return Report{
		RunID:            uuid.NewString(),
		GeneratedAt:      strfmt.DateTime(time.Now()),
		AffectedProjects: projects,
		Chains:           chains,
		Diagnostics:      fromWorkspaceDiagnostics(diag),
		DurationMS:       duration.Milliseconds(),
	}
}

func fromWorkspaceDiagnostics(d workspace.Diagnostics) Diagnostics {
	out := Diagnostics{DiffWarnings: d.DiffWarnings}
	for _, f := range d.ParseFailures {
		out.ParseFailures = append(out.ParseFailures, f.FilePath)
	}
	for _, f := range d.ResolutionFailures {
		out.ResolutionFailures = append(out.ResolutionFailures, f.FromFile+" -> "+f.Specifier)
	}
	return out
}
