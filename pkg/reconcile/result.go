package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/utc"

	"github.com/franceroutage/annuaire/pkg/directory"
	"github.com/franceroutage/annuaire/pkg/quality"
)

// Result represents the outcome of a reconciliation run
type Result struct {
	// RunID identifies the run in logs and exports
	RunID string

	// Directory is the complete output, one row per deduplicated roster client
	Directory *directory.Directory

	// Quality is the discrepancy classification
	Quality quality.Report

	// Warnings contains the data-quality conditions met during the run
	Warnings []Warning

	// AmbiguousCodes lists phase codes resolved for more than one client
	AmbiguousCodes []string

	// Cached is set when the result was served from a memoized run
	Cached bool

	// Metadata about the run
	Metadata ResultMetadata
}

// ResultMetadata contains metadata about the run
type ResultMetadata struct {
	// StartTime when the run started
	StartTime time.Time

	// CompletedAt when the run completed
	CompletedAt utc.Time

	// Duration of the run
	Duration time.Duration

	// Settings in effect
	Settings Settings

	// Stats about the run
	Stats Statistics
}

// Statistics contains the counters reported alongside the directory
type Statistics struct {
	RosterLoaded     int `json:"roster_loaded" yaml:"roster_loaded"`
	RosterClients    int `json:"roster_clients" yaml:"roster_clients"`
	RosterDuplicates int `json:"roster_duplicates" yaml:"roster_duplicates"`
	EmptyClientIDs   int `json:"empty_client_ids" yaml:"empty_client_ids"`

	OrderLines int `json:"order_lines" yaml:"order_lines"`
	Notes      int `json:"notes" yaml:"notes"`

	CatalogRows       int `json:"catalog_rows" yaml:"catalog_rows"`
	CatalogCodes      int `json:"catalog_codes" yaml:"catalog_codes"`
	CatalogDuplicates int `json:"catalog_duplicates" yaml:"catalog_duplicates"`

	ExactMatches   int `json:"exact_matches" yaml:"exact_matches"`
	FuzzyMatches   int `json:"fuzzy_matches" yaml:"fuzzy_matches"`
	Unmatched      int `json:"unmatched" yaml:"unmatched"`
	AmbiguousCodes int `json:"ambiguous_codes" yaml:"ambiguous_codes"`
	ExcludedLines  int `json:"excluded_lines" yaml:"excluded_lines"`
	Assignments    int `json:"assignments" yaml:"assignments"`

	TitledClients int `json:"titled_clients" yaml:"titled_clients"`
	OutputRows    int `json:"output_rows" yaml:"output_rows"`
}

// Matches returns the resolved note count, exact and fuzzy.
func (s Statistics) Matches() int {
	return s.ExactMatches + s.FuzzyMatches
}

// Clone returns a copy of the result that shares no slice with r. The
// directory is immutable and stays shared.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	c := *r
	if r.Warnings != nil {
		c.Warnings = append([]Warning(nil), r.Warnings...)
	}
	if r.AmbiguousCodes != nil {
		c.AmbiguousCodes = append([]string(nil), r.AmbiguousCodes...)
	}
	return &c
}

// HasWarnings returns true if there were warnings
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Warning returns the first warning of a kind.
func (r *Result) Warning(kind WarningKind) (Warning, bool) {
	for _, w := range r.Warnings {
		if w.Kind == kind {
			return w, true
		}
	}
	return Warning{}, false
}

// Summary returns a one-line human-readable summary of the result
func (r *Result) Summary() string {
	s := r.Metadata.Stats
	summary := fmt.Sprintf("%d clients, %d with titles, %d notes, %d matches; quality %s",
		s.OutputRows, s.TitledClients, s.Notes, s.Matches(), r.Quality)
	if r.HasWarnings() {
		summary += fmt.Sprintf(", %d warnings", len(r.Warnings))
	}
	return summary
}

// Report generates a detailed plain-text report of the run
func (r *Result) Report() string {
	var b strings.Builder
	s := r.Metadata.Stats

	fmt.Fprintf(&b, `
Reconciliation Report
=====================
Run: %s
Completed: %s
Duration: %s
Settings: %s

`, r.RunID, r.Metadata.CompletedAt.Format(time.RFC3339), r.Metadata.Duration, r.Metadata.Settings)

	fmt.Fprintf(&b, `Statistics:
-----------
Roster Rows Loaded: %d
Roster Clients: %d
Order Lines: %d
Note Lines: %d
Catalog Codes: %d
Matches: %d (exact %d, fuzzy %d)
Titled Clients: %d
Directory Rows: %d

`, s.RosterLoaded, s.RosterClients, s.OrderLines, s.Notes, s.CatalogCodes,
		s.Matches(), s.ExactMatches, s.FuzzyMatches, s.TitledClients, s.OutputRows)

	fmt.Fprintf(&b, `Quality:
--------
%s

`, r.Quality)

	if r.HasWarnings() {
		fmt.Fprintf(&b, `Warnings (%d):
--------------
`, len(r.Warnings))
		for i, w := range r.Warnings {
			fmt.Fprintf(&b, "%d. %s\n", i+1, w.Message)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// ResultBuilder helps construct Result objects
type ResultBuilder struct {
	result *Result
}

// NewResultBuilder creates a new ResultBuilder
func NewResultBuilder(runID string) *ResultBuilder {
	return &ResultBuilder{
		result: &Result{
			RunID:    runID,
			Warnings: []Warning{},
			Metadata: ResultMetadata{
				StartTime: time.Now(),
			},
		},
	}
}

// WithDirectory sets the output directory
func (b *ResultBuilder) WithDirectory(d *directory.Directory) *ResultBuilder {
	b.result.Directory = d
	return b
}

// WithQuality sets the quality report
func (b *ResultBuilder) WithQuality(q quality.Report) *ResultBuilder {
	b.result.Quality = q
	return b
}

// WithAmbiguousCodes sets the ambiguous phase codes
func (b *ResultBuilder) WithAmbiguousCodes(codes []string) *ResultBuilder {
	b.result.AmbiguousCodes = codes
	return b
}

// WithWarning adds a warning
func (b *ResultBuilder) WithWarning(w Warning) *ResultBuilder {
	b.result.Warnings = append(b.result.Warnings, w)
	return b
}

// WithSettings records the effective settings
func (b *ResultBuilder) WithSettings(s Settings) *ResultBuilder {
	b.result.Metadata.Settings = s
	return b
}

// WithStatistics sets the result statistics
func (b *ResultBuilder) WithStatistics(stats Statistics) *ResultBuilder {
	b.result.Metadata.Stats = stats
	return b
}

// Build finalizes and returns the Result
func (b *ResultBuilder) Build() *Result {
	b.result.Metadata.CompletedAt = utc.Now()
	b.result.Metadata.Duration = time.Since(b.result.Metadata.StartTime)
	return b.result
}
