package reconcile

import (
	"fmt"
	"strings"

	"github.com/franceroutage/annuaire/pkg/directory"
	"github.com/franceroutage/annuaire/pkg/phases"
	"github.com/franceroutage/annuaire/pkg/quality"
)

// WarningKind classifies a data-quality warning.
type WarningKind string

// Warning kinds. None of them stops a run.
const (
	WarnNoNotes           WarningKind = "no_notes"
	WarnCatalogDuplicates WarningKind = "catalog_duplicates"
	WarnRosterDuplicates  WarningKind = "roster_duplicates"
	WarnEmptyClientIDs    WarningKind = "empty_client_ids"
	WarnAmbiguousCodes    WarningKind = "ambiguous_codes"
	WarnDiscrepancy       WarningKind = "discrepancy"
)

// Warning is a non-fatal data-quality condition.
type Warning struct {
	Kind    WarningKind `json:"kind" yaml:"kind"`
	Message string      `json:"message" yaml:"message"`
	Count   int         `json:"count" yaml:"count"`
}

const maxExamples = 5

func collectWarnings(
	roster directory.Roster,
	notes []phases.OrderLine,
	catalog *phases.Catalog,
	res phases.Resolution,
	report quality.Report,
	policy phases.AmbiguityPolicy,
) []Warning {
	var out []Warning

	if len(notes) == 0 {
		out = append(out, Warning{
			Kind:    WarnNoNotes,
			Message: "no NOTE order lines found; every client gets no title",
		})
	}

	if dups := catalog.Duplicates(); len(dups) > 0 {
		codes := make([]string, 0, len(dups))
		for _, d := range dups {
			codes = append(codes, d.Code)
		}
		out = append(out, Warning{
			Kind:    WarnCatalogDuplicates,
			Message: fmt.Sprintf("phase catalog has %d duplicate rows, first title kept (%s)", len(dups), examples(codes)),
			Count:   len(dups),
		})
	}

	if len(roster.Duplicates) > 0 {
		ids := make([]string, 0, len(roster.Duplicates))
		for _, d := range roster.Duplicates {
			ids = append(ids, d.ClientID)
		}
		out = append(out, Warning{
			Kind:    WarnRosterDuplicates,
			Message: fmt.Sprintf("roster has %d duplicate rows, first row kept (%s)", len(roster.Duplicates), examples(ids)),
			Count:   len(roster.Duplicates),
		})
	}

	if roster.EmptyIDs > 0 {
		out = append(out, Warning{
			Kind:    WarnEmptyClientIDs,
			Message: fmt.Sprintf("roster has %d rows without a client id, dropped", roster.EmptyIDs),
			Count:   roster.EmptyIDs,
		})
	}

	if len(res.AmbiguousCodes) > 0 {
		action := "excluded for every client"
		if policy.Name() == phases.PolicyPermissive {
			action = "shared by every client"
		}
		out = append(out, Warning{
			Kind: WarnAmbiguousCodes,
			Message: fmt.Sprintf("%d phase codes resolve for several clients, %s (%s)",
				len(res.AmbiguousCodes), action, examples(res.AmbiguousCodes)),
			Count: len(res.AmbiguousCodes),
		})
	}

	if report.Flagged() {
		out = append(out, Warning{
			Kind:    WarnDiscrepancy,
			Message: fmt.Sprintf("discrepancy %.2f%% between roster (%d) and directory (%d)", report.Discrepancy, report.RosterCount, report.OutputCount),
			Count:   abs(report.RosterCount - report.OutputCount),
		})
	}

	return out
}

func examples(values []string) string {
	if len(values) <= maxExamples {
		return strings.Join(values, ", ")
	}
	return strings.Join(values[:maxExamples], ", ") + fmt.Sprintf(", +%d more", len(values)-maxExamples)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
