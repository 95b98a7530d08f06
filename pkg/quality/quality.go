// Package quality classifies the gap between the loaded roster and the
// produced directory. The classification is advisory: it never changes the
// output.
package quality

import (
	"fmt"
	"math"

	"github.com/franceroutage/annuaire/pkg/constants"
)

// Status is the discrepancy classification.
type Status string

// Classifications.
const (
	StatusExact      Status = "exact"
	StatusAcceptable Status = "acceptable"
	StatusFlagged    Status = "flagged"
)

// Report is the quality gate outcome.
type Report struct {
	RosterCount int     `json:"roster_count" yaml:"roster_count"`
	OutputCount int     `json:"output_count" yaml:"output_count"`
	Discrepancy float64 `json:"discrepancy_percent" yaml:"discrepancy_percent"`
	Status      Status  `json:"status" yaml:"status"`
}

// Evaluate computes |roster - output| / roster × 100 and classifies it with
// the default tolerance. An empty roster is exact when the output is empty
// too and flagged otherwise.
func Evaluate(rosterCount, outputCount int) Report {
	return EvaluateWithTolerance(rosterCount, outputCount, constants.AcceptableDiscrepancyPercent)
}

// EvaluateWithTolerance is Evaluate with a caller-chosen tolerance, in percent.
func EvaluateWithTolerance(rosterCount, outputCount int, tolerance float64) Report {
	r := Report{RosterCount: rosterCount, OutputCount: outputCount}
	gap := math.Abs(float64(rosterCount - outputCount))

	switch {
	case gap == 0:
		r.Discrepancy = 0
	case rosterCount == 0:
		r.Discrepancy = 100
	default:
		r.Discrepancy = gap / float64(rosterCount) * 100
	}

	switch {
	case r.Discrepancy == 0:
		r.Status = StatusExact
	case r.Discrepancy <= tolerance:
		r.Status = StatusAcceptable
	default:
		r.Status = StatusFlagged
	}
	return r
}

// Flagged reports whether the discrepancy exceeds the tolerance.
func (r Report) Flagged() bool {
	return r.Status == StatusFlagged
}

// String renders the report for logs and terminals.
func (r Report) String() string {
	return fmt.Sprintf("%s (%d loaded, %d produced, %.2f%%)", r.Status, r.RosterCount, r.OutputCount, r.Discrepancy)
}
