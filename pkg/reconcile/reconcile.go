package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/franceroutage/annuaire/pkg/aggregate"
	"github.com/franceroutage/annuaire/pkg/columns"
	"github.com/franceroutage/annuaire/pkg/constants"
	"github.com/franceroutage/annuaire/pkg/directory"
	"github.com/franceroutage/annuaire/pkg/errors"
	"github.com/franceroutage/annuaire/pkg/logging"
	"github.com/franceroutage/annuaire/pkg/phases"
	"github.com/franceroutage/annuaire/pkg/quality"
	"github.com/franceroutage/annuaire/pkg/table"
)

// Inputs is the table triple of one run.
type Inputs struct {
	Roster     *table.Table
	OrderLines *table.Table
	Catalog    *table.Table
}

// Validate checks that every table is present.
func (in Inputs) Validate() error {
	switch {
	case in.Roster == nil:
		return errors.NewValidationError("roster", nil, "table is required")
	case in.OrderLines == nil:
		return errors.NewValidationError("order_lines", nil, "table is required")
	case in.Catalog == nil:
		return errors.NewValidationError("phase_catalog", nil, "table is required")
	}
	return nil
}

// Reconciler is the main interface for building a client directory
type Reconciler interface {
	// Reconcile runs the pipeline on one input triple
	Reconcile(ctx context.Context, in Inputs) (*Result, error)

	// Settings describes the effective configuration
	Settings() Settings
}

// Settings is the effective configuration of a Reconciler.
type Settings struct {
	Policy    string  `json:"policy" yaml:"policy"`
	Matcher   string  `json:"matcher" yaml:"matcher"`
	Tolerance float64 `json:"tolerance_percent" yaml:"tolerance_percent"`
}

// String renders the settings in a stable form, usable as a cache key part.
func (s Settings) String() string {
	return fmt.Sprintf("policy=%s matcher=%s tolerance=%g", s.Policy, s.Matcher, s.Tolerance)
}

// reconciler is the default implementation of Reconciler
type reconciler struct {
	columns   *columns.Resolver
	policy    phases.AmbiguityPolicy
	fallback  phases.Matcher
	tolerance float64
}

// New creates a new Reconciler with options. Defaults: built-in aliases,
// strict exclusion, exact matching only, 1% tolerance.
func New(opts ...Option) (Reconciler, error) {
	r := &reconciler{
		columns:   columns.NewResolver(nil),
		policy:    phases.StrictExclusion{},
		tolerance: constants.AcceptableDiscrepancyPercent,
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, errors.NewConfigError("reconciler", err.Error(), err)
		}
	}

	return r, nil
}

func (r *reconciler) matcher() phases.Matcher {
	return phases.WithFallback(phases.ExactMatcher{}, r.fallback)
}

// Settings returns the effective configuration
func (r *reconciler) Settings() Settings {
	return Settings{
		Policy:    r.policy.Name(),
		Matcher:   r.matcher().Name(),
		Tolerance: r.tolerance,
	}
}

// Reconcile runs the pipeline. Column resolution failures abort the run
// before anything is computed.
func (r *reconciler) Reconcile(ctx context.Context, in Inputs) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrCanceled, err)
	}

	runID := uuid.NewString()
	ctx = logging.WithFields(logging.WithRun(ctx, runID), map[string]any{
		"policy":  r.policy.Name(),
		"matcher": r.matcher().Name(),
	})
	logger := logging.FromContext(ctx)

	rb := NewResultBuilder(runID).WithSettings(r.Settings())

	// Bind every table first so a missing column fails the run before any work
	rosterCols, err := r.bind(ctx, in.Roster, columns.Roster)
	if err != nil {
		return nil, err
	}
	lineCols, err := r.bind(ctx, in.OrderLines, columns.OrderLines)
	if err != nil {
		return nil, err
	}
	catalogCols, err := r.bind(ctx, in.Catalog, columns.Catalog)
	if err != nil {
		return nil, err
	}

	roster := directory.LoadRoster(in.Roster, rosterCols)
	logging.FromContext(logging.WithStage(ctx, "roster")).Debug().
		Int("loaded", roster.Loaded).
		Int("clients", roster.Len()).
		Int("duplicates", len(roster.Duplicates)).
		Int("empty_ids", roster.EmptyIDs).
		Bool("compound_key", roster.CompoundKey).
		Msg("Roster loaded")

	notes := phases.ExtractNotes(in.OrderLines, lineCols)
	logging.FromContext(logging.WithStage(ctx, "notes")).Debug().
		Int("order_lines", in.OrderLines.Len()).
		Int("notes", len(notes)).
		Msg("Note lines extracted")

	catalog := phases.BuildCatalog(in.Catalog, catalogCols)
	logging.FromContext(logging.WithStage(ctx, "catalog")).Debug().
		Int("rows", in.Catalog.Len()).
		Int("codes", catalog.Len()).
		Int("duplicates", len(catalog.Duplicates())).
		Int("skipped", catalog.Skipped()).
		Msg("Phase catalog deduplicated")

	resolution := phases.NewResolver(r.matcher(), r.policy).Resolve(notes, catalog)
	logging.FromContext(logging.WithStage(ctx, "resolve")).Debug().
		Int("exact", resolution.ExactMatches).
		Int("fuzzy", resolution.FuzzyMatches).
		Int("unmatched", resolution.Unmatched).
		Int("ambiguous_codes", len(resolution.AmbiguousCodes)).
		Int("excluded_lines", resolution.ExcludedLines).
		Msg("Phase codes resolved")

	titles := aggregate.ByClient(resolution.Assignments)
	dir := directory.Merge(roster, titles)
	logging.FromContext(logging.WithStage(ctx, "merge")).Debug().
		Int("titled_clients", len(titles)).
		Int("rows", dir.Len()).
		Msg("Directory merged")

	if dir.Len() != roster.Len() {
		// Merge is a left join over the deduplicated roster; anything else is a bug
		return nil, fmt.Errorf("directory has %d rows for %d roster clients", dir.Len(), roster.Len())
	}

	report := quality.EvaluateWithTolerance(roster.Loaded, dir.Len(), r.tolerance)

	rb.WithDirectory(dir).
		WithAmbiguousCodes(resolution.AmbiguousCodes).
		WithQuality(report).
		WithStatistics(Statistics{
			RosterLoaded:      roster.Loaded,
			RosterClients:     roster.Len(),
			RosterDuplicates:  len(roster.Duplicates),
			EmptyClientIDs:    roster.EmptyIDs,
			OrderLines:        in.OrderLines.Len(),
			Notes:             len(notes),
			CatalogRows:       in.Catalog.Len(),
			CatalogCodes:      catalog.Len(),
			CatalogDuplicates: len(catalog.Duplicates()),
			ExactMatches:      resolution.ExactMatches,
			FuzzyMatches:      resolution.FuzzyMatches,
			Unmatched:         resolution.Unmatched,
			AmbiguousCodes:    len(resolution.AmbiguousCodes),
			ExcludedLines:     resolution.ExcludedLines,
			Assignments:       len(resolution.Assignments),
			TitledClients:     dir.Titled(),
			OutputRows:        dir.Len(),
		})

	for _, w := range collectWarnings(roster, notes, catalog, resolution, report, r.policy) {
		rb.WithWarning(w)
		logger.Warn().Str("kind", string(w.Kind)).Int("count", w.Count).Msg(w.Message)
	}

	result := rb.Build()
	logger.Info().
		Int("roster", report.RosterCount).
		Int("rows", report.OutputCount).
		Float64("discrepancy", report.Discrepancy).
		Str("status", string(report.Status)).
		Dur("duration", result.Metadata.Duration).
		Msg("Directory reconciled")

	return result, nil
}

func (r *reconciler) bind(ctx context.Context, t *table.Table, kind columns.Kind) (columns.Binding, error) {
	b, err := r.columns.Bind(t, kind)
	if err != nil {
		logging.FromContext(logging.WithTable(ctx, string(kind))).Error().Err(err).Msg("Column resolution failed")
		return columns.Binding{}, err
	}
	return b, nil
}
