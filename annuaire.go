package annuaire

import (
	"context"
	"fmt"

	"github.com/franceroutage/annuaire/internal/cache"
	"github.com/franceroutage/annuaire/pkg/constants"
	"github.com/franceroutage/annuaire/pkg/logging"
	"github.com/franceroutage/annuaire/pkg/reconcile"
)

// Annuaire builds client directories with memoization and event hooks
type Annuaire interface {
	// Reconcile runs the pipeline, or returns the memoized result of an
	// identical earlier run
	Reconcile(ctx context.Context, in reconcile.Inputs) (*reconcile.Result, error)

	// Settings returns the effective pipeline settings
	Settings() reconcile.Settings

	// CacheStats returns memoization statistics
	CacheStats() cache.Stats

	// OnRunCompleted registers a callback for completed runs
	OnRunCompleted(RunCompletedHook)

	// OnWarning registers a callback for data-quality warnings
	OnWarning(WarningHook)
}

// annuaire is the internal implementation of the Annuaire interface
type annuaire struct {
	reconciler reconcile.Reconciler
	config     *config
	cache      *cache.Cache

	*hooks
}

// New creates a new Annuaire instance with the given options
func New(opts ...Option) (Annuaire, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}

	rec, err := reconcile.New(append([]reconcile.Option{reconcile.WithAliases(cfg.aliases)}, cfg.reconcileOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating reconciler: %w", err)
	}

	a := &annuaire{
		reconciler: rec,
		config:     cfg,
		hooks:      newHooks(),
	}
	if cfg.cacheTTL > 0 {
		a.cache = cache.New(cfg.cacheTTL, constants.DefaultCacheCleanupInterval)
	}
	return a, nil
}

// Settings returns the effective pipeline settings
func (a *annuaire) Settings() reconcile.Settings {
	return a.reconciler.Settings()
}

// CacheStats returns memoization statistics
func (a *annuaire) CacheStats() cache.Stats {
	if a.cache == nil {
		return cache.Stats{}
	}
	return a.cache.GetStats()
}

// Reconcile runs the pipeline on in. Identical inputs under identical
// settings return the stored result, marked Cached.
func (a *annuaire) Reconcile(ctx context.Context, in reconcile.Inputs) (*reconcile.Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var key string
	if a.cache != nil {
		key = a.cacheKey(in)
		if v, ok := a.cache.Get(key); ok {
			if stored, ok := v.(*reconcile.Result); ok {
				hit := stored.Clone()
				hit.Cached = true
				logging.FromContext(ctx).Debug().
					Str("run_id", hit.RunID).
					Msg("Serving memoized directory")
				a.triggerRun(hit)
				return hit, nil
			}
		}
	}

	result, err := a.reconciler.Reconcile(ctx, in)
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		a.cache.Set(key, result.Clone())
	}

	a.triggerRun(result)
	return result, nil
}

func (a *annuaire) cacheKey(in reconcile.Inputs) string {
	settings := a.reconciler.Settings().String() + " aliases=" + a.config.aliases.String()
	return cache.Key(settings,
		in.Roster.Fingerprint(),
		in.OrderLines.Fingerprint(),
		in.Catalog.Fingerprint(),
	)
}
