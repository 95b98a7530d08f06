package annuaire

import (
	"time"

	"github.com/franceroutage/annuaire/pkg/columns"
	"github.com/franceroutage/annuaire/pkg/constants"
	"github.com/franceroutage/annuaire/pkg/reconcile"
)

// Option is a function that configures an Annuaire instance
type Option func(*config) error

// config holds the facade settings
type config struct {
	reconcileOpts []reconcile.Option
	aliases       columns.AliasTable
	cacheTTL      time.Duration
}

func defaultConfig() *config {
	return &config{
		aliases:  columns.DefaultAliases(),
		cacheTTL: constants.DefaultCacheTTL,
	}
}

// WithPolicy selects the ambiguity policy by name: "strict" (default) drops
// phase codes shared by several clients, "permissive" attributes them to all.
func WithPolicy(name string) Option {
	return func(c *config) error {
		c.reconcileOpts = append(c.reconcileOpts, reconcile.WithPolicyName(name))
		return nil
	}
}

// WithFuzzyFallback enables near-match recovery of unmatched phase codes at
// the given similarity threshold (0–100).
func WithFuzzyFallback(threshold float64) Option {
	return func(c *config) error {
		c.reconcileOpts = append(c.reconcileOpts, reconcile.WithFuzzyFallback(threshold))
		return nil
	}
}

// WithAliases adds column aliases. They take priority over the built-in ones.
func WithAliases(extra columns.AliasTable) Option {
	return func(c *config) error {
		c.aliases = c.aliases.Extend(extra)
		return nil
	}
}

// WithTolerance overrides the acceptable discrepancy, in percent
func WithTolerance(percent float64) Option {
	return func(c *config) error {
		c.reconcileOpts = append(c.reconcileOpts, reconcile.WithTolerance(percent))
		return nil
	}
}

// WithCache configures how long identical runs are memoized. Zero disables
// memoization.
func WithCache(ttl time.Duration) Option {
	return func(c *config) error {
		c.cacheTTL = ttl
		return nil
	}
}
