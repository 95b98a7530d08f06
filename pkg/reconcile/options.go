package reconcile

import (
	"fmt"

	"github.com/franceroutage/annuaire/pkg/columns"
	"github.com/franceroutage/annuaire/pkg/phases"
)

// Option configures a Reconciler
type Option func(*reconciler) error

// WithPolicy sets the ambiguity policy for phase codes shared by clients
func WithPolicy(policy phases.AmbiguityPolicy) Option {
	return func(r *reconciler) error {
		if policy == nil {
			return fmt.Errorf("policy cannot be nil")
		}
		r.policy = policy
		return nil
	}
}

// WithPolicyName selects the ambiguity policy by name (strict or permissive)
func WithPolicyName(name string) Option {
	return func(r *reconciler) error {
		policy, err := phases.ParsePolicy(name)
		if err != nil {
			return err
		}
		r.policy = policy
		return nil
	}
}

// WithFuzzyFallback enables near-match recovery for codes with no exact
// catalog entry. Exact matches are never replaced.
func WithFuzzyFallback(threshold float64) Option {
	return func(r *reconciler) error {
		fm, err := phases.NewFuzzyMatcher(threshold)
		if err != nil {
			return err
		}
		r.fallback = fm
		return nil
	}
}

// WithFallbackMatcher installs a custom recovery matcher. Nil disables it.
func WithFallbackMatcher(m phases.Matcher) Option {
	return func(r *reconciler) error {
		r.fallback = m
		return nil
	}
}

// WithAliases replaces the column alias table
func WithAliases(aliases columns.AliasTable) Option {
	return func(r *reconciler) error {
		if len(aliases) == 0 {
			return fmt.Errorf("alias table cannot be empty")
		}
		r.columns = columns.NewResolver(aliases)
		return nil
	}
}

// WithTolerance overrides the acceptable discrepancy, in percent
func WithTolerance(percent float64) Option {
	return func(r *reconciler) error {
		if percent < 0 || percent > 100 {
			return fmt.Errorf("tolerance %.2f out of range [0, 100]", percent)
		}
		r.tolerance = percent
		return nil
	}
}
