// Package config reads the pipeline settings from viper: config file,
// environment (ANNUAIRE_*) and flags bound by the CLI.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/franceroutage/annuaire"
	"github.com/franceroutage/annuaire/pkg/columns"
	"github.com/franceroutage/annuaire/pkg/constants"
	"github.com/franceroutage/annuaire/pkg/errors"
	"github.com/franceroutage/annuaire/pkg/phases"
)

// Viper keys.
const (
	KeyPolicy         = "ambiguity_policy"
	KeyFuzzyEnabled   = "fuzzy.enabled"
	KeyFuzzyThreshold = "fuzzy.threshold"
	KeyTolerance      = "tolerance"
	KeyAliasesFile    = "aliases_file"
	KeyCacheTTL       = "cache.ttl"
)

// EnvPrefix is the prefix of environment overrides, e.g. ANNUAIRE_FUZZY_ENABLED.
const EnvPrefix = "ANNUAIRE"

// Pipeline holds the reconciliation settings.
type Pipeline struct {
	Policy         string        `mapstructure:"ambiguity_policy" yaml:"ambiguity_policy"`
	FuzzyEnabled   bool          `mapstructure:"fuzzy_enabled" yaml:"fuzzy_enabled"`
	FuzzyThreshold float64       `mapstructure:"fuzzy_threshold" yaml:"fuzzy_threshold"`
	Tolerance      float64       `mapstructure:"tolerance" yaml:"tolerance"`
	AliasesFile    string        `mapstructure:"aliases_file" yaml:"aliases_file,omitempty"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
}

// SetDefaults registers the pipeline defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyPolicy, phases.PolicyStrict)
	v.SetDefault(KeyFuzzyEnabled, false)
	v.SetDefault(KeyFuzzyThreshold, constants.DefaultFuzzyThreshold)
	v.SetDefault(KeyTolerance, constants.AcceptableDiscrepancyPercent)
	v.SetDefault(KeyAliasesFile, "")
	v.SetDefault(KeyCacheTTL, constants.DefaultCacheTTL)
}

// Load reads and validates the pipeline settings from v.
func Load(v *viper.Viper) (Pipeline, error) {
	SetDefaults(v)
	p := Pipeline{
		Policy:         v.GetString(KeyPolicy),
		FuzzyEnabled:   v.GetBool(KeyFuzzyEnabled),
		FuzzyThreshold: v.GetFloat64(KeyFuzzyThreshold),
		Tolerance:      v.GetFloat64(KeyTolerance),
		AliasesFile:    v.GetString(KeyAliasesFile),
		CacheTTL:       v.GetDuration(KeyCacheTTL),
	}
	if err := p.Validate(); err != nil {
		return Pipeline{}, err
	}
	return p, nil
}

// Validate checks value ranges.
func (p Pipeline) Validate() error {
	if _, err := phases.ParsePolicy(p.Policy); err != nil {
		return errors.NewConfigError("config", err.Error(), err)
	}
	if p.FuzzyThreshold < 0 || p.FuzzyThreshold > constants.MaxSimilarityScore {
		return errors.NewConfigError("config", fmt.Sprintf("%s must be within [0, 100], got %g", KeyFuzzyThreshold, p.FuzzyThreshold), nil)
	}
	if p.Tolerance < 0 || p.Tolerance > 100 {
		return errors.NewConfigError("config", fmt.Sprintf("%s must be within [0, 100], got %g", KeyTolerance, p.Tolerance), nil)
	}
	if p.CacheTTL < 0 {
		return errors.NewConfigError("config", fmt.Sprintf("%s cannot be negative", KeyCacheTTL), nil)
	}
	return nil
}

// Options converts the settings into facade options. The alias file, when
// set, is read here.
func (p Pipeline) Options() ([]annuaire.Option, error) {
	opts := []annuaire.Option{
		annuaire.WithPolicy(p.Policy),
		annuaire.WithTolerance(p.Tolerance),
		annuaire.WithCache(p.CacheTTL),
	}
	if p.FuzzyEnabled {
		opts = append(opts, annuaire.WithFuzzyFallback(p.FuzzyThreshold))
	}
	if p.AliasesFile != "" {
		aliases, err := ReadAliases(p.AliasesFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, annuaire.WithAliases(aliases))
	}
	return opts, nil
}

// ReadAliases loads a YAML alias file.
func ReadAliases(path string) (columns.AliasTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer func() { _ = f.Close() }()
	return columns.LoadAliases(f, path)
}

// EnvKeyReplacer maps nested keys to environment names: fuzzy.enabled is
// read from ANNUAIRE_FUZZY_ENABLED.
func EnvKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_", "-", "_")
}
