package phases

import (
	"fmt"

	"github.com/franceroutage/annuaire/pkg/constants"
	"github.com/franceroutage/annuaire/pkg/similarity"
)

// Method tells how a phase code was matched.
type Method string

// Match methods.
const (
	MethodExact Method = "exact"
	MethodFuzzy Method = "fuzzy"
)

// Match is a successful resolution of an order-line code to a catalog entry.
type Match struct {
	Entry  Entry
	Score  float64
	Method Method
}

// Matcher resolves one normalized phase code against the catalog.
type Matcher interface {
	// Name identifies the matcher in logs and reports
	Name() string

	// Match returns the catalog entry for code, if any
	Match(code string, catalog *Catalog) (Match, bool)
}

// ExactMatcher accepts only a catalog code equal to the order-line code.
type ExactMatcher struct{}

// Name returns the matcher name.
func (ExactMatcher) Name() string {
	return "exact"
}

// Match looks code up in the catalog.
func (ExactMatcher) Match(code string, catalog *Catalog) (Match, bool) {
	e, ok := catalog.Lookup(code)
	if !ok {
		return Match{}, false
	}
	return Match{Entry: e, Score: constants.MaxSimilarityScore, Method: MethodExact}, true
}

// FuzzyMatcher picks the most similar catalog code and accepts it only when
// its score reaches Threshold. Ties go to the lexically smallest code.
type FuzzyMatcher struct {
	Threshold float64
}

// NewFuzzyMatcher validates the threshold (0–100).
func NewFuzzyMatcher(threshold float64) (*FuzzyMatcher, error) {
	if threshold < 0 || threshold > constants.MaxSimilarityScore {
		return nil, fmt.Errorf("fuzzy threshold %.2f out of range [0, 100]", threshold)
	}
	return &FuzzyMatcher{Threshold: threshold}, nil
}

// Name returns the matcher name.
func (m *FuzzyMatcher) Name() string {
	return fmt.Sprintf("fuzzy(>=%g)", m.Threshold)
}

// Match scans every catalog code.
func (m *FuzzyMatcher) Match(code string, catalog *Catalog) (Match, bool) {
	if code == "" {
		return Match{}, false
	}
	bestScore := -1.0
	bestCode := ""
	for _, candidate := range catalog.codes {
		score := similarity.Ratio(code, candidate)
		if score > bestScore {
			bestScore, bestCode = score, candidate
		}
	}
	if bestCode == "" || bestScore < m.Threshold {
		return Match{}, false
	}
	return Match{Entry: catalog.entries[bestCode], Score: bestScore, Method: MethodFuzzy}, true
}

// fallbackMatcher consults fallback only for codes primary could not match,
// so a confirmed primary match is never replaced.
type fallbackMatcher struct {
	primary  Matcher
	fallback Matcher
}

// WithFallback chains primary with a recovery matcher. A nil fallback returns
// primary unchanged.
func WithFallback(primary, fallback Matcher) Matcher {
	if fallback == nil {
		return primary
	}
	return &fallbackMatcher{primary: primary, fallback: fallback}
}

func (m *fallbackMatcher) Name() string {
	return m.primary.Name() + "+" + m.fallback.Name()
}

func (m *fallbackMatcher) Match(code string, catalog *Catalog) (Match, bool) {
	if match, ok := m.primary.Match(code, catalog); ok {
		return match, true
	}
	if catalog.Untitled(code) {
		return Match{}, false
	}
	return m.fallback.Match(code, catalog)
}
