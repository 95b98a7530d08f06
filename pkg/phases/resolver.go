package phases

// Assignment attributes a catalog title to a client through one order line.
type Assignment struct {
	ClientID  string
	Title     string
	PhaseCode string
	LineCode  string
	Method    Method
	Score     float64
	Row       int
}

// Resolution is the outcome of resolving a set of note lines.
type Resolution struct {
	Assignments []Assignment

	Notes          int
	ExactMatches   int
	FuzzyMatches   int
	Unmatched      int
	MissingClient  int
	MissingCode    int
	AmbiguousCodes []string
	ExcludedLines  int
}

// Matched returns how many lines found a catalog entry before the ambiguity
// policy was applied.
func (r Resolution) Matched() int {
	return r.ExactMatches + r.FuzzyMatches
}

// Resolver matches note lines to catalog titles.
type Resolver struct {
	matcher Matcher
	policy  AmbiguityPolicy
}

// NewResolver creates a resolver. Nil arguments select the exact matcher and
// the strict exclusion policy.
func NewResolver(matcher Matcher, policy AmbiguityPolicy) *Resolver {
	if matcher == nil {
		matcher = ExactMatcher{}
	}
	if policy == nil {
		policy = StrictExclusion{}
	}
	return &Resolver{matcher: matcher, policy: policy}
}

// Matcher returns the matcher in use.
func (r *Resolver) Matcher() Matcher {
	return r.matcher
}

// Policy returns the ambiguity policy in use.
func (r *Resolver) Policy() AmbiguityPolicy {
	return r.policy
}

// Resolve matches each note against the catalog. Lines without a client id or
// phase code never join. An unmatched line yields nothing: no error and no
// placeholder title.
func (r *Resolver) Resolve(notes []OrderLine, catalog *Catalog) Resolution {
	res := Resolution{Notes: len(notes)}
	matched := make([]Assignment, 0, len(notes))

	for _, n := range notes {
		switch {
		case n.ClientID == "":
			res.MissingClient++
			continue
		case n.PhaseCode == "":
			res.MissingCode++
			continue
		}

		m, ok := r.matcher.Match(n.PhaseCode, catalog)
		if !ok {
			res.Unmatched++
			continue
		}
		if m.Method == MethodFuzzy {
			res.FuzzyMatches++
		} else {
			res.ExactMatches++
		}
		matched = append(matched, Assignment{
			ClientID:  n.ClientID,
			Title:     m.Entry.Title,
			PhaseCode: m.Entry.Code,
			LineCode:  n.PhaseCode,
			Method:    m.Method,
			Score:     m.Score,
			Row:       n.Row,
		})
	}

	kept, ambiguous := r.applyPolicy(matched)
	res.Assignments = kept
	res.AmbiguousCodes = ambiguous
	res.ExcludedLines = len(matched) - len(kept)
	return res
}

// applyPolicy decides ambiguity over exact matches first. Fuzzy recoveries
// then go through the policy together with every exact match, so they can be
// dropped but can never remove an exact match the policy kept.
func (r *Resolver) applyPolicy(matched []Assignment) ([]Assignment, []string) {
	// Policies see positions in Row so their output maps back to matched
	indexed := make([]Assignment, len(matched))
	var exact []Assignment
	for i, a := range matched {
		a.Row = i
		indexed[i] = a
		if a.Method != MethodFuzzy {
			exact = append(exact, a)
		}
	}
	keptExact, _ := r.policy.Apply(exact)
	keptAll, shared := r.policy.Apply(indexed)

	keep := make([]bool, len(matched))
	confirmed := make(map[string]bool, len(keptExact))
	for _, a := range keptExact {
		keep[a.Row] = true
		confirmed[a.PhaseCode] = true
	}
	for _, a := range keptAll {
		if a.Method == MethodFuzzy {
			keep[a.Row] = true
		}
	}

	kept := make([]Assignment, 0, len(matched))
	rejected := make(map[string]bool)
	for i, a := range matched {
		if keep[i] {
			kept = append(kept, a)
		} else if a.Method == MethodFuzzy {
			rejected[a.PhaseCode] = true
		}
	}

	// A code kept for its exact client and refused to fuzzy lines was not
	// excluded for everyone
	var ambiguous []string
	for _, code := range shared {
		if confirmed[code] && rejected[code] {
			continue
		}
		ambiguous = append(ambiguous, code)
	}
	return kept, ambiguous
}
