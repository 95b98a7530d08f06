package phases_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franceroutage/annuaire/pkg/columns"
	"github.com/franceroutage/annuaire/pkg/phases"
	"github.com/franceroutage/annuaire/pkg/table"
)

func bind(t *testing.T, tbl *table.Table, kind columns.Kind) columns.Binding {
	t.Helper()
	b, err := columns.NewResolver(nil).Bind(tbl, kind)
	require.NoError(t, err)
	return b
}

func orderLines(t *testing.T, rows ...[]string) ([]phases.OrderLine, int) {
	t.Helper()
	tbl := table.New("lines", []string{"CT_Num", "AR_Ref", "DL_Design", "DO_Piece"}, rows)
	return phases.ExtractNotes(tbl, bind(t, tbl, columns.OrderLines)), tbl.Len()
}

func TestBuildCatalogFirstSeenWins(t *testing.T) {
	tbl := table.New("catalog", []string{"Phase", "Titre"}, [][]string{
		{"555", "Premier"},
		{"555", "Second"},
		{" 556 ", " Autre "},
		{"", "Sans code"},
		{"557", ""},
	})
	cat := phases.BuildCatalog(tbl, bind(t, tbl, columns.Catalog))

	assert.Equal(t, 2, cat.Len())
	assert.Equal(t, []string{"555", "556"}, cat.Codes())
	assert.Equal(t, 2, cat.Skipped())

	e, ok := cat.Lookup("555")
	require.True(t, ok)
	assert.Equal(t, "Premier", e.Title)

	e, ok = cat.Lookup("556")
	require.True(t, ok)
	assert.Equal(t, "Autre", e.Title)

	require.Len(t, cat.Duplicates(), 1)
	assert.Equal(t, phases.Duplicate{Code: "555", KeptTitle: "Premier", DroppedTitle: "Second", Row: 1}, cat.Duplicates()[0])

	_, ok = cat.Lookup("")
	assert.False(t, ok)
}

func TestExtractNotes(t *testing.T) {
	notes, total := orderLines(t,
		[]string{"a1", "Note", "{note}1000", "bl-1"},
		[]string{"A2", "Facture", "9999", "FA-2"},
		[]string{" a3 ", " NOTE ", "{NOTE} 20-00", ""},
	)

	assert.Equal(t, 3, total)
	require.Len(t, notes, 2)
	assert.Equal(t, phases.OrderLine{Row: 0, ClientID: "A1", PhaseCode: "1000", Design: "{note}1000", Reference: "BL-1"}, notes[0])
	assert.Equal(t, "A3", notes[1].ClientID)
	assert.Equal(t, "2000", notes[1].PhaseCode)
}

func TestExactMatcher(t *testing.T) {
	cat := phases.NewCatalog([]phases.Entry{{Code: "1000", Title: "Réparation"}})

	m, ok := phases.ExactMatcher{}.Match("1000", cat)
	require.True(t, ok)
	assert.Equal(t, "Réparation", m.Entry.Title)
	assert.Equal(t, phases.MethodExact, m.Method)
	assert.Equal(t, 100.0, m.Score)

	_, ok = phases.ExactMatcher{}.Match("1001", cat)
	assert.False(t, ok)
}

func TestFuzzyMatcher(t *testing.T) {
	long := "PHASE00000000000000000000000000000000000000000000001"
	near := "PHASE00000000000000000000000000000000000000000000002"
	cat := phases.NewCatalog([]phases.Entry{
		{Code: long, Title: "Longue"},
		{Code: "1000", Title: "Courte"},
	})

	fm, err := phases.NewFuzzyMatcher(98)
	require.NoError(t, err)

	m, ok := fm.Match(near, cat)
	require.True(t, ok)
	assert.Equal(t, "Longue", m.Entry.Title)
	assert.Equal(t, phases.MethodFuzzy, m.Method)
	assert.GreaterOrEqual(t, m.Score, 98.0)

	_, ok = fm.Match("1001", cat)
	assert.False(t, ok, "short codes one edit apart stay unmatched")

	_, err = phases.NewFuzzyMatcher(120)
	assert.Error(t, err)
	_, err = phases.NewFuzzyMatcher(-1)
	assert.Error(t, err)
}

func TestFuzzyMatcherTieBreaksLexically(t *testing.T) {
	cat := phases.NewCatalog([]phases.Entry{
		{Code: "AB2", Title: "Deux"},
		{Code: "AB1", Title: "Un"},
	})
	fm := &phases.FuzzyMatcher{Threshold: 50}

	m, ok := fm.Match("AB9", cat)
	require.True(t, ok)
	assert.Equal(t, "AB1", m.Entry.Code)
}

func TestWithFallbackNeverOverridesExact(t *testing.T) {
	cat := phases.NewCatalog([]phases.Entry{
		{Code: "1000", Title: "Exact"},
		{Code: "1001", Title: "Proche"},
	})
	m := phases.WithFallback(phases.ExactMatcher{}, &phases.FuzzyMatcher{Threshold: 0})

	got, ok := m.Match("1000", cat)
	require.True(t, ok)
	assert.Equal(t, "Exact", got.Entry.Title)
	assert.Equal(t, phases.MethodExact, got.Method)

	got, ok = m.Match("1002", cat)
	require.True(t, ok)
	assert.Equal(t, phases.MethodFuzzy, got.Method)

	assert.Equal(t, phases.ExactMatcher{}, phases.WithFallback(phases.ExactMatcher{}, nil))
	assert.Equal(t, "exact+fuzzy(>=0)", m.Name())
}

func TestResolverSkipsUnjoinableLines(t *testing.T) {
	notes, _ := orderLines(t,
		[]string{"", "Note", "{note}1000", ""},
		[]string{"C1", "Note", "{note}", ""},
		[]string{"C1", "Note", "{note}4242", ""},
		[]string{"C1", "Note", "{note}1000", ""},
	)
	cat := phases.NewCatalog([]phases.Entry{{Code: "1000", Title: "Phase A"}})

	res := phases.NewResolver(nil, nil).Resolve(notes, cat)
	assert.Equal(t, 4, res.Notes)
	assert.Equal(t, 1, res.MissingClient)
	assert.Equal(t, 1, res.MissingCode)
	assert.Equal(t, 1, res.Unmatched)
	assert.Equal(t, 1, res.Matched())
	require.Len(t, res.Assignments, 1)
	assert.Equal(t, "C1", res.Assignments[0].ClientID)
	assert.Equal(t, "Phase A", res.Assignments[0].Title)
}

func TestAmbiguityPolicies(t *testing.T) {
	notes, _ := orderLines(t,
		[]string{"C1", "Note", "{note}999", ""},
		[]string{"C2", "Note", "{note}999", ""},
		[]string{"C1", "Note", "{note}100", ""},
		[]string{"C1", "Note", "{note}100", ""},
	)
	cat := phases.NewCatalog([]phases.Entry{
		{Code: "999", Title: "Shared"},
		{Code: "100", Title: "Own"},
	})

	t.Run("strict excludes the shared code for every client", func(t *testing.T) {
		res := phases.NewResolver(nil, phases.StrictExclusion{}).Resolve(notes, cat)
		assert.Equal(t, []string{"999"}, res.AmbiguousCodes)
		assert.Equal(t, 2, res.ExcludedLines)
		require.Len(t, res.Assignments, 2)
		for _, a := range res.Assignments {
			assert.Equal(t, "Own", a.Title)
		}
	})

	t.Run("permissive shares the title with every client", func(t *testing.T) {
		res := phases.NewResolver(nil, phases.PermissiveSharing{}).Resolve(notes, cat)
		assert.Equal(t, []string{"999"}, res.AmbiguousCodes)
		assert.Equal(t, 0, res.ExcludedLines)
		shared := map[string]bool{}
		for _, a := range res.Assignments {
			if a.Title == "Shared" {
				shared[a.ClientID] = true
			}
		}
		assert.Equal(t, map[string]bool{"C1": true, "C2": true}, shared)
	})
}

func TestParsePolicy(t *testing.T) {
	p, err := phases.ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, phases.PolicyStrict, p.Name())

	p, err = phases.ParsePolicy(" Permissive ")
	require.NoError(t, err)
	assert.Equal(t, phases.PolicyPermissive, p.Name())

	_, err = phases.ParsePolicy("lenient")
	assert.Error(t, err)
}

func TestFuzzyRecoveryKeepsExactMatches(t *testing.T) {
	long := "PHASE00000000000000000000000000000000000000000000001"
	near := "PHASE00000000000000000000000000000000000000000000002"
	notes, _ := orderLines(t,
		[]string{"C1", "Note", "{note}" + long, ""},
		[]string{"C2", "Note", "{note}" + near, ""},
		[]string{"C3", "Note", "{note}" + near, ""},
	)
	cat := phases.NewCatalog([]phases.Entry{{Code: long, Title: "Longue"}})
	fm, err := phases.NewFuzzyMatcher(98)
	require.NoError(t, err)
	matcher := phases.WithFallback(phases.ExactMatcher{}, fm)

	t.Run("strict drops only the fuzzy lines", func(t *testing.T) {
		res := phases.NewResolver(matcher, phases.StrictExclusion{}).Resolve(notes, cat)
		assert.Equal(t, 1, res.ExactMatches)
		assert.Equal(t, 2, res.FuzzyMatches)
		require.Len(t, res.Assignments, 1)
		assert.Equal(t, "C1", res.Assignments[0].ClientID)
		assert.Equal(t, phases.MethodExact, res.Assignments[0].Method)
		assert.Equal(t, 2, res.ExcludedLines)
		assert.Empty(t, res.AmbiguousCodes)
	})

	t.Run("strict still excludes codes shared by exact matches", func(t *testing.T) {
		shared, _ := orderLines(t,
			[]string{"C1", "Note", "{note}" + long, ""},
			[]string{"C2", "Note", "{note}" + long, ""},
			[]string{"C3", "Note", "{note}" + near, ""},
		)
		res := phases.NewResolver(matcher, phases.StrictExclusion{}).Resolve(shared, cat)
		assert.Empty(t, res.Assignments)
		assert.Equal(t, []string{long}, res.AmbiguousCodes)
	})

	t.Run("permissive keeps every line", func(t *testing.T) {
		res := phases.NewResolver(matcher, phases.PermissiveSharing{}).Resolve(notes, cat)
		assert.Len(t, res.Assignments, 3)
		assert.Equal(t, []string{long}, res.AmbiguousCodes)
		assert.Equal(t, 0, res.ExcludedLines)
	})
}

func TestCatalogUntitledRowClaimsItsCode(t *testing.T) {
	cat := phases.NewCatalog([]phases.Entry{
		{Code: "558", Title: "", Row: 0},
		{Code: "558", Title: "Tardif", Row: 1},
		{Code: "559", Title: "Présent", Row: 2},
	})

	_, ok := cat.Lookup("558")
	assert.False(t, ok, "the first row for 558 has no title")
	assert.Equal(t, []string{"559"}, cat.Codes())
	assert.Equal(t, 1, cat.Skipped())
	require.Len(t, cat.Duplicates(), 1)
	assert.Equal(t, phases.Duplicate{Code: "558", DroppedTitle: "Tardif", Row: 1}, cat.Duplicates()[0])

	fm := &phases.FuzzyMatcher{Threshold: 0}
	m, ok := fm.Match("558", cat)
	require.True(t, ok)
	assert.Equal(t, "559", m.Entry.Code, "untitled codes are not fuzzy candidates")

	assert.True(t, cat.Untitled("558"))
	_, ok = phases.WithFallback(phases.ExactMatcher{}, fm).Match("558", cat)
	assert.False(t, ok, "a claimed code is not recovered by the fallback")
}
