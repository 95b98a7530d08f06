package output

import (
	"fmt"
	"io"

	md "github.com/nao1215/markdown"

	"github.com/franceroutage/annuaire/pkg/constants"
)

// MarkdownFormatter writes the run report of a Document.
type MarkdownFormatter struct {
	// Rows includes the directory itself after the report.
	Rows bool
}

// Format writes a markdown report.
func (f *MarkdownFormatter) Format(w io.Writer, data any) error {
	doc, ok := data.(Document)
	if !ok {
		return fmt.Errorf("markdown output not supported for %T", data)
	}

	s := doc.Statistics
	m := md.NewMarkdown(w)
	m.H1("Annuaire clients").LF()
	m.PlainTextf("Run %s, completed %s.", md.Code(doc.RunID), doc.CompletedAt).LF()
	if doc.Cached {
		m.PlainText(md.Italic("Served from a previous identical run.")).LF()
	}

	m.H2("Quality").LF()
	m.PlainTextf("%s: %d roster rows loaded, %d directory rows, discrepancy %.2f%%.",
		md.Bold(string(doc.Quality.Status)), doc.Quality.RosterCount, doc.Quality.OutputCount, doc.Quality.Discrepancy).LF()

	m.H2("Statistics").LF()
	m.Table(md.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Roster rows loaded", fmt.Sprint(s.RosterLoaded)},
			{"Roster clients", fmt.Sprint(s.RosterClients)},
			{"Order lines", fmt.Sprint(s.OrderLines)},
			{"Note lines", fmt.Sprint(s.Notes)},
			{"Catalog codes", fmt.Sprint(s.CatalogCodes)},
			{"Exact matches", fmt.Sprint(s.ExactMatches)},
			{"Fuzzy matches", fmt.Sprint(s.FuzzyMatches)},
			{"Unmatched notes", fmt.Sprint(s.Unmatched)},
			{"Ambiguous codes", fmt.Sprint(s.AmbiguousCodes)},
			{"Clients with titles", fmt.Sprint(s.TitledClients)},
			{"Clients without titles", fmt.Sprint(s.OutputRows - s.TitledClients)},
		},
	}).LF()

	m.H2("Settings").LF()
	m.BulletList(
		fmt.Sprintf("Ambiguity policy: %s", doc.Settings.Policy),
		fmt.Sprintf("Matcher: %s", doc.Settings.Matcher),
		fmt.Sprintf("Tolerance: %g%%", doc.Settings.Tolerance),
	).LF()

	if len(doc.Warnings) > 0 {
		m.H2("Warnings").LF()
		items := make([]string, len(doc.Warnings))
		for i, w := range doc.Warnings {
			items[i] = fmt.Sprintf("%s %s", md.Code(string(w.Kind)), w.Message)
		}
		m.BulletList(items...).LF()
	}

	if f.Rows {
		td := doc.TableData()
		m.H2("Directory").LF()
		if len(td.Rows) == 0 {
			m.PlainText("No clients.").LF()
		} else {
			m.Table(md.TableSet{Header: td.Headers, Rows: td.Rows}).LF()
		}
		m.PlainTextf("Clients without titles show %s.", md.Italic(constants.NoTitle)).LF()
	}

	return m.Build()
}
