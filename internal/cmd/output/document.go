package output

import (
	"time"

	"github.com/franceroutage/annuaire/pkg/directory"
	"github.com/franceroutage/annuaire/pkg/quality"
	"github.com/franceroutage/annuaire/pkg/reconcile"
)

// Document is the exported form of a run: the directory plus the signals
// reported alongside it. Run provenance only appears in the markdown report,
// so JSON and YAML exports of the same inputs are byte-identical.
type Document struct {
	RunID       string               `json:"-" yaml:"-"`
	CompletedAt string               `json:"-" yaml:"-"`
	Cached      bool                 `json:"-" yaml:"-"`
	Settings    reconcile.Settings   `json:"settings" yaml:"settings"`
	Statistics  reconcile.Statistics `json:"statistics" yaml:"statistics"`
	Quality     quality.Report       `json:"quality" yaml:"quality"`
	Warnings    []reconcile.Warning  `json:"warnings" yaml:"warnings"`
	Rows        []directory.Row      `json:"rows" yaml:"rows"`

	headers []string
	records [][]string
}

// NewDocument builds the exported form of a result.
func NewDocument(res *reconcile.Result) Document {
	doc := Document{
		RunID:       res.RunID,
		CompletedAt: res.Metadata.CompletedAt.UTC().Format(time.RFC3339),
		Cached:      res.Cached,
		Settings:    res.Metadata.Settings,
		Statistics:  res.Metadata.Stats,
		Quality:     res.Quality,
		Warnings:    res.Warnings,
		Rows:        res.Directory.Rows(),
		headers:     res.Directory.Headers(),
	}
	doc.records = make([][]string, res.Directory.Len())
	for i := range doc.records {
		doc.records[i] = res.Directory.Record(i)
	}
	return doc
}

// TableData returns the directory rows under their output headers.
func (d Document) TableData() Data {
	return Data{Headers: d.headers, Rows: d.records}
}

// Titled counts rows with at least one title.
func (d Document) Titled() int {
	n := 0
	for _, r := range d.Rows {
		if r.HasTitles() {
			n++
		}
	}
	return n
}
