// Package phases turns order lines into (client, title) assignments through
// the phase catalog.
//
// The flow is: ExtractNotes keeps the note-tagged order lines and pulls the
// phase code out of their design field; BuildCatalog deduplicates the phase
// catalog (first row wins); a Resolver matches each note's code against the
// catalog with a pluggable Matcher and applies an AmbiguityPolicy to codes
// shared by several clients.
package phases

import (
	"sort"

	"github.com/franceroutage/annuaire/pkg/columns"
	"github.com/franceroutage/annuaire/pkg/normalize"
	"github.com/franceroutage/annuaire/pkg/table"
)

// Entry is one canonical catalog row.
type Entry struct {
	Code  string
	Title string
	Row   int
}

// Duplicate records a catalog row discarded because its code was already seen.
type Duplicate struct {
	Code         string
	KeptTitle    string
	DroppedTitle string
	Row          int
}

// Catalog is the deduplicated phase catalog: at most one title per code.
type Catalog struct {
	entries    map[string]Entry
	untitled   map[string]bool
	codes      []string
	duplicates []Duplicate
	skipped    int
}

// NewCatalog deduplicates entries by normalized code, keeping the first
// occurrence. Entries with an empty code are skipped. An entry with a code but
// no title still claims its code: later rows for that code are duplicates and
// the code resolves to nothing.
func NewCatalog(entries []Entry) *Catalog {
	c := &Catalog{
		entries:  make(map[string]Entry, len(entries)),
		untitled: make(map[string]bool),
	}
	for _, e := range entries {
		code := normalize.PhaseCode(e.Code)
		title := normalize.Title(e.Title)
		if code == "" {
			c.skipped++
			continue
		}
		if kept, seen := c.entries[code]; seen || c.untitled[code] {
			c.duplicates = append(c.duplicates, Duplicate{
				Code:         code,
				KeptTitle:    kept.Title,
				DroppedTitle: title,
				Row:          e.Row,
			})
			continue
		}
		if title == "" {
			c.untitled[code] = true
			c.skipped++
			continue
		}
		c.entries[code] = Entry{Code: code, Title: title, Row: e.Row}
		c.codes = append(c.codes, code)
	}
	sort.Strings(c.codes)
	return c
}

// BuildCatalog reads a bound phase catalog table.
func BuildCatalog(t *table.Table, b columns.Binding) *Catalog {
	entries := make([]Entry, t.Len())
	for i := range entries {
		entries[i] = Entry{
			Code:  b.Value(t, i, columns.PhaseCode),
			Title: b.Value(t, i, columns.Title),
			Row:   i,
		}
	}
	return NewCatalog(entries)
}

// Lookup returns the entry for an already normalized code.
func (c *Catalog) Lookup(code string) (Entry, bool) {
	if code == "" {
		return Entry{}, false
	}
	e, ok := c.entries[code]
	return e, ok
}

// Untitled reports whether code was claimed by a first row with no title.
func (c *Catalog) Untitled(code string) bool {
	return c.untitled[code]
}

// Codes returns every catalog code in lexical order.
func (c *Catalog) Codes() []string {
	out := make([]string, len(c.codes))
	copy(out, c.codes)
	return out
}

// Len returns the number of distinct codes.
func (c *Catalog) Len() int {
	return len(c.codes)
}

// Duplicates returns the rows dropped by deduplication, in input order.
func (c *Catalog) Duplicates() []Duplicate {
	out := make([]Duplicate, len(c.duplicates))
	copy(out, c.duplicates)
	return out
}

// Skipped returns how many rows had no code, or a first-seen code with no title.
func (c *Catalog) Skipped() int {
	return c.skipped
}
