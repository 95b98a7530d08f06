package phases

import (
	"github.com/franceroutage/annuaire/pkg/columns"
	"github.com/franceroutage/annuaire/pkg/normalize"
	"github.com/franceroutage/annuaire/pkg/table"
)

// OrderLine is a note-tagged order line reduced to its join keys.
type OrderLine struct {
	Row       int
	ClientID  string
	PhaseCode string
	Design    string
	Reference string
}

// ExtractNotes keeps the order lines whose reference tag is NOTE and derives
// their normalized client id and phase code. Lines of any other tag are not
// returned.
func ExtractNotes(t *table.Table, b columns.Binding) []OrderLine {
	var notes []OrderLine
	for i := 0; i < t.Len(); i++ {
		if !normalize.IsNote(b.Value(t, i, columns.ReferenceTag)) {
			continue
		}
		design := b.Value(t, i, columns.Design)
		notes = append(notes, OrderLine{
			Row:       i,
			ClientID:  normalize.Key(b.Value(t, i, columns.ClientID)),
			PhaseCode: normalize.PhaseCode(design),
			Design:    design,
			Reference: normalize.Key(b.Value(t, i, columns.ReferenceCode)),
		})
	}
	return notes
}
