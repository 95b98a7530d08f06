// Package directory builds the client directory: the deduplicated roster
// left-joined with the aggregated titles and projected onto the fixed
// output columns.
package directory

import (
	"github.com/franceroutage/annuaire/pkg/columns"
	"github.com/franceroutage/annuaire/pkg/normalize"
	"github.com/franceroutage/annuaire/pkg/table"
)

// Client is one roster row reduced to the fields the directory keeps.
type Client struct {
	Row        int
	ClientID   string
	Name       string
	Street     string
	PostalCode string
	City       string
	Country    string
	Phone      string
	Email      string
}

// Duplicate records a roster row dropped because its key was already seen.
type Duplicate struct {
	ClientID string
	Name     string
	Row      int
	KeptRow  int
}

// Roster is the deduplicated client roster.
type Roster struct {
	Clients    []Client
	Duplicates []Duplicate

	// Loaded is the raw row count, before any row was dropped.
	Loaded int
	// EmptyIDs counts rows dropped because their id normalized to "".
	EmptyIDs int
	// CompoundKey is set when rows were deduplicated on (id, name).
	CompoundKey bool
	// HasEmail is set when the roster carries an email column.
	HasEmail bool
}

// Len returns the number of retained clients.
func (r Roster) Len() int {
	return len(r.Clients)
}

type rosterKey struct {
	id   string
	name string
}

// LoadRoster reads a bound roster table. Rows are deduplicated on the
// normalized client id, or on (id, name) when a name column is bound; the
// first row seen wins. Rows whose id is empty after normalization are never
// retained.
func LoadRoster(t *table.Table, b columns.Binding) Roster {
	_, compound := b.Column(columns.ClientName)
	_, hasEmail := b.Column(columns.Email)
	r := Roster{
		Loaded:      t.Len(),
		CompoundKey: compound,
		HasEmail:    hasEmail,
	}

	seen := make(map[rosterKey]int, t.Len())
	for i := 0; i < t.Len(); i++ {
		c := Client{
			Row:        i,
			ClientID:   normalize.Key(b.Value(t, i, columns.ClientID)),
			Name:       normalize.Text(b.Value(t, i, columns.ClientName)),
			Street:     normalize.Text(b.Value(t, i, columns.Street)),
			PostalCode: normalize.Text(b.Value(t, i, columns.PostalCode)),
			City:       normalize.Text(b.Value(t, i, columns.City)),
			Country:    normalize.Text(b.Value(t, i, columns.Country)),
			Phone:      normalize.Text(b.Value(t, i, columns.Phone)),
			Email:      normalize.Text(b.Value(t, i, columns.Email)),
		}
		if c.ClientID == "" {
			r.EmptyIDs++
			continue
		}

		k := rosterKey{id: c.ClientID}
		if compound {
			k.name = normalize.Key(c.Name)
		}
		if kept, dup := seen[k]; dup {
			r.Duplicates = append(r.Duplicates, Duplicate{
				ClientID: c.ClientID,
				Name:     c.Name,
				Row:      i,
				KeptRow:  kept,
			})
			continue
		}
		seen[k] = i
		r.Clients = append(r.Clients, c)
	}
	return r
}
