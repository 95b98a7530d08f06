package directory

import (
	"github.com/franceroutage/annuaire/pkg/aggregate"
	"github.com/franceroutage/annuaire/pkg/constants"
	"github.com/franceroutage/annuaire/pkg/table"
)

// Output headers, in projection order. HeaderEmail is only present when the
// roster carries an email column.
const (
	HeaderName       = "Nom"
	HeaderClientID   = "Numéro client"
	HeaderAddress    = "Adresse"
	HeaderPostalCode = "Code postal"
	HeaderCity       = "Ville"
	HeaderCountry    = "Pays"
	HeaderPhone      = "Téléphone"
	HeaderEmail      = "Email"
	HeaderTitles     = "Titres"
)

// Row is one output directory row.
type Row struct {
	Name       string `json:"name" yaml:"name"`
	ClientID   string `json:"client_id" yaml:"client_id"`
	Address    string `json:"address" yaml:"address"`
	PostalCode string `json:"postal_code" yaml:"postal_code"`
	City       string `json:"city" yaml:"city"`
	Country    string `json:"country" yaml:"country"`
	Phone      string `json:"phone" yaml:"phone"`
	Email      string `json:"email,omitempty" yaml:"email,omitempty"`
	Titles     string `json:"titles" yaml:"titles"`
}

// HasTitles reports whether the row received at least one title.
func (r Row) HasTitles() bool {
	return r.Titles != constants.NoTitle
}

// Directory is the merged, projected output.
type Directory struct {
	rows     []Row
	hasEmail bool
}

// Merge left-joins titles onto every retained roster client. Clients absent
// from titles get the "Aucun titre" sentinel. The result always has exactly
// roster.Len() rows, in roster order.
func Merge(roster Roster, titles aggregate.Titles) *Directory {
	d := &Directory{
		rows:     make([]Row, 0, len(roster.Clients)),
		hasEmail: roster.HasEmail,
	}
	for _, c := range roster.Clients {
		t, ok := titles[c.ClientID]
		if !ok || t == "" {
			t = constants.NoTitle
		}
		row := Row{
			Name:       c.Name,
			ClientID:   c.ClientID,
			Address:    c.Street,
			PostalCode: c.PostalCode,
			City:       c.City,
			Country:    c.Country,
			Phone:      c.Phone,
			Titles:     t,
		}
		if d.hasEmail {
			row.Email = c.Email
		}
		d.rows = append(d.rows, row)
	}
	return d
}

// Len returns the number of rows. Safe on a nil directory.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.rows)
}

// Rows returns a copy of the output rows.
func (d *Directory) Rows() []Row {
	if d == nil {
		return nil
	}
	out := make([]Row, len(d.rows))
	copy(out, d.rows)
	return out
}

// HasEmail reports whether the Email column is projected.
func (d *Directory) HasEmail() bool {
	return d != nil && d.hasEmail
}

// Titled counts rows that received at least one title.
func (d *Directory) Titled() int {
	n := 0
	for _, r := range d.Rows() {
		if r.HasTitles() {
			n++
		}
	}
	return n
}

// Headers returns the projected headers in output order.
func (d *Directory) Headers() []string {
	h := []string{HeaderName, HeaderClientID, HeaderAddress, HeaderPostalCode, HeaderCity, HeaderCountry, HeaderPhone}
	if d.HasEmail() {
		h = append(h, HeaderEmail)
	}
	return append(h, HeaderTitles)
}

// Record returns row i as cells aligned with Headers.
func (d *Directory) Record(i int) []string {
	r := d.rows[i]
	cells := []string{r.Name, r.ClientID, r.Address, r.PostalCode, r.City, r.Country, r.Phone}
	if d.hasEmail {
		cells = append(cells, r.Email)
	}
	return append(cells, r.Titles)
}

// Table returns the directory as an immutable table named "annuaire".
func (d *Directory) Table() *table.Table {
	rows := make([][]string, d.Len())
	for i := range rows {
		rows[i] = d.Record(i)
	}
	return table.New("annuaire", d.Headers(), rows)
}
