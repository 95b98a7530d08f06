package columns

import (
	"strings"

	"github.com/franceroutage/annuaire/pkg/errors"
	"github.com/franceroutage/annuaire/pkg/table"
)

// Kind identifies one of the three fixed input shapes.
type Kind string

// Input table kinds.
const (
	Roster     Kind = "roster"
	OrderLines Kind = "order_lines"
	Catalog    Kind = "phase_catalog"
)

// Schema lists the fields a table kind must and may carry.
type Schema struct {
	Required []Field
	Optional []Field
}

// SchemaFor returns the fixed schema of a table kind.
func SchemaFor(kind Kind) Schema {
	switch kind {
	case Roster:
		return Schema{
			Required: []Field{ClientID},
			Optional: []Field{ClientName, Street, PostalCode, City, Country, Phone, Email},
		}
	case OrderLines:
		return Schema{
			Required: []Field{ClientID, ReferenceTag, Design},
			Optional: []Field{ReferenceCode},
		}
	case Catalog:
		return Schema{
			Required: []Field{PhaseCode, Title},
		}
	default:
		return Schema{}
	}
}

// Resolve returns the first header matching one of the field's aliases.
// Aliases are tried in priority order and compared case-insensitively after
// trimming; no approximate matching is attempted.
func Resolve(headers []string, aliases AliasTable, field Field) (string, bool) {
	for _, alias := range aliases[field] {
		want := strings.TrimSpace(alias)
		for _, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				return h, true
			}
		}
	}
	return "", false
}

// Binding is the resolved field→header mapping of one table.
type Binding struct {
	Kind    Kind
	columns map[Field]string
}

// Column returns the header bound to a field.
func (b Binding) Column(f Field) (string, bool) {
	c, ok := b.columns[f]
	return c, ok
}

// Value reads the cell bound to a field, or "" when the field is unbound.
func (b Binding) Value(t *table.Table, row int, f Field) string {
	c, ok := b.columns[f]
	if !ok {
		return ""
	}
	return t.Value(row, c)
}

// Len returns how many fields are bound.
func (b Binding) Len() int {
	return len(b.columns)
}

// Resolver binds tables to their schema using one alias table.
type Resolver struct {
	aliases AliasTable
}

// NewResolver creates a resolver; a nil table means DefaultAliases.
func NewResolver(aliases AliasTable) *Resolver {
	if aliases == nil {
		aliases = DefaultAliases()
	}
	return &Resolver{aliases: aliases}
}

// Aliases returns the alias table in use.
func (r *Resolver) Aliases() AliasTable {
	return r.aliases
}

// Bind resolves every field of the kind's schema against t. A missing
// required field is a fatal *errors.ColumnError naming the table and field.
func (r *Resolver) Bind(t *table.Table, kind Kind) (Binding, error) {
	schema := SchemaFor(kind)
	headers := t.Columns()
	b := Binding{Kind: kind, columns: make(map[Field]string)}

	for _, f := range schema.Required {
		c, ok := Resolve(headers, r.aliases, f)
		if !ok {
			return Binding{}, errors.NewColumnError(string(kind), string(f), r.aliases.Aliases(f), headers)
		}
		b.columns[f] = c
	}
	for _, f := range schema.Optional {
		if c, ok := Resolve(headers, r.aliases, f); ok {
			b.columns[f] = c
		}
	}
	return b, nil
}

// Match is one line of a column report.
type Match struct {
	Field    Field  `json:"field" yaml:"field"`
	Column   string `json:"column,omitempty" yaml:"column,omitempty"`
	Required bool   `json:"required" yaml:"required"`
	Found    bool   `json:"found" yaml:"found"`
}

// Report lists how every schema field of a kind resolves against t without
// failing on missing required fields.
func (r *Resolver) Report(t *table.Table, kind Kind) []Match {
	schema := SchemaFor(kind)
	headers := t.Columns()
	matches := make([]Match, 0, len(schema.Required)+len(schema.Optional))

	add := func(f Field, required bool) {
		c, ok := Resolve(headers, r.aliases, f)
		matches = append(matches, Match{Field: f, Column: c, Required: required, Found: ok})
	}
	for _, f := range schema.Required {
		add(f, true)
	}
	for _, f := range schema.Optional {
		add(f, false)
	}
	return matches
}
