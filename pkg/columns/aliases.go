// Package columns maps logical fields to the concrete headers of heterogeneous
// input tables. A single alias table drives resolution for the roster, the
// order lines and the phase catalog alike.
package columns

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/franceroutage/annuaire/pkg/errors"
)

// Field is a logical column understood by the pipeline.
type Field string

// Logical fields.
const (
	ClientID      Field = "client_id"
	ClientName    Field = "client_name"
	Street        Field = "street"
	PostalCode    Field = "postal_code"
	City          Field = "city"
	Country       Field = "country"
	Phone         Field = "phone"
	Email         Field = "email"
	ReferenceTag  Field = "reference_tag"
	Design        Field = "design"
	ReferenceCode Field = "reference_code"
	PhaseCode     Field = "phase_code"
	Title         Field = "title"
)

// String returns the field name.
func (f Field) String() string {
	return string(f)
}

// AliasTable maps each logical field to its accepted header spellings, in
// priority order.
type AliasTable map[Field][]string

// DefaultAliases returns the built-in alias table covering the Sage Gestcom
// exports, the Jalixe phase catalog and the hand-made roster spreadsheets.
func DefaultAliases() AliasTable {
	return AliasTable{
		ClientID:      {"CT_Num", "ct_num", "num_ct", "CT_NUM", "Numéro client", "Code client", "client_id"},
		ClientName:    {"CT_Intitule", "Intitulé", "Nom", "Raison sociale", "Name", "client_name"},
		Street:        {"CT_Adresse", "Adresse", "Address", "street"},
		PostalCode:    {"CT_CodePostal", "Code postal", "CP", "Postal code", "postal_code"},
		City:          {"CT_Ville", "Ville", "City", "city"},
		Country:       {"CT_Pays", "Pays", "Country", "country"},
		Phone:         {"CT_Telephone", "Téléphone", "Telephone", "Tél", "Phone", "phone"},
		Email:         {"CT_EMail", "Email", "E-mail", "Mail", "email"},
		ReferenceTag:  {"AR_Ref", "Référence article", "Type", "reference_tag"},
		Design:        {"DL_Design", "Désignation", "Designation", "design"},
		ReferenceCode: {"DO_Piece", "N° pièce", "Référence", "reference_code"},
		PhaseCode:     {"Phase", "N° phase", "Numéro de phase", "Code phase", "phase_code"},
		Title:         {"Titre", "Title", "Libellé", "title"},
	}
}

// Aliases returns a copy of the aliases accepted for a field.
func (a AliasTable) Aliases(f Field) []string {
	out := make([]string, len(a[f]))
	copy(out, a[f])
	return out
}

// Fields returns the fields present in the table in lexical order.
func (a AliasTable) Fields() []Field {
	fields := make([]Field, 0, len(a))
	for f := range a {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// String renders the table deterministically, fields in lexical order and
// aliases in priority order.
func (a AliasTable) String() string {
	var b strings.Builder
	for i, f := range a.Fields() {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(string(f))
		b.WriteByte('=')
		b.WriteString(strings.Join(a[f], "|"))
	}
	return b.String()
}

// Extend returns a new table where the extra aliases take priority over the
// existing ones for the same field. Duplicate spellings are kept once.
func (a AliasTable) Extend(extra AliasTable) AliasTable {
	out := make(AliasTable, len(a)+len(extra))
	for f, aliases := range a {
		out[f] = append([]string(nil), aliases...)
	}
	for f, aliases := range extra {
		merged := make([]string, 0, len(aliases)+len(out[f]))
		seen := make(map[string]bool)
		for _, alias := range append(append([]string(nil), aliases...), out[f]...) {
			if alias == "" || seen[alias] {
				continue
			}
			seen[alias] = true
			merged = append(merged, alias)
		}
		out[f] = merged
	}
	return out
}

// aliasFile is the on-disk layout of an alias table.
type aliasFile struct {
	Fields map[string][]string `yaml:"fields"`
}

// LoadAliases parses a YAML alias file of the form
//
//	fields:
//	  client_id: [CT_Num, Code tiers]
//	  title: [Titre de l'ouvrage]
//
// Unknown field names are rejected.
func LoadAliases(r io.Reader, source string) (AliasTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapIO("read", source, err)
	}

	var file aliasFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.WrapParse("yaml", source, err)
	}

	known := DefaultAliases()
	table := make(AliasTable, len(file.Fields))
	for name, aliases := range file.Fields {
		f := Field(name)
		if _, ok := known[f]; !ok {
			return nil, errors.NewValidationError("fields", name, fmt.Sprintf("unknown logical field %q", name))
		}
		table[f] = aliases
	}
	return table, nil
}
