package output_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franceroutage/annuaire/internal/cmd/output"
	"github.com/franceroutage/annuaire/pkg/reconcile"
	"github.com/franceroutage/annuaire/pkg/table"
)

func testDocument(t *testing.T) output.Document {
	t.Helper()
	r, err := reconcile.New()
	require.NoError(t, err)
	res, err := r.Reconcile(context.Background(), reconcile.Inputs{
		Roster: table.New("roster", []string{"CT_Num", "CT_Intitule", "CT_Ville"}, [][]string{
			{"A1", "Dupont", "Lyon"},
			{"A2", "Martin", "Paris"},
		}),
		OrderLines: table.New("lines", []string{"CT_Num", "AR_Ref", "DL_Design"}, [][]string{
			{"A1", "Note", "{note}1000"},
		}),
		Catalog: table.New("catalog", []string{"Phase", "Titre"}, [][]string{{"1000", "Réparation"}}),
	})
	require.NoError(t, err)
	return output.NewDocument(res)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    output.Format
		wantErr bool
	}{
		{"table", output.FormatTable, false},
		{"JSON", output.FormatJSON, false},
		{"yaml", output.FormatYAML, false},
		{"csv", output.FormatCSV, false},
		{"md", output.FormatMarkdown, false},
		{"", "", false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := output.ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, output.FormatYAML, output.DetectFormat("YAML"))
}

func TestCSVFormatter(t *testing.T) {
	doc := testDocument(t)
	var buf bytes.Buffer
	require.NoError(t, output.NewFormatter(output.FormatCSV).Format(&buf, doc))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\xEF\xBB\xBF"))
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(out, "\xEF\xBB\xBF")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Nom;Numéro client;Adresse;Code postal;Ville;Pays;Téléphone;Titres", lines[0])
	assert.Equal(t, "Dupont;A1;;;Lyon;;;Réparation", lines[1])
	assert.Equal(t, "Martin;A2;;;Paris;;;Aucun titre", lines[2])

	err := output.NewFormatter(output.FormatCSV).Format(&buf, 42)
	assert.Error(t, err)
}

func TestJSONFormatter(t *testing.T) {
	doc := testDocument(t)
	var buf bytes.Buffer
	require.NoError(t, output.NewFormatter(output.FormatJSON).Format(&buf, doc))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.NotContains(t, decoded, "run_id")
	assert.NotContains(t, decoded, "completed_at")
	rows := decoded["rows"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "Réparation", rows[0].(map[string]any)["titles"])
	assert.Equal(t, "exact", decoded["quality"].(map[string]any)["status"])
}

func TestYAMLFormatter(t *testing.T) {
	doc := testDocument(t)
	var buf bytes.Buffer
	require.NoError(t, output.NewFormatter(output.FormatYAML).Format(&buf, doc))

	out := buf.String()
	assert.NotContains(t, out, doc.RunID)
	assert.Contains(t, out, "titles: Aucun titre")
	assert.Contains(t, out, "status: exact")
}

func TestExportsAreReproducible(t *testing.T) {
	for _, format := range []output.Format{output.FormatCSV, output.FormatJSON, output.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			first, second := testDocument(t), testDocument(t)
			require.NotEqual(t, first.RunID, second.RunID)

			var a, b bytes.Buffer
			require.NoError(t, output.NewFormatter(format).Format(&a, first))
			require.NoError(t, output.NewFormatter(format).Format(&b, second))
			assert.Equal(t, a.String(), b.String())
		})
	}
}

func TestTableFormatter(t *testing.T) {
	doc := testDocument(t)
	var buf bytes.Buffer
	require.NoError(t, output.NewFormatter(output.FormatTable).Format(&buf, doc))

	out := buf.String()
	assert.Contains(t, out, "Dupont")
	assert.Contains(t, out, "Aucun titre")

	buf.Reset()
	require.NoError(t, output.NewFormatter(output.FormatTable).Format(&buf, doc.Statistics))
	assert.Contains(t, buf.String(), "Roster Loaded")
}

func TestMarkdownFormatter(t *testing.T) {
	doc := testDocument(t)
	var buf bytes.Buffer
	f := &output.MarkdownFormatter{Rows: true}
	require.NoError(t, f.Format(&buf, doc))

	out := buf.String()
	assert.Contains(t, out, "# Annuaire clients")
	assert.Contains(t, out, "**exact**")
	assert.Contains(t, out, "| Clients with titles")
	assert.Contains(t, out, "Réparation")
	assert.NotContains(t, out, "## Warnings")

	assert.Error(t, f.Format(&buf, "not a document"))
}

func TestDocumentTitled(t *testing.T) {
	doc := testDocument(t)
	assert.Equal(t, 1, doc.Titled())
	assert.Len(t, doc.TableData().Rows, 2)
}
