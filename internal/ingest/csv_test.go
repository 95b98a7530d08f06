package ingest_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franceroutage/annuaire/internal/ingest"
	"github.com/franceroutage/annuaire/pkg/errors"
)

func TestSniffDelimiter(t *testing.T) {
	tests := []struct {
		header string
		want   rune
	}{
		{"CT_Num;CT_Intitule;CT_Ville", ';'},
		{"CT_Num,CT_Intitule,CT_Ville", ','},
		{"CT_Num\tCT_Intitule", '\t'},
		{`"Nom, prénom";Ville`, ';'},
		{"CT_Num", ';'},
		{"a,b;c", ';'},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, ingest.SniffDelimiter(tt.header))
		})
	}
}

func TestParse(t *testing.T) {
	data := "\xEF\xBB\xBFCT_Num ; CT_Intitule;CT_Ville\r\nA1;Dupont;Lyon\r\nA2;\"Martin; fils\"\r\n;;\r\nA3;Durand;Nice;extra\r\n"

	tbl, err := ingest.Parse([]byte(data), ingest.Options{Name: "roster"})
	require.NoError(t, err)

	assert.Equal(t, "roster", tbl.Name())
	assert.Equal(t, []string{"CT_Num", "CT_Intitule", "CT_Ville"}, tbl.Columns())
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, "Martin; fils", tbl.Value(1, "CT_Intitule"))
	assert.Equal(t, "", tbl.Value(1, "CT_Ville"))
	assert.Equal(t, []string{"A3", "Durand", "Nice"}, tbl.Row(2))
}

func TestParseWindows1252(t *testing.T) {
	// "Réparation" in Windows-1252
	data := []byte("Phase;Titre\n1000;R\xe9paration\n")

	tbl, err := ingest.Parse(data, ingest.Options{})
	require.NoError(t, err)
	assert.Equal(t, "Réparation", tbl.Value(0, "Titre"))
}

func TestParseEmpty(t *testing.T) {
	_, err := ingest.Parse(nil, ingest.Options{Name: "empty"})
	require.Error(t, err)

	var pe *errors.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestParseForcedDelimiter(t *testing.T) {
	tbl, err := ingest.Read(strings.NewReader("a;b,c\n1;2,3\n"), ingest.Options{Delimiter: ','})
	require.NoError(t, err)
	assert.Equal(t, []string{"a;b", "c"}, tbl.Columns())
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "F_COMPTET.csv")
	require.NoError(t, os.WriteFile(path, []byte("CT_Num,CT_Intitule\nA1,Dupont\n"), 0o600))

	tbl, err := ingest.ReadFile(path, ingest.Options{})
	require.NoError(t, err)
	assert.Equal(t, "F_COMPTET", tbl.Name())
	assert.Equal(t, 1, tbl.Len())

	_, err = ingest.ReadFile(filepath.Join(dir, "missing.csv"), ingest.Options{})
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "missing.csv not found")
}
