// Package ingest loads delimited text exports into tables. It strips UTF-8
// byte order marks, decodes Windows-1252 exports and detects the delimiter
// from the header line.
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	pkgerrors "github.com/franceroutage/annuaire/pkg/errors"
	"github.com/franceroutage/annuaire/pkg/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// candidate delimiters, in tie-break order
var delimiters = []rune{';', ',', '\t'}

// Options controls parsing.
type Options struct {
	// Delimiter forces the field separator. Zero means detect.
	Delimiter rune
	// Name overrides the table name. Defaults to the file base name.
	Name string
}

// ReadFile loads a delimited file.
func ReadFile(path string, opts Options) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, pkgerrors.WrapIO("read", path, pkgerrors.NewNotFoundError("input file", path))
	}
	if err != nil {
		return nil, pkgerrors.WrapIO("read", path, err)
	}
	if opts.Name == "" {
		opts.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	t, err := Parse(data, opts)
	if err != nil {
		var pe *pkgerrors.ParseError
		if errors.As(err, &pe) {
			pe.File = path
		}
		return nil, err
	}
	return t, nil
}

// Read loads delimited data from r.
func Read(r io.Reader, opts Options) (*table.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, pkgerrors.WrapIO("read", opts.Name, err)
	}
	return Parse(data, opts)
}

// Parse decodes data into a table. The first record is the header. Short
// records are padded and long ones truncated to the header width.
func Parse(data []byte, opts Options) (*table.Table, error) {
	data = Decode(data)

	delim := opts.Delimiter
	if delim == 0 {
		delim = SniffDelimiter(firstLine(data))
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, pkgerrors.NewParseError("csv", opts.Name, "empty input: no header line", nil)
	}
	if err != nil {
		return nil, pkgerrors.WrapParse("csv", opts.Name, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, pkgerrors.WrapParse("csv", opts.Name, err)
		}
		if blank(rec) {
			continue
		}
		rows = append(rows, rec)
	}
	return table.New(opts.Name, header, rows), nil
}

// Decode strips a UTF-8 byte order mark and converts non UTF-8 input from
// Windows-1252, the encoding of most French accounting exports.
func Decode(data []byte) []byte {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return decoded
}

// SniffDelimiter picks the candidate delimiter occurring most often outside
// quotes in the header line. Ties go to ';' then ','.
func SniffDelimiter(header string) rune {
	counts := make(map[rune]int, len(delimiters))
	quoted := false
	for _, r := range header {
		if r == '"' {
			quoted = !quoted
			continue
		}
		if !quoted {
			counts[r]++
		}
	}

	best, bestCount := delimiters[0], 0
	for _, d := range delimiters {
		if counts[d] > bestCount {
			best, bestCount = d, counts[d]
		}
	}
	return best
}

func firstLine(data []byte) string {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[:i]
	}
	return strings.TrimSuffix(string(data), "\r")
}

func blank(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
