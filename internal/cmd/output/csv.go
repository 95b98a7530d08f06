package output

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVFormatter writes Tabular data as delimited text. With BOM set, the
// output starts with a UTF-8 byte order mark so spreadsheet tools detect the
// encoding of accented headers.
type CSVFormatter struct {
	Comma rune
	BOM   bool
}

// Format writes data as CSV.
func (f *CSVFormatter) Format(w io.Writer, data any) error {
	var td Data
	switch v := data.(type) {
	case Data:
		td = v
	case Tabular:
		td = v.TableData()
	default:
		return fmt.Errorf("csv output not supported for %T", data)
	}

	if f.BOM {
		if _, err := w.Write([]byte("\xEF\xBB\xBF")); err != nil {
			return err
		}
	}

	cw := csv.NewWriter(w)
	if f.Comma != 0 {
		cw.Comma = f.Comma
	}
	if err := cw.Write(td.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(td.Rows); err != nil {
		return err
	}
	return cw.Error()
}
