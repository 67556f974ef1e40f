package tabular

import (
	"encoding/csv"
	"io"
)

// Table is a header plus rows of cells. Rows are expected to have one cell
// per header column.
type Table struct {
	Header []string
	Rows   [][]string
}

// WriteCSV writes t comma-delimited, quoting cells where needed.
func WriteCSV(w io.Writer, t Table) error {
	return writeDelimited(w, t, ',')
}

// WriteTSV writes t tab-delimited with the same quoting rules as WriteCSV.
func WriteTSV(w io.Writer, t Table) error {
	return writeDelimited(w, t, '\t')
}

func writeDelimited(w io.Writer, t Table, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	cw.UseCRLF = true
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}
