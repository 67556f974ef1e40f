// Package tabular reads header schemas and renders row tables to CSV, TSV,
// XLSX and Parquet files.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SchemaMismatch reports a header file that cannot be read or holds no
// column names.
type SchemaMismatch struct {
	Path string
	Err  error
}

func (e *SchemaMismatch) Error() string {
	return fmt.Sprintf("header schema %s: %v", e.Path, e.Err)
}

func (e *SchemaMismatch) Unwrap() error { return e.Err }

var errNoColumns = errors.New("no column names")

// ReadHeader returns the column names of a header file: the first non-empty
// row of the first sheet for .xlsx/.xlsm, the first record otherwise.
// .txt and .tsv files are tab-delimited, everything else comma-delimited.
func ReadHeader(path string) ([]string, error) {
	var (
		header []string
		err    error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		header, err = readSheetHeader(path)
	case ".txt", ".tsv":
		header, err = readTextHeader(path, '\t')
	default:
		header, err = readTextHeader(path, ',')
	}
	if err != nil {
		return nil, &SchemaMismatch{Path: path, Err: err}
	}
	header = trimHeader(header)
	if len(header) == 0 {
		return nil, &SchemaMismatch{Path: path, Err: errNoColumns}
	}
	return header, nil
}

func readSheetHeader(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	list := f.GetSheetList()
	if len(list) == 0 {
		return nil, errors.New("xlsx has no sheets")
	}
	rows, err := f.GetRows(list[0])
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if !isEmptyRow(row) {
			return row, nil
		}
	}
	return nil, nil
}

func readTextHeader(path string, comma rune) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(b))
	r.Comma = comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if !isEmptyRow(rec) {
			return rec, nil
		}
	}
}

// trimHeader trims names and drops trailing empty columns.
func trimHeader(h []string) []string {
	out := make([]string, len(h))
	for i, s := range h {
		out[i] = strings.TrimSpace(s)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// WriteHeader writes header as a one-line CSV file, creating parent
// directories as needed.
func WriteHeader(path string, header []string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteCSV(f, Table{Header: header})
}
