package tabular

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	writerfile "github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// WriteParquet writes t as a Parquet file with one optional UTF8 column per
// header name. Column names are reduced to [A-Za-z0-9_] and made unique.
func WriteParquet(path string, t Table) error {
	cols := parquetColumns(t.Header)

	buf := &bytes.Buffer{}
	pfw := writerfile.NewWriterFile(buf)
	pw, err := writer.NewJSONWriter(parquetSchema(cols), pfw, 4)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range t.Rows {
		rec := make(map[string]string, len(cols))
		for i, c := range cols {
			if i < len(row) {
				rec[c] = row[i]
			} else {
				rec[c] = ""
			}
		}
		b, err := json.Marshal(rec)
		if err != nil {
			_ = pw.WriteStop()
			return err
		}
		if err := pw.Write(string(b)); err != nil {
			_ = pw.WriteStop()
			_ = pfw.Close()
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = pfw.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	_ = pfw.Close()
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func parquetSchema(cols []string) string {
	fields := make([]map[string]string, 0, len(cols))
	for _, c := range cols {
		fields = append(fields, map[string]string{
			"Tag": fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", c),
		})
	}
	out := map[string]any{
		"Tag":    "name=luacsv_root, repetitiontype=REQUIRED",
		"Fields": fields,
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func parquetColumns(header []string) []string {
	cols := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		c := strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
				return r
			}
			return '_'
		}, h)
		if c == "" || (c[0] >= '0' && c[0] <= '9') {
			c = "c_" + c
		}
		if n := seen[c]; n > 0 {
			seen[c] = n + 1
			c += "_" + strconv.Itoa(n+1)
		}
		seen[c]++
		cols[i] = c
	}
	return cols
}
