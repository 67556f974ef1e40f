package tabular

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Formats selects the optional renderings produced by Render.
type Formats struct {
	XLSX    bool
	Parquet bool
}

// Render writes t next to base: base.csv and base.txt (tab-delimited)
// always, base.xlsx and base.parquet when enabled. It returns the written
// paths in that order.
func Render(base string, t Table, formats Formats) ([]string, error) {
	if err := os.MkdirAll(filepath.Dir(base), 0o755); err != nil {
		return nil, err
	}

	var written []string
	for _, out := range []struct {
		ext   string
		write func(io.Writer, Table) error
	}{
		{".csv", WriteCSV},
		{".txt", WriteTSV},
	} {
		path := base + out.ext
		if err := writeFile(path, t, out.write); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if formats.XLSX {
		path := base + ".xlsx"
		if err := WriteXLSX(path, filepath.Base(base), t); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if formats.Parquet {
		path := base + ".parquet"
		if err := WriteParquet(path, t); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, t Table, write func(io.Writer, Table) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("%s: %w", path, cerr)
		}
	}()
	if err := write(f, t); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
