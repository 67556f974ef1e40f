package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// headerExts lists header file extensions in lookup order.
var headerExts = []string{".csv", ".xlsx"}

// headerFile returns the header file for name under dir, preferring .csv
// over .xlsx. When neither exists the .csv path is returned so the read
// error names it.
func headerFile(dir, name string) string {
	for _, ext := range headerExts {
		p := filepath.Join(dir, name+ext)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return filepath.Join(dir, name+headerExts[0])
}

// Discover lists the datasets a batch run converts: configured nested
// datasets first, sorted by name, then every dataset with a header file in
// the format directory, sorted. Names in Skip are left out.
func Discover(cfg *Config) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		if seen[name] || cfg.Skipped(name) {
			return
		}
		seen[name] = true
		out = append(out, name)
	}

	var nested []string
	for name, ds := range cfg.Datasets {
		if ds.kind() == KindNested {
			nested = append(nested, name)
		}
	}
	slices.Sort(nested)
	for _, name := range nested {
		add(name)
	}

	names, err := listHeaderFiles(cfg.Dirs.Format)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		add(name)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no datasets found (no header files in %s)", cfg.Dirs.Format)
	}
	return out, nil
}

func listHeaderFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !slices.Contains(headerExts, ext) || strings.HasPrefix(name, "~$") {
			continue
		}
		out = append(out, strings.TrimSuffix(name, filepath.Ext(name)))
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
