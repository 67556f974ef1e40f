package tabular

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadHeaderText(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    []string
	}{
		{name: "csv", file: "a.csv", content: "id,name,desc\n1,x,y\n", want: []string{"id", "name", "desc"}},
		{name: "bom and blank lines", file: "b.csv", content: "\xef\xbb\xbf\n\nid, name ,\n", want: []string{"id", "name"}},
		{name: "lazy quotes", file: "c.csv", content: "id,na\"me\n", want: []string{"id", `na"me`}},
		{name: "tab separated txt", file: "d.txt", content: "id\tlevel\r\n1\t2\r\n", want: []string{"id", "level"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadHeader(writeTemp(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadHeaderSchemaMismatch(t *testing.T) {
	for _, content := range []string{"", "\n\n", ",,\n"} {
		_, err := ReadHeader(writeTemp(t, "empty.csv", content))
		var sm *SchemaMismatch
		require.ErrorAs(t, err, &sm, "content %q", content)
	}

	_, err := ReadHeader(filepath.Join(t.TempDir(), "missing.csv"))
	var sm *SchemaMismatch
	require.ErrorAs(t, err, &sm)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadHeaderXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "id"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "name"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	got, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, got)
}

func TestWriteCSVAndTSVCarrySameRows(t *testing.T) {
	tbl := Table{
		Header: []string{"id", "desc"},
		Rows: [][]string{
			{"1", `say ""hi""`},
			{"2", "a,b\tc"},
		},
	}
	var c, s bytes.Buffer
	require.NoError(t, WriteCSV(&c, tbl))
	require.NoError(t, WriteTSV(&s, tbl))

	assert.Equal(t, "id,desc\r\n1,\"say \"\"\"\"hi\"\"\"\"\"\r\n2,\"a,b\tc\"\r\n", c.String())
	assert.Equal(t, "id\tdesc\r\n1\t\"say \"\"\"\"hi\"\"\"\"\"\r\n2\t\"a,b\tc\"\r\n", s.String())
}

func TestRender(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out", "cfgItem_20240102")
	tbl := Table{Header: []string{"id", "name", "1st"}, Rows: [][]string{{"1", "火", "x"}, {"2", "b", ""}}}

	paths, err := Render(base, tbl, Formats{XLSX: true, Parquet: true})
	require.NoError(t, err)
	require.Equal(t, []string{base + ".csv", base + ".txt", base + ".xlsx", base + ".parquet"}, paths)
	for _, p := range paths {
		st, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, st.Size(), p)
	}

	csvBytes, err := os.ReadFile(base + ".csv")
	require.NoError(t, err)
	assert.Equal(t, "id,name,1st\r\n1,火,x\r\n2,b,\r\n", string(csvBytes))

	got, err := ReadHeader(base + ".xlsx")
	require.NoError(t, err)
	assert.Equal(t, tbl.Header, got)

	txt, err := ReadHeader(base + ".txt")
	require.NoError(t, err)
	assert.Equal(t, tbl.Header, txt)
}

func TestRenderDefaultFormats(t *testing.T) {
	base := filepath.Join(t.TempDir(), "plain")
	paths, err := Render(base, Table{Header: []string{"id"}}, Formats{})
	require.NoError(t, err)
	assert.Equal(t, []string{base + ".csv", base + ".txt"}, paths)
}

func TestWriteHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "format", "cfgskill.csv")
	require.NoError(t, WriteHeader(path, []string{"id", "name"}))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,name\r\n", string(b))
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "a_b_c", sheetName("a/b:c"))
	assert.Equal(t, "Sheet1", sheetName(""))
	assert.Len(t, []rune(sheetName(strings.Repeat("x", 40))), 31)
}

func TestParquetColumns(t *testing.T) {
	assert.Equal(t, []string{"id", "c_1st", "skill_id", "id_2", "c_"}, parquetColumns([]string{"id", "1st", "skill-id", "id", ""}))
}
