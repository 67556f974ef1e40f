package luatable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGeneric(t *testing.T) {
	src := `cfgItem = {
	[1] = { name = "sword", price = 10, }, -- starter
	[2] = { name = "shield", tags = { "a", "b" } },
	note = "not a record",
}`
	records, err := Parse(src, ModeGeneric)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, String("sword"), records[0].Lookup("name"))
	assert.Equal(t, Number("10"), records[0].Lookup("price"))
	assert.Equal(t, Seq(String("a"), String("b")), records[1].Lookup("tags"))
}

func TestParseGenericErrors(t *testing.T) {
	_, err := Parse("nothing to see", ModeGeneric)
	var se *StructureError
	require.ErrorAs(t, err, &se)

	_, err = Parse(`t = { [1] = { a = 1 } [2] = { a = 2 } }`, ModeGeneric)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestParseRepair(t *testing.T) {
	// The last '}' closes entry 2, so the outer table is left open.
	src := `t = { [1] = { name = "a" }, [2] = { name = "b" }`

	_, err := Parse(src, ModeGeneric)
	var de *DecodeError
	require.ErrorAs(t, err, &de)

	records, err := Parse(src, ModeGeneric, WithRepair(true))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, String("b"), records[1].Lookup("name"))
}

func TestParseTolerantReportsSkipped(t *testing.T) {
	var skipped []*PartialEntryError
	records, err := Parse(brokenSkills, ModeTolerant, WithSkipHandler(func(e *PartialEntryError) {
		skipped = append(skipped, e)
	}))
	require.NoError(t, err)
	assert.Len(t, records, 2)
	require.Len(t, skipped, 1)
	assert.Equal(t, "2", skipped[0].Entry)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: ModeGeneric},
		{in: "generic", want: ModeGeneric},
		{in: "tolerant", want: ModeTolerant},
		{in: "strict", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.in != "" {
				assert.Equal(t, tt.in, got.String())
			}
		})
	}
}
