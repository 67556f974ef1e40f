package luatable

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchBrace(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		open   int
		want   int
		wantOK bool
	}{
		{name: "flat", s: `{a=1}`, want: 4, wantOK: true},
		{name: "nested", s: `{a={b={}}} tail`, want: 9, wantOK: true},
		{name: "brace in string", s: `{a="}", b={c}}`, want: 13, wantOK: true},
		{name: "escaped quote in string", s: `{a="\"}", b=1}`, want: 13, wantOK: true},
		{name: "brace in comment", s: "{a=1 -- }\n}", want: 10, wantOK: true},
		{name: "apostrophe is not a quote", s: `{a=it's}`, want: 7, wantOK: true},
		{name: "offset start", s: `x = {1}`, open: 4, want: 6, wantOK: true},
		{name: "unbalanced", s: `{a={}`, want: -1},
		{name: "not a brace", s: `abc`, want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchBrace(tt.s, tt.open)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueEnd(t *testing.T) {
	tests := []struct {
		s    string
		want int
	}{
		{s: `1, b = 2`, want: 1},
		{s: `{1,2}, x`, want: 5},
		{s: `[1,{2}],`, want: 7},
		{s: `"a,b"}`, want: 5},
		{s: `"a\",b", c`, want: 7},
		{s: `tail`, want: 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValueEnd(tt.s, 0), "value %q", tt.s)
	}
}

func TestMapCodeLeavesStringsAlone(t *testing.T) {
	got := mapCode(`a "b" c "d\"e" f`, strings.ToUpper)
	assert.Equal(t, `A "b" C "d\"e" F`, got)

	got = mapCode(`a 'b,}' c "it's" d`, strings.ToUpper)
	assert.Equal(t, `A 'b,}' C "it's" D`, got)
}
