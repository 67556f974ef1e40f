package luatable

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePositionalTableIsSequence(t *testing.T) {
	v, err := Decode(`{ {index=1}, {index=2} }`)
	require.NoError(t, err)
	require.Equal(t, KindSequence, v.Kind())
	require.Len(t, v.Items(), 2)
	for i, item := range v.Items() {
		require.Equal(t, KindMapping, item.Kind())
		assert.Equal(t, []string{"index"}, item.Mapping().Keys())
		assert.Equal(t, Number([]string{"1", "2"}[i]), item.Mapping().Lookup("index"))
	}
}

func TestDecodeScalars(t *testing.T) {
	v, err := Decode(`{a=0x10, b=.5, c=-3, d=+2, e=1e3, s='x', t="q\"x\65", u=nil, w=word, f=false}`)
	require.NoError(t, err)
	m := v.Mapping()
	require.NotNil(t, m)

	assert.Equal(t, []string{"a", "b", "c", "d", "e", "s", "t", "u", "w", "f"}, m.Keys())
	assert.Equal(t, Number("16"), m.Lookup("a"))
	assert.Equal(t, Number("0.5"), m.Lookup("b"))
	assert.Equal(t, Number("-3"), m.Lookup("c"))
	assert.Equal(t, Number("2"), m.Lookup("d"))
	assert.Equal(t, Number("1e3"), m.Lookup("e"))
	assert.Equal(t, String("x"), m.Lookup("s"))
	assert.Equal(t, String(`q"xA`), m.Lookup("t"))
	assert.True(t, m.Lookup("u").IsNull())
	assert.Equal(t, String("word"), m.Lookup("w"))
	assert.Equal(t, Bool(false), m.Lookup("f"))
}

func TestDecodeWideHex(t *testing.T) {
	v, err := Decode(`{a=0xFFFFFFFFFFFFFFFFFF, b=-0x10000000000000000}`)
	require.NoError(t, err)
	assert.Equal(t, Number("4722366482869645213695"), v.Mapping().Lookup("a"))
	assert.Equal(t, Number("-18446744073709551616"), v.Mapping().Lookup("b"))
}

func TestDecodeMixedTable(t *testing.T) {
	v, err := Decode(`{"x", k = 1; "y"}`)
	require.NoError(t, err)
	require.Equal(t, KindMapping, v.Kind())
	assert.Equal(t, []string{"1", "k", "2"}, v.Mapping().Keys())
	assert.Equal(t, String("y"), v.Mapping().Lookup("2"))
}

func TestDecodeEmptyTableIsMapping(t *testing.T) {
	v, err := Decode(`{}`)
	require.NoError(t, err)
	assert.Equal(t, KindMapping, v.Kind())
	assert.Equal(t, 0, v.Mapping().Len())
}

func TestDecodeJSONArrayAndKeyForms(t *testing.T) {
	v, err := Decode(`{"a": [1, "two", {"3": true}], [5] = "five", ["b"] = 2}`)
	require.NoError(t, err)
	m := v.Mapping()
	assert.Equal(t, []string{"a", "5", "b"}, m.Keys())
	assert.Equal(t, `[1,"two",{"3":true}]`, m.Lookup("a").String())
}

func TestDecodeErrorPosition(t *testing.T) {
	_, err := Decode(`{"a": 1 "b": 2}`)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 8, de.Offset)
	assert.Equal(t, 1, de.Line)
	assert.Equal(t, 9, de.Column)
	assert.Contains(t, de.Error(), "expected ',' or '}'")

	_, err = Decode("{\n  a = 1,\n  b = @\n}")
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 3, de.Line)
	assert.Equal(t, 7, de.Column)
}

func TestDecodeUnterminated(t *testing.T) {
	for _, in := range []string{`{a=1`, `{a="x}`, `[1,2`, `{a=`} {
		_, err := Decode(in)
		var de *DecodeError
		assert.ErrorAs(t, err, &de, "input %q", in)
	}
}

func TestDecodeMaxDepth(t *testing.T) {
	deep := strings.Repeat("{", MaxDepth+1) + strings.Repeat("}", MaxDepth+1)
	_, err := Decode(deep)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nesting depth")

	ok := strings.Repeat("{", MaxDepth) + strings.Repeat("}", MaxDepth)
	_, err = Decode(ok)
	require.NoError(t, err)
}

func TestDecodeRecords(t *testing.T) {
	recs, err := DecodeRecords(`{"1": {"name": "a"}, "2": 5, "3": {"name": "c"}}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, recs.Keys())

	recs, err = DecodeRecords(`{ {name="a"}, "skip", {name="c"} }`)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, recs.Keys())

	_, err = DecodeRecords(`"just a string"`)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
}

func TestValueMarshalJSON(t *testing.T) {
	m := NewMapping()
	m.Set("name", String("<b>&火"))
	m.Set("list", Seq(Number("1"), String("x")))
	m.Set("none", Null())
	m.Set("name", String("again"))

	b, err := Map(m).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"name":"again","list":[1,"x"],"none":null}`, string(b))

	m.Set("html", String("<b>&火"))
	out := Map(m).AppendJSON(nil, strings.ToUpper)
	assert.Equal(t, `{"name":"AGAIN","list":[1,"X"],"none":null,"html":"<B>&火"}`, string(out))
}
