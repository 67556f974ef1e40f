package luatable

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// MarshalJSON renders v as compact JSON. Mapping keys keep their stored
// order and non-ASCII text is left unescaped.
func (v Value) MarshalJSON() ([]byte, error) {
	return v.AppendJSON(nil, nil), nil
}

// AppendJSON appends the compact JSON form of v to dst. When str is not nil
// every string payload is passed through it before encoding.
func (v Value) AppendJSON(dst []byte, str func(string) string) []byte {
	switch v.kind {
	case KindNull:
		return append(dst, "null"...)
	case KindBool:
		return strconv.AppendBool(dst, v.b)
	case KindNumber:
		if json.Valid([]byte(v.text)) {
			return append(dst, v.text...)
		}
		return appendJSONString(dst, v.text)
	case KindString:
		s := v.text
		if str != nil {
			s = str(s)
		}
		return appendJSONString(dst, s)
	case KindSequence:
		dst = append(dst, '[')
		for i, item := range v.seq {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = item.AppendJSON(dst, str)
		}
		return append(dst, ']')
	case KindMapping:
		dst = append(dst, '{')
		first := true
		v.m.Each(func(k string, item Value) bool {
			if !first {
				dst = append(dst, ',')
			}
			first = false
			dst = appendJSONString(dst, k)
			dst = append(dst, ':')
			dst = item.AppendJSON(dst, str)
			return true
		})
		return append(dst, '}')
	}
	return dst
}

func appendJSONString(dst []byte, s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	return append(dst, bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})...)
}
