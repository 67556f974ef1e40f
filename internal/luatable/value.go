// Package luatable recovers records from Lua table literals embedded in text
// files.
//
// Two strategies are offered behind Parse: a generic decoder that runs over
// normalized text, and a tolerant scanner that pulls "[id] = { ... }" entries
// out of raw text one at a time. Decoded data is represented by Value, a
// tagged union over the shapes a table literal can hold.
package luatable

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Kind is the tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Value is a decoded literal. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	text string // string contents or canonical number literal
	seq  []Value
	m    *Mapping
}

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a numeric literal. The text is kept as written (after
// canonicalization by the decoder) so rendering reproduces the source.
func Number(text string) Value { return Value{kind: KindNumber, text: text} }

func String(s string) Value { return Value{kind: KindString, text: s} }

func Seq(items ...Value) Value { return Value{kind: KindSequence, seq: items} }

// Map wraps m. A nil m becomes an empty mapping.
func Map(m *Mapping) Value {
	if m == nil {
		m = NewMapping()
	}
	return Value{kind: KindMapping, m: m}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Truth returns the boolean payload; false for non-bool values.
func (v Value) Truth() bool { return v.kind == KindBool && v.b }

// Text returns the payload of a string or number, "" otherwise.
func (v Value) Text() string {
	if v.kind == KindString || v.kind == KindNumber {
		return v.text
	}
	return ""
}

// Items returns the elements of a sequence, nil otherwise.
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	return v.seq
}

// Mapping returns the mapping payload, nil for other kinds.
func (v Value) Mapping() *Mapping {
	if v.kind != KindMapping {
		return nil
	}
	return v.m
}

// Float64 reports the numeric value of a number.
func (v Value) Float64() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.text, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// String renders the value for diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "nil"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return v.text
	case KindString:
		return strconv.Quote(v.text)
	default:
		return string(v.AppendJSON(nil, nil))
	}
}

// Mapping is a string-keyed map that remembers insertion order.
type Mapping struct {
	keys []string
	vals map[string]Value
}

// Record is one decoded top-level table entry.
type Record = *Mapping

func NewMapping() *Mapping {
	return &Mapping{vals: make(map[string]Value)}
}

// Set stores v under k. Replacing an existing key keeps its original position.
func (m *Mapping) Set(k string, v Value) {
	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}
	m.vals[k] = v
}

func (m *Mapping) Get(k string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.vals[k]
	return v, ok
}

// Lookup returns the value under k, or null when absent.
func (m *Mapping) Lookup(k string) Value {
	v, _ := m.Get(k)
	return v
}

func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Values returns the values in key insertion order.
func (m *Mapping) Values() []Value {
	if m == nil {
		return nil
	}
	out := make([]Value, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.vals[k])
	}
	return out
}

// Each calls fn for every entry in order until fn returns false.
func (m *Mapping) Each(fn func(k string, v Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// canonicalNumber rewrites a numeric literal into plain decimal form.
// ok is false when lit is not a number.
func canonicalNumber(lit string) (string, bool) {
	s := strings.TrimPrefix(lit, "+")
	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")
	if body == "" {
		return "", false
	}
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		digits := body[2:]
		if strings.HasPrefix(digits, "-") || strings.HasPrefix(digits, "+") {
			return "", false
		}
		n, ok := new(big.Int).SetString(digits, 16)
		if !ok {
			return "", false
		}
		out := n.String()
		if neg {
			out = "-" + out
		}
		return out, true
	}
	if _, err := strconv.ParseFloat(body, 64); err != nil {
		if !errors.Is(err, strconv.ErrRange) {
			return "", false
		}
	}
	if strings.ContainsAny(body, "xXpP_") || strings.EqualFold(body, "inf") || strings.EqualFold(body, "infinity") || strings.EqualFold(body, "nan") {
		return "", false
	}
	if strings.HasPrefix(body, ".") {
		body = "0" + body
	}
	if i := strings.IndexByte(body, '.'); i >= 0 && (i == len(body)-1 || body[i+1] == 'e' || body[i+1] == 'E') {
		body = body[:i+1] + "0" + body[i+1:]
	}
	if neg {
		body = "-" + body
	}
	return body, true
}
