package luatable

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxDepth bounds table nesting in the generic decoder.
const MaxDepth = 200

type decoder struct {
	src   string
	pos   int
	depth int
}

// Decode parses one table literal (or any single literal value) in the
// Lua/JSON hybrid produced by Normalize. Keys may be written "k":, "k"=, k=,
// [k]= or [1]=; entries may be separated by ',' or ';'. A table holding only
// positional entries decodes to a sequence; an empty or mixed table decodes
// to a mapping, positional entries keyed "1", "2", ...
func Decode(src string) (Value, error) {
	d := &decoder{src: src}
	d.skipSpace()
	v, err := d.value()
	if err != nil {
		return Value{}, err
	}
	d.skipSpace()
	if d.pos < len(d.src) {
		return Value{}, d.errorf("unexpected %q after value", d.src[d.pos])
	}
	return v, nil
}

// DecodeRecords decodes src and returns its table entries whose values are
// themselves tables with named fields, keyed by their table key. Other
// entries are skipped.
func DecodeRecords(src string) (*Mapping, error) {
	v, err := Decode(src)
	if err != nil {
		return nil, err
	}
	out := NewMapping()
	switch v.Kind() {
	case KindMapping:
		v.Mapping().Each(func(k string, item Value) bool {
			if item.Kind() == KindMapping {
				out.Set(k, item)
			}
			return true
		})
	case KindSequence:
		for i, item := range v.Items() {
			if item.Kind() == KindMapping {
				out.Set(strconv.Itoa(i+1), item)
			}
		}
	default:
		return nil, newDecodeError(src, 0, "top-level value is a %s, not a table", v.Kind())
	}
	return out, nil
}

func (d *decoder) errorf(format string, args ...any) *DecodeError {
	return newDecodeError(d.src, d.pos, format, args...)
}

func (d *decoder) peek() byte {
	if d.pos >= len(d.src) {
		return 0
	}
	return d.src[d.pos]
}

func (d *decoder) skipSpace() {
	for d.pos < len(d.src) {
		switch c := d.src[d.pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			d.pos++
		case c == '-' && strings.HasPrefix(d.src[d.pos:], "--"):
			nl := strings.IndexByte(d.src[d.pos:], '\n')
			if nl < 0 {
				d.pos = len(d.src)
				return
			}
			d.pos += nl + 1
		default:
			return
		}
	}
}

func (d *decoder) value() (Value, error) {
	switch c := d.peek(); {
	case c == '{':
		return d.table()
	case c == '[':
		return d.array()
	case c == '"' || c == '\'':
		s, err := d.str()
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		return d.number()
	case isIdentStart(c):
		return d.word(), nil
	case c == 0:
		return Value{}, d.errorf("unexpected end of input")
	default:
		return Value{}, d.errorf("unexpected %q", c)
	}
}

func (d *decoder) enter() error {
	d.depth++
	if d.depth > MaxDepth {
		return d.errorf("maximum nesting depth (%d) exceeded", MaxDepth)
	}
	return nil
}

func (d *decoder) table() (Value, error) {
	if err := d.enter(); err != nil {
		return Value{}, err
	}
	defer func() { d.depth-- }()
	d.pos++ // {

	m := NewMapping()
	keyed := false
	n := 0
	for {
		d.skipSpace()
		switch d.peek() {
		case 0:
			return Value{}, d.errorf("unterminated table")
		case '}':
			d.pos++
			if !keyed && m.Len() > 0 {
				return Seq(m.Values()...), nil
			}
			return Map(m), nil
		case ',', ';':
			d.pos++
			continue
		}

		key, hasKey, v, err := d.field()
		if err != nil {
			return Value{}, err
		}
		if hasKey {
			keyed = true
			m.Set(key, v)
		} else {
			n++
			m.Set(strconv.Itoa(n), v)
		}

		d.skipSpace()
		switch d.peek() {
		case ',', ';', '}':
		case 0:
			return Value{}, d.errorf("unterminated table")
		default:
			return Value{}, d.errorf("expected ',' or '}' but found %q", d.peek())
		}
	}
}

// field reads one table entry: "[k] = v", "k = v", "k: v" or a positional v.
func (d *decoder) field() (key string, hasKey bool, v Value, err error) {
	if d.peek() == '[' {
		d.pos++
		d.skipSpace()
		kv, err := d.value()
		if err != nil {
			return "", false, Value{}, err
		}
		d.skipSpace()
		if d.peek() != ']' {
			return "", false, Value{}, d.errorf("expected ']' after table key")
		}
		d.pos++
		d.skipSpace()
		if !d.assign() {
			return "", false, Value{}, d.errorf("expected '=' or ':' after [key]")
		}
		key, ok := keyText(kv)
		if !ok {
			return "", false, Value{}, d.errorf("invalid table key %s", kv)
		}
		v, err := d.afterAssign()
		return key, true, v, err
	}

	first, err := d.value()
	if err != nil {
		return "", false, Value{}, err
	}
	d.skipSpace()
	if !d.assign() {
		return "", false, first, nil
	}
	key, ok := keyText(first)
	if !ok {
		return "", false, Value{}, d.errorf("invalid table key %s", first)
	}
	v, err = d.afterAssign()
	return key, true, v, err
}

// assign consumes '=' or ':' when present.
func (d *decoder) assign() bool {
	switch d.peek() {
	case ':':
		d.pos++
		return true
	case '=':
		if strings.HasPrefix(d.src[d.pos:], "==") {
			return false
		}
		d.pos++
		return true
	}
	return false
}

func (d *decoder) afterAssign() (Value, error) {
	d.skipSpace()
	return d.value()
}

func keyText(v Value) (string, bool) {
	switch v.Kind() {
	case KindString, KindNumber:
		return v.Text(), true
	case KindBool:
		return strconv.FormatBool(v.Truth()), true
	}
	return "", false
}

func (d *decoder) array() (Value, error) {
	if err := d.enter(); err != nil {
		return Value{}, err
	}
	defer func() { d.depth-- }()
	d.pos++ // [

	var items []Value
	for {
		d.skipSpace()
		switch d.peek() {
		case 0:
			return Value{}, d.errorf("unterminated array")
		case ']':
			d.pos++
			return Seq(items...), nil
		case ',':
			d.pos++
			continue
		}
		v, err := d.value()
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
		d.skipSpace()
		switch d.peek() {
		case ',', ']':
		case 0:
			return Value{}, d.errorf("unterminated array")
		default:
			return Value{}, d.errorf("expected ',' or ']' but found %q", d.peek())
		}
	}
}

func (d *decoder) number() (Value, error) {
	start := d.pos
	if c := d.peek(); c == '-' || c == '+' {
		d.pos++
	}
	if strings.HasPrefix(d.src[d.pos:], "0x") || strings.HasPrefix(d.src[d.pos:], "0X") {
		d.pos += 2
		for d.pos < len(d.src) && isHexDigit(d.src[d.pos]) {
			d.pos++
		}
	} else {
		for d.pos < len(d.src) && (isDigit(d.src[d.pos]) || d.src[d.pos] == '.') {
			d.pos++
		}
		if c := d.peek(); c == 'e' || c == 'E' {
			d.pos++
			if c := d.peek(); c == '+' || c == '-' {
				d.pos++
			}
			for d.pos < len(d.src) && isDigit(d.src[d.pos]) {
				d.pos++
			}
		}
	}
	lit := d.src[start:d.pos]
	text, ok := canonicalNumber(lit)
	if !ok {
		d.pos = start
		return Value{}, d.errorf("invalid number %q", lit)
	}
	return Number(text), nil
}

// word reads a bare identifier: true, false, nil and null are literals,
// anything else is kept as a string.
func (d *decoder) word() Value {
	start := d.pos
	for d.pos < len(d.src) && (isIdentStart(d.src[d.pos]) || isDigit(d.src[d.pos]) || d.src[d.pos] == '.') {
		d.pos++
	}
	switch w := d.src[start:d.pos]; w {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	case "nil", "null":
		return Null()
	default:
		return String(w)
	}
}

func (d *decoder) str() (string, error) {
	quote := d.src[d.pos]
	start := d.pos
	d.pos++
	var b strings.Builder
	for {
		if d.pos >= len(d.src) {
			d.pos = start
			return "", d.errorf("unterminated string")
		}
		c := d.src[d.pos]
		switch {
		case c == quote:
			d.pos++
			return b.String(), nil
		case c == '\\':
			if err := d.escape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
			d.pos++
		}
	}
}

// escape decodes the escape sequence at d.pos (which holds the backslash).
func (d *decoder) escape(b *strings.Builder) error {
	d.pos++
	if d.pos >= len(d.src) {
		return d.errorf("unterminated escape")
	}
	c := d.src[d.pos]
	d.pos++
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case 'a':
		b.WriteByte('\a')
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'v':
		b.WriteByte('\v')
	case 'z':
		for d.pos < len(d.src) && (d.src[d.pos] == ' ' || d.src[d.pos] == '\t') {
			d.pos++
		}
	case 'x':
		if d.pos+2 <= len(d.src) {
			if n, err := strconv.ParseUint(d.src[d.pos:d.pos+2], 16, 8); err == nil {
				b.WriteByte(byte(n))
				d.pos += 2
				return nil
			}
		}
		b.WriteByte('x')
	case 'u':
		r, ok := d.unicodeEscape()
		if !ok {
			b.WriteByte('u')
			return nil
		}
		b.WriteRune(r)
	default:
		if isDigit(c) {
			end := d.pos - 1
			for end < len(d.src) && end < d.pos+2 && isDigit(d.src[end]) {
				end++
			}
			n, _ := strconv.Atoi(d.src[d.pos-1 : end])
			if n > 255 {
				return d.errorf("decimal escape too large")
			}
			b.WriteByte(byte(n))
			d.pos = end
			return nil
		}
		// \" \' \\ \/ and unknown escapes keep the character itself.
		b.WriteByte(c)
	}
	return nil
}

// unicodeEscape reads the payload of \uXXXX or \u{X...}.
func (d *decoder) unicodeEscape() (rune, bool) {
	rest := d.src[d.pos:]
	if strings.HasPrefix(rest, "{") {
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return 0, false
		}
		n, err := strconv.ParseUint(rest[1:end], 16, 32)
		if err != nil || !utf8.ValidRune(rune(n)) {
			return 0, false
		}
		d.pos += end + 1
		return rune(n), true
	}
	if len(rest) < 4 {
		return 0, false
	}
	n, err := strconv.ParseUint(rest[:4], 16, 32)
	if err != nil {
		return 0, false
	}
	d.pos += 4
	return rune(n), true
}

func isDigit(c byte) bool    { return c >= '0' && c <= '9' }
func isHexDigit(c byte) bool { return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') }
func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}
