package luatable

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	entryMarker   = regexp.MustCompile(`\[(\d+)\]\s*=\s*\{`)
	entryMarkerAt = regexp.MustCompile(`^\[\d+\]\s*=\s*\{`)
	// entryKey matches [name]=, ["name"]=, "name"= or name= at the start of
	// the input.
	entryKey = regexp.MustCompile(`^(?:\[\s*"?([A-Za-z_][A-Za-z0-9_]*)"?\s*\]|"([A-Za-z_][A-Za-z0-9_]*)"|([A-Za-z_][A-Za-z0-9_]*))\s*=\s*`)
	// fieldKey also accepts [123]= inside nested tables.
	fieldKey      = regexp.MustCompile(`^(?:\[\s*"?([A-Za-z_][A-Za-z0-9_]*)"?\s*\]|\[\s*(-?[0-9]+)\s*\]|"([A-Za-z_][A-Za-z0-9_]*)"|([A-Za-z_][A-Za-z0-9_]*))\s*=\s*`)
	numberLiteral = regexp.MustCompile(`^[-+]?(?:0[xX][0-9A-Fa-f]+|[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?|[0-9]+\.)$`)
)

// ExtractEntries pulls every "[<digits>] = { ... }" entry out of raw source
// text without normalizing it first. Each record carries its table key under
// "id" (a field named id inside the entry overrides the value but keeps the
// position). Entries whose braces never balance, or whose span runs into the
// next entry's marker, are reported in skipped and scanning resumes right
// after their opening brace.
func ExtractEntries(raw string) (records []Record, skipped []*PartialEntryError) {
	outerClose := enclosingClose(raw)
	pos := 0
	for pos < len(raw) {
		m := entryMarker.FindStringSubmatchIndex(raw[pos:])
		if m == nil {
			break
		}
		markerAt := pos + m[0]
		id := raw[pos+m[2] : pos+m[3]]
		open := pos + m[1] - 1

		end, ok := MatchBrace(raw, open)
		msg := "unbalanced braces"
		switch {
		case ok && end == outerClose:
			ok, msg = false, "unclosed before the end of the table"
		case ok && siblingMarker(raw[open+1:end]):
			ok, msg = false, "unclosed before the next entry"
		}
		if !ok {
			skipped = append(skipped, &PartialEntryError{
				Entry:  id,
				Offset: markerAt,
				Msg:    msg,
			})
			pos = open + 1
			continue
		}

		rec := NewMapping()
		rec.Set("id", Number(id))
		scanFields(raw[open+1:end], entryKey, func(key string, v Value) {
			rec.Set(key, v)
		}, nil)
		records = append(records, rec)
		pos = end + 1
	}
	return records, skipped
}

// enclosingClose returns the index of the '}' closing the table that wraps
// the entries, or -1 when the entries are not wrapped in one.
func enclosingClose(raw string) int {
	m := entryMarker.FindStringIndex(raw)
	if m == nil || strings.IndexByte(raw[:m[0]], '{') < 0 {
		return -1
	}
	return strings.LastIndexByte(raw, '}')
}

// siblingMarker reports whether body holds a "[<digits>] = {" marker at its
// own top level. A well-formed entry nests such tables inside a field; one at
// the top means the entry lost its closing brace and the match ran on into
// the entries after it.
func siblingMarker(body string) bool {
	sc := newSpanScanner(body, 0)
	depth := 0
	for {
		pos := sc.pos
		c, code, more := sc.next()
		if !more {
			return false
		}
		if !code {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
		case '[':
			if depth == 0 && entryMarkerAt.MatchString(body[pos:]) {
				return true
			}
		}
	}
}

// scanFields walks the body of a table. For each "key = value" it calls
// onField; positional values go to onItem when it is set and are skipped
// otherwise.
func scanFields(body string, key *regexp.Regexp, onField func(string, Value), onItem func(Value)) {
	pos := 0
	for pos < len(body) {
		switch c := body[pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',' || c == ';':
			pos++
			continue
		case c == '-' && strings.HasPrefix(body[pos:], "--"):
			nl := strings.IndexByte(body[pos:], '\n')
			if nl < 0 {
				return
			}
			pos += nl + 1
			continue
		}

		if m := key.FindStringSubmatchIndex(body[pos:]); m != nil && !strings.HasPrefix(body[pos+m[1]:], "=") {
			name := firstGroup(body[pos:], m)
			start := pos + m[1]
			end := ValueEnd(body, start)
			onField(name, classify(body[start:end]))
			pos = end + 1
			continue
		}

		end := ValueEnd(body, pos)
		if end == pos {
			// A stray closing bracket; step over it.
			pos++
			continue
		}
		if onItem != nil {
			onItem(classify(body[pos:end]))
		}
		pos = end + 1
	}
}

func firstGroup(s string, m []int) string {
	for g := 1; g < len(m)/2; g++ {
		if m[2*g] >= 0 {
			return s[m[2*g]:m[2*g+1]]
		}
	}
	return ""
}

// classify turns the raw text of a value into a Value: quoted strings with
// \" unescaped, booleans, nested tables, numbers, and raw text otherwise.
func classify(raw string) Value {
	v := strings.TrimSpace(raw)
	switch {
	case len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"':
		return String(strings.ReplaceAll(v[1:len(v)-1], `\"`, `"`))
	case strings.EqualFold(v, "true"):
		return Bool(true)
	case strings.EqualFold(v, "false"):
		return Bool(false)
	case v == "nil":
		return Null()
	case strings.HasPrefix(v, "{"):
		if t, ok := subTable(v); ok {
			return t
		}
		return String(v)
	case numberLiteral.MatchString(v):
		if text, ok := canonicalNumber(v); ok {
			return Number(text)
		}
	}
	return String(v)
}

// subTable decodes a nested table one key=value pair at a time. A table with
// only positional items becomes a sequence.
func subTable(v string) (Value, bool) {
	end, ok := MatchBrace(v, 0)
	if !ok || strings.TrimSpace(v[end+1:]) != "" {
		return Value{}, false
	}
	m := NewMapping()
	var items []Value
	scanFields(v[1:end], fieldKey, func(key string, fv Value) {
		m.Set(key, fv)
	}, func(iv Value) {
		items = append(items, iv)
	})
	if m.Len() == 0 && len(items) > 0 {
		return Seq(items...), true
	}
	for i, iv := range items {
		m.Set(strconv.Itoa(i+1), iv)
	}
	return Map(m), true
}
