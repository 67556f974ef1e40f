package luatable

import "strings"

type scanState uint8

const (
	stateNormal scanState = iota
	stateString
	stateEscaped
	stateComment
)

// spanScanner walks text one byte at a time and tells structural bytes apart
// from bytes inside double-quoted strings, after a backslash, or in a "--"
// line comment. It is the single primitive behind brace matching, value
// extraction and the normalizer's code-only rewrites.
type spanScanner struct {
	src    string
	pos    int
	state  scanState
	resume scanState
	// single makes '...' a string too. Raw-text brace matching leaves it off
	// so a stray apostrophe cannot swallow the rest of a table.
	single bool
	quote  byte
}

func newSpanScanner(src string, pos int) *spanScanner {
	return &spanScanner{src: src, pos: pos}
}

// newCodeScanner is a spanScanner for the normalizer, which must agree with
// the decoder on what a string is.
func newCodeScanner(src string, pos int) *spanScanner {
	return &spanScanner{src: src, pos: pos, single: true}
}

// next returns the byte at the current position and advances. code is true
// when the byte is outside any string and not escaped. ok is false at the end
// of input.
func (s *spanScanner) next() (c byte, code bool, ok bool) {
	if s.pos >= len(s.src) {
		return 0, false, false
	}
	c = s.src[s.pos]
	s.pos++
	switch s.state {
	case stateEscaped:
		s.state = s.resume
		return c, false, true
	case stateString:
		switch c {
		case '\\':
			s.resume = stateString
			s.state = stateEscaped
		case s.quote:
			s.state = stateNormal
		}
		return c, false, true
	case stateComment:
		if c == '\n' {
			s.state = stateNormal
			return c, true, true
		}
		return c, false, true
	}
	switch c {
	case '\\':
		s.resume = stateNormal
		s.state = stateEscaped
		return c, false, true
	case '"':
		s.state, s.quote = stateString, '"'
		return c, false, true
	case '\'':
		if s.single {
			s.state, s.quote = stateString, '\''
			return c, false, true
		}
	case '-':
		if s.pos < len(s.src) && s.src[s.pos] == '-' {
			s.state = stateComment
			return c, false, true
		}
	}
	return c, true, true
}

// seek moves to pos and resets to the normal state.
func (s *spanScanner) seek(pos int) {
	s.pos = pos
	s.state = stateNormal
}

// MatchBrace returns the index of the '}' that closes the '{' at s[open].
// Braces inside quoted strings are ignored. ok is false when the brace is
// never closed.
func MatchBrace(s string, open int) (end int, ok bool) {
	if open < 0 || open >= len(s) || s[open] != '{' {
		return -1, false
	}
	sc := newSpanScanner(s, open)
	depth := 0
	for {
		c, code, more := sc.next()
		if !more {
			return -1, false
		}
		if !code {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return sc.pos - 1, true
			}
		}
	}
}

// ValueEnd returns the end of the value starting at s[start]: the index of
// the first ',' outside strings and nested {} or [] pairs, the index of a
// closing bracket that would take the depth below zero, or len(s).
func ValueEnd(s string, start int) int {
	sc := newSpanScanner(s, start)
	depth := 0
	for {
		pos := sc.pos
		c, code, more := sc.next()
		if !more {
			return len(s)
		}
		if !code {
			continue
		}
		switch c {
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth < 0 {
				return pos
			}
		case ',':
			if depth == 0 {
				return pos
			}
		}
	}
}

// mapCode applies fn to every run of s that lies outside quoted strings and
// leaves string contents untouched.
func mapCode(s string, fn func(string) string) string {
	var b strings.Builder
	b.Grow(len(s))
	sc := newCodeScanner(s, 0)
	start, inCode := 0, true
	flush := func(end int) {
		if inCode {
			b.WriteString(fn(s[start:end]))
		} else {
			b.WriteString(s[start:end])
		}
	}
	for {
		pos := sc.pos
		_, code, more := sc.next()
		if !more {
			break
		}
		if code != inCode {
			flush(pos)
			start, inCode = pos, code
		}
	}
	flush(len(s))
	return b.String()
}
