package luatable

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

// fullWidth maps punctuation common in localized text to ASCII.
var fullWidth = strings.NewReplacer(
	"：", ":", "，", ",", "？", "?", "！", "!", "（", "(", "）", ")",
	"［", "[", "］", "]", "｛", "{", "｝", "}", "“", `"`, "”", `"`,
	"‘", "'", "’", "'", "…", "...", "—", "-", "–", "-", "、", ",",
	"。", ".", "《", `"`, "》", `"`, "〈", `"`, "〉", `"`, "·", ".",
	"「", `"`, "」", `"`, "『", `"`, "』", `"`, "【", "[", "】", "]",
	"％", "%", "＃", "#", "＆", "&", "＊", "*", "／", "/", "＼", `\`,
	"＂", `"`, "＇", "'", "＄", "$", "＠", "@", "＾", "^", "＿", "_",
	"＋", "+", "＝", "=", "｜", "|", "；", ";",
	"\u3000", " ",
)

// narrowPunct folds the remaining full-width ASCII punctuation and symbols
// (U+FF01..U+FF5E) that the table above does not list. Letters and digits
// are left alone.
var narrowPunct = runes.If(runes.Predicate(func(r rune) bool {
	return r >= 0xFF01 && r <= 0xFF5E && (unicode.IsPunct(r) || unicode.IsSymbol(r))
}), width.Narrow, nil)

var (
	boolToken        = regexp.MustCompile(`\b(?:True|TRUE|False|FALSE)\b`)
	bracketStringKey = regexp.MustCompile(`\["([A-Za-z0-9_]+)"\]`)
	trailingComma    = regexp.MustCompile(`,(?:\s*,)*(\s*[}\]])`)
	// keyAt matches a table key and its '=' at the start of the input:
	// [123]=, [name]=, ["name"]=, "name"=, name= and 123=.
	keyAt = regexp.MustCompile(`^(?:\[\s*(?:"([^"\\]*)"|'([^'\\]*)'|(-?[0-9]+)|([A-Za-z_][A-Za-z0-9_]*))\s*\]|"([^"\\]*)"|([A-Za-z_][A-Za-z0-9_]*)|(-?[0-9]+))\s*=`)
)

// ExtractLiteral returns the table literal of an assignment: the text from
// the first '{' after the first '=' through the last '}' in src.
func ExtractLiteral(src string) (string, error) {
	eq := strings.IndexByte(src, '=')
	if eq < 0 {
		return "", &StructureError{Msg: "no '=' found"}
	}
	open := strings.IndexByte(src[eq:], '{')
	if open < 0 {
		return "", &StructureError{Msg: "no '{' after '='"}
	}
	open += eq
	end := strings.LastIndexByte(src, '}')
	if end < open {
		return "", &StructureError{Msg: "no closing '}' after the table start"}
	}
	return src[open : end+1], nil
}

// NormalizeSource extracts the table literal from src and normalizes it.
func NormalizeSource(src string) (string, error) {
	lit, err := ExtractLiteral(src)
	if err != nil {
		return "", err
	}
	return Normalize(lit), nil
}

// Normalize rewrites a loosely formatted table literal into the canonical
// form the generic decoder reads best. It never fails and applying it twice
// gives the same result as applying it once.
func Normalize(lit string) string {
	s := foldWidth(lit)
	s = scrubControl(s)
	s = mapCode(s, func(code string) string {
		return boolToken.ReplaceAllStringFunc(code, strings.ToLower)
	})
	s = bracketStringKey.ReplaceAllString(s, `"$1"`)
	s = stripComments(s)
	s = mapCode(s, func(code string) string {
		return trailingComma.ReplaceAllString(code, "$1")
	})
	return canonicalKeys(s)
}

func foldWidth(s string) string {
	s = fullWidth.Replace(s)
	out, _, err := transform.String(narrowPunct, s)
	if err != nil {
		return s
	}
	return out
}

// scrubControl replaces ASCII control characters with spaces. Newlines,
// carriage returns and tabs survive so comments can still be found line by
// line; anything at or above U+0080 is kept verbatim.
func scrubControl(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return r
		case r < 0x20 || r == 0x7F:
			return ' '
		}
		return r
	}, s)
}

// stripComments drops "--" comments outside strings, line by line, then joins
// the lines with nothing in between.
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSuffix(line, "\r")
		b.WriteString(line[:commentStart(line)])
	}
	return b.String()
}

// commentStart returns the index of the first "--" outside a string, or
// len(line).
func commentStart(line string) int {
	sc := newCodeScanner(line, 0)
	for {
		pos := sc.pos
		if _, _, more := sc.next(); !more {
			return len(line)
		}
		if sc.state == stateComment {
			return pos
		}
	}
}

// canonicalKeys rewrites every key that follows '{' or ',' into "key": form.
func canonicalKeys(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/8)
	sc := newCodeScanner(s, 0)
	var prev byte
	for {
		pos := sc.pos
		if (prev == '{' || prev == ',') && sc.state == stateNormal {
			if key, n, ok := matchKey(s[pos:]); ok {
				b.WriteString(quoteKey(key))
				b.WriteByte(':')
				sc.seek(pos + n)
				prev = ':'
				continue
			}
		}
		c, code, more := sc.next()
		if !more {
			break
		}
		b.WriteByte(c)
		switch {
		case !code:
			prev = '"'
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
		default:
			prev = c
		}
	}
	return b.String()
}

func matchKey(s string) (key string, n int, ok bool) {
	m := keyAt.FindStringSubmatchIndex(s)
	if m == nil {
		return "", 0, false
	}
	// "==" is a comparison, not an assignment.
	if m[1] < len(s) && s[m[1]] == '=' {
		return "", 0, false
	}
	for g := 1; g < len(m)/2; g++ {
		if m[2*g] >= 0 {
			return s[m[2*g]:m[2*g+1]], m[1], true
		}
	}
	return "", 0, false
}

func quoteKey(k string) string {
	return string(appendJSONString(nil, k))
}
