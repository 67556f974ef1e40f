package luatable

import "fmt"

// StructureError reports that the assignment/table delimiters needed to
// locate a literal are missing.
type StructureError struct {
	Msg string
}

func (e *StructureError) Error() string {
	return "table structure: " + e.Msg
}

// DecodeError reports a grammar violation found by the generic decoder.
// Offset is a byte offset into the decoded text; Line and Column are 1-based.
type DecodeError struct {
	Offset int
	Line   int
	Column int
	Msg    string
	Near   string
}

func (e *DecodeError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("decode: line %d, column %d (offset %d): %s", e.Line, e.Column, e.Offset, e.Msg)
	}
	return fmt.Sprintf("decode: line %d, column %d (offset %d): %s near %q", e.Line, e.Column, e.Offset, e.Msg, e.Near)
}

// PartialEntryError reports an entry the tolerant scanner had to drop.
// Scanning continues after it.
type PartialEntryError struct {
	Entry  string // table key of the entry
	Offset int    // byte offset of the entry marker in the source
	Msg    string
}

func (e *PartialEntryError) Error() string {
	return fmt.Sprintf("entry [%s] at offset %d: %s", e.Entry, e.Offset, e.Msg)
}

func newDecodeError(src string, offset int, format string, args ...any) *DecodeError {
	if offset > len(src) {
		offset = len(src)
	}
	line, col := 1, 1
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	lo, hi := offset-16, offset+16
	if lo < 0 {
		lo = 0
	}
	if hi > len(src) {
		hi = len(src)
	}
	return &DecodeError{
		Offset: offset,
		Line:   line,
		Column: col,
		Msg:    fmt.Sprintf(format, args...),
		Near:   src[lo:hi],
	}
}
