// Package scanner provides a byte cursor over GDScript-like source text.
//
// Peeking never moves the cursor. Lookahead that needs to consume input uses
// Mark/Reset or Try, which rolls the cursor back when the attempt fails.
package scanner

import "github.com/phobologic/gdsnip/internal/model"

// IndentWidth is the number of spaces counted as one indentation level.
const IndentWidth = 4

// Scanner is a cursor over an immutable source string.
type Scanner struct {
	src string
	pos int
}

// Mark is a saved cursor position.
type Mark int

// New returns a scanner positioned at the start of src.
func New(src string) *Scanner {
	return &Scanner{src: src}
}

// Source returns the text being scanned.
func (s *Scanner) Source() string { return s.src }

// Pos returns the current byte offset.
func (s *Scanner) Pos() int { return s.pos }

// AtEnd reports whether the cursor has consumed all input.
func (s *Scanner) AtEnd() bool { return s.pos >= len(s.src) }

// Mark saves the current position.
func (s *Scanner) Mark() Mark { return Mark(s.pos) }

// Reset moves the cursor back to m.
func (s *Scanner) Reset(m Mark) { s.pos = int(m) }

// Try runs fn and restores the cursor if fn returns false.
func (s *Scanner) Try(fn func() bool) bool {
	m := s.Mark()
	if fn() {
		return true
	}
	s.Reset(m)
	return false
}

// Current returns the byte under the cursor, or 0 at end of input.
func (s *Scanner) Current() byte {
	return s.PeekAt(0)
}

// PeekAt returns the byte offset bytes ahead of the cursor, or 0 past the end.
func (s *Scanner) PeekAt(offset int) byte {
	i := s.pos + offset
	if i < 0 || i >= len(s.src) {
		return 0
	}
	return s.src[i]
}

// PeekString reports whether the input at the cursor starts with expected.
func (s *Scanner) PeekString(expected string) bool {
	return len(s.src)-s.pos >= len(expected) && s.src[s.pos:s.pos+len(expected)] == expected
}

// Advance moves the cursor forward one byte.
func (s *Scanner) Advance() {
	if s.pos < len(s.src) {
		s.pos++
	}
}

// AdvanceToPeek moves the cursor forward by offset bytes, typically after a
// successful PeekAt or PeekString.
func (s *Scanner) AdvanceToPeek(offset int) {
	s.pos += offset
	if s.pos > len(s.src) {
		s.pos = len(s.src)
	}
}

// MatchString consumes expected if the input starts with it.
func (s *Scanner) MatchString(expected string) bool {
	if !s.PeekString(expected) {
		return false
	}
	s.pos += len(expected)
	return true
}

// PeekKeyword reports whether kw starts at the cursor as a whole word.
func (s *Scanner) PeekKeyword(kw string) bool {
	return s.PeekString(kw) && !IsIdentifierByte(s.PeekAt(len(kw)))
}

// MatchKeyword consumes kw if it starts at the cursor as a whole word.
func (s *Scanner) MatchKeyword(kw string) bool {
	if !s.PeekKeyword(kw) {
		return false
	}
	s.pos += len(kw)
	return true
}

// SkipWhitespace skips spaces, tabs and carriage returns, stopping at newlines.
func (s *Scanner) SkipWhitespace() {
	for {
		switch s.Current() {
		case ' ', '\t', '\r':
			s.pos++
		default:
			return
		}
	}
}

// AtLineEnd reports whether the cursor sits on a newline or at end of input.
func (s *Scanner) AtLineEnd() bool {
	return s.AtEnd() || s.Current() == '\n'
}

// CountIndentationAndAdvance measures the indentation of the line starting at
// the cursor and moves past it. A leading run of tabs counts one level per
// tab; otherwise the leading run of spaces counts IndentWidth spaces per
// level. Lines mixing both are not normalized any further.
func (s *Scanner) CountIndentationAndAdvance() int {
	if s.Current() == '\t' {
		n := 0
		for s.Current() == '\t' {
			n++
			s.pos++
		}
		return n
	}
	spaces := 0
	for s.Current() == ' ' {
		spaces++
		s.pos++
	}
	return spaces / IndentWidth
}

// ScanIdentifier consumes an identifier and returns its range. The range is
// empty when the cursor does not sit on an identifier byte.
func (s *Scanner) ScanIdentifier() model.Range {
	start := s.pos
	for IsIdentifierByte(s.Current()) {
		s.pos++
	}
	return model.Range{Start: start, End: s.pos}
}

// ScanToEndOfLine moves the cursor onto the next newline without consuming it.
func (s *Scanner) ScanToEndOfLine() int {
	for !s.AtLineEnd() {
		s.pos++
	}
	return s.pos
}

// ScanToStartOfNextLine moves the cursor past the next newline.
func (s *Scanner) ScanToStartOfNextLine() {
	s.ScanToEndOfLine()
	s.Advance()
}

// ScanToEndOfDefinition moves the cursor to the newline that ends the current
// logical line and returns its offset. Newlines inside (), [] or {}, inside
// string literals, or after a trailing backslash do not end the line.
// Brackets inside strings and comments are not counted.
func (s *Scanner) ScanToEndOfDefinition() int {
	end, _ := s.ScanLogicalLine()
	return end
}

// ScanLogicalLine is ScanToEndOfDefinition that also reports the offset of
// the last byte outside comments and whitespace, or -1 if there is none.
func (s *Scanner) ScanLogicalLine() (end, lastCode int) {
	lastCode = -1
	depth := 0
	for !s.AtEnd() {
		switch c := s.Current(); c {
		case '\n':
			if depth <= 0 {
				return s.pos, lastCode
			}
			s.pos++
		case ' ', '\t', '\r':
			s.pos++
		case '#':
			s.ScanToEndOfLine()
		case '"', '\'':
			s.skipString(c)
			lastCode = s.pos - 1
		case '\\':
			s.pos++
			s.Advance()
		default:
			switch c {
			case '(', '[', '{':
				depth++
			case ')', ']', '}':
				depth--
			}
			lastCode = s.pos
			s.pos++
		}
	}
	return s.pos, lastCode
}

// ScanToEndOfHeader moves the cursor past a block header such as a function
// signature: up to the first ':' outside brackets, then to the end of that
// logical line. It returns the offset of the terminating newline. A header
// without a colon ends at the first newline outside brackets.
func (s *Scanner) ScanToEndOfHeader() int {
	depth := 0
	for !s.AtEnd() {
		switch c := s.Current(); c {
		case '\n':
			if depth <= 0 {
				return s.pos
			}
			s.pos++
		case '#':
			s.ScanToEndOfLine()
		case '"', '\'':
			s.skipString(c)
		case '\\':
			s.pos++
			s.Advance()
		case '(', '[', '{':
			depth++
			s.pos++
		case ')', ']', '}':
			depth--
			s.pos++
		case ':':
			s.pos++
			if depth <= 0 {
				return s.ScanToEndOfDefinition()
			}
		default:
			s.pos++
		}
	}
	return s.pos
}

// ScanBracketed consumes a balanced bracket group starting at the cursor,
// which must sit on open. It returns false, without moving, otherwise.
func (s *Scanner) ScanBracketed(open, close byte) bool {
	if s.Current() != open {
		return false
	}
	depth := 0
	for !s.AtEnd() {
		switch c := s.Current(); c {
		case '"', '\'':
			s.skipString(c)
			continue
		case '#':
			s.ScanToEndOfLine()
			continue
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				s.pos++
				return true
			}
		}
		s.pos++
	}
	return true
}

// LineStart returns the offset of the first byte of the line containing pos.
func (s *Scanner) LineStart(pos int) int {
	for pos > 0 && s.src[pos-1] != '\n' {
		pos--
	}
	return pos
}

// TrimEnd walks back from pos over spaces, tabs, carriage returns and
// newlines, never moving before floor.
func (s *Scanner) TrimEnd(pos, floor int) int {
	for pos > floor {
		switch s.src[pos-1] {
		case ' ', '\t', '\r', '\n':
			pos--
		default:
			return pos
		}
	}
	return pos
}

func (s *Scanner) skipString(quote byte) {
	triple := string([]byte{quote, quote, quote})
	if s.MatchString(triple) {
		for !s.AtEnd() {
			if s.Current() == '\\' {
				s.pos++
				s.Advance()
				continue
			}
			if s.MatchString(triple) {
				return
			}
			s.pos++
		}
		return
	}
	s.pos++
	for !s.AtLineEnd() {
		c := s.Current()
		if c == '\\' {
			s.pos++
			if !s.AtLineEnd() {
				s.pos++
			}
			continue
		}
		s.pos++
		if c == quote {
			return
		}
	}
}

// IsIdentifierByte reports whether c may appear in an identifier. Bytes of
// multi-byte UTF-8 sequences are accepted.
func IsIdentifierByte(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c >= 0x80
}
