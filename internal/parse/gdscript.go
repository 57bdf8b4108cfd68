package parse

import (
	"github.com/phobologic/gdsnip/internal/model"
	"github.com/phobologic/gdsnip/internal/scanner"
)

// definitionKeywords start a new definition when they open a line.
var definitionKeywords = []string{"func", "var", "const", "signal", "class", "class_name", "enum", "static"}

// GDScript tokenizes anchor-free GDScript source into top-level symbols in
// document order. Class members become children of their class; members are
// never expanded further.
func GDScript(source string) []model.Symbol {
	t := &gdTokenizer{s: scanner.New(source)}
	var symbols []model.Symbol
	for !t.s.AtEnd() {
		lineStart := t.s.Pos()
		indent := t.s.CountIndentationAndAdvance()
		t.s.SkipWhitespace()
		if sym, ok := t.scanSymbol(lineStart, indent, 0); ok {
			symbols = append(symbols, sym)
			continue
		}
		t.skipLine()
	}
	return symbols
}

type gdTokenizer struct {
	s *scanner.Scanner
}

// scanSymbol scans one definition whose first significant byte is under the
// cursor. depth is 0 for top-level symbols and 1 for class members. On
// success the cursor sits at the start of the line after the symbol; on
// failure it has not moved.
func (t *gdTokenizer) scanSymbol(lineStart, indent, depth int) (model.Symbol, bool) {
	s := t.s
	switch {
	case s.Current() == '@':
		return t.scanAnnotated(lineStart, indent)
	case s.PeekKeyword("static"):
		return t.scanStatic(lineStart, indent)
	case s.PeekKeyword("func"):
		return t.scanFunction(lineStart, indent), true
	case s.PeekKeyword("class_name"):
		return t.scanLine(lineStart, model.ClassName, "class_name"), true
	case s.PeekKeyword("class"):
		return t.scanClass(lineStart, indent, depth), true
	case s.PeekKeyword("var"):
		return t.scanVariable(lineStart, indent), true
	case s.PeekKeyword("const"):
		return t.scanLine(lineStart, model.Constant, "const"), true
	case s.PeekKeyword("enum"):
		return t.scanLine(lineStart, model.Enum, "enum"), true
	case s.PeekKeyword("signal"):
		return t.scanSignal(lineStart), true
	}
	return model.Symbol{}, false
}

// isAtStartOfDefinition peeks whether the cursor opens a definition. It never
// moves the cursor.
func (t *gdTokenizer) isAtStartOfDefinition() bool {
	s := t.s
	m := s.Mark()
	defer s.Reset(m)

	if s.Current() == '@' {
		return true
	}
	if s.MatchKeyword("static") {
		s.SkipWhitespace()
	}
	for _, kw := range definitionKeywords {
		if s.PeekKeyword(kw) {
			return true
		}
	}
	return false
}

func (t *gdTokenizer) scanName(keyword string) model.Range {
	t.s.MatchKeyword(keyword)
	t.s.SkipWhitespace()
	return t.s.ScanIdentifier()
}

// scanLine handles const, enum and class_name: a single logical line whose
// brackets may span several physical lines.
func (t *gdTokenizer) scanLine(lineStart int, kind model.SymbolKind, keyword string) model.Symbol {
	s := t.s
	name := t.scanName(keyword)
	end := s.TrimEnd(s.ScanToEndOfDefinition(), name.End)
	s.Advance()
	return leaf(s.Source(), kind, name, lineStart, end, end)
}

func (t *gdTokenizer) scanSignal(lineStart int) model.Symbol {
	s := t.s
	name := t.scanName("signal")
	s.SkipWhitespace()
	if s.Current() == '(' {
		s.ScanBracketed('(', ')')
	}
	end := s.TrimEnd(s.ScanToEndOfLine(), name.End)
	s.Advance()
	return leaf(s.Source(), model.Signal, name, lineStart, end, end)
}

// scanVariable handles var declarations. A declaration whose line ends in a
// colon owns the indented get/set block below it.
func (t *gdTokenizer) scanVariable(lineStart, indent int) model.Symbol {
	s := t.s
	name := t.scanName("var")
	lineEnd, lastCode := s.ScanLogicalLine()
	defEnd := s.TrimEnd(lineEnd, name.End)
	end := defEnd
	s.Advance()
	if lastCode >= 0 && s.Source()[lastCode] == ':' {
		if _, bodyEnd := t.scanBody(indent); bodyEnd > end {
			end = bodyEnd
		}
	}
	return leaf(s.Source(), model.Variable, name, lineStart, defEnd, end)
}

// scanAnnotated handles annotations, including annotations on the lines
// above a declaration. Annotations that lead to a var are merged into the
// variable; anything else is not a symbol.
func (t *gdTokenizer) scanAnnotated(lineStart, indent int) (model.Symbol, bool) {
	s := t.s
	var sym model.Symbol
	ok := s.Try(func() bool {
		for s.Current() == '@' {
			s.Advance()
			s.ScanIdentifier()
			s.SkipWhitespace()
			if s.Current() == '(' {
				s.ScanBracketed('(', ')')
			}
			s.SkipWhitespace()
			if s.Current() == '#' {
				s.ScanToEndOfLine()
			}
			if s.AtLineEnd() {
				if s.AtEnd() {
					return false
				}
				s.Advance()
				s.CountIndentationAndAdvance()
				s.SkipWhitespace()
			}
		}
		if s.MatchKeyword("static") {
			s.SkipWhitespace()
		}
		if !s.PeekKeyword("var") {
			return false
		}
		sym = t.scanVariable(lineStart, indent)
		return true
	})
	return sym, ok
}

// scanStatic handles "static func" and "static var".
func (t *gdTokenizer) scanStatic(lineStart, indent int) (model.Symbol, bool) {
	s := t.s
	var sym model.Symbol
	ok := s.Try(func() bool {
		s.MatchKeyword("static")
		s.SkipWhitespace()
		switch {
		case s.PeekKeyword("func"):
			sym = t.scanFunction(lineStart, indent)
		case s.PeekKeyword("var"):
			sym = t.scanVariable(lineStart, indent)
		default:
			return false
		}
		return true
	})
	return sym, ok
}

func (t *gdTokenizer) scanFunction(lineStart, indent int) model.Symbol {
	s := t.s
	name := t.scanName("func")
	headerEnd := s.TrimEnd(s.ScanToEndOfHeader(), name.End)
	s.Advance()
	bodyStart, bodyEnd := t.scanBody(indent)
	return block(s.Source(), model.Function, name, lineStart, headerEnd, bodyStart, bodyEnd, nil)
}

func (t *gdTokenizer) scanClass(lineStart, indent, depth int) model.Symbol {
	s := t.s
	name := t.scanName("class")
	headerEnd := s.TrimEnd(s.ScanToEndOfHeader(), name.End)
	s.Advance()

	if depth > 0 {
		bodyStart, bodyEnd := t.scanBody(indent)
		return block(s.Source(), model.Class, name, lineStart, headerEnd, bodyStart, bodyEnd, nil)
	}

	children, bodyStart, bodyEnd := t.scanClassBody(indent, depth+1)
	return block(s.Source(), model.Class, name, lineStart, headerEnd, bodyStart, bodyEnd, children)
}

// scanBody consumes the lines of an indented block and returns the start of
// its first content line and the end of its last one, both -1 if the block
// is empty. It stops at the first line indented at or below indent that
// opens a definition, leaving the cursor at that line's start. Shallower
// lines that open nothing, such as comments in column 0, do not end the
// block.
func (t *gdTokenizer) scanBody(indent int) (start, end int) {
	s := t.s
	start, end = -1, -1
	for !s.AtEnd() {
		lineStart := s.Pos()
		lineIndent := s.CountIndentationAndAdvance()
		s.SkipWhitespace()
		if s.AtLineEnd() {
			s.Advance()
			continue
		}
		if lineIndent <= indent && t.isAtStartOfDefinition() {
			s.Reset(scanner.Mark(lineStart))
			break
		}
		lineEnd := s.ScanToEndOfDefinition()
		if lineIndent > indent {
			if start < 0 {
				start = lineStart
			}
			end = s.TrimEnd(lineEnd, lineStart)
		}
		s.Advance()
	}
	return start, end
}

// scanClassBody is scanBody for a class at depth 0: deeper lines that open a
// definition become children.
func (t *gdTokenizer) scanClassBody(indent, depth int) (children []model.Symbol, start, end int) {
	s := t.s
	start, end = -1, -1
	for !s.AtEnd() {
		lineStart := s.Pos()
		lineIndent := s.CountIndentationAndAdvance()
		s.SkipWhitespace()
		if s.AtLineEnd() {
			s.Advance()
			continue
		}
		if lineIndent <= indent {
			if t.isAtStartOfDefinition() {
				s.Reset(scanner.Mark(lineStart))
				break
			}
			t.skipLine()
			continue
		}
		if start < 0 {
			start = lineStart
		}
		if child, ok := t.scanSymbol(lineStart, lineIndent, depth); ok {
			children = append(children, child)
			end = child.Range.End
			continue
		}
		end = s.TrimEnd(s.ScanToEndOfDefinition(), lineStart)
		s.Advance()
	}
	return children, start, end
}

// skipLine moves past the current logical line.
func (t *gdTokenizer) skipLine() {
	t.s.ScanToEndOfDefinition()
	t.s.Advance()
}

func leaf(source string, kind model.SymbolKind, name model.Range, start, defEnd, end int) model.Symbol {
	return model.Symbol{
		Kind:            kind,
		Name:            name.Text(source),
		NameRange:       name,
		Range:           model.Range{Start: start, End: end},
		DefinitionRange: model.Range{Start: start, End: defEnd},
		BodyRange:       model.Range{Start: defEnd, End: defEnd},
	}
}

func block(source string, kind model.SymbolKind, name model.Range, start, headerEnd, bodyStart, bodyEnd int, children []model.Symbol) model.Symbol {
	sym := leaf(source, kind, name, start, headerEnd, headerEnd)
	if bodyStart >= 0 && bodyEnd > bodyStart {
		sym.BodyRange = model.Range{Start: bodyStart, End: bodyEnd}
		sym.Range.End = bodyEnd
	}
	sym.Children = children
	return sym
}
