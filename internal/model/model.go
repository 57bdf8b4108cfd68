// Package model defines core data structures for gdsnip.
package model

// Range is a half-open byte span [Start, End) into one specific text buffer.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by r.
func (r Range) Len() int { return r.End - r.Start }

// Contains reports whether other lies entirely within r.
func (r Range) Contains(other Range) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// Text returns the slice of source covered by r.
func (r Range) Text(source string) string {
	return source[r.Start:r.End]
}

// SymbolKind indicates the syntactic kind of a symbol.
type SymbolKind string

const (
	Function  SymbolKind = "function"
	Variable  SymbolKind = "variable"
	Constant  SymbolKind = "constant"
	Signal    SymbolKind = "signal"
	Class     SymbolKind = "class"
	Enum      SymbolKind = "enum"
	ClassName SymbolKind = "class_name"
)

// HasBody reports whether symbols of this kind carry a body range.
func (k SymbolKind) HasBody() bool {
	return k == Function || k == Class
}

// Symbol is a named construct found by a tokenizer. All ranges index into
// the processed source of the file the symbol came from.
type Symbol struct {
	Kind            SymbolKind
	Name            string
	NameRange       Range
	Range           Range
	DefinitionRange Range
	BodyRange       Range
	Children        []Symbol
}

// Child returns the direct child with the given name.
func (s *Symbol) Child(name string) (*Symbol, bool) {
	for i := range s.Children {
		if s.Children[i].Name == name {
			return &s.Children[i], true
		}
	}
	return nil, false
}

// CodeAnchor is a paired ANCHOR/END region. All ranges index into the raw
// source, since tag lines are stripped before tokenization.
type CodeAnchor struct {
	Name           string
	NameRange      Range
	CodeStart      int
	CodeEnd        int
	AnchorTagStart int
	EndTagEnd      int
}

// File is one parsed source file. It is never mutated after the cache
// publishes it.
type File struct {
	Path            string
	Language        string
	Source          string
	ProcessedSource string
	Order           []string // top-level symbol names in document order, duplicates removed
	Symbols         map[string]Symbol
	Anchors         map[string]CodeAnchor
}

// Symbol returns the top-level symbol with the given name.
func (f *File) Symbol(name string) (Symbol, bool) {
	s, ok := f.Symbols[name]
	return s, ok
}

// Anchor returns the anchor with the given name.
func (f *File) Anchor(name string) (CodeAnchor, bool) {
	a, ok := f.Anchors[name]
	return a, ok
}
