package model

import (
	"errors"
	"strings"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrFileRead is returned when a source file is missing or unreadable.
	ErrFileRead = errors.New("cannot read file")
	// ErrDuplicateAnchor is returned when an anchor name has more than one start or end tag.
	ErrDuplicateAnchor = errors.New("duplicate anchor")
	// ErrUnmatchedAnchor is returned when a start tag has no end tag or vice versa.
	ErrUnmatchedAnchor = errors.New("unmatched anchor")
	// ErrSymbolNotFound is returned when a query names a symbol the file does not define.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrInvalidQuery is returned for query strings outside the dotted grammar.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidBodyRequest is returned when a body is requested for a symbol without one.
	ErrInvalidBodyRequest = errors.New("symbol has no body")
	// ErrAnchorNotFound is returned when the requested anchor is not defined in the file.
	ErrAnchorNotFound = errors.New("anchor not found")
)

// Error is a content error tied to one file and, where applicable, one
// symbol, anchor, or query.
type Error struct {
	Kind   error
	Path   string
	Name   string
	Query  string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if e.Name != "" {
		b.WriteString(" ")
		b.WriteString(`"` + e.Name + `"`)
	}
	if e.Query != "" && e.Query != e.Name {
		b.WriteString(" in query ")
		b.WriteString(`"` + e.Query + `"`)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is matches the error kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithPath returns err with its file path set when err is an *Error that
// does not carry one yet. Other errors are returned unchanged.
func WithPath(err error, path string) error {
	var e *Error
	if !errors.As(err, &e) || e.Path != "" {
		return err
	}
	cp := *e
	cp.Path = path
	return &cp
}
