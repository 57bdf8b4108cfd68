// Package query resolves dotted symbol queries and anchor names against
// cached source files.
package query

import (
	"strings"

	"github.com/phobologic/gdsnip/internal/anchor"
	"github.com/phobologic/gdsnip/internal/model"
)

// Query is a parsed symbol query.
//
//	Name                   full text of a top-level symbol
//	Name.definition        its header (also Name.def)
//	Name.body              its body
//	Class.member           full text of a direct class member
//	Class.member.def       the member's header
//	Class.member.body      the member's body
type Query struct {
	Raw          string
	Name         string
	ChildName    string
	IsClass      bool
	IsDefinition bool
	IsBody       bool
}

// Parse splits q on dots. Empty segments and more than three segments are
// rejected with ErrInvalidQuery.
func Parse(q string) (Query, error) {
	parts := strings.Split(q, ".")
	for _, p := range parts {
		if p == "" {
			return Query{}, invalid(q, "empty segment")
		}
	}

	out := Query{Raw: q, Name: parts[0]}
	switch len(parts) {
	case 1:
	case 2:
		if !out.setFlag(parts[1]) {
			out.IsClass = true
			out.ChildName = parts[1]
		}
	case 3:
		out.IsClass = true
		out.ChildName = parts[1]
		if !out.setFlag(parts[2]) {
			return Query{}, invalid(q, `third segment must be "definition", "def" or "body"`)
		}
	default:
		return Query{}, invalid(q, "too many segments")
	}
	return out, nil
}

func (q *Query) setFlag(s string) bool {
	switch s {
	case "definition", "def":
		q.IsDefinition = true
	case "body":
		q.IsBody = true
	default:
		return false
	}
	return true
}

func invalid(q, detail string) error {
	return &model.Error{Kind: model.ErrInvalidQuery, Query: q, Detail: detail}
}

// FileSource supplies parsed files. *cache.Cache satisfies it.
type FileSource interface {
	Resolve(path string) (*model.File, error)
}

// Resolver answers queries against files from a FileSource.
type Resolver struct {
	files FileSource
}

// NewResolver returns a resolver reading through files.
func NewResolver(files FileSource) *Resolver {
	return &Resolver{files: files}
}

// ResolveSymbol returns the text selected by query in the file at path.
func (r *Resolver) ResolveSymbol(query, path string) (string, error) {
	q, err := Parse(query)
	if err != nil {
		return "", model.WithPath(err, path)
	}
	f, err := r.files.Resolve(path)
	if err != nil {
		return "", err
	}

	sym, ok := f.Symbol(q.Name)
	if !ok || (q.IsClass && sym.Kind != model.Class) {
		return "", &model.Error{Kind: model.ErrSymbolNotFound, Path: f.Path, Name: q.Name, Query: query}
	}
	if q.IsClass {
		child, ok := sym.Child(q.ChildName)
		if !ok {
			return "", &model.Error{Kind: model.ErrSymbolNotFound, Path: f.Path, Name: q.ChildName, Query: query,
				Detail: "no such member of class " + q.Name}
		}
		sym = *child
	}

	src := f.ProcessedSource
	switch {
	case q.IsDefinition:
		return strings.TrimSpace(sym.DefinitionRange.Text(src)), nil
	case q.IsBody:
		if !sym.Kind.HasBody() {
			return "", &model.Error{Kind: model.ErrInvalidBodyRequest, Path: f.Path, Name: sym.Name, Query: query,
				Detail: string(sym.Kind) + " symbols have no body"}
		}
		return sym.BodyRange.Text(src), nil
	default:
		return sym.Range.Text(src), nil
	}
}

// ResolveFile returns the whole file at path with its anchor tags removed.
func (r *Resolver) ResolveFile(path string) (string, error) {
	f, err := r.files.Resolve(path)
	if err != nil {
		return "", err
	}
	return f.ProcessedSource, nil
}

// ResolveAnchor returns the code between the named anchor's tags.
func (r *Resolver) ResolveAnchor(name, path string) (string, error) {
	f, err := r.files.Resolve(path)
	if err != nil {
		return "", err
	}
	a, ok := f.Anchor(name)
	if !ok {
		return "", &model.Error{Kind: model.ErrAnchorNotFound, Path: f.Path, Name: name}
	}
	return anchor.Text(f.Source, a), nil
}
