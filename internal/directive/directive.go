// Package directive finds and verifies include directives in Markdown
// documents:
//
//	{% include Player.gd %}
//	{% include Player.gd movement %}
//	{% include scripts/Player.gd Player.move.body %}
//
// The optional target is an anchor name or a symbol query. Directives belong
// inside fenced code blocks, since they expand to code.
package directive

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/phobologic/gdsnip/internal/model"
)

var (
	// ErrSyntax is returned for a line that opens an include directive but
	// does not follow its grammar.
	ErrSyntax = errors.New("malformed include directive")
	// ErrMissingCodeFence is returned for a directive outside a fenced code block.
	ErrMissingCodeFence = errors.New("include directive outside a code fence")
)

var (
	looseRe  = regexp.MustCompile(`^\{%\s*include\b.*%\}$`)
	strictRe = regexp.MustCompile(`^\{%\s*include\s+["']?([^\s"']+?\.[A-Za-z0-9]+)["']?(?:\s+["']?([\w.]+)["']?)?\s*%\}$`)
)

// Directive is one include line found in a document.
type Directive struct {
	Line   int // 1-based
	Text   string
	File   string
	Target string
	Fenced bool
	Valid  bool
}

// Issue is a directive that failed verification.
type Issue struct {
	Line      int
	Directive string
	Err       error
}

func (i Issue) Error() string {
	return fmt.Sprintf("line %d: %v", i.Line, i.Err)
}

// Locator maps a file reference from a directive to a readable path.
// *discover.Index satisfies it.
type Locator interface {
	Lookup(ref string) (string, error)
}

// Resolver extracts included text. *query.Resolver satisfies it.
type Resolver interface {
	ResolveFile(path string) (string, error)
	ResolveAnchor(name, path string) (string, error)
	ResolveSymbol(query, path string) (string, error)
}

// Find returns the include directives in a Markdown document in document
// order. Lines are looked for in paragraphs and code blocks.
func Find(markdown []byte) []Directive {
	doc := goldmark.New().Parser().Parse(text.NewReader(markdown))
	lines := lineStarts(markdown)

	var found []Directive
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var fenced bool
		switch n.(type) {
		case *ast.FencedCodeBlock:
			fenced = true
		case *ast.CodeBlock, *ast.Paragraph:
		default:
			return ast.WalkContinue, nil
		}

		segs := n.Lines()
		for i := 0; i < segs.Len(); i++ {
			seg := segs.At(i)
			line := strings.TrimSpace(string(seg.Value(markdown)))
			if !looseRe.MatchString(line) {
				continue
			}
			d := Directive{Line: lineOf(lines, seg.Start), Text: line, Fenced: fenced}
			if m := strictRe.FindStringSubmatch(line); m != nil {
				d.Valid = true
				d.File = m[1]
				d.Target = m[2]
			}
			found = append(found, d)
		}
		return ast.WalkSkipChildren, nil
	})

	return found
}

// Check verifies every directive in markdown. A target containing a dot is
// a symbol query; a bare target names an anchor, or a top-level symbol when
// the file has no such anchor. Checks for one directive stop at its first
// failure.
func Check(markdown []byte, files Locator, r Resolver) []Issue {
	var issues []Issue
	for _, d := range Find(markdown) {
		if err := verify(d, files, r); err != nil {
			issues = append(issues, Issue{Line: d.Line, Directive: d.Text, Err: err})
		}
	}
	return issues
}

func verify(d Directive, files Locator, r Resolver) error {
	if !d.Valid {
		return ErrSyntax
	}
	if !d.Fenced {
		return ErrMissingCodeFence
	}
	path, err := files.Lookup(d.File)
	if err != nil {
		return err
	}

	switch {
	case d.Target == "":
		_, err = r.ResolveFile(path)
	case strings.Contains(d.Target, "."):
		_, err = r.ResolveSymbol(d.Target, path)
	default:
		_, err = r.ResolveAnchor(d.Target, path)
		if errors.Is(err, model.ErrAnchorNotFound) {
			if _, symErr := r.ResolveSymbol(d.Target, path); symErr == nil {
				err = nil
			}
		}
	}
	return err
}

func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func lineOf(starts []int, offset int) int {
	return sort.Search(len(starts), func(i int) bool { return starts[i] > offset })
}
