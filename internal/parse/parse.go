// Package parse turns anchor-free source text into symbols. GDScript goes
// through a hand-written tokenizer; languages with a tree-sitter grammar go
// through their tag query.
package parse

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/gdsnip/internal/lang"
	"github.com/phobologic/gdsnip/internal/model"
	"github.com/phobologic/gdsnip/internal/scanner"
)

var captureMap = map[string]model.SymbolKind{
	"definition.function": model.Function,
}

// Symbols tokenizes source with the tokenizer registered for l. The parser
// and query are only used by tree-sitter languages and may be nil otherwise.
func Symbols(l *lang.Language, parser *sitter.Parser, query *sitter.Query, source string) []model.Symbol {
	if !l.HasGrammar() {
		return GDScript(source)
	}
	return TreeSitter(parser, query, source)
}

// TreeSitter extracts symbols from matches of a tag query. Each match needs
// a @name capture, a @body capture holding the brace-delimited block, and a
// definition capture listed in captureMap. The parser must be created for
// the correct language.
func TreeSitter(parser *sitter.Parser, query *sitter.Query, source string) []model.Symbol {
	if len(source) == 0 {
		return nil
	}
	src := []byte(source)

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	s := scanner.New(source)
	var symbols []model.Symbol

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, src)

		var nameNode, bodyNode, defNode *sitter.Node
		var kind model.SymbolKind
		for _, c := range match.Captures {
			cname := query.CaptureNameForId(c.Index)
			switch cname {
			case "name":
				nameNode = c.Node
			case "body":
				bodyNode = c.Node
			default:
				if k, ok := captureMap[cname]; ok {
					kind = k
					defNode = c.Node
				}
			}
		}
		if nameNode == nil || bodyNode == nil || defNode == nil {
			continue
		}

		symbols = append(symbols, braceSymbol(s, kind, nameNode, bodyNode, defNode))
	}

	return symbols
}

// braceSymbol builds a symbol whose body sits between braces. The definition
// runs to the opening brace; the body excludes both braces and any blank
// lines next to them.
func braceSymbol(s *scanner.Scanner, kind model.SymbolKind, nameNode, bodyNode, defNode *sitter.Node) model.Symbol {
	src := s.Source()
	start := s.LineStart(int(defNode.StartByte()))
	open := int(bodyNode.StartByte())
	closing := int(bodyNode.EndByte()) - 1
	name := model.Range{Start: int(nameNode.StartByte()), End: int(nameNode.EndByte())}

	defEnd := s.TrimEnd(open, name.End)

	bodyStart := open + 1
	for {
		lineEnd := restOfLineBlank(src, bodyStart)
		if lineEnd < 0 || lineEnd >= closing {
			break
		}
		bodyStart = lineEnd + 1
	}
	bodyEnd := s.TrimEnd(closing, bodyStart)

	return model.Symbol{
		Kind:            kind,
		Name:            name.Text(src),
		NameRange:       name,
		Range:           model.Range{Start: start, End: closing + 1},
		DefinitionRange: model.Range{Start: start, End: defEnd},
		BodyRange:       model.Range{Start: bodyStart, End: bodyEnd},
	}
}

// restOfLineBlank returns the offset of the newline ending the line at pos if
// only whitespace precedes it, or -1.
func restOfLineBlank(src string, pos int) int {
	for i := pos; i < len(src); i++ {
		switch src[i] {
		case '\n':
			return i
		case ' ', '\t', '\r':
		default:
			return -1
		}
	}
	return -1
}
