// Package lang provides a language registry mapping file extensions to the
// comment marker used for anchor tags and, for languages tokenized through
// tree-sitter, the grammar and its embedded query file.
package lang

import (
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

//go:embed queries/*.scm
var queryFS embed.FS

// Language holds per-language settings.
type Language struct {
	Name          string
	Extensions    []string
	CommentMarker string
	lang          *sitter.Language
	queryOnce     sync.Once
	query         *sitter.Query
	queryErr      error
}

// HasGrammar reports whether the language is tokenized through tree-sitter.
func (l *Language) HasGrammar() bool {
	return l.lang != nil
}

// GetLanguage returns the tree-sitter Language pointer, nil for languages
// with a hand-written tokenizer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// GetTagQuery returns the compiled tree-sitter query (safe to share across goroutines).
func (l *Language) GetTagQuery() (*sitter.Query, error) {
	l.queryOnce.Do(func() {
		if l.lang == nil {
			l.queryErr = fmt.Errorf("language %s has no grammar", l.Name)
			return
		}
		data, err := queryFS.ReadFile(fmt.Sprintf("queries/%s.scm", l.Name))
		if err != nil {
			l.queryErr = fmt.Errorf("reading query file: %w", err)
			return
		}
		q, err := sitter.NewQuery(data, l.lang)
		if err != nil {
			l.queryErr = fmt.Errorf("compiling query: %w", err)
			return
		}
		l.query = q
	})
	return l.query, l.queryErr
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
// Matching ignores case.
func ForExtension(ext string) string {
	return getExtensionMap()[strings.ToLower(ext)]
}

// ForPath returns the language for path by extension. Files with an unknown
// extension are treated as GDScript.
func ForPath(path string) *Language {
	if name := ForExtension(filepath.Ext(path)); name != "" {
		return Languages[name]
	}
	return Languages[GDScript]
}

// Extensions returns every registered extension.
func Extensions() []string {
	var exts []string
	for ext := range getExtensionMap() {
		exts = append(exts, ext)
	}
	return exts
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
