// Package toon implements TOON (Token-Oriented Object Notation) encoding of
// parsed files.
package toon

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/phobologic/gdsnip/internal/anchor"
	"github.com/phobologic/gdsnip/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode renders several files, separated by blank lines.
func Encode(files []*model.File) string {
	parts := make([]string, len(files))
	for i, f := range files {
		parts[i] = EncodeFile(f)
	}
	return strings.Join(parts, "\n\n")
}

// EncodeFile renders the symbols and anchors of one file. Line numbers are
// 1-based and refer to the file as written, tag lines included.
func EncodeFile(f *model.File) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("file: %s", encodeValue(f.Path)))
	parts = append(parts, fmt.Sprintf("language: %s", encodeValue(f.Language)))

	tags := tagLines(f)
	line := func(processedOffset int) string {
		return fmt.Sprintf("%d", rawLine(tags, anchor.Line(f.ProcessedSource, processedOffset)))
	}

	var symbolRows [][]string
	for _, name := range f.Order {
		sym := f.Symbols[name]
		symbolRows = append(symbolRows, []string{
			sym.Name,
			string(sym.Kind),
			line(sym.NameRange.Start),
			"",
			definition(f.ProcessedSource, sym),
		})
		for _, child := range sym.Children {
			if child.Name == "" {
				continue
			}
			symbolRows = append(symbolRows, []string{
				sym.Name + "." + child.Name,
				string(child.Kind),
				line(child.NameRange.Start),
				sym.Name,
				definition(f.ProcessedSource, child),
			})
		}
	}
	parts = append(parts, formatTabular("symbols", []string{"name", "kind", "line", "parent", "definition"}, symbolRows))

	names := make([]string, 0, len(f.Anchors))
	for name := range f.Anchors {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return f.Anchors[names[i]].AnchorTagStart < f.Anchors[names[j]].AnchorTagStart
	})

	var anchorRows [][]string
	for _, name := range names {
		a := f.Anchors[name]
		anchorRows = append(anchorRows, []string{
			name,
			fmt.Sprintf("%d", anchor.Line(f.Source, a.AnchorTagStart)),
			fmt.Sprintf("%d", anchor.Line(f.Source, a.EndTagEnd-1)),
		})
	}
	parts = append(parts, formatTabular("anchors", []string{"name", "start", "end"}, anchorRows))

	return strings.Join(parts, "\n")
}

// definition returns the symbol header on one line.
func definition(source string, sym model.Symbol) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(sym.DefinitionRange.Text(source), " "))
}

// tagLines returns the raw line numbers of every anchor tag, ascending.
func tagLines(f *model.File) []int {
	var lines []int
	for _, a := range f.Anchors {
		lines = append(lines,
			anchor.Line(f.Source, a.AnchorTagStart),
			anchor.Line(f.Source, a.EndTagEnd-1))
	}
	sort.Ints(lines)
	return lines
}

// rawLine maps a line of the processed source back to the raw source by
// re-inserting the stripped tag lines.
func rawLine(tags []int, processed int) int {
	raw := processed
	for _, t := range tags {
		if t <= raw {
			raw++
		}
	}
	return raw
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
