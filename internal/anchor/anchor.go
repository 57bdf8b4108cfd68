// Package anchor extracts ANCHOR/END tagged regions from source files and
// strips the tag lines from the text handed to symbol tokenizers.
package anchor

import (
	"fmt"
	"strings"

	"github.com/phobologic/gdsnip/internal/model"
	"github.com/phobologic/gdsnip/internal/scanner"
)

const (
	startKeyword = "ANCHOR:"
	endKeyword   = "END:"
)

// Tag is one ANCHOR or END comment line.
type Tag struct {
	IsStart   bool
	Name      string
	NameRange model.Range
	Start     int // first byte of the tag's line
	End       int // first byte after the tag's line, newline included
}

// Result holds the anchors of one file and its tag-free text.
type Result struct {
	Anchors         map[string]model.CodeAnchor
	ProcessedSource string
}

// Preprocess finds every tag in source, pairs start and end tags by name and
// removes all tag lines. marker is the line comment prefix ("#" for GDScript,
// "//" for shaders). A duplicate or unpaired tag fails the whole file.
func Preprocess(source, marker string) (*Result, error) {
	tags := FindTags(source, marker)

	starts := make(map[string]Tag)
	ends := make(map[string]Tag)
	for _, t := range tags {
		seen, kind := ends, "END"
		if t.IsStart {
			seen, kind = starts, "ANCHOR"
		}
		if prev, dup := seen[t.Name]; dup {
			return nil, &model.Error{
				Kind:   model.ErrDuplicateAnchor,
				Name:   t.Name,
				Detail: fmt.Sprintf("%s tag on line %d repeats line %d", kind, Line(source, t.Start), Line(source, prev.Start)),
			}
		}
		seen[t.Name] = t
	}

	anchors := make(map[string]model.CodeAnchor, len(starts))
	for _, t := range tags {
		if !t.IsStart {
			if _, ok := starts[t.Name]; !ok {
				return nil, &model.Error{
					Kind:   model.ErrUnmatchedAnchor,
					Name:   t.Name,
					Detail: fmt.Sprintf("END tag on line %d has no ANCHOR tag", Line(source, t.Start)),
				}
			}
			continue
		}
		end, ok := ends[t.Name]
		if !ok {
			return nil, &model.Error{
				Kind:   model.ErrUnmatchedAnchor,
				Name:   t.Name,
				Detail: fmt.Sprintf("ANCHOR tag on line %d has no END tag", Line(source, t.Start)),
			}
		}
		if end.Start < t.End {
			return nil, &model.Error{
				Kind:   model.ErrUnmatchedAnchor,
				Name:   t.Name,
				Detail: fmt.Sprintf("END tag on line %d precedes its ANCHOR tag on line %d", Line(source, end.Start), Line(source, t.Start)),
			}
		}
		anchors[t.Name] = model.CodeAnchor{
			Name:           t.Name,
			NameRange:      t.NameRange,
			CodeStart:      t.End,
			CodeEnd:        end.Start,
			AnchorTagStart: t.Start,
			EndTagEnd:      end.End,
		}
	}

	return &Result{
		Anchors:         anchors,
		ProcessedSource: strip(source, tags),
	}, nil
}

// FindTags returns the tag lines of source in document order. A tag is a
// line holding only indentation, the comment marker, optional spaces, then
// ANCHOR: or END: and an identifier. Other comments are ignored.
func FindTags(source, marker string) []Tag {
	var tags []Tag
	s := scanner.New(source)
	for !s.AtEnd() {
		lineStart := s.Pos()
		s.SkipWhitespace()
		if t, ok := scanTag(s, marker); ok {
			s.ScanToStartOfNextLine()
			t.Start = lineStart
			t.End = s.Pos()
			tags = append(tags, t)
			continue
		}
		s.ScanToStartOfNextLine()
	}
	return tags
}

func scanTag(s *scanner.Scanner, marker string) (Tag, bool) {
	var t Tag
	ok := s.Try(func() bool {
		if !s.MatchString(marker) {
			return false
		}
		s.SkipWhitespace()
		switch {
		case s.MatchString(startKeyword):
			t.IsStart = true
		case s.MatchString(endKeyword):
		default:
			return false
		}
		s.SkipWhitespace()
		t.NameRange = s.ScanIdentifier()
		t.Name = t.NameRange.Text(s.Source())
		return t.Name != ""
	})
	return t, ok
}

// strip concatenates the spans of source between tag lines and trims
// trailing whitespace.
func strip(source string, tags []Tag) string {
	var b strings.Builder
	b.Grow(len(source))
	prev := 0
	for _, t := range tags {
		b.WriteString(source[prev:t.Start])
		prev = t.End
	}
	b.WriteString(source[prev:])
	return strings.TrimRight(b.String(), " \t\r\n")
}

// Text returns the code between an anchor's tags. Lines that still contain
// a tag keyword, left by nested or interleaved anchors, are dropped.
func Text(source string, a model.CodeAnchor) string {
	lines := strings.Split(source[a.CodeStart:a.CodeEnd], "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.Contains(line, startKeyword) || strings.Contains(line, endKeyword) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimRight(strings.Join(kept, "\n"), " \t\r\n")
}

// Line returns the 1-based line number of byte offset pos in source.
func Line(source string, pos int) int {
	if pos > len(source) {
		pos = len(source)
	}
	return strings.Count(source[:pos], "\n") + 1
}
