package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phobologic/gdsnip/internal/directive"
	"github.com/phobologic/gdsnip/internal/model"
	"github.com/phobologic/gdsnip/internal/toon"
)

func (a *app) symbolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "symbol <file> <query>",
		Short: "Print the text of a symbol",
		Long: `Print the text selected by a dotted symbol query:

  name                 the whole symbol
  name.definition      its header line (also name.def)
  name.body            its body
  Class.member[.def|.body]`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.locate(args[0])
			if err != nil {
				return err
			}
			text, err := a.resolver.ResolveSymbol(args[1], path)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func (a *app) anchorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "anchor <file> <name>",
		Short: "Print the code between an ANCHOR/END tag pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.locate(args[0])
			if err != nil {
				return err
			}
			text, err := a.resolver.ResolveAnchor(args[1], path)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <file>...",
		Short: "List the symbols and anchors of files in TOON format",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := a.newBatch(len(args))
			var files []*model.File
			for _, ref := range args {
				path, err := a.locate(ref)
				if err != nil {
					b.fail(err)
					continue
				}
				f, err := a.cache.Resolve(path)
				if err != nil {
					b.fail(err)
					continue
				}
				files = append(files, f)
			}
			if len(files) > 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), toon.Encode(files))
			}
			return b.err()
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <doc.md>...",
		Short: "Verify the include directives of Markdown documents",
		Long: `Verify every {% include <file> [<target>] %} directive: the file must
resolve, the target must name an anchor or a symbol query, and the
directive must sit inside a fenced code block.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := a.newBatch(0)
			for _, doc := range args {
				data, err := os.ReadFile(doc)
				if err != nil {
					b.total++
					b.fail(fmt.Errorf("reading %s: %w", doc, err))
					continue
				}
				directives := directive.Find(data)
				b.total += len(directives)
				for _, issue := range directive.Check(data, a, a.resolver) {
					b.fail(fmt.Errorf("%s:%d: %s: %w", doc, issue.Line, issue.Directive, issue.Err))
				}
				a.log.Debug("checked document", "file", doc, "directives", len(directives))
			}
			return b.err()
		},
	}
}
