package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/gdsnip/internal/model"
)

// ref is one request to the resolve command:
//
//	file           the whole file, tags removed
//	file:query     a symbol query
//	file#anchor    an anchor
type ref struct {
	raw    string
	file   string
	query  string
	anchor string
}

func parseRef(s string) (ref, error) {
	r := ref{raw: s, file: s}
	if i := strings.LastIndexByte(s, '#'); i >= 0 {
		r.file, r.anchor = s[:i], s[i+1:]
		if r.anchor == "" {
			return ref{}, &model.Error{Kind: model.ErrInvalidQuery, Query: s, Detail: "empty anchor name"}
		}
	} else if i := strings.LastIndexByte(s, ':'); i >= 0 {
		r.file, r.query = s[:i], s[i+1:]
	}
	if r.file == "" {
		return ref{}, &model.Error{Kind: model.ErrInvalidQuery, Query: s, Detail: "missing file"}
	}
	return r, nil
}

func (a *app) resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <ref>...",
		Short: "Resolve several file:query or file#anchor references",
		Long: `Resolve references concurrently and print the results in argument order,
separated by blank lines. A reference is "file", "file:query" or
"file#anchor"; bare file names are looked up in the project.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := a.resolveAll(args)

			b := a.newBatch(len(args))
			first := true
			for _, r := range results {
				if r.err != nil {
					b.fail(r.err)
					continue
				}
				if !first {
					_, _ = fmt.Fprintln(cmd.OutOrStdout())
				}
				first = false
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), r.text)
			}
			return b.err()
		},
	}
}

type resolved struct {
	text string
	err  error
}

// resolveAll resolves every reference on a bounded pool of workers sharing
// one cache. Results keep the order of refs.
func (a *app) resolveAll(refs []string) []resolved {
	results := make([]resolved, len(refs))
	start := time.Now()

	g := new(errgroup.Group)
	g.SetLimit(a.cfg.Workers)
	for i, s := range refs {
		g.Go(func() error {
			text, err := a.resolveOne(s)
			results[i] = resolved{text: text, err: err}
			return nil
		})
	}
	_ = g.Wait()

	a.log.Debug("resolved references", "refs", len(refs), "files", a.cache.Len(),
		"workers", a.cfg.Workers, "elapsed", time.Since(start))
	return results
}

func (a *app) resolveOne(s string) (string, error) {
	r, err := parseRef(s)
	if err != nil {
		return "", err
	}
	path, err := a.locate(r.file)
	if err != nil {
		return "", err
	}
	switch {
	case r.anchor != "":
		return a.resolver.ResolveAnchor(r.anchor, path)
	case r.query != "":
		return a.resolver.ResolveSymbol(r.query, path)
	default:
		return a.resolver.ResolveFile(path)
	}
}
