// Package cache parses source files on first use and keeps the result for
// the life of the process.
//
// Entries are write-once. A path that failed to load keeps failing with the
// same error; nothing is ever re-read or evicted. Concurrent first requests
// for one path share a single parse.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/phobologic/gdsnip/internal/anchor"
	"github.com/phobologic/gdsnip/internal/lang"
	"github.com/phobologic/gdsnip/internal/model"
	"github.com/phobologic/gdsnip/internal/parse"
)

// CollisionHook is called when a top-level symbol replaces an earlier one
// with the same name in the same file.
type CollisionHook func(path string, prev, next model.Symbol)

// Option configures a Cache.
type Option func(*Cache)

// WithCollisionHook registers fn to observe name collisions.
func WithCollisionHook(fn CollisionHook) Option {
	return func(c *Cache) { c.onCollision = fn }
}

// WithReadFile replaces os.ReadFile as the source of file contents.
func WithReadFile(fn func(path string) ([]byte, error)) Option {
	return func(c *Cache) { c.readFile = fn }
}

// Cache maps file paths to parsed files. It is safe for concurrent use.
type Cache struct {
	mu          sync.RWMutex
	entries     map[string]*entry
	group       singleflight.Group
	onCollision CollisionHook
	readFile    func(string) ([]byte, error)
}

type entry struct {
	file *model.File
	err  error
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[string]*entry),
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the parsed file at path, loading it on first use. Paths
// are cleaned before lookup, so "a/./b.gd" and "a/b.gd" share an entry.
func (c *Cache) Resolve(path string) (*model.File, error) {
	path = filepath.Clean(path)
	if e, ok := c.lookup(path); ok {
		return e.file, e.err
	}

	v, _, _ := c.group.Do(path, func() (any, error) {
		if e, ok := c.lookup(path); ok {
			return e, nil
		}
		e := c.load(path)
		c.mu.Lock()
		c.entries[path] = e
		c.mu.Unlock()
		return e, nil
	})
	e := v.(*entry)
	return e.file, e.err
}

// Len returns the number of cached paths, failed ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) lookup(path string) (*entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path]
	return e, ok
}

func (c *Cache) load(path string) *entry {
	data, err := c.readFile(path)
	if err != nil {
		return &entry{err: &model.Error{Kind: model.ErrFileRead, Path: path, Err: err}}
	}
	source := string(data)
	l := lang.ForPath(path)

	res, err := anchor.Preprocess(source, l.CommentMarker)
	if err != nil {
		return &entry{err: model.WithPath(err, path)}
	}

	symbols, err := tokenize(l, res.ProcessedSource)
	if err != nil {
		return &entry{err: fmt.Errorf("%s: %w", path, err)}
	}

	f := &model.File{
		Path:            path,
		Language:        l.Name,
		Source:          source,
		ProcessedSource: res.ProcessedSource,
		Symbols:         make(map[string]model.Symbol, len(symbols)),
		Anchors:         res.Anchors,
	}
	for _, sym := range symbols {
		if sym.Name == "" {
			continue
		}
		if prev, ok := f.Symbols[sym.Name]; ok {
			if c.onCollision != nil {
				c.onCollision(path, prev, sym)
			}
		} else {
			f.Order = append(f.Order, sym.Name)
		}
		f.Symbols[sym.Name] = sym
	}
	return &entry{file: f}
}

// tokenize runs the tokenizer for l. Tree-sitter parsers are not safe for
// concurrent use, so each call gets its own.
func tokenize(l *lang.Language, source string) ([]model.Symbol, error) {
	if !l.HasGrammar() {
		return parse.Symbols(l, nil, nil, source), nil
	}
	q, err := l.GetTagQuery()
	if err != nil {
		return nil, err
	}
	p := l.NewParser()
	defer p.Close()
	return parse.Symbols(l, p, q, source), nil
}
