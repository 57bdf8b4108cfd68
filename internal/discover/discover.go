// Package discover finds GDScript and shader files in a project and resolves
// bare filenames to paths.
package discover

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/gdsnip/internal/lang"
	"github.com/phobologic/gdsnip/internal/model"
)

var (
	// ErrFileNotFound is returned when a bare filename is not in the index.
	ErrFileNotFound = errors.New("file not found in project")
	// ErrDuplicateFile is returned when a bare filename matches several files.
	ErrDuplicateFile = errors.New("ambiguous file name")
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to the project root
	Language string
}

// Options control which files are discovered.
type Options struct {
	// Extensions to keep, with leading dot. Empty means every registered language.
	Extensions []string
	// Exclude holds glob patterns matched against slash-separated relative paths.
	Exclude []string
}

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	".godot":       {},
	".import":      {},
	"node_modules": {},
	"build":        {},
	"dist":         {},
}

// Files discovers source files under root, sorted by path.
func Files(root string, opts Options) ([]FileEntry, error) {
	extSet := make(map[string]struct{})
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = lang.Extensions()
	}
	for _, ext := range exts {
		extSet[strings.ToLower(ext)] = struct{}{}
	}

	excludes, err := compileGlobs(opts.Exclude)
	if err != nil {
		return nil, err
	}

	gitFiles := gitLsFiles(root)
	var gi *ignore.GitIgnore
	if gitFiles == nil {
		gi = loadGitignore(root)
	}

	var results []FileEntry

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors
		}

		name := d.Name()
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		slashRel := filepath.ToSlash(rel)

		if d.IsDir() {
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if excluded(excludes, slashRel) || excluded(excludes, slashRel+"/**") {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		if gitFiles != nil {
			if _, ok := gitFiles[rel]; !ok {
				return nil
			}
		} else if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		if _, ok := extSet[strings.ToLower(filepath.Ext(name))]; !ok {
			return nil
		}
		if excluded(excludes, slashRel) {
			return nil
		}

		results = append(results, FileEntry{Path: rel, Language: lang.ForPath(name).Name})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, err
		}
		globs = append(globs, g)
	}
	return globs, nil
}

func excluded(globs []glob.Glob, rel string) bool {
	for _, g := range globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Index maps bare filenames to the files discovered under a root.
type Index struct {
	root       string
	files      []FileEntry
	byName     map[string]string
	duplicates map[string][]string
}

// NewIndex discovers the files under root and indexes them by filename.
func NewIndex(root string, opts Options) (*Index, error) {
	files, err := Files(root, opts)
	if err != nil {
		return nil, err
	}
	ix := &Index{
		root:       root,
		files:      files,
		byName:     make(map[string]string, len(files)),
		duplicates: make(map[string][]string),
	}
	for _, f := range files {
		name := filepath.Base(f.Path)
		if prev, ok := ix.byName[name]; ok {
			if len(ix.duplicates[name]) == 0 {
				ix.duplicates[name] = []string{prev}
			}
			ix.duplicates[name] = append(ix.duplicates[name], f.Path)
			continue
		}
		ix.byName[name] = f.Path
	}
	return ix, nil
}

// Root returns the directory the index was built from.
func (ix *Index) Root() string { return ix.root }

// Files returns the indexed files sorted by path.
func (ix *Index) Files() []FileEntry { return ix.files }

// Duplicates maps each filename found more than once to its relative paths.
func (ix *Index) Duplicates() map[string][]string { return ix.duplicates }

// Lookup returns a readable path for ref. A ref containing a path separator
// is taken as a path, joined to the root when relative. A bare filename is
// looked up in the index.
func (ix *Index) Lookup(ref string) (string, error) {
	if strings.ContainsAny(ref, `/\`) {
		if filepath.IsAbs(ref) {
			return ref, nil
		}
		return filepath.Join(ix.root, ref), nil
	}
	if paths, dup := ix.duplicates[ref]; dup {
		return "", &model.Error{Kind: ErrDuplicateFile, Name: ref, Detail: "matches " + strings.Join(paths, ", ")}
	}
	rel, ok := ix.byName[ref]
	if !ok {
		return "", &model.Error{Kind: ErrFileNotFound, Name: ref}
	}
	return filepath.Join(ix.root, rel), nil
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[filepath.FromSlash(line)] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
