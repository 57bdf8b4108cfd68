package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/gdsnip/internal/model"
)

func paths(entries []FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = filepath.ToSlash(e.Path)
	}
	return out
}

func TestDiscoverGodotFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "player.gd", "extends Node")
	writeFile(t, dir, "fx/water.gdshader", "shader_type spatial;")
	writeFile(t, dir, "fx/legacy.shader", "shader_type spatial;")
	writeFile(t, dir, "main.tscn", "[gd_scene]")
	writeFile(t, dir, ".hidden.gd", "secret")

	entries, err := Files(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"fx/legacy.shader", "fx/water.gdshader", "player.gd"}, paths(entries))
	assert.Equal(t, "shader", entries[0].Language)
	assert.Equal(t, "gdscript", entries[2].Language)
}

func TestDiscoverSkipDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "main.gd", "pass")
	writeFile(t, dir, ".godot/editor/cache.gd", "pass")
	writeFile(t, dir, "node_modules/pkg.gd", "pass")
	writeFile(t, dir, ".hidden/secret.gd", "pass")

	entries, err := Files(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.gd"}, paths(entries))
}

func TestDiscoverExtensionFilter(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.gd", "pass")
	writeFile(t, dir, "b.gdshader", "pass")

	entries, err := Files(dir, Options{Extensions: []string{".GD"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.gd"}, paths(entries))
}

func TestDiscoverExcludeGlobs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "src/keep.gd", "pass")
	writeFile(t, dir, "src/skip_test.gd", "pass")
	writeFile(t, dir, "addons/plugin/tool.gd", "pass")

	entries, err := Files(dir, Options{Exclude: []string{"addons", "**/*_test.gd"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/keep.gd"}, paths(entries))
}

func TestDiscoverGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "generated/\n*.tmp.gd\n")
	writeFile(t, dir, "keep.gd", "pass")
	writeFile(t, dir, "scratch.tmp.gd", "pass")
	writeFile(t, dir, "generated/out.gd", "pass")

	entries, err := Files(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep.gd"}, paths(entries))
}

func TestDiscoverSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.gd", "pass")

	if err := os.Symlink(filepath.Join(dir, "real.gd"), filepath.Join(dir, "link.gd")); err != nil {
		t.Skip("symlinks not supported")
	}

	entries, err := Files(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"real.gd"}, paths(entries))
}

func TestIndexLookup(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "player/Player.gd", "pass")
	writeFile(t, dir, "enemy/Mob.gd", "pass")
	writeFile(t, dir, "enemy/Utils.gd", "pass")
	writeFile(t, dir, "player/Utils.gd", "pass")

	ix, err := NewIndex(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, dir, ix.Root())
	assert.Len(t, ix.Files(), 4)

	got, err := ix.Lookup("Player.gd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "player", "Player.gd"), got)

	got, err = ix.Lookup("enemy/Utils.gd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "enemy", "Utils.gd"), got)

	abs := filepath.Join(dir, "elsewhere", "Any.gd")
	got, err = ix.Lookup(abs)
	require.NoError(t, err)
	assert.Equal(t, abs, got)

	_, err = ix.Lookup("Utils.gd")
	require.ErrorIs(t, err, ErrDuplicateFile)
	assert.Contains(t, err.Error(), "Utils.gd")
	assert.Len(t, ix.Duplicates()["Utils.gd"], 2)

	_, err = ix.Lookup("Boss.gd")
	require.ErrorIs(t, err, ErrFileNotFound)
	var e *model.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "Boss.gd", e.Name)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
