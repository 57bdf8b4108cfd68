package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, root, rel, content string) {
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

const playerScript = `class_name Player extends CharacterBody2D

signal died

# ANCHOR: movement
func move(delta: float) -> void:
	velocity.x = 200 * delta
	move_and_slide()
# END: movement

class Stats:
	var hp := 3

	func damage(amount: int) -> void:
		hp -= amount
`

const waterShader = `shader_type spatial;

// ANCHOR: frag
void fragment() {
	ALBEDO = vec3(0.0, 0.3, 1.0);
}
// END: frag
`

func createSampleProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "scripts/Player.gd", playerScript)
	writeTestFile(t, dir, "shaders/water.gdshader", waterShader)
	return dir
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err = run(args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestRunSymbol(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	path := filepath.Join(dir, "scripts", "Player.gd")

	tests := []struct {
		query string
		want  string
	}{
		{"move.definition", "func move(delta: float) -> void:"},
		{"move.body", "\tvelocity.x = 200 * delta\n\tmove_and_slide()"},
		{"Stats.damage.body", "\t\thp -= amount"},
		{"died", "signal died"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()
			stdout, stderr, err := runCmd(t, "symbol", path, tt.query)
			require.NoError(t, err, stderr)
			assert.Equal(t, tt.want+"\n", stdout)
		})
	}
}

func TestRunSymbolBareFileName(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	stdout, stderr, err := runCmd(t, "--root", dir, "symbol", "Player.gd", "move.def")
	require.NoError(t, err, stderr)
	assert.Equal(t, "func move(delta: float) -> void:\n", stdout)

	stdout, stderr, err = runCmd(t, "--root", dir, "symbol", "shaders/water.gdshader", "fragment.body")
	require.NoError(t, err, stderr)
	assert.Equal(t, "\tALBEDO = vec3(0.0, 0.3, 1.0);\n", stdout)
}

func TestRunSymbolNotFound(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	_, _, err := runCmd(t, "symbol", filepath.Join(dir, "scripts", "Player.gd"), "Missing.definition")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `symbol not found "Missing"`)
}

func TestRunAnchor(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	stdout, stderr, err := runCmd(t, "anchor", filepath.Join(dir, "shaders", "water.gdshader"), "frag")
	require.NoError(t, err, stderr)
	assert.Equal(t, "void fragment() {\n\tALBEDO = vec3(0.0, 0.3, 1.0);\n}\n", stdout)

	_, _, err = runCmd(t, "anchor", filepath.Join(dir, "scripts", "Player.gd"), "jump")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anchor not found")
}

func TestRunList(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	stdout, stderr, err := runCmd(t, "--root", dir, "list", "Player.gd", "water.gdshader")
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "symbols[6]{name,kind,line,parent,definition}:")
	assert.Contains(t, stdout, "  Stats.damage,function,14,Stats,")
	assert.Contains(t, stdout, "  movement,5,9")
	assert.Contains(t, stdout, "language: shader")
	assert.Contains(t, stdout, "  frag,3,7")
}

func TestRunListPartialFailure(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	stdout, stderr, err := runCmd(t, "--root", dir, "list", "Player.gd", "Missing.gd")
	require.Error(t, err)
	assert.Equal(t, "1 of 2 requests failed", err.Error())
	assert.Contains(t, stdout, "language: gdscript")
	assert.Contains(t, stderr, `error: file not found in project "Missing.gd"`)
}

func TestRunResolve(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	stdout, stderr, err := runCmd(t, "--root", dir, "resolve",
		"Player.gd:move.def",
		"water.gdshader#frag",
		"Player.gd:Stats.hp",
	)
	require.NoError(t, err, stderr)
	want := "func move(delta: float) -> void:\n" +
		"\n" +
		"void fragment() {\n\tALBEDO = vec3(0.0, 0.3, 1.0);\n}\n" +
		"\n" +
		"\tvar hp := 3\n"
	assert.Equal(t, want, stdout)
}

func TestRunResolveFailuresKeepGoing(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	stdout, stderr, err := runCmd(t, "--root", dir, "resolve",
		"Player.gd:died.body",
		"Player.gd#movement",
		"Player.gd:a..b",
	)
	require.Error(t, err)
	assert.Equal(t, "2 of 3 requests failed", err.Error())
	assert.True(t, strings.HasPrefix(stdout, "func move(delta: float) -> void:\n"))
	assert.Contains(t, stderr, "symbol has no body")
	assert.Contains(t, stderr, "invalid query")
}

func TestParseRef(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want ref
	}{
		{"a.gd", ref{raw: "a.gd", file: "a.gd"}},
		{"a.gd:Foo.bar", ref{raw: "a.gd:Foo.bar", file: "a.gd", query: "Foo.bar"}},
		{"dir/a.gd#setup", ref{raw: "dir/a.gd#setup", file: "dir/a.gd", anchor: "setup"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseRef(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{":query", "#anchor", "a.gd#"} {
		_, err := parseRef(bad)
		assert.Error(t, err, bad)
	}
}

func TestRunCheck(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	writeTestFile(t, dir, "docs/tutorial.md", "# Movement\n\n```gdscript\n"+
		"{% include Player.gd movement %}\n"+
		"{% include Player.gd Stats.damage.body %}\n"+
		"{% include Player.gd jump %}\n"+
		"```\n")

	_, stderr, err := runCmd(t, "--root", dir, "check", filepath.Join(dir, "docs", "tutorial.md"))
	require.Error(t, err)
	assert.Equal(t, "1 of 3 requests failed", err.Error())
	assert.Contains(t, stderr, "tutorial.md:6: {% include Player.gd jump %}")
	assert.Contains(t, stderr, "anchor not found")
}

func TestRunCheckClean(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)
	writeTestFile(t, dir, "docs/ok.md", "```\n{% include scripts/Player.gd %}\n{% include water.gdshader frag %}\n```\n")

	_, stderr, err := runCmd(t, "--root", dir, "check", filepath.Join(dir, "docs", "ok.md"))
	require.NoError(t, err, stderr)
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCmd(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "gdsnip dev\n", stdout)
}

func TestRunMissingExplicitConfig(t *testing.T) {
	t.Parallel()

	_, _, err := runCmd(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "list", "x.gd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config")
}

func TestRunRootFromEnv(t *testing.T) {
	dir := createSampleProject(t)
	t.Setenv("GDSNIP_ROOT", dir)

	stdout, stderr, err := runCmd(t, "symbol", "Player.gd", "died")
	require.NoError(t, err, stderr)
	assert.Equal(t, "signal died\n", stdout)
}

func TestRunVerboseLogs(t *testing.T) {
	t.Parallel()
	dir := createSampleProject(t)

	_, stderr, err := runCmd(t, "-v", "--root", dir, "resolve", "Player.gd:died")
	require.NoError(t, err)
	assert.Contains(t, stderr, "indexed project")
	assert.Contains(t, stderr, "resolved references")
}
