package toon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/gdsnip/internal/cache"
	"github.com/phobologic/gdsnip/internal/model"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"zero", "0", "0"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "scripts/player.gd", "scripts/player.gd"},
		{"dotted name", "Player._ready", "Player._ready"},
		{"definition with colon", "func _ready():", `"func _ready():"`},
		{"definition no special", "signal died", "signal died"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, encodeValue(tt.in))
		})
	}
}

const player = `class_name Player

signal died

# ANCHOR: setup
func _ready():
	pass
# END: setup

class Stats:
	var hp = 3
`

func TestEncodeFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "player.gd")
	require.NoError(t, os.WriteFile(path, []byte(player), 0o644))
	f, err := cache.New().Resolve(path)
	require.NoError(t, err)

	want := "file: " + path + "\n" +
		"language: gdscript\n" +
		"symbols[5]{name,kind,line,parent,definition}:\n" +
		"  Player,class_name,1,\"\",class_name Player\n" +
		"  died,signal,3,\"\",signal died\n" +
		"  _ready,function,6,\"\",\"func _ready():\"\n" +
		"  Stats,class,10,\"\",\"class Stats:\"\n" +
		"  Stats.hp,variable,11,Stats,var hp = 3\n" +
		"anchors[1]{name,start,end}:\n" +
		"  setup,5,8"
	assert.Equal(t, want, EncodeFile(f))
}

func TestRawLine(t *testing.T) {
	t.Parallel()

	tags := []int{1, 2, 5}
	assert.Equal(t, 3, rawLine(tags, 1))
	assert.Equal(t, 4, rawLine(tags, 2))
	assert.Equal(t, 6, rawLine(tags, 3))
	assert.Equal(t, 1, rawLine(nil, 1))
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	f := &model.File{Path: "empty.gd", Language: "gdscript"}
	got := Encode([]*model.File{f, f})
	assert.Equal(t, "file: empty.gd\nlanguage: gdscript\nsymbols[0]{name,kind,line,parent,definition}:\nanchors[0]{name,start,end}:\n\n"+
		"file: empty.gd\nlanguage: gdscript\nsymbols[0]{name,kind,line,parent,definition}:\nanchors[0]{name,start,end}:", got)
}
