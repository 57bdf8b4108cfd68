package lang

import "github.com/smacker/go-tree-sitter/c"

// Shader is the name of the Godot shading language entry.
const Shader = "shader"

func init() {
	Languages[Shader] = &Language{
		Name:          Shader,
		Extensions:    []string{".gdshader", ".shader"},
		CommentMarker: "//",
		lang:          c.GetLanguage(),
	}
}
