package lang

// GDScript is the name of the GDScript language entry.
const GDScript = "gdscript"

func init() {
	Languages[GDScript] = &Language{
		Name:          GDScript,
		Extensions:    []string{".gd"},
		CommentMarker: "#",
	}
}
