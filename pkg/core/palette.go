package core

import "slices"

// Palette is an ordered set of color tokens.
type Palette []string

// Contains reports whether color belongs to the palette.
func (p Palette) Contains(color string) bool {
	return slices.Contains(p, color)
}

// Pick returns the color at n modulo the palette size.
func (p Palette) Pick(n int) string {
	if len(p) == 0 {
		return ""
	}
	if n < 0 {
		n = -n
	}
	return p[n%len(p)]
}

// GenericPalette is the user-selectable palette for shapes, lines and text.
var GenericPalette = Palette{
	"#1f2937", // ink
	"#ef4444",
	"#f59e0b",
	"#10b981",
	"#3b82f6",
	"#8b5cf6",
	"#ec4899",
}

// PastelPalette colors sticky notes. It is never user-selectable.
var PastelPalette = Palette{
	"#fef08a",
	"#fbcfe8",
	"#bbf7d0",
	"#bfdbfe",
	"#fed7aa",
	"#ddd6fe",
}

// DefaultColor is the initially selected color of a new editor.
const DefaultColor = "#1f2937"
