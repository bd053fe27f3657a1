package core

import (
	"fmt"
	"strings"
)

// Color is the style tag of a note, taken from a fixed palette.
type Color string

const (
	ColorYellow Color = "bg-yellow-100 border-yellow-200"
	ColorBlue   Color = "bg-blue-100 border-blue-200"
	ColorGreen  Color = "bg-green-100 border-green-200"
	ColorPurple Color = "bg-purple-100 border-purple-200"
	ColorPink   Color = "bg-pink-100 border-pink-200"
	ColorOrange Color = "bg-orange-100 border-orange-200"
)

// DefaultColor is used for new notes when none is chosen.
const DefaultColor = ColorYellow

var palette = []struct {
	label string
	color Color
}{
	{"yellow", ColorYellow},
	{"blue", ColorBlue},
	{"green", ColorGreen},
	{"purple", ColorPurple},
	{"pink", ColorPink},
	{"orange", ColorOrange},
}

// Palette returns the available colors in display order.
func Palette() []Color {
	out := make([]Color, len(palette))
	for i, p := range palette {
		out[i] = p.color
	}
	return out
}

// ParseColor accepts either a palette label ("blue") or the stored value.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	for _, p := range palette {
		if strings.EqualFold(s, p.label) || s == string(p.color) {
			return p.color, nil
		}
	}
	return "", fmt.Errorf("unknown color %q", s)
}

// Label returns the short palette name of c, or the raw value if c is off-palette.
func (c Color) Label() string {
	for _, p := range palette {
		if p.color == c {
			return p.label
		}
	}
	return string(c)
}

// Valid reports whether c belongs to the palette.
func (c Color) Valid() bool {
	for _, p := range palette {
		if p.color == c {
			return true
		}
	}
	return false
}
