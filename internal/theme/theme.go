package theme

import (
	"fmt"
	"strings"
)

type Name string

const (
	Day   Name = "day"
	Night Name = "night"
)

const (
	rgbDark  = "10, 10, 20"
	rgbLight = "255, 255, 255"
)

// Palette holds the values of the two color variables every surface is painted with.
// Both are "R, G, B" triplets.
type Palette struct {
	Dark  string `json:"--color-dark"`
	Light string `json:"--color-light"`
}

// Apply is the only place where a theme is turned into colors
func Apply(n Name) Palette {
	if n == Night {
		return Palette{Dark: rgbLight, Light: rgbDark}
	}

	return Palette{Dark: rgbDark, Light: rgbLight}
}

// Preferred maps a color scheme preference onto a theme
func Preferred(prefersDark bool) Name {
	if prefersDark {
		return Night
	}

	return Day
}

// Parse accepts "day"/"night" and also the "light"/"dark" spelling of color scheme hints
func Parse(s string) (Name, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "light":
		return Day, true
	case "night", "dark":
		return Night, true
	}

	return Day, false
}

// Toggle switches between day and night
func (n Name) Toggle() Name {
	if n == Night {
		return Day
	}

	return Night
}

// CSSVariables returns the palette keyed by the custom property names
func (p Palette) CSSVariables() map[string]string {
	return map[string]string{
		"--color-dark":  p.Dark,
		"--color-light": p.Light,
	}
}

// Hex converts an "R, G, B" triplet into "#rrggbb", black on malformed input
func Hex(rgb string) string {
	var r, g, b uint8
	_, err := fmt.Sscanf(strings.ReplaceAll(rgb, " ", ""), "%d,%d,%d", &r, &g, &b)
	if err != nil {
		return "#000000"
	}

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
