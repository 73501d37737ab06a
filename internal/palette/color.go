package palette

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an 8-bit RGB triple.
type Color struct {
	R uint8
	G uint8
	B uint8
}

// InvalidColorError reports a color value rejected at the input boundary.
type InvalidColorError struct {
	Input  string
	Reason string
}

func (e *InvalidColorError) Error() string {
	return fmt.Sprintf("invalid color %q: %s", e.Input, e.Reason)
}

// RGB builds a Color from channel values already known to be in range.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// FromRGB builds a Color from int channels, rejecting values outside [0,255].
func FromRGB(r, g, b int) (Color, error) {
	for _, ch := range [...]struct {
		name string
		v    int
	}{{"red", r}, {"green", g}, {"blue", b}} {
		if ch.v < 0 || ch.v > 255 {
			return Color{}, &InvalidColorError{
				Input:  fmt.Sprintf("(%d,%d,%d)", r, g, b),
				Reason: fmt.Sprintf("%s channel %d out of range [0,255]", ch.name, ch.v),
			}
		}
	}
	return Color{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}

// ParseHex parses "#rrggbb", "rrggbb", "#rgb" or "rgb" (any case).
func ParseHex(s string) (Color, error) {
	raw := strings.TrimSpace(s)
	hex := strings.TrimPrefix(raw, "#")

	switch len(hex) {
	case 3:
		// #abc is shorthand for #aabbcc
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return Color{}, &InvalidColorError{Input: s, Reason: "expected 3 or 6 hex digits"}
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, &InvalidColorError{Input: s, Reason: "not a hexadecimal value"}
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Hex returns the lowercase six-digit form without a leading '#', the shape
// the catalog expects in its flower_color parameter.
func (c Color) Hex() string {
	return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
}

// CSS returns the color as "#rrggbb".
func (c Color) CSS() string {
	return "#" + c.Hex()
}

func (c Color) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}
