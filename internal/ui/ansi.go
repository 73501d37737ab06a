package ui

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// SGR (Select Graphic Rendition) codes: ESC[...m
var ansiSGRPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripAnsi removes color escape codes from a string
func StripAnsi(input string) string {
	return ansiSGRPattern.ReplaceAllString(input, "")
}

// VisibleWidth returns the display width of a string, ignoring ANSI codes.
// It counts runes, not bytes.
func VisibleWidth(input string) int {
	return utf8.RuneCountInString(StripAnsi(input))
}

// TruncateVisible shortens a string to maxWidth visible runes, ending in
// "..." when cut. Styling is dropped from truncated values.
func TruncateVisible(input string, maxWidth int) string {
	stripped := StripAnsi(input)
	if utf8.RuneCountInString(stripped) <= maxWidth {
		return input
	}
	runes := []rune(stripped)
	if maxWidth <= 3 {
		return string(runes[:maxWidth])
	}
	return string(runes[:maxWidth-3]) + "..."
}

// PadRight pads a string to a minimum visible width
func PadRight(input string, width int) string {
	visible := VisibleWidth(input)
	if visible >= width {
		return input
	}
	return input + spaces(width-visible)
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}
