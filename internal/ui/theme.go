package ui

import (
	"os"
	"strings"

	"github.com/fatih/color"

	"flora-advisor/internal/palette"
)

// Theme provides styled color functions for consistent CLI output
// Respects NO_COLOR and FORCE_COLOR environment variables

var (
	// Check color support
	noColor    = os.Getenv("NO_COLOR") != ""
	forceColor = isForceColor()
)

func init() {
	if forceColor {
		color.NoColor = false
	}
}

func isForceColor() bool {
	fc := strings.TrimSpace(os.Getenv("FORCE_COLOR"))
	return fc != "" && fc != "0"
}

// IsRich returns true if the terminal supports rich output (colors)
func IsRich() bool {
	if noColor && !forceColor {
		return false
	}
	return !color.NoColor
}

// Accent returns primary brand-colored text
func Accent(format string, a ...interface{}) string {
	return color.New(color.FgHiGreen).Sprintf(format, a...)
}

// Success returns success-styled text
func Success(format string, a ...interface{}) string {
	return color.New(color.FgGreen).Sprintf(format, a...)
}

// Warn returns warning-styled text
func Warn(format string, a ...interface{}) string {
	return color.New(color.FgYellow).Sprintf(format, a...)
}

// Error returns error-styled text
func Error(format string, a ...interface{}) string {
	return color.New(color.FgRed).Sprintf(format, a...)
}

// Muted returns secondary/hint text
func Muted(format string, a ...interface{}) string {
	return color.New(color.FgHiBlack).Sprintf(format, a...)
}

// Heading returns bold accent text for section headers
func Heading(format string, a ...interface{}) string {
	return color.New(color.FgHiGreen, color.Bold).Sprintf(format, a...)
}

// Subtle returns subtle white text
func Subtle(format string, a ...interface{}) string {
	return color.New(color.FgWhite).Sprintf(format, a...)
}

// Bold returns bold white text
func Bold(format string, a ...interface{}) string {
	return color.New(color.FgWhite, color.Bold).Sprintf(format, a...)
}

// Swatch renders a small block painted in c followed by its hex code. Plain
// terminals get the hex code in brackets instead.
func Swatch(c palette.Color) string {
	if !IsRich() {
		return "[" + c.CSS() + "]"
	}
	block := color.BgRGB(int(c.R), int(c.G), int(c.B)).Sprint("      ")
	return block + " " + Bold("%s", c.CSS())
}
