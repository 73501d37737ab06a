package palette

import (
	"fmt"
	"strings"
)

// Scheme selects how flower colors are derived from the base color.
type Scheme int

const (
	// Identity keeps the base color ("Similar" in the form).
	Identity Scheme = iota
	// Complementary inverts every channel.
	Complementary
	// Analogous shifts every channel up and down by AnalogousShift.
	Analogous
)

// Schemes lists every scheme in the order the form presents them.
var Schemes = []Scheme{Identity, Complementary, Analogous}

// Label is the user-facing name of the scheme.
func (s Scheme) Label() string {
	switch s {
	case Identity:
		return "Similar"
	case Complementary:
		return "Complementary"
	case Analogous:
		return "Analogous"
	default:
		return "Unknown"
	}
}

func (s Scheme) String() string {
	return s.Label()
}

// ParseScheme maps a form label to a Scheme. Matching ignores case and
// surrounding space; "identity" is accepted as an alias of "Similar".
func ParseScheme(label string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "similar", "identity":
		return Identity, nil
	case "complementary":
		return Complementary, nil
	case "analogous":
		return Analogous, nil
	}
	return Identity, &UnknownSchemeError{Label: label}
}

// UnknownSchemeError is returned by ParseScheme for unrecognized labels.
type UnknownSchemeError struct {
	Label string
}

func (e *UnknownSchemeError) Error() string {
	return fmt.Sprintf("unknown color scheme %q (want Similar, Complementary or Analogous)", e.Label)
}
