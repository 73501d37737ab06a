// Package palette derives flower colors from a base (house) color.
//
// The analogous scheme is a per-channel offset with modular wraparound, not
// a rotation in HSL space. Callers rely on the wraparound values, so the
// arithmetic must stay exactly as written here.
package palette

// AnalogousShift is the per-channel offset used by AnalogousOf.
const AnalogousShift = 30

// ColorSet is the ordered list of colors derived from one base color.
type ColorSet []Color

// Hex returns every color in the set as lowercase hex without '#'.
func (cs ColorSet) Hex() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Hex()
	}
	return out
}

// ComplementOf returns the channel-wise inverse of c.
func ComplementOf(c Color) Color {
	return Color{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B}
}

// AnalogousOf returns c shifted up and down by AnalogousShift in every
// channel, each channel wrapped modulo 256.
func AnalogousOf(c Color) (Color, Color) {
	up := Color{
		R: shift(c.R, AnalogousShift),
		G: shift(c.G, AnalogousShift),
		B: shift(c.B, AnalogousShift),
	}
	down := Color{
		R: shift(c.R, -AnalogousShift),
		G: shift(c.G, -AnalogousShift),
		B: shift(c.B, -AnalogousShift),
	}
	return up, down
}

// Derive applies scheme to c. Identity and Complementary yield one color,
// Analogous yields two (shifted up, then down).
func Derive(c Color, scheme Scheme) ColorSet {
	switch scheme {
	case Complementary:
		return ColorSet{ComplementOf(c)}
	case Analogous:
		up, down := AnalogousOf(c)
		return ColorSet{up, down}
	default:
		return ColorSet{c}
	}
}

// DeriveHex parses base and label and returns the derived colors as
// lowercase hex strings without '#'.
func DeriveHex(base, label string) ([]string, error) {
	c, err := ParseHex(base)
	if err != nil {
		return nil, err
	}
	scheme, err := ParseScheme(label)
	if err != nil {
		return nil, err
	}
	return Derive(c, scheme).Hex(), nil
}

// shift adds d to v and resolves the result into [0,256), so -5 becomes 251.
func shift(v uint8, d int) uint8 {
	return uint8(((int(v)+d)%256 + 256) % 256)
}
