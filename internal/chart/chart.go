// Package chart renders the PNG charts shown next to a result table.
package chart

import (
	"bytes"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"flora-advisor/internal/catalog"
	"flora-advisor/internal/palette"
)

// NoPlantsMessage is drawn in place of a chart when a result has no rows.
const NoPlantsMessage = "No plants found"

const (
	barWidth   = 28
	barSpacing = 12
	labelRunes = 12
)

// Palette is the set of colors used for chart chrome.
type Palette struct {
	Background drawing.Color
	Text       drawing.Color
	Fallback   drawing.Color
}

// DefaultPalette is a light theme that sits well on the results page.
var DefaultPalette = Palette{
	Background: drawing.Color{R: 0xfa, G: 0xfa, B: 0xf7, A: 0xff},
	Text:       drawing.Color{R: 0x33, G: 0x33, B: 0x33, A: 0xff},
	Fallback:   drawing.Color{R: 0x7a, G: 0x9e, B: 0x7e, A: 0xff},
}

// NameLengthChart draws one bar per plant, its height the length of the
// common name and its fill the flower color that found the plant.
func NameLengthChart(plants []catalog.Plant) ([]byte, error) {
	return DefaultPalette.NameLengthChart(plants)
}

// NameLengthChart is NameLengthChart drawn with p.
func (p Palette) NameLengthChart(plants []catalog.Plant) ([]byte, error) {
	if len(plants) == 0 {
		return p.placeholder(NoPlantsMessage)
	}

	bars := make([]chart.Value, len(plants))
	longest := 0
	for i, pl := range plants {
		n := 0
		if pl.CommonName != catalog.NotAvailable {
			n = len([]rune(pl.CommonName))
		}
		if n > longest {
			longest = n
		}
		fill := p.Fallback
		if c, err := palette.ParseHex(pl.QueryColor); err == nil {
			fill = toDrawing(c)
		}
		bars[i] = chart.Value{
			Label: shorten(pl.CommonName),
			Value: float64(n),
			Style: chart.Style{
				FillColor:   fill,
				StrokeColor: p.Text,
				StrokeWidth: 1,
			},
		}
	}

	width := len(bars)*(barWidth+barSpacing) + 120
	if width < 480 {
		width = 480
	}

	graph := chart.BarChart{
		Title:      "Common name length",
		TitleStyle: chart.Style{FontColor: p.Text},
		Width:      width,
		Height:     360,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{
			FillColor: p.Background,
			Padding:   chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		Canvas: chart.Style{FillColor: p.Background},
		XAxis: chart.Style{
			FontColor:           p.Text,
			FontSize:            8,
			TextRotationDegrees: 45,
		},
		YAxis: chart.YAxis{
			Name:  "Characters",
			Style: chart.Style{FontColor: p.Text},
			// Explicit range keeps equal-height bars from collapsing the axis.
			Range: &chart.ContinuousRange{Min: 0, Max: float64(longest + 1)},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// PaletteChart draws the house color followed by the derived flower colors as
// labeled swatches.
func PaletteChart(base palette.Color, colors palette.ColorSet) ([]byte, error) {
	return DefaultPalette.PaletteChart(base, colors)
}

// PaletteChart is PaletteChart drawn with p.
func (p Palette) PaletteChart(base palette.Color, colors palette.ColorSet) ([]byte, error) {
	const (
		swatch  = 96
		gap     = 16
		margin  = 20
		caption = 36
	)

	swatches := append(palette.ColorSet{base}, colors...)
	width := margin*2 + len(swatches)*swatch + (len(swatches)-1)*gap
	height := margin*2 + swatch + caption

	r, err := p.canvas(width, height)
	if err != nil {
		return nil, err
	}

	r.SetFontSize(10)
	r.SetFontColor(p.Text)
	for i, c := range swatches {
		x := margin + i*(swatch+gap)
		fillRect(r, chart.Box{Left: x, Top: margin, Right: x + swatch, Bottom: margin + swatch}, toDrawing(c), p.Text)

		label := "#" + c.Hex()
		if i == 0 {
			label = "house " + label
		}
		tb := r.MeasureText(label)
		r.Text(label, x+(swatch-tb.Width())/2, margin+swatch+caption/2+tb.Height()/2)
	}

	return save(r)
}

func (p Palette) placeholder(msg string) ([]byte, error) {
	const (
		width  = 400
		height = 200
	)

	r, err := p.canvas(width, height)
	if err != nil {
		return nil, err
	}
	r.SetFontColor(p.Text)
	r.SetFontSize(12.0)
	tb := r.MeasureText(msg)
	r.Text(msg, (width-tb.Width())/2, (height+tb.Height())/2)
	return save(r)
}

// canvas returns a PNG renderer filled with the background color and ready
// for text.
func (p Palette) canvas(width, height int) (chart.Renderer, error) {
	r, err := chart.PNG(width, height)
	if err != nil {
		return nil, err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}
	r.SetDPI(chart.DefaultDPI)
	r.SetFont(font)
	fillRect(r, chart.Box{Right: width, Bottom: height}, p.Background, p.Background)
	return r, nil
}

func fillRect(r chart.Renderer, b chart.Box, fill, stroke drawing.Color) {
	r.SetFillColor(fill)
	r.SetStrokeColor(stroke)
	r.SetStrokeWidth(1)
	r.MoveTo(b.Left, b.Top)
	r.LineTo(b.Right, b.Top)
	r.LineTo(b.Right, b.Bottom)
	r.LineTo(b.Left, b.Bottom)
	r.LineTo(b.Left, b.Top)
	r.Close()
	r.FillStroke()
}

func save(r chart.Renderer) ([]byte, error) {
	buffer := bytes.NewBuffer([]byte{})
	if err := r.Save(buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func toDrawing(c palette.Color) drawing.Color {
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: 0xff}
}

func shorten(name string) string {
	if name == catalog.NotAvailable {
		return "?"
	}
	r := []rune(name)
	if len(r) <= labelRunes {
		return name
	}
	return string(r[:labelRunes-1]) + "…"
}
