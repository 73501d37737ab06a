package advisor

import (
	"errors"
	"fmt"
	"strings"

	"flora-advisor/internal/catalog"
	"flora-advisor/internal/palette"
)

// Choices offered by the search form. Values are sent to the catalog as-is.
var (
	SunLevels        = []string{"Full Shade", "Part Shade", "A Mix of Sun and Shade", "Full Sun"}
	WaterFrequencies = []string{"Frequently", "Average", "Minimal"}
	PlantCycles      = []string{"Perennial", "Annual", "Biannual"}
	GrowthRates      = []string{"High", "Moderate", "Low"}
)

// DefaultHouseColor is preselected in the form.
const DefaultHouseColor = "#ff0000"

// Request is the raw form input.
type Request struct {
	HouseColor     string `json:"house_color"`
	Scheme         string `json:"scheme"`
	Count          int    `json:"count"`
	SunLevel       string `json:"sun_level,omitempty"`
	WaterFrequency string `json:"water_frequency,omitempty"`
	PlantCycle     string `json:"plant_cycle,omitempty"`
	GrowthRate     string `json:"growth_rate,omitempty"`
}

// ValidationError names the form field that was rejected.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err came from request validation.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Criteria is a validated Request.
type Criteria struct {
	Base           palette.Color
	Scheme         palette.Scheme
	Count          int
	SunLevel       string
	WaterFrequency string
	PlantCycle     string
	GrowthRate     string
}

// Criteria validates r. A zero Count becomes defaultCount; option labels are
// matched without regard to case and rewritten to their canonical spelling.
func (r Request) Criteria(defaultCount, maxCount int) (Criteria, error) {
	var c Criteria

	base, err := palette.ParseHex(r.HouseColor)
	if err != nil {
		return c, &ValidationError{Field: "house_color", Reason: err.Error(), Err: err}
	}
	scheme, err := palette.ParseScheme(r.Scheme)
	if err != nil {
		return c, &ValidationError{Field: "scheme", Reason: err.Error(), Err: err}
	}
	c.Base, c.Scheme = base, scheme

	c.Count = r.Count
	if c.Count == 0 {
		c.Count = defaultCount
	}
	if c.Count < 1 || c.Count > maxCount {
		return c, &ValidationError{Field: "count", Reason: fmt.Sprintf("must be between 1 and %d", maxCount)}
	}

	for _, opt := range []struct {
		field   string
		value   string
		choices []string
		dst     *string
	}{
		{"sun_level", r.SunLevel, SunLevels, &c.SunLevel},
		{"water_frequency", r.WaterFrequency, WaterFrequencies, &c.WaterFrequency},
		{"plant_cycle", r.PlantCycle, PlantCycles, &c.PlantCycle},
		{"growth_rate", r.GrowthRate, GrowthRates, &c.GrowthRate},
	} {
		v, ok := canonical(opt.value, opt.choices)
		if !ok {
			return c, &ValidationError{
				Field:  opt.field,
				Reason: fmt.Sprintf("%q is not one of %s", opt.value, strings.Join(opt.choices, ", ")),
			}
		}
		*opt.dst = v
	}

	return c, nil
}

// Request converts c back into canonical form input.
func (c Criteria) Request() Request {
	return Request{
		HouseColor:     c.Base.CSS(),
		Scheme:         c.Scheme.Label(),
		Count:          c.Count,
		SunLevel:       c.SunLevel,
		WaterFrequency: c.WaterFrequency,
		PlantCycle:     c.PlantCycle,
		GrowthRate:     c.GrowthRate,
	}
}

// Query builds the catalog query for one derived flower color.
func (c Criteria) Query(flowerColor palette.Color) catalog.Query {
	return catalog.Query{
		FlowerColor:    flowerColor.Hex(),
		Limit:          c.Count,
		SunLevel:       c.SunLevel,
		WaterFrequency: c.WaterFrequency,
		PlantCycle:     c.PlantCycle,
		GrowthRate:     c.GrowthRate,
	}
}

func canonical(v string, choices []string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", true
	}
	for _, c := range choices {
		if strings.EqualFold(v, c) {
			return c, true
		}
	}
	return "", false
}
