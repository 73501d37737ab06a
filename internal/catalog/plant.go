package catalog

import (
	"bytes"
	"encoding/json"
	"strings"
)

// NotAvailable is shown for text fields the catalog omitted.
const NotAvailable = "N/A"

// Plant is one catalog entry with every optional field resolved: text fields
// the catalog left out read NotAvailable, missing image URLs are empty.
type Plant struct {
	ID             string `json:"id"`
	CommonName     string `json:"common_name"`
	ScientificName string `json:"scientific_name"`
	OtherNames     string `json:"other_names"`
	Family         string `json:"family"`
	FlowerColor    string `json:"flower_color"`
	Cycle          string `json:"cycle"`
	Watering       string `json:"watering"`
	Sunlight       string `json:"sunlight"`
	ImageURL       string `json:"image_url"`
	ThumbnailURL   string `json:"thumbnail_url"`
	ImageCredit    string `json:"image_credit,omitempty"` // set when the image came from photo search

	// QueryColor is the derived hex (no '#') whose query returned this plant.
	QueryColor string `json:"query_color,omitempty"`
}

// HasImage reports whether the plant carries a usable picture.
func (p Plant) HasImage() bool {
	return p.ImageURL != ""
}

// Text is a loosely typed catalog field. The catalog sends some fields as a
// string in one record and a list of strings in the next; numbers and null
// also occur. Lists are joined with ", ".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
	case '[':
		var items []Text
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		parts := make([]string, 0, len(items))
		for _, it := range items {
			if it != "" {
				parts = append(parts, string(it))
			}
		}
		*t = Text(strings.Join(parts, ", "))
	case '{':
		// Objects never carry display text here.
		*t = ""
	default:
		// numbers and booleans
		*t = Text(b)
	}
	return nil
}

func (t Text) or(fallback string) string {
	if t == "" {
		return fallback
	}
	return string(t)
}

type imageSet struct {
	OriginalURL Text `json:"original_url"`
	RegularURL  Text `json:"regular_url"`
	MediumURL   Text `json:"medium_url"`
	SmallURL    Text `json:"small_url"`
	Thumbnail   Text `json:"thumbnail"`
}

// rawPlant mirrors the catalog item loosely; every field is optional.
type rawPlant struct {
	ID             Text      `json:"id"`
	CommonName     Text      `json:"common_name"`
	ScientificName Text      `json:"scientific_name"`
	OtherName      Text      `json:"other_name"`
	Family         Text      `json:"family"`
	FlowerColor    Text      `json:"flower_color"`
	Cycle          Text      `json:"cycle"`
	Watering       Text      `json:"watering"`
	Sunlight       Text      `json:"sunlight"`
	ImageURL       Text      `json:"image_url"`
	DefaultImage   *imageSet `json:"default_image"`
}

func (r rawPlant) plant() Plant {
	p := Plant{
		ID:             string(r.ID),
		CommonName:     r.CommonName.or(NotAvailable),
		ScientificName: r.ScientificName.or(NotAvailable),
		OtherNames:     r.OtherName.or(NotAvailable),
		Family:         r.Family.or(NotAvailable),
		FlowerColor:    r.FlowerColor.or(NotAvailable),
		Cycle:          r.Cycle.or(NotAvailable),
		Watering:       r.Watering.or(NotAvailable),
		Sunlight:       r.Sunlight.or(NotAvailable),
		ImageURL:       string(r.ImageURL),
	}

	if img := r.DefaultImage; img != nil {
		if p.ImageURL == "" {
			p.ImageURL = firstNonEmpty(img.RegularURL, img.MediumURL, img.OriginalURL, img.SmallURL)
		}
		p.ThumbnailURL = firstNonEmpty(img.Thumbnail, img.SmallURL)
	}
	if p.ThumbnailURL == "" {
		p.ThumbnailURL = p.ImageURL
	}
	// Placeholder images the catalog serves for paywalled entries.
	if strings.Contains(p.ImageURL, "upgrade_access") {
		p.ImageURL, p.ThumbnailURL = "", ""
	}
	return p
}

func firstNonEmpty(vals ...Text) string {
	for _, v := range vals {
		if v != "" {
			return string(v)
		}
	}
	return ""
}
