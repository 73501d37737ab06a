package advisor

import (
	"unicode/utf8"

	"flora-advisor/internal/catalog"
)

// Stats summarizes a result set.
type Stats struct {
	Count             int            `json:"count"`
	AverageNameLength float64        `json:"average_name_length"`
	NameLengths       []int          `json:"name_lengths"`
	PerColor          map[string]int `json:"per_color"`
}

// ComputeStats counts plants per query color and measures common names in
// runes. Plants without a common name are left out of the average and get a
// length of 0.
func ComputeStats(plants []catalog.Plant) Stats {
	s := Stats{
		Count:       len(plants),
		NameLengths: make([]int, len(plants)),
		PerColor:    make(map[string]int),
	}

	var total, named int
	for i, p := range plants {
		s.PerColor[p.QueryColor]++
		if p.CommonName == catalog.NotAvailable || p.CommonName == "" {
			continue
		}
		n := utf8.RuneCountInString(p.CommonName)
		s.NameLengths[i] = n
		total += n
		named++
	}
	if named > 0 {
		s.AverageNameLength = float64(total) / float64(named)
	}
	return s
}
