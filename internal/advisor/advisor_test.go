package advisor

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flora-advisor/internal/catalog"
	"flora-advisor/internal/palette"
	"flora-advisor/internal/photos"
	"flora-advisor/internal/ui"
)

func TestMain(m *testing.M) {
	ui.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type fakeCatalog struct {
	mu      sync.Mutex
	queries []catalog.Query
	byColor map[string][]catalog.Plant
	err     error
}

func (f *fakeCatalog) SpeciesList(_ context.Context, q catalog.Query) (*catalog.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return &catalog.Page{Plants: append([]catalog.Plant(nil), f.byColor[q.FlowerColor]...)}, nil
}

type fakePhotos struct {
	mu        sync.Mutex
	enabled   bool
	searched  []string
	fail      map[string]bool
	anonymous bool
}

func (f *fakePhotos) Enabled() bool { return f.enabled }

func (f *fakePhotos) Search(_ context.Context, query string, _ int) ([]photos.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched = append(f.searched, query)
	if f.fail[query] {
		return nil, errors.New("boom")
	}
	credit := "Ada"
	if f.anonymous {
		credit = photos.NotAvailable
	}
	return []photos.Photo{{URL: "https://img.test/" + query, ThumbURL: "https://img.test/t", Photographer: credit}}, nil
}

func plant(name, image string) catalog.Plant {
	return catalog.Plant{CommonName: name, ImageURL: image, ThumbnailURL: image}
}

func TestCriteriaValidation(t *testing.T) {
	tests := []struct {
		name      string
		req       Request
		wantField string
	}{
		{"bad color", Request{HouseColor: "red", Scheme: "Similar"}, "house_color"},
		{"bad scheme", Request{HouseColor: "#ff0000", Scheme: "Triadic"}, "scheme"},
		{"count too high", Request{HouseColor: "#ff0000", Scheme: "Similar", Count: 21}, "count"},
		{"negative count", Request{HouseColor: "#ff0000", Scheme: "Similar", Count: -1}, "count"},
		{"bad sun", Request{HouseColor: "#ff0000", Scheme: "Similar", SunLevel: "Moonlight"}, "sun_level"},
		{"bad water", Request{HouseColor: "#ff0000", Scheme: "Similar", WaterFrequency: "Never"}, "water_frequency"},
		{"bad cycle", Request{HouseColor: "#ff0000", Scheme: "Similar", PlantCycle: "Weekly"}, "plant_cycle"},
		{"bad growth", Request{HouseColor: "#ff0000", Scheme: "Similar", GrowthRate: "Fast"}, "growth_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Criteria(10, 20)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.True(t, IsValidation(err))
		})
	}

	_, err := Request{HouseColor: "#zzzzzz", Scheme: "Similar"}.Criteria(10, 20)
	var invalid *palette.InvalidColorError
	assert.True(t, errors.As(err, &invalid), "color errors unwrap to InvalidColorError")
}

func TestCriteriaCanonicalizes(t *testing.T) {
	c, err := Request{
		HouseColor:     "FF0000",
		Scheme:         "analogous",
		SunLevel:       "full sun",
		WaterFrequency: " average ",
		PlantCycle:     "",
		GrowthRate:     "LOW",
	}.Criteria(10, 20)
	require.NoError(t, err)

	assert.Equal(t, 10, c.Count)
	assert.Equal(t, palette.Analogous, c.Scheme)
	assert.Equal(t, Request{
		HouseColor:     "#ff0000",
		Scheme:         "Analogous",
		Count:          10,
		SunLevel:       "Full Sun",
		WaterFrequency: "Average",
		GrowthRate:     "Low",
	}, c.Request())

	q := c.Query(palette.RGB(30, 30, 30))
	assert.Equal(t, catalog.Query{
		FlowerColor:    "1e1e1e",
		Limit:          10,
		SunLevel:       "Full Sun",
		WaterFrequency: "Average",
		GrowthRate:     "Low",
	}, q)
}

func TestRecommendQueriesEachDerivedColorInOrder(t *testing.T) {
	cat := &fakeCatalog{byColor: map[string][]catalog.Plant{
		"1e1e1e": {plant("Rose", "https://img.test/rose.jpg")},
		"e2e2e2": {plant("Lavender", "https://img.test/lav.jpg"), plant("Iris", "https://img.test/iris.jpg")},
	}}
	a := New(cat, nil, Options{})

	res, err := a.Recommend(context.Background(), Request{HouseColor: "#000000", Scheme: "Analogous", Count: 5, SunLevel: "Full Sun"})
	require.NoError(t, err)

	require.Len(t, cat.queries, 2)
	assert.Equal(t, "1e1e1e", cat.queries[0].FlowerColor)
	assert.Equal(t, "e2e2e2", cat.queries[1].FlowerColor)
	assert.Equal(t, 5, cat.queries[0].Limit)
	assert.Equal(t, "Full Sun", cat.queries[1].SunLevel)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, "000000", res.BaseColor)
	assert.Equal(t, "Analogous", res.Scheme)
	assert.Equal(t, []string{"1e1e1e", "e2e2e2"}, res.Colors)
	require.Len(t, res.Plants, 3)
	assert.Equal(t, "Rose", res.Plants[0].CommonName)
	assert.Equal(t, "1e1e1e", res.Plants[0].QueryColor)
	assert.Equal(t, "e2e2e2", res.Plants[2].QueryColor)
	assert.Equal(t, map[string]int{"1e1e1e": 1, "e2e2e2": 2}, res.Stats.PerColor)
	assert.InDelta(t, (4.0+8.0+4.0)/3.0, res.Stats.AverageNameLength, 1e-9)
}

func TestRecommendComplementaryAndEmpty(t *testing.T) {
	cat := &fakeCatalog{}
	res, err := New(cat, nil, Options{}).Recommend(context.Background(), Request{HouseColor: "#ff0000", Scheme: "Complementary"})
	require.NoError(t, err)

	require.Len(t, cat.queries, 1)
	assert.Equal(t, "00ffff", cat.queries[0].FlowerColor)
	assert.NotNil(t, res.Plants)
	assert.Empty(t, res.Plants)
	assert.Zero(t, res.Stats.AverageNameLength)
}

func TestRecommendPropagatesCatalogError(t *testing.T) {
	cat := &fakeCatalog{err: &catalog.APIError{StatusCode: 401}}
	_, err := New(cat, nil, Options{}).Recommend(context.Background(), Request{HouseColor: "#ff0000", Scheme: "Similar"})

	var apiErr *catalog.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, err.Error(), "ff0000")
}

func TestRecommendValidationSkipsCatalog(t *testing.T) {
	cat := &fakeCatalog{}
	_, err := New(cat, nil, Options{}).Recommend(context.Background(), Request{HouseColor: "nope", Scheme: "Similar"})
	assert.True(t, IsValidation(err))
	assert.Empty(t, cat.queries)
}

func TestRecommendAttachesPhotos(t *testing.T) {
	cat := &fakeCatalog{byColor: map[string][]catalog.Plant{
		"ff0000": {
			plant("Rose", "https://img.test/rose.jpg"),
			plant("Tulip", ""),
			plant("Poppy", ""),
			plant(catalog.NotAvailable, ""),
		},
	}}
	ph := &fakePhotos{enabled: true, fail: map[string]bool{"Poppy plant": true}}

	res, err := New(cat, ph, Options{PhotoConcurrency: 2}).Recommend(context.Background(), Request{HouseColor: "#ff0000", Scheme: "Similar"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Tulip plant", "Poppy plant"}, ph.searched)
	assert.Equal(t, "https://img.test/rose.jpg", res.Plants[0].ImageURL)
	assert.Empty(t, res.Plants[0].ImageCredit)
	assert.Equal(t, "https://img.test/Tulip plant", res.Plants[1].ImageURL)
	assert.Equal(t, "Ada", res.Plants[1].ImageCredit)
	assert.False(t, res.Plants[2].HasImage(), "failed lookup leaves plant without image")
	assert.False(t, res.Plants[3].HasImage())
}

func TestRecommendLeavesMissingPhotographerUncredited(t *testing.T) {
	cat := &fakeCatalog{byColor: map[string][]catalog.Plant{"ff0000": {plant("Tulip", "")}}}
	ph := &fakePhotos{enabled: true, anonymous: true}

	res, err := New(cat, ph, Options{}).Recommend(context.Background(), Request{HouseColor: "#ff0000", Scheme: "Similar"})
	require.NoError(t, err)
	require.Len(t, res.Plants, 1)
	assert.Equal(t, "https://img.test/Tulip plant", res.Plants[0].ImageURL)
	assert.Empty(t, res.Plants[0].ImageCredit)
}

func TestRecommendSkipsDisabledPhotos(t *testing.T) {
	cat := &fakeCatalog{byColor: map[string][]catalog.Plant{"ff0000": {plant("Tulip", "")}}}
	ph := &fakePhotos{enabled: false}

	_, err := New(cat, ph, Options{}).Recommend(context.Background(), Request{HouseColor: "#ff0000", Scheme: "Similar"})
	require.NoError(t, err)
	assert.Empty(t, ph.searched)
}

func TestComputeStats(t *testing.T) {
	s := ComputeStats([]catalog.Plant{
		{CommonName: "Rose", QueryColor: "a"},
		{CommonName: catalog.NotAvailable, QueryColor: "a"},
		{CommonName: "Mädchenauge", QueryColor: "b"},
	})
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, []int{4, 0, 11}, s.NameLengths)
	assert.InDelta(t, 7.5, s.AverageNameLength, 1e-9)
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, s.PerColor)

	empty := ComputeStats(nil)
	assert.Zero(t, empty.Count)
	assert.Zero(t, empty.AverageNameLength)
}
