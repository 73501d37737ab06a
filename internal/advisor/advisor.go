// Package advisor turns a house color and growing conditions into a list of
// matching plants.
package advisor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"flora-advisor/internal/catalog"
	"flora-advisor/internal/palette"
	"flora-advisor/internal/photos"
	"flora-advisor/internal/ui"
)

// NoPlantsMessage is shown when every catalog query came back empty.
const NoPlantsMessage = "No plants found for the specified color scheme and criteria."

// Catalog is the part of the catalog client the advisor needs.
type Catalog interface {
	SpeciesList(ctx context.Context, q catalog.Query) (*catalog.Page, error)
}

// PhotoSearcher finds a picture for plants the catalog returned without one.
type PhotoSearcher interface {
	Enabled() bool
	Search(ctx context.Context, query string, perPage int) ([]photos.Photo, error)
}

// Options tunes an Advisor.
type Options struct {
	DefaultCount     int
	MaxCount         int
	PhotoConcurrency int
}

// Result is one completed recommendation.
type Result struct {
	ID        string          `json:"id"`
	Request   Request         `json:"request"`
	BaseColor string          `json:"base_color"`
	Scheme    string          `json:"scheme"`
	Colors    []string        `json:"colors"`
	Plants    []catalog.Plant `json:"plants"`
	Stats     Stats           `json:"stats"`
	CreatedAt time.Time       `json:"created_at"`
}

// Advisor runs recommendations against a catalog.
type Advisor struct {
	catalog Catalog
	photos  PhotoSearcher
	opts    Options
	now     func() time.Time
}

// New creates an Advisor. photoSearch may be nil.
func New(cat Catalog, photoSearch PhotoSearcher, opts Options) *Advisor {
	if opts.DefaultCount <= 0 {
		opts.DefaultCount = 10
	}
	if opts.MaxCount <= 0 {
		opts.MaxCount = 20
	}
	if opts.PhotoConcurrency <= 0 {
		opts.PhotoConcurrency = 4
	}
	return &Advisor{catalog: cat, photos: photoSearch, opts: opts, now: time.Now}
}

// Criteria validates req with the advisor's count limits.
func (a *Advisor) Criteria(req Request) (Criteria, error) {
	return req.Criteria(a.opts.DefaultCount, a.opts.MaxCount)
}

// Recommend validates req, derives the flower colors and queries the catalog
// once per color, in derived order. Every plant is tagged with the color
// that found it.
func (a *Advisor) Recommend(ctx context.Context, req Request) (*Result, error) {
	crit, err := a.Criteria(req)
	if err != nil {
		return nil, err
	}

	start := a.now()
	colors := palette.Derive(crit.Base, crit.Scheme)

	var plants []catalog.Plant
	for _, c := range colors {
		ui.LogStatus("debug", "Querying catalog for flower color #"+c.Hex())
		page, err := a.catalog.SpeciesList(ctx, crit.Query(c))
		if err != nil {
			return nil, fmt.Errorf("query flower color %s: %w", c.Hex(), err)
		}
		for _, p := range page.Plants {
			p.QueryColor = c.Hex()
			plants = append(plants, p)
		}
	}

	a.attachPhotos(ctx, plants)

	res := &Result{
		ID:        uuid.NewString(),
		Request:   crit.Request(),
		BaseColor: crit.Base.Hex(),
		Scheme:    crit.Scheme.Label(),
		Colors:    colors.Hex(),
		Plants:    plants,
		Stats:     ComputeStats(plants),
		CreatedAt: start,
	}
	if res.Plants == nil {
		res.Plants = []catalog.Plant{}
	}

	ui.LogSearch(res.BaseColor, res.Scheme, res.Colors, len(plants), a.now().Sub(start))
	return res, nil
}

// attachPhotos fills in images for plants that have none. Lookups run with
// bounded concurrency; failures leave the plant without an image.
func (a *Advisor) attachPhotos(ctx context.Context, plants []catalog.Plant) {
	if a.photos == nil || !a.photos.Enabled() {
		return
	}

	var g errgroup.Group
	g.SetLimit(a.opts.PhotoConcurrency)

	for i := range plants {
		p := &plants[i]
		if p.HasImage() || p.CommonName == catalog.NotAvailable {
			continue
		}
		g.Go(func() error {
			hits, err := a.photos.Search(ctx, p.CommonName+" plant", 1)
			if err != nil {
				ui.LogStatus("warn", "Photo lookup failed for "+p.CommonName+": "+err.Error())
				return nil
			}
			if len(hits) == 0 {
				return nil
			}
			p.ImageURL = hits[0].URL
			p.ThumbnailURL = hits[0].ThumbURL
			if credit := hits[0].Photographer; credit != photos.NotAvailable {
				p.ImageCredit = credit
			}
			return nil
		})
	}
	_ = g.Wait()
}
