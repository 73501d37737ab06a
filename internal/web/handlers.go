package web

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"flora-advisor/internal/advisor"
	"flora-advisor/internal/catalog"
	"flora-advisor/internal/chart"
	"flora-advisor/internal/export"
	"flora-advisor/internal/palette"
	"flora-advisor/internal/ui"
)

// ErrNotFound is returned for result IDs that are unknown or expired.
var ErrNotFound = errors.New("result not found or expired")

const (
	contentTypePNG  = "image/png"
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	renderHTML(w, http.StatusOK, s.newPage(advisor.Request{
		HouseColor: advisor.DefaultHouseColor,
		Scheme:     palette.Identity.Label(),
		Count:      s.defaultCount,
	}))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		p := s.newPage(advisor.Request{HouseColor: advisor.DefaultHouseColor, Scheme: palette.Identity.Label()})
		p.Error = "Could not read the form: " + err.Error()
		renderHTML(w, http.StatusBadRequest, p)
		return
	}

	req, err := requestFromValues(r.PostForm)
	if err == nil {
		var res *advisor.Result
		if res, err = s.recommend(r, req); err == nil {
			p := s.newPage(res.Request)
			p.Result = res
			renderHTML(w, http.StatusOK, p)
			return
		}
	}

	status, _, message := classify(err)
	p := s.newPage(req)
	p.Error = message
	renderHTML(w, status, p)
}

func (s *Server) handleColors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	label := q.Get("scheme")
	if label == "" {
		label = palette.Identity.Label()
	}

	base, err := palette.ParseHex(q.Get("base"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_color", err.Error())
		return
	}
	scheme, err := palette.ParseScheme(label)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_scheme", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"base":   base.Hex(),
		"scheme": scheme.Label(),
		"colors": palette.Derive(base, scheme).Hex(),
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	req, err := requestFromValues(r.URL.Query())
	if err == nil {
		var res *advisor.Result
		if res, err = s.recommend(r, req); err == nil {
			writeJSON(w, http.StatusOK, res)
			return
		}
	}

	status, code, message := classify(err)
	writeError(w, status, code, message)
}

// recommend runs a search and records its outcome.
func (s *Server) recommend(r *http.Request, req advisor.Request) (*advisor.Result, error) {
	res, err := s.advisor.Recommend(r.Context(), req)
	if err != nil {
		scheme := "unknown"
		if sc, perr := palette.ParseScheme(req.Scheme); perr == nil {
			scheme = sc.Label()
		}
		if advisor.IsValidation(err) {
			MetricSearches.WithLabelValues(scheme, "invalid").Inc()
			return nil, err
		}
		s.stats.RecordError()
		MetricSearches.WithLabelValues(scheme, "error").Inc()
		ui.LogStatus("error", "Search failed: "+err.Error())
		return nil, err
	}

	s.store.Put(res)
	s.stats.RecordSearch(len(res.Plants))
	MetricSearches.WithLabelValues(res.Scheme, "ok").Inc()
	MetricPlantsReturned.Observe(float64(len(res.Plants)))
	return res, nil
}

func (s *Server) handleNameChart(w http.ResponseWriter, r *http.Request) {
	s.withResult(w, r, func(res *advisor.Result) ([]byte, error) {
		return chart.NameLengthChart(res.Plants)
	}, contentTypePNG, "")
}

func (s *Server) handlePaletteChart(w http.ResponseWriter, r *http.Request) {
	s.withResult(w, r, func(res *advisor.Result) ([]byte, error) {
		base, err := palette.ParseHex(res.BaseColor)
		if err != nil {
			return nil, err
		}
		colors := make(palette.ColorSet, 0, len(res.Colors))
		for _, h := range res.Colors {
			c, err := palette.ParseHex(h)
			if err != nil {
				return nil, err
			}
			colors = append(colors, c)
		}
		return chart.PaletteChart(base, colors)
	}, contentTypePNG, "")
}

func (s *Server) handleCSV(w http.ResponseWriter, r *http.Request) {
	s.withResult(w, r, func(res *advisor.Result) ([]byte, error) {
		var buf bytes.Buffer
		err := export.WriteCSV(&buf, res.Plants)
		return buf.Bytes(), err
	}, contentTypeCSV, "plants.csv")
}

func (s *Server) handleXLSX(w http.ResponseWriter, r *http.Request) {
	s.withResult(w, r, func(res *advisor.Result) ([]byte, error) {
		var buf bytes.Buffer
		err := export.WriteXLSX(&buf, res.Plants)
		return buf.Bytes(), err
	}, contentTypeXLSX, "plants.xlsx")
}

// withResult looks up the {id} result, renders it with fn and writes the
// body in one piece.
func (s *Server) withResult(w http.ResponseWriter, r *http.Request, fn func(*advisor.Result) ([]byte, error), contentType, filename string) {
	res, err := s.lookup(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}

	body, err := fn(res)
	if err != nil {
		ui.LogStatus("error", "Render failed for result "+res.ID+": "+err.Error())
		writeError(w, http.StatusInternalServerError, "render_failed", "could not render result")
		return
	}
	writeBlob(w, contentType, filename, body)
}

func (s *Server) lookup(id string) (*advisor.Result, error) {
	res, ok := s.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return res, nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Snapshot(s.store.Len()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
}

// requestFromValues reads form or query values into a Request. Only the
// count needs parsing here; everything else is validated by the advisor.
func requestFromValues(v url.Values) (advisor.Request, error) {
	req := advisor.Request{
		HouseColor:     v.Get("house_color"),
		Scheme:         v.Get("scheme"),
		SunLevel:       v.Get("sun_level"),
		WaterFrequency: v.Get("water_frequency"),
		PlantCycle:     v.Get("plant_cycle"),
		GrowthRate:     v.Get("growth_rate"),
	}
	if req.Scheme == "" {
		req.Scheme = palette.Identity.Label()
	}
	if raw := strings.TrimSpace(v.Get("count")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, &advisor.ValidationError{Field: "count", Reason: "must be a whole number", Err: err}
		}
		req.Count = n
	}
	return req, nil
}

// classify maps an error to an HTTP status, an error code and a message that
// is safe to show.
func classify(err error) (int, string, string) {
	var apiErr *catalog.APIError
	switch {
	case advisor.IsValidation(err):
		return http.StatusBadRequest, "invalid_request", err.Error()
	case errors.Is(err, catalog.ErrMissingAPIKey):
		return http.StatusBadGateway, "catalog_unconfigured", "The plant catalog API key is not configured. Set PERENUAL_API_KEY."
	case errors.As(err, &apiErr) && apiErr.Unauthorized():
		return http.StatusBadGateway, "catalog_unauthorized", "The plant catalog rejected the API key. Check PERENUAL_API_KEY."
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, "catalog_error", "The plant catalog returned HTTP " + strconv.Itoa(apiErr.StatusCode) + "."
	default:
		return http.StatusBadGateway, "upstream_error", "Could not reach the plant catalog. Try again later."
	}
}
