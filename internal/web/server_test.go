package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"flora-advisor/internal/advisor"
	"flora-advisor/internal/auth"
	"flora-advisor/internal/catalog"
	"flora-advisor/internal/config"
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

func newTestServer(t *testing.T, cat *fakeCatalog, mutate func(*Options)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Env = &config.EnvConfig{AllowedOrigin: "*"}
	opts := Options{
		Config:  cfg,
		Advisor: advisor.New(cat, nil, advisor.Options{DefaultCount: cfg.DefaultCount, MaxCount: cfg.MaxCount}),
	}
	if mutate != nil {
		mutate(&opts)
	}
	return NewServer(opts)
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var e apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	return e
}

var rosePlants = map[string][]catalog.Plant{
	"ff0000": {
		{CommonName: "Rose", ScientificName: "Rosa", FlowerColor: "Red", ImageURL: "https://img.test/rose.jpg", ThumbnailURL: "https://img.test/rose-t.jpg"},
		{CommonName: "Poppy", ScientificName: "Papaver", FlowerColor: "Red"},
	},
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{}, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `value="#ff0000"`)
	assert.Contains(t, body, `value="Similar" checked`)
	assert.Contains(t, body, `<option value="Full Sun">Full Sun</option>`)
}

func TestSearchRendersResults(t *testing.T) {
	cat := &fakeCatalog{byColor: rosePlants}
	s := newTestServer(t, cat, nil)

	form := url.Values{"house_color": {"#FF0000"}, "scheme": {"Similar"}, "count": {"5"}, "sun_level": {"full sun"}}
	rec := do(t, s.Handler(), http.MethodPost, "/search", strings.NewReader(form.Encode()))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Similar flowers for #ff0000")
	assert.Contains(t, body, "<td>Rose</td>")
	assert.Contains(t, body, "No image available")
	assert.Contains(t, body, "4.5</strong>")
	assert.Contains(t, body, `<option value="Full Sun" selected>`)

	require.Len(t, cat.queries, 1)
	assert.Equal(t, "Full Sun", cat.queries[0].SunLevel)
	assert.Equal(t, 5, cat.queries[0].Limit)
	assert.Equal(t, 1, s.store.Len())
}

func TestSearchNoPlants(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{}, nil)
	form := url.Values{"house_color": {"#123456"}, "scheme": {"Analogous"}}
	rec := do(t, s.Handler(), http.MethodPost, "/search", strings.NewReader(form.Encode()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), advisor.NoPlantsMessage)
}

func TestSearchValidationError(t *testing.T) {
	cat := &fakeCatalog{}
	s := newTestServer(t, cat, nil)

	form := url.Values{"house_color": {"not-a-color"}, "scheme": {"Similar"}}
	rec := do(t, s.Handler(), http.MethodPost, "/search", strings.NewReader(form.Encode()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "house_color")
	assert.Empty(t, cat.queries)

	form = url.Values{"house_color": {"#ff0000"}, "count": {"many"}}
	rec = do(t, s.Handler(), http.MethodPost, "/search", strings.NewReader(form.Encode()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "count: must be a whole number")
}

func TestSearchUpstreamError(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{err: &catalog.APIError{StatusCode: 401}}, nil)
	form := url.Values{"house_color": {"#ff0000"}}
	rec := do(t, s.Handler(), http.MethodPost, "/search", strings.NewReader(form.Encode()))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "PERENUAL_API_KEY")
	assert.Equal(t, int64(1), s.stats.Snapshot(0).Errors)
}

func TestAPIColors(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{}, nil)

	tests := []struct {
		name   string
		target string
		want   map[string]interface{}
	}{
		{"complementary", "/api/colors?base=%23ff0000&scheme=Complementary",
			map[string]interface{}{"base": "ff0000", "scheme": "Complementary", "colors": []interface{}{"00ffff"}}},
		{"analogous", "/api/colors?base=000000&scheme=analogous",
			map[string]interface{}{"base": "000000", "scheme": "Analogous", "colors": []interface{}{"1e1e1e", "e2e2e2"}}},
		{"default scheme", "/api/colors?base=0a0a0a",
			map[string]interface{}{"base": "0a0a0a", "scheme": "Similar", "colors": []interface{}{"0a0a0a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s.Handler(), http.MethodGet, tt.target, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			var got map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	rec := do(t, s.Handler(), http.MethodGet, "/api/colors?base=zz", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_color", decodeError(t, rec).Error)

	rec = do(t, s.Handler(), http.MethodGet, "/api/colors?base=ff0000&scheme=Triadic", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_scheme", decodeError(t, rec).Error)
}

func TestAPIRecommendations(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{byColor: rosePlants}, nil)

	rec := do(t, s.Handler(), http.MethodGet, "/api/recommendations?house_color=ff0000&scheme=Similar", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res advisor.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, []string{"ff0000"}, res.Colors)
	require.Len(t, res.Plants, 2)
	assert.Equal(t, "ff0000", res.Plants[1].QueryColor)
	assert.Equal(t, 2, res.Stats.Count)

	rec = do(t, s.Handler(), http.MethodGet, "/api/recommendations?house_color=ff0000&count=99", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec).Error)
}

func TestAPIRecommendationsUpstreamErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"forbidden", &catalog.APIError{StatusCode: 403}, "catalog_unauthorized"},
		{"server error", &catalog.APIError{StatusCode: 500}, "catalog_error"},
		{"missing key", catalog.ErrMissingAPIKey, "catalog_unconfigured"},
		{"transport", errors.New("dial tcp: refused"), "upstream_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeCatalog{err: tt.err}, nil)
			rec := do(t, s.Handler(), http.MethodGet, "/api/recommendations?house_color=ff0000", nil)
			assert.Equal(t, http.StatusBadGateway, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Error)
		})
	}
}

func TestResultArtifacts(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{byColor: rosePlants}, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/api/recommendations?house_color=ff0000", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res advisor.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	for _, name := range []string{"names.png", "palette.png"} {
		rec := do(t, s.Handler(), http.MethodGet, "/results/"+res.ID+"/"+name, nil)
		require.Equal(t, http.StatusOK, rec.Code, name)
		assert.Equal(t, contentTypePNG, rec.Header().Get("Content-Type"))
		_, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
		assert.NoError(t, err, name)
	}

	rec = do(t, s.Handler(), http.MethodGet, "/results/"+res.ID+"/plants.csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="plants.csv"`, rec.Header().Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "Rose,Rosa,"))

	rec = do(t, s.Handler(), http.MethodGet, "/results/"+res.ID+"/plants.xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Plants")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestUnknownResult(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{}, nil)
	for _, name := range []string{"names.png", "palette.png", "plants.csv", "plants.xlsx"} {
		rec := do(t, s.Handler(), http.MethodGet, "/results/nope/"+name, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, name)
		assert.Equal(t, "not_found", decodeError(t, rec).Error)
	}
}

func TestStatsHealthAndCORS(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{byColor: rosePlants}, nil)
	do(t, s.Handler(), http.MethodGet, "/api/recommendations?house_color=ff0000", nil)

	rec := do(t, s.Handler(), http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	var stats StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(1), stats.TotalSearches)
	assert.Equal(t, int64(2), stats.PlantsServed)
	assert.Equal(t, 1, stats.StoredResults)
	assert.InDelta(t, 100.0, stats.SuccessRate, 1e-9)

	rec = do(t, s.Handler(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, s.Handler(), http.MethodOptions, "/api/colors", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s.Handler(), http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBasicAuthAndRateLimit(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	users := &auth.UserStore{}
	require.NoError(t, users.Load(auth.UsersConfig{Users: []auth.User{{Username: "ada", PasswordHash: string(hash), Enabled: true}}}))

	s := newTestServer(t, &fakeCatalog{}, func(o *Options) {
		o.Users = users
		o.Limiter = auth.NewIPRateLimiter(auth.PerMinute(60), 3)
	})
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "health is not behind auth")

	rec = do(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth("ada", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "bucket of three is spent")
}

func TestResultStore(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	st := NewResultStore(2, time.Minute)
	st.now = func() time.Time { return now }

	st.Put(&advisor.Result{ID: "a"})
	st.Put(&advisor.Result{ID: "b"})
	st.Put(&advisor.Result{ID: "c"})

	_, ok := st.Get("a")
	assert.False(t, ok, "oldest entry is evicted")
	_, ok = st.Get("c")
	assert.True(t, ok)

	now = now.Add(30 * time.Second)
	st.Put(&advisor.Result{ID: "b"})
	now = now.Add(45 * time.Second)

	_, ok = st.Get("c")
	assert.False(t, ok, "entries expire after the ttl")
	_, ok = st.Get("b")
	assert.True(t, ok, "re-stored entries get a fresh ttl")
	assert.Equal(t, 1, st.Len())
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, &fakeCatalog{}, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
