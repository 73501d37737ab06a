// Package web serves the garden planner's HTML form, results pages and JSON
// API.
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"flora-advisor/internal/advisor"
	"flora-advisor/internal/auth"
	"flora-advisor/internal/config"
	"flora-advisor/internal/ui"
)

// shutdownTimeout bounds how long in-flight requests may take to finish.
const shutdownTimeout = 30 * time.Second

// Options wires a Server.
type Options struct {
	Config  *config.Config
	Advisor *advisor.Advisor
	// Users enables basic auth when non-nil.
	Users *auth.UserStore
	// Limiter throttles requests per client IP when non-nil.
	Limiter *auth.IPRateLimiter
}

// Server is the HTTP front end.
type Server struct {
	cfg          *config.Config
	advisor      *advisor.Advisor
	store        *ResultStore
	stats        *StatsTracker
	router       chi.Router
	defaultCount int
	maxCount     int
}

// NewServer builds the router. It does not listen until Start.
func NewServer(opts Options) *Server {
	cfg := opts.Config
	s := &Server{
		cfg:          cfg,
		advisor:      opts.Advisor,
		store:        NewResultStore(cfg.Results.MaxEntries, cfg.ResultsTTL()),
		stats:        NewStatsTracker(),
		defaultCount: cfg.DefaultCount,
		maxCount:     cfg.MaxCount,
	}

	origin := ""
	if cfg.Env != nil {
		origin = cfg.Env.AllowedOrigin
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(instrument)
	r.Use(cors(origin))
	if opts.Limiter != nil {
		r.Use(auth.RateLimit(opts.Limiter))
	}

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		if opts.Users != nil {
			r.Use(auth.BasicAuth(opts.Users))
		}
		r.Use(middleware.Timeout(cfg.Timeout()))

		r.Get("/", s.handleIndex)
		r.Post("/search", s.handleSearch)

		r.Route("/api", func(r chi.Router) {
			r.Get("/colors", s.handleColors)
			r.Get("/recommendations", s.handleRecommendations)
			r.Get("/stats", s.handleStats)
		})

		r.Route("/results/{id}", func(r chi.Router) {
			r.Get("/names.png", s.handleNameChart)
			r.Get("/palette.png", s.handlePaletteChart)
			r.Get("/plants.csv", s.handleCSV)
			r.Get("/plants.xlsx", s.handleXLSX)
		})
	})

	r.NotFound(s.handleNotFound)
	s.router = r
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves until ctx is cancelled,
// then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	defer close(done)
	go s.stats.Run(done)

	ui.LogStatus("success", "Listening on http://"+displayAddr(ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	ui.LogStatus("warn", "Shutdown signal received...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	ui.LogStatus("success", "Served "+strconv.FormatInt(s.stats.Snapshot(0).TotalSearches, 10)+" searches")
	return nil
}

// cors sets CORS headers for origin and answers preflight requests. An empty
// origin disables the headers.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func displayAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" || host == "::" || host == "0.0.0.0" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}
