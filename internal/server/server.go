// Package server exposes the report views of a cleaned record set as a
// read-only JSON API. Every request recomputes its view over the in-memory
// records, so query filters never touch shared state.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"tmdbetl/internal/analytics"
	"tmdbetl/internal/config"
	"tmdbetl/internal/metrics"
	"tmdbetl/internal/movie"
)

// shutdownTimeout bounds how long in-flight requests may finish on stop.
const shutdownTimeout = 10 * time.Second

// Server serves one record set.
type Server struct {
	movies   []movie.Movie
	opts     analytics.Options
	base     analytics.Filter
	cfg      config.Server
	log      *slog.Logger
	validate *validator.Validate
	limiter  *rate.Limiter
	scrape   http.Handler
}

// New returns a Server over movies. scrape, when non-nil, is mounted at
// /metrics. cfg supplies the view thresholds, the default filter and the
// rate limit.
func New(movies []movie.Movie, cfg config.Pipeline, scrape http.Handler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	rps, burst := cfg.Server.RPS, cfg.Server.Burst
	if rps <= 0 {
		rps = config.DefaultServerRPS
	}
	if burst <= 0 {
		burst = config.DefaultServerBurst
	}
	return &Server{
		movies:   movies,
		opts:     analytics.OptionsFrom(cfg.Report, cfg.Clean),
		base:     analytics.FilterFrom(cfg.Report),
		cfg:      cfg.Server,
		log:      log.With("component", "server"),
		validate: newValidator(),
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		scrape:   scrape,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) { writeError(w, r, errNotFound) })
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) { writeError(w, r, errMethod) })

	r.Get("/health", s.health)
	if s.scrape != nil {
		r.Method(http.MethodGet, "/metrics", s.scrape)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(s.requireData)

		r.Get("/kpis", s.kpis)
		r.Get("/genres", s.genres)
		r.Get("/genres/roi", s.genresByROI)
		r.Get("/years", s.years)
		r.Get("/directors", s.directors)
		r.Get("/actors", s.actors)
		r.Get("/countries", s.countries)
		r.Get("/countries/ratings", s.countryRatings)
		r.Get("/correlation", s.correlation)
	})
	return r
}

// ListenAndServe serves on cfg.Addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.cfg.Addr, "movies", len(s.movies))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// observe logs each request and reports it to the metrics facade, labelled
// by route pattern. Requests no route matched share one label.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		took := time.Since(start)
		metrics.RecordRequest(route, status, took)
		s.log.DebugContext(r.Context(), "request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"took", took,
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.log.WarnContext(r.Context(), "rate limit exceeded",
				"path", r.URL.Path, "remote_addr", r.RemoteAddr)
			w.Header().Set("Retry-After", "1")
			writeError(w, r, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireData(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.movies) == 0 {
			writeError(w, r, errNoData)
			return
		}
		next.ServeHTTP(w, r)
	})
}
