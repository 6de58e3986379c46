// Package server exposes the suggestion engine over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Veraticus/geospice/internal/metrics"
	"github.com/Veraticus/geospice/internal/model"
	"github.com/Veraticus/geospice/internal/suggest"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Suggester produces category suggestions.
type Suggester interface {
	Evaluate(ctx context.Context, tc model.TransactionContext) (suggest.Report, error)
	SuggestForLocation(ctx context.Context, q model.Query, history []model.Expense) (suggest.Report, error)
}

// Options configures a Server.
type Options struct {
	Logger   *slog.Logger
	Metrics  *metrics.Collector
	Gatherer prometheus.Gatherer
	// Now is the rate limiter's clock.
	Now          func() time.Time
	Version      string
	RateLimit    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP boundary in front of a Suggester.
type Server struct {
	engine   Suggester
	logger   *slog.Logger
	metrics  *metrics.Collector
	gatherer prometheus.Gatherer
	limiter  *rateLimiter
	version  string
	read     time.Duration
	write    time.Duration
}

// New creates a server. A nil Gatherer disables /metrics.
func New(engine Suggester, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 60 * time.Second
	}
	return &Server{
		engine:   engine,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		gatherer: opts.Gatherer,
		limiter:  newRateLimiter(opts.RateLimit, opts.Now),
		version:  opts.Version,
		read:     opts.ReadTimeout,
		write:    opts.WriteTimeout,
	}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/categories", s.handleCategories)
		r.Post("/suggest-category", s.handleSuggestCategory)
		r.Post("/suggest", s.handleSuggest)
	})

	return r
}

// Run serves on addr until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: s.read,
		ReadTimeout:       s.read,
		WriteTimeout:      s.write,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("Shutting down server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.ObserveRequest(route, status)
		s.logger.Debug("Request served",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ok, retryAfter := s.limiter.tryAcquire(); !ok {
			s.metrics.ObserveRateLimited()
			seconds := int(retryAfter.Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{
				Error:   msgRateLimited,
				Details: fmt.Sprintf("retry in %ds", seconds),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
