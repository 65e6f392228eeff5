// Package server exposes the profiler over HTTP: uploads start background
// profiling jobs whose results, column details, insights and reports are
// then served by job id.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/KaramelBytes/tdprofiler/internal/analysis"
	"github.com/KaramelBytes/tdprofiler/internal/insights"
	"github.com/KaramelBytes/tdprofiler/internal/jobs"
	"github.com/KaramelBytes/tdprofiler/internal/logger"
	"github.com/KaramelBytes/tdprofiler/internal/middleware"
)

const (
	defaultMaxUpload = 50 << 20
	shutdownTimeout  = 10 * time.Second
	// estimatedSeconds is the fixed hint returned by the upload endpoint.
	estimatedSeconds = 5
)

// Config holds the listener and request limits.
type Config struct {
	Addr           string
	MaxUploadBytes int64
	TrustProxy     bool
}

// Deps are the collaborators a Server drives. Nil fields get defaults,
// except Insights which disables the insights endpoint's model access.
type Deps struct {
	Jobs     *jobs.Store
	Limiter  *middleware.Limiter
	Profiler *analysis.Profiler
	Insights *insights.Generator
	Logger   *logger.Logger
}

// Server is the HTTP API.
type Server struct {
	cfg      Config
	jobs     *jobs.Store
	limiter  *middleware.Limiter
	profiler *analysis.Profiler
	insights *insights.Generator
	log      *logger.Logger
	router   chi.Router

	// background tracks in-flight profiling goroutines.
	background sync.WaitGroup
}

// New wires a Server.
func New(cfg Config, d Deps) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8000"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUpload
	}
	if d.Jobs == nil {
		d.Jobs = jobs.NewStore(jobs.DefaultTTL)
	}
	if d.Limiter == nil {
		d.Limiter = middleware.NewLimiter(middleware.DefaultLimits())
	}
	if d.Profiler == nil {
		d.Profiler = analysis.New(analysis.DefaultOptions())
	}
	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	s := &Server{
		cfg:      cfg,
		jobs:     d.Jobs,
		limiter:  d.Limiter,
		profiler: d.Profiler,
		insights: d.Insights,
		log:      d.Logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	clientIP := func(r *http.Request) string { return middleware.ClientIP(r, s.cfg.TrustProxy) }

	r.Get("/", s.handleRoot)
	r.Route("/api", func(r chi.Router) {
		r.With(s.limiter.Middleware(middleware.ActionUpload, clientIP)).Post("/upload", s.handleUpload)
		r.Get("/profile/{job_id}", s.handleProfile)
		r.Get("/profile/{job_id}/column/{column_name}", s.handleColumn)
		r.With(s.limiter.Middleware(middleware.ActionInsights, clientIP)).Get("/insights/{job_id}", s.handleInsights)
		r.Get("/report/{job_id}", s.handleReport)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Wait blocks until all background profiling jobs have finished.
func (s *Server) Wait() { s.background.Wait() }

// Run serves on cfg.Addr until ctx is cancelled, then shuts down gracefully
// and waits for running profiling jobs.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("http api listening", "addr", ln.Addr().String())
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down http api")
	err := srv.Shutdown(shutdownCtx)
	s.Wait()
	if err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs one line per request with status and latency.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.WithRequest(middleware.RequestIDFromContext(r.Context())).Infow("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}
