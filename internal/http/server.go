package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Options tune the server. Zero values give a permissive local setup.
type Options struct {
	Logger *applog.Logger
	// RateLimitPerMinute of 0 disables rate limiting.
	RateLimitPerMinute int
	// AllowedOrigins enables CORS for the listed origins.
	AllowedOrigins []string
	SessionTTL     time.Duration
	CookieSecure   bool
}

type Server struct {
	http.Server
	svc         *services.LedgerService
	logger      *applog.Logger
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}

	s := &Server{
		svc:      svc,
		logger:   opts.Logger.WithComponent(applog.ComponentHTTP),
		detector: security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(opts.Logger, s.detector.ExtractClientIP)
	if opts.RateLimitPerMinute > 0 {
		s.rateLimiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(opts Options) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Recoverer)
	router.Use(s.tracer.Middleware)
	router.Use(applog.Middleware(opts.Logger))
	router.Use(applog.RequestIDMiddleware(trace.RequestIDFromRequest))
	router.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	router.Use(s.detector.Middleware)

	router.Get("/healthz", handleHealth)
	router.Get("/readyz", s.handleReady)

	router.Route("/api", func(r chi.Router) {
		if len(opts.AllowedOrigins) > 0 {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   opts.AllowedOrigins,
				AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
				AllowedHeaders:   []string{"Content-Type", trace.RequestIDHeader},
				ExposedHeaders:   []string{"Content-Disposition", trace.RequestIDHeader},
				AllowCredentials: true,
				MaxAge:           300,
			}))
		}
		if s.rateLimiter != nil {
			r.Use(s.rateLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
				ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w, r)
			}))
		}
		r.Use(security.NoStore)
		r.Use(sessionMiddleware(opts.SessionTTL, opts.CookieSecure))

		r.Get("/dashboard", s.handleDashboard)

		r.Route("/entries", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			r.Post("/", s.handleCreateEntry)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.With(middleware.AllowContentType("application/json")).Post("/{kind}", s.handleAddCategory)
			r.Delete("/{kind}/{index}", s.handleRemoveCategory)
		})

		r.Get("/transactions", s.handleTransactions)

		r.Route("/reports", func(r chi.Router) {
			r.Get("/years", s.handleReportYears)
			r.Get("/{year:[0-9]{4}}/{month:[0-9]{1,2}}", s.handleMonthlyReport)
		})

		r.Route("/export", func(r chi.Router) {
			r.Get("/csv", s.handleExportCSV)
			r.Get("/xlsx", s.handleExportXLSX)
		})

		r.With(middleware.AllowContentType("text/csv", "application/octet-stream")).
			Post("/import", s.handleImport)
	})

	return router
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics returns the request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w, r)
}

// handleReady reports whether the ledger can currently be loaded.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if _, err := s.svc.Load(ctx); err != nil {
		ServiceError(err).Write(w, r)
		return
	}
	NewJSONResponse().Body(map[string]string{"status": "ready"}).Write(w, r)
}
