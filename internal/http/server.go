package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"

	"ledger/internal/cache"
	"ledger/internal/ledger"
	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	"ledger/internal/report"
)

const (
	maxBodyBytes       = 1 << 20
	reportCacheTTL     = 30 * time.Minute
	cacheCleanupPeriod = 10 * time.Minute
	readinessTimeout   = 2 * time.Second
)

// Options configures NewServer. Zero values fall back to defaults.
type Options struct {
	Addr               string
	CORSOrigins        []string
	RateLimitPerMinute int
	ReportCacheSize    int
	Logger             *log.Logger
}

// Server is the JSON API over a ledger store.
type Server struct {
	http.Server
	store  ledger.Store
	logger *log.Logger

	render  func(report.Input) ([]byte, error)
	reports *cache.LRUCache[[]byte]
	caches  *cache.Manager
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	now     func() time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// Call Shutdown to stop it and its background cleanup goroutines.
func NewServer(store ledger.Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.FromContext(context.Background()).WithComponent(log.ComponentHTTP)
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.ReportCacheSize <= 0 {
		opts.ReportCacheSize = 16
	}

	detector := security.NewDetector()
	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		store:   store,
		logger:  logger,
		render:  report.Render,
		reports: cache.NewLRUCache[[]byte](opts.ReportCacheSize, reportCacheTTL),
		caches:  cache.NewManager(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:  trace.NewMiddleware(detector.ExtractClientIP),
		now:     time.Now,
	}
	s.caches.Register(s.reports)
	s.caches.StartCleanup(cacheCleanupPeriod)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api", s.handleRoot)
	mux.HandleFunc("GET /api/{$}", s.handleRoot)
	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/analytics", s.handleAnalytics)
	mux.HandleFunc("POST /api/reports/pdf", s.handleReportPDF)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition", trace.HeaderRequestID},
		AllowCredentials: true,
	})
	limited := s.limiter.Middleware(detector.ExtractClientIP, rateLimited, http.MethodPost, http.MethodDelete)

	var h http.Handler = mux
	h = limited(h)
	h = corsHandler.Handler(h)
	h = detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.Middleware(logger, trace.RequestIDFromRequest)(h)
	h = s.tracer.Middleware(h)
	s.Handler = h

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		stats := s.reports.Stats()
		s.logger.InfoContext(ctx, "Stopping HTTP server",
			"report_cache_hits", stats.Hits,
			"report_cache_misses", stats.Misses,
			"rate_limited", s.limiter.Rejected())
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// ReportCacheStats exposes report cache counters.
func (s *Server) ReportCacheStats() cache.Stats {
	return s.reports.Stats()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := s.store.Scan(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Detail: "Rate limit exceeded. Please try again later."})
}
