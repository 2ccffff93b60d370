// Package http serves the dashboard JSON API, report charts, and the
// CSV/printable exports.
package http

import (
	"context"
	"net/http"
	"time"

	"finboard/internal/cache"
	logger "finboard/internal/log"
	"finboard/internal/middleware/ratelimit"
	"finboard/internal/middleware/trace"
	"finboard/internal/sheets"
)

type Server struct {
	http.Server

	store  Store
	events EventPublisher
	sheet  sheets.RowAppender
	log    *logger.Logger

	limiter *ratelimit.Limiter
	tracer  *trace.Middleware

	// Cached serialized report responses, invalidated on mutation.
	reportCache *cache.LRUCache[[]byte]
	cacheMgr    *cache.Manager
}

// Options tunes the serving layer. Zero values fall back to defaults.
type Options struct {
	ReportCacheSize int
	ReportCacheTTL  time.Duration
	RateLimit       ratelimit.Config
}

// NewServer configures routes and middleware, returning a ready-to-run
// server. events and sheet may be nil to disable messaging and the
// sheets export respectively.
func NewServer(addr string, store Store, events EventPublisher, sheet sheets.RowAppender, opts Options) *Server {
	if opts.ReportCacheSize <= 0 {
		opts.ReportCacheSize = 256
	}
	if opts.ReportCacheTTL <= 0 {
		opts.ReportCacheTTL = 30 * time.Second
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:       store,
		events:      events,
		sheet:       sheet,
		log:         logger.New(logger.DefaultConfig()).WithComponent(logger.ComponentHTTP),
		limiter:     ratelimit.NewLimiter(opts.RateLimit),
		tracer:      trace.NewMiddleware(extractClientIP),
		reportCache: cache.NewLRUCache[[]byte](opts.ReportCacheSize, opts.ReportCacheTTL),
		cacheMgr:    cache.NewManager(),
	}

	s.cacheMgr.Register(s.reportCache)
	s.cacheMgr.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)

	mux.HandleFunc("POST /api/accounts", s.guard(s.handleCreateAccount))
	mux.HandleFunc("GET /api/accounts", s.guard(s.handleListAccounts))
	mux.HandleFunc("GET /api/accounts/{id}", s.guard(s.handleGetAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.guard(s.handleDeleteAccount))

	mux.HandleFunc("POST /api/accounts/{id}/transactions", s.guard(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/accounts/{id}/transactions", s.guard(s.handleListTransactions))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.guard(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/accounts/{id}/summary", s.guard(s.handleAccountSummary))
	mux.HandleFunc("GET /api/reports", s.guard(s.handleReports))
	mux.HandleFunc("GET /api/reports/charts/monthly.png", s.guard(s.handleMonthlyChart))
	mux.HandleFunc("GET /api/reports/charts/categories.png", s.guard(s.handleCategoryChart))

	mux.HandleFunc("GET /api/accounts/{id}/export/csv", s.guard(s.handleExportCSV))
	mux.HandleFunc("GET /api/accounts/{id}/export/print", s.guard(s.handleExportPrint))
	mux.HandleFunc("POST /api/accounts/{id}/export/sheets", s.guard(s.handleExportSheets))

	return s
}

// guard wires tracing, security headers, and mutation rate limiting
// around a handler.
func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	traced := s.tracer.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if r.Method == http.MethodPost || r.Method == http.MethodDelete {
			if !s.limiter.Allow(extractClientIP(r)) {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
				return
			}
		}

		next(w, r)
	}))
	return traced.ServeHTTP
}

// invalidateReports drops cached report payloads touched by a mutation
// on the given account.
func (s *Server) invalidateReports(accountID string) {
	s.reportCache.DeletePrefix("account:" + accountID + ":")
	s.reportCache.DeletePrefix("reports:")
}

// Shutdown stops background cache cleanup and the rate limiter before
// draining in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cacheMgr.Stop()
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
