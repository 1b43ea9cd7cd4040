// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"dailyexpense/internal/cache"
	"dailyexpense/internal/log"
	"dailyexpense/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the API serves from. Backups, Reports and Pinger
// may be nil; the matching endpoints then answer 503.
type Deps struct {
	Ledger    *services.LedgerService
	Dashboard *services.Dashboard
	Backups   *services.BackupService
	Reports   *services.ReportService
	Pinger    Pinger
	Logger    *log.Logger

	CacheSize int
	CacheTTL  time.Duration
}

type Server struct {
	http.Server
	ledger    *services.LedgerService
	dashboard *services.Dashboard
	backups   *services.BackupService
	reports   *services.ReportService
	pinger    Pinger

	rateLimiter *rateLimiter
	metrics     *securityMetrics

	// category breakdowns keyed by snapshot version, so a write never
	// serves a stale entry
	categoryCache *cache.LRUCache[categoryView]
	cacheManager  *cache.Manager

	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	size, ttl := deps.CacheSize, deps.CacheTTL
	if size < 1 {
		size = 64
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	s := &Server{
		ledger:        deps.Ledger,
		dashboard:     deps.Dashboard,
		backups:       deps.Backups,
		reports:       deps.Reports,
		pinger:        deps.Pinger,
		rateLimiter:   newRateLimiter(writeLimitPerMinute),
		metrics:       &securityMetrics{},
		categoryCache: cache.NewLRUCache[categoryView](size, ttl),
		cacheManager:  cache.NewManager(),
		startedAt:     time.Now(),
	}
	s.cacheManager.Register(s.categoryCache)
	s.cacheManager.StartCleanup(context.Background(), ttl)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/period", s.handlePeriodTransactions)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/categories", s.handleCategories)

	mux.HandleFunc("GET /api/notes", s.handleListNotes)
	mux.HandleFunc("POST /api/notes", s.handleCreateNote)
	mux.HandleFunc("DELETE /api/notes/{id}", s.handleDeleteNote)

	mux.HandleFunc("POST /api/calculator", s.handleCalculator)
	mux.HandleFunc("POST /api/backup/export", s.handleBackupExport)
	mux.HandleFunc("POST /api/backup/import", s.handleBackupImport)
	mux.HandleFunc("POST /api/report", s.handleReport)

	var handler http.Handler = s.withSecurity(mux)
	handler = log.RequestIDMiddleware(requestIDFrom)(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops background cleanups and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := map[string]string{"database": "not_configured"}
	if s.pinger != nil {
		if err := s.pinger.Ping(ctx); err != nil {
			checks["database"] = "failed: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]any{
		"status":       state,
		"checks":       checks,
		"version":      s.ledger.Snapshot().Version,
		"cache_size":   s.categoryCache.Size(),
		"rate_limited": s.metrics.rateLimited(),
	})
}
