package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bighogz/insider-monitor/internal/dashboard"
	"github.com/bighogz/insider-monitor/internal/models"
	"github.com/bighogz/insider-monitor/internal/snapshot"
)

// refresher rebuilds and persists both snapshots.
type refresher interface {
	Refresh(ctx context.Context, w dashboard.SnapshotWriter, symbols []string) (models.StocksSnapshot, models.RecommendationsSnapshot, error)
}

type server struct {
	store      *snapshot.Store
	builder    refresher
	sourceName string
	symbols    []string
	staticDir  string
	adminKey   string
	debounce   time.Duration
	limiter    *rateLimiter
	log        *slog.Logger
	now        func() time.Time
	// baseCtx bounds background rebuilds. Defaults to context.Background.
	baseCtx context.Context
	// onRefreshed runs after every completed rebuild. Optional.
	onRefreshed func(ctx context.Context, stocks *models.StocksSnapshot, recs *models.RecommendationsSnapshot)

	refreshMu     sync.Mutex
	refreshing    bool
	lastRefreshAt time.Time
	wg            sync.WaitGroup
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", securityHeaders(s.serveIndex))
	mux.HandleFunc("/static/", securityHeaders(s.serveStatic))
	mux.HandleFunc("/api/stocks", securityHeaders(methodOnly(http.MethodGet, s.serveSnapshot(snapshot.StocksFile))))
	mux.HandleFunc("/api/recommendations", securityHeaders(methodOnly(http.MethodGet, s.serveSnapshot(snapshot.RecommendationsFile))))
	mux.HandleFunc("/api/meta", securityHeaders(methodOnly(http.MethodGet, s.handleMeta)))
	mux.HandleFunc("/api/refresh", securityHeaders(methodOnly(http.MethodPost, adminOrRateLimit(s.adminKey, s.limiter, s.handleRefresh))))
	mux.HandleFunc("/api/health", securityHeaders(s.handleHealth))
	return mux
}

func (s *server) serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	for _, name := range []string{"dashboard.html", "index.html"} {
		p := filepath.Join(s.staticDir, name)
		if _, err := os.Stat(p); err == nil {
			http.ServeFile(w, r, p)
			return
		}
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "Frontend not found."})
}

func (s *server) serveStatic(w http.ResponseWriter, r *http.Request) {
	subpath := strings.TrimPrefix(r.URL.Path, "/static/")
	subpath = strings.TrimPrefix(subpath, "/")
	if subpath == "" || strings.Contains(subpath, "..") {
		http.NotFound(w, r)
		return
	}
	path := safeStaticPath(s.staticDir, subpath)
	if path == "" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}

// serveSnapshot writes the stored file as-is. A missing file kicks off a
// rebuild and answers 503.
func (s *server) serveSnapshot(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := s.store.Raw(name)
		if errors.Is(err, os.ErrNotExist) {
			s.startRefresh()
			jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
				"error": "Data is being prepared. Check back in a few minutes.",
			})
			return
		}
		if err != nil {
			s.log.Error("snapshot read failed", "file", name, "error", err)
			jsonResponse(w, http.StatusInternalServerError, map[string]string{"error": "snapshot unavailable"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(body)
	}
}

func (s *server) handleMeta(w http.ResponseWriter, r *http.Request) {
	s.refreshMu.Lock()
	refreshing := s.refreshing
	s.refreshMu.Unlock()

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"stocks_updated":          formatTime(s.store.LastUpdate(snapshot.StocksFile)),
		"recommendations_updated": formatTime(s.store.LastUpdate(snapshot.RecommendationsFile)),
		"source":                  s.sourceName,
		"refreshing":              refreshing,
	})
}

func (s *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.startRefresh() {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "refresh skipped: ran recently or still running"})
		return
	}
	jsonResponse(w, http.StatusAccepted, map[string]string{"status": "refresh started"})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// startRefresh launches a background rebuild unless one is running or the
// last one started within the debounce window.
func (s *server) startRefresh() bool {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	now := s.now()
	if s.refreshing || (!s.lastRefreshAt.IsZero() && now.Sub(s.lastRefreshAt) < s.debounce) {
		return false
	}
	s.refreshing = true
	s.lastRefreshAt = now
	s.wg.Add(1)
	ctx := s.baseCtx
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		defer s.wg.Done()
		s.refresh(ctx)
	}()
	return true
}

func (s *server) refresh(ctx context.Context) {
	defer func() {
		s.refreshMu.Lock()
		s.refreshing = false
		s.refreshMu.Unlock()
	}()

	start := time.Now()
	stocks, recs, err := s.builder.Refresh(ctx, s.store, s.symbols)
	if err != nil {
		s.log.Error("refresh failed", "error", err)
		return
	}
	s.log.Info("refresh complete",
		"symbols", len(stocks.Stocks),
		"buy", len(recs.Recommendations.Buy),
		"sell", len(recs.Recommendations.Sell),
		"elapsed", time.Since(start).Round(time.Millisecond))
	if s.onRefreshed != nil {
		s.onRefreshed(ctx, &stocks, &recs)
	}
}

// wait blocks until background refreshes finish.
func (s *server) wait() { s.wg.Wait() }

func formatTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	f := t.UTC().Format(time.RFC3339)
	return &f
}

func jsonResponse(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
