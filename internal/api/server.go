package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kjannette/market-data-fetcher/internal/models"
)

const maxQueryLimit = 500

var dateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// HistoryReader is the read side of the snapshot archive.
type HistoryReader interface {
	Ping(ctx context.Context) error
	Latest(ctx context.Context) (*models.SnapshotRecord, error)
	Recent(ctx context.Context, limit int) ([]models.SnapshotRecord, error)
	ByDay(ctx context.Context, day string) ([]models.SnapshotRecord, error)
	AvailableDays(ctx context.Context) ([]string, error)
}

type Options struct {
	Port       int
	CORSOrigin string
	// History is nil when archiving is disabled.
	History HistoryReader
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Logger  logrus.FieldLogger
}

type Server struct {
	outputPath string
	history    HistoryReader
	httpServer *http.Server
	log        logrus.FieldLogger
}

// NewServer serves the snapshot file at outputPath and, when enabled, its history.
func NewServer(outputPath string, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		outputPath: outputPath,
		history:    opts.History,
		log:        log.WithField("component", "api"),
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      corsMiddleware(s.routes(opts.Metrics), opts.CORSOrigin),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(metrics http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	// Snapshot
	mux.HandleFunc("GET /v1/market-data", s.handleMarketData)

	// History
	mux.HandleFunc("GET /v1/market-data/history", s.handleHistoryRecent)
	mux.HandleFunc("GET /v1/market-data/history/day/{date}", s.handleHistoryByDay)
	mux.HandleFunc("GET /v1/market-data/history/days", s.handleHistoryDays)

	mux.HandleFunc("GET /health", s.handleHealth)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return mux
}

// Handler returns the full handler chain.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.log.Infof("REST API server started on http://localhost%s", s.httpServer.Addr)
	s.log.Infof("health check: http://localhost%s/health", s.httpServer.Addr)
	if s.history == nil {
		s.log.Info("history endpoints disabled")
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- validation helpers ---

func validateDate(date string) bool {
	if !dateRegexp.MatchString(date) {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
