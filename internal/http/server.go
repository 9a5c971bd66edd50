// Package http exposes the ledger and the aggregation engine as a JSON
// API: CRUD over categories and expenses plus the four derived report
// views.
package http

import (
	"encoding/json"
	"net/http"
	"time"

	"tally/internal/budget"
	"tally/internal/ledger"
	"tally/internal/log"
	"tally/internal/services"
)

type Server struct {
	*http.Server
	store   ledger.Store
	engine  *budget.Engine
	service *services.ExpenseService
	logger  *log.Logger
	started time.Time
}

func NewServer(addr string, store ledger.Store, engine *budget.Engine, service *services.ExpenseService, logger *log.Logger) *Server {
	s := &Server{
		store:   store,
		engine:  engine,
		service: service,
		logger:  logger.WithComponent(log.ComponentHTTP),
		started: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)

	mux.HandleFunc("/api/items", s.handleItems)
	mux.HandleFunc("/api/reports/months", s.handleMonths)
	mux.HandleFunc("/api/reports/categories", s.handleCategoryReport)
	mux.HandleFunc("/api/reports/pivot", s.handlePivot)
	mux.HandleFunc("/api/integrity", s.handleIntegrity)

	mux.HandleFunc("/api/expenses", s.handleExpenses)
	mux.HandleFunc("/api/expenses/", s.handleExpenseByID)
	mux.HandleFunc("/api/categories", s.handleCategories)
	mux.HandleFunc("/api/categories/", s.handleCategoryByID)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: s.withLogging(mux),
	}
	return s
}

// withLogging logs every request with method, path, status and duration.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.InfoContext(r.Context(), "request",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, sw.status,
			log.FieldDuration, time.Since(start).Milliseconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}
