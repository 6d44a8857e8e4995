// Package api exposes the retriever over HTTP next to the health and
// Prometheus endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"findata-workers/internal/common/logger"
	"findata-workers/internal/models"
	"findata-workers/internal/retriever"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readyTimeout = 2 * time.Second

type Retriever interface {
	GetFinancialData(ctx context.Context, companyOrURL string, opts retriever.Options) *models.RetrievalResult
}

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

type Server struct {
	retriever Retriever
	checks    map[string]Check
	logger    logger.Logger
}

// New builds the API server. checks are run by /ready; a nil map means the
// service is always ready.
func New(r Retriever, checks map[string]Check, log logger.Logger) *Server {
	return &Server{retriever: r, checks: checks, logger: log}
}

// Routes returns a chi.Router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/v1/financial-data", s.getFinancialData)
	return r
}

func (s *Server) getFinancialData(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	company := strings.TrimSpace(q.Get("company"))
	if company == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'company' is required")
		return
	}

	var opts retriever.Options
	if v := q.Get("forceRefresh"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "forceRefresh must be a boolean")
			return
		}
		opts.ForceRefresh = b
	}
	if v := q.Get("timeoutMs"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			writeError(w, http.StatusBadRequest, "timeoutMs must be a positive integer")
			return
		}
		opts.Timeout = time.Duration(ms) * time.Millisecond
	}

	result := s.retriever.GetFinancialData(r.Context(), company, opts)
	s.logger.Info("financial data request served", map[string]interface{}{
		"requestId": result.RequestID,
		"httpReqId": middleware.GetReqID(r.Context()),
		"company":   result.CompanyName,
		"success":   result.Success,
		"cached":    result.Cached,
	})

	status := http.StatusOK
	if !result.Success {
		status = http.StatusNotFound
	}
	writeJSON(w, status, result)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	failed := map[string]string{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		s.logger.Warn("readiness check failed", map[string]interface{}{"failed": failed})
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not_ready",
			"failed": failed,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
