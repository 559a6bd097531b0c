// Package api exposes smart search over HTTP next to the health and metrics
// endpoints.
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"realestate-workers/internal/common/errors"
	"realestate-workers/internal/common/logger"
	"realestate-workers/internal/common/observability"
	"realestate-workers/internal/models"
	parsepropertyquery "realestate-workers/internal/workers/property/parse-property-query"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// QueryParser is satisfied by the parse-property-query handler.
type QueryParser interface {
	Execute(ctx context.Context, input *parsepropertyquery.Input) (*parsepropertyquery.Output, error)
}

// Searcher is satisfied by the catalog and index handlers.
type Searcher interface {
	Search(ctx context.Context, filters models.SearchFilters) (*models.SearchResult, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	RequestTimeout time.Duration
	// Backend names the searcher in metrics.
	Backend string
	// MaxBodyBytes caps the smart-search request body.
	MaxBodyBytes int64
}

const defaultMaxBodyBytes = 64 << 10

type Server struct {
	config   Config
	parser   QueryParser
	searcher Searcher
	checks   map[string]Pinger
	obs      *observability.Observability
	logger   logger.Logger
}

// NewServer wires the handlers. checks are pinged by /ready; obs may be nil.
func NewServer(cfg Config, parser QueryParser, searcher Searcher, checks map[string]Pinger,
	obs *observability.Observability, log logger.Logger) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Server{
		config:   cfg,
		parser:   parser,
		searcher: searcher,
		checks:   checks,
		obs:      obs,
		logger:   log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(Metrics())

	r.Get("/health", s.health)
	r.Get("/ready", s.ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.config.RequestTimeout))
		r.Post("/api/properties/smart-search", s.smartSearch)
	})
	return r
}

type smartSearchRequest struct {
	Query json.RawMessage `json:"query"`
}

type smartSearchResponse struct {
	Filters    models.SearchFilters `json:"filters"`
	Properties []models.Property    `json:"properties"`
	Total      int                  `json:"total"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) smartSearch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	var req smartSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.obs.RecordSearchRequest(ctx, s.config.Backend, "invalid", time.Since(start), 0)
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		s.reject(ctx, w, start, "invalid request body: "+err.Error())
		return
	}
	if len(req.Query) == 0 || string(req.Query) == "null" {
		s.reject(ctx, w, start, "query is required")
		return
	}
	var query string
	if err := json.Unmarshal(req.Query, &query); err != nil {
		s.reject(ctx, w, start, "query must be a string")
		return
	}

	parsed, err := s.parser.Execute(ctx, &parsepropertyquery.Input{Query: &query})
	if err != nil {
		if stdErr, ok := errors.As(err); ok && stdErr.Code == errors.ErrCodeInvalidSearchQuery {
			s.obs.RecordSearchRequest(ctx, s.config.Backend, "invalid", time.Since(start), 0)
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: stdErr.Details, Code: string(stdErr.Code)})
			return
		}
		s.failed(ctx, w, start, http.StatusInternalServerError, err)
		return
	}

	result, err := s.searcher.Search(ctx, parsed.Filters)
	if err != nil {
		s.failed(ctx, w, start, http.StatusBadGateway, err)
		return
	}

	properties := result.Properties
	if properties == nil {
		properties = []models.Property{}
	}
	s.obs.RecordSearchRequest(ctx, s.config.Backend, "ok", time.Since(start), len(properties))
	s.logger.Info("smart search served", map[string]interface{}{
		"requestId": middleware.GetReqID(ctx),
		"total":     result.Total,
		"empty":     parsed.Empty,
	})
	writeJSON(w, http.StatusOK, smartSearchResponse{
		Filters:    parsed.Filters,
		Properties: properties,
		Total:      result.Total,
	})
}

func (s *Server) reject(ctx context.Context, w http.ResponseWriter, start time.Time, msg string) {
	s.obs.RecordSearchRequest(ctx, s.config.Backend, "invalid", time.Since(start), 0)
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func (s *Server) failed(ctx context.Context, w http.ResponseWriter, start time.Time, status int, err error) {
	stdErr := errors.Normalize(err)
	s.obs.RecordSearchRequest(ctx, s.config.Backend, "error", time.Since(start), 0)
	s.logger.Error("smart search failed", map[string]interface{}{
		"requestId": middleware.GetReqID(ctx),
		"errorCode": stdErr.Code,
		"error":     err,
	})
	writeJSON(w, status, errorResponse{Error: stdErr.Message, Code: string(stdErr.Code)})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	code := http.StatusOK
	for name, check := range s.checks {
		if err := check.Ping(ctx); err != nil {
			status[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	writeJSON(w, code, status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
