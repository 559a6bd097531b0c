// internal/workers/data-access/query-property-catalog/handler.go
package querypropertycatalog

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"realestate-workers/internal/common/database"
	"realestate-workers/internal/common/errors"
	"realestate-workers/internal/common/logger"
	"realestate-workers/internal/common/metrics"
	"realestate-workers/internal/models"
	"realestate-workers/internal/workers/data-access/query-property-catalog/queries"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType  = "query-property-catalog"
	queryName = "property_search"
)

type Handler struct {
	config       *Config
	db           *sql.DB
	cache        ResultCache
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

// NewHandler wires the catalog search. cache may be nil.
func NewHandler(config *Config, db *sql.DB, cache ResultCache, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		cache:        cache,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, start, errors.NewInvalidSearchQueryError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, start, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.ObserveJob(TaskType, start, "")
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, errors.NewInvalidSearchQueryError("input cannot be nil")
	}

	key := CacheKey(input.Filters, h.config.FeatureMatch, h.config.MaxResults)
	if cached, ok := h.lookup(ctx, key); ok {
		return cached, nil
	}

	properties, err := queries.Search(ctx, h.db, input.Filters, h.config.FeatureMatch, h.config.MaxResults)
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.NewQueryTimeoutError(queryName)
		}
		return nil, errors.NewQueryExecutionFailedError(queryName, err)
	}

	output := &Output{Properties: properties, Total: len(properties)}
	h.store(ctx, key, output)

	h.logger.Info("catalog searched", map[string]interface{}{
		"total": output.Total,
	})
	return output, nil
}

func (h *Handler) lookup(ctx context.Context, key string) (*Output, bool) {
	if h.cache == nil || h.config.CacheTTL <= 0 {
		return nil, false
	}

	var cached Output
	err := h.cache.GetJSON(ctx, key, &cached)
	switch {
	case err == nil:
		metrics.CacheRequests.WithLabelValues("property_search", "hit").Inc()
		cached.Cached = true
		return &cached, true
	case stderrors.Is(err, database.ErrCacheMiss):
		metrics.CacheRequests.WithLabelValues("property_search", "miss").Inc()
	default:
		metrics.CacheRequests.WithLabelValues("property_search", "error").Inc()
		h.logger.Warn("result cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	return nil, false
}

func (h *Handler) store(ctx context.Context, key string, output *Output) {
	if h.cache == nil || h.config.CacheTTL <= 0 {
		return
	}
	if err := h.cache.SetJSON(ctx, key, output, h.config.CacheTTL); err != nil {
		h.logger.Warn("result cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, start time.Time, err error) {
	stdErr := errors.Normalize(err)
	metrics.ObserveJob(TaskType, start, string(stdErr.Code))
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

// Search runs the catalog query for the HTTP API.
func (h *Handler) Search(ctx context.Context, filters models.SearchFilters) (*models.SearchResult, error) {
	output, err := h.execute(ctx, &Input{Filters: filters})
	if err != nil {
		return nil, err
	}
	return &models.SearchResult{Properties: output.Properties, Total: output.Total}, nil
}
