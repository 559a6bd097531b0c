package querypropertyindex

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"realestate-workers/internal/common/errors"
	"realestate-workers/internal/common/logger"
	"realestate-workers/internal/common/metrics"
	"realestate-workers/internal/models"
	"realestate-workers/internal/workers/data-access/query-property-index/queries"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
)

const (
	TaskType = "query-property-index"
)

type Handler struct {
	config       *Config
	client       *elasticsearch.Client
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, client *elasticsearch.Client, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		client:       client,
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

	result, err := queries.Search(ctx, h.client, h.config.Index, input.Filters, h.config.FeatureMatch, h.config.MaxResults)
	if err != nil {
		return nil, h.mapError(ctx, err)
	}

	h.logger.Info("index searched", map[string]interface{}{
		"index":     h.config.Index,
		"totalHits": result.TotalHits,
		"took":      result.Took,
	})

	return &Output{
		Properties: result.Properties,
		Total:      len(result.Properties),
		TotalHits:  result.TotalHits,
		Took:       result.Took,
	}, nil
}

func (h *Handler) mapError(ctx context.Context, err error) error {
	switch {
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.NewSearchTimeoutError(h.config.Index)
	case stderrors.Is(err, queries.ErrIndexMissing), stderrors.Is(err, queries.ErrMissingIndex):
		return errors.NewIndexNotFoundError(h.config.Index)
	default:
		return errors.NewSearchQueryFailedError(h.config.Index, err)
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

// Search runs the index query for the HTTP API.
func (h *Handler) Search(ctx context.Context, filters models.SearchFilters) (*models.SearchResult, error) {
	output, err := h.execute(ctx, &Input{Filters: filters})
	if err != nil {
		return nil, err
	}
	return &models.SearchResult{Properties: output.Properties, Total: output.Total}, nil
}
