// internal/workers/property/parse-property-query/handler.go
package parsepropertyquery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"realestate-workers/internal/common/errors"
	"realestate-workers/internal/common/logger"
	"realestate-workers/internal/common/metrics"
	"realestate-workers/internal/interpreter"
	"realestate-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "parse-property-query"

// CurrencyConverter is satisfied by *exchange.Converter.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount float64, from, to string) (float64, error)
}

type Handler struct {
	config       *Config
	interpreter  *interpreter.Interpreter
	converter    CurrencyConverter
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

// NewHandler builds the handler. converter may be nil, in which case prices
// keep the currency they were written in.
func NewHandler(config *Config, in *interpreter.Interpreter, converter CurrencyConverter, log logger.Logger) *Handler {
	if in == nil {
		in = interpreter.New(nil)
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		interpreter:  in,
		converter:    converter,
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
	if input == nil || input.Query == nil {
		return nil, errors.NewInvalidSearchQueryError("query is required")
	}

	query := strings.TrimSpace(*input.Query)
	if n := utf8.RuneCountInString(query); h.config.MaxQueryLength > 0 && n > h.config.MaxQueryLength {
		return nil, errors.NewInvalidSearchQueryError(
			fmt.Sprintf("query is %d characters, limit is %d", n, h.config.MaxQueryLength))
	}

	filters := h.interpreter.Interpret(query)
	h.normalizeCurrency(ctx, &filters)
	recordExtraction(filters)

	h.logger.Info("query interpreted", map[string]interface{}{
		"query":   query,
		"filters": filters,
	})

	return &Output{Filters: filters, Empty: filters.IsEmpty()}, nil
}

// normalizeCurrency rewrites price bounds into the base currency. When that
// is impossible the bounds are dropped rather than compared across currencies.
func (h *Handler) normalizeCurrency(ctx context.Context, f *models.SearchFilters) {
	base := strings.ToUpper(h.config.BaseCurrency)
	if h.converter == nil || base == "" || f.Currency == "" || !f.HasPrice() || strings.EqualFold(f.Currency, base) {
		return
	}

	minPrice, err := h.convert(ctx, f.MinPrice, f.Currency, base)
	if err == nil {
		var maxPrice *float64
		if maxPrice, err = h.convert(ctx, f.MaxPrice, f.Currency, base); err == nil {
			f.MinPrice, f.MaxPrice, f.Currency = minPrice, maxPrice, base
			return
		}
	}

	h.logger.Warn("currency conversion failed, dropping price bounds", map[string]interface{}{
		"from":  f.Currency,
		"to":    base,
		"error": err.Error(),
	})
	f.MinPrice, f.MaxPrice, f.Currency = nil, nil, ""
}

func (h *Handler) convert(ctx context.Context, v *float64, from, to string) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	out, err := h.converter.Convert(ctx, *v, from, to)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func recordExtraction(f models.SearchFilters) {
	if f.IsEmpty() {
		metrics.QueriesInterpreted.WithLabelValues("empty").Inc()
		return
	}
	metrics.QueriesInterpreted.WithLabelValues("filtered").Inc()

	fields := map[string]bool{
		"minPrice":       f.MinPrice != nil,
		"maxPrice":       f.MaxPrice != nil,
		"bedrooms":       f.Bedrooms != nil,
		"bathrooms":      f.Bathrooms != nil,
		"minArea":        f.MinArea != nil,
		"propertyType":   f.PropertyType != "",
		"listingStatus":  f.ListingStatus != "",
		"locationTokens": len(f.LocationTokens) > 0,
		"featureTags":    len(f.FeatureTags) > 0,
	}
	for field, set := range fields {
		if set {
			metrics.FiltersExtracted.WithLabelValues(field).Inc()
		}
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

// Execute interprets a query outside of a job, for the HTTP API and tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
