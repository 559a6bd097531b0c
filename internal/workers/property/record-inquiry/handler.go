// internal/workers/property/record-inquiry/handler.go
package recordinquiry

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"realestate-workers/internal/common/errors"
	"realestate-workers/internal/common/logger"
	"realestate-workers/internal/common/metrics"
	"realestate-workers/internal/common/validation"
	"realestate-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	TaskType = "record-inquiry"

	statusReceived = "received"

	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

var schema = validation.MustCompile(inquirySchema)

type Handler struct {
	config       *Config
	db           *sql.DB
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
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
		h.fail(ctx, client, job, start, errors.NewInquiryValidationFailedError(fmt.Sprintf("parse input: %v", err)))
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
		return nil, errors.NewInquiryValidationFailedError("input cannot be nil")
	}
	normalize(input)

	result, err := schema.Validate(input)
	if err != nil {
		return nil, errors.NewInquiryValidationFailedError(err.Error())
	}
	if !result.Valid {
		return nil, errors.NewInquiryValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}

	id := uuid.New().String()
	var createdAt time.Time
	err = h.db.QueryRowContext(ctx, `
		INSERT INTO inquiries (id, property_id, name, email, phone, message, source_query)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		id,
		input.PropertyID,
		input.Name,
		input.Email,
		nullable(input.Phone),
		input.Message,
		nullable(input.SourceQuery),
	).Scan(&id, &createdAt)
	if err != nil {
		return nil, h.mapInsertError(input, err)
	}

	h.logger.Info("inquiry recorded", map[string]interface{}{
		"inquiryId":  id,
		"propertyId": input.PropertyID,
		"priority":   input.Priority,
	})

	return &Output{
		InquiryID: id,
		Status:    statusReceived,
		Priority:  input.Priority,
		CreatedAt: createdAt.UTC().Format(time.RFC3339),
	}, nil
}

func normalize(input *Input) {
	input.PropertyID = strings.TrimSpace(input.PropertyID)
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)
	input.Message = strings.TrimSpace(input.Message)
	input.SourceQuery = strings.TrimSpace(input.SourceQuery)
	if input.Priority == "" {
		input.Priority = models.InquiryPriorityNormal
	}
}

func (h *Handler) mapInsertError(input *Input, err error) error {
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return errors.NewDuplicateInquiryError(
				fmt.Sprintf("inquiry from %s about property %s already recorded", input.Email, input.PropertyID))
		case pqForeignKeyViolation:
			return errors.NewResourceNotFoundError("property", input.PropertyID)
		}
	}
	return errors.NewDatabaseInsertFailedError(err)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
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
	} else {
		h.logger.Info("job completed successfully", map[string]interface{}{
			"jobKey": job.Key,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
