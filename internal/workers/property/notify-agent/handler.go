// internal/workers/property/notify-agent/handler.go
package notifyagent

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
	"realestate-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "notify-agent"
)

// EmailSender is satisfied by aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, from, to, subject, body string) (string, error)
}

// SMSSender is satisfied by aws.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

const (
	emailSubjectTemplate = "New inquiry about {{propertyTitle}}"
	emailBodyTemplate    = `Hello {{agentName}},

{{name}} ({{email}}{{phoneSuffix}}) asked about "{{propertyTitle}}":

{{message}}

Original search: {{sourceQuery}}
Inquiry: {{inquiryId}}`
	smsTemplate = "Urgent inquiry from {{name}} about {{propertyTitle}}. Reply to {{email}}."
)

type Handler struct {
	config       *Config
	db           *sql.DB
	email        EmailSender
	sms          SMSSender
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

// NewHandler accepts nil senders; a nil sender disables its channel.
func NewHandler(config *Config, db *sql.DB, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		db:           db,
		email:        email,
		sms:          sms,
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
	if input == nil || strings.TrimSpace(input.InquiryID) == "" {
		return nil, errors.NewInquiryValidationFailedError("inquiryId is required")
	}

	c, err := h.loadContact(ctx, input.InquiryID)
	if err != nil {
		return nil, err
	}

	data := templateData(c)
	output := &Output{
		NotificationID: uuid.New().String(),
		Channels:       []string{},
	}

	if h.config.EmailEnabled && h.email != nil {
		messageID, err := h.email.SendEmail(ctx, h.config.FromEmail, c.agent.Email,
			renderTemplate(emailSubjectTemplate, data), renderTemplate(emailBodyTemplate, data))
		if err != nil {
			return nil, errors.NewNotificationSendFailedError(ChannelEmail, err)
		}
		output.Channels = append(output.Channels, ChannelEmail)
		h.logger.Info("agent email sent", map[string]interface{}{
			"inquiryId": input.InquiryID,
			"agentId":   c.agent.ID,
			"messageId": messageID,
		})
	}

	// Once the email is out an SMS failure only logs; the job still completes.
	if h.config.SMSEnabled && h.sms != nil && input.Priority == models.InquiryPriorityHigh && c.agent.Phone != "" {
		messageID, err := h.sms.SendSMS(ctx, c.agent.Phone, renderTemplate(smsTemplate, data))
		switch {
		case err != nil && len(output.Channels) == 0:
			return nil, errors.NewNotificationSendFailedError(ChannelSMS, err)
		case err != nil:
			h.logger.Warn("agent sms failed", map[string]interface{}{
				"inquiryId": input.InquiryID,
				"agentId":   c.agent.ID,
				"error":     err,
			})
		default:
			output.Channels = append(output.Channels, ChannelSMS)
			h.logger.Info("agent sms sent", map[string]interface{}{
				"inquiryId": input.InquiryID,
				"messageId": messageID,
			})
		}
	}

	if len(output.Channels) == 0 {
		h.logger.Warn("no notification channel delivered", map[string]interface{}{
			"inquiryId": input.InquiryID,
			"priority":  input.Priority,
		})
	}

	output.SentAt = time.Now().UTC().Format(time.RFC3339)
	return output, nil
}

func (h *Handler) loadContact(ctx context.Context, inquiryID string) (*contact, error) {
	var (
		c           contact
		phone       sql.NullString
		sourceQuery sql.NullString
		agentPhone  sql.NullString
	)
	err := h.db.QueryRowContext(ctx, `
		SELECT i.id, i.property_id, i.name, i.email, i.phone, i.message, i.source_query, i.created_at,
		       p.title, a.id, a.name, a.email, a.phone
		FROM inquiries i
		JOIN properties p ON p.id = i.property_id
		JOIN agents a ON a.id = p.agent_id
		WHERE i.id = $1`, inquiryID).Scan(
		&c.inquiry.ID, &c.inquiry.PropertyID, &c.inquiry.Name, &c.inquiry.Email, &phone,
		&c.inquiry.Message, &sourceQuery, &c.inquiry.CreatedAt,
		&c.propertyTitle, &c.agent.ID, &c.agent.Name, &c.agent.Email, &agentPhone,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewResourceNotFoundError("inquiry", inquiryID)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("load inquiry contact", err)
	}
	c.inquiry.Phone = phone.String
	c.inquiry.SourceQuery = sourceQuery.String
	c.agent.Phone = agentPhone.String
	return &c, nil
}

func templateData(c *contact) map[string]string {
	phoneSuffix := ""
	if c.inquiry.Phone != "" {
		phoneSuffix = ", " + c.inquiry.Phone
	}
	return map[string]string{
		"agentName":     c.agent.Name,
		"propertyTitle": c.propertyTitle,
		"name":          c.inquiry.Name,
		"email":         c.inquiry.Email,
		"phoneSuffix":   phoneSuffix,
		"message":       c.inquiry.Message,
		"sourceQuery":   c.inquiry.SourceQuery,
		"inquiryId":     c.inquiry.ID,
	}
}

// renderTemplate substitutes {{key}} placeholders. Unknown placeholders are
// removed.
func renderTemplate(tmpl string, data map[string]string) string {
	result := tmpl
	for k, v := range data {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}
	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
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
