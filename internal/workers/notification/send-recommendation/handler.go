// internal/workers/notification/send-recommendation/handler.go
package sendrecommendation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	apperrors "rental-workers/internal/common/errors"
	"rental-workers/internal/common/logger"
	"rental-workers/internal/common/metrics"
	"rental-workers/internal/common/validation"
)

const (
	TaskType = "send-recommendation"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
	ErrInvalidInput           = errors.New("INVALID_INPUT")
)

// EmailSender is satisfied by aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, from, to, subject, textBody, htmlBody string) (string, error)
}

// SMSSender is satisfied by aws.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, phoneNumber, message, senderID string) (string, error)
}

type Handler struct {
	config       *Config
	email        EmailSender
	sms          SMSSender
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		email:        email,
		sms:          sms,
		logger:       scoped,
		errorHandler: apperrors.NewErrorHandler(scoped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, fmt.Errorf("%w: parse input: %v", ErrInvalidInput, err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidInput)
	}

	email := strings.TrimSpace(input.RecipientEmail)
	phone := strings.TrimSpace(input.RecipientPhone)
	if email != "" && !validation.ValidateEmail(email) {
		return nil, fmt.Errorf("%w: invalid recipientEmail %q", ErrInvalidInput, email)
	}
	if phone != "" && !validation.ValidatePhone(phone) {
		return nil, fmt.Errorf("%w: recipientPhone must be E.164", ErrInvalidInput)
	}

	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		Channels:       []string{},
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	sendEmail := h.config.EmailEnabled && h.email != nil && email != ""
	sendSMS := h.config.SMSEnabled && h.sms != nil && phone != ""
	if !sendEmail && !sendSMS {
		h.logger.Info("no notification channel enabled for recipient", map[string]interface{}{
			"notificationId": output.NotificationID,
		})
		return output, nil
	}

	maxVehicles := h.config.MaxVehicles
	if maxVehicles <= 0 {
		maxVehicles = 5
	}
	msg, err := render(input, maxVehicles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotificationSendFailed, err)
	}

	attempted, failed := 0, 0
	var lastErr error

	if sendEmail {
		attempted++
		id, err := h.email.SendEmail(ctx, h.config.FromEmail, email, msg.Subject, msg.Text, msg.HTML)
		if err != nil {
			failed++
			lastErr = err
			h.logger.Error("email send failed", map[string]interface{}{
				"error":          err.Error(),
				"notificationId": output.NotificationID,
			})
		} else {
			output.EmailMessageID = id
			output.Channels = append(output.Channels, ChannelEmail)
		}
	}

	if sendSMS {
		attempted++
		id, err := h.sms.SendSMS(ctx, phone, msg.SMS, h.config.SenderID)
		if err != nil {
			failed++
			lastErr = err
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error":          err.Error(),
				"notificationId": output.NotificationID,
			})
		} else {
			output.SMSMessageID = id
			output.Channels = append(output.Channels, ChannelSMS)
		}
	}

	switch {
	case failed == attempted:
		return nil, fmt.Errorf("%w: %v", ErrNotificationSendFailed, lastErr)
	case failed > 0:
		output.Status = StatusPartial
	default:
		output.Status = StatusSent
	}

	h.logger.Info("recommendation notification sent", map[string]interface{}{
		"notificationId": output.NotificationID,
		"status":         output.Status,
		"channels":       output.Channels,
	})
	return output, nil
}

func toStandardError(err error) *apperrors.StandardError {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return apperrors.NewInvalidInputError(err.Error())
	default:
		return apperrors.NewNotificationSendFailedError("recommendation", err)
	}
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	stdErr := toStandardError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, stdErr)
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
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
