// internal/workers/notification/send-recommendation/models.go
package sendrecommendation

import "rental-workers/internal/models"

type Input struct {
	RecipientEmail string           `json:"recipientEmail,omitempty"`
	RecipientPhone string           `json:"recipientPhone,omitempty"`
	Prompt         string           `json:"prompt"`
	Reason         string           `json:"reason"`
	Results        []models.Vehicle `json:"results"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "partial", "disabled"
	Channels       []string `json:"channels"`
	EmailMessageID string   `json:"emailMessageId,omitempty"`
	SMSMessageID   string   `json:"smsMessageId,omitempty"`
	SentAt         string   `json:"sentAt"`
}

// Statuses
const (
	StatusSent     = "sent"
	StatusPartial  = "partial"
	StatusDisabled = "disabled"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
