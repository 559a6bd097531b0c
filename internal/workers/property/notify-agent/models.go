// internal/workers/property/notify-agent/models.go
package notifyagent

import "realestate-workers/internal/models"

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

type Input struct {
	InquiryID string                 `json:"inquiryId"`
	Priority  models.InquiryPriority `json:"priority"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Channels       []string `json:"channels"`
	SentAt         string   `json:"sentAt"`
}

// contact is the joined inquiry, listing and agent row.
type contact struct {
	inquiry       models.Inquiry
	propertyTitle string
	agent         models.Agent
}
