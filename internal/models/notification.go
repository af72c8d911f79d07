package models

import "time"

const (
	NotificationStatusSent     = "sent"
	NotificationStatusFailed   = "failed"
	NotificationStatusDisabled = "disabled"

	ChannelEmail = "email"
	ChannelSMS   = "sms"

	TypeApplicationReceived = "application_received"
	TypeNewApplicationAlert = "new_application_alert"
	TypeContactAcknowledged = "contact_acknowledged"
)

// Notification records one delivery attempt on one channel.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Channel   string    `json:"channel"`
	Recipient string    `json:"recipient"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	SentAt    time.Time `json:"sentAt"`
}

// NotificationTemplate is a subject/body pair with {{placeholder}} slots.
type NotificationTemplate struct {
	Type    string `json:"type"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
