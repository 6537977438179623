package domain

import (
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CanonicalMessage is the normalized form of an inbound gateway message
type CanonicalMessage struct {
	PhoneNumber string  `json:"phoneNumber" validate:"required,numeric"`
	Text        string  `json:"text" validate:"required"`
	SenderName  *string `json:"senderName,omitempty"`
}

// Validate reports whether the message satisfies its invariants
func (m CanonicalMessage) Validate() error {
	return validate.Struct(m)
}

// Sender returns the sender name, or an empty string when it is unknown
func (m CanonicalMessage) Sender() string {
	if m.SenderName == nil {
		return ""
	}
	return *m.SenderName
}

// ConversationTurn is a received message and the reply sent for it
type ConversationTurn struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SenderName   *string   `gorm:"type:varchar(255)" json:"senderName,omitempty"`
	PhoneNumber  string    `gorm:"type:varchar(32);not null;index" json:"phoneNumber"`
	ReceivedText string    `gorm:"type:text;not null" json:"receivedText"`
	SentText     string    `gorm:"type:text;not null" json:"sentText"`
	Delivered    bool      `gorm:"not null;default:false" json:"delivered"`
	Degraded     bool      `gorm:"not null;default:false" json:"degraded"`
	Timestamp    time.Time `gorm:"not null;index" json:"timestamp"`
}

// TurnPage is one page of persisted conversation turns
type TurnPage struct {
	Messages  []ConversationTurn `json:"messages"`
	Total     int64              `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
	Persisted bool               `json:"persisted"`
}

// SendResult is the gateway response to a send-text request
type SendResult struct {
	ZaapID    string `json:"zaapId,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	ID        string `json:"id,omitempty"`
}
