package handler

import (
	"net/http"
	"time"

	"github.com/aniladanir/wa-ai-relay/internal/normalizer"
	"github.com/aniladanir/wa-ai-relay/internal/service"
	"github.com/gin-gonic/gin"
)

// Envelope is the JSON body of every response
type Envelope struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WebhookData describes a processed webhook message
type WebhookData struct {
	PhoneNumber     string        `json:"phoneNumber"`
	SenderName      *string       `json:"senderName,omitempty"`
	ReceivedMessage string        `json:"receivedMessage"`
	SentMessage     string        `json:"sentMessage,omitempty"`
	Degraded        bool          `json:"degraded"`
	Delivered       bool          `json:"delivered"`
	MessageID       string        `json:"messageId,omitempty"`
	TurnID          uint          `json:"turnId,omitempty"`
	State           service.State `json:"state"`
	Timestamp       time.Time     `json:"timestamp"`
}

const (
	msgIgnored        = "event ignored (not a text message)"
	msgIncomplete     = "webhook received but no valid message to process"
	msgProcessed      = "message processed successfully"
	msgDegraded       = "message answered with fallback reply"
	msgInternalError  = "webhook received (internal error handled)"
	msgUndecodable    = "webhook received but payload could not be decoded"
	msgMissingFields  = "phoneNumber and message are required"
	msgSent           = "message sent successfully"
	msgSendFailed     = "failed to send message"
	msgProcessFailed  = "failed to process message"
	msgListFailed     = "failed to fetch messages"
	msgNoPersistence  = "persistence disabled, messages are not stored"
	msgListed         = "messages fetched successfully"
	msgInvalidPayload = "invalid request body"
)

func ok(message string, data any) Envelope {
	return Envelope{Success: true, Status: "ok", Message: message, Data: data}
}

// acknowledged answers the gateway positively while carrying the failure
func acknowledged(message string, err error) Envelope {
	env := ok(message, nil)
	if err != nil {
		env.Error = err.Error()
	}
	return env
}

func failure(message string, err error) Envelope {
	env := Envelope{Success: false, Status: "error", Message: message}
	if err != nil {
		env.Error = err.Error()
	}
	return env
}

func webhookEnvelope(out *service.Outcome) Envelope {
	if !out.Processed() {
		if out.Verdict == normalizer.Ignored {
			return ok(msgIgnored, nil)
		}
		return ok(msgIncomplete, nil)
	}

	data := WebhookData{
		PhoneNumber:     out.Message.PhoneNumber,
		SenderName:      out.Message.SenderName,
		ReceivedMessage: out.Message.Text,
		SentMessage:     out.Reply,
		Degraded:        out.Degraded,
		Delivered:       out.Delivered(),
		TurnID:          out.TurnID,
		State:           out.Final(),
		Timestamp:       out.ReceivedAt,
	}
	if out.Delivery != nil {
		data.MessageID = out.Delivery.MessageID
	}

	message := msgProcessed
	switch {
	case !out.Delivered():
		message = msgInternalError
	case out.Degraded:
		message = msgDegraded
	}

	env := ok(message, data)
	if err := out.Err(); err != nil {
		env.Error = err.Error()
	}
	return env
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, failure("requested resource not found", nil))
}

func methodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, failure("method not allowed", nil))
}
