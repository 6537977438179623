package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/aniladanir/wa-ai-relay/internal/service"
	"github.com/gin-gonic/gin"
)

// maxPayloadBytes bounds webhook bodies
const maxPayloadBytes = 1 << 20

// GatewayWebhook godoc
// @Summary Receive a gateway webhook
// @Description Normalizes the payload, generates a reply and sends it back. Always answers 200, even on internal failure.
// @Tags Webhook
// @Accept json
// @Produce json
// @Param payload body object true "Raw gateway payload"
// @Success 200 {object} Envelope
// @Router /webhook [post]
// @Router /gancho [post]
func (h *Handler) gatewayWebhook(c *gin.Context) {
	logger := h.requestLogger(c)

	payload, err := decodePayload(c)
	if err != nil {
		logger.Warn("failed to decode webhook payload", "error", err.Error())
		c.JSON(http.StatusOK, acknowledged(msgUndecodable, err))
		return
	}

	out, err := h.relay.HandleWebhook(c.Request.Context(), payload, service.GatewayPolicy)
	if err != nil {
		logger.Error("webhook processing failed", "error", err.Error())
		c.JSON(http.StatusOK, acknowledged(msgInternalError, err))
		return
	}

	c.JSON(http.StatusOK, webhookEnvelope(out))
}

// StrictWebhook godoc
// @Summary Process a webhook payload strictly
// @Description Same pipeline as /webhook but reports generation and dispatch failures as 500. Not meant for the gateway.
// @Tags Webhook
// @Accept json
// @Produce json
// @Param payload body object true "Raw gateway payload"
// @Success 200 {object} Envelope
// @Failure 400 {object} Envelope
// @Failure 500 {object} Envelope
// @Router /api/webhook [post]
func (h *Handler) strictWebhook(c *gin.Context) {
	logger := h.requestLogger(c)

	payload, err := decodePayload(c)
	if err != nil {
		logger.Warn("failed to decode webhook payload", "error", err.Error())
		c.JSON(http.StatusBadRequest, failure(msgInvalidPayload, err))
		return
	}

	out, err := h.relay.HandleWebhook(c.Request.Context(), payload, service.StrictPolicy)
	if err != nil {
		c.JSON(http.StatusInternalServerError, failure(msgProcessFailed, err))
		return
	}

	c.JSON(http.StatusOK, webhookEnvelope(out))
}

// decodePayload reads a JSON object, or a form body as a flat object. An
// empty body or a JSON value that is not an object yields an empty payload.
func decodePayload(c *gin.Context) (map[string]any, error) {
	r := c.Request
	body := http.MaxBytesReader(c.Writer, r.Body, maxPayloadBytes)

	if c.ContentType() == gin.MIMEPOSTForm {
		r.Body = body
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		payload := make(map[string]any, len(r.PostForm))
		for key, values := range r.PostForm {
			if len(values) > 0 {
				payload[key] = values[0]
			}
		}
		return payload, nil
	}

	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("decode json: %w", err)
	}

	payload, ok := raw.(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}
	return payload, nil
}

func (h *Handler) requestLogger(c *gin.Context) *slog.Logger {
	return h.logger.With(slog.String("requestId", c.GetString(requestIDKey)))
}
