package handler

import (
	"errors"
	"net/http"

	"github.com/aniladanir/wa-ai-relay/internal/domain"
	"github.com/aniladanir/wa-ai-relay/internal/service"
	"github.com/gin-gonic/gin"
)

const defaultPageLimit = 50

type listQuery struct {
	Limit  *int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"min=0"`
}

// SendRequest is the body of a manual send
type SendRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Message     string `json:"message" binding:"required"`
}

// SendData describes a manually sent message
type SendData struct {
	PhoneNumber     string             `json:"phoneNumber"`
	Message         string             `json:"message"`
	GatewayResponse *domain.SendResult `json:"gatewayResponse,omitempty"`
}

// ListMessages godoc
// @Summary List conversation turns
// @Description Returns persisted turns, newest first. Empty when persistence is disabled.
// @Tags Messages
// @Produce json
// @Param limit query int false "Page size (1-100)" default(50)
// @Param offset query int false "Items to skip" default(0)
// @Success 200 {object} Envelope{data=domain.TurnPage}
// @Failure 400 {object} Envelope
// @Failure 500 {object} Envelope
// @Router /messages [get]
// @Router /api/messages [get]
func (h *Handler) listMessages(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, failure("invalid pagination parameters", err))
		return
	}
	limit := defaultPageLimit
	if q.Limit != nil {
		limit = *q.Limit
	}

	page, err := h.relay.ListTurns(c.Request.Context(), limit, q.Offset)
	if err != nil {
		h.requestLogger(c).Error("failed to list turns", "error", err.Error())
		c.JSON(http.StatusInternalServerError, failure(msgListFailed, err))
		return
	}

	message := msgListed
	if !page.Persisted {
		message = msgNoPersistence
	}
	c.JSON(http.StatusOK, ok(message, page))
}

// SendMessage godoc
// @Summary Send a message manually
// @Description Sends the message verbatim through the gateway, without generating a reply
// @Tags Messages
// @Accept json
// @Produce json
// @Param request body SendRequest true "Recipient and text"
// @Success 200 {object} Envelope{data=SendData}
// @Failure 400 {object} Envelope
// @Failure 500 {object} Envelope
// @Router /send [post]
// @Router /api/send [post]
func (h *Handler) sendMessage(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure(msgMissingFields, err))
		return
	}

	phone, res, err := h.relay.SendMessage(c.Request.Context(), req.PhoneNumber, req.Message)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, failure(msgMissingFields, err))
			return
		}
		c.JSON(http.StatusInternalServerError, failure(msgSendFailed, err))
		return
	}

	c.JSON(http.StatusOK, ok(msgSent, SendData{
		PhoneNumber:     phone,
		Message:         req.Message,
		GatewayResponse: res,
	}))
}
