package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aniladanir/wa-ai-relay/internal/domain"
	"github.com/aniladanir/wa-ai-relay/internal/normalizer"
	messageRepo "github.com/aniladanir/wa-ai-relay/internal/repository/message"
)

// DefaultFallbackReply is sent when reply generation fails on a gateway-facing
// endpoint
const DefaultFallbackReply = "Desculpe, não consegui processar sua mensagem agora. Tente novamente em instantes."

const logTextLimit = 100

// ReplyGenerator produces a reply for an inbound message
type ReplyGenerator interface {
	Generate(ctx context.Context, text string, senderName *string) (string, error)
}

// MessageDispatcher delivers a text message through the gateway
type MessageDispatcher interface {
	Send(ctx context.Context, phoneNumber, text string) (*domain.SendResult, error)
}

// Policy selects how failures surface for one endpoint
type Policy struct {
	// AlwaysAcknowledge absorbs every failure: generation falls back to a
	// canned reply and dispatch errors are only reported on the Outcome.
	AlwaysAcknowledge bool
	// Persist records the turn when a store is configured.
	Persist bool
}

var (
	// GatewayPolicy serves the webhook the gateway calls
	GatewayPolicy = Policy{AlwaysAcknowledge: true, Persist: true}
	// StrictPolicy surfaces generation and dispatch failures to the caller
	StrictPolicy = Policy{AlwaysAcknowledge: false, Persist: true}
)

// Relay drives one webhook delivery from normalization to reply dispatch.
// It keeps no per-request state between calls.
type Relay struct {
	normalizer    *normalizer.Normalizer
	generator     ReplyGenerator
	dispatcher    MessageDispatcher
	messageRepo   messageRepo.Repository
	fallbackReply string
	logger        *slog.Logger
}

// NewRelay creates a relay. repo may be nil to disable persistence.
func NewRelay(norm *normalizer.Normalizer, generator ReplyGenerator, dispatcher MessageDispatcher, repo messageRepo.Repository, logger *slog.Logger, fallbackReply string) (*Relay, error) {
	if generator == nil || dispatcher == nil {
		return nil, errors.New("reply generator and message dispatcher are required")
	}
	if norm == nil {
		norm = normalizer.New()
	}
	if fallbackReply == "" {
		fallbackReply = DefaultFallbackReply
	}

	return &Relay{
		normalizer:    norm,
		generator:     generator,
		dispatcher:    dispatcher,
		messageRepo:   repo,
		fallbackReply: fallbackReply,
		logger:        logger,
	}, nil
}

// PersistenceEnabled reports whether turns are stored
func (s *Relay) PersistenceEnabled() bool {
	return s.messageRepo != nil
}

// HandleWebhook processes one raw gateway payload. With an always-acknowledge
// policy the returned error is always nil; failures are reported on the
// Outcome instead.
func (s *Relay) HandleWebhook(ctx context.Context, payload map[string]any, policy Policy) (*Outcome, error) {
	out := newOutcome()

	if policy.AlwaysAcknowledge {
		// the gateway may hang up before the reply is out
		ctx = context.WithoutCancel(ctx)
	}

	res := s.normalizer.Normalize(payload)
	out.Verdict = res.Verdict
	out.EventType = res.EventType
	out.enter(StateNormalized)

	if res.Verdict != normalizer.Message {
		s.logger.Info("webhook skipped",
			slog.String("verdict", res.Verdict.String()),
			slog.String("eventType", res.EventType))
		out.enter(StateIgnoredOrIncomplete)
		out.enter(StateResponded)
		return out, nil
	}

	msg := res.Message
	out.Message = msg
	reqLogger := s.logger.With(slog.String("phoneNumber", msg.PhoneNumber))
	reqLogger.Info("message received",
		slog.String("senderName", msg.Sender()),
		slog.String("text", truncate(msg.Text, logTextLimit)))

	out.enter(StateGeneratingReply)
	reply, err := s.generator.Generate(ctx, msg.Text, msg.SenderName)
	if err != nil {
		out.GenerationErr = fmt.Errorf("%w: %w", ErrGeneration, err)
		out.enter(StateGenerationFailed)
		reqLogger.Error("failed to generate reply", "error", err.Error())

		if !policy.AlwaysAcknowledge {
			out.enter(StateResponded)
			return out, out.GenerationErr
		}
		reply = s.fallbackReply
		out.Degraded = true
	} else {
		out.enter(StateGenerated)
	}
	out.Reply = reply

	out.enter(StateDispatching)
	delivery, err := s.dispatcher.Send(ctx, msg.PhoneNumber, reply)
	if err != nil {
		out.DispatchErr = fmt.Errorf("%w: %w", ErrDispatch, err)
		out.enter(StateDispatchFailed)
		reqLogger.Error("failed to dispatch reply", "error", err.Error())
	} else {
		out.Delivery = delivery
		out.enter(StateDispatched)
		reqLogger.Info("reply dispatched",
			slog.Bool("degraded", out.Degraded),
			slog.String("reply", truncate(reply, logTextLimit)))
		s.cacheDelivery(ctx, reqLogger, msg.PhoneNumber, delivery)
	}

	if policy.Persist {
		s.recordTurn(ctx, reqLogger, out)
	}

	out.enter(StateResponded)
	if out.DispatchErr != nil && !policy.AlwaysAcknowledge {
		return out, out.DispatchErr
	}
	return out, nil
}

// SendMessage dispatches text verbatim to phoneNumber without generating a
// reply. It returns the digits-only phone number it sent to.
func (s *Relay) SendMessage(ctx context.Context, phoneNumber, text string) (string, *domain.SendResult, error) {
	cleanPhone := normalizer.DigitsOnly(phoneNumber)
	if cleanPhone == "" || strings.TrimSpace(text) == "" {
		return cleanPhone, nil, fmt.Errorf("%w: phoneNumber and message are required", ErrValidation)
	}

	reqLogger := s.logger.With(slog.String("phoneNumber", cleanPhone))

	delivery, err := s.dispatcher.Send(ctx, cleanPhone, text)
	if err != nil {
		reqLogger.Error("failed to send message", "error", err.Error())
		return cleanPhone, nil, fmt.Errorf("%w: %w", ErrDispatch, err)
	}
	reqLogger.Info("message sent", slog.String("text", truncate(text, logTextLimit)))
	s.cacheDelivery(ctx, reqLogger, cleanPhone, delivery)

	return cleanPhone, delivery, nil
}

// ListTurns returns a page of recorded turns. Without a store it returns an
// empty page.
func (s *Relay) ListTurns(ctx context.Context, limit, offset int) (*domain.TurnPage, error) {
	page := &domain.TurnPage{
		Messages: []domain.ConversationTurn{},
		Limit:    limit,
		Offset:   offset,
	}
	if s.messageRepo == nil {
		return page, nil
	}

	turns, total, err := s.messageRepo.ListTurns(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if turns != nil {
		page.Messages = turns
	}
	page.Total = total
	page.Persisted = true

	return page, nil
}

func (s *Relay) recordTurn(ctx context.Context, logger *slog.Logger, out *Outcome) {
	if s.messageRepo == nil {
		return
	}

	turn := &domain.ConversationTurn{
		SenderName:   out.Message.SenderName,
		PhoneNumber:  out.Message.PhoneNumber,
		ReceivedText: out.Message.Text,
		SentText:     out.Reply,
		Delivered:    out.DispatchErr == nil,
		Degraded:     out.Degraded,
		Timestamp:    out.ReceivedAt,
	}
	if err := s.messageRepo.RecordTurn(ctx, turn); err != nil {
		out.PersistErr = fmt.Errorf("%w: %w", ErrPersistence, err)
		logger.Error("failed to record turn", "error", err.Error())
		return
	}
	out.TurnID = turn.ID
}

func (s *Relay) cacheDelivery(ctx context.Context, logger *slog.Logger, phoneNumber string, delivery *domain.SendResult) {
	if s.messageRepo == nil || delivery == nil || delivery.MessageID == "" {
		return
	}
	if err := s.messageRepo.CacheMessage(ctx, delivery.MessageID, phoneNumber, time.Now().UTC()); err != nil {
		logger.Error("failed to cache sent message", "error", err.Error(), "messageId", delivery.MessageID)
	}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
