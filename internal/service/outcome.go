package service

import (
	"errors"
	"time"

	"github.com/aniladanir/wa-ai-relay/internal/domain"
	"github.com/aniladanir/wa-ai-relay/internal/normalizer"
)

// State is a step of one webhook delivery
type State string

const (
	StateReceived            State = "received"
	StateNormalized          State = "normalized"
	StateIgnoredOrIncomplete State = "ignored_or_incomplete"
	StateGeneratingReply     State = "generating_reply"
	StateGenerated           State = "generated"
	StateGenerationFailed    State = "generation_failed"
	StateDispatching         State = "dispatching"
	StateDispatched          State = "dispatched"
	StateDispatchFailed      State = "dispatch_failed"
	StateResponded           State = "responded"
)

// Outcome reports what happened to one webhook delivery
type Outcome struct {
	Trail      []State
	Verdict    normalizer.Verdict
	EventType  string
	Message    domain.CanonicalMessage
	Reply      string
	Degraded   bool
	Delivery   *domain.SendResult
	TurnID     uint
	ReceivedAt time.Time

	GenerationErr error
	DispatchErr   error
	PersistErr    error
}

func newOutcome() *Outcome {
	return &Outcome{
		Trail:      []State{StateReceived},
		ReceivedAt: time.Now().UTC(),
	}
}

func (o *Outcome) enter(s State) {
	o.Trail = append(o.Trail, s)
}

// Final returns the last state before the response was produced
func (o *Outcome) Final() State {
	for i := len(o.Trail) - 1; i >= 0; i-- {
		if o.Trail[i] != StateResponded {
			return o.Trail[i]
		}
	}
	return StateReceived
}

// Processed reports whether the payload carried a message to answer
func (o *Outcome) Processed() bool {
	return o.Verdict == normalizer.Message
}

// Delivered reports whether the reply reached the gateway
func (o *Outcome) Delivered() bool {
	return o.Delivery != nil && o.DispatchErr == nil
}

// Err joins every contained failure, or returns nil
func (o *Outcome) Err() error {
	return errors.Join(o.GenerationErr, o.DispatchErr, o.PersistErr)
}
