// Package normalizer maps raw gateway webhook payloads to canonical messages.
//
// The gateway has used many field names for the same logical value over time
// and sometimes wraps the event inside a "data" object. Each logical field is
// resolved through an ordered list of candidate paths; the first present,
// non-empty value wins.
package normalizer

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/aniladanir/wa-ai-relay/internal/domain"
)

// Verdict is the classification of a webhook payload
type Verdict int

const (
	// Message means a canonical message was extracted
	Message Verdict = iota
	// Ignored means the payload declares a non-message event type
	Ignored
	// Incomplete means phone number or text could not be resolved
	Incomplete
)

func (v Verdict) String() string {
	switch v {
	case Message:
		return "message"
	case Ignored:
		return "ignored"
	case Incomplete:
		return "incomplete"
	default:
		return "unknown"
	}
}

// Result is the outcome of normalizing one payload. Message is only set when
// Verdict is Message.
type Result struct {
	Verdict   Verdict
	Message   domain.CanonicalMessage
	EventType string
}

// wrapperField holds the real event when the gateway wraps it.
const wrapperField = "data"

const typeField = "type"

// DefaultAcceptedTypes are the event types treated as chat messages
var DefaultAcceptedTypes = []string{"text", "message", "chat"}

var (
	phoneCandidates = []path{
		{"phone"}, {"phoneNumber"}, {"from"}, {"number"}, {"senderPhone"}, {"phoneSender"},
	}
	textCandidates = []path{
		{"message"}, {"message", "text"},
		{"text"}, {"text", "message"},
		{"body"}, {"messageText"}, {"content"}, {"messageContent"},
	}
	nameCandidates = []path{
		{"name"}, {"clientName"}, {"profileName"}, {"senderName"},
		{"contactName"}, {"nameContact"}, {"chatName"},
	}
)

// Normalizer classifies payloads against a set of accepted event types. It
// holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	acceptedTypes map[string]struct{}
}

// New creates a normalizer accepting the given event types. With no types the
// defaults are used.
func New(acceptedTypes ...string) *Normalizer {
	if len(acceptedTypes) == 0 {
		acceptedTypes = DefaultAcceptedTypes
	}
	n := &Normalizer{acceptedTypes: make(map[string]struct{}, len(acceptedTypes))}
	for _, t := range acceptedTypes {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			n.acceptedTypes[t] = struct{}{}
		}
	}
	return n
}

// Normalize maps a decoded payload to a Result. It performs no I/O.
func (n *Normalizer) Normalize(payload map[string]any) Result {
	record, fallback := payload, map[string]any(nil)
	if inner, ok := payload[wrapperField].(map[string]any); ok {
		record, fallback = inner, payload
	}

	eventType, declared := lookupType(record, payload)
	if declared && !n.accepts(eventType) {
		return Result{Verdict: Ignored, EventType: eventType}
	}

	phone := resolve(record, fallback, phoneCandidates, asPhone)
	text := strings.TrimSpace(resolve(record, fallback, textCandidates, asString))
	name := resolve(record, fallback, nameCandidates, asString)

	msg := domain.CanonicalMessage{
		PhoneNumber: DigitsOnly(phone),
		Text:        text,
	}
	if name != "" {
		msg.SenderName = &name
	}

	if err := msg.Validate(); err != nil {
		return Result{Verdict: Incomplete, EventType: eventType}
	}

	return Result{Verdict: Message, Message: msg, EventType: eventType}
}

func (n *Normalizer) accepts(eventType string) bool {
	_, ok := n.acceptedTypes[strings.ToLower(strings.TrimSpace(eventType))]
	return ok
}

// DigitsOnly strips every non-digit character
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// lookupType reports the declared event type of the working record, falling
// back to the top-level payload. A non-string type counts as declared and is
// never accepted.
func lookupType(record, payload map[string]any) (string, bool) {
	for _, src := range []map[string]any{record, payload} {
		v, ok := src[typeField]
		if !ok || isFalsy(v) {
			continue
		}
		if s, ok := v.(string); ok {
			if strings.TrimSpace(s) == "" {
				continue
			}
			return s, true
		}
		return "", true
	}
	return "", false
}

type path []string

func (p path) get(m map[string]any) (any, bool) {
	var cur any = m
	for _, key := range p {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// resolve returns the first candidate value in record that converts to a
// non-empty string, then retries against fallback (the top-level payload when
// the record was unwrapped, nil otherwise).
func resolve(record, fallback map[string]any, candidates []path, conv func(any) (string, bool)) string {
	if v := first(record, candidates, conv); v != "" {
		return v
	}
	return first(fallback, candidates, conv)
}

func first(m map[string]any, candidates []path, conv func(any) (string, bool)) string {
	for _, p := range candidates {
		v, ok := p.get(m)
		if !ok || isFalsy(v) {
			continue
		}
		if s, ok := conv(v); ok && s != "" {
			return s
		}
	}
	return ""
}

func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case float64:
		return t == 0
	}
	return false
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asPhone(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}
