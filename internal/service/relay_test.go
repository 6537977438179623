package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aniladanir/wa-ai-relay/internal/domain"
	"github.com/aniladanir/wa-ai-relay/internal/normalizer"
)

type generateCall struct {
	Text       string
	SenderName *string
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls []generateCall
	reply string
	err   error
}

func (f *fakeGenerator) Generate(ctx context.Context, text string, senderName *string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, generateCall{Text: text, SenderName: senderName})
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type sendCall struct {
	Phone string
	Text  string
}

type fakeDispatcher struct {
	mu     sync.Mutex
	calls  []sendCall
	result *domain.SendResult
	err    error
}

func (f *fakeDispatcher) Send(ctx context.Context, phoneNumber, text string) (*domain.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sendCall{Phone: phoneNumber, Text: text})
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeRepo struct {
	mu        sync.Mutex
	turns     []domain.ConversationTurn
	cached    []string
	recordErr error
	listErr   error
}

func (f *fakeRepo) RecordTurn(ctx context.Context, turn *domain.ConversationTurn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	turn.ID = uint(len(f.turns) + 1)
	f.turns = append(f.turns, *turn)
	return nil
}

func (f *fakeRepo) ListTurns(ctx context.Context, limit, offset int) ([]domain.ConversationTurn, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	total := int64(len(f.turns))
	if offset >= len(f.turns) {
		return nil, total, nil
	}
	end := min(offset+limit, len(f.turns))
	return f.turns[offset:end], total, nil
}

func (f *fakeRepo) CacheMessage(ctx context.Context, msgID, phoneNumber string, sentTime time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cached = append(f.cached, msgID)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRelay(t *testing.T, gen *fakeGenerator, disp *fakeDispatcher, repo *fakeRepo) *Relay {
	t.Helper()
	var r *Relay
	var err error
	if repo == nil {
		r, err = NewRelay(normalizer.New(), gen, disp, nil, discardLogger(), "")
	} else {
		r, err = NewRelay(normalizer.New(), gen, disp, repo, discardLogger(), "")
	}
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}
	return r
}

func TestHandleWebhookMessage(t *testing.T) {
	gen := &fakeGenerator{reply: "Olá!"}
	disp := &fakeDispatcher{result: &domain.SendResult{MessageID: "m1"}}
	repo := &fakeRepo{}
	relay := newTestRelay(t, gen, disp, repo)

	payload := map[string]any{"phone": "5511999999999", "message": "oi"}
	out, err := relay.HandleWebhook(context.Background(), payload, GatewayPolicy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gen.calls) != 1 || gen.calls[0].Text != "oi" || gen.calls[0].SenderName != nil {
		t.Fatalf("unexpected generator calls %+v", gen.calls)
	}
	if len(disp.calls) != 1 || disp.calls[0] != (sendCall{Phone: "5511999999999", Text: "Olá!"}) {
		t.Fatalf("unexpected dispatcher calls %+v", disp.calls)
	}

	if out.Final() != StateDispatched {
		t.Errorf("expected final state dispatched, got %s", out.Final())
	}
	if out.Trail[len(out.Trail)-1] != StateResponded {
		t.Errorf("expected trail to end with responded, got %v", out.Trail)
	}
	if !out.Delivered() || out.Degraded || out.Err() != nil {
		t.Errorf("unexpected outcome %+v", out)
	}

	if len(repo.turns) != 1 {
		t.Fatalf("expected one recorded turn, got %d", len(repo.turns))
	}
	turn := repo.turns[0]
	if turn.PhoneNumber != "5511999999999" || turn.ReceivedText != "oi" || turn.SentText != "Olá!" || !turn.Delivered {
		t.Errorf("unexpected turn %+v", turn)
	}
	if out.TurnID != 1 {
		t.Errorf("expected turn id 1, got %d", out.TurnID)
	}
	if len(repo.cached) != 1 || repo.cached[0] != "m1" {
		t.Errorf("expected delivery cached, got %v", repo.cached)
	}
}

func TestHandleWebhookIgnored(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}
	disp := &fakeDispatcher{}
	repo := &fakeRepo{}
	relay := newTestRelay(t, gen, disp, repo)

	payload := map[string]any{
		"data": map[string]any{"from": "11 98888-7777", "body": "status update"},
		"type": "status",
	}
	for _, policy := range []Policy{GatewayPolicy, StrictPolicy} {
		out, err := relay.HandleWebhook(context.Background(), payload, policy)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Verdict != normalizer.Ignored || out.Final() != StateIgnoredOrIncomplete || out.Processed() {
			t.Errorf("unexpected outcome %+v", out)
		}
	}

	if len(gen.calls) != 0 || len(disp.calls) != 0 || len(repo.turns) != 0 {
		t.Errorf("expected no collaborator calls, got gen=%d disp=%d turns=%d", len(gen.calls), len(disp.calls), len(repo.turns))
	}
}

func TestHandleWebhookIncomplete(t *testing.T) {
	gen := &fakeGenerator{reply: "x"}
	disp := &fakeDispatcher{}
	relay := newTestRelay(t, gen, disp, nil)

	out, err := relay.HandleWebhook(context.Background(), map[string]any{"phone": "5511", "message": "  "}, GatewayPolicy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Verdict != normalizer.Incomplete {
		t.Errorf("expected incomplete, got %s", out.Verdict)
	}
	if len(gen.calls) != 0 || len(disp.calls) != 0 {
		t.Error("expected no collaborator calls")
	}
}

func TestHandleWebhookGenerationFailureDegrades(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("timeout")}
	disp := &fakeDispatcher{result: &domain.SendResult{}}
	repo := &fakeRepo{}
	relay := newTestRelay(t, gen, disp, repo)

	out, err := relay.HandleWebhook(context.Background(), map[string]any{"phone": "1", "message": "oi"}, GatewayPolicy)
	if err != nil {
		t.Fatalf("expected no error on gateway policy, got %v", err)
	}
	if !errors.Is(out.GenerationErr, ErrGeneration) {
		t.Errorf("expected generation error recorded, got %v", out.GenerationErr)
	}
	if !out.Degraded || out.Reply != DefaultFallbackReply {
		t.Errorf("expected fallback reply, got %q", out.Reply)
	}
	if len(disp.calls) != 1 || disp.calls[0].Text != DefaultFallbackReply {
		t.Errorf("expected fallback dispatched, got %+v", disp.calls)
	}
	if len(repo.turns) != 1 || !repo.turns[0].Degraded {
		t.Errorf("expected degraded turn recorded, got %+v", repo.turns)
	}

	wantTrail := []State{StateReceived, StateNormalized, StateGeneratingReply, StateGenerationFailed, StateDispatching, StateDispatched, StateResponded}
	if len(out.Trail) != len(wantTrail) {
		t.Fatalf("expected trail %v, got %v", wantTrail, out.Trail)
	}
	for i := range wantTrail {
		if out.Trail[i] != wantTrail[i] {
			t.Errorf("trail[%d]: expected %s, got %s", i, wantTrail[i], out.Trail[i])
		}
	}
}

func TestHandleWebhookGenerationFailureStrict(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	disp := &fakeDispatcher{}
	relay := newTestRelay(t, gen, disp, nil)

	out, err := relay.HandleWebhook(context.Background(), map[string]any{"phone": "1", "message": "oi"}, StrictPolicy)
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if out.Final() != StateGenerationFailed {
		t.Errorf("expected generation_failed, got %s", out.Final())
	}
	if len(disp.calls) != 0 {
		t.Error("expected no dispatch after strict generation failure")
	}
}

func TestHandleWebhookDispatchFailure(t *testing.T) {
	gen := &fakeGenerator{reply: "r"}
	disp := &fakeDispatcher{err: errors.New("connection refused")}
	repo := &fakeRepo{}
	relay := newTestRelay(t, gen, disp, repo)
	payload := map[string]any{"phone": "1", "message": "oi"}

	out, err := relay.HandleWebhook(context.Background(), payload, GatewayPolicy)
	if err != nil {
		t.Fatalf("expected dispatch failure absorbed, got %v", err)
	}
	if !errors.Is(out.DispatchErr, ErrDispatch) || out.Final() != StateDispatchFailed {
		t.Errorf("unexpected outcome %+v", out)
	}
	if len(repo.turns) != 1 || repo.turns[0].Delivered {
		t.Errorf("expected undelivered turn recorded, got %+v", repo.turns)
	}

	_, err = relay.HandleWebhook(context.Background(), payload, StrictPolicy)
	if !errors.Is(err, ErrDispatch) {
		t.Errorf("expected ErrDispatch on strict policy, got %v", err)
	}
}

func TestHandleWebhookPersistenceFailureAbsorbed(t *testing.T) {
	gen := &fakeGenerator{reply: "r"}
	disp := &fakeDispatcher{result: &domain.SendResult{}}
	repo := &fakeRepo{recordErr: errors.New("db down")}
	relay := newTestRelay(t, gen, disp, repo)

	for _, policy := range []Policy{GatewayPolicy, StrictPolicy} {
		out, err := relay.HandleWebhook(context.Background(), map[string]any{"phone": "1", "message": "oi"}, policy)
		if err != nil {
			t.Fatalf("expected persistence failure absorbed, got %v", err)
		}
		if !errors.Is(out.PersistErr, ErrPersistence) {
			t.Errorf("expected persistence error recorded, got %v", out.PersistErr)
		}
		if !out.Delivered() {
			t.Error("expected reply delivered")
		}
	}
}

func TestHandleWebhookWithoutPersist(t *testing.T) {
	gen := &fakeGenerator{reply: "r"}
	disp := &fakeDispatcher{result: &domain.SendResult{}}
	repo := &fakeRepo{}
	relay := newTestRelay(t, gen, disp, repo)

	_, err := relay.HandleWebhook(context.Background(), map[string]any{"phone": "1", "message": "oi"}, Policy{AlwaysAcknowledge: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.turns) != 0 {
		t.Errorf("expected no turn recorded, got %d", len(repo.turns))
	}
}

func TestHandleWebhookDetachesCancellation(t *testing.T) {
	gen := &fakeGenerator{reply: "r"}
	disp := &ctxCheckingDispatcher{}
	relay, err := NewRelay(nil, gen, disp, nil, discardLogger(), "")
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := relay.HandleWebhook(ctx, map[string]any{"phone": "1", "message": "oi"}, GatewayPolicy)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Delivered() {
		t.Errorf("expected delivery despite cancelled request context, got %v", out.DispatchErr)
	}
}

type ctxCheckingDispatcher struct{}

func (ctxCheckingDispatcher) Send(ctx context.Context, phoneNumber, text string) (*domain.SendResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &domain.SendResult{}, nil
}

func TestSendMessage(t *testing.T) {
	disp := &fakeDispatcher{result: &domain.SendResult{MessageID: "m9"}}
	repo := &fakeRepo{}
	relay := newTestRelay(t, &fakeGenerator{}, disp, repo)

	phone, res, err := relay.SendMessage(context.Background(), "+55 (11) 99999-9999", "olá")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if phone != "5511999999999" || res.MessageID != "m9" {
		t.Errorf("unexpected result %q %+v", phone, res)
	}
	if len(disp.calls) != 1 || disp.calls[0].Phone != "5511999999999" || disp.calls[0].Text != "olá" {
		t.Errorf("unexpected dispatch %+v", disp.calls)
	}

	if _, _, err := relay.SendMessage(context.Background(), "5511", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for empty message, got %v", err)
	}
	if _, _, err := relay.SendMessage(context.Background(), "abc", "x"); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for phone without digits, got %v", err)
	}

	disp.err = errors.New("down")
	if _, _, err := relay.SendMessage(context.Background(), "1", "x"); !errors.Is(err, ErrDispatch) {
		t.Errorf("expected ErrDispatch, got %v", err)
	}
}

func TestListTurns(t *testing.T) {
	relay := newTestRelay(t, &fakeGenerator{}, &fakeDispatcher{}, nil)
	page, err := relay.ListTurns(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Persisted || len(page.Messages) != 0 || page.Total != 0 {
		t.Errorf("expected empty page without store, got %+v", page)
	}

	repo := &fakeRepo{turns: []domain.ConversationTurn{{ID: 1}, {ID: 2}, {ID: 3}}}
	relay = newTestRelay(t, &fakeGenerator{}, &fakeDispatcher{}, repo)
	page, err = relay.ListTurns(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !page.Persisted || page.Total != 3 || len(page.Messages) != 2 || page.Messages[0].ID != 2 {
		t.Errorf("unexpected page %+v", page)
	}

	repo.listErr = errors.New("db down")
	if _, err := relay.ListTurns(context.Background(), 2, 0); !errors.Is(err, ErrPersistence) {
		t.Errorf("expected ErrPersistence, got %v", err)
	}
}

func TestNewRelayRequiresCollaborators(t *testing.T) {
	if _, err := NewRelay(nil, nil, &fakeDispatcher{}, nil, discardLogger(), ""); err == nil {
		t.Error("expected error without generator")
	}
	if _, err := NewRelay(nil, &fakeGenerator{}, nil, nil, discardLogger(), ""); err == nil {
		t.Error("expected error without dispatcher")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("olá", 10); got != "olá" {
		t.Errorf("unexpected %q", got)
	}
	if got := truncate("ãããã", 2); got != "ãã..." {
		t.Errorf("unexpected %q", got)
	}
}
