package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/kyotake/machivoice/internal/db"
	"github.com/kyotake/machivoice/internal/geo"
	"github.com/kyotake/machivoice/internal/llm"
	"github.com/kyotake/machivoice/internal/metrics"
)

// fakeProvider returns queued replies in order and records requests.
type fakeProvider struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   []llm.CompletionRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return &llm.CompletionResponse{Content: reply, Model: "fake-model", FinishReason: "stop"}, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeResolver returns a fixed location, or an error, and counts calls.
type fakeResolver struct {
	loc   geo.Location
	err   error
	calls int
}

func (f *fakeResolver) Resolve(ctx context.Context, place string) (*geo.Location, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	loc := f.loc
	return &loc, nil
}

func extractionReply(t *testing.T, answer string, patch Patch, complete bool) string {
	t.Helper()
	form := map[string]any{"title": nil, "category": nil, "description": nil, "place": nil}
	if patch.Title != "" {
		form["title"] = patch.Title
	}
	if patch.Category != "" {
		form["category"] = patch.Category
	}
	if patch.Description != "" {
		form["description"] = patch.Description
	}
	if patch.Place != "" {
		form["place"] = patch.Place
	}
	b, err := json.Marshal(map[string]any{"answer": answer, "form": form, "form_complete": complete})
	if err != nil {
		t.Fatalf("marshal reply: %v", err)
	}
	return string(b)
}

func newTestEngine(t *testing.T, provider llm.Provider, resolver geo.Resolver) (*Engine, *Store) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	m := metrics.New(prometheus.NewRegistry())
	store := NewStore(database)
	committer := NewCommitter(resolver, store, zerolog.Nop(), m)
	return NewEngine(provider, "fake-model", "", committer, zerolog.Nop(), m), store
}

func TestInvokeEmptyConversation(t *testing.T) {
	provider := &fakeProvider{}
	engine, _ := newTestEngine(t, provider, &fakeResolver{})

	_, err := engine.Invoke(context.Background(), "alice@example.com", nil, Form{})
	if !errors.Is(err, ErrEmptyConversation) {
		t.Fatalf("expected ErrEmptyConversation, got %v", err)
	}
	if provider.callCount() != 0 {
		t.Errorf("model gateway must not be contacted, got %d calls", provider.callCount())
	}
}

func TestInvokeProgressiveCompletion(t *testing.T) {
	provider := &fakeProvider{replies: []string{
		extractionReply(t, "What should I call this report?", Patch{
			Category:    "request",
			Description: "street light is out",
			Place:       "Chuo, Tokyo",
		}, false),
		extractionReply(t, "Thank you, your feedback is filed.", Patch{
			Title: "broken street light",
		}, true),
	}}
	resolver := &fakeResolver{loc: geo.Location{Latitude: 35.6706, Longitude: 139.7720}}
	engine, store := newTestEngine(t, provider, resolver)
	ctx := context.Background()

	// Turn 1: three fields extracted, title still missing.
	history := []Message{{Role: RoleUser, Content: "The street light near my house is out, in Chuo, Tokyo."}}
	turn1, err := engine.Invoke(ctx, "alice@example.com", history, Form{})
	if err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	if turn1.FormComplete {
		t.Error("turn 1 must not be complete")
	}
	if turn1.Form.Title != "" || turn1.Form.Category != "request" || turn1.Form.Place != "Chuo, Tokyo" {
		t.Errorf("unexpected merged form after turn 1: %+v", turn1.Form)
	}
	if resolver.calls != 0 {
		t.Errorf("commit pipeline must not run on an incomplete form, geocoder called %d times", resolver.calls)
	}

	// Turn 2: the caller round-trips the merged form, title arrives.
	history = append(history,
		Message{Role: RoleAssistant, Content: turn1.Answer},
		Message{Role: RoleUser, Content: "Call it broken street light."},
	)
	turn2, err := engine.Invoke(ctx, "alice@example.com", history, turn1.Form)
	if err != nil {
		t.Fatalf("turn 2: %v", err)
	}
	if !turn2.FormComplete {
		t.Fatalf("turn 2 must be complete, form %+v", turn2.Form)
	}
	if resolver.calls != 1 {
		t.Errorf("commit pipeline must run exactly once, geocoder called %d times", resolver.calls)
	}

	opinions, err := store.ListOpinions(ctx, 10)
	if err != nil {
		t.Fatalf("ListOpinions: %v", err)
	}
	if len(opinions) != 1 {
		t.Fatalf("expected exactly one filed opinion, got %d", len(opinions))
	}
	op := opinions[0]
	if op.ID == "" {
		t.Error("expected generated opinion id")
	}
	if op.Contact != "alice@example.com" {
		t.Errorf("unexpected contact %q", op.Contact)
	}
	if op.Description != "street light is out" {
		t.Errorf("unexpected description %q", op.Description)
	}
	if op.Latitude != 35.6706 || op.Longitude != 139.7720 {
		t.Errorf("unexpected coordinates %v,%v", op.Latitude, op.Longitude)
	}
}

func TestInvokeContractViolationKeepsPriorForm(t *testing.T) {
	provider := &fakeProvider{replies: []string{"I am afraid I cannot format that."}}
	engine, _ := newTestEngine(t, provider, &fakeResolver{})

	prior := Form{Category: "question", Description: "d"}
	turn, err := engine.Invoke(context.Background(), "bob", []Message{{Role: RoleUser, Content: "hi"}}, prior)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if turn.Form != prior {
		t.Errorf("prior form must be kept on contract violation, got %+v", turn.Form)
	}
	if turn.Answer != "I am afraid I cannot format that." {
		t.Errorf("raw reply text must be surfaced, got %q", turn.Answer)
	}
	if turn.FormComplete {
		t.Error("completion must not advance on contract violation")
	}
}

func TestInvokeGatewayError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection refused")}
	engine, _ := newTestEngine(t, provider, &fakeResolver{})

	_, err := engine.Invoke(context.Background(), "bob", []Message{{Role: RoleUser, Content: "hi"}}, Form{})
	if err == nil {
		t.Fatal("expected gateway error")
	}
	if errors.Is(err, ErrEmptyConversation) || errors.Is(err, ErrContractViolation) {
		t.Fatalf("gateway failure misclassified: %v", err)
	}
}

func TestInvokeIgnoresGatewayCompletionClaim(t *testing.T) {
	// Gateway claims completion but the merged form is missing the place.
	provider := &fakeProvider{replies: []string{
		extractionReply(t, "done!", Patch{Title: "t", Category: "praise", Description: "d"}, true),
	}}
	resolver := &fakeResolver{}
	engine, _ := newTestEngine(t, provider, resolver)

	turn, err := engine.Invoke(context.Background(), "bob", []Message{{Role: RoleUser, Content: "hi"}}, Form{})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if turn.FormComplete {
		t.Error("completion must be recomputed from the merged form, not taken from the gateway")
	}
	if resolver.calls != 0 {
		t.Error("commit pipeline must not run")
	}
}

func TestInvokeGeocodeFailureDoesNotFailTurn(t *testing.T) {
	provider := &fakeProvider{replies: []string{
		extractionReply(t, "filed!", Patch{
			Title: "t", Category: "request", Description: "d", Place: "somewhere vague",
		}, true),
	}}
	resolver := &fakeResolver{err: geo.ErrNotFound}
	engine, store := newTestEngine(t, provider, resolver)

	turn, err := engine.Invoke(context.Background(), "bob", []Message{{Role: RoleUser, Content: "hi"}}, Form{})
	if err != nil {
		t.Fatalf("geocode failure must not fail the turn: %v", err)
	}
	if !turn.FormComplete {
		t.Error("turn must still report completion")
	}

	opinions, err := store.ListOpinions(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListOpinions: %v", err)
	}
	if len(opinions) != 0 {
		t.Errorf("no record must be filed on geocode failure, got %d", len(opinions))
	}
}

func TestInvokeAugmentsContext(t *testing.T) {
	provider := &fakeProvider{replies: []string{
		extractionReply(t, "ok", Patch{}, false),
	}}
	engine, _ := newTestEngine(t, provider, &fakeResolver{})

	prior := Form{Title: "broken street light"}
	history := []Message{
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "second"},
		{Role: RoleUser, Content: "third"},
	}
	if _, err := engine.Invoke(context.Background(), "bob", history, prior); err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	req := provider.calls[0]
	if req.Schema == nil {
		t.Fatal("extraction schema must be sent on every turn")
	}
	if len(req.Messages) != len(history)+2 {
		t.Fatalf("expected policy + form context + history, got %d messages", len(req.Messages))
	}
	if req.Messages[0].Role != llm.RoleSystem || req.Messages[1].Role != llm.RoleSystem {
		t.Error("augmented context must lead with system messages")
	}
	if want := "broken street light"; !strings.Contains(req.Messages[1].Content, want) {
		t.Errorf("form context must render prior values, missing %q in %q", want, req.Messages[1].Content)
	}
	for i, msg := range history {
		if req.Messages[i+2].Content != msg.Content {
			t.Errorf("history must be passed verbatim at position %d", i)
		}
	}
}
