package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kyotake/machivoice/internal/llm"
)

type fakeProvider struct {
	reply string
	err   error
	calls []llm.CompletionRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply}, nil
}

func TestSummarize(t *testing.T) {
	provider := &fakeProvider{reply: `{"summary":{"good_point":"Responsive staff.","bad_point":"Slow repairs."}}`}
	service := NewService(provider, "fake-model")

	summary, err := service.Summarize(context.Background(), []string{"note one", "note two"})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.GoodPoint != "Responsive staff." || summary.BadPoint != "Slow repairs." {
		t.Errorf("unexpected summary %+v", summary)
	}

	req := provider.calls[0]
	if req.Schema == nil {
		t.Fatal("summary schema must be sent")
	}
	if !strings.Contains(req.Messages[0].Content, "note one") {
		t.Error("notes must be rendered into the prompt")
	}
}

func TestSummarizeNoNotes(t *testing.T) {
	service := NewService(&fakeProvider{}, "fake-model")
	if _, err := service.Summarize(context.Background(), nil); !errors.Is(err, ErrNoNotes) {
		t.Fatalf("expected ErrNoNotes, got %v", err)
	}
}

func TestSummarizeBadReplyShape(t *testing.T) {
	provider := &fakeProvider{reply: `{"something":"else"}`}
	service := NewService(provider, "fake-model")
	if _, err := service.Summarize(context.Background(), []string{"n"}); err == nil {
		t.Fatal("expected error on reply without summary")
	}
}

func TestHandleSummary(t *testing.T) {
	provider := &fakeProvider{reply: `{"summary":{"good_point":"g","bad_point":"b"}}`}
	r := chi.NewRouter()
	RegisterRoutes(r, NewService(provider, "fake-model"))

	req := httptest.NewRequest("POST", "/api/summary", strings.NewReader(`{"notes":["a","b"]}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp summaryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Success || resp.Summary == nil || resp.Summary.GoodPoint != "g" {
		t.Errorf("unexpected response %+v", resp)
	}
}
