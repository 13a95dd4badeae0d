package gemini

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/spigell/expert-scout/internal/ai"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

type modelCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeModels struct {
	mu    sync.Mutex
	calls []modelCall
	queue []fakeResponse
}

func (f *fakeModels) enqueue(resp *genai.GenerateContentResponse, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, fakeResponse{resp: resp, err: err})
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, modelCall{model: model, contents: contents, config: config})
	if len(f.queue) == 0 {
		return nil, errors.New("unexpected call")
	}
	res := f.queue[0]
	f.queue = f.queue[1:]
	return res.resp, res.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func newTestGenerator(t *testing.T, m models, retries int) (*Generator, *[]time.Duration) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Model = "gemini-pro"
	cfg.MaxRetries = retries

	g, err := newGenerator(m, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("newGenerator: %v", err)
	}
	var slept []time.Duration
	g.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return g, &slept
}

func TestAskSendsGenerationParameters(t *testing.T) {
	m := &fakeModels{}
	m.enqueue(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: &genai.Content{Parts: []*genai.Part{{Text: " Hello! "}, {Text: ""}}}},
		nil,
		{Content: &genai.Content{Parts: []*genai.Part{nil, {Text: "How can I help?"}}}},
	}}, nil)

	g, _ := newTestGenerator(t, m, 2)

	answer, err := g.Ask(context.Background(), "  Hello, can you help me?  ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if answer.Text != "Hello!\nHow can I help?" {
		t.Fatalf("unexpected answer: %q", answer.Text)
	}
	if answer.Model != "gemini-pro" {
		t.Fatalf("unexpected model: %q", answer.Model)
	}

	if len(m.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(m.calls))
	}
	call := m.calls[0]
	if got := call.contents[0].Parts[0].Text; got != "Hello, can you help me?" {
		t.Fatalf("unexpected message: %q", got)
	}
	if call.contents[0].Role != genai.RoleUser {
		t.Fatalf("unexpected role: %q", call.contents[0].Role)
	}

	cfg := call.config
	want := ai.DefaultParams()
	if cfg.MaxOutputTokens != int32(want.MaxOutputTokens) {
		t.Fatalf("max output tokens = %d", cfg.MaxOutputTokens)
	}
	checks := map[string]struct {
		got  *float32
		want float32
	}{
		"temperature":       {cfg.Temperature, 0.5},
		"top_p":             {cfg.TopP, 1},
		"top_k":             {cfg.TopK, 40},
		"presence_penalty":  {cfg.PresencePenalty, 0},
		"frequency_penalty": {cfg.FrequencyPenalty, 0},
	}
	for name, c := range checks {
		if c.got == nil || *c.got != c.want {
			t.Fatalf("%s = %v, want %v", name, c.got, c.want)
		}
	}
}

func TestAskRetriesOnTemporaryError(t *testing.T) {
	m := &fakeModels{}
	m.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	m.enqueue(textResponse("retry ok"), nil)

	g, slept := newTestGenerator(t, m, 2)

	answer, err := g.Ask(context.Background(), "message")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if answer.Text != "retry ok" {
		t.Fatalf("unexpected output: %q", answer.Text)
	}
	if len(m.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(m.calls))
	}
	if len(*slept) != 1 || (*slept)[0] != retryPause {
		t.Fatalf("unexpected sleeps: %v", *slept)
	}
}

func TestAskStopsAfterRetriesExhausted(t *testing.T) {
	m := &fakeModels{}
	tempErr := genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	m.enqueue(nil, tempErr)
	m.enqueue(nil, tempErr)

	g, _ := newTestGenerator(t, m, 2)

	if _, err := g.Ask(context.Background(), "msg"); err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if len(m.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(m.calls))
	}
}

func TestAskPausesForFixedDelay(t *testing.T) {
	m := &fakeModels{}
	m.enqueue(nil, genai.APIError{Code: http.StatusInternalServerError, Status: "INTERNAL"})
	m.enqueue(nil, genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED"})
	m.enqueue(nil, genai.APIError{Code: http.StatusBadGateway, Status: "UNAVAILABLE"})
	m.enqueue(textResponse("fourth time"), nil)

	g, slept := newTestGenerator(t, m, 4)

	answer, err := g.Ask(context.Background(), "message")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if answer.Text != "fourth time" {
		t.Fatalf("unexpected output: %q", answer.Text)
	}
	want := []time.Duration{retryPause, retryPause, retryPause}
	if len(*slept) != len(want) {
		t.Fatalf("unexpected sleeps: %v", *slept)
	}
	for i, d := range *slept {
		if d != want[i] {
			t.Fatalf("sleep %d = %v, want %v", i, d, want[i])
		}
	}
}

func TestAskDoesNotRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "long quota delay",
			err: genai.APIError{
				Code:    http.StatusTooManyRequests,
				Status:  "RESOURCE_EXHAUSTED",
				Message: "quota exhausted, retry after 60 seconds",
			},
		},
		{name: "bad request", err: genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"}},
		{name: "transport", err: errors.New("connection reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeModels{}
			m.enqueue(nil, tt.err)

			g, _ := newTestGenerator(t, m, 3)

			if _, err := g.Ask(context.Background(), "msg"); err == nil {
				t.Fatal("expected error")
			}
			if len(m.calls) != 1 {
				t.Fatalf("expected single call, got %d", len(m.calls))
			}
		})
	}
}

func TestAskRejectsEmpty(t *testing.T) {
	m := &fakeModels{}
	g, _ := newTestGenerator(t, m, 1)

	if _, err := g.Ask(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty message")
	}

	m.enqueue(textResponse("   "), nil)
	if _, err := g.Ask(context.Background(), "hi"); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestQuotaDelay(t *testing.T) {
	d, ok := quotaDelay("Please retry in 7.5s.")
	if !ok || d != 7500*time.Millisecond {
		t.Fatalf("quotaDelay = %v, %v", d, ok)
	}
	if _, ok := quotaDelay("quota exhausted"); ok {
		t.Fatal("expected no delay")
	}
}
