package gemini

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type fakeModels struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     []fakeCall
}

type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

type fakeCall struct {
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var prompt strings.Builder
	for _, c := range contents {
		for _, p := range c.Parts {
			prompt.WriteString(p.Text)
		}
	}
	f.calls = append(f.calls, fakeCall{model: model, prompt: prompt.String(), config: config})

	if len(f.responses) == 0 {
		return nil, errors.New("no response queued")
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	return next.resp, next.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{Role: genai.RoleModel}
	for _, p := range parts {
		content.Parts = append(content.Parts, &genai.Part{Text: p})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

func newTestGenerator(models *fakeModels, retries int) *Generator {
	g := newGenerator(models, "", retries, zap.NewNop())
	g.backoff = 0
	return g
}

func TestGeneratorGenerateContent(t *testing.T) {
	models := &fakeModels{responses: []fakeResponse{{resp: textResponse(" first ", "", "second")}}}
	g := newTestGenerator(models, 0)

	out, err := g.GenerateContent(context.Background(), "  hello  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "first\nsecond" {
		t.Fatalf("unexpected output %q", out)
	}

	if len(models.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(models.calls))
	}
	call := models.calls[0]
	if call.model != defaultModel {
		t.Fatalf("expected default model %q, got %q", defaultModel, call.model)
	}
	if call.prompt != "hello" {
		t.Fatalf("expected trimmed prompt, got %q", call.prompt)
	}
	if call.config != nil {
		t.Fatalf("expected no config for plain content")
	}
	if g.Model() != defaultModel {
		t.Fatalf("unexpected model %q", g.Model())
	}
}

func TestGeneratorGenerateJSON(t *testing.T) {
	models := &fakeModels{responses: []fakeResponse{{resp: textResponse(`{"ok": true}`)}}}
	g := newTestGenerator(models, 0)

	if _, err := g.GenerateJSON(context.Background(), "json please"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg := models.calls[0].config; cfg == nil || cfg.ResponseMIMEType != "application/json" {
		t.Fatalf("expected json response mime type, got %+v", cfg)
	}
}

func TestGeneratorRetries(t *testing.T) {
	models := &fakeModels{responses: []fakeResponse{
		{err: errors.New("503 unavailable")},
		{resp: textResponse("")},
		{resp: textResponse("recovered")},
	}}
	g := newTestGenerator(models, 2)

	out, err := g.GenerateContent(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "recovered" {
		t.Fatalf("unexpected output %q", out)
	}
	if len(models.calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(models.calls))
	}
}

func TestGeneratorGivesUp(t *testing.T) {
	models := &fakeModels{responses: []fakeResponse{
		{err: errors.New("boom")},
		{err: errors.New("boom again")},
	}}
	g := newTestGenerator(models, 1)

	_, err := g.GenerateContent(context.Background(), "prompt")
	if err == nil || !strings.Contains(err.Error(), "after 2 attempt(s)") || !strings.Contains(err.Error(), "boom again") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGeneratorStopsOnCancel(t *testing.T) {
	models := &fakeModels{responses: []fakeResponse{{err: errors.New("boom")}}}
	g := newTestGenerator(models, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.GenerateContent(ctx, "prompt")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(models.calls) != 1 {
		t.Fatalf("expected a single call, got %d", len(models.calls))
	}
}

func TestGeneratorValidation(t *testing.T) {
	if _, err := NewGenerator(context.Background(), "  ", "model", 0, nil); err == nil {
		t.Fatalf("expected error for empty api key")
	}

	g := newTestGenerator(&fakeModels{}, 0)
	if _, err := g.GenerateContent(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for empty prompt")
	}

	var nilGen *Generator
	if _, err := nilGen.GenerateContent(context.Background(), "prompt"); err == nil {
		t.Fatalf("expected error for nil generator")
	}
	if nilGen.Model() != "" {
		t.Fatalf("expected empty model for nil generator")
	}
}
