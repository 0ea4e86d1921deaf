package rewrite

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"articles/backend/internal/cohere"
)

type chatStub struct {
	replies map[string]string
	errs    map[string]error
	models  []string
	prompts []cohere.ChatRequest
}

func (c *chatStub) Chat(_ context.Context, req cohere.ChatRequest) (string, error) {
	c.models = append(c.models, req.Model)
	c.prompts = append(c.prompts, req)
	if err, ok := c.errs[req.Model]; ok {
		return "", err
	}
	return c.replies[req.Model], nil
}

func TestGenerateFallsBackOnModelNotFound(t *testing.T) {
	client := &chatStub{
		errs:    map[string]error{"model-x": cohere.APIError{StatusCode: http.StatusNotFound, Body: "model 'model-x' not found"}},
		replies: map[string]string{"model-y": "  rewritten by y \n"},
	}

	text, err := NewGenerator(client, []string{"model-x", "model-y"}, 0.6, nil).
		Generate(context.Background(), "original", refTextA, refTextB, []string{"https://a.example", "https://b.example"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "rewritten by y" {
		t.Fatalf("unexpected text: %q", text)
	}
	if strings.Join(client.models, ",") != "model-x,model-y" {
		t.Fatalf("unexpected attempt order: %v", client.models)
	}
}

func TestGenerateAbortsOnOtherErrors(t *testing.T) {
	client := &chatStub{
		errs:    map[string]error{"model-x": cohere.APIError{StatusCode: http.StatusTooManyRequests, Body: "rate limited"}},
		replies: map[string]string{"model-y": "should not be used"},
	}

	_, err := NewGenerator(client, []string{"model-x", "model-y"}, 0.6, nil).
		Generate(context.Background(), "original", refTextA, refTextB, nil)
	if !HasKind(err, KindGeneration) {
		t.Fatalf("expected generation error, got %v", err)
	}
	if len(client.models) != 1 {
		t.Fatalf("expected only model-x to be tried, got %v", client.models)
	}
	if !strings.Contains(err.Error(), "model-x") {
		t.Fatalf("expected failing model in message, got %v", err)
	}
}

func TestGenerateReportsAllModelsWhenExhausted(t *testing.T) {
	notFound := errors.New("model was removed")
	client := &chatStub{errs: map[string]error{"a": notFound, "b": notFound, "c": notFound}}

	_, err := NewGenerator(client, []string{"a", "b", "c"}, 0.6, nil).
		Generate(context.Background(), "original", refTextA, refTextB, nil)
	if !HasKind(err, KindGeneration) {
		t.Fatalf("expected generation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Tried models: a, b, c") {
		t.Fatalf("expected attempted list in message, got %v", err)
	}
	if !errors.Is(err, notFound) {
		t.Fatalf("expected last error in chain, got %v", err)
	}
	if AsError(err).Status() != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", AsError(err).Status())
	}
}

func TestGenerateMissingKeyIsConfigError(t *testing.T) {
	client := &chatStub{errs: map[string]error{"a": cohere.ErrMissingAPIKey}}

	_, err := NewGenerator(client, []string{"a", "b"}, 0.6, nil).
		Generate(context.Background(), "original", refTextA, refTextB, nil)
	if !HasKind(err, KindConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
	if !strings.Contains(err.Error(), "COHERE_API_KEY") {
		t.Fatalf("expected credential hint, got %v", err)
	}
	if len(client.models) != 1 {
		t.Fatalf("expected no further models after missing key, got %v", client.models)
	}
}

func TestGenerateRejectsEmptyOutput(t *testing.T) {
	client := &chatStub{replies: map[string]string{"a": "   "}}

	_, err := NewGenerator(client, []string{"a"}, 0.6, nil).
		Generate(context.Background(), "original", refTextA, refTextB, nil)
	if !HasKind(err, KindGeneration) {
		t.Fatalf("expected generation error for empty output, got %v", err)
	}
}

func TestGeneratePromptCarriesInputsAndReferences(t *testing.T) {
	client := &chatStub{replies: map[string]string{"a": "ok"}}

	_, err := NewGenerator(client, []string{"a"}, 0.6, nil).
		Generate(context.Background(), "ORIGINAL BODY", "REF ONE", "REF TWO", []string{"https://a.example/1", "Article: Local"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	req := client.prompts[0]
	if req.Temperature != 0.6 {
		t.Fatalf("unexpected temperature: %v", req.Temperature)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
	user := req.Messages[1].Content
	for _, want := range []string{"ORIGINAL BODY", "REF ONE", "REF TWO", `"References"`, "- https://a.example/1", "- Article: Local", "Do not copy content"} {
		if !strings.Contains(user, want) {
			t.Fatalf("user prompt missing %q:\n%s", want, user)
		}
	}
}

func TestGenerateWithoutModels(t *testing.T) {
	_, err := NewGenerator(&chatStub{}, nil, 0.6, nil).Generate(context.Background(), "o", "a", "b", nil)
	if !HasKind(err, KindGeneration) {
		t.Fatalf("expected generation error, got %v", err)
	}
}
