package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestOpenAIProvider(t *testing.T, model string, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", Model: model, BaseURL: server.URL + "/v1"})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4-turbo-preview",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	})
}

var titleSchema = &Schema{
	Name: "test_title",
	Definition: map[string]any{
		"type":                 "object",
		"properties":           map[string]any{"title": map[string]any{"type": "string"}},
		"required":             []any{"title"},
		"additionalProperties": false,
	},
}

func TestOpenAIProviderLegacyModelUsesJSONObject(t *testing.T) {
	var body map[string]any
	p := newTestOpenAIProvider(t, "", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		writeCompletion(w, `{"title":"Intro to Go"}`)
	})

	req := UserPrompt("You are a course designer.", "Return JSON.")
	req.Schema = titleSchema
	req.MaxTokens = 4000
	req.Temperature = 0.7
	resp, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"title":"Intro to Go"}` {
		t.Fatalf("unexpected content %s", resp.Content)
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 25 {
		t.Fatalf("unexpected usage %+v", resp.Usage)
	}
	if body["model"] != DefaultOpenAIModel {
		t.Fatalf("expected default model, got %v", body["model"])
	}
	format, _ := body["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json_object format, got %v", format)
	}
	if body["max_tokens"] != float64(4000) {
		t.Fatalf("expected max_tokens 4000, got %v", body["max_tokens"])
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(msgs))
	}
}

func TestOpenAIProviderStructuredModelUsesJSONSchema(t *testing.T) {
	var body map[string]any
	p := newTestOpenAIProvider(t, "gpt-4o-mini", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		writeCompletion(w, "```json\n{\"title\":\"Fenced\"}\n```")
	})

	req := UserPrompt("", "title please")
	req.Schema = titleSchema
	resp, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"title":"Fenced"}` {
		t.Fatalf("fence not stripped: %s", resp.Content)
	}
	format, _ := body["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Fatalf("expected json_schema format, got %v", format)
	}
}

func TestOpenAIProviderSchemaMismatch(t *testing.T) {
	p := newTestOpenAIProvider(t, "", func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(w, `{"name":"wrong field"}`)
	})
	req := UserPrompt("", "title please")
	req.Schema = titleSchema
	_, err := p.Generate(context.Background(), req)
	var invalid *ErrInvalidResponse
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestOpenAIProviderRateLimit(t *testing.T) {
	p := newTestOpenAIProvider(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "tokens", "message": "Rate limit exceeded", "code": "rate_limit_exceeded"},
		})
	})
	_, err := p.Generate(context.Background(), UserPrompt("", "test"))
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got %v", err)
	}
}

func TestOpenAIProviderServerError(t *testing.T) {
	p := newTestOpenAIProvider(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad gateway"}})
	})
	_, err := p.Generate(context.Background(), UserPrompt("", "test"))
	var unavailable *ErrProviderUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestNewOpenAIProviderRequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(OpenAIConfig{}); err == nil {
		t.Fatal("expected error without api key")
	}
}
