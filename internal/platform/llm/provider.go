// Package llm wraps chat-completion providers behind one structured-output
// interface. Responses are validated against the requested JSON schema
// before they are returned.
package llm

import (
	"context"
	"encoding/json"
)

type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	// ModelID names the model that serves requests, e.g. "gpt-4-turbo-preview".
	ModelID() string
}

type Request struct {
	System      string
	Messages    []Message
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is the JSON schema the provider must answer with. Name doubles as
// the cache key for the compiled validator.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

type Response struct {
	Content    json.RawMessage
	Model      string
	StopReason string
	Usage      Usage
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

// UserPrompt builds a single-turn request.
func UserPrompt(system, prompt string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	}
}
