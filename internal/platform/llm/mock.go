package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockProvider replays queued responses in FIFO order. Tests use it in
// place of a network provider.
type MockProvider struct {
	mu        sync.Mutex
	model     string
	responses []mockResult
	calls     []Request
}

type mockResult struct {
	content json.RawMessage
	err     error
}

func NewMockProvider(model string) *MockProvider {
	if model == "" {
		model = "mock"
	}
	return &MockProvider{model: model}
}

// AddResponse queues raw JSON content.
func (m *MockProvider) AddResponse(content string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResult{content: json.RawMessage(content)})
	return m
}

func (m *MockProvider) AddError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResult{err: err})
	return m
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	if len(m.responses) == 0 {
		m.mu.Unlock()
		return nil, &ErrProviderUnavailable{Provider: m.model, Err: fmt.Errorf("no mock responses queued")}
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if next.err != nil {
		return nil, next.err
	}
	content, err := validateResponse(req.Schema, next.content)
	if err != nil {
		return nil, err
	}
	return &Response{Content: content, Model: m.model, StopReason: "end"}, nil
}

func (m *MockProvider) ModelID() string { return m.model }

func (m *MockProvider) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
