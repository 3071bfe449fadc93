package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/flowpipe/flowpipe/core"
)

// Request captures the normalized completion input produced by the step
// executor. Pointer fields are optional generation parameters; adapters must
// omit unset parameters from provider requests rather than sending nulls.
type Request struct {
	Messages []core.Message `json:"messages"`

	Model            string           `json:"model,omitempty"`
	Temperature      *float64         `json:"temperature,omitempty"`
	TopP             *float64         `json:"top_p,omitempty"`
	N                *int64           `json:"n,omitempty"`
	MaxTokens        *int64           `json:"max_tokens,omitempty"`
	Stop             []string         `json:"stop,omitempty"`
	PresencePenalty  *float64         `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64         `json:"frequency_penalty,omitempty"`
	LogitBias        map[string]int64 `json:"logit_bias,omitempty"`
	User             *string          `json:"user,omitempty"`
}

// TokenUsage captures token usage statistics for a response. Usage is logged
// for accounting only; no layer above the adapter acts on it.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the generated completion returned by a model.
type Response struct {
	Text         string      `json:"text"`
	FinishReason string      `json:"finish_reason,omitempty"` // "stop", "length", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "gemini", "anthropic", "mock", etc.
}

// Model is the minimal interface the step executor requires from a
// text-completion capability. Implementations own their retry/timeout policy;
// any error returned here is final for the calling step.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// Resolver maps a provider selector to a Model instance. The executor uses it
// so step specifications can route to different backends per step.
type Resolver func(provider, modelID string) (Model, error)

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Canned responses are keyed on the final user message content.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	fallback  string
	err       error
	requests  []Request
}

// NewMockModel constructs a MockModel.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for a user prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// SetFallback sets the completion returned when no canned response matches.
func (m *MockModel) SetFallback(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = response
}

// FailWith makes every subsequent Generate call return the given error.
func (m *MockModel) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns a snapshot of every request seen, for test assertions.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	var prompt string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == core.RoleUser {
			prompt = req.Messages[i].Content
			break
		}
	}
	text, ok := m.responses[prompt]
	if !ok {
		if m.fallback != "" {
			text = m.fallback
		} else {
			text = fmt.Sprintf("Mock response to: %s", prompt)
		}
	}
	return &Response{
		Text:         text,
		FinishReason: "stop",
		Usage:        &TokenUsage{PromptTokens: len(prompt), CompletionTokens: len(text), TotalTokens: len(prompt) + len(text)},
	}, nil
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
