package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/grocerymesh/core"
)

// Content roles understood by the provider adapters.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function exposed to the model.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request is the provider-neutral model input.
type Request struct {
	Instructions string           `json:"instructions"`
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is one complete model turn.
type Response struct {
	ID           string       `json:"id"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model generates one assistant turn for a request.
type Model interface {
	Generate(ctx context.Context, req Request) (Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel replays scripted responses in order and records every request.
// It is safe for concurrent use.
type MockModel struct {
	mu        sync.Mutex
	responses []Response
	requests  []Request
}

// NewMockModel creates a MockModel that returns responses one per call.
func NewMockModel(responses ...Response) *MockModel {
	return &MockModel{responses: responses}
}

// Generate returns the next scripted response.
func (m *MockModel) Generate(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.responses) == 0 {
		return Response{}, fmt.Errorf("mock model: no scripted response left")
	}
	r := m.responses[0]
	m.responses = m.responses[1:]
	return r, nil
}

// Requests returns a copy of the recorded requests.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Info implements Model.
func (m *MockModel) Info() Info {
	return Info{Name: "mock", Provider: "mock", SupportsTools: true}
}

// TextResponse builds a final assistant text turn.
func TextResponse(text string) Response {
	return Response{Content: core.NewTextContent(RoleAssistant, text), FinishReason: "stop"}
}

// ToolCallResponse builds an assistant turn requesting the given calls.
func ToolCallResponse(calls ...core.FunctionCall) Response {
	parts := make([]core.Part, 0, len(calls))
	for _, c := range calls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: c})
	}
	return Response{Content: core.Content{Role: RoleAssistant, Parts: parts}, FinishReason: "tool_calls"}
}

// ToolResultText renders a function response as the text sent back to a
// provider. Errors are prefixed so the model can tell them apart.
func ToolResultText(fr core.FunctionResponse) (string, bool) {
	if fr.Error != "" {
		return "error: " + fr.Error, true
	}
	switch v := fr.Response.(type) {
	case nil:
		return "", false
	case string:
		return v, false
	default:
		return fmt.Sprintf("%v", v), false
	}
}
