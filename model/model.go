package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/GediminasPukys/clinic-voice-agent/core"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function exposed to the model.
// Parameters is a JSON Schema object (minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// Request captures the normalized model input produced by the agent loop.
// Instructions carry the persona/system prompt; Contents the conversation
// including prior function calls and their responses.
type Request struct {
	Instructions string           `json:"instructions"`
	Contents     []core.Content   `json:"contents"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
type Response struct {
	ID           string       `json:"id"`
	Partial      bool         `json:"partial"`
	Content      core.Content `json:"content"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface the agent needs to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is an in-memory Model for tests and examples. It replays a
// scripted sequence of turns, one per Generate call, so tests can make the
// model request function calls and then produce a closing reply.
type MockModel struct {
	info Info

	mu    sync.Mutex
	turns []core.Content
	calls []Request
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info: Info{Name: name, Provider: "mock", SupportsTools: true},
	}
}

// QueueText scripts a plain assistant text turn.
func (m *MockModel) QueueText(text string) {
	m.QueueContent(core.NewTextContent("assistant", text))
}

// QueueFunctionCalls scripts an assistant turn requesting the given calls.
func (m *MockModel) QueueFunctionCalls(calls ...core.FunctionCall) {
	parts := make([]core.Part, 0, len(calls))
	for _, fc := range calls {
		parts = append(parts, core.FunctionCallPart{FunctionCall: fc})
	}
	m.QueueContent(core.Content{Role: "assistant", Parts: parts})
}

// QueueContent scripts an arbitrary assistant turn.
func (m *MockModel) QueueContent(c core.Content) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, c)
}

// Requests returns a copy of every request seen so far, in order.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// Generate implements Model by emitting the next scripted turn.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.calls = append(m.calls, req)
	var next core.Content
	if len(m.turns) > 0 {
		next = m.turns[0]
		m.turns = m.turns[1:]
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)
		if err := ctx.Err(); err != nil {
			errCh <- err
			return
		}
		if next.Parts == nil {
			errCh <- fmt.Errorf("mock model: no scripted turn remaining")
			return
		}
		finish := "stop"
		if len(next.FunctionCalls()) > 0 {
			finish = "tool_calls"
		}
		respCh <- Response{Partial: false, Content: next, FinishReason: finish}
	}()
	return respCh, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
