// Package model defines the normalized request/response contract for remote
// model endpoints plus a scripted mock. Provider adapters live in
// sub-packages (openai, anthropic) and are swapped behind the Model
// interface without per-provider branching upstream.
package model

import (
	"context"
	"fmt"

	"github.com/convocli/convo/config"
	"github.com/convocli/convo/core"
)

// Message is one role-tagged context entry sent to the provider. Role is a
// wire-level string ("system", "user", "assistant") rather than core.Role
// because system prompts exist only at request time.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request captures the normalized model input built from an agent's
// configuration and history.
type Request struct {
	Variant          config.Variant     `json:"model"`
	Temperature      float64            `json:"temperature"`
	ReasoningEffort  config.Effort      `json:"reasoning_effort"`
	// ReasoningSummary is honored only by endpoints that can return
	// reasoning summaries; the chat-completions and messages adapters have
	// no such parameter and ignore it.
	ReasoningSummary config.SummaryMode `json:"reasoning_summary"`
	MaxOutputTokens  int                `json:"max_output_tokens,omitempty"`
	Stream           bool               `json:"stream,omitempty"`
	System           string             `json:"system,omitempty"`
	Messages         []Message          `json:"messages"`
}

// Usage captures token usage statistics for a completed response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a partial or final fragment emitted by a model.
//
// Streaming contract: zero or more Partial responses arrive in order,
// terminated by exactly one final (Partial=false) response carrying the
// complete content. A channel that closes without a final response is an
// abnormal stream end.
type Response struct {
	Partial          bool   `json:"partial"`
	Content          string `json:"content"`
	ReasoningSummary string `json:"reasoning_summary,omitempty"`
	FinishReason     string `json:"finish_reason,omitempty"`
	Usage            *Usage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock"
}

// Model is the minimal interface the engine needs to drive generation.
// Implementations must respect ctx cancellation promptly, closing any open
// stream, and must close both channels when done.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)
	Info() Info
}

// MockModel is a lightweight in-memory Model for tests and examples. It
// replays canned completions, optionally as rune-by-rune streams, and can
// simulate abnormal stream ends and unbounded hangs.
type MockModel struct {
	info      Info
	responses map[string]string

	// InterruptAfter, when > 0, closes the stream abnormally after that
	// many partial fragments (no final response is emitted).
	InterruptAfter int
	// Block, when set, emits nothing and waits for ctx cancellation.
	Block bool
	// FailWith, when set, reports this error immediately in place of any
	// response (simulating rate-limit, auth or server failures).
	FailWith error
}

// NewMockModel constructs a MockModel.
func NewMockModel() *MockModel {
	return &MockModel{
		info:      Info{Name: "mock", Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Generate implements Model; emits optional streaming rune chunks then the
// final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 16)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)

		if m.FailWith != nil {
			errCh <- m.FailWith
			return
		}
		if m.Block {
			<-ctx.Done()
			errCh <- ctx.Err()
			return
		}
		if len(req.Messages) == 0 {
			errCh <- fmt.Errorf("no messages provided")
			return
		}
		input := req.Messages[len(req.Messages)-1].Content
		full := m.responses[input]
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", input)
		}
		if req.Stream {
			emitted := 0
			for _, r := range full {
				if m.InterruptAfter > 0 && emitted >= m.InterruptAfter {
					return // abnormal end: channel closes with no final response
				}
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case out <- Response{Partial: true, Content: string(r)}:
					emitted++
				}
			}
		}
		summary := ""
		if req.ReasoningSummary != "" && req.ReasoningSummary != config.SummaryNone {
			summary = fmt.Sprintf("Considered %q and replied directly.", input)
		}
		out <- Response{
			Content:          full,
			ReasoningSummary: summary,
			FinishReason:     "stop",
			Usage:            &Usage{PromptTokens: len(input), CompletionTokens: len(full), TotalTokens: len(input) + len(full)},
		}
	}()
	return out, errCh
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

// BuildRequest assembles a Request from an agent's configuration, retained
// history and the new user message. History is bounded by the config cap.
func BuildRequest(cfg config.Config, h core.History, userMessage string) Request {
	req := Request{
		Variant:          cfg.Model,
		Temperature:      cfg.Temperature,
		ReasoningEffort:  cfg.ReasoningEffort,
		ReasoningSummary: cfg.ReasoningSum,
		MaxOutputTokens:  cfg.MaxOutputTokens,
		Stream:           cfg.Stream,
		System:           cfg.SystemPrompt,
	}
	for _, t := range h.Tail(cfg.MaxHistorySize) {
		req.Messages = append(req.Messages, Message{Role: string(t.Role), Content: t.Content})
	}
	req.Messages = append(req.Messages, Message{Role: string(core.RoleUser), Content: userMessage})
	return req
}
