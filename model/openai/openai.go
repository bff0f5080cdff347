// Package openai adapts the OpenAI Chat Completions API (streaming and
// non-streaming) to the generic model.Model interface. Variant ids map
// directly onto provider model names; reasoning effort is forwarded as the
// API's reasoning_effort parameter.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/convocli/convo/config"
	"github.com/convocli/convo/model"
)

// Model wraps the OpenAI Chat Completions API behind model.Model.
type Model struct {
	client *openai.Client
}

// NewModel creates the adapter with a client configured from the
// environment (OPENAI_API_KEY).
func NewModel() *Model {
	client := openai.NewClient()
	return NewModelFromClient(&client)
}

// NewModelFromClient creates the adapter from an existing client.
func NewModelFromClient(client *openai.Client) *Model {
	return &Model{client: client}
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Name: "chat-completions", Provider: "openai"}
}

// Generate implements unified streaming / non-streaming generation.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		params := buildParams(req)
		if req.Stream {
			m.handleStreaming(ctx, params, out, errCh)
			return
		}
		m.handleNonStreaming(ctx, params, out, errCh)
	}()
	return out, errCh
}

// buildParams assembles the provider request from the normalized one.
func buildParams(req model.Request) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	params := openai.ChatCompletionNewParams{
		Messages:        messages,
		Model:           shared.ChatModel(req.Variant),
		Temperature:     openai.Float(req.Temperature),
		ReasoningEffort: reasoningEffort(req.ReasoningEffort),
	}
	if req.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxOutputTokens))
	}
	return params
}

func reasoningEffort(e config.Effort) shared.ReasoningEffort {
	switch e {
	case config.EffortLow:
		return shared.ReasoningEffortLow
	case config.EffortHigh:
		return shared.ReasoningEffortHigh
	default:
		return shared.ReasoningEffortMedium
	}
}

// handleStreaming forwards partial text deltas in arrival order, then emits
// the final response with accumulated content, finish reason and usage.
func (m *Model) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{IncludeUsage: openai.Bool(true)}
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	var builder strings.Builder
	var usage *model.Usage
	finish := ""
	for stream.Next() {
		ck := stream.Current()
		if ck.Usage.TotalTokens > 0 {
			usage = &model.Usage{
				PromptTokens:     int(ck.Usage.PromptTokens),
				CompletionTokens: int(ck.Usage.CompletionTokens),
				TotalTokens:      int(ck.Usage.TotalTokens),
			}
		}
		for _, ch := range ck.Choices {
			if ch.Delta.Content != "" {
				builder.WriteString(ch.Delta.Content)
				out <- model.Response{Partial: true, Content: ch.Delta.Content}
			}
			if ch.FinishReason != "" {
				finish = ch.FinishReason
			}
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("openai streaming error: %w", err)
		return
	}
	if finish == "" {
		// Stream drained without a finish signal; treat as abnormal end by
		// closing the channel with no final response.
		return
	}
	out <- model.Response{Content: builder.String(), FinishReason: finish, Usage: usage}
}

// handleNonStreaming processes one blocking completion.
func (m *Model) handleNonStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("openai api error: %w", err)
		return
	}
	if len(resp.Choices) == 0 {
		errCh <- fmt.Errorf("openai api returned no choices")
		return
	}
	choice := resp.Choices[0]
	out <- model.Response{
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage: &model.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
}

var _ model.Model = (*Model)(nil)
