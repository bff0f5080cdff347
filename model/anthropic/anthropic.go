// Package anthropic adapts the Anthropic Messages API to the generic
// model.Model interface as an alternate provider. Variant tiers map onto
// Claude model ids; reasoning effort influences only the caller's
// cancellation window since the Messages API has no equivalent parameter.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/convocli/convo/config"
	"github.com/convocli/convo/model"
)

// defaultMaxTokens applies when the request leaves MaxOutputTokens unset;
// the Messages API requires an explicit bound.
const defaultMaxTokens = 4096

var tierModels = map[config.Variant]anthropic.Model{
	config.VariantFull: anthropic.Model("claude-opus-4-0"),
	config.VariantMini: anthropic.ModelClaude3_5Sonnet20241022,
	config.VariantNano: anthropic.Model("claude-3-5-haiku-latest"),
}

// Model wraps the Anthropic Messages API behind model.Model.
type Model struct {
	client *anthropic.Client
}

// Options configure adapter construction.
type Options struct {
	APIKey string
}

// NewModel creates the adapter; an empty APIKey falls back to the
// environment (ANTHROPIC_API_KEY).
func NewModel(optFns ...func(o *Options)) *Model {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return &Model{client: &client}
}

// NewModelFromClient creates the adapter from an existing client.
func NewModelFromClient(client *anthropic.Client) *Model {
	return &Model{client: client}
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Name: "messages", Provider: "anthropic"}
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

func buildParams(req model.Request) anthropic.MessageNewParams {
	maxTokens := int64(defaultMaxTokens)
	if req.MaxOutputTokens > 0 {
		maxTokens = int64(req.MaxOutputTokens)
	}
	claudeModel, ok := tierModels[req.Variant]
	if !ok {
		claudeModel = anthropic.Model(req.Variant)
	}
	params := anthropic.MessageNewParams{
		Model:       claudeModel,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(req.Temperature),
		Messages:    buildMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	return params
}

func buildMessages(msgs []model.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, msg := range msgs {
		block := anthropic.NewTextBlock(msg.Content)
		switch msg.Role {
		case "assistant":
			out = append(out, anthropic.NewAssistantMessage(block))
		default:
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

// handleStreaming forwards text deltas in arrival order, accumulating the
// final message for content, stop reason and usage.
func (m *Model) handleStreaming(
	ctx context.Context,
	params anthropic.MessageNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Messages.NewStreaming(ctx, params)
	var builder strings.Builder
	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			errCh <- fmt.Errorf("anthropic stream accumulate: %w", err)
			return
		}
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				builder.WriteString(delta.Text)
				out <- model.Response{Partial: true, Content: delta.Text}
			}
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("anthropic streaming error: %w", err)
		return
	}
	if message.StopReason == "" {
		return // stream drained without a completion signal
	}
	out <- model.Response{
		Content:      builder.String(),
		FinishReason: string(message.StopReason),
		Usage: &model.Usage{
			PromptTokens:     int(message.Usage.InputTokens),
			CompletionTokens: int(message.Usage.OutputTokens),
			TotalTokens:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
		},
	}
}

// handleNonStreaming processes one blocking Messages call.
func (m *Model) handleNonStreaming(
	ctx context.Context,
	params anthropic.MessageNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("anthropic api error: %w", err)
		return
	}
	var builder strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			builder.WriteString(block.AsText().Text)
		}
	}
	out <- model.Response{
		Content:      builder.String(),
		FinishReason: string(resp.StopReason),
		Usage: &model.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}
}

var _ model.Model = (*Model)(nil)
