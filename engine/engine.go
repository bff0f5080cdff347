// Package engine orchestrates one model call end to end: it builds the
// request from configuration and retained history, runs it under the
// timeout/cancellation policy, assembles the streamed or complete response,
// and appends the finalized turns. History is never touched on a failure
// path; only a fully assembled response yields appendable turns.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/convocli/convo/config"
	"github.com/convocli/convo/core"
	"github.com/convocli/convo/logging"
	"github.com/convocli/convo/model"
)

// Engine drives model calls for one agent. One call is in flight at a time;
// the store serializes persistence underneath.
type Engine struct {
	agentID string
	model   model.Model
	store   core.Store
	log     logging.Logger
}

// Options configure engine construction.
type Options struct {
	Logger logging.Logger
}

// New creates an engine bound to an agent's store and model endpoint.
func New(agentID string, m model.Model, store core.Store, optFns ...func(o *Options)) *Engine {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Engine{agentID: agentID, model: m, store: store, log: opts.Logger}
}

// SendOptions configure one Send call.
type SendOptions struct {
	// OnFragment receives each content fragment as it arrives, in order.
	// Only invoked for streaming calls.
	OnFragment func(string)
}

// Send submits the user message and returns the finalized assistant turn.
//
// On success the user turn and the assistant turn are appended in that
// order. On timeout, stream interruption or upstream error nothing is
// persisted and the history remains byte-identical to its pre-call state.
func (e *Engine) Send(ctx context.Context, cfg config.Config, message string, optFns ...func(o *SendOptions)) (core.Turn, error) {
	var opts SendOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	h, err := e.store.Load()
	if err != nil {
		return core.Turn{}, err
	}
	req := model.BuildRequest(cfg, h, message)
	userTurn := core.NewTurn(core.RoleUser, message)

	window := cfg.Timeout()
	callID := core.NewID()
	e.log.Info("model call starting",
		"call_id", callID,
		"model", string(cfg.Model),
		"reasoning_effort", string(cfg.ReasoningEffort),
		"stream", cfg.Stream,
		"timeout", window,
	)

	callCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	start := time.Now()
	out, errCh := e.model.Generate(callCtx, req)
	asm := &assembler{onFragment: opts.OnFragment}
	state := asm.run(callCtx, out, errCh)
	latency := time.Since(start)

	switch state {
	case StateCompleted:
		// fall through to append below
	case StateTimedOut:
		e.log.Warn("model call timed out", "call_id", callID, "window", window, "elapsed", latency)
		return core.Turn{}, &core.TimeoutError{AgentID: e.agentID, Window: window.String()}
	case StateInterrupted:
		if ctx.Err() != nil {
			// Parent cancellation (user abort), not a policy timeout.
			return core.Turn{}, ctx.Err()
		}
		if cfg.Stream {
			e.log.Warn("stream ended abnormally, assembled content discarded",
				"call_id", callID, "assembled_bytes", asm.content.Len(), "cause", asm.err)
			return core.Turn{}, &core.StreamInterruptedError{AgentID: e.agentID, Err: asm.err}
		}
		cause := asm.err
		if cause == nil {
			cause = fmt.Errorf("no response received")
		}
		return core.Turn{}, fmt.Errorf("agent %s: model call failed: %w", e.agentID, cause)
	default:
		return core.Turn{}, fmt.Errorf("agent %s: assembly ended in state %s", e.agentID, state)
	}

	assistantTurn := core.NewTurn(core.RoleAssistant, asm.text())
	assistantTurn.Metadata = &core.Metadata{
		LatencyMS:        latency.Milliseconds(),
		ReasoningSummary: asm.reasoningSummary(),
		FinishReason:     asm.final.FinishReason,
	}
	if u := asm.final.Usage; u != nil {
		assistantTurn.Metadata.PromptTokens = u.PromptTokens
		assistantTurn.Metadata.CompletionTokens = u.CompletionTokens
		assistantTurn.Metadata.TotalTokens = u.TotalTokens
	}
	if cfg.ReasoningSum == config.SummaryNone {
		assistantTurn.Metadata.ReasoningSummary = ""
	}

	if err := e.store.Append(userTurn); err != nil {
		return core.Turn{}, err
	}
	if err := e.store.Append(assistantTurn); err != nil {
		return core.Turn{}, err
	}

	tokens := 0
	if asm.final.Usage != nil {
		tokens = asm.final.Usage.TotalTokens
	}
	e.log.Info("model call completed", "call_id", callID, "tokens", tokens, "duration", latency)
	return assistantTurn, nil
}
