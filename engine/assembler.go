package engine

import (
	"context"
	"strings"

	"github.com/convocli/convo/model"
)

// State tracks stream assembly as a cooperative state machine. Transitions
// are driven by fragment-arrival events and the cancellation timer; only
// StateCompleted permits constructing a finalized turn.
type State int

// Assembly states.
const (
	StateIdle State = iota
	StateReceiving
	StateCompleted
	StateInterrupted
	StateTimedOut
)

// String returns the state name for logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReceiving:
		return "receiving"
	case StateCompleted:
		return "completed"
	case StateInterrupted:
		return "interrupted"
	case StateTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// assembler concatenates response fragments in arrival order. It never
// reorders or buffers beyond termination detection; each content fragment is
// surfaced through onFragment as it arrives.
type assembler struct {
	state      State
	content    strings.Builder
	summary    strings.Builder
	final      *model.Response
	err        error
	onFragment func(string)
}

// feed applies one response event. Fragment order is arrival order.
func (a *assembler) feed(resp model.Response) {
	if a.state == StateIdle {
		a.state = StateReceiving
	}
	if resp.Partial {
		if resp.Content != "" {
			a.content.WriteString(resp.Content)
			if a.onFragment != nil {
				a.onFragment(resp.Content)
			}
		}
		if resp.ReasoningSummary != "" {
			a.summary.WriteString(resp.ReasoningSummary)
		}
		return
	}
	r := resp
	a.final = &r
	a.state = StateCompleted
}

// run drains the model channels until a terminal state. The returned state
// is one of Completed, Interrupted or TimedOut; err carries the upstream or
// context cause for the two failure states.
func (a *assembler) run(ctx context.Context, out <-chan model.Response, errCh <-chan error) State {
	for {
		select {
		case <-ctx.Done():
			a.err = ctx.Err()
			if ctx.Err() == context.DeadlineExceeded {
				a.state = StateTimedOut
			} else {
				a.state = StateInterrupted
			}
			return a.state
		case resp, ok := <-out:
			if !ok {
				if a.state == StateCompleted {
					return a.state
				}
				// Closed without a final response: check for a terminal
				// upstream error, otherwise the stream ended abnormally.
				select {
				case err := <-errCh:
					if err != nil {
						a.err = err
					}
				default:
				}
				a.state = StateInterrupted
				return a.state
			}
			a.feed(resp)
		case err := <-errCh:
			if err == nil {
				continue
			}
			a.err = err
			if ctx.Err() == context.DeadlineExceeded {
				a.state = StateTimedOut
			} else {
				a.state = StateInterrupted
			}
			return a.state
		}
	}
}

// text returns the assembled content: the final response's complete content
// when present, otherwise the fragment concatenation.
func (a *assembler) text() string {
	if a.final != nil && a.final.Content != "" {
		return a.final.Content
	}
	return a.content.String()
}

// reasoningSummary returns accumulated summary fragments plus any summary on
// the final response.
func (a *assembler) reasoningSummary() string {
	if a.final != nil && a.final.ReasoningSummary != "" {
		a.summary.WriteString(a.final.ReasoningSummary)
		a.final.ReasoningSummary = ""
	}
	return a.summary.String()
}
