// Package export renders a history snapshot into one of four artifact
// formats and writes it atomically under the agent's exports directory.
// Rendering is byte-deterministic: the same history and format always
// produce identical output, with no wall-clock content beyond the turns'
// own recorded timestamps. Artifacts are derived, never authoritative, and
// regenerated fresh on each request.
package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/convocli/convo/config"
	"github.com/convocli/convo/core"
	"github.com/convocli/convo/internal/fsx"
)

// Format selects the artifact rendering.
type Format string

// Supported formats.
const (
	FormatJSON     Format = "json" // full fidelity, round-trippable
	FormatText     Format = "txt"  // role-prefixed content lines only
	FormatMarkdown Format = "md"   // role headers plus content body
	FormatHTML     Format = "html" // self-contained styled document
)

// Valid reports whether the format is supported.
func (f Format) Valid() bool {
	switch f {
	case FormatJSON, FormatText, FormatMarkdown, FormatHTML:
		return true
	}
	return false
}

// Conversation is the render input: everything an artifact may embed.
type Conversation struct {
	AgentID string        `json:"agent_id"`
	Config  config.Config `json:"config"`
	Turns   core.History  `json:"turns"`
	Stats   core.Stats    `json:"statistics"`
}

// Render produces the artifact bytes for one format.
func Render(c Conversation, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return renderJSON(c)
	case FormatText:
		return renderText(c), nil
	case FormatMarkdown:
		return renderMarkdown(c), nil
	case FormatHTML:
		return renderHTML(c), nil
	default:
		return nil, &core.ExportError{AgentID: c.AgentID, Format: string(f), Err: fmt.Errorf("unsupported format")}
	}
}

// Write renders and atomically persists the artifact under dir, returning
// its path. The filename stamp derives from the last turn's timestamp so a
// given history exports to a stable name.
func Write(dir string, c Conversation, f Format) (string, error) {
	data, err := Render(c, f)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &core.ExportError{AgentID: c.AgentID, Format: string(f), Err: err}
	}
	path := filepath.Join(dir, fileName(c, f))
	if err := fsx.WriteFile(path, data, 0o644); err != nil {
		return "", &core.ExportError{AgentID: c.AgentID, Format: string(f), Err: err}
	}
	return path, nil
}

func fileName(c Conversation, f Format) string {
	stamp := "empty"
	if len(c.Turns) > 0 {
		stamp = c.Turns[len(c.Turns)-1].Timestamp.UTC().Format("20060102_150405")
	}
	return fmt.Sprintf("conversation_%s.%s", stamp, f)
}
