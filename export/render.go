package export

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/convocli/convo/core"
)

const timeLayout = "2006-01-02 15:04:05"

// renderJSON emits the full-fidelity envelope. Re-parsing with ParseJSON
// yields a history equal to the input (round-trip law).
func renderJSON(c Conversation) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, &core.ExportError{AgentID: c.AgentID, Format: string(FormatJSON), Err: err}
	}
	return append(data, '\n'), nil
}

// ParseJSON decodes a structured-data artifact back into a Conversation.
func ParseJSON(data []byte) (Conversation, error) {
	var c Conversation
	if err := json.Unmarshal(data, &c); err != nil {
		return Conversation{}, fmt.Errorf("parse export: %w", err)
	}
	return c, nil
}

// renderText emits role-prefixed content lines only; metadata is dropped.
func renderText(c Conversation) []byte {
	var b strings.Builder
	for _, t := range c.Turns {
		b.WriteString(strings.ToUpper(string(t.Role)))
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// renderMarkdown emits role headers plus content bodies, suitable for
// direct display.
func renderMarkdown(c Conversation) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s Conversation\n\n", c.Config.Model.DisplayName())
	fmt.Fprintf(&b, "**Agent ID:** %s  \n", c.AgentID)
	fmt.Fprintf(&b, "**Model:** %s  \n\n", c.Config.Model)
	for _, t := range c.Turns {
		emoji := "🤖"
		if t.Role == core.RoleUser {
			emoji = "🧑"
		}
		title := strings.ToUpper(string(t.Role)[:1]) + string(t.Role)[1:]
		fmt.Fprintf(&b, "## %s %s - %s\n\n", emoji, title, t.Timestamp.UTC().Format(timeLayout))
		b.WriteString(t.Content)
		b.WriteString("\n\n")
	}
	return []byte(b.String())
}

// renderHTML emits a self-contained styled document with no external
// resource dependencies. Content is escaped; styling is embedded.
func renderHTML(c Conversation) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>%s Conversation - %s</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
       line-height: 1.6; color: #1e293b; background: #f1f5f9; padding: 2rem; }
.container { max-width: 56rem; margin: 0 auto; background: white;
             border-radius: 1rem; padding: 2rem; box-shadow: 0 1px 3px rgba(0,0,0,.1); }
.header { border-bottom: 1px solid #e2e8f0; margin-bottom: 2rem; padding-bottom: 1rem; }
.turn { margin-bottom: 1.5rem; border: 1px solid #e2e8f0; border-radius: .75rem; padding: 1rem; }
.turn.user { border-left: 4px solid #3b82f6; }
.turn.assistant { border-left: 4px solid #10b981; }
.role { font-weight: bold; font-size: .85rem; text-transform: uppercase; color: #64748b; }
.timestamp { font-size: .75rem; color: #94a3b8; }
.content { white-space: pre-wrap; margin-top: .5rem; }
</style>
</head>
<body>
<div class="container">
<div class="header">
<h1>%s Conversation</h1>
<p>Agent: %s &middot; Model: %s &middot; Turns: %d</p>
</div>
`,
		html.EscapeString(c.Config.Model.DisplayName()), html.EscapeString(c.AgentID),
		html.EscapeString(c.Config.Model.DisplayName()), html.EscapeString(c.AgentID),
		html.EscapeString(string(c.Config.Model)), len(c.Turns))

	for _, t := range c.Turns {
		fmt.Fprintf(&b, `<div class="turn %s">
<span class="role">%s</span> <span class="timestamp">%s</span>
<div class="content">%s</div>
</div>
`,
			t.Role, t.Role, t.Timestamp.UTC().Format(timeLayout),
			html.EscapeString(t.Content))
	}
	b.WriteString("</div>\n</body>\n</html>\n")
	return []byte(b.String())
}
