package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/convocli/convo"
	"github.com/convocli/convo/config"
	"github.com/convocli/convo/export"
)

const helpText = `Commands:
  /history [n]   show the last n turns (default 10)
  /search TERM   search the conversation
  /stats         conversation statistics
  /config        show current configuration
  /export FMT    export conversation (json, txt, md, html)
  /files         list files available for {name} inclusion
  /clear         clear history (a backup is kept)
  /quit          exit`

// chatLoop drives the interactive session: plain input is sent to the
// model, /-prefixed input is a local command.
func chatLoop(cmd *cobra.Command, agent *convo.Agent, flags rootFlags) error {
	cmd.Printf("Chatting with agent %q (%s). Type /help for commands, /quit to exit.\n",
		agent.ID(), agent.Config().Model.DisplayName())

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") {
			done, err := handleCommand(cmd, agent, input)
			if err != nil {
				cmd.PrintErrln("error:", err)
			}
			if done {
				return nil
			}
			continue
		}
		if err := send(cmd, agent, input, flags); err != nil {
			cmd.PrintErrln("error:", err)
		}
	}
}

func send(cmd *cobra.Command, agent *convo.Agent, message string, flags rootFlags) error {
	streamed := false
	turn, err := agent.Send(cmd.Context(), message, func(o *convo.SendOptions) {
		o.Effort = config.Effort(flags.effort)
		if flags.temperature >= 0 {
			o.Temperature = &flags.temperature
		}
		o.NoStream = flags.noStream
		o.OnFragment = func(fragment string) {
			streamed = true
			cmd.Print(fragment)
		}
	})
	if err != nil {
		return err
	}
	if streamed {
		cmd.Println()
	} else {
		cmd.Println(turn.Content)
	}
	return nil
}

func handleCommand(cmd *cobra.Command, agent *convo.Agent, input string) (done bool, err error) {
	parts := strings.Fields(input[1:])
	if len(parts) == 0 {
		return false, nil
	}
	switch parts[0] {
	case "help":
		cmd.Println(helpText)
	case "quit", "exit", "q":
		return true, nil
	case "history":
		limit := 10
		if len(parts) > 1 {
			if n, convErr := strconv.Atoi(parts[1]); convErr == nil && n > 0 {
				limit = n
			}
		}
		h, err := agent.History()
		if err != nil {
			return false, err
		}
		for _, t := range h.Tail(limit) {
			cmd.Printf("[%d] %s: %s\n", t.Seq, strings.ToUpper(string(t.Role)), t.Preview(100))
		}
	case "search":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /search TERM")
		}
		results, err := agent.Search(strings.Join(parts[1:], " "), 10)
		if err != nil {
			return false, err
		}
		if len(results) == 0 {
			cmd.Println("no matches")
			return false, nil
		}
		for _, r := range results {
			cmd.Printf("[%d] %s: %s\n", r.Turn.Seq, strings.ToUpper(string(r.Turn.Role)), r.Preview)
		}
	case "stats":
		st, err := agent.Stats()
		if err != nil {
			return false, err
		}
		cmd.Printf("turns: %d (%d user, %d assistant)\n", st.TotalTurns, st.UserTurns, st.AssistantTurns)
		cmd.Printf("characters: %d total, %d average\n", st.TotalChars, st.AvgChars)
		cmd.Printf("tokens: %d total, %d average\n", st.TotalTokens, st.AvgTokens)
		if st.MeanLatency > 0 {
			cmd.Printf("latency: min %s, max %s, mean %s\n", st.MinLatency, st.MaxLatency, st.MeanLatency)
		}
		if st.Duration > 0 {
			cmd.Printf("duration: %s\n", st.Duration)
		}
	case "config":
		cfg := agent.Config()
		cmd.Printf("model=%s temperature=%.2f effort=%s summary=%s stream=%v cap=%d timeout=%s\n",
			cfg.Model, cfg.Temperature, cfg.ReasoningEffort, cfg.ReasoningSum,
			cfg.Stream, cfg.MaxHistorySize, cfg.Timeout())
	case "export":
		if len(parts) < 2 {
			return false, fmt.Errorf("usage: /export json|txt|md|html")
		}
		path, err := agent.Export(export.Format(parts[1]))
		if err != nil {
			return false, err
		}
		cmd.Println("exported to", path)
	case "files":
		files := agent.ListFiles()
		if len(files) == 0 {
			cmd.Println("no includable files found")
		}
		for _, f := range files {
			cmd.Println(f)
		}
	case "clear":
		if err := agent.Clear(); err != nil {
			return false, err
		}
		cmd.Println("history cleared (backup kept)")
	default:
		cmd.Printf("unknown command %q, see /help\n", parts[0])
	}
	return false, nil
}
