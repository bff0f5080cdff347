package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/convocli/convo"
	"github.com/convocli/convo/config"
	"github.com/convocli/convo/export"
)

type rootFlags struct {
	agentID     string
	modelID     string
	root        string
	list        bool
	info        string
	exportFmt   string
	effort      string
	temperature float64
	noStream    bool
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	cmd := &cobra.Command{
		Use:           "convo",
		Short:         "Persistent multi-turn conversations with named agents",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags)
		},
	}
	cmd.Flags().StringVar(&flags.agentID, "agent-id", "", "agent id for the chat session")
	cmd.Flags().StringVar(&flags.modelID, "model", string(config.VariantFull), "model variant (gpt-5, gpt-5-mini, gpt-5-nano)")
	cmd.Flags().StringVar(&flags.root, "root", convo.DefaultRoot, "agents directory")
	cmd.Flags().BoolVar(&flags.list, "list", false, "list all available agents")
	cmd.Flags().StringVar(&flags.info, "info", "", "show configuration and statistics for an agent")
	cmd.Flags().StringVar(&flags.exportFmt, "export", "", "export conversation (json, txt, md, html) and exit")
	cmd.Flags().StringVar(&flags.effort, "effort", "", "override reasoning effort (low, medium, high)")
	cmd.Flags().Float64Var(&flags.temperature, "temperature", -1, "override temperature (0.0-2.0)")
	cmd.Flags().BoolVar(&flags.noStream, "no-stream", false, "disable streaming")
	return cmd
}

func run(cmd *cobra.Command, flags rootFlags) error {
	if flags.list {
		ids, err := convo.ListAgents(flags.root)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			cmd.Println("no agents found")
			return nil
		}
		for _, id := range ids {
			cmd.Println(id)
		}
		return nil
	}

	if flags.info != "" {
		return showInfo(cmd, flags.root, flags.info)
	}

	if flags.agentID == "" {
		return fmt.Errorf("--agent-id is required")
	}

	agent, err := convo.Open(flags.agentID, func(o *convo.Options) {
		o.Root = flags.root
		o.Variant = config.Variant(flags.modelID)
	})
	if err != nil {
		return err
	}
	defer agent.Close()

	if flags.exportFmt != "" {
		path, err := agent.Export(export.Format(flags.exportFmt))
		if err != nil {
			return err
		}
		cmd.Println("exported to", path)
		return nil
	}

	return chatLoop(cmd, agent, flags)
}

func showInfo(cmd *cobra.Command, root, agentID string) error {
	agent, err := convo.Open(agentID, func(o *convo.Options) { o.Root = root })
	if err != nil {
		return err
	}
	defer agent.Close()

	info, err := agent.Info()
	if err != nil {
		return err
	}
	cfg := info.Config
	cmd.Printf("Agent:             %s\n", info.ID)
	cmd.Printf("Model:             %s (%s)\n", cfg.Model, info.DisplayName)
	cmd.Printf("Temperature:       %.2f\n", cfg.Temperature)
	cmd.Printf("Reasoning effort:  %s\n", cfg.ReasoningEffort)
	cmd.Printf("Reasoning summary: %s\n", cfg.ReasoningSum)
	cmd.Printf("Streaming:         %v\n", cfg.Stream)
	cmd.Printf("History cap:       %d\n", cfg.MaxHistorySize)
	cmd.Printf("Call timeout:      %s\n", info.Timeout)

	st := info.Stats
	cmd.Printf("Turns:             %d (%d user, %d assistant)\n", st.TotalTurns, st.UserTurns, st.AssistantTurns)
	if !st.FirstTurn.IsZero() {
		cmd.Printf("First turn:        %s\n", st.FirstTurn.Format("2006-01-02 15:04:05"))
		cmd.Printf("Last turn:         %s\n", st.LastTurn.Format("2006-01-02 15:04:05"))
	}
	return nil
}
