package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentfleet/tokengate/pkg/ledger"
	"github.com/agentfleet/tokengate/pkg/model"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record one completed LLM interaction in the usage ledger",
	Long:  `Append a usage event with the agent, model, token counts, cost, and tool calls of one completed interaction.`,
	RunE:  runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringP("agent", "a", "", "Agent ID the call was made for")
	recordCmd.Flags().StringP("model", "m", "", "Model name (e.g., claude-sonnet, gpt-4o)")
	recordCmd.Flags().Int64("input-tokens", 0, "Input tokens consumed")
	recordCmd.Flags().Int64("output-tokens", 0, "Output tokens consumed")
	recordCmd.Flags().Float64("cost", 0, "Estimated cost in USD")
	recordCmd.Flags().Int64("tool-calls", 0, "Number of tool calls in the interaction")
	_ = recordCmd.MarkFlagRequired("agent")
	_ = recordCmd.MarkFlagRequired("model")
}

func runRecord(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	agentFlag, _ := cmd.Flags().GetString("agent")
	modelName, _ := cmd.Flags().GetString("model")
	inputTokens, _ := cmd.Flags().GetInt64("input-tokens")
	outputTokens, _ := cmd.Flags().GetInt64("output-tokens")
	cost, _ := cmd.Flags().GetFloat64("cost")
	toolCalls, _ := cmd.Flags().GetInt64("tool-calls")

	agent, err := model.ParseAgentID(agentFlag)
	if err != nil {
		return fmt.Errorf("invalid agent id %q: %w", agentFlag, err)
	}

	store, err := openLedger(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	rec := &ledger.UsageRecord{
		AgentID:      agent,
		Model:        modelName,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      cost,
		ToolCalls:    toolCalls,
	}
	if err := store.Record(cmd.Context(), rec); err != nil {
		return fmt.Errorf("record usage: %w", err)
	}

	fmt.Printf("Recorded usage event:\n")
	fmt.Printf("  ID:            %s\n", rec.ID)
	fmt.Printf("  Agent:         %s\n", rec.AgentID)
	fmt.Printf("  Model:         %s\n", rec.Model)
	fmt.Printf("  Input tokens:  %d\n", rec.InputTokens)
	fmt.Printf("  Output tokens: %d\n", rec.OutputTokens)
	fmt.Printf("  Cost:          $%.6f\n", rec.CostUSD)
	fmt.Printf("  Tool calls:    %d\n", rec.ToolCalls)

	return nil
}
