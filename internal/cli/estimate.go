package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentfleet/tokengate/pkg/tokenizer"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate [text]",
	Short: "Estimate the token count of a prompt",
	Long: `Estimate how many tokens a prompt will consume before sending it, so a
host can weigh the request against the agent's remaining budget. Reads the
text from the argument, or from stdin when no argument is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)
	estimateCmd.Flags().StringP("model", "m", "gpt-4o", "Model the prompt is destined for")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	modelName, _ := cmd.Flags().GetString("model")

	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	count, err := tokenizer.EstimateTokens(text, modelName)
	if err != nil {
		return fmt.Errorf("estimate tokens: %w", err)
	}

	fmt.Printf("%d tokens (%s)\n", count, modelName)
	return nil
}
