package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentfleet/tokengate/pkg/budget"
	"github.com/agentfleet/tokengate/pkg/model"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check an agent's hourly token budget",
	Long: `Classify an agent's token usage over the sliding last hour against its
quota. The quota and fallback chain come from a manifest file, or the quota
can be given directly with --max-tokens.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringP("agent", "a", "", "Agent ID to check")
	checkCmd.Flags().String("manifest", "", "Agent manifest file (quota and fallback models)")
	checkCmd.Flags().Uint64("max-tokens", 0, "Hourly token quota (0 = unlimited; ignored with --manifest)")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	agentFlag, _ := cmd.Flags().GetString("agent")
	manifestPath, _ := cmd.Flags().GetString("manifest")
	maxTokens, _ := cmd.Flags().GetUint64("max-tokens")

	quota := model.ResourceQuota{MaxTokensPerHour: maxTokens}
	var fallbacks []model.FallbackModel

	if manifestPath != "" {
		m, err := model.LoadManifest(manifestPath)
		if err != nil {
			return err
		}
		quota = m.Quota
		fallbacks = m.FallbackModels
		if agentFlag == "" {
			agentFlag = m.AgentID.String()
		}
	}
	if agentFlag == "" {
		return fmt.Errorf("an agent id is required (--agent or --manifest)")
	}

	agent, err := model.ParseAgentID(agentFlag)
	if err != nil {
		return fmt.Errorf("invalid agent id %q: %w", agentFlag, err)
	}

	// No explicit manifest or quota: look the agent up in the configured
	// manifests directory.
	if manifestPath == "" && !cmd.Flags().Changed("max-tokens") {
		if m := findManifest(cfg.Manifests.Dir, agent); m != nil {
			quota = m.Quota
			fallbacks = m.FallbackModels
		}
	}

	store, err := openLedger(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	tracker := budget.NewTracker(store, logger, newNotifiers(cfg)...)
	result, err := tracker.CheckBudget(cmd.Context(), agent, quota)
	if err != nil {
		return fmt.Errorf("check budget: %w", err)
	}

	fmt.Printf("Agent:  %s\n", agent)
	fmt.Printf("Status: %s\n", result.Status)
	if result.Status != budget.StatusUnlimited {
		fmt.Printf("Used:   %d / %d tokens this hour (%.1f%%)\n",
			result.TokensUsed, result.MaxTokens, result.Percent)
	}

	switch {
	case result.IsExhausted():
		fmt.Println("Action: block requests until the hourly window slides")
	case result.ShouldFallback():
		fb, err := budget.SelectFallbackModel(fallbacks)
		if err != nil {
			return fmt.Errorf("agent must be blocked: %w", err)
		}
		fmt.Printf("Action: switch to fallback model %s/%s\n", fb.Provider, fb.Model)
	case result.IsWarning():
		fmt.Println("Action: none; approaching the limit")
	}

	return nil
}

// findManifest returns the manifest in dir declaring the given agent id, or
// nil when the directory is missing or no manifest matches.
func findManifest(dir string, agent model.AgentID) *model.Manifest {
	manifests, err := model.LoadManifestDir(dir)
	if err != nil {
		return nil
	}
	for _, m := range manifests {
		if m.AgentID == agent {
			return m
		}
	}
	return nil
}
