package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentfleet/tokengate/pkg/ledger"
	"github.com/agentfleet/tokengate/pkg/model"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report recorded usage and cost",
	Long:  `Aggregate the usage ledger: overall totals, per-model breakdown, and a per-day view of the trailing window.`,
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringP("agent", "a", "", "Limit totals to one agent")
	reportCmd.Flags().Int("days", 7, "Days covered by the daily breakdown")
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	agentFlag, _ := cmd.Flags().GetString("agent")
	days, _ := cmd.Flags().GetInt("days")

	store, err := openLedger(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()

	var agent *model.AgentID
	if agentFlag != "" {
		id, err := model.ParseAgentID(agentFlag)
		if err != nil {
			return fmt.Errorf("invalid agent id %q: %w", agentFlag, err)
		}
		agent = &id
	}

	summary, err := store.Summary(ctx, agent)
	if err != nil {
		return fmt.Errorf("aggregate usage: %w", err)
	}

	if first, ok, err := store.FirstEventDate(ctx); err != nil {
		return fmt.Errorf("query first event: %w", err)
	} else if ok {
		fmt.Printf("Ledger since: %s\n\n", first.Format("2006-01-02"))
	}

	scope := "all agents"
	if agent != nil {
		scope = agent.String()
	}
	fmt.Printf("=== Usage (%s) ===\n", scope)
	fmt.Printf("Calls:         %d\n", summary.CallCount)
	fmt.Printf("Input tokens:  %d\n", summary.TotalInputTokens)
	fmt.Printf("Output tokens: %d\n", summary.TotalOutputTokens)
	fmt.Printf("Tool calls:    %d\n", summary.TotalToolCalls)
	fmt.Printf("Total cost:    $%.4f\n", summary.TotalCostUSD)

	if agent != nil {
		if err := reportAgentCost(cmd, store, *agent); err != nil {
			return fmt.Errorf("aggregate agent cost: %w", err)
		}
	}

	hourly, err := store.GlobalHourlyCost(ctx)
	if err != nil {
		return fmt.Errorf("aggregate hourly cost: %w", err)
	}
	today, err := store.TodayCost(ctx)
	if err != nil {
		return fmt.Errorf("aggregate today cost: %w", err)
	}
	monthly, err := store.GlobalMonthlyCost(ctx)
	if err != nil {
		return fmt.Errorf("aggregate monthly cost: %w", err)
	}
	fmt.Printf("\nFleet cost:    $%.4f last hour / $%.4f today / $%.4f this month\n",
		hourly, today, monthly)

	byModel, err := store.ByModel(ctx)
	if err != nil {
		return fmt.Errorf("aggregate by model: %w", err)
	}
	if len(byModel) > 0 {
		fmt.Printf("\nBy model:\n")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  MODEL\tCALLS\tIN\tOUT\tCOST\n")
		for _, m := range byModel {
			fmt.Fprintf(w, "  %s\t%d\t%d\t%d\t$%.4f\n",
				m.Model, m.CallCount, m.TotalInputTokens, m.TotalOutputTokens, m.TotalCostUSD)
		}
		w.Flush()
	}

	breakdown, err := store.DailyBreakdown(ctx, days)
	if err != nil {
		return fmt.Errorf("aggregate daily breakdown: %w", err)
	}
	if len(breakdown) > 0 {
		fmt.Printf("\nLast %d days:\n", days)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  DATE\tCALLS\tTOKENS\tCOST\n")
		for _, d := range breakdown {
			fmt.Fprintf(w, "  %s\t%d\t%d\t$%.4f\n", d.Date, d.Calls, d.Tokens, d.CostUSD)
		}
		w.Flush()
	}

	return nil
}

// reportAgentCost prints the three cost windows for one agent.
func reportAgentCost(cmd *cobra.Command, store ledger.Store, agent model.AgentID) error {
	ctx := cmd.Context()
	hourly, err := store.HourlyCost(ctx, agent)
	if err != nil {
		return err
	}
	daily, err := store.DailyCost(ctx, agent)
	if err != nil {
		return err
	}
	monthly, err := store.MonthlyCost(ctx, agent)
	if err != nil {
		return err
	}
	fmt.Printf("Agent cost:    $%.4f last hour / $%.4f today / $%.4f this month\n",
		hourly, daily, monthly)
	return nil
}
