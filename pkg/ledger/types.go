package ledger

import (
	"time"

	"github.com/agentfleet/tokengate/pkg/model"
)

// UsageRecord is one billable LLM interaction. It is written exactly once per
// completed call and never updated; retention cleanup is the only way a
// record leaves the ledger. ID and Timestamp are assigned by the ledger at
// insertion time; values supplied by the caller are overwritten.
type UsageRecord struct {
	ID           string        `json:"id"`
	AgentID      model.AgentID `json:"agent_id"`
	Model        string        `json:"model"`
	InputTokens  int64         `json:"input_tokens"`
	OutputTokens int64         `json:"output_tokens"`
	CostUSD      float64       `json:"cost_usd"`
	ToolCalls    int64         `json:"tool_calls"`
	Timestamp    time.Time     `json:"timestamp"`
}

// UsageSummary aggregates usage over some window. It is derived per query,
// never stored; a window with no events is a valid all-zero summary.
type UsageSummary struct {
	TotalInputTokens  int64   `json:"total_input_tokens"`
	TotalOutputTokens int64   `json:"total_output_tokens"`
	TotalCostUSD      float64 `json:"total_cost_usd"`
	CallCount         int64   `json:"call_count"`
	TotalToolCalls    int64   `json:"total_tool_calls"`
}

// TotalTokens is the combined input and output token count.
func (s UsageSummary) TotalTokens() int64 {
	return s.TotalInputTokens + s.TotalOutputTokens
}

// ModelUsage is usage aggregated per model name, for reporting.
type ModelUsage struct {
	Model             string  `json:"model"`
	TotalCostUSD      float64 `json:"total_cost_usd"`
	TotalInputTokens  int64   `json:"total_input_tokens"`
	TotalOutputTokens int64   `json:"total_output_tokens"`
	CallCount         int64   `json:"call_count"`
}

// DailyBreakdown is one calendar day's usage, for reporting.
type DailyBreakdown struct {
	Date    string  `json:"date"` // YYYY-MM-DD (UTC)
	CostUSD float64 `json:"cost_usd"`
	Tokens  int64   `json:"tokens"` // input + output combined
	Calls   int64   `json:"calls"`
}
