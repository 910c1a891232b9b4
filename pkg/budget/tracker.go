// Package budget turns an agent's recorded hourly token usage into an
// admission decision: keep going, degrade to a fallback model, or block.
//
// Thresholds:
//   - 90%: warning
//   - 95%: critical, switch to the first fallback model in the manifest
//   - 100%: exhausted, block the request
package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agentfleet/tokengate/pkg/alerts"
	"github.com/agentfleet/tokengate/pkg/ledger"
	"github.com/agentfleet/tokengate/pkg/model"
)

// ErrQuotaExceeded means an agent's budget ran out and no fallback model is
// configured. The caller should block the agent rather than degrade it.
var ErrQuotaExceeded = errors.New("quota exceeded")

const (
	warningPercent  = 90.0
	criticalPercent = 95.0
)

// UsageSource is the slice of the ledger the tracker needs.
type UsageSource interface {
	HourlyTokens(ctx context.Context, agent model.AgentID) (ledger.UsageSummary, error)
}

// Tracker classifies agents' hourly token usage against their quotas. It is
// stateless: every check re-derives the status from the ledger's current
// window, so an agent can move between any two statuses across consecutive
// checks as usage accrues or the window slides.
type Tracker struct {
	usage     UsageSource
	logger    *slog.Logger
	notifiers []alerts.Notifier
}

// NewTracker creates a budget tracker over the given usage source. Notifiers
// are optional; they receive an alert whenever a check lands at warning or
// above.
func NewTracker(usage UsageSource, logger *slog.Logger, notifiers ...alerts.Notifier) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{usage: usage, logger: logger, notifiers: notifiers}
}

// Status is the admission classification of one budget check.
type Status string

const (
	StatusUnlimited Status = "unlimited" // no limit configured
	StatusHealthy   Status = "healthy"   // under 90%
	StatusWarning   Status = "warning"   // 90%+ but under 95%
	StatusCritical  Status = "critical"  // 95%+ but under the limit
	StatusExhausted Status = "exhausted" // at or over the limit
)

// CheckResult is the outcome of one budget check. It is never persisted;
// it exists only for the caller's resulting action.
type CheckResult struct {
	Status     Status
	TokensUsed int64
	MaxTokens  int64
	// Percent is TokensUsed/MaxTokens*100; zero when Status is Unlimited.
	Percent float64
}

// IsExhausted reports whether the request must be blocked.
func (r CheckResult) IsExhausted() bool { return r.Status == StatusExhausted }

// ShouldFallback reports whether the caller should switch to a fallback
// model. True only for critical; exhausted is past the point of degrading.
func (r CheckResult) ShouldFallback() bool { return r.Status == StatusCritical }

// IsWarning reports whether only a warning applies.
func (r CheckResult) IsWarning() bool { return r.Status == StatusWarning }

// CheckBudget classifies an agent's current hourly token usage against its
// quota. A quota of zero is unlimited and never touches the ledger. The
// comparison used >= max is authoritative for exhaustion; the floating
// percent only separates the lower bands, so a value at exactly the limit
// can never round its way down into critical.
func (t *Tracker) CheckBudget(ctx context.Context, agent model.AgentID, quota model.ResourceQuota) (CheckResult, error) {
	if quota.Unlimited() {
		return CheckResult{Status: StatusUnlimited}, nil
	}

	summary, err := t.usage.HourlyTokens(ctx, agent)
	if err != nil {
		return CheckResult{}, fmt.Errorf("query hourly tokens: %w", err)
	}

	used := summary.TotalTokens()
	max := int64(quota.MaxTokensPerHour)
	percent := float64(used) / float64(max) * 100

	result := CheckResult{TokensUsed: used, MaxTokens: max, Percent: percent}
	switch {
	case used >= max:
		result.Status = StatusExhausted
	case percent >= criticalPercent:
		result.Status = StatusCritical
	case percent >= warningPercent:
		result.Status = StatusWarning
	default:
		result.Status = StatusHealthy
	}

	t.report(ctx, agent, result)
	return result, nil
}

// SelectFallbackModel returns the first entry of an agent's ordered fallback
// list, or ErrQuotaExceeded when none are configured.
func SelectFallbackModel(fallbacks []model.FallbackModel) (model.FallbackModel, error) {
	if len(fallbacks) == 0 {
		return model.FallbackModel{}, fmt.Errorf(
			"%w: token budget exhausted and no fallback models configured", ErrQuotaExceeded)
	}
	return fallbacks[0], nil
}

// report emits the operator-facing signal for a check. Side effect only;
// notifier failures are logged and never surface to the caller.
func (t *Tracker) report(ctx context.Context, agent model.AgentID, r CheckResult) {
	attrs := []any{
		"agent_id", agent.String(),
		"tokens_used", r.TokensUsed,
		"max_tokens", r.MaxTokens,
		"usage_percent", fmt.Sprintf("%.1f%%", r.Percent),
	}

	var level alerts.Level
	switch r.Status {
	case StatusExhausted:
		t.logger.Warn("agent has exhausted hourly token budget", attrs...)
		level = alerts.LevelExhausted
	case StatusCritical:
		t.logger.Warn("agent approaching token limit (95%+), will switch to fallback model", attrs...)
		level = alerts.LevelCritical
	case StatusWarning:
		t.logger.Warn("agent approaching token limit (90%+)", attrs...)
		level = alerts.LevelWarning
	default:
		t.logger.Debug("token budget healthy", attrs...)
		return
	}

	alert := alerts.Alert{
		Level:      level,
		AgentID:    agent.String(),
		TokensUsed: r.TokensUsed,
		MaxTokens:  r.MaxTokens,
		Percent:    r.Percent,
		Message: fmt.Sprintf("agent %s at %.1f%% of hourly token budget (%d / %d)",
			agent, r.Percent, r.TokensUsed, r.MaxTokens),
	}
	for _, n := range t.notifiers {
		if err := n.Send(ctx, alert); err != nil {
			t.logger.Error("send budget alert failed",
				"notifier", n.Name(), "agent_id", agent.String(), "error", err)
		}
	}
}
