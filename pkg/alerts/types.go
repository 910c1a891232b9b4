package alerts

import "context"

// Level indicates the severity of a budget alert.
type Level string

const (
	LevelWarning   Level = "warning"   // 90%+ of the hourly token budget
	LevelCritical  Level = "critical"  // 95%+, fallback model engaged
	LevelExhausted Level = "exhausted" // budget spent, requests blocked
)

// Alert is a budget-threshold notification for one agent. It is advisory
// only; the admission decision has already been made when it is dispatched.
type Alert struct {
	Level      Level   `json:"level"`
	AgentID    string  `json:"agent_id"`
	TokensUsed int64   `json:"tokens_used"`
	MaxTokens  int64   `json:"max_tokens"`
	Percent    float64 `json:"percent"`
	Message    string  `json:"message"`
}

// Notifier delivers alerts to external systems.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers an alert. Implementations must be safe for concurrent use.
	Send(ctx context.Context, alert Alert) error
}
