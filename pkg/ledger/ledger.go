// Package ledger is the durable usage ledger of the runtime: an append-only
// record of every billable LLM interaction, with windowed and grouped
// aggregation queries and retention cleanup. Admission decisions are built on
// top of it by pkg/budget.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/agentfleet/tokengate/pkg/model"
)

// Error kinds. Storage failures and a closed ledger are distinct: the former
// means the backing store rejected one operation, the latter means every
// subsequent operation will fail and the host should rebuild the ledger.
var (
	// ErrStorage wraps failures of the backing store. The failed operation
	// was not partially applied.
	ErrStorage = errors.New("usage store failure")

	// ErrClosed is returned by every operation after Close. A ledger in this
	// state never recovers; callers must not keep serving admission checks
	// against it.
	ErrClosed = errors.New("usage ledger is closed")
)

// Clock supplies the ledger's notion of now. Injected so window boundaries
// are deterministic under test; production code uses SystemClock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by the wall clock, in UTC.
func SystemClock() Clock { return systemClock{} }

// Store is the usage ledger contract. All methods are safe for concurrent
// use; every call is atomic with respect to every other call. Windows come
// in two styles that are deliberately not unified: sliding (hourly, measured
// back from now, used for admission) and calendar-aligned (start of current
// day or month, used for billing cycles).
type Store interface {
	// Record appends one usage event, assigning its ID and timestamp. The
	// event is either fully persisted or not at all.
	Record(ctx context.Context, rec *UsageRecord) error

	// HourlyTokens returns the full summary for an agent over the sliding
	// last hour. This is the admission path's only query.
	HourlyTokens(ctx context.Context, agent model.AgentID) (UsageSummary, error)

	// HourlyCost returns an agent's cost over the sliding last hour.
	HourlyCost(ctx context.Context, agent model.AgentID) (float64, error)

	// DailyCost returns an agent's cost since the start of the current UTC day.
	DailyCost(ctx context.Context, agent model.AgentID) (float64, error)

	// MonthlyCost returns an agent's cost since the start of the current
	// UTC calendar month.
	MonthlyCost(ctx context.Context, agent model.AgentID) (float64, error)

	// GlobalHourlyCost returns cost across all agents over the sliding last hour.
	GlobalHourlyCost(ctx context.Context) (float64, error)

	// GlobalMonthlyCost returns cost across all agents since the start of the
	// current UTC calendar month.
	GlobalMonthlyCost(ctx context.Context) (float64, error)

	// TodayCost returns cost across all agents since the start of the current UTC day.
	TodayCost(ctx context.Context) (float64, error)

	// Summary aggregates all recorded usage, unbounded by time. A nil agent
	// aggregates across the whole fleet.
	Summary(ctx context.Context, agent *model.AgentID) (UsageSummary, error)

	// ByModel aggregates usage per model name, ordered by descending total
	// cost. Relative order among models with equal cost is unspecified.
	ByModel(ctx context.Context) ([]ModelUsage, error)

	// DailyBreakdown returns one row per calendar day with events in the
	// trailing days-day window, ascending by date.
	DailyBreakdown(ctx context.Context, days int) ([]DailyBreakdown, error)

	// FirstEventDate returns the earliest recorded timestamp, or ok=false if
	// the ledger is empty.
	FirstEventDate(ctx context.Context) (t time.Time, ok bool, err error)

	// CleanupOld deletes events older than days days and returns how many
	// were deleted. Idempotent for a fixed cutoff.
	CleanupOld(ctx context.Context, days int) (int64, error)

	// Close releases the backing store. All later operations fail with ErrClosed.
	Close() error
}
