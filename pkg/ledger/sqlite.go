package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentfleet/tokengate/pkg/model"

	_ "modernc.org/sqlite"
)

// timeLayout is RFC3339 with a fixed-width nanosecond fraction. Fixed width
// keeps lexicographic order equal to chronological order, which the window
// predicates rely on since timestamps are stored as TEXT.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite implements Store over a single SQLite connection. One mutex guards
// the connection for the whole duration of every operation, so each call is
// atomic with respect to every other call. This serializes all readers and
// writers; shard by agent id before reaching for anything fancier.
type SQLite struct {
	mu     sync.Mutex
	db     *sql.DB
	clock  Clock
	closed bool
}

// NewSQLite opens or creates the ledger database at dbPath. A nil clock
// selects the system clock.
func NewSQLite(dbPath string, clock Clock) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// The ledger contract is a single logical connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if clock == nil {
		clock = SystemClock()
	}
	return &SQLite{db: db, clock: clock}, nil
}

func (s *SQLite) Record(ctx context.Context, rec *UsageRecord) error {
	if rec.InputTokens < 0 || rec.OutputTokens < 0 || rec.CostUSD < 0 || rec.ToolCalls < 0 {
		return fmt.Errorf("record usage: token, cost, and tool-call counts must be non-negative")
	}
	if rec.AgentID == "" {
		return fmt.Errorf("record usage: missing agent id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	// Assigned under the lock: a Record that returns before a later query
	// starts is guaranteed to fall inside that query's window.
	rec.ID = uuid.New().String()
	rec.Timestamp = s.clock.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_events (id, agent_id, timestamp, model, input_tokens, output_tokens, cost_usd, tool_calls)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.AgentID.String(), rec.Timestamp.Format(timeLayout), rec.Model,
		rec.InputTokens, rec.OutputTokens, rec.CostUSD, rec.ToolCalls,
	)
	if err != nil {
		return storageErr("insert usage event", err)
	}
	return nil
}

func (s *SQLite) HourlyTokens(ctx context.Context, agent model.AgentID) (UsageSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return UsageSummary{}, ErrClosed
	}
	return s.summaryWhere(ctx, "WHERE agent_id = ? AND timestamp > ?",
		agent.String(), s.fmtHourAgo())
}

func (s *SQLite) HourlyCost(ctx context.Context, agent model.AgentID) (float64, error) {
	return s.sumCost(ctx, "WHERE agent_id = ? AND timestamp > ?", func() []any {
		return []any{agent.String(), s.fmtHourAgo()}
	})
}

func (s *SQLite) DailyCost(ctx context.Context, agent model.AgentID) (float64, error) {
	return s.sumCost(ctx, "WHERE agent_id = ? AND timestamp > ?", func() []any {
		return []any{agent.String(), s.fmtStartOfDay()}
	})
}

func (s *SQLite) MonthlyCost(ctx context.Context, agent model.AgentID) (float64, error) {
	return s.sumCost(ctx, "WHERE agent_id = ? AND timestamp > ?", func() []any {
		return []any{agent.String(), s.fmtStartOfMonth()}
	})
}

func (s *SQLite) GlobalHourlyCost(ctx context.Context) (float64, error) {
	return s.sumCost(ctx, "WHERE timestamp > ?", func() []any {
		return []any{s.fmtHourAgo()}
	})
}

func (s *SQLite) GlobalMonthlyCost(ctx context.Context) (float64, error) {
	return s.sumCost(ctx, "WHERE timestamp > ?", func() []any {
		return []any{s.fmtStartOfMonth()}
	})
}

func (s *SQLite) TodayCost(ctx context.Context) (float64, error) {
	return s.sumCost(ctx, "WHERE timestamp > ?", func() []any {
		return []any{s.fmtStartOfDay()}
	})
}

func (s *SQLite) Summary(ctx context.Context, agent *model.AgentID) (UsageSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return UsageSummary{}, ErrClosed
	}
	if agent != nil {
		return s.summaryWhere(ctx, "WHERE agent_id = ?", agent.String())
	}
	return s.summaryWhere(ctx, "")
}

func (s *SQLite) ByModel(ctx context.Context) ([]ModelUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT model, COALESCE(SUM(cost_usd), 0.0), COALESCE(SUM(input_tokens), 0),
		        COALESCE(SUM(output_tokens), 0), COUNT(*)
		 FROM usage_events GROUP BY model ORDER BY SUM(cost_usd) DESC`)
	if err != nil {
		return nil, storageErr("query usage by model", err)
	}
	defer rows.Close()

	var result []ModelUsage
	for rows.Next() {
		var m ModelUsage
		if err := rows.Scan(&m.Model, &m.TotalCostUSD, &m.TotalInputTokens,
			&m.TotalOutputTokens, &m.CallCount); err != nil {
			return nil, storageErr("scan model usage row", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate model usage rows", err)
	}
	return result, nil
}

func (s *SQLite) DailyBreakdown(ctx context.Context, days int) ([]DailyBreakdown, error) {
	if days < 0 {
		return nil, fmt.Errorf("daily breakdown: negative day count %d", days)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	cutoff := s.clock.Now().UTC().AddDate(0, 0, -days).Format(timeLayout)
	rows, err := s.db.QueryContext(ctx,
		`SELECT date(timestamp),
		        COALESCE(SUM(cost_usd), 0.0),
		        COALESCE(SUM(input_tokens) + SUM(output_tokens), 0),
		        COUNT(*)
		 FROM usage_events
		 WHERE timestamp > ?
		 GROUP BY date(timestamp)
		 ORDER BY date(timestamp) ASC`, cutoff)
	if err != nil {
		return nil, storageErr("query daily breakdown", err)
	}
	defer rows.Close()

	var result []DailyBreakdown
	for rows.Next() {
		var d DailyBreakdown
		if err := rows.Scan(&d.Date, &d.CostUSD, &d.Tokens, &d.Calls); err != nil {
			return nil, storageErr("scan daily breakdown row", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate daily breakdown rows", err)
	}
	return result, nil
}

func (s *SQLite) FirstEventDate(ctx context.Context) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return time.Time{}, false, ErrClosed
	}

	var raw sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT MIN(timestamp) FROM usage_events").Scan(&raw)
	if err != nil {
		return time.Time{}, false, storageErr("query first event date", err)
	}
	if !raw.Valid {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw.String)
	if err != nil {
		return time.Time{}, false, storageErr("parse first event date", err)
	}
	return t, true, nil
}

func (s *SQLite) CleanupOld(ctx context.Context, days int) (int64, error) {
	if days < 0 {
		return 0, fmt.Errorf("cleanup: negative retention %d days", days)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	cutoff := s.clock.Now().UTC().AddDate(0, 0, -days).Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM usage_events WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, storageErr("delete old usage events", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("count deleted usage events", err)
	}
	return deleted, nil
}

func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// summaryWhere runs the five-column aggregate with an optional WHERE clause.
// COALESCE keeps an empty window a valid all-zero summary. Caller holds mu.
func (s *SQLite) summaryWhere(ctx context.Context, where string, args ...any) (UsageSummary, error) {
	query := `SELECT COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0),
	                 COALESCE(SUM(cost_usd), 0.0), COUNT(*), COALESCE(SUM(tool_calls), 0)
	          FROM usage_events `
	query += where

	var sum UsageSummary
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&sum.TotalInputTokens, &sum.TotalOutputTokens,
		&sum.TotalCostUSD, &sum.CallCount, &sum.TotalToolCalls,
	)
	if err != nil {
		return UsageSummary{}, storageErr("aggregate usage", err)
	}
	return sum, nil
}

// sumCost runs a cost-only aggregate with the given WHERE clause. The args
// closure is evaluated under the lock so window boundaries are read from the
// clock inside the critical section.
func (s *SQLite) sumCost(ctx context.Context, where string, args func() []any) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	var cost float64
	query := "SELECT COALESCE(SUM(cost_usd), 0.0) FROM usage_events " + where
	if err := s.db.QueryRowContext(ctx, query, args()...).Scan(&cost); err != nil {
		return 0, storageErr("aggregate cost", err)
	}
	return cost, nil
}

// Window boundaries, formatted for the TEXT timestamp column. Hourly windows
// slide back from now; daily and monthly windows align to calendar starts.
// Callers hold mu.

func (s *SQLite) fmtHourAgo() string {
	return s.clock.Now().UTC().Add(-time.Hour).Format(timeLayout)
}

func (s *SQLite) fmtStartOfDay() string {
	now := s.clock.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Format(timeLayout)
}

func (s *SQLite) fmtStartOfMonth() string {
	now := s.clock.Now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Format(timeLayout)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStorage, err))
}
