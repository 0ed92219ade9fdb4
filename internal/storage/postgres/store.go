package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"liquidityPilot/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS strategy_signals (
	series TEXT NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	value SMALLINT NOT NULL,
	PRIMARY KEY (series, ts)
);
CREATE TABLE IF NOT EXISTS strategy_steps (
	run_id TEXT NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	price NUMERIC NOT NULL,
	reset_point BOOLEAN NOT NULL,
	reset_reason TEXT NOT NULL,
	base_lower NUMERIC NOT NULL,
	base_upper NUMERIC NOT NULL,
	limit_lower NUMERIC NOT NULL,
	limit_upper NUMERIC NOT NULL,
	reset_lower NUMERIC NOT NULL,
	reset_upper NUMERIC NOT NULL,
	latest_signal SMALLINT NOT NULL,
	fees0 NUMERIC NOT NULL,
	fees1 NUMERIC NOT NULL,
	total0 NUMERIC NOT NULL,
	total1 NUMERIC NOT NULL,
	value_position NUMERIC NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (run_id, ts)
);
CREATE TABLE IF NOT EXISTS strategy_state (
	name TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Store provides Postgres persistence for signals, step summaries, and checkpoints.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables used by the store.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// LoadSignals returns the signal series ordered by time.
func (s *Store) LoadSignals(ctx context.Context, series string) ([]model.SignalPoint, error) {
	if series == "" {
		return nil, fmt.Errorf("signal series required")
	}
	rows, err := s.pool.Query(ctx, `SELECT ts, value FROM strategy_signals WHERE series=$1 ORDER BY ts`, series)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var points []model.SignalPoint
	for rows.Next() {
		var ts time.Time
		var value int16
		if err := rows.Scan(&ts, &value); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		if value < -1 || value > 1 {
			return nil, fmt.Errorf("signal at %s out of range: %d", ts.UTC().Format(time.RFC3339), value)
		}
		points = append(points, model.SignalPoint{Time: ts.UTC(), Value: model.Signal(value)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read signals: %w", err)
	}
	return points, nil
}

// UpsertSummaries inserts or updates step summaries for a run.
func (s *Store) UpsertSummaries(ctx context.Context, run string, summaries []model.Summary) error {
	if len(summaries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, row := range summaries {
		batch.Queue(`
			INSERT INTO strategy_steps (
				run_id, ts, price, reset_point, reset_reason,
				base_lower, base_upper, limit_lower, limit_upper, reset_lower, reset_upper,
				latest_signal, fees0, fees1, total0, total1, value_position, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,now(),now())
			ON CONFLICT (run_id, ts)
			DO UPDATE SET
				price = EXCLUDED.price,
				reset_point = EXCLUDED.reset_point,
				reset_reason = EXCLUDED.reset_reason,
				base_lower = EXCLUDED.base_lower,
				base_upper = EXCLUDED.base_upper,
				limit_lower = EXCLUDED.limit_lower,
				limit_upper = EXCLUDED.limit_upper,
				reset_lower = EXCLUDED.reset_lower,
				reset_upper = EXCLUDED.reset_upper,
				latest_signal = EXCLUDED.latest_signal,
				fees0 = EXCLUDED.fees0,
				fees1 = EXCLUDED.fees1,
				total0 = EXCLUDED.total0,
				total1 = EXCLUDED.total1,
				value_position = EXCLUDED.value_position,
				updated_at = now()
		`, summaryArgs(run, row)...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range summaries {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func summaryArgs(run string, row model.Summary) []any {
	return []any{
		run,
		row.Time.UTC(),
		numeric(row.Price),
		row.ResetPoint,
		string(row.ResetReason),
		numeric(row.BaseRangeLower),
		numeric(row.BaseRangeUpper),
		numeric(row.LimitRangeLower),
		numeric(row.LimitRangeUpper),
		numeric(row.ResetRangeLower),
		numeric(row.ResetRangeUpper),
		int16(row.LatestSignal),
		numeric(row.Fees0),
		numeric(row.Fees1),
		numeric(row.Total0),
		numeric(row.Total1),
		numeric(row.ValuePosition),
	}
}

// numeric renders a float as an exact decimal string for NUMERIC columns.
func numeric(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// Get returns the payload stored under name.
func (s *Store) Get(ctx context.Context, name string) (string, bool, error) {
	if name == "" {
		return "", false, fmt.Errorf("state name required")
	}
	var payload string
	row := s.pool.QueryRow(ctx, `SELECT payload FROM strategy_state WHERE name=$1`, name)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return payload, true, nil
}

// Set upserts the payload stored under name.
func (s *Store) Set(ctx context.Context, name, payload string) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO strategy_state (name, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = now()
	`, name, payload)
	return err
}

// SummarySink adapts Store to the storage.Storage interface for one run.
type SummarySink struct {
	Store *Store
	Run   string
}

func (s *SummarySink) PutSummaryBatch(ctx context.Context, rows []model.Summary) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.UpsertSummaries(ctx, s.Run, rows)
}
