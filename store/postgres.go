/*
postgres.go - PostgreSQL-backed run archive

PURPOSE:
  Shared RunStore for multi-user deployments, built on a pgx connection
  pool. Same shape as the sqlite backend; the payload lives in a JSONB
  column so ad-hoc SQL against archived runs stays possible.
*/
package store

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/warp/comp-engine/optimizer"
)

// PostgresStore implements RunStore on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to the given DSN and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "connecting to postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "pinging postgres")
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "migrating postgres archive")
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			scenario_name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			specialty_count INTEGER NOT NULL,
			spend_impact DOUBLE PRECISION NOT NULL,
			payload JSONB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs (created_at DESC);
	`)
	return err
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *optimizer.RunResult) error {
	if run == nil || run.RunID == "" {
		return eris.New("run must have an ID")
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return eris.Wrap(err, "encoding run")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO runs (run_id, scenario_name, created_at, specialty_count, spend_impact, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (run_id) DO UPDATE SET
			scenario_name = EXCLUDED.scenario_name,
			created_at = EXCLUDED.created_at,
			specialty_count = EXCLUDED.specialty_count,
			spend_impact = EXCLUDED.spend_impact,
			payload = EXCLUDED.payload`,
		run.RunID, run.ScenarioName, run.CreatedAt.UTC(),
		len(run.Specialties), run.Totals.SpendImpact, payload)
	if err != nil {
		return eris.Wrap(err, "saving run")
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*optimizer.RunResult, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM runs WHERE run_id = $1`, runID).Scan(&payload)
	if err == pgx.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "loading run")
	}
	var run optimizer.RunResult
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, eris.Wrap(err, "decoding run")
	}
	return &run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context) ([]RunMeta, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, scenario_name, created_at, specialty_count, spend_impact
		FROM runs
		ORDER BY created_at DESC, run_id ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "listing runs")
	}
	defer rows.Close()

	var metas []RunMeta
	for rows.Next() {
		var m RunMeta
		if err := rows.Scan(&m.RunID, &m.ScenarioName, &m.CreatedAt, &m.SpecialtyCount, &m.SpendImpact); err != nil {
			return nil, eris.Wrap(err, "scanning run row")
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

func (s *PostgresStore) DeleteRun(ctx context.Context, runID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM runs WHERE run_id = $1`, runID)
	if err != nil {
		return eris.Wrap(err, "deleting run")
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
