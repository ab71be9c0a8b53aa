/*
sqlite.go - SQLite-backed run archive

PURPOSE:
  Single-file RunStore for local deployments. Runs are stored as JSON
  documents alongside a few extracted columns for listing without
  deserializing every payload.

WAL MODE:
  The database is opened with WAL journaling so reads don't block the
  occasional write. Run archival is low-volume; one writer is plenty.

MIGRATION:
  Schema is auto-migrated on Open. For a long-lived shared archive use
  the postgres backend instead.
*/
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"

	"github.com/warp/comp-engine/optimizer"
)

const timeLayout = time.RFC3339Nano

func parseStoredTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "parsing stored timestamp %q", value)
	}
	return t, nil
}

// SQLiteStore implements RunStore on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) the archive at the given path.
// Use ":memory:" for an ephemeral database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, eris.Wrap(err, "opening sqlite archive")
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "migrating sqlite archive")
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		scenario_name TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		specialty_count INTEGER NOT NULL,
		spend_impact REAL NOT NULL,
		payload_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at
		ON runs(created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *optimizer.RunResult) error {
	if run == nil || run.RunID == "" {
		return eris.New("run must have an ID")
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return eris.Wrap(err, "encoding run")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, scenario_name, created_at, specialty_count, spend_impact, payload_json)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			scenario_name = excluded.scenario_name,
			created_at = excluded.created_at,
			specialty_count = excluded.specialty_count,
			spend_impact = excluded.spend_impact,
			payload_json = excluded.payload_json`,
		run.RunID, run.ScenarioName, run.CreatedAt.UTC().Format(timeLayout),
		len(run.Specialties), run.Totals.SpendImpact, string(payload))
	if err != nil {
		return eris.Wrap(err, "saving run")
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*optimizer.RunResult, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload_json FROM runs WHERE run_id = ?`, runID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "loading run")
	}
	var run optimizer.RunResult
	if err := json.Unmarshal([]byte(payload), &run); err != nil {
		return nil, eris.Wrap(err, "decoding run")
	}
	return &run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]RunMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
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
		var created string
		if err := rows.Scan(&m.RunID, &m.ScenarioName, &created, &m.SpecialtyCount, &m.SpendImpact); err != nil {
			return nil, eris.Wrap(err, "scanning run row")
		}
		m.CreatedAt, err = parseStoredTime(created)
		if err != nil {
			return nil, err
		}
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

func (s *SQLiteStore) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return eris.Wrap(err, "deleting run")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "deleting run")
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
