// Package runlog keeps a history of collection runs in sqlite so the
// UI and CLI can show how recent refreshes went.
package runlog

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	finished_at INTEGER NOT NULL,
	stage TEXT NOT NULL,
	error_kind TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	new_activities INTEGER NOT NULL DEFAULT 0,
	activity_count INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs (started_at);
`

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) Store {
	return Store{db: db}
}

type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	Stage         string
	ErrorKind     string
	Error         string
	NewActivities int
	ActivityCount int
}

func (s Store) Push(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
		(id, started_at, finished_at, stage, error_kind, error, new_activities, activity_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.Unix(),
		run.FinishedAt.Unix(),
		run.Stage,
		run.ErrorKind,
		run.Error,
		run.NewActivities,
		run.ActivityCount,
	)
	return err
}

// Get looks up a single run by id. The second return is false when no
// run with that id was recorded.
func (s Store) Get(ctx context.Context, id string) (Run, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, stage, error_kind, error, new_activities, activity_count
		FROM runs WHERE id = ?`,
		id,
	)
	var run Run
	var started, finished int64
	err := row.Scan(
		&run.ID,
		&started,
		&finished,
		&run.Stage,
		&run.ErrorKind,
		&run.Error,
		&run.NewActivities,
		&run.ActivityCount,
	)
	if err == sql.ErrNoRows {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	run.StartedAt = time.Unix(started, 0).UTC()
	run.FinishedAt = time.Unix(finished, 0).UTC()
	return run, true, nil
}

// List returns the most recent runs, newest first.
func (s Store) List(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, stage, error_kind, error, new_activities, activity_count
		FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var started, finished int64
		err := rows.Scan(
			&run.ID,
			&started,
			&finished,
			&run.Stage,
			&run.ErrorKind,
			&run.Error,
			&run.NewActivities,
			&run.ActivityCount,
		)
		if err != nil {
			return nil, err
		}
		run.StartedAt = time.Unix(started, 0).UTC()
		run.FinishedAt = time.Unix(finished, 0).UTC()
		out = append(out, run)
	}
	return out, rows.Err()
}
