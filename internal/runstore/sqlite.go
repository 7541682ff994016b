package runstore

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists run history in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	inputs TEXT NOT NULL,
	source_records INTEGER NOT NULL DEFAULT 0,
	pivot_groups INTEGER NOT NULL DEFAULT 0,
	progress_total INTEGER NOT NULL DEFAULT 0,
	progress_remaining INTEGER NOT NULL DEFAULT 0,
	progress_percent REAL NOT NULL DEFAULT 0,
	started_at DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE TABLE IF NOT EXISTS run_errors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	stage TEXT NOT NULL,
	message TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

// Open opens (creating if necessary) the run history database at path.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening run history db %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating run history schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(run *Run) error {
	inputs, err := json.Marshal(run.Inputs)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO runs (id, status, inputs, source_records, pivot_groups,
			progress_total, progress_remaining, progress_percent, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), string(run.Status), string(inputs),
		run.SourceRecords, run.PivotGroups,
		run.ProgressTotal, run.ProgressRemaining, run.ProgressPercent,
		run.StartedAt.UTC(), nullableTime(run.FinishedAt),
	)
	return err
}

func (s *SQLiteStore) UpdateRun(run *Run) error {
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, source_records = ?, pivot_groups = ?,
			progress_total = ?, progress_remaining = ?, progress_percent = ?,
			finished_at = ?
		 WHERE id = ?`,
		string(run.Status), run.SourceRecords, run.PivotGroups,
		run.ProgressTotal, run.ProgressRemaining, run.ProgressPercent,
		nullableTime(run.FinishedAt), run.ID.String(),
	)
	return err
}

func (s *SQLiteStore) GetRun(id uuid.UUID) (*Run, error) {
	row := s.db.QueryRow(
		`SELECT id, status, inputs, source_records, pivot_groups,
			progress_total, progress_remaining, progress_percent, started_at, finished_at
		 FROM runs WHERE id = ?`, id.String(),
	)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

func (s *SQLiteStore) ListRuns() ([]*Run, error) {
	rows, err := s.db.Query(
		`SELECT id, status, inputs, source_records, pivot_groups,
			progress_total, progress_remaining, progress_percent, started_at, finished_at
		 FROM runs ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) AddError(runID uuid.UUID, stage, message string) error {
	_, err := s.db.Exec(
		`INSERT INTO run_errors (run_id, stage, message, created_at) VALUES (?, ?, ?, ?)`,
		runID.String(), stage, message, time.Now().UTC(),
	)
	return err
}

func (s *SQLiteStore) ListErrors(runID uuid.UUID) ([]*RunError, error) {
	rows, err := s.db.Query(
		`SELECT run_id, stage, message, created_at FROM run_errors
		 WHERE run_id = ? ORDER BY id`, runID.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errs []*RunError
	for rows.Next() {
		var (
			e     RunError
			rawID string
		)
		if err := rows.Scan(&rawID, &e.Stage, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.RunID, err = uuid.Parse(rawID)
		if err != nil {
			return nil, err
		}
		errs = append(errs, &e)
	}
	return errs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run        Run
		rawID      string
		rawStatus  string
		rawInputs  string
		finishedAt sql.NullTime
	)
	err := row.Scan(&rawID, &rawStatus, &rawInputs,
		&run.SourceRecords, &run.PivotGroups,
		&run.ProgressTotal, &run.ProgressRemaining, &run.ProgressPercent,
		&run.StartedAt, &finishedAt,
	)
	if err != nil {
		return nil, err
	}

	run.ID, err = uuid.Parse(rawID)
	if err != nil {
		return nil, err
	}
	run.Status = Status(rawStatus)
	if err := json.Unmarshal([]byte(rawInputs), &run.Inputs); err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
