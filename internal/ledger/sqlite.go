// Package ledger records preparation runs in SQLite and answers whether a run with
// identical inputs already produced its output.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/solar-suitability/internal/etlerr"
)

// Status is the state of a run.
type Status string

const (
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Run is one ledger entry.
type Run struct {
	ID         string           `json:"id"`
	InputKey   string           `json:"input_key"`
	Inputs     []Fingerprint    `json:"inputs"`
	Output     string           `json:"output"`
	Status     Status           `json:"status"`
	ErrorKind  etlerr.ErrorKind `json:"error_kind,omitempty"`
	Error      string           `json:"error,omitempty"`
	Features   int              `json:"features"`
	Matched    int              `json:"matched"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}

// Store is the SQLite-backed ledger.
type Store struct {
	db *sql.DB
}

// Open opens the ledger database at dsn and configures WAL mode.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "ledger: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	input_key   TEXT NOT NULL,
	inputs      TEXT NOT NULL,
	output      TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	error_kind  TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	features    INTEGER NOT NULL DEFAULT 0,
	matched     INTEGER NOT NULL DEFAULT 0,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_input_key ON runs(input_key);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Migrate creates the schema.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "ledger: migrate")
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartRun records a running entry for the given inputs.
func (s *Store) StartRun(ctx context.Context, key string, inputs []Fingerprint, output string) (*Run, error) {
	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: marshal inputs")
	}
	run := &Run{
		ID:        uuid.New().String(),
		InputKey:  key,
		Inputs:    inputs,
		Output:    output,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input_key, inputs, output, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, key, string(inputsJSON), output, string(StatusRunning), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: insert run")
	}
	return run, nil
}

// FinishRun marks a run complete with its feature counts.
func (s *Store) FinishRun(ctx context.Context, id string, features, matched int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, features = ?, matched = ?, finished_at = ? WHERE id = ?`,
		string(StatusComplete), features, matched, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "ledger: finish run %s", id)
	}
	return checkRowsAffected(res, id)
}

// FailRun marks a run failed and classifies the error.
func (s *Store) FailRun(ctx context.Context, id string, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error_kind = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(StatusFailed), string(etlerr.Kind(runErr)), msg, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "ledger: fail run %s", id)
	}
	return checkRowsAffected(res, id)
}

// LastSuccess returns the newest complete run for key, or nil when there is none.
func (s *Store) LastSuccess(ctx context.Context, key string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE input_key = ? AND status = ? ORDER BY started_at DESC LIMIT 1`,
		key, string(StatusComplete),
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "ledger: last success")
	}
	return run, nil
}

// ListRuns returns runs newest first. A limit of 0 returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "ledger: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "ledger: scan run")
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "ledger: iterate runs")
}

// Purge deletes every run, invalidating all cached results.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, eris.Wrap(err, "ledger: purge")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "ledger: purge rows affected")
}

const runColumns = `id, input_key, inputs, output, status, error_kind, error, features, matched, started_at, finished_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run        Run
		inputs     string
		status     string
		errKind    string
		finishedAt sql.NullTime
	)
	if err := sc.Scan(&run.ID, &run.InputKey, &inputs, &run.Output, &status, &errKind,
		&run.Error, &run.Features, &run.Matched, &run.StartedAt, &finishedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(inputs), &run.Inputs); err != nil {
		return nil, eris.Wrap(err, "ledger: unmarshal inputs")
	}
	run.Status = Status(status)
	run.ErrorKind = etlerr.ErrorKind(errKind)
	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "ledger: rows affected")
	}
	if n == 0 {
		return eris.Errorf("ledger: run %s not found", id)
	}
	return nil
}
