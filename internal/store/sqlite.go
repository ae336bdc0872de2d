package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ncl-icb-analytics/cosd-extract/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite journal at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	status      TEXT NOT NULL DEFAULT 'running',
	started_at  DATETIME NOT NULL,
	finished_at DATETIME,
	succeeded   INTEGER NOT NULL DEFAULT 0,
	failed      INTEGER NOT NULL DEFAULT 0,
	rows_out    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS run_documents (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	path       TEXT NOT NULL,
	status     TEXT NOT NULL,
	error_kind TEXT,
	error      TEXT,
	groups_out INTEGER NOT NULL DEFAULT 0,
	rows_out   INTEGER NOT NULL DEFAULT 0,
	warnings   TEXT,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_run_documents_run_id ON run_documents(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.New().String(),
		Status:    model.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)`,
		run.ID, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return run, nil
}

func (s *SQLiteStore) RecordDocument(ctx context.Context, runID string, res model.DocumentResult) error {
	warnings, err := json.Marshal(res.Warnings)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal warnings")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO run_documents (id, run_id, path, status, error_kind, error, groups_out, rows_out, warnings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), runID, res.Path, string(res.Status), string(res.ErrorKind),
		res.Error, res.Groups, res.Rows, string(warnings), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert document %s", res.Path)
}

func (s *SQLiteStore) FinishRun(ctx context.Context, report *model.BatchReport) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, succeeded = ?, failed = ?, rows_out = ? WHERE id = ?`,
		string(model.RunStatusComplete), report.FinishedAt, report.Succeeded(), report.Failed(), report.Rows(), report.RunID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", report.RunID)
	}
	return checkRowsAffected(res, "run", report.RunID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, status, started_at, finished_at, succeeded, failed, rows_out FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, started_at, finished_at, succeeded, failed, rows_out
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var out []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list runs")
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, runID string) ([]model.DocumentResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, status, error_kind, error, groups_out, rows_out, warnings
		 FROM run_documents WHERE run_id = ? ORDER BY created_at`, runID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list documents %s", runID)
	}
	defer rows.Close()

	var out []model.DocumentResult
	for rows.Next() {
		var res model.DocumentResult
		var kind, errMsg, warnings sql.NullString
		if err := rows.Scan(&res.Path, &res.Status, &kind, &errMsg, &res.Groups, &res.Rows, &warnings); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan document")
		}
		res.ErrorKind = model.ErrorKind(kind.String)
		res.Error = errMsg.String
		if warnings.String != "" {
			if err := json.Unmarshal([]byte(warnings.String), &res.Warnings); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal warnings")
			}
		}
		out = append(out, res)
	}
	return out, eris.Wrapf(rows.Err(), "sqlite: list documents %s", runID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.Run, error) {
	var run model.Run
	var finished sql.NullTime
	if err := row.Scan(&run.ID, &run.Status, &run.StartedAt, &finished, &run.Succeeded, &run.Failed, &run.Rows); err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, eris.Wrap(err, "sqlite: run not found")
		}
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: %s %s not found", kind, id)
	}
	return nil
}
