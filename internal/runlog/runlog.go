package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/giantswarm/kernfsenv/internal/fileutil"
	"github.com/giantswarm/kernfsenv/internal/sentinel"

	// Register the pure-Go SQLite driver (no CGO required).
	_ "modernc.org/sqlite"
)

// ErrUnknownRun is returned by Finish when no run with the given ID exists.
const ErrUnknownRun = sentinel.Error("unknown run id")

// Outcome values stored in the outcome column.
const (
	OutcomeRunning = "running"
	OutcomeStopped = "stopped"
	OutcomeFailed  = "failed"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	pid        INTEGER NOT NULL,
	numa_node  INTEGER NOT NULL,
	started_at INTEGER NOT NULL,
	stopped_at INTEGER,
	outcome    TEXT NOT NULL,
	error      TEXT,
	stats      TEXT
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at);
`

// Run is one row of the history.
type Run struct {
	ID        string
	PID       int
	NUMANode  int
	StartedAt time.Time
	StoppedAt time.Time // zero while the run is open
	Outcome   string
	Error     string
	Stats     map[string]any // nil when none were gathered
}

// Store is an open run history database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the history database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("run history path must not be empty")
	}
	if err := fileutil.EnsureDirForFile(path); err != nil {
		return nil, fmt.Errorf("prepare run history directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer at a time; the history is written twice per run.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create run history schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close run history: %w", err)
	}
	return nil
}

// Begin records a newly started run.
func (s *Store) Begin(ctx context.Context, id string, pid, numaNode int, startedAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, pid, numa_node, started_at, outcome) VALUES (?, ?, ?, ?, ?)`,
		id, pid, numaNode, startedAt.UnixNano(), OutcomeRunning)
	if err != nil {
		return fmt.Errorf("record run %s: %w", id, err)
	}
	return nil
}

// Finish closes run id with its stop time, outcome, and statistics. A nil
// runErr means the run stopped cleanly.
func (s *Store) Finish(ctx context.Context, id string, stoppedAt time.Time, stats map[string]any, runErr error) error {
	outcome := OutcomeStopped
	var errText sql.NullString
	if runErr != nil {
		outcome = OutcomeFailed
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}

	var statsText sql.NullString
	if stats != nil {
		b, err := json.Marshal(stats)
		if err != nil {
			return fmt.Errorf("encode stats for run %s: %w", id, err)
		}
		statsText = sql.NullString{String: string(b), Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET stopped_at = ?, outcome = ?, error = ?, stats = ? WHERE run_id = ?`,
		stoppedAt.UnixNano(), outcome, errText, statsText, id)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrUnknownRun)
	}
	return nil
}

// List returns up to limit runs, most recent first. A non-positive limit
// returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, pid, numa_node, started_at, stopped_at, outcome, error, stats
		 FROM runs ORDER BY started_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // rows.Err() below catches read errors

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			started   int64
			stopped   sql.NullInt64
			errText   sql.NullString
			statsText sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.PID, &r.NUMANode, &started, &stopped, &r.Outcome, &errText, &statsText); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		r.StartedAt = time.Unix(0, started)
		if stopped.Valid {
			r.StoppedAt = time.Unix(0, stopped.Int64)
		}
		r.Error = errText.String
		if statsText.Valid {
			if err := json.Unmarshal([]byte(statsText.String), &r.Stats); err != nil {
				return nil, fmt.Errorf("decode stats for run %s: %w", r.ID, err)
			}
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}
