package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/youpower/greenbutton/internal/model"
)

// FileName is the database file created in the data directory.
const FileName = "greenbutton.db"

// timestampLayout is how times are written to the summary columns.
// Fixed width in UTC keeps lexical order equal to time order.
const timestampLayout = "2006-01-02 15:04:05.000000000"

// ErrNoRunID is returned when saving a run without an ID.
var ErrNoRunID = errors.New("run has no id")

// RunDB stores download runs in SQLite.
type RunDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if they
	// don't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the run database in dbDir.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	dsn := dbPath + "?mode=rwc"
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	} else {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return rdb, nil
}

// Path returns the database file path.
func (rdb *RunDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

func (rdb *RunDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		success INTEGER NOT NULL DEFAULT 0,
		stage TEXT NOT NULL,
		flow TEXT NOT NULL,
		range_start TEXT,
		range_end TEXT,
		files INTEGER NOT NULL DEFAULT 0,
		message TEXT,
		run_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_success ON runs(success);
	`
	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun inserts a run, or replaces the stored copy of a run with the
// same ID.
func (rdb *RunDB) SaveRun(ctx context.Context, run *model.Run) error {
	if run.ID == "" {
		return ErrNoRunID
	}

	runJSON, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to serialize run: %w", err)
	}

	query := `
	INSERT INTO runs (id, started_at, finished_at, success, stage, flow, range_start, range_end, files, message, run_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		finished_at = excluded.finished_at,
		success = excluded.success,
		stage = excluded.stage,
		files = excluded.files,
		message = excluded.message,
		run_json = excluded.run_json
	`

	_, err = rdb.db.ExecContext(ctx, query,
		run.ID,
		formatTimestamp(run.StartedAt),
		formatTimestamp(run.FinishedAt),
		run.Success,
		run.Stage.String(),
		run.Flow,
		run.Range.Start.Format(model.InputDateLayout),
		run.Range.End.Format(model.InputDateLayout),
		len(run.Downloads),
		run.Message,
		string(runJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. It returns nil, nil when no run matches.
func (rdb *RunDB) GetRun(ctx context.Context, id string) (*model.Run, error) {
	return rdb.queryRun(ctx, `SELECT run_json FROM runs WHERE id = ?`, id)
}

// LatestRun retrieves the most recently started run, or nil, nil when the
// history is empty.
func (rdb *RunDB) LatestRun(ctx context.Context) (*model.Run, error) {
	return rdb.queryRun(ctx, `SELECT run_json FROM runs ORDER BY started_at DESC LIMIT 1`)
}

func (rdb *RunDB) queryRun(ctx context.Context, query string, args ...any) (*model.Run, error) {
	var runJSON string
	err := rdb.db.QueryRowContext(ctx, query, args...).Scan(&runJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var run model.Run
	if err := json.Unmarshal([]byte(runJSON), &run); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}
	return &run, nil
}

// ListRuns returns run summaries, newest first. A limit of zero or less
// returns every run.
func (rdb *RunDB) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	query := `
	SELECT id, started_at, success, stage, range_start, range_end, files, message
	FROM runs
	ORDER BY started_at DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []model.RunSummary
	for rows.Next() {
		var (
			s                    model.RunSummary
			startedAt, stage     string
			rangeStart, rangeEnd sql.NullString
			message              sql.NullString
		)
		if err := rows.Scan(&s.ID, &startedAt, &s.Success, &stage, &rangeStart, &rangeEnd, &s.Files, &message); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		s.StartedAt = parseTimestamp(startedAt)
		_ = s.Stage.UnmarshalText([]byte(stage)) //nolint:errcheck // unknown names decode to idle
		s.Range.Start = parseDate(rangeStart.String)
		s.Range.End = parseDate(rangeEnd.String)
		s.Message = message.String
		results = append(results, s)
	}
	return results, rows.Err()
}

// CountRuns returns the number of stored runs and how many succeeded.
func (rdb *RunDB) CountRuns(ctx context.Context) (total, succeeded int, err error) {
	err = rdb.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(success), 0) FROM runs`,
	).Scan(&total, &succeeded)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return total, succeeded, nil
}

// PruneRuns deletes all but the newest keep runs and returns how many
// were deleted.
func (rdb *RunDB) PruneRuns(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	result, err := rdb.db.ExecContext(ctx, `
	DELETE FROM runs WHERE id NOT IN (
		SELECT id FROM runs ORDER BY started_at DESC LIMIT ?
	)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return result.RowsAffected()
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats accepted when reading.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	timestampLayout,
	"2006-01-02 15:04:05",  // SQLite default datetime format
	"2006-01-02T15:04:05Z", // ISO 8601 with Z suffix
	time.RFC3339Nano,
}

// parseTimestamp parses a stored timestamp as UTC and returns it in local
// time. It returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.Local()
		}
	}
	return time.Time{}
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := model.ParseDate(s)
	if err != nil {
		return time.Time{}
	}
	return t
}
