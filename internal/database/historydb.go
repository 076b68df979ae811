package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitemirror/internal/model"
)

// FileName is the name of the history database file inside the data dir.
const FileName = "sitemirror.db"

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("run not found")

// HistoryDB stores mirror runs and the outcome of every resource.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so the history command can
	// read while a crawl is writing.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s: %w", dbPath, err)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; workers share this single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per mirror invocation
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_url TEXT NOT NULL,
		host TEXT NOT NULL,
		out_dir TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		interrupted INTEGER DEFAULT 0,
		seen INTEGER DEFAULT 0,
		saved INTEGER DEFAULT 0,
		skipped INTEGER DEFAULT 0,
		failed INTEGER DEFAULT 0,
		pages INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_host ON runs(host);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Terminal outcome of each URL in a run
	CREATE TABLE IF NOT EXISTS resources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		url TEXT NOT NULL,
		state TEXT NOT NULL,
		status_code INTEGER,
		content_type TEXT,
		local_path TEXT,
		reason TEXT,
		is_page INTEGER DEFAULT 0,
		finished_at DATETIME,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_resources_run ON resources(run_id);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// Run is the stored summary of one mirror invocation.
type Run struct {
	ID          int64       `json:"id"`
	StartURL    string      `json:"start_url"`
	Host        string      `json:"host"`
	OutDir      string      `json:"out_dir"`
	StartedAt   time.Time   `json:"started_at"`
	FinishedAt  time.Time   `json:"finished_at"`
	Interrupted bool        `json:"interrupted"`
	Stats       model.Stats `json:"stats"`
}

// BeginRun inserts a new run for report and returns its ID.
func (hdb *HistoryDB) BeginRun(ctx context.Context, report *model.MirrorReport) (int64, error) {
	query := `
	INSERT INTO runs (start_url, host, out_dir, started_at)
	VALUES (?, ?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		report.StartURL,
		hostOf(report.StartURL),
		report.OutDir,
		report.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	return id, nil
}

// RecordResource stores the terminal outcome of a resource.
// A URL is recorded once per run; later records for it are ignored.
func (hdb *HistoryDB) RecordResource(ctx context.Context, runID int64, res model.Resource) error {
	query := `
	INSERT INTO resources (run_id, url, state, status_code, content_type, local_path, reason, is_page, finished_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, url) DO NOTHING
	`

	_, err := hdb.db.ExecContext(ctx, query,
		runID,
		res.URL,
		res.State.String(),
		res.StatusCode,
		res.ContentType,
		res.LocalPath,
		res.Reason,
		boolToInt(res.IsPage),
		res.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record resource: %w", err)
	}
	return nil
}

// FinishRun stores the final counters and end time of a run.
func (hdb *HistoryDB) FinishRun(ctx context.Context, runID int64, report *model.MirrorReport) error {
	query := `
	UPDATE runs
	SET finished_at = ?, interrupted = ?, seen = ?, saved = ?, skipped = ?, failed = ?, pages = ?
	WHERE id = ?
	`

	finished := report.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}

	result, err := hdb.db.ExecContext(ctx, query,
		finished.UTC().Format(time.RFC3339Nano),
		boolToInt(report.Interrupted),
		report.Stats.Scheduled,
		report.Stats.Saved,
		report.Stats.Skipped,
		report.Stats.Failed,
		report.Stats.Pages,
		runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	return nil
}

// ListRuns returns runs newest first (by insertion). An empty host lists every run.
func (hdb *HistoryDB) ListRuns(ctx context.Context, host string) ([]Run, error) {
	query := `
	SELECT id, start_url, host, out_dir, started_at, COALESCE(finished_at, ''),
		interrupted, seen, saved, skipped, failed, pages
	FROM runs
	`
	var args []any
	if host != "" {
		query += " WHERE host = ?"
		args = append(args, strings.ToLower(host))
	}
	query += " ORDER BY id DESC"

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished string
		var interrupted int

		if err := rows.Scan(
			&run.ID,
			&run.StartURL,
			&run.Host,
			&run.OutDir,
			&started,
			&finished,
			&interrupted,
			&run.Stats.Scheduled,
			&run.Stats.Saved,
			&run.Stats.Skipped,
			&run.Stats.Failed,
			&run.Stats.Pages,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.StartedAt = parseTimestamp(started)
		run.FinishedAt = parseTimestamp(finished)
		run.Interrupted = interrupted != 0
		run.Stats.Pending = run.Stats.Scheduled - run.Stats.Terminal()
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetResources returns the recorded resources of a run in recording order.
// It returns ErrNotFound if the run does not exist.
func (hdb *HistoryDB) GetResources(ctx context.Context, runID int64) ([]model.Resource, error) {
	var exists int
	err := hdb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE id = ?", runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}

	query := `
	SELECT url, state, COALESCE(status_code, 0), COALESCE(content_type, ''),
		COALESCE(local_path, ''), COALESCE(reason, ''), is_page, COALESCE(finished_at, '')
	FROM resources
	WHERE run_id = ?
	ORDER BY id
	`

	rows, err := hdb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get resources: %w", err)
	}
	defer rows.Close()

	var resources []model.Resource
	for rows.Next() {
		var res model.Resource
		var isPage int
		var finished string

		if err := rows.Scan(
			&res.URL,
			&res.StateText,
			&res.StatusCode,
			&res.ContentType,
			&res.LocalPath,
			&res.Reason,
			&isPage,
			&finished,
		); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}

		if state, ok := model.ParseState(res.StateText); ok {
			res.State = state
		}
		res.IsPage = isPage != 0
		res.FinishedAt = parseTimestamp(finished)
		resources = append(resources, res)
	}

	return resources, rows.Err()
}

// hostOf returns the lowercase host of a URL, or the input when unparsable.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.ToLower(rawURL)
	}
	return strings.ToLower(u.Host)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
