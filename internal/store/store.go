package store

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

	"github.com/nao1215/studysight/internal/config"
	"github.com/nao1215/studysight/internal/model"
)

// FileName is the database file name inside the store directory.
const FileName = "studysight.db"

// timestampLayout is fixed-width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned by Open when the database does not exist and
// CreateIfNotExists is false.
var ErrNotFound = errors.New("database not found")

// Store provides SQLite-based storage for settings and pass history.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	// now returns the current time. Replaced in tests.
	now func() time.Time
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so the settings command can write
	// while a watch session reads.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the Store in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, ErrNotFound
// is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrNotFound, dbPath)
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
	dsn += "&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
		now:    time.Now,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- A single settings row; revision increases on every save
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		enabled INTEGER NOT NULL DEFAULT 1,
		extra_keywords TEXT NOT NULL DEFAULT '',
		revision INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);

	-- One row per reconciliation pass
	CREATE TABLE IF NOT EXISTS passes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		started_at TEXT NOT NULL,
		strategy TEXT NOT NULL,
		enabled INTEGER NOT NULL,
		kept INTEGER NOT NULL DEFAULT 0,
		suppressed INTEGER NOT NULL DEFAULT 0,
		short_form INTEGER NOT NULL DEFAULT 0,
		cleared INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_passes_source ON passes(source);
	CREATE INDEX IF NOT EXISTS idx_passes_started ON passes(started_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// LoadSettings returns the stored settings, or the defaults when none have
// been saved yet.
func (s *Store) LoadSettings(ctx context.Context) (config.Settings, error) {
	settings, _, err := s.loadSettings(ctx)
	return settings, err
}

// SettingsRevision returns the revision of the stored settings. Zero means
// nothing has been saved.
func (s *Store) SettingsRevision(ctx context.Context) (int64, error) {
	_, rev, err := s.loadSettings(ctx)
	return rev, err
}

func (s *Store) loadSettings(ctx context.Context) (config.Settings, int64, error) {
	query := `SELECT enabled, extra_keywords, revision FROM settings WHERE id = 1`

	var (
		enabled  bool
		keywords string
		revision int64
	)
	err := s.db.QueryRowContext(ctx, query).Scan(&enabled, &keywords, &revision)
	if errors.Is(err, sql.ErrNoRows) {
		return config.DefaultSettings(), 0, nil
	}
	if err != nil {
		return config.Settings{}, 0, fmt.Errorf("failed to load settings: %w", err)
	}
	return config.NewSettings(enabled, keywords), revision, nil
}

// SaveSettings stores settings and returns the new revision.
func (s *Store) SaveSettings(ctx context.Context, settings config.Settings) (int64, error) {
	query := `
	INSERT INTO settings (id, enabled, extra_keywords, revision, updated_at)
	VALUES (1, ?, ?, 1, ?)
	ON CONFLICT(id) DO UPDATE SET
		enabled = excluded.enabled,
		extra_keywords = excluded.extra_keywords,
		revision = settings.revision + 1,
		updated_at = excluded.updated_at
	RETURNING revision
	`

	var revision int64
	err := s.db.QueryRowContext(ctx, query,
		settings.Enabled,
		settings.KeywordString(),
		s.now().UTC().Format(timestampLayout),
	).Scan(&revision)
	if err != nil {
		return 0, fmt.Errorf("failed to save settings: %w", err)
	}
	return revision, nil
}

// PassRecord is the summary of a stored pass.
type PassRecord struct {
	ID         int64
	Source     string
	StartedAt  time.Time
	Strategy   model.Strategy
	Enabled    bool
	Kept       int
	Suppressed int
	ShortForm  int
	Cleared    int
}

// SavePass stores a pass report and returns its ID.
func (s *Store) SavePass(ctx context.Context, report *model.PassReport) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO passes (source, started_at, strategy, enabled, kept, suppressed, short_form, cleared, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		report.Source,
		report.StartedAt.UTC().Format(timestampLayout),
		string(report.Strategy),
		report.Enabled,
		report.Kept,
		report.Suppressed,
		report.ShortForm,
		report.Cleared,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save pass: %w", err)
	}
	return result.LastInsertId()
}

// ListPasses returns pass summaries, newest first. An empty source lists
// every source; limit <= 0 means no limit.
func (s *Store) ListPasses(ctx context.Context, source string, limit int) ([]PassRecord, error) {
	query := `
	SELECT id, source, started_at, strategy, enabled, kept, suppressed, short_form, cleared
	FROM passes
	WHERE (? = '' OR source = ?)
	ORDER BY started_at DESC, id DESC
	`
	args := []any{source, source}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list passes: %w", err)
	}
	defer rows.Close()

	var records []PassRecord
	for rows.Next() {
		var (
			rec       PassRecord
			startedAt string
			strategy  string
		)
		if err := rows.Scan(&rec.ID, &rec.Source, &startedAt, &strategy, &rec.Enabled,
			&rec.Kept, &rec.Suppressed, &rec.ShortForm, &rec.Cleared); err != nil {
			return nil, fmt.Errorf("failed to scan pass: %w", err)
		}
		rec.StartedAt = parseTimestamp(startedAt)
		rec.Strategy = model.Strategy(strategy)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetPass returns the full report of a stored pass, or nil if there is no
// pass with that ID.
func (s *Store) GetPass(ctx context.Context, id int64) (*model.PassReport, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM passes WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pass: %w", err)
	}

	var report model.PassReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// PruneBefore deletes passes that started before t and returns how many
// were removed.
func (s *Store) PruneBefore(ctx context.Context, t time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM passes WHERE started_at < ?`, t.UTC().Format(timestampLayout))
	if err != nil {
		return 0, fmt.Errorf("failed to prune passes: %w", err)
	}
	return result.RowsAffected()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
