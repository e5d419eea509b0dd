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

	"github.com/websentry/websentry/internal/model"
)

// ScreenDB provides SQLite-based storage for screening history.
// It manages connection pooling and provides methods for saving and
// querying past screenings.
//
// Design decision: We use a single database file for all targets rather
// than one file per site. This keeps history queries ("show me the last
// N screenings") trivial and simplifies backup/restore.
type ScreenDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures ScreenDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ScreenDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ScreenDB, error) {
	dbPath := filepath.Join(dbDir, "websentry.db")

	// Check if we should create the database or require it to exist
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string.
	// modernc.org/sqlite uses file modes in the DSN: mode=rw prevents
	// creating new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	// SQLite doesn't benefit from multiple connections for writes,
	// but batches may screen concurrently, so writes serialize here.
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &ScreenDB{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Create tables
	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *ScreenDB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *ScreenDB) createTables() error {
	schema := `
	-- Screenings store one row per completed screening with the full
	-- report serialized as JSON and the verdict columns denormalized
	-- for cheap history listings.
	CREATE TABLE IF NOT EXISTS screenings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		safe INTEGER NOT NULL,
		risk_score INTEGER NOT NULL,
		threat_count INTEGER NOT NULL,
		warning_count INTEGER NOT NULL,
		fetched_via TEXT,
		content_hash TEXT,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_screenings_target ON screenings(target);
	CREATE INDEX IF NOT EXISTS idx_screenings_timestamp ON screenings(timestamp);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveReport saves a completed screening report.
// Reports without a result (fetch failures) are stored too, with zero
// counts, so failed screenings show up in history.
func (sdb *ScreenDB) SaveReport(ctx context.Context, report *model.ScreeningReport) error {
	if report == nil {
		return errors.New("nil report")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	safe := 0
	riskScore := 0
	threatCount := 0
	warningCount := 0
	if report.Result != nil {
		if report.Result.Safe {
			safe = 1
		}
		riskScore = report.Result.RiskScore
		threatCount = report.Result.ThreatCount()
		warningCount = report.Result.WarningCount()
	}

	var contentHash string
	if report.Page != nil {
		contentHash = report.Page.Hash
	}

	query := `
	INSERT INTO screenings (target, safe, risk_score, threat_count, warning_count, fetched_via, content_hash, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = sdb.db.ExecContext(ctx, query,
		report.Target,
		safe,
		riskScore,
		threatCount,
		warningCount,
		report.FetchedVia,
		contentHash,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save screening: %w", err)
	}

	return nil
}

// GetLatestReport retrieves the most recent screening for a target.
// Returns nil without error when the target has never been screened.
func (sdb *ScreenDB) GetLatestReport(ctx context.Context, target string) (*model.ScreeningReport, error) {
	query := `
	SELECT report_json FROM screenings
	WHERE target = ?
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var reportJSON string
	err := sdb.db.QueryRowContext(ctx, query, target).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get screening: %w", err)
	}

	var report model.ScreeningReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// GetHistory retrieves all screenings for a target, newest first.
func (sdb *ScreenDB) GetHistory(ctx context.Context, target string) ([]*model.ScreeningReport, error) {
	query := `
	SELECT report_json FROM screenings
	WHERE target = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := sdb.db.QueryContext(ctx, query, target)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var reports []*model.ScreeningReport
	for rows.Next() {
		var reportJSON string
		if err := rows.Scan(&reportJSON); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}

		var report model.ScreeningReport
		if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
			continue // Skip malformed reports
		}
		reports = append(reports, &report)
	}

	return reports, rows.Err()
}

// ListTargets returns all targets that have been screened, sorted.
func (sdb *ScreenDB) ListTargets(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT target FROM screenings
	ORDER BY target
	`

	rows, err := sdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, target)
	}

	return targets, rows.Err()
}

// ScreeningMetadata contains summary information about a stored
// screening. This is used for history listings without loading the
// full report JSON.
type ScreeningMetadata struct {
	// ID is the unique identifier of the screening in the database.
	ID int64

	// Target is the screened URL or file path.
	Target string

	// Timestamp is when the screening was performed.
	Timestamp time.Time

	// Safe is the screening verdict.
	Safe bool

	// RiskScore is the accumulated rule score.
	RiskScore int

	// ThreatCount is the number of threat findings.
	ThreatCount int

	// WarningCount is the number of warning findings.
	WarningCount int

	// FetchedVia records the retrieval method: browser, http, or file.
	FetchedVia string

	// ContentHash is the SHA-256 of the screened HTML, for detecting
	// content changes between screenings of the same target.
	ContentHash string
}

// RecentScreenings returns metadata for the most recent screenings
// across all targets, newest first. A limit of zero or less means no
// limit.
func (sdb *ScreenDB) RecentScreenings(ctx context.Context, limit int) ([]ScreeningMetadata, error) {
	query := `
	SELECT id, target, timestamp, safe, risk_score, threat_count, warning_count, fetched_via, content_hash
	FROM screenings
	ORDER BY timestamp DESC, id DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list screenings: %w", err)
	}
	defer rows.Close()

	var results []ScreeningMetadata
	for rows.Next() {
		var meta ScreeningMetadata
		var timestamp string
		var safe int
		var fetchedVia, contentHash sql.NullString

		if err := rows.Scan(
			&meta.ID,
			&meta.Target,
			&timestamp,
			&safe,
			&meta.RiskScore,
			&meta.ThreatCount,
			&meta.WarningCount,
			&fetchedVia,
			&contentHash,
		); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		meta.Safe = safe != 0
		meta.FetchedVia = fetchedVia.String
		meta.ContentHash = contentHash.String

		results = append(results, meta)
	}

	return results, rows.Err()
}

// GetReportByID retrieves a screening report by its database ID.
// Returns nil without error when no row matches.
func (sdb *ScreenDB) GetReportByID(ctx context.Context, id int64) (*model.ScreeningReport, error) {
	query := `
	SELECT report_json FROM screenings
	WHERE id = ?
	`

	var reportJSON string
	err := sdb.db.QueryRowContext(ctx, query, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get screening: %w", err)
	}

	var report model.ScreeningReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// HasRecentScreening checks if a target was screened within the
// specified duration. Used to skip redundant re-screens of unchanged
// targets in scripted runs.
func (sdb *ScreenDB) HasRecentScreening(ctx context.Context, target string, duration time.Duration) (bool, error) {
	query := `
	SELECT COUNT(*) FROM screenings
	WHERE target = ? AND timestamp > datetime('now', ?)
	`

	// SQLite datetime modifier format
	modifier := fmt.Sprintf("-%d seconds", int(duration.Seconds()))

	var count int
	err := sdb.db.QueryRowContext(ctx, query, target, modifier).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check recent screening: %w", err)
	}

	return count > 0, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
