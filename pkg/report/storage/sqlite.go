package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/clayv/RateGate/pkg/report"
)

// Driver names accepted by SQLiteConfig.Driver.
const (
	DriverModernc = "modernc" // pure Go, registered as "sqlite"
	DriverCgo     = "cgo"     // mattn/go-sqlite3, registered as "sqlite3"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path. Parent directories are created.
	Path string

	// Driver selects the SQLite implementation ("modernc" or "cgo").
	// Default: "modernc"
	Driver string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 4
	MaxOpenConns int

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/reports.db",
		Driver:       DriverModernc,
		MaxOpenConns: 4,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements report.Storage using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (or creates) the database at config.Path and
// prepares the schema.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.MaxOpenConns <= 0 {
		config.MaxOpenConns = 4
	}

	logger := slog.Default().With("component", "report.storage.sqlite")

	driverName, dsn, err := sqliteDSN(config)
	if err != nil {
		return nil, report.NewStorageError("sqlite", "open", err)
	}

	if dir := filepath.Dir(config.Path); dir != "." && config.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, report.NewStorageError("sqlite", "mkdir", err)
		}
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, report.NewStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"driver", driverName,
	)

	return s, nil
}

// sqliteDSN maps the configured driver to its registered name and a DSN
// that applies the journal and busy settings on every new connection.
func sqliteDSN(config *SQLiteConfig) (string, string, error) {
	busyMs := config.BusyTimeout.Milliseconds()
	switch config.Driver {
	case DriverModernc, "":
		return "sqlite", fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
			config.Path, busyMs), nil
	case DriverCgo:
		return "sqlite3", fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
			config.Path, busyMs), nil
	default:
		return "", "", fmt.Errorf("unknown sqlite driver %q", config.Driver)
	}
}

// initialize creates the schema and verifies its version.
func (s *SQLiteStorage) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return report.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return report.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return report.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return report.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

// Store persists a report, replacing any report with the same ID.
func (s *SQLiteStorage) Store(ctx context.Context, r *report.Report) error {
	query := `INSERT OR REPLACE INTO reports (` + reportColumns + `
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var errorVal any
	if r.Error != "" {
		errorVal = r.Error
	}

	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.RunID, r.Gate,
		r.Occurrences, int64(r.TimeUnit), r.Workers, int64(r.Duration), int64(r.Timeout),
		r.StartedAt.UnixNano(), int64(r.Elapsed), r.RecordedAt.UnixNano(),
		r.Attempts, r.Admitted, r.Rejected, r.Cancelled,
		int64(r.LatencyP50), int64(r.LatencyP99), int64(r.LatencyMax),
		r.MaxInWindow, r.TotalBound, r.Passed, errorVal,
	)
	if err != nil {
		return report.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Get returns the report with the given ID.
func (s *SQLiteStorage) Get(ctx context.Context, id string) (*report.Report, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+reportColumns+" FROM reports WHERE id = ?", id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, report.NewStorageError("sqlite", "get", fmt.Errorf("%w: %s", report.ErrNotFound, id))
	}
	if err != nil {
		return nil, report.NewStorageError("sqlite", "get", err)
	}
	return r, nil
}

// Query retrieves reports matching the query filters, newest first.
func (s *SQLiteStorage) Query(ctx context.Context, query *report.Query) ([]*report.Report, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT " + reportColumns + " FROM reports"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}
	sqlQuery += " ORDER BY started_at DESC, id"

	if query != nil && (query.Limit > 0 || query.Offset > 0) {
		limit := -1
		if query.Limit > 0 {
			limit = query.Limit
		}
		sqlQuery += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, report.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	reports := []*report.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, report.NewStorageError("sqlite", "scan", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, report.NewStorageError("sqlite", "rows", err)
	}
	return reports, nil
}

// Count returns the number of reports matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *report.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM reports"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, report.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes reports matching the query filters.
func (s *SQLiteStorage) Delete(ctx context.Context, query *report.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "DELETE FROM reports"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	result, err := s.db.ExecContext(ctx, sqlQuery, args...)
	if err != nil {
		return 0, report.NewStorageError("sqlite", "delete", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, report.NewStorageError("sqlite", "rows_affected", err)
	}

	s.logger.Debug("reports deleted", "count", deleted)
	return deleted, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return report.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("SQLite storage closed")
	return nil
}

// buildWhereClause builds a SQL WHERE clause from query filters.
// Returns the clause (without "WHERE") and its arguments.
func buildWhereClause(query *report.Query) (string, []any) {
	if query == nil {
		return "", nil
	}

	var conditions []string
	var args []any

	if query.StartTime != nil {
		conditions = append(conditions, "started_at >= ?")
		args = append(args, query.StartTime.UnixNano())
	}
	if query.EndTime != nil {
		conditions = append(conditions, "started_at <= ?")
		args = append(args, query.EndTime.UnixNano())
	}
	if query.Gate != "" {
		conditions = append(conditions, "gate = ?")
		args = append(args, query.Gate)
	}
	if query.RunID != "" {
		conditions = append(conditions, "run_id = ?")
		args = append(args, query.RunID)
	}
	if query.Passed != nil {
		conditions = append(conditions, "passed = ?")
		args = append(args, *query.Passed)
	}

	return strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*report.Report, error) {
	var (
		r                                  report.Report
		timeUnit, duration, timeout        int64
		startedAt, elapsed, recordedAt     int64
		latencyP50, latencyP99, latencyMax int64
		errorVal                           sql.NullString
	)

	err := row.Scan(
		&r.ID, &r.RunID, &r.Gate,
		&r.Occurrences, &timeUnit, &r.Workers, &duration, &timeout,
		&startedAt, &elapsed, &recordedAt,
		&r.Attempts, &r.Admitted, &r.Rejected, &r.Cancelled,
		&latencyP50, &latencyP99, &latencyMax,
		&r.MaxInWindow, &r.TotalBound, &r.Passed, &errorVal,
	)
	if err != nil {
		return nil, err
	}

	r.TimeUnit = time.Duration(timeUnit)
	r.Duration = time.Duration(duration)
	r.Timeout = time.Duration(timeout)
	r.StartedAt = time.Unix(0, startedAt)
	r.Elapsed = time.Duration(elapsed)
	r.RecordedAt = time.Unix(0, recordedAt)
	r.LatencyP50 = time.Duration(latencyP50)
	r.LatencyP99 = time.Duration(latencyP99)
	r.LatencyMax = time.Duration(latencyMax)
	r.Error = errorVal.String

	return &r, nil
}
