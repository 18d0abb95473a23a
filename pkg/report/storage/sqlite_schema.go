package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the report tables. Timestamps and durations are stored as
// integer nanoseconds so both SQLite drivers round-trip them identically.
const Schema = `
CREATE TABLE IF NOT EXISTS reports (
    id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    gate TEXT NOT NULL,

    -- Gate and load settings
    occurrences INTEGER NOT NULL,
    time_unit_ns INTEGER NOT NULL,
    workers INTEGER NOT NULL,
    duration_ns INTEGER NOT NULL,
    timeout_ns INTEGER NOT NULL,

    -- Timing
    started_at INTEGER NOT NULL,
    elapsed_ns INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL,

    -- Outcomes
    attempts INTEGER NOT NULL,
    admitted INTEGER NOT NULL,
    rejected INTEGER NOT NULL,
    cancelled INTEGER NOT NULL,

    -- Latency
    latency_p50_ns INTEGER NOT NULL,
    latency_p99_ns INTEGER NOT NULL,
    latency_max_ns INTEGER NOT NULL,

    -- Audit
    max_in_window INTEGER NOT NULL,
    total_bound INTEGER NOT NULL,
    passed BOOLEAN NOT NULL,
    error TEXT
);

CREATE INDEX IF NOT EXISTS idx_reports_started_at ON reports(started_at);
CREATE INDEX IF NOT EXISTS idx_reports_gate ON reports(gate);
CREATE INDEX IF NOT EXISTS idx_reports_run_id ON reports(run_id);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const reportColumns = `
    id, run_id, gate,
    occurrences, time_unit_ns, workers, duration_ns, timeout_ns,
    started_at, elapsed_ns, recorded_at,
    attempts, admitted, rejected, cancelled,
    latency_p50_ns, latency_p99_ns, latency_max_ns,
    max_in_window, total_bound, passed, error`
