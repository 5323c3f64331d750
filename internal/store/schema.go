package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS scan_runs (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    ran_at              TEXT NOT NULL,
    input_path          TEXT NOT NULL,
    event_count         INTEGER NOT NULL,
    mode                TEXT NOT NULL,
    total_cost          REAL NOT NULL,
    estimated_savings   REAL NOT NULL,
    unknown_models      INTEGER NOT NULL,
    rate_table_version  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS guard_runs (
    id                  INTEGER PRIMARY KEY AUTOINCREMENT,
    ran_at              TEXT NOT NULL,
    baseline_path       TEXT NOT NULL,
    candidate_path      TEXT,
    exit_code           INTEGER NOT NULL,
    baseline_cost       REAL NOT NULL,
    candidate_cost      REAL NOT NULL,
    monthly_delta       REAL NOT NULL,
    risk                TEXT NOT NULL,
    confidence          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scan_runs_ran_at ON scan_runs(ran_at);
CREATE INDEX IF NOT EXISTS idx_guard_runs_ran_at ON guard_runs(ran_at);
`
