// Package store keeps a SQLite-backed history of scan and guard runs.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aiopt-dev/aiopt/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// History provides SQLite-backed run history.
type History struct {
	db *sql.DB
}

// DefaultPath returns the XDG-compliant history database location.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "aiopt", "history.db")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "aiopt", "history.db")
}

// Open opens or creates the history database at the given path.
func Open(dbPath string) (*History, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &History{db: db}, nil
}

// Close closes the history database.
func (h *History) Close() error {
	return h.db.Close()
}

// ScanRun is one recorded analysis run.
type ScanRun struct {
	ID               int64
	RanAt            time.Time
	InputPath        string
	EventCount       int64
	Mode             string
	TotalCost        float64
	EstimatedSavings float64
	UnknownModels    int64
	RateTableVersion string
}

// GuardRun is one recorded guard verdict.
type GuardRun struct {
	ID            int64
	RanAt         time.Time
	BaselinePath  string
	CandidatePath string
	ExitCode      int64
	BaselineCost  float64
	CandidateCost float64
	MonthlyDelta  float64
	Risk          string
	Confidence    string
}

// SaveScan records an analysis run.
func (h *History) SaveScan(inputPath string, eventCount int, mode model.Mode, a model.Analysis, s model.Savings) error {
	_, err := h.db.Exec(`INSERT INTO scan_runs
		(ran_at, input_path, event_count, mode, total_cost, estimated_savings, unknown_models, rate_table_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), inputPath, eventCount, mode.String(),
		a.TotalCost, s.EstimatedSavingsTotal, len(a.UnknownModels), a.RateTableVersion,
	)
	if err != nil {
		return fmt.Errorf("saving scan run: %w", err)
	}
	return nil
}

// SaveGuard records a guard verdict. candidatePath is empty in transform mode.
func (h *History) SaveGuard(baselinePath, candidatePath string, r model.GuardResult) error {
	_, err := h.db.Exec(`INSERT INTO guard_runs
		(ran_at, baseline_path, candidate_path, exit_code, baseline_cost, candidate_cost, monthly_delta, risk, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), baselinePath, nullableString(candidatePath),
		r.ExitCode, r.BaselineCost, r.CandidateCost, r.MonthlyDelta, string(r.Risk), string(r.Confidence),
	)
	if err != nil {
		return fmt.Errorf("saving guard run: %w", err)
	}
	return nil
}

// ListScans returns the most recent scan runs, newest first.
func (h *History) ListScans(limit int) ([]ScanRun, error) {
	rows, err := h.db.Query(`SELECT
		id, ran_at, input_path, event_count, mode, total_cost, estimated_savings, unknown_models, rate_table_version
		FROM scan_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []ScanRun
	for rows.Next() {
		var r ScanRun
		var ranAt string
		if err := rows.Scan(&r.ID, &ranAt, &r.InputPath, &r.EventCount, &r.Mode,
			&r.TotalCost, &r.EstimatedSavings, &r.UnknownModels, &r.RateTableVersion); err != nil {
			return nil, err
		}
		r.RanAt, _ = time.Parse(time.RFC3339, ranAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ListGuards returns the most recent guard runs, newest first.
func (h *History) ListGuards(limit int) ([]GuardRun, error) {
	rows, err := h.db.Query(`SELECT
		id, ran_at, baseline_path, candidate_path, exit_code, baseline_cost, candidate_cost, monthly_delta, risk, confidence
		FROM guard_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []GuardRun
	for rows.Next() {
		var r GuardRun
		var ranAt string
		var candidate sql.NullString
		if err := rows.Scan(&r.ID, &ranAt, &r.BaselinePath, &candidate, &r.ExitCode,
			&r.BaselineCost, &r.CandidateCost, &r.MonthlyDelta, &r.Risk, &r.Confidence); err != nil {
			return nil, err
		}
		r.RanAt, _ = time.Parse(time.RFC3339, ranAt)
		if candidate.Valid {
			r.CandidatePath = candidate.String
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ScanCount returns the number of recorded scan runs.
func (h *History) ScanCount() (int, error) {
	var count int
	err := h.db.QueryRow("SELECT COUNT(*) FROM scan_runs").Scan(&count)
	return count, err
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
