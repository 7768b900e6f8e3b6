// Package store persists run history: one row per test run with its terminal
// state, verdict, and artifact paths, so regressions across runs are
// queryable after the fact.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"callcheck/internal/verify"
)

// Run is one recorded test run.
type Run struct {
	ID             string          `json:"id"`
	Persona        string          `json:"persona"`
	Scenario       string          `json:"scenario,omitempty"`
	StartedAt      time.Time       `json:"started_at"`
	EndedAt        time.Time       `json:"ended_at"`
	TerminalState  string          `json:"terminal_state"`
	TranscriptPath string          `json:"transcript_path,omitempty"`
	ReportPath     string          `json:"report_path,omitempty"`
	Verdict        *verify.Verdict `json:"verdict,omitempty"`
}

// Store manages the run-history database.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open creates or opens the run-history store at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize run store schema: %w", err)
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

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		persona TEXT NOT NULL,
		scenario TEXT,
		started_at DATETIME NOT NULL,
		ended_at DATETIME NOT NULL,
		terminal_state TEXT NOT NULL,
		transcript_path TEXT,
		report_path TEXT,
		passed INTEGER,
		score INTEGER,
		verdict_json TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_state ON runs(terminal_state);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun records a completed run. A missing ID is generated; a nil verdict
// is stored as NULL so transcript-only runs are still queryable.
func (s *Store) SaveRun(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	var verdictJSON sql.NullString
	var passed sql.NullBool
	var score sql.NullInt64
	if run.Verdict != nil {
		data, err := json.Marshal(run.Verdict)
		if err != nil {
			return "", fmt.Errorf("marshal verdict: %w", err)
		}
		verdictJSON = sql.NullString{String: string(data), Valid: true}
		passed = sql.NullBool{Bool: run.Verdict.Passed, Valid: true}
		score = sql.NullInt64{Int64: int64(run.Verdict.Score), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, persona, scenario, started_at, ended_at,
			terminal_state, transcript_path, report_path, passed, score, verdict_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Persona, run.Scenario,
		run.StartedAt.UTC(), run.EndedAt.UTC(),
		run.TerminalState, run.TranscriptPath, run.ReportPath,
		passed, score, verdictJSON,
	)
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	return run.ID, nil
}

// GetRun loads a single run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, persona, scenario, started_at, ended_at,
			terminal_state, transcript_path, report_path, verdict_json
		FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// RecentRuns returns the newest runs first, capped at limit.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, persona, scenario, started_at, ended_at,
			terminal_state, transcript_path, report_path, verdict_json
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (Run, error) {
	var run Run
	var scenario, transcriptPath, reportPath, verdictJSON sql.NullString

	err := row.Scan(&run.ID, &run.Persona, &scenario,
		&run.StartedAt, &run.EndedAt, &run.TerminalState,
		&transcriptPath, &reportPath, &verdictJSON)
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	run.Scenario = scenario.String
	run.TranscriptPath = transcriptPath.String
	run.ReportPath = reportPath.String
	if verdictJSON.Valid && verdictJSON.String != "" {
		var v verify.Verdict
		if err := json.Unmarshal([]byte(verdictJSON.String), &v); err != nil {
			return Run{}, fmt.Errorf("decode verdict: %w", err)
		}
		run.Verdict = &v
	}
	return run, nil
}
