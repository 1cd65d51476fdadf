/*
Package sqlite provides a SQLite-backed implementation of the draft
persistence interfaces.

PURPOSE:
  Implements draft.SaveSink for production auto-save, plus snapshot loading
  for wizard resume and a record of submitted contracts. In production the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  draft_snapshots:     Versioned auto-save snapshots keyed by session
  submitted_contracts: Local record of drafts accepted by the contracts API

CONCURRENCY:
  Uses sync.RWMutex for thread-safety; the auto-save timer goroutine and the
  HTTP handlers both write here.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so snapshot reads don't
  block timer-driven writes.

USAGE:
  store, err := sqlite.New("./data/wizard.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  sess := draft.NewSession(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper migration
  tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - draft/autosave.go: The SaveSink contract
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/danielGPGT/tour-ops-saas-app-sub001/draft"
)

// Store implements draft.SaveSink on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Auto-save snapshots, one row per (session, version)
	CREATE TABLE IF NOT EXISTS draft_snapshots (
		session_id   TEXT NOT NULL,
		version      INTEGER NOT NULL,
		current_step INTEGER NOT NULL,
		taken_at     TEXT NOT NULL,
		draft_json   TEXT NOT NULL,
		PRIMARY KEY (session_id, version)
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_session ON draft_snapshots(session_id, version DESC);

	-- Drafts accepted by the external contracts API
	CREATE TABLE IF NOT EXISTS submitted_contracts (
		id              TEXT PRIMARY KEY,
		session_id      TEXT NOT NULL,
		contract_number TEXT,
		contract_name   TEXT,
		submitted_at    TEXT NOT NULL,
		draft_json      TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SAVE SINK
// =============================================================================

// Save persists an auto-save snapshot. Implements draft.SaveSink.
func (s *Store) Save(ctx context.Context, snap draft.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draftJSON, err := json.Marshal(snap.Draft)
	if err != nil {
		return fmt.Errorf("failed to serialize draft: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO draft_snapshots (session_id, version, current_step, taken_at, draft_json)
		VALUES (?, ?, ?, ?, ?)`,
		snap.SessionID, snap.Version, int(snap.CurrentStep),
		snap.Timestamp.UTC().Format(time.RFC3339), string(draftJSON))
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadLatest returns the most recent snapshot for a session, or nil if the
// session has never been saved.
func (s *Store) LoadLatest(ctx context.Context, sessionID string) (*draft.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT version, current_step, taken_at, draft_json
		FROM draft_snapshots
		WHERE session_id = ?
		ORDER BY version DESC
		LIMIT 1`, sessionID)

	var (
		version   int
		step      int
		takenAt   string
		draftJSON string
	)
	if err := row.Scan(&version, &step, &takenAt, &draftJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	snap := draft.Snapshot{
		SessionID:   sessionID,
		CurrentStep: draft.Step(step),
		Version:     version,
	}
	if t, err := time.Parse(time.RFC3339, takenAt); err == nil {
		snap.Timestamp = t
	}
	if err := json.Unmarshal([]byte(draftJSON), &snap.Draft); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot draft: %w", err)
	}
	return &snap, nil
}

// =============================================================================
// SUBMITTED CONTRACTS
// =============================================================================

// SubmittedContract is the local record of a draft accepted by the external
// contract-creation API.
type SubmittedContract struct {
	ID             string
	SessionID      string
	ContractNumber string
	ContractName   string
	SubmittedAt    time.Time
	Draft          draft.WizardDraft
}

// RecordSubmission stores a successfully submitted draft.
func (s *Store) RecordSubmission(ctx context.Context, rec SubmittedContract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draftJSON, err := json.Marshal(rec.Draft)
	if err != nil {
		return fmt.Errorf("failed to serialize draft: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submitted_contracts (id, session_id, contract_number, contract_name, submitted_at, draft_json)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.ContractNumber, rec.ContractName,
		rec.SubmittedAt.UTC().Format(time.RFC3339), string(draftJSON))
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

// ListSubmissions returns submitted contracts, newest first.
func (s *Store) ListSubmissions(ctx context.Context) ([]SubmittedContract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, contract_number, contract_name, submitted_at, draft_json
		FROM submitted_contracts
		ORDER BY submitted_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var out []SubmittedContract
	for rows.Next() {
		var (
			rec         SubmittedContract
			submittedAt string
			draftJSON   string
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.ContractNumber, &rec.ContractName, &submittedAt, &draftJSON); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, submittedAt); err == nil {
			rec.SubmittedAt = t
		}
		if err := json.Unmarshal([]byte(draftJSON), &rec.Draft); err != nil {
			return nil, fmt.Errorf("failed to decode submission draft: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
