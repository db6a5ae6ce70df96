package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hurtener/penguiflow-go/emit"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a file-backed Store, for single-process deployments that
// need pause/resume durability to survive a process restart. Ported from
// dshills-langgraph-go/graph/store.SQLiteStore's connection setup (single
// writer, WAL mode, busy timeout) and auto-migration-on-open pattern,
// narrowed from its five-table checkpoint/step/idempotency/outbox schema
// to the two tables this runtime's StateStore protocol actually needs:
// pauses and events.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) a SQLite database at path and
// migrates its schema. path may be ":memory:" for a process-local store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite connection: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS pauses (
			token TEXT PRIMARY KEY,
			reason TEXT NOT NULL,
			payload TEXT NOT NULL,
			trajectory TEXT NOT NULL,
			pending_step TEXT NOT NULL,
			llm_context TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS trace_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trace_id TEXT NOT NULL,
			event TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trace_events_trace_id ON trace_events(trace_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) SavePause(ctx context.Context, token string, record PauseRecord, ttl time.Duration) error {
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: time.Now().Add(ttl), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pauses (token, reason, payload, trajectory, pending_step, llm_context, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET
			reason=excluded.reason, payload=excluded.payload, trajectory=excluded.trajectory,
			pending_step=excluded.pending_step, llm_context=excluded.llm_context,
			created_at=excluded.created_at, expires_at=excluded.expires_at
	`, token, record.Reason, string(record.Payload), string(record.Trajectory),
		string(record.PendingStep), string(record.LLMContext), record.CreatedAt, expiresAt)
	if err != nil {
		return fmt.Errorf("store: save pause: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadPause(ctx context.Context, token string) (PauseRecord, error) {
	var (
		record                                       PauseRecord
		payload, trajectory, pendingStep, llmContext string
		expiresAt                                    sql.NullTime
	)
	row := s.db.QueryRowContext(ctx, `
		SELECT reason, payload, trajectory, pending_step, llm_context, created_at, expires_at
		FROM pauses WHERE token = ?
	`, token)
	if err := row.Scan(&record.Reason, &payload, &trajectory, &pendingStep, &llmContext, &record.CreatedAt, &expiresAt); err != nil {
		if err == sql.ErrNoRows {
			return PauseRecord{}, ErrNotFound
		}
		return PauseRecord{}, fmt.Errorf("store: load pause: %w", err)
	}
	if expiresAt.Valid && time.Now().After(expiresAt.Time) {
		_ = s.DeletePause(ctx, token)
		return PauseRecord{}, ErrNotFound
	}
	record.Token = token
	record.Payload = json.RawMessage(payload)
	record.Trajectory = json.RawMessage(trajectory)
	record.PendingStep = json.RawMessage(pendingStep)
	record.LLMContext = json.RawMessage(llmContext)
	return record, nil
}

func (s *SQLiteStore) DeletePause(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM pauses WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("store: delete pause: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AppendEvent(ctx context.Context, traceID string, ev emit.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("store: marshal event: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO trace_events (trace_id, event) VALUES (?, ?)`, traceID, string(data))
	if err != nil {
		return fmt.Errorf("store: append event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListEvents(ctx context.Context, traceID string) ([]emit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT event FROM trace_events WHERE trace_id = ? ORDER BY id ASC`, traceID)
	if err != nil {
		return nil, fmt.Errorf("store: list events: %w", err)
	}
	defer rows.Close()

	var out []emit.Event
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("store: scan event: %w", err)
		}
		var ev emit.Event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			return nil, fmt.Errorf("store: unmarshal event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

var _ Store = (*SQLiteStore)(nil)
