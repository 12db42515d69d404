// Package sqlite persists the attempt ledger in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"provia-quiz-service/internal/domain"
)

// LedgerStore implements app.LedgerStore using SQLite.
type LedgerStore struct {
	db *sql.DB
}

// Open creates the database file and schema if needed.
func Open(dbPath string) (*LedgerStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// a single writer keeps read-modify-write transactions from hitting SQLITE_BUSY
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &LedgerStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *LedgerStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS attempt_ledger (
		user_id TEXT NOT NULL,
		day_index INTEGER NOT NULL,
		fail_count INTEGER NOT NULL DEFAULT 0,
		cooldown_until_ms INTEGER,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, day_index)
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *LedgerStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database.
func (s *LedgerStore) Close() error {
	return s.db.Close()
}

func (s *LedgerStore) Get(ctx context.Context, userID string, day int) (domain.AttemptLedgerEntry, error) {
	return getEntry(ctx, s.db, userID, day)
}

func (s *LedgerStore) Update(ctx context.Context, userID string, day int, fn func(domain.AttemptLedgerEntry) (domain.AttemptLedgerEntry, error)) (domain.AttemptLedgerEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.AttemptLedgerEntry{}, fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback()

	current, err := getEntry(ctx, tx, userID, day)
	if err != nil {
		return domain.AttemptLedgerEntry{}, err
	}
	next, err := fn(current)
	if err != nil {
		return domain.AttemptLedgerEntry{}, err
	}
	next.Day = day

	var cooldown sql.NullInt64
	if ms := domain.EpochMillis(next.CooldownUntil); ms != nil {
		cooldown = sql.NullInt64{Int64: *ms, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO attempt_ledger (user_id, day_index, fail_count, cooldown_until_ms, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, day_index) DO UPDATE SET
			fail_count = excluded.fail_count,
			cooldown_until_ms = excluded.cooldown_until_ms,
			updated_at = excluded.updated_at`,
		userID, day, next.FailCount, cooldown, time.Now().Unix())
	if err != nil {
		return domain.AttemptLedgerEntry{}, fmt.Errorf("upsert ledger entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.AttemptLedgerEntry{}, fmt.Errorf("commit ledger tx: %w", err)
	}
	return next, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getEntry(ctx context.Context, q queryer, userID string, day int) (domain.AttemptLedgerEntry, error) {
	row := q.QueryRowContext(ctx, `
		SELECT fail_count, cooldown_until_ms
		FROM attempt_ledger WHERE user_id = ? AND day_index = ?`, userID, day)

	entry := domain.AttemptLedgerEntry{Day: day}
	var cooldown sql.NullInt64
	err := row.Scan(&entry.FailCount, &cooldown)
	if errors.Is(err, sql.ErrNoRows) {
		return entry, nil
	}
	if err != nil {
		return domain.AttemptLedgerEntry{}, fmt.Errorf("scan ledger row: %w", err)
	}
	if cooldown.Valid {
		entry.CooldownUntil = domain.FromEpochMillis(&cooldown.Int64)
	}
	return entry, nil
}
