package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"provia-quiz-service/internal/domain"
)

// LedgerStore keeps the attempt ledger in the attempt_ledger table.
type LedgerStore struct {
	pool *pgxpool.Pool
}

func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

func (s *LedgerStore) Get(ctx context.Context, userID string, day int) (domain.AttemptLedgerEntry, error) {
	return getEntry(ctx, s.pool, userID, day, false)
}

// Update locks the row (or the insert slot) for the duration of fn.
func (s *LedgerStore) Update(ctx context.Context, userID string, day int, fn func(domain.AttemptLedgerEntry) (domain.AttemptLedgerEntry, error)) (domain.AttemptLedgerEntry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.AttemptLedgerEntry{}, fmt.Errorf("begin ledger tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// make sure a row exists so FOR UPDATE has something to lock
	if _, err := tx.Exec(ctx, `
		INSERT INTO attempt_ledger (user_id, day_index) VALUES ($1, $2)
		ON CONFLICT (user_id, day_index) DO NOTHING`, userID, day); err != nil {
		return domain.AttemptLedgerEntry{}, fmt.Errorf("seed ledger row: %w", err)
	}
	current, err := getEntry(ctx, tx, userID, day, true)
	if err != nil {
		return domain.AttemptLedgerEntry{}, err
	}
	next, err := fn(current)
	if err != nil {
		return domain.AttemptLedgerEntry{}, err
	}
	next.Day = day

	if _, err := tx.Exec(ctx, `
		UPDATE attempt_ledger SET fail_count = $3, cooldown_until = $4, updated_at = now()
		WHERE user_id = $1 AND day_index = $2`,
		userID, day, next.FailCount, next.CooldownUntil); err != nil {
		return domain.AttemptLedgerEntry{}, fmt.Errorf("update ledger row: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.AttemptLedgerEntry{}, fmt.Errorf("commit ledger tx: %w", err)
	}
	return next, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func getEntry(ctx context.Context, q rowQuerier, userID string, day int, forUpdate bool) (domain.AttemptLedgerEntry, error) {
	query := `SELECT fail_count, cooldown_until FROM attempt_ledger WHERE user_id = $1 AND day_index = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	entry := domain.AttemptLedgerEntry{Day: day}
	var cooldown *time.Time
	err := q.QueryRow(ctx, query, userID, day).Scan(&entry.FailCount, &cooldown)
	if errors.Is(err, pgx.ErrNoRows) {
		return entry, nil
	}
	if err != nil {
		return domain.AttemptLedgerEntry{}, fmt.Errorf("read ledger row: %w", err)
	}
	if cooldown != nil {
		utc := cooldown.UTC()
		entry.CooldownUntil = &utc
	}
	return entry, nil
}
