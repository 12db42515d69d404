package memory

import (
	"context"
	"sync"

	"provia-quiz-service/internal/domain"
)

type ledgerKey struct {
	userID string
	day    int
}

// LedgerStore is an in-memory implementation of app.LedgerStore.
type LedgerStore struct {
	mu      sync.Mutex
	entries map[ledgerKey]domain.AttemptLedgerEntry
}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{entries: make(map[ledgerKey]domain.AttemptLedgerEntry)}
}

func (s *LedgerStore) Get(_ context.Context, userID string, day int) (domain.AttemptLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[ledgerKey{userID, day}]
	if !ok {
		return domain.AttemptLedgerEntry{Day: day}, nil
	}
	return copyEntry(entry), nil
}

func (s *LedgerStore) Update(_ context.Context, userID string, day int, fn func(domain.AttemptLedgerEntry) (domain.AttemptLedgerEntry, error)) (domain.AttemptLedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ledgerKey{userID, day}
	current, ok := s.entries[key]
	if !ok {
		current = domain.AttemptLedgerEntry{Day: day}
	}
	next, err := fn(copyEntry(current))
	if err != nil {
		return current, err
	}
	next.Day = day
	s.entries[key] = copyEntry(next)
	return next, nil
}

func copyEntry(e domain.AttemptLedgerEntry) domain.AttemptLedgerEntry {
	if e.CooldownUntil != nil {
		until := *e.CooldownUntil
		e.CooldownUntil = &until
	}
	return e
}
