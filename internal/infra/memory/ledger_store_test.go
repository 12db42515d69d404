package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"provia-quiz-service/internal/domain"
)

func TestLedgerStoreUpdateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore()

	entry, err := store.Get(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry.FailCount != 0 || entry.CooldownUntil != nil {
		t.Fatalf("expected zero entry, got %+v", entry)
	}

	until := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	_, err = store.Update(ctx, "u1", 3, func(e domain.AttemptLedgerEntry) (domain.AttemptLedgerEntry, error) {
		e.FailCount++
		e.CooldownUntil = &until
		return e, nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	entry, _ = store.Get(ctx, "u1", 3)
	if entry.FailCount != 1 || entry.CooldownUntil == nil || !entry.CooldownUntil.Equal(until) {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if other, _ := store.Get(ctx, "u2", 3); other.FailCount != 0 {
		t.Fatalf("ledger must be keyed per user")
	}
}

func TestLedgerStoreUpdateErrorKeepsEntry(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore()
	boom := errors.New("boom")

	_, err := store.Update(ctx, "u1", 1, func(e domain.AttemptLedgerEntry) (domain.AttemptLedgerEntry, error) {
		e.FailCount = 2
		return e, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if entry, _ := store.Get(ctx, "u1", 1); entry.FailCount != 0 {
		t.Fatalf("failed update must not be stored, got %+v", entry)
	}
}

func TestProgressStoreStartsFresh(t *testing.T) {
	ctx := context.Background()
	store := NewProgressStore()

	p, err := store.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Credits != domain.StartingCredits || !p.Days[0].Unlocked || p.Days[1].Unlocked {
		t.Fatalf("unexpected initial progress %+v", p)
	}

	_, err = store.Update(ctx, "u1", func(p *domain.Progress) error {
		p.Days[1].Unlocked = true
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	p, _ = store.Load(ctx, "u1")
	if !p.Days[1].Unlocked {
		t.Fatalf("expected day 2 unlocked after update")
	}
}
