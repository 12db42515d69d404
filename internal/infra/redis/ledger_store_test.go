package redis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"provia-quiz-service/internal/domain"
)

func TestLedgerStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewLedgerStore(newClient(mr))

	entry, err := store.Get(ctx, "u1", 4)
	if err != nil {
		t.Fatalf("get empty: %v", err)
	}
	if entry.Day != 4 || entry.FailCount != 0 || entry.CooldownUntil != nil {
		t.Fatalf("expected zero entry, got %+v", entry)
	}

	until := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	_, err = store.Update(ctx, "u1", 4, func(e domain.AttemptLedgerEntry) (domain.AttemptLedgerEntry, error) {
		e.FailCount = 2
		e.CooldownUntil = &until
		return e, nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	raw := mr.HGet("provia:attempts:u1", "4")
	if !strings.Contains(raw, `"failCount":2`) || !strings.Contains(raw, `"cooldownUntilEpochMs":1772368200000`) {
		t.Fatalf("unexpected stored layout %s", raw)
	}

	entry, err = store.Get(ctx, "u1", 4)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if entry.FailCount != 2 || entry.CooldownUntil == nil || !entry.CooldownUntil.Equal(until) {
		t.Fatalf("unexpected entry %+v", entry)
	}

	_, err = store.Update(ctx, "u1", 4, func(e domain.AttemptLedgerEntry) (domain.AttemptLedgerEntry, error) {
		e.FailCount = 0
		e.CooldownUntil = nil
		return e, nil
	})
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if raw := mr.HGet("provia:attempts:u1", "4"); !strings.Contains(raw, `"cooldownUntilEpochMs":null`) {
		t.Fatalf("expected null cooldown, got %s", raw)
	}
}

func TestLedgerStoreConcurrentIncrements(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewLedgerStore(newClient(mr))

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Update(ctx, "u1", 1, func(e domain.AttemptLedgerEntry) (domain.AttemptLedgerEntry, error) {
				e.FailCount++
				return e, nil
			})
			if err != nil {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()

	entry, _ := store.Get(ctx, "u1", 1)
	if entry.FailCount != 3 {
		t.Fatalf("expected 3 increments, got %d", entry.FailCount)
	}
}

func TestLedgerStoreUpdatePropagatesFnError(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewLedgerStore(newClient(mr))
	boom := errors.New("boom")
	_, err = store.Update(context.Background(), "u1", 1, func(e domain.AttemptLedgerEntry) (domain.AttemptLedgerEntry, error) {
		return e, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if mr.Exists("provia:attempts:u1") {
		t.Fatalf("nothing should be written on error")
	}
}
