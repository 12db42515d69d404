package redis

import (
	"context"
	"errors"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"provia-quiz-service/internal/domain"
)

func TestProgressStorePersistsJSON(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewProgressStore(newClient(mr))

	p, err := store.Load(ctx, "u1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Credits != domain.StartingCredits || len(p.Days) != domain.CurriculumDays {
		t.Fatalf("expected fresh progress, got credits=%d days=%d", p.Credits, len(p.Days))
	}

	_, err = store.Update(ctx, "u1", func(p *domain.Progress) error {
		p.Credits += 10
		p.Days[1].Unlocked = true
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !mr.Exists("provia:progress:u1") {
		t.Fatalf("expected progress key")
	}

	p, _ = store.Load(ctx, "u1")
	if p.Credits != domain.StartingCredits+10 || !p.Days[1].Unlocked {
		t.Fatalf("unexpected stored progress credits=%d day2=%v", p.Credits, p.Days[1].Unlocked)
	}

	_, err = store.Update(ctx, "u1", func(p *domain.Progress) error {
		return domain.ErrInsufficientCredits
	})
	if !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("expected fn error, got %v", err)
	}
}
