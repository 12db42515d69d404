package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"provia-quiz-service/internal/domain"
)

// CompletionReward is the credit bonus for passing a curriculum day.
const CompletionReward = 10

const dateLayout = "2006-01-02"

// ProgressNotifier receives passed daily sessions. It is fire-and-forget:
// implementations log their own failures.
type ProgressNotifier interface {
	NotifyCompletion(ctx context.Context, userID string, day, score int)
}

// ProgressStore persists roadmap progress. Load returns domain.NewProgress for
// unknown users; Update applies fn atomically per user.
type ProgressStore interface {
	Load(ctx context.Context, userID string) (domain.Progress, error)
	Update(ctx context.Context, userID string, fn func(*domain.Progress) error) (domain.Progress, error)
}

// ProgressTracker applies unlocks, rewards and streaks to stored progress.
type ProgressTracker struct {
	store  ProgressStore
	logger *slog.Logger
	now    func() time.Time
}

func NewProgressTracker(store ProgressStore, logger *slog.Logger) *ProgressTracker {
	return NewProgressTrackerWithClock(store, logger, time.Now)
}

// NewProgressTrackerWithClock is used by tests for deterministic streaks.
func NewProgressTrackerWithClock(store ProgressStore, logger *slog.Logger, now func() time.Time) *ProgressTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressTracker{store: store, logger: logger, now: now}
}

// NotifyCompletion marks day completed and, on a passing score, unlocks the
// next day and grants CompletionReward credits.
func (t *ProgressTracker) NotifyCompletion(ctx context.Context, userID string, day, score int) {
	_, err := t.store.Update(ctx, userID, func(p *domain.Progress) error {
		completeDay(p, day, score)
		return nil
	})
	if err != nil {
		t.logger.Error("record day completion", "user", userID, "day", day, "score", score, "error", err)
		return
	}
	t.logger.Info("day completed", "user", userID, "day", day, "score", score)
}

// Roadmap returns the user's stored progress.
func (t *ProgressTracker) Roadmap(ctx context.Context, userID string) (domain.Progress, error) {
	p, err := t.store.Load(ctx, userID)
	if err != nil {
		return domain.Progress{}, fmt.Errorf("load progress: %w", err)
	}
	return p, nil
}

// TouchStreak records activity today: consecutive days extend the streak,
// a gap restarts it at 1.
func (t *ProgressTracker) TouchStreak(ctx context.Context, userID string) (domain.Progress, error) {
	today := t.now()
	return t.store.Update(ctx, userID, func(p *domain.Progress) error {
		touchStreak(p, today)
		return nil
	})
}

// AddCredits credits amount to the user's wallet.
func (t *ProgressTracker) AddCredits(ctx context.Context, userID string, amount int) (domain.Progress, error) {
	return t.store.Update(ctx, userID, func(p *domain.Progress) error {
		p.Credits += amount
		return nil
	})
}

// SpendCredits debits amount, failing when the balance is too low.
func (t *ProgressTracker) SpendCredits(ctx context.Context, userID string, amount int) (domain.Progress, error) {
	return t.store.Update(ctx, userID, func(p *domain.Progress) error {
		if p.Credits < amount {
			return domain.ErrInsufficientCredits
		}
		p.Credits -= amount
		return nil
	})
}

func completeDay(p *domain.Progress, day, score int) {
	if day < 1 || day > len(p.Days) {
		return
	}
	d := &p.Days[day-1]
	d.Completed = true
	d.Unlocked = true
	d.Score = score
	if !Passed(score) {
		return
	}
	if day < len(p.Days) {
		p.Days[day].Unlocked = true
	}
	p.Credits += CompletionReward
}

func touchStreak(p *domain.Progress, now time.Time) {
	today := now.Format(dateLayout)
	if p.LastActive == today {
		return
	}
	yesterday := now.AddDate(0, 0, -1).Format(dateLayout)
	if p.LastActive == yesterday {
		p.Streak++
	} else {
		p.Streak = 1
	}
	p.LastActive = today
}
