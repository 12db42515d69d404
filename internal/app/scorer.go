package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"provia-quiz-service/internal/domain"
)

const (
	// PassThreshold is the minimum score that passes a session.
	PassThreshold = 80
	// MaxAttempts is the number of fails allowed before the long cooldown.
	MaxAttempts = 3
	// ShortCooldown follows a fail while attempts remain.
	ShortCooldown = 30 * time.Minute
	// LongCooldown follows the fail that exhausts the attempts.
	LongCooldown = 240 * time.Minute
)

// Score counts answers matching the correct option and rounds the percentage.
// Unanswered questions count as wrong.
func Score(questions []domain.QuestionRecord, answers map[int]int) (correct, score int, err error) {
	if len(questions) == 0 {
		return 0, 0, domain.ErrEmptySession
	}
	for i, q := range questions {
		if chosen, ok := answers[i]; ok && chosen == q.CorrectOptionIndex {
			correct++
		}
	}
	score = int(math.Round(100 * float64(correct) / float64(len(questions))))
	return correct, score, nil
}

// Passed applies the fixed pass threshold.
func Passed(score int) bool {
	return score >= PassThreshold
}

// AttemptPolicy scores finished sessions and keeps the per-day attempt ledger.
type AttemptPolicy struct {
	ledger LedgerStore
	now    func() time.Time
}

func NewAttemptPolicy(ledger LedgerStore) *AttemptPolicy {
	return NewAttemptPolicyWithClock(ledger, time.Now)
}

// NewAttemptPolicyWithClock is used by tests for deterministic cooldowns.
func NewAttemptPolicyWithClock(ledger LedgerStore, now func() time.Time) *AttemptPolicy {
	return &AttemptPolicy{ledger: ledger, now: now}
}

// AttemptInfo reports the attempt state of day without changing the ledger.
func (p *AttemptPolicy) AttemptInfo(ctx context.Context, userID string, day int) (domain.AttemptInfo, error) {
	if day < 1 {
		return domain.AttemptInfo{}, domain.ErrInvalidDay
	}
	entry, err := p.ledger.Get(ctx, userID, day)
	if err != nil {
		return domain.AttemptInfo{}, fmt.Errorf("read attempt ledger: %w", err)
	}
	now := p.now()
	return attemptInfo(day, forgive(entry, now), now), nil
}

// Finish scores a session in the result phase. Daily sessions also update the
// ledger; if that write fails the computed result is still returned alongside
// the error, with AttemptsUnknown set instead of an attempt count.
func (p *AttemptPolicy) Finish(ctx context.Context, userID string, s *Session) (domain.SessionResult, error) {
	if s.Phase() != domain.PhaseResult {
		return domain.SessionResult{}, domain.ErrSessionNotFinished
	}
	questions := s.Questions()
	correct, score, err := Score(questions, s.Answers())
	if err != nil {
		return domain.SessionResult{}, err
	}
	result := domain.SessionResult{
		SessionID:      s.ID(),
		Mode:           s.Mode(),
		Day:            s.Day(),
		Correct:        correct,
		Total:          len(questions),
		Score:          score,
		Passed:         Passed(score),
		AttemptsLeft:   MaxAttempts,
		ExpiredByTimer: s.ExpiredByTimer(),
	}
	if s.Mode() != domain.ModeDaily {
		return result, nil
	}
	if s.Day() < 1 {
		return result, domain.ErrInvalidDay
	}

	now := p.now()
	next, err := p.ledger.Update(ctx, userID, s.Day(), func(entry domain.AttemptLedgerEntry) (domain.AttemptLedgerEntry, error) {
		return recordOutcome(forgive(entry, now), s.Day(), result.Passed, now), nil
	})
	if err != nil {
		result.AttemptsLeft = 0
		result.AttemptsUnknown = true
		return result, fmt.Errorf("update attempt ledger: %w", err)
	}

	result.AttemptsLeft = attemptsLeft(next.FailCount)
	result.LockedLong = !result.Passed && next.FailCount >= MaxAttempts
	result.CooldownUntilEpochMs = domain.EpochMillis(next.CooldownUntil)
	return result, nil
}

// forgive clears an entry whose cooldown has expired.
func forgive(entry domain.AttemptLedgerEntry, now time.Time) domain.AttemptLedgerEntry {
	if entry.CooldownUntil != nil && !now.Before(*entry.CooldownUntil) {
		entry.FailCount = 0
		entry.CooldownUntil = nil
	}
	return entry
}

func recordOutcome(entry domain.AttemptLedgerEntry, day int, passed bool, now time.Time) domain.AttemptLedgerEntry {
	entry.Day = day
	if passed {
		entry.FailCount = 0
		entry.CooldownUntil = nil
		return entry
	}
	entry.FailCount++
	if entry.FailCount > MaxAttempts {
		entry.FailCount = MaxAttempts
	}
	cooldown := ShortCooldown
	if entry.FailCount >= MaxAttempts {
		cooldown = LongCooldown
	}
	until := now.Add(cooldown)
	entry.CooldownUntil = &until
	return entry
}

func attemptInfo(day int, entry domain.AttemptLedgerEntry, now time.Time) domain.AttemptInfo {
	info := domain.AttemptInfo{
		Day:          day,
		FailCount:    entry.FailCount,
		AttemptsLeft: attemptsLeft(entry.FailCount),
		IsLocked:     entry.FailCount >= MaxAttempts,
	}
	if entry.CooldownUntil != nil && now.Before(*entry.CooldownUntil) {
		info.CoolingDown = true
		info.CooldownUntilEpochMs = domain.EpochMillis(entry.CooldownUntil)
	}
	return info
}

func attemptsLeft(failCount int) int {
	if left := MaxAttempts - failCount; left > 0 {
		return left
	}
	return 0
}
