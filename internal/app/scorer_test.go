package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"provia-quiz-service/internal/app"
	"provia-quiz-service/internal/domain"
	"provia-quiz-service/internal/infra/memory"
)

func TestScoreRoundsPercentage(t *testing.T) {
	qs := makeDay(1, 3)
	correct, score, err := app.Score(qs, map[int]int{0: 0, 1: 0, 2: 2})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if correct != 2 || score != 67 {
		t.Fatalf("expected 2 correct and 67, got %d and %d", correct, score)
	}
	if _, score, _ := app.Score(qs, nil); score != 0 {
		t.Fatalf("unanswered questions count as wrong, got %d", score)
	}
	if _, _, err := app.Score(nil, nil); !errors.Is(err, domain.ErrEmptySession) {
		t.Fatalf("expected ErrEmptySession, got %v", err)
	}
}

func TestPassThreshold(t *testing.T) {
	if app.Passed(79) || !app.Passed(80) || !app.Passed(100) {
		t.Fatalf("pass threshold must be exactly 80")
	}

	answers := make(map[int]int, 10)
	for i := 0; i < 10; i++ {
		answers[i] = 0
	}
	answers[3], answers[7] = 1, 2
	correct, score, err := app.Score(makeDay(1, 10), answers)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if correct != 8 || score != 80 || !app.Passed(score) {
		t.Fatalf("expected 8 of 10 to score 80 and pass, got %d and %d", correct, score)
	}
}

func TestExpiredMockScoresRecordedAnswers(t *testing.T) {
	clock := newFakeClock()
	s, err := app.NewSession("mock-exp", makeDay(2, 5), domain.ModeMock, app.WithTickInterval(0), app.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := s.SubmitAnswer(i, 0); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}

	clock.Advance(450 * time.Second)
	if !s.Tick() {
		t.Fatalf("expected the countdown to run out")
	}
	if s.Phase() != domain.PhaseResult {
		t.Fatalf("expected result phase, got %v", s.Phase())
	}

	policy := app.NewAttemptPolicyWithClock(memory.NewLedgerStore(), clock.Now)
	result, err := policy.Finish(context.Background(), "u1", s)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if result.Correct != 3 || result.Total != 5 || result.Score != 60 || result.Passed || !result.ExpiredByTimer {
		t.Fatalf("expected 3 of 5 scored as an expired fail, got %+v", result)
	}
}

func finishDaily(t *testing.T, policy *app.AttemptPolicy, userID string, day int, pick func(int) int) domain.SessionResult {
	t.Helper()
	s, err := app.NewSession("s", makeDay(day, 5), domain.ModeDaily, app.WithDay(day), app.WithTickInterval(0))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	runDaily(t, s, pick)
	result, err := policy.Finish(context.Background(), userID, s)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	return result
}

func TestAttemptPolicyCooldowns(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	ledger := memory.NewLedgerStore()
	policy := app.NewAttemptPolicyWithClock(ledger, clock.Now)

	first := finishDaily(t, policy, "u1", 3, allWrong)
	if first.Passed || first.AttemptsLeft != 2 || first.LockedLong {
		t.Fatalf("unexpected first fail %+v", first)
	}
	wantShort := clock.Now().Add(app.ShortCooldown).UnixMilli()
	if first.CooldownUntilEpochMs == nil || *first.CooldownUntilEpochMs != wantShort {
		t.Fatalf("expected 30 minute cooldown, got %v", first.CooldownUntilEpochMs)
	}

	info, err := policy.AttemptInfo(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("attempt info: %v", err)
	}
	if !info.CoolingDown || info.FailCount != 1 || info.AttemptsLeft != 2 || info.IsLocked {
		t.Fatalf("unexpected info during cooldown %+v", info)
	}

	second := finishDaily(t, policy, "u1", 3, allWrong)
	third := finishDaily(t, policy, "u1", 3, allWrong)
	if second.AttemptsLeft != 1 || third.AttemptsLeft != 0 || !third.LockedLong {
		t.Fatalf("unexpected escalation second=%+v third=%+v", second, third)
	}
	wantLong := clock.Now().Add(app.LongCooldown).UnixMilli()
	if third.CooldownUntilEpochMs == nil || *third.CooldownUntilEpochMs != wantLong {
		t.Fatalf("expected 240 minute cooldown, got %v", third.CooldownUntilEpochMs)
	}
	info, _ = policy.AttemptInfo(ctx, "u1", 3)
	if !info.IsLocked || !info.CoolingDown {
		t.Fatalf("expected a locked day, got %+v", info)
	}

	// the stored fail count never exceeds the attempt limit
	finishDaily(t, policy, "u1", 3, allWrong)
	entry, _ := ledger.Get(ctx, "u1", 3)
	if entry.FailCount != app.MaxAttempts {
		t.Fatalf("expected fail count capped at %d, got %d", app.MaxAttempts, entry.FailCount)
	}

	clock.Advance(app.LongCooldown)
	info, _ = policy.AttemptInfo(ctx, "u1", 3)
	if info.CoolingDown || info.FailCount != 0 || info.AttemptsLeft != app.MaxAttempts || info.IsLocked {
		t.Fatalf("expected a clean slate after the cooldown, got %+v", info)
	}
	entry, _ = ledger.Get(ctx, "u1", 3)
	if entry.FailCount != app.MaxAttempts {
		t.Fatalf("reading attempt info must not write the ledger, got %+v", entry)
	}

	// an expired cooldown is forgiven before the next outcome is recorded
	after := finishDaily(t, policy, "u1", 3, allWrong)
	if after.AttemptsLeft != 2 || after.LockedLong {
		t.Fatalf("expected a fresh first fail after the cooldown, got %+v", after)
	}
}

func TestAttemptPolicyPassResets(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	ledger := memory.NewLedgerStore()
	policy := app.NewAttemptPolicyWithClock(ledger, clock.Now)

	finishDaily(t, policy, "u1", 2, allWrong)
	passed := finishDaily(t, policy, "u1", 2, allCorrect)
	if !passed.Passed || passed.Score != 100 || passed.AttemptsLeft != app.MaxAttempts || passed.CooldownUntilEpochMs != nil {
		t.Fatalf("unexpected pass %+v", passed)
	}
	entry, _ := ledger.Get(ctx, "u1", 2)
	if entry.FailCount != 0 || entry.CooldownUntil != nil {
		t.Fatalf("expected ledger reset, got %+v", entry)
	}

	other, _ := policy.AttemptInfo(ctx, "u2", 2)
	if other.FailCount != 0 || other.AttemptsLeft != app.MaxAttempts {
		t.Fatalf("ledgers are per user, got %+v", other)
	}
}

func TestAttemptPolicyMockSkipsLedger(t *testing.T) {
	ctx := context.Background()
	policy := app.NewAttemptPolicy(failingLedger{})
	s, err := app.NewSession("m", makeDay(1, 2), domain.ModeMock, app.WithTickInterval(0))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := policy.Finish(ctx, "u1", s); !errors.Is(err, domain.ErrSessionNotFinished) {
		t.Fatalf("expected ErrSessionNotFinished, got %v", err)
	}
	_ = s.Begin()
	_ = s.SubmitAnswer(0, 0)
	_ = s.JumpTo(1)
	_ = s.EnterReview()
	if err := s.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	result, err := policy.Finish(ctx, "u1", s)
	if err != nil {
		t.Fatalf("mock finish touched the ledger: %v", err)
	}
	if result.Score != 50 || result.Passed || result.AttemptsLeft != app.MaxAttempts || result.CooldownUntilEpochMs != nil {
		t.Fatalf("unexpected mock result %+v", result)
	}
}

func TestAttemptPolicyLedgerFailureKeepsResult(t *testing.T) {
	policy := app.NewAttemptPolicyWithClock(failingLedger{}, newFakeClock().Now)
	s, _ := app.NewSession("s", makeDay(1, 2), domain.ModeDaily, app.WithDay(1), app.WithTickInterval(0))
	runDaily(t, s, allWrong)

	result, err := policy.Finish(context.Background(), "u1", s)
	if err == nil {
		t.Fatalf("expected the ledger error")
	}
	if result.SessionID != "s" || result.Score != 0 || result.Passed {
		t.Fatalf("expected the computed result alongside the error, got %+v", result)
	}
	// the ledger state is unknown, so no attempt count is reported
	if result.AttemptsLeft != 0 || result.LockedLong || result.CooldownUntilEpochMs != nil || !result.AttemptsUnknown {
		t.Fatalf("expected no attempt state without a ledger, got %+v", result)
	}
	if _, err := policy.AttemptInfo(context.Background(), "u1", 0); !errors.Is(err, domain.ErrInvalidDay) {
		t.Fatalf("expected ErrInvalidDay, got %v", err)
	}
}

func TestAttemptPolicyConcurrentFinishes(t *testing.T) {
	ctx := context.Background()
	ledger := memory.NewLedgerStore()
	policy := app.NewAttemptPolicyWithClock(ledger, newFakeClock().Now)

	done := make(chan struct{})
	for i := 0; i < 2; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			s, _ := app.NewSession("s", makeDay(5, 1), domain.ModeDaily, app.WithDay(5), app.WithTickInterval(0))
			_ = s.Begin()
			_ = s.SubmitAnswer(0, 1)
			_ = s.Advance()
			if _, err := policy.Finish(ctx, "u1", s); err != nil {
				t.Errorf("finish: %v", err)
			}
		}()
	}
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("finish did not return")
		}
	}
	entry, _ := ledger.Get(ctx, "u1", 5)
	if entry.FailCount != 2 {
		t.Fatalf("expected both fails recorded, got %d", entry.FailCount)
	}
}
