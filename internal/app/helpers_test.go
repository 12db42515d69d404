package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"provia-quiz-service/internal/app"
	"provia-quiz-service/internal/domain"
)

// noShuffle keeps pool order so samples are deterministic.
func noShuffle(int, func(i, j int)) {}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// makeDay returns n questions on day; option 0 is always correct.
func makeDay(day, n int) []domain.QuestionRecord {
	out := make([]domain.QuestionRecord, n)
	for i := range out {
		out[i] = domain.QuestionRecord{
			ID:                 fmt.Sprintf("d%d-%d", day, i),
			Prompt:             fmt.Sprintf("Question %d of day %d", i, day),
			Options:            []string{"right", "wrong", "also wrong"},
			CorrectOptionIndex: 0,
			Topic:              "topic",
			Day:                day,
		}
	}
	return out
}

type staticBank []domain.QuestionRecord

func (b staticBank) Questions(context.Context) ([]domain.QuestionRecord, error) {
	return b, nil
}

type failingBank struct{}

func (failingBank) Questions(context.Context) ([]domain.QuestionRecord, error) {
	return nil, errors.New("bank offline")
}

type failingLedger struct{}

func (failingLedger) Get(context.Context, string, int) (domain.AttemptLedgerEntry, error) {
	return domain.AttemptLedgerEntry{}, errors.New("ledger offline")
}

func (failingLedger) Update(context.Context, string, int, func(domain.AttemptLedgerEntry) (domain.AttemptLedgerEntry, error)) (domain.AttemptLedgerEntry, error) {
	return domain.AttemptLedgerEntry{}, errors.New("ledger offline")
}

type completion struct {
	userID string
	day    int
	score  int
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []completion
}

func (n *recordingNotifier) NotifyCompletion(_ context.Context, userID string, day, score int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, completion{userID: userID, day: day, score: score})
}

func (n *recordingNotifier) Calls() []completion {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]completion(nil), n.calls...)
}

// runDaily drives a daily session to the result phase answering with pick.
func runDaily(t *testing.T, s *app.Session, pick func(i int) int) {
	t.Helper()
	if err := s.Begin(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	total := len(s.Questions())
	for i := 0; i < total; i++ {
		if err := s.SubmitAnswer(i, pick(i)); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
		if err := s.Advance(); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
	}
	if s.Phase() != domain.PhaseResult {
		t.Fatalf("expected result phase, got %v", s.Phase())
	}
}

func allCorrect(int) int { return 0 }
func allWrong(int) int   { return 1 }
