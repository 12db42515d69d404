package app_test

import (
	"context"
	"errors"
	"testing"

	"provia-quiz-service/internal/app"
	"provia-quiz-service/internal/domain"
	"provia-quiz-service/internal/infra/memory"
)

type serviceFixture struct {
	service  *app.QuizService
	ledger   *memory.LedgerStore
	notifier *recordingNotifier
}

func newTestService(bank app.QuestionBank) serviceFixture {
	ledger := memory.NewLedgerStore()
	notifier := &recordingNotifier{}
	service := app.NewQuizService(
		memory.NewSessionStore(),
		app.NewSampler(bank, noShuffle),
		app.NewAttemptPolicyWithClock(ledger, newFakeClock().Now),
		notifier,
		nil,
	).WithSessionOptions(app.WithTickInterval(0))
	return serviceFixture{service: service, ledger: ledger, notifier: notifier}
}

func defaultBank() staticBank {
	var qs []domain.QuestionRecord
	qs = append(qs, makeDay(1, 3)...)
	qs = append(qs, makeDay(2, 3)...)
	return staticBank(qs)
}

func TestStartDailyAndFinish(t *testing.T) {
	ctx := context.Background()
	f := newTestService(defaultBank())

	session, err := f.service.StartDaily(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("start daily: %v", err)
	}
	if session.Mode() != domain.ModeDaily || session.Day() != 1 || session.Phase() != domain.PhaseIntro {
		t.Fatalf("unexpected session mode=%s day=%d phase=%v", session.Mode(), session.Day(), session.Phase())
	}
	current, err := f.service.Current("u1")
	if err != nil || current != session {
		t.Fatalf("expected the started session to be current, got %v", err)
	}

	if _, err := f.service.Finish(ctx, "u1"); !errors.Is(err, domain.ErrSessionNotFinished) {
		t.Fatalf("expected ErrSessionNotFinished, got %v", err)
	}

	runDaily(t, session, allCorrect)
	result, err := f.service.Finish(ctx, "u1")
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !result.Passed || result.Score != 100 || result.Day != 1 {
		t.Fatalf("unexpected result %+v", result)
	}

	again, err := f.service.Finish(ctx, "u1")
	if err != nil || again != result {
		t.Fatalf("expected the first result again, got %+v %v", again, err)
	}
	calls := f.notifier.Calls()
	if len(calls) != 1 || calls[0] != (completion{userID: "u1", day: 1, score: 100}) {
		t.Fatalf("expected one completion notice, got %+v", calls)
	}
}

func TestFinishRecordsOneFailPerSession(t *testing.T) {
	ctx := context.Background()
	f := newTestService(defaultBank())

	session, err := f.service.StartDaily(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("start daily: %v", err)
	}
	runDaily(t, session, allWrong)
	for i := 0; i < 3; i++ {
		result, err := f.service.Finish(ctx, "u1")
		if err != nil {
			t.Fatalf("finish: %v", err)
		}
		if result.AttemptsLeft != 2 {
			t.Fatalf("expected 2 attempts left, got %d", result.AttemptsLeft)
		}
	}
	entry, _ := f.ledger.Get(ctx, "u1", 2)
	if entry.FailCount != 1 {
		t.Fatalf("repeated finish must not double count, got %d", entry.FailCount)
	}
	if len(f.notifier.Calls()) != 0 {
		t.Fatalf("failed sessions are not reported as completions")
	}

	info, err := f.service.AttemptInfo(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("attempt info: %v", err)
	}
	if !info.CoolingDown || info.AttemptsLeft != 2 {
		t.Fatalf("unexpected attempt info %+v", info)
	}
}

func TestStartDailyPadsDayWithoutQuestions(t *testing.T) {
	f := newTestService(defaultBank())
	session, err := f.service.StartDaily(context.Background(), "u1", 30)
	if err != nil {
		t.Fatalf("start daily: %v", err)
	}
	if len(session.Questions()) != 6 || session.Day() != 30 {
		t.Fatalf("expected the 6 bank questions for day 30, got %d on day %d", len(session.Questions()), session.Day())
	}
}

func TestStartMockEmptyRange(t *testing.T) {
	f := newTestService(defaultBank())
	if _, err := f.service.StartMock(context.Background(), "u1", 30, 31, 5); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
	if _, err := f.service.Current("u1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("no session should be stored, got %v", err)
	}
}

func TestStartReplacesPreviousSession(t *testing.T) {
	ctx := context.Background()
	f := newTestService(defaultBank())

	first, err := f.service.StartDaily(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("start daily: %v", err)
	}
	updates, cancel := first.Subscribe()
	defer cancel()
	<-updates

	second, err := f.service.StartMock(ctx, "u1", 1, 2, 0)
	if err != nil {
		t.Fatalf("start mock: %v", err)
	}
	if second.Mode() != domain.ModeMock || len(second.Questions()) != 6 {
		t.Fatalf("expected a 6 question mock, got %s with %d", second.Mode(), len(second.Questions()))
	}
	if _, ok := <-updates; ok {
		t.Fatalf("expected the replaced session to be closed")
	}

	// closing a stale id leaves the current session alone
	f.service.Close("u1", first.ID())
	if current, _ := f.service.Current("u1"); current != second {
		t.Fatalf("stale close removed the current session")
	}
	f.service.Close("u1", second.ID())
	if _, err := f.service.Current("u1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session removed, got %v", err)
	}
}

func TestStartMilestone(t *testing.T) {
	ctx := context.Background()
	f := newTestService(defaultBank())

	session, err := f.service.StartMilestone(ctx, "u1", "checkpoint-1")
	if err != nil {
		t.Fatalf("start milestone: %v", err)
	}
	if session.Mode() != domain.ModeMock || len(session.Questions()) != 6 {
		t.Fatalf("unexpected milestone session %s with %d questions", session.Mode(), len(session.Questions()))
	}
	if _, err := f.service.StartMilestone(ctx, "u1", "midterm"); !errors.Is(err, domain.ErrMilestoneNotFound) {
		t.Fatalf("expected ErrMilestoneNotFound, got %v", err)
	}
	if _, err := f.service.StartMilestone(ctx, "u1", "checkpoint-3"); !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions for days without questions, got %v", err)
	}
}

func TestMockFinishDoesNotNotify(t *testing.T) {
	ctx := context.Background()
	f := newTestService(defaultBank())

	session, err := f.service.StartMock(ctx, "u1", 1, 1, 3)
	if err != nil {
		t.Fatalf("start mock: %v", err)
	}
	_ = session.Begin()
	for i := 0; i < 3; i++ {
		_ = session.SubmitAnswer(i, 0)
	}
	_ = session.JumpTo(2)
	_ = session.EnterReview()
	if err := session.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	result, err := f.service.Finish(ctx, "u1")
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if !result.Passed || result.Mode != domain.ModeMock {
		t.Fatalf("unexpected mock result %+v", result)
	}
	if len(f.notifier.Calls()) != 0 {
		t.Fatalf("mock sessions do not unlock days")
	}
}

func TestStartPropagatesSamplerErrors(t *testing.T) {
	ctx := context.Background()
	f := newTestService(defaultBank())
	if _, err := f.service.StartDaily(ctx, "u1", 0); !errors.Is(err, domain.ErrInvalidDay) {
		t.Fatalf("expected ErrInvalidDay, got %v", err)
	}
	if _, err := f.service.StartMock(ctx, "u1", 3, 1, 5); !errors.Is(err, domain.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	empty := newTestService(staticBank(nil))
	if _, err := empty.service.StartDaily(ctx, "u1", 1); !errors.Is(err, domain.ErrEmptyRepository) {
		t.Fatalf("expected ErrEmptyRepository, got %v", err)
	}
}

func TestFinishSessionScoresReplacedSession(t *testing.T) {
	ctx := context.Background()
	f := newTestService(defaultBank())

	first, err := f.service.StartDaily(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("start daily: %v", err)
	}
	runDaily(t, first, allCorrect)

	second, err := f.service.StartMock(ctx, "u1", 1, 2, 0)
	if err != nil {
		t.Fatalf("start mock: %v", err)
	}
	if _, err := f.service.Finish(ctx, "u1"); !errors.Is(err, domain.ErrSessionNotFinished) {
		t.Fatalf("the current session is the unfinished mock, got %v", err)
	}

	result, err := f.service.FinishSession(ctx, "u1", first)
	if err != nil {
		t.Fatalf("finish first session: %v", err)
	}
	if result.SessionID != first.ID() || result.Mode != domain.ModeDaily || !result.Passed {
		t.Fatalf("expected the replaced daily session scored, got %+v", result)
	}
	if calls := f.notifier.Calls(); len(calls) != 1 || calls[0].day != 1 {
		t.Fatalf("expected one completion for day 1, got %+v", calls)
	}
	if current, _ := f.service.Current("u1"); current != second {
		t.Fatalf("finishing an old session must not touch the current one")
	}
}
