package app

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"provia-quiz-service/internal/domain"
)

// SessionRepository tracks the one active session per user (in-memory, Redis, etc).
type SessionRepository interface {
	// Put stores session for userID and returns the session it replaced, if any.
	Put(userID string, session *Session) *Session
	Get(userID string) (*Session, bool)
	// Delete removes the user's session only if it is still sessionID.
	Delete(userID, sessionID string)
}

// QuestionBank serves the deduplicated question bank (from cache/backing store).
type QuestionBank interface {
	Questions(ctx context.Context) ([]domain.QuestionRecord, error)
}

// LedgerStore persists attempt ledger entries keyed by user and day.
// Get returns a zero entry when nothing is stored. Update must apply fn as a
// single atomic read-modify-write.
type LedgerStore interface {
	Get(ctx context.Context, userID string, day int) (domain.AttemptLedgerEntry, error)
	Update(ctx context.Context, userID string, day int, fn func(domain.AttemptLedgerEntry) (domain.AttemptLedgerEntry, error)) (domain.AttemptLedgerEntry, error)
}

// QuizService contains the quiz session use cases.
type QuizService struct {
	sessions    SessionRepository
	sampler     *Sampler
	policy      *AttemptPolicy
	notifier    ProgressNotifier
	logger      *slog.Logger
	newID       func() string
	sessionOpts []SessionOption
}

func NewQuizService(sessions SessionRepository, sampler *Sampler, policy *AttemptPolicy, notifier ProgressNotifier, logger *slog.Logger) *QuizService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuizService{
		sessions: sessions,
		sampler:  sampler,
		policy:   policy,
		notifier: notifier,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// WithSessionOptions applies opts to every session the service starts.
func (s *QuizService) WithSessionOptions(opts ...SessionOption) *QuizService {
	s.sessionOpts = append(s.sessionOpts, opts...)
	return s
}

// StartDaily samples the practice set for day and makes it the user's active
// session. It does not check cooldowns; callers consult AttemptInfo first.
func (s *QuizService) StartDaily(ctx context.Context, userID string, day int) (*Session, error) {
	questions, err := s.sampler.SampleDaily(ctx, day)
	if err != nil {
		return nil, err
	}
	return s.start(userID, questions, domain.ModeDaily, WithDay(day))
}

// StartMock samples a mock exam over days start..end. A count of zero uses
// DefaultMockQuestions.
func (s *QuizService) StartMock(ctx context.Context, userID string, start, end, count int) (*Session, error) {
	if count == 0 {
		count = DefaultMockQuestions
	}
	questions, err := s.sampler.SampleMock(ctx, start, end, count)
	if err != nil {
		return nil, err
	}
	return s.start(userID, questions, domain.ModeMock)
}

// StartMilestone starts the mock exam defined by a roadmap milestone.
func (s *QuizService) StartMilestone(ctx context.Context, userID, milestoneID string) (*Session, error) {
	m, err := domain.MilestoneByID(milestoneID)
	if err != nil {
		return nil, err
	}
	return s.StartMock(ctx, userID, m.StartDay, m.EndDay, m.QuestionCount)
}

func (s *QuizService) start(userID string, questions []domain.QuestionRecord, mode domain.Mode, opts ...SessionOption) (*Session, error) {
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	opts = append(append([]SessionOption(nil), s.sessionOpts...), opts...)
	session, err := NewSession(s.newID(), questions, mode, opts...)
	if err != nil {
		return nil, err
	}
	if previous := s.sessions.Put(userID, session); previous != nil {
		previous.Close()
	}
	s.logger.Info("session started", "user", userID, "session", session.ID(), "mode", mode, "day", session.Day(), "questions", len(questions))
	return session, nil
}

// Current returns the user's active session.
func (s *QuizService) Current(userID string) (*Session, error) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Finish scores the user's current session. See FinishSession.
func (s *QuizService) Finish(ctx context.Context, userID string) (domain.SessionResult, error) {
	session, err := s.Current(userID)
	if err != nil {
		return domain.SessionResult{}, err
	}
	return s.FinishSession(ctx, userID, session)
}

// FinishSession scores session once it reached the result phase, whether or
// not it is still the user's current one. Repeated calls return the first
// outcome. A passed daily session is reported to the progress notifier.
func (s *QuizService) FinishSession(ctx context.Context, userID string, session *Session) (domain.SessionResult, error) {
	if session.Phase() != domain.PhaseResult {
		return domain.SessionResult{}, domain.ErrSessionNotFinished
	}
	return session.finish(func() (domain.SessionResult, error) {
		result, err := s.policy.Finish(ctx, userID, session)
		if err != nil {
			s.logger.Error("persist session outcome", "user", userID, "session", session.ID(), "error", err)
		}
		s.logger.Info("session finished", "user", userID, "session", session.ID(), "mode", result.Mode, "day", result.Day, "score", result.Score, "passed", result.Passed)
		if result.Mode == domain.ModeDaily && result.Passed && s.notifier != nil {
			s.notifier.NotifyCompletion(ctx, userID, result.Day, result.Score)
		}
		return result, err
	})
}

// AttemptInfo reports the user's attempt state for day.
func (s *QuizService) AttemptInfo(ctx context.Context, userID string, day int) (domain.AttemptInfo, error) {
	return s.policy.AttemptInfo(ctx, userID, day)
}

// Close tears down the user's session if it is still sessionID.
func (s *QuizService) Close(userID, sessionID string) {
	session, ok := s.sessions.Get(userID)
	if !ok || session.ID() != sessionID {
		return
	}
	session.Close()
	s.sessions.Delete(userID, sessionID)
}
