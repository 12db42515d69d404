package app

import (
	"sort"
	"sync"
	"time"

	"provia-quiz-service/internal/domain"
)

// DefaultTickInterval is how often a timed session checks its countdown.
const DefaultTickInterval = time.Second

// SessionOption customizes a Session at construction.
type SessionOption func(*Session)

// WithClock injects the time source (tests use a fake clock).
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithTickInterval sets the countdown ticker period. Zero disables the
// background ticker and leaves Tick to the caller.
func WithTickInterval(d time.Duration) SessionOption {
	return func(s *Session) { s.tickInterval = d }
}

// WithDay records the curriculum day a daily session targets.
func WithDay(day int) SessionOption {
	return func(s *Session) { s.day = day }
}

// Session is the answer, feedback and navigation state machine for one quiz.
// Daily and mock sessions share it and differ only by ModePolicy.
type Session struct {
	id           string
	day          int
	policy       ModePolicy
	questions    []domain.QuestionRecord
	now          func() time.Time
	tickInterval time.Duration

	mu            sync.Mutex
	phase         domain.Phase
	index         int
	answers       map[int]int
	bookmarks     map[int]struct{}
	lastReached   bool
	questionStart time.Time
	deadline      time.Time
	expired       bool
	closed        bool
	subscribers   map[chan domain.SessionSnapshot]struct{}

	stop     chan struct{}
	stopOnce sync.Once

	finishOnce sync.Once
	result     domain.SessionResult
	finishErr  error
}

// NewSession builds a session in the intro phase.
func NewSession(id string, questions []domain.QuestionRecord, mode domain.Mode, opts ...SessionOption) (*Session, error) {
	if len(questions) == 0 {
		return nil, domain.ErrEmptySession
	}
	s := &Session{
		id:           id,
		policy:       PolicyFor(mode),
		questions:    append([]domain.QuestionRecord(nil), questions...),
		now:          time.Now,
		tickInterval: DefaultTickInterval,
		phase:        domain.PhaseIntro,
		answers:      make(map[int]int),
		bookmarks:    make(map[int]struct{}),
		subscribers:  make(map[chan domain.SessionSnapshot]struct{}),
		stop:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Session) ID() string         { return s.id }
func (s *Session) Day() int           { return s.day }
func (s *Session) Mode() domain.Mode  { return s.policy.Mode }
func (s *Session) Policy() ModePolicy { return s.policy }

// Phase returns the current phase.
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Questions returns a copy of the question set.
func (s *Session) Questions() []domain.QuestionRecord {
	return append([]domain.QuestionRecord(nil), s.questions...)
}

// Answers returns a copy of the recorded answers keyed by question index.
func (s *Session) Answers() map[int]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]int, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// ExpiredByTimer reports whether the countdown forced the result phase.
func (s *Session) ExpiredByTimer() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expired
}

// Begin leaves the intro phase and starts the clocks.
func (s *Session) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseIntro {
		return domain.ErrInvalidTransition
	}
	now := s.now()
	s.phase = domain.PhaseActive
	s.questionStart = now
	s.markReachedLocked()
	if s.policy.Timed() {
		s.deadline = now.Add(s.policy.Countdown(len(s.questions)))
		if s.tickInterval > 0 {
			go s.runTimer(s.tickInterval)
		}
	}
	s.broadcastLocked()
	return nil
}

// SubmitAnswer records option for the question at index. Daily sessions only
// accept the current question and move into feedback; mock sessions record or
// overwrite the answer without moving.
func (s *Session) SubmitAnswer(index, option int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.questions) {
		return domain.ErrIndexOutOfRange
	}
	if option < 0 || option >= len(s.questions[index].Options) {
		return domain.ErrOptionOutOfRange
	}
	if s.policy.LockOnSubmit && s.phase == domain.PhaseFeedback {
		return domain.ErrQuestionLocked
	}
	if s.phase != domain.PhaseActive {
		return domain.ErrInvalidTransition
	}
	if s.policy.LockOnSubmit {
		if index != s.index {
			return domain.ErrQuestionLocked
		}
		s.answers[index] = option
		s.phase = domain.PhaseFeedback
	} else {
		s.answers[index] = option
	}
	s.broadcastLocked()
	return nil
}

// Advance moves past the current question. In daily sessions it acknowledges
// feedback and enters the result phase after the last question.
func (s *Session) Advance() error {
	if s.policy.FreeNavigation {
		return s.Next()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseFeedback {
		return domain.ErrInvalidTransition
	}
	if s.index == len(s.questions)-1 {
		s.finishLocked(false)
		return nil
	}
	s.moveLocked(s.index + 1)
	s.phase = domain.PhaseActive
	s.broadcastLocked()
	return nil
}

// Next moves one question forward; a no-op on the last question.
func (s *Session) Next() error {
	return s.step(1)
}

// Previous moves one question back; a no-op on the first question.
func (s *Session) Previous() error {
	return s.step(-1)
}

func (s *Session) step(delta int) error {
	if !s.policy.FreeNavigation {
		return domain.ErrNotAllowedInMode
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseActive {
		return domain.ErrInvalidTransition
	}
	target := s.index + delta
	if target < 0 || target >= len(s.questions) {
		return nil
	}
	s.moveLocked(target)
	s.broadcastLocked()
	return nil
}

// JumpTo selects a question from the active view or the review grid.
func (s *Session) JumpTo(index int) error {
	if !s.policy.FreeNavigation {
		return domain.ErrNotAllowedInMode
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseActive && s.phase != domain.PhaseReview {
		return domain.ErrInvalidTransition
	}
	if index < 0 || index >= len(s.questions) {
		return domain.ErrIndexOutOfRange
	}
	s.moveLocked(index)
	s.phase = domain.PhaseActive
	s.broadcastLocked()
	return nil
}

// ToggleBookmark flips the bookmark on index.
func (s *Session) ToggleBookmark(index int) error {
	if !s.policy.FreeNavigation {
		return domain.ErrNotAllowedInMode
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseActive && s.phase != domain.PhaseReview {
		return domain.ErrInvalidTransition
	}
	if index < 0 || index >= len(s.questions) {
		return domain.ErrIndexOutOfRange
	}
	if _, ok := s.bookmarks[index]; ok {
		delete(s.bookmarks, index)
	} else {
		s.bookmarks[index] = struct{}{}
	}
	s.broadcastLocked()
	return nil
}

// EnterReview opens the review grid once the last question has been reached.
func (s *Session) EnterReview() error {
	if !s.policy.Review {
		return domain.ErrNotAllowedInMode
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseActive || !s.lastReached {
		return domain.ErrInvalidTransition
	}
	s.phase = domain.PhaseReview
	s.broadcastLocked()
	return nil
}

// Submit hands in a mock session from the review grid. It cannot be undone.
func (s *Session) Submit() error {
	if !s.policy.Review {
		return domain.ErrNotAllowedInMode
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != domain.PhaseReview {
		return domain.ErrInvalidTransition
	}
	s.finishLocked(false)
	return nil
}

// Tick checks the countdown and auto-submits when it has run out, whatever
// the phase. It reports whether the session is over.
func (s *Session) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.phase == domain.PhaseResult {
		return true
	}
	if !s.policy.Timed() || s.phase == domain.PhaseIntro {
		return false
	}
	if !s.now().Before(s.deadline) {
		s.finishLocked(true)
		return true
	}
	s.broadcastLocked()
	return false
}

// Close stops the countdown and releases subscribers. Safe to call twice.
func (s *Session) Close() {
	s.stopTimer()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Snapshot returns the transport view of the session.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel of snapshots, starting with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	// ch is empty, so this cannot block
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// finish runs compute once and caches its outcome.
func (s *Session) finish(compute func() (domain.SessionResult, error)) (domain.SessionResult, error) {
	s.finishOnce.Do(func() {
		s.result, s.finishErr = compute()
	})
	return s.result, s.finishErr
}

func (s *Session) runTimer(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if s.Tick() {
				return
			}
		case <-s.stop:
			return
		}
	}
}

func (s *Session) stopTimer() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Session) finishLocked(expired bool) {
	s.phase = domain.PhaseResult
	s.expired = expired
	s.stopTimer()
	s.broadcastLocked()
}

func (s *Session) moveLocked(index int) {
	s.index = index
	s.questionStart = s.now()
	s.markReachedLocked()
}

func (s *Session) markReachedLocked() {
	if s.index == len(s.questions)-1 {
		s.lastReached = true
	}
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the stale snapshot so slow readers never block transitions
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	now := s.now()
	snap := domain.SessionSnapshot{
		SessionID:   s.id,
		Mode:        s.policy.Mode,
		Phase:       s.phase,
		Index:       s.index,
		Total:       len(s.questions),
		Answers:     make(map[int]int, len(s.answers)),
		LastReached: s.lastReached,
		UpdatedAt:   now,
	}
	for k, v := range s.answers {
		snap.Answers[k] = v
	}
	for idx := range s.bookmarks {
		snap.Bookmarks = append(snap.Bookmarks, idx)
	}
	sort.Ints(snap.Bookmarks)

	if s.phase == domain.PhaseActive || s.phase == domain.PhaseFeedback {
		q := s.questions[s.index]
		view := &domain.QuestionView{
			ID:      q.ID,
			Prompt:  q.Prompt,
			Options: append([]string(nil), q.Options...),
			Topic:   q.Topic,
			Day:     q.Day,
		}
		if s.phase == domain.PhaseFeedback {
			correct := q.CorrectOptionIndex
			view.CorrectOptionIndex = &correct
			view.Explanation = q.Explanation
		}
		snap.Question = view
	}

	switch {
	case s.phase == domain.PhaseIntro || s.phase == domain.PhaseResult:
	case s.policy.Timed():
		if remaining := s.deadline.Sub(now); remaining > 0 {
			snap.RemainingMs = remaining.Milliseconds()
		}
	default:
		snap.ElapsedMs = now.Sub(s.questionStart).Milliseconds()
	}
	return snap
}
