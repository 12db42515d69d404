package domain

import "errors"

var (
	// ErrSessionNotFound is returned when the user has no active quiz session.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrEmptyRepository is returned when the question bank holds no questions.
	ErrEmptyRepository = errors.New("question repository is empty")
	// ErrInvalidDay indicates a curriculum day index below 1.
	ErrInvalidDay = errors.New("day index must be >= 1")
	// ErrInvalidRange indicates a mock range with start > end or start < 1.
	ErrInvalidRange = errors.New("invalid day range")
	// ErrInvalidCount indicates a non-positive mock question count.
	ErrInvalidCount = errors.New("question count must be positive")
	// ErrNoQuestions is returned when sampling leaves nothing to practice.
	ErrNoQuestions = errors.New("no questions available to practice")
	// ErrEmptySession is returned when a session would be built or scored without questions.
	ErrEmptySession = errors.New("session has no questions")
	// ErrIndexOutOfRange indicates a question index outside the session.
	ErrIndexOutOfRange = errors.New("question index out of range")
	// ErrOptionOutOfRange indicates an option index outside the question's options.
	ErrOptionOutOfRange = errors.New("option index out of range")
	// ErrQuestionLocked is returned when a daily question already shows feedback.
	ErrQuestionLocked = errors.New("question is locked until the session advances")
	// ErrInvalidTransition is returned for operations not allowed in the current phase.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrNotAllowedInMode is returned for mock-only operations on a daily session.
	ErrNotAllowedInMode = errors.New("operation not allowed in this mode")
	// ErrSessionNotFinished is returned when scoring a session before it reached the result phase.
	ErrSessionNotFinished = errors.New("session has not reached the result phase")
	// ErrInvalidQuestion indicates a question record that breaks bank invariants.
	ErrInvalidQuestion = errors.New("invalid question record")
	// ErrMilestoneNotFound indicates an unknown mock milestone id.
	ErrMilestoneNotFound = errors.New("milestone not found")
	// ErrOpponentNotFound indicates an unknown battle opponent id.
	ErrOpponentNotFound = errors.New("opponent not found")
	// ErrBattleNotFound is returned when the user has no battle in progress.
	ErrBattleNotFound = errors.New("battle not found")
	// ErrBattleFinished is returned when acting on a completed battle.
	ErrBattleFinished = errors.New("battle already finished")
	// ErrInsufficientCredits is returned when a stake exceeds the user's credits.
	ErrInsufficientCredits = errors.New("insufficient credits")
)
