package app

import (
	"time"

	"provia-quiz-service/internal/domain"
)

// ModePolicy captures every rule that differs between daily and mock sessions.
type ModePolicy struct {
	Mode domain.Mode
	// LockOnSubmit moves the session into feedback after each answer.
	LockOnSubmit bool
	// Review adds the review grid before the result.
	Review bool
	// FreeNavigation enables next, previous, jump and bookmarks.
	FreeNavigation bool
	// TimePerQuestion seeds the session countdown. Zero means the session
	// only counts elapsed time per question.
	TimePerQuestion time.Duration
}

var (
	DailyPolicy = ModePolicy{
		Mode:         domain.ModeDaily,
		LockOnSubmit: true,
	}
	MockPolicy = ModePolicy{
		Mode:            domain.ModeMock,
		Review:          true,
		FreeNavigation:  true,
		TimePerQuestion: 90 * time.Second,
	}
)

// PolicyFor returns the policy for mode.
func PolicyFor(mode domain.Mode) ModePolicy {
	if mode == domain.ModeMock {
		return MockPolicy
	}
	return DailyPolicy
}

// Countdown is the session-wide time budget for n questions.
func (p ModePolicy) Countdown(n int) time.Duration {
	return p.TimePerQuestion * time.Duration(n)
}

// Timed reports whether the session runs a countdown.
func (p ModePolicy) Timed() bool {
	return p.TimePerQuestion > 0
}
