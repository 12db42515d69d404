package domain

import (
	"fmt"
	"time"
)

// Mode selects the session rules: daily practice or timed mock exam.
type Mode string

const (
	ModeDaily Mode = "daily"
	ModeMock  Mode = "mock"
)

// ParseMode converts a wire value into a Mode.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case ModeDaily, ModeMock:
		return Mode(raw), nil
	}
	return "", fmt.Errorf("unknown mode %q", raw)
}

// Phase is the visible stage of a quiz session.
type Phase int

const (
	PhaseIntro    Phase = iota // waiting for the player to begin
	PhaseActive                // question displayed, accepting answers
	PhaseFeedback              // daily only: correctness revealed, input blocked
	PhaseReview                // mock only: grid overview before final submit
	PhaseResult                // terminal
)

var phaseNames = [...]string{"intro", "active", "feedback", "review", "result"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// MarshalText renders the phase by name in JSON payloads.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// AttemptLedgerEntry is the persisted fail counter for one curriculum day.
type AttemptLedgerEntry struct {
	Day           int
	FailCount     int
	CooldownUntil *time.Time
}

// AttemptInfo is the read-only view of a day's attempt state.
type AttemptInfo struct {
	Day                  int    `json:"day"`
	FailCount            int    `json:"failCount"`
	AttemptsLeft         int    `json:"attemptsLeft"`
	CooldownUntilEpochMs *int64 `json:"cooldownUntilEpochMs"`
	CoolingDown          bool   `json:"coolingDown"`
	IsLocked             bool   `json:"isLocked"`
}

// SessionResult is produced once a session reaches the result phase.
type SessionResult struct {
	SessionID            string `json:"sessionId"`
	Mode                 Mode   `json:"mode"`
	Day                  int    `json:"day"`
	Correct              int    `json:"correct"`
	Total                int    `json:"total"`
	Score                int    `json:"score"`
	Passed               bool   `json:"passed"`
	AttemptsLeft         int    `json:"attemptsLeft"`
	LockedLong           bool   `json:"lockedLong"`
	CooldownUntilEpochMs *int64 `json:"cooldownUntilEpochMs"`
	ExpiredByTimer       bool   `json:"expiredByTimer"`
	// AttemptsUnknown is set when the ledger could not be written, so the
	// attempt fields carry no information.
	AttemptsUnknown bool `json:"attemptsUnknown,omitempty"`
}

// QuestionView is a question as shown to the player. The answer key is only
// filled once the question is in feedback or the session is over.
type QuestionView struct {
	ID                 string   `json:"id"`
	Prompt             string   `json:"prompt"`
	Options            []string `json:"options"`
	Topic              string   `json:"topic"`
	Day                int      `json:"day"`
	CorrectOptionIndex *int     `json:"correctOptionIndex,omitempty"`
	Explanation        string   `json:"explanation,omitempty"`
}

// SessionSnapshot captures a session for transport.
type SessionSnapshot struct {
	SessionID   string        `json:"sessionId"`
	Mode        Mode          `json:"mode"`
	Phase       Phase         `json:"phase"`
	Index       int           `json:"index"`
	Total       int           `json:"total"`
	Question    *QuestionView `json:"question,omitempty"`
	Answers     map[int]int   `json:"answers"`
	Bookmarks   []int         `json:"bookmarks,omitempty"`
	LastReached bool          `json:"lastReached"`
	ElapsedMs   int64         `json:"elapsedMs,omitempty"`
	RemainingMs int64         `json:"remainingMs,omitempty"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// EpochMillis converts an optional timestamp to milliseconds since the epoch.
func EpochMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

// FromEpochMillis is the inverse of EpochMillis.
func FromEpochMillis(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms).UTC()
	return &t
}
