package domain

import (
	"fmt"
	"strings"
)

const (
	MinOptions = 2
	MaxOptions = 6
)

// QuestionRecord is an immutable multiple-choice question from the bank.
type QuestionRecord struct {
	ID                 string   `json:"id"`
	Prompt             string   `json:"prompt"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Explanation        string   `json:"explanation,omitempty"`
	Topic              string   `json:"topic"`
	Day                int      `json:"day"`
}

// Validate checks the record against bank invariants.
func (q QuestionRecord) Validate() error {
	if strings.TrimSpace(q.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidQuestion)
	}
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("%w: %s has an empty prompt", ErrInvalidQuestion, q.ID)
	}
	if n := len(q.Options); n < MinOptions || n > MaxOptions {
		return fmt.Errorf("%w: %s has %d options", ErrInvalidQuestion, q.ID, n)
	}
	if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
		return fmt.Errorf("%w: %s correct option %d out of range", ErrInvalidQuestion, q.ID, q.CorrectOptionIndex)
	}
	if q.Day < 1 {
		return fmt.Errorf("%w: %s has day %d", ErrInvalidQuestion, q.ID, q.Day)
	}
	return nil
}

// PromptKey is the normalized prompt used for duplicate detection.
func PromptKey(prompt string) string {
	return strings.ToLower(strings.TrimSpace(prompt))
}

// DedupePrompts keeps the first occurrence of every prompt (case-insensitive,
// trimmed) and of every id. Order is preserved.
func DedupePrompts(questions []QuestionRecord) []QuestionRecord {
	seenPrompt := make(map[string]struct{}, len(questions))
	seenID := make(map[string]struct{}, len(questions))
	out := make([]QuestionRecord, 0, len(questions))
	for _, q := range questions {
		key := PromptKey(q.Prompt)
		if _, ok := seenPrompt[key]; ok {
			continue
		}
		if _, ok := seenID[q.ID]; ok {
			continue
		}
		seenPrompt[key] = struct{}{}
		seenID[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}
