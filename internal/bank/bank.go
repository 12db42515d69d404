// Package bank reads and writes the question bank JSON format used for
// authoring and import.
package bank

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"provia-quiz-service/internal/domain"
)

//go:embed data/questions.json
var defaultBank []byte

// Record is one question as authored in the bank file. CorrectAnswer is a
// pointer so that a missing or null answer can be told apart from index 0.
type Record struct {
	ID            string   `json:"id"`
	Day           int      `json:"day"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
	Category      string   `json:"category,omitempty"`
}

// Decode reads a JSON array of records.
func Decode(r io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode question bank: %w", err)
	}
	return records, nil
}

// Encode writes records as an indented JSON array.
func Encode(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode question bank: %w", err)
	}
	return nil
}

// ToQuestion converts a record and validates the result.
func (r Record) ToQuestion() (domain.QuestionRecord, error) {
	q := domain.QuestionRecord{
		ID:                 r.ID,
		Prompt:             r.Text,
		Options:            r.Options,
		CorrectOptionIndex: -1,
		Explanation:        r.Explanation,
		Topic:              r.Category,
		Day:                r.Day,
	}
	if r.CorrectAnswer != nil {
		q.CorrectOptionIndex = *r.CorrectAnswer
	}
	if err := q.Validate(); err != nil {
		return domain.QuestionRecord{}, err
	}
	return q, nil
}

// Convert turns records into questions. Invalid records are skipped and
// logged.
func Convert(records []Record, logger *slog.Logger) []domain.QuestionRecord {
	if logger == nil {
		logger = slog.Default()
	}
	out := make([]domain.QuestionRecord, 0, len(records))
	for i, rec := range records {
		q, err := rec.ToQuestion()
		if err != nil {
			logger.Warn("skipping invalid question", "position", i, "id", rec.ID, "error", err)
			continue
		}
		out = append(out, q)
	}
	return out
}

// Loader loads the bank from a JSON file, or from the embedded default bank
// when no path is set.
type Loader struct {
	path   string
	logger *slog.Logger
}

func NewFileLoader(path string, logger *slog.Logger) *Loader {
	return &Loader{path: path, logger: logger}
}

func NewEmbeddedLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

func (l *Loader) LoadQuestions(ctx context.Context) ([]domain.QuestionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := l.records()
	if err != nil {
		return nil, err
	}
	return Convert(records, l.logger), nil
}

func (l *Loader) records() ([]Record, error) {
	if l.path == "" {
		return Decode(bytes.NewReader(defaultBank))
	}
	return ReadFile(l.path)
}

// ReadFile decodes the bank file at path.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open question bank: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// WriteFile encodes records to path, replacing any existing file.
func WriteFile(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create question bank: %w", err)
	}
	if err := Encode(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
