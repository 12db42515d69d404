package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"provia-quiz-service/internal/domain"
)

// OpenBun opens a bun handle over the pgdriver connector.
func OpenBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID                 string   `bun:"id,pk"`
	Day                int      `bun:"day_index"`
	Topic              string   `bun:"topic"`
	Prompt             string   `bun:"prompt"`
	Options            []string `bun:"options,type:jsonb"`
	CorrectOptionIndex int      `bun:"correct_option"`
	Explanation        string   `bun:"explanation"`
}

// BankWriter upserts question records into the questions table.
type BankWriter struct {
	db *bun.DB
}

func NewBankWriter(db *bun.DB) *BankWriter {
	return &BankWriter{db: db}
}

// Upsert inserts or refreshes questions by id and returns the number written.
func (w *BankWriter) Upsert(ctx context.Context, questions []domain.QuestionRecord) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	rows := make([]questionRow, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, questionRow{
			ID:                 q.ID,
			Day:                q.Day,
			Topic:              q.Topic,
			Prompt:             q.Prompt,
			Options:            q.Options,
			CorrectOptionIndex: q.CorrectOptionIndex,
			Explanation:        q.Explanation,
		})
	}
	err := w.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&rows).
			On("CONFLICT (id) DO UPDATE").
			Set("day_index = EXCLUDED.day_index").
			Set("topic = EXCLUDED.topic").
			Set("prompt = EXCLUDED.prompt").
			Set("options = EXCLUDED.options").
			Set("correct_option = EXCLUDED.correct_option").
			Set("explanation = EXCLUDED.explanation").
			Exec(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("upsert questions: %w", err)
	}
	return len(rows), nil
}
