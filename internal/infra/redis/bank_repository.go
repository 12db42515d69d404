package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"provia-quiz-service/internal/domain"
)

// BankLoader fetches the raw question bank from a backing store (embedded file, Postgres, ...).
type BankLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.QuestionRecord, error)
}

// BankKey holds the deduplicated bank: HSET provia:bank {questionID} {record JSON}.
const BankKey = "provia:bank"

// BankRepository caches the deduplicated bank in a Redis hash shared by all
// instances and falls back to a loader on cache miss.
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) Questions(ctx context.Context) ([]domain.QuestionRecord, error) {
	if qs, ok := r.cached(ctx); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(BankKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if qs, ok := r.cached(ctx); ok {
			return qs, nil
		}

		raw, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		questions := domain.DedupePrompts(raw)

		pipe := r.client.TxPipeline()
		pipe.Del(ctx, BankKey)
		for _, q := range questions {
			data, err := json.Marshal(q)
			if err != nil {
				return nil, fmt.Errorf("encode question %s: %w", q.ID, err)
			}
			pipe.HSet(ctx, BankKey, q.ID, data)
		}
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, BankKey, ttl)
		}
		// best-effort: a failed fill only costs another load
		_, _ = pipe.Exec(ctx)

		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuestionRecord), nil
}

func (r *BankRepository) cached(ctx context.Context) ([]domain.QuestionRecord, bool) {
	fields, err := r.client.HGetAll(ctx, BankKey).Result()
	if err != nil || len(fields) == 0 {
		return nil, false
	}
	questions := make([]domain.QuestionRecord, 0, len(fields))
	for _, raw := range fields {
		var q domain.QuestionRecord
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, false
		}
		questions = append(questions, q)
	}
	sort.Slice(questions, func(i, j int) bool {
		if questions[i].Day != questions[j].Day {
			return questions[i].Day < questions[j].Day
		}
		return questions[i].ID < questions[j].ID
	})
	return questions, true
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
