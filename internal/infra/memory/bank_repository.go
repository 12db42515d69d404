package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"provia-quiz-service/internal/domain"
)

// BankLoader fetches the raw question bank from a backing store (embedded file, Postgres, ...).
type BankLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.QuestionRecord, error)
}

const bankKey = "bank"

// BankRepository caches the deduplicated bank with a TTL to avoid repeated loads.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	questions []domain.QuestionRecord
	expiresAt time.Time
	loaded    bool
}

func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Questions returns the bank with duplicate prompts removed (first occurrence
// wins). A TTL of zero or less caches forever.
func (r *BankRepository) Questions(ctx context.Context) ([]domain.QuestionRecord, error) {
	if qs, ok := r.cached(r.clock()); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(bankKey, func() (interface{}, error) {
		now := r.clock()
		if qs, ok := r.cached(now); ok {
			return qs, nil
		}

		raw, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}
		questions := domain.DedupePrompts(raw)

		r.mu.Lock()
		r.questions = questions
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.loaded = true
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuestionRecord), nil
}

func (r *BankRepository) cached(now time.Time) ([]domain.QuestionRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.loaded {
		return nil, false
	}
	if r.ttl > 0 && !r.expiresAt.After(now) {
		return nil, false
	}
	return r.questions, true
}

// StaticBankLoader is a loader backed by an in-memory slice (useful for tests/demos).
type StaticBankLoader struct {
	questions []domain.QuestionRecord
}

func NewStaticBankLoader(questions []domain.QuestionRecord) *StaticBankLoader {
	return &StaticBankLoader{questions: questions}
}

func (l *StaticBankLoader) LoadQuestions(_ context.Context) ([]domain.QuestionRecord, error) {
	return append([]domain.QuestionRecord(nil), l.questions...), nil
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
