package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"provia-quiz-service/internal/domain"
)

const (
	// ReviewQuestions caps the spaced-repetition pool drawn from earlier days.
	ReviewQuestions = 10
	// MaxDayQuestions caps the current-day pool.
	MaxDayQuestions = 50
	// MinDayQuestions is the size thin days are padded up to.
	MinDayQuestions = 20
	// DefaultMockQuestions is used when a mock request carries no count.
	DefaultMockQuestions = 100
)

// Shuffler permutes n elements through swap, with the rand.Shuffle signature.
type Shuffler func(n int, swap func(i, j int))

// NewRandShuffler returns a Shuffler over a seeded source that is safe for concurrent use.
func NewRandShuffler(seed int64) Shuffler {
	var mu sync.Mutex
	rnd := rand.New(rand.NewSource(seed))
	return func(n int, swap func(i, j int)) {
		mu.Lock()
		defer mu.Unlock()
		rnd.Shuffle(n, swap)
	}
}

// Sampler builds question sets from a deduplicated bank.
type Sampler struct {
	bank    QuestionBank
	shuffle Shuffler
}

func NewSampler(bank QuestionBank, shuffle Shuffler) *Sampler {
	if shuffle == nil {
		shuffle = NewRandShuffler(time.Now().UnixNano())
	}
	return &Sampler{bank: bank, shuffle: shuffle}
}

// SampleDaily returns the practice set for day.
func (s *Sampler) SampleDaily(ctx context.Context, day int) ([]domain.QuestionRecord, error) {
	if day < 1 {
		return nil, domain.ErrInvalidDay
	}
	pool, err := s.pool(ctx)
	if err != nil {
		return nil, err
	}
	return SampleDaily(pool, day, s.shuffle), nil
}

// SampleMock returns up to count questions from days start..end inclusive.
func (s *Sampler) SampleMock(ctx context.Context, start, end, count int) ([]domain.QuestionRecord, error) {
	if start < 1 || end < start {
		return nil, domain.ErrInvalidRange
	}
	if count <= 0 {
		return nil, domain.ErrInvalidCount
	}
	pool, err := s.pool(ctx)
	if err != nil {
		return nil, err
	}
	return SampleMock(pool, start, end, count, s.shuffle), nil
}

func (s *Sampler) pool(ctx context.Context) ([]domain.QuestionRecord, error) {
	pool, err := s.bank.Questions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	if len(pool) == 0 {
		return nil, domain.ErrEmptyRepository
	}
	return pool, nil
}

// SampleDaily blends up to ReviewQuestions earlier-day questions with the
// day's own pool, padding thin days from other days up to MinDayQuestions.
// A day with no questions of its own is padded the same way; the result is
// empty only when the pool is. pool must already be deduplicated.
func SampleDaily(pool []domain.QuestionRecord, day int, shuffle Shuffler) []domain.QuestionRecord {
	review := shuffled(filter(pool, func(q domain.QuestionRecord) bool { return q.Day < day }), shuffle)
	review = truncate(review, ReviewQuestions)

	current := shuffled(filter(pool, func(q domain.QuestionRecord) bool { return q.Day == day }), shuffle)
	current = truncate(current, MaxDayQuestions)

	if len(current) < MinDayQuestions {
		used := idSet(current, review)
		filler := shuffled(filter(pool, func(q domain.QuestionRecord) bool {
			_, taken := used[q.ID]
			return q.Day != day && !taken
		}), shuffle)
		current = append(current, truncate(filler, MinDayQuestions-len(current))...)
	}

	currentIDs := idSet(current)
	combined := make([]domain.QuestionRecord, 0, len(review)+len(current))
	for _, q := range review {
		if _, clash := currentIDs[q.ID]; !clash {
			combined = append(combined, q)
		}
	}
	combined = append(combined, current...)
	shuffle(len(combined), func(i, j int) { combined[i], combined[j] = combined[j], combined[i] })
	return combined
}

// SampleMock filters pool to days start..end, shuffles and truncates to count.
func SampleMock(pool []domain.QuestionRecord, start, end, count int, shuffle Shuffler) []domain.QuestionRecord {
	inRange := filter(pool, func(q domain.QuestionRecord) bool { return q.Day >= start && q.Day <= end })
	return truncate(shuffled(inRange, shuffle), count)
}

func filter(pool []domain.QuestionRecord, keep func(domain.QuestionRecord) bool) []domain.QuestionRecord {
	out := make([]domain.QuestionRecord, 0)
	for _, q := range pool {
		if keep(q) {
			out = append(out, q)
		}
	}
	return out
}

// shuffled permutes qs in place (callers pass freshly filtered slices).
func shuffled(qs []domain.QuestionRecord, shuffle Shuffler) []domain.QuestionRecord {
	shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	return qs
}

func truncate(qs []domain.QuestionRecord, n int) []domain.QuestionRecord {
	if len(qs) > n {
		return qs[:n]
	}
	return qs
}

func idSet(groups ...[]domain.QuestionRecord) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, g := range groups {
		for _, q := range g {
			ids[q.ID] = struct{}{}
		}
	}
	return ids
}
