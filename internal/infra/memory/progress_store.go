package memory

import (
	"context"
	"encoding/json"
	"sync"

	"provia-quiz-service/internal/domain"
)

// ProgressStore is an in-memory implementation of app.ProgressStore.
type ProgressStore struct {
	mu       sync.Mutex
	profiles map[string]domain.Progress
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{profiles: make(map[string]domain.Progress)}
}

func (s *ProgressStore) Load(_ context.Context, userID string) (domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(userID)
}

func (s *ProgressStore) Update(_ context.Context, userID string, fn func(*domain.Progress) error) (domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.loadLocked(userID)
	if err != nil {
		return domain.Progress{}, err
	}
	if err := fn(&p); err != nil {
		return domain.Progress{}, err
	}
	stored, err := cloneProgress(p)
	if err != nil {
		return domain.Progress{}, err
	}
	s.profiles[userID] = stored
	return p, nil
}

func (s *ProgressStore) loadLocked(userID string) (domain.Progress, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return domain.NewProgress(userID), nil
	}
	return cloneProgress(p)
}

// cloneProgress deep-copies through JSON so callers never share slices with the store.
func cloneProgress(p domain.Progress) (domain.Progress, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return domain.Progress{}, err
	}
	var out domain.Progress
	if err := json.Unmarshal(raw, &out); err != nil {
		return domain.Progress{}, err
	}
	return out, nil
}
