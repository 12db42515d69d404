package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"provia-quiz-service/internal/domain"
)

// ProgressStore keeps each profile as a JSON string at provia:progress:{userID}.
type ProgressStore struct {
	client *redis.Client
}

func NewProgressStore(client *redis.Client) *ProgressStore {
	return &ProgressStore{client: client}
}

func (s *ProgressStore) Load(ctx context.Context, userID string) (domain.Progress, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Result()
	return decodeProgress(userID, raw, err)
}

func (s *ProgressStore) Update(ctx context.Context, userID string, fn func(*domain.Progress) error) (domain.Progress, error) {
	key := s.key(userID)
	var next domain.Progress

	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		p, err := decodeProgress(userID, raw, err)
		if err != nil {
			return err
		}
		if err := fn(&p); err != nil {
			return err
		}
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode progress: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		next = p
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return domain.Progress{}, err
		}
		return next, nil
	}
	return domain.Progress{}, fmt.Errorf("update progress %s: %w", userID, redis.TxFailedErr)
}

func (s *ProgressStore) key(userID string) string {
	return "provia:progress:" + userID
}

func decodeProgress(userID, raw string, err error) (domain.Progress, error) {
	if errors.Is(err, redis.Nil) {
		return domain.NewProgress(userID), nil
	}
	if err != nil {
		return domain.Progress{}, fmt.Errorf("read progress: %w", err)
	}
	var p domain.Progress
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return domain.Progress{}, fmt.Errorf("decode progress: %w", err)
	}
	return p, nil
}
