package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"provia-quiz-service/internal/domain"
)

// maxTxRetries bounds optimistic-lock retries when a WATCHed key changes underneath us.
const maxTxRetries = 8

// LedgerStore keeps the attempt ledger in one hash per user:
//
//	HSET provia:attempts:{userID} {day} {"failCount":n,"cooldownUntilEpochMs":ms|null}
type LedgerStore struct {
	client *redis.Client
}

func NewLedgerStore(client *redis.Client) *LedgerStore {
	return &LedgerStore{client: client}
}

type ledgerRecord struct {
	FailCount            int    `json:"failCount"`
	CooldownUntilEpochMs *int64 `json:"cooldownUntilEpochMs"`
}

func (s *LedgerStore) Get(ctx context.Context, userID string, day int) (domain.AttemptLedgerEntry, error) {
	raw, err := s.client.HGet(ctx, s.key(userID), strconv.Itoa(day)).Result()
	return decodeLedger(day, raw, err)
}

// Update applies fn under WATCH/MULTI so concurrent finishes for the same user
// cannot lose an increment.
func (s *LedgerStore) Update(ctx context.Context, userID string, day int, fn func(domain.AttemptLedgerEntry) (domain.AttemptLedgerEntry, error)) (domain.AttemptLedgerEntry, error) {
	key := s.key(userID)
	field := strconv.Itoa(day)
	var next domain.AttemptLedgerEntry

	txf := func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, key, field).Result()
		current, err := decodeLedger(day, raw, err)
		if err != nil {
			return err
		}
		next, err = fn(current)
		if err != nil {
			return err
		}
		next.Day = day
		data, err := json.Marshal(ledgerRecord{
			FailCount:            next.FailCount,
			CooldownUntilEpochMs: domain.EpochMillis(next.CooldownUntil),
		})
		if err != nil {
			return fmt.Errorf("encode ledger entry: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, field, data)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return domain.AttemptLedgerEntry{}, err
		}
		return next, nil
	}
	return domain.AttemptLedgerEntry{}, fmt.Errorf("update ledger %s day %d: %w", userID, day, redis.TxFailedErr)
}

func (s *LedgerStore) key(userID string) string {
	return "provia:attempts:" + userID
}

func decodeLedger(day int, raw string, err error) (domain.AttemptLedgerEntry, error) {
	if errors.Is(err, redis.Nil) {
		return domain.AttemptLedgerEntry{Day: day}, nil
	}
	if err != nil {
		return domain.AttemptLedgerEntry{}, fmt.Errorf("read ledger: %w", err)
	}
	var rec ledgerRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return domain.AttemptLedgerEntry{}, fmt.Errorf("decode ledger entry: %w", err)
	}
	return domain.AttemptLedgerEntry{
		Day:           day,
		FailCount:     rec.FailCount,
		CooldownUntil: domain.FromEpochMillis(rec.CooldownUntilEpochMs),
	}, nil
}
