package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/sms-portal/internal/model"
	"github.com/nimasrn/sms-portal/pkg/redis"
)

const keyPrefix = "staging:bulk:"

// Keys outlive the freshness window by expiryGrace. Freshness itself is
// checked by the caller against CreatedAt.
const expiryGrace = time.Minute

type RedisStore struct {
	rdb redis.RedisAdapter
	ttl time.Duration
}

func NewRedisStore(rdb redis.RedisAdapter, window time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: window + expiryGrace}
}

func (s *RedisStore) Put(ctx context.Context, sessionID string, b *model.StagedBatch) error {
	if sessionID == "" {
		return ErrEmptySession
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal staged batch: %w", err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+sessionID, raw, s.ttl); err != nil {
		return fmt.Errorf("stage batch: %w", err)
	}
	return nil
}

func (s *RedisStore) Take(ctx context.Context, sessionID string) (*model.StagedBatch, error) {
	if sessionID == "" {
		return nil, ErrNotFound
	}
	raw, err := s.rdb.GetDel(ctx, keyPrefix+sessionID)
	if errors.Is(err, redis.NilError) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("take staged batch: %w", err)
	}
	var b model.StagedBatch
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode staged batch: %w", err)
	}
	return &b, nil
}
