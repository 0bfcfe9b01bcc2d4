// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/talentgate/internal/platform/constants"
)

// RedisCache implements [Cache] with one JSON value per user and checkout session.
type RedisCache struct {
	client redis.Cmdable
}

// NewRedisCache creates a Redis-backed outcome cache.
func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func outcomeKey(userID, sessionID string) string {
	return constants.RedisPrefixPayment + userID + ":" + sessionID
}

// Load implements [Cache].
func (cache *RedisCache) Load(ctx context.Context, userID, sessionID string) (Outcome, bool, error) {
	payload, err := cache.client.Get(ctx, outcomeKey(userID, sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Outcome{}, false, nil
		}
		return Outcome{}, false, fmt.Errorf("redis_payment_get_failed: %w", err)
	}

	var outcome Outcome
	if err := json.Unmarshal(payload, &outcome); err != nil {
		return Outcome{}, false, fmt.Errorf("redis_payment_decode_failed: %w", err)
	}
	return outcome, true, nil
}

// Save implements [Cache].
func (cache *RedisCache) Save(ctx context.Context, userID string, outcome Outcome, ttl time.Duration) error {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("redis_payment_encode_failed: %w", err)
	}
	if err := cache.client.Set(ctx, outcomeKey(userID, outcome.SessionID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_payment_set_failed: %w", err)
	}
	return nil
}
