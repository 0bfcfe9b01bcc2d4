// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/talentgate/internal/platform/constants"
	"github.com/taibuivan/talentgate/internal/platform/sec"
)

// RedisStore implements [Store] on Redis.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func snapshotKey(token string) string {
	return constants.RedisPrefixSession + sec.Fingerprint(token)
}

func revokedKey(token string) string {
	return constants.RedisPrefixRevoked + sec.Fingerprint(token)
}

// SaveSnapshot stores the snapshot as JSON with a TTL.
func (store *RedisStore) SaveSnapshot(ctx context.Context, token string, snapshot Snapshot, ttl time.Duration) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("redis_session_encode_failed: %w", err)
	}

	if err := store.client.Set(ctx, snapshotKey(token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_set_failed: %w", err)
	}
	return nil
}

// LoadSnapshot reads the snapshot for token.
func (store *RedisStore) LoadSnapshot(ctx context.Context, token string) (Snapshot, bool, error) {
	payload, err := store.client.Get(ctx, snapshotKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("redis_session_get_failed: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return Snapshot{}, false, fmt.Errorf("redis_session_decode_failed: %w", err)
	}
	return snapshot, true, nil
}

// DeleteSnapshot removes the snapshot for token.
func (store *RedisStore) DeleteSnapshot(ctx context.Context, token string) error {
	if err := store.client.Del(ctx, snapshotKey(token)).Err(); err != nil {
		return fmt.Errorf("redis_session_delete_failed: %w", err)
	}
	return nil
}

// Revoke marks token as unusable until ttl elapses.
func (store *RedisStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if err := store.client.Set(ctx, revokedKey(token), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis_session_revoke_failed: %w", err)
	}
	return nil
}

// IsRevoked reports whether token was revoked.
func (store *RedisStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	count, err := store.client.Exists(ctx, revokedKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("redis_session_exists_failed: %w", err)
	}
	return count > 0, nil
}
