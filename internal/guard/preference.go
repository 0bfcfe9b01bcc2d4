// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/talentgate/internal/platform/constants"
	"github.com/taibuivan/talentgate/internal/platform/sec"
)

// PreferenceStore persists the role a device last selected (for example on the
// landing page's "I am a..." switch).
type PreferenceStore interface {
	// Get returns the raw stored value, or "" when nothing is stored.
	Get(ctx context.Context, deviceID string) (string, error)
	Set(ctx context.Context, deviceID string, role sec.Role) error
}

// DevicePreference binds a [PreferenceStore] to one device.
type DevicePreference struct {
	Store    PreferenceStore
	DeviceID string
}

// RolePreference implements [PreferenceReader].
func (p DevicePreference) RolePreference(ctx context.Context) (string, error) {
	if p.Store == nil || p.DeviceID == "" {
		return "", nil
	}
	return p.Store.Get(ctx, p.DeviceID)
}

// StaticPreference is a fixed preference, used by client-side navigators.
type StaticPreference string

// RolePreference implements [PreferenceReader].
func (p StaticPreference) RolePreference(context.Context) (string, error) {
	return string(p), nil
}

// RedisPreferenceStore implements [PreferenceStore] on Redis.
type RedisPreferenceStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisPreferenceStore creates a Redis-backed preference store.
func NewRedisPreferenceStore(client redis.Cmdable) *RedisPreferenceStore {
	return &RedisPreferenceStore{client: client, ttl: constants.RolePreferenceTTL}
}

// Get reads the preference of deviceID.
func (store *RedisPreferenceStore) Get(ctx context.Context, deviceID string) (string, error) {
	value, err := store.client.Get(ctx, constants.RedisPrefixRolePref+deviceID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis_role_pref_get_failed: %w", err)
	}
	return value, nil
}

// Set stores the canonical role for deviceID and refreshes its TTL.
func (store *RedisPreferenceStore) Set(ctx context.Context, deviceID string, role sec.Role) error {
	if err := store.client.Set(ctx, constants.RedisPrefixRolePref+deviceID, string(role), store.ttl).Err(); err != nil {
		return fmt.Errorf("redis_role_pref_set_failed: %w", err)
	}
	return nil
}
