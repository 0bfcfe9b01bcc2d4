// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package notice queues transient toasts for a browser.

Server-side redirects cannot show a toast themselves, so the guard pushes the
denial message here and the client drains the queue after the redirect lands.
*/
package notice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/talentgate/internal/platform/constants"
	"github.com/taibuivan/talentgate/internal/platform/ctxutil"
	"github.com/taibuivan/talentgate/internal/platform/respond"
)

// Level is the toast severity.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is one toast.
type Notice struct {
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	Path      string    `json:"path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store queues notices per device.
type Store interface {
	Push(ctx context.Context, deviceID string, n Notice) error
	Drain(ctx context.Context, deviceID string) ([]Notice, error)
}

// RedisStore keeps each device's queue in a capped Redis list.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a Redis-backed notice store.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

// Push appends n, trims the queue to its cap and refreshes the TTL.
func (store *RedisStore) Push(ctx context.Context, deviceID string, n Notice) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("redis_notice_encode_failed: %w", err)
	}

	key := constants.RedisPrefixNotice + deviceID
	_, err = store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, payload)
		pipe.LTrim(ctx, key, -constants.NoticeMaxQueueLength, -1)
		pipe.Expire(ctx, key, constants.NoticeTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis_notice_push_failed: %w", err)
	}
	return nil
}

// Drain returns and removes every queued notice, oldest first.
func (store *RedisStore) Drain(ctx context.Context, deviceID string) ([]Notice, error) {
	key := constants.RedisPrefixNotice + deviceID

	var entries *redis.StringSliceCmd
	_, err := store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		entries = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis_notice_drain_failed: %w", err)
	}

	notices := make([]Notice, 0, len(entries.Val()))
	for _, entry := range entries.Val() {
		var n Notice
		if err := json.Unmarshal([]byte(entry), &n); err != nil {
			continue
		}
		notices = append(notices, n)
	}
	return notices, nil
}

// # HTTP

// Handler serves the notice queue of the calling device.
type Handler struct {
	store Store
}

// NewHandler constructs a notice [Handler].
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Routes returns the router mounted under /api/notices.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.drain)
	return router
}

// drain handles GET /api/notices.
func (handler *Handler) drain(writer http.ResponseWriter, request *http.Request) {
	deviceID := ctxutil.GetDeviceID(request.Context())
	if deviceID == "" {
		respond.OK(writer, []Notice{})
		return
	}

	notices, err := handler.store.Drain(request.Context(), deviceID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, notices)
}
