// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis connects the portal to its volatile state.

Everything the portal keeps in Redis expires on its own:

  - Session snapshots and revoked token fingerprints.
  - Role preferences and queued notices per device.
  - Reconciled payment outcomes.

Losing Redis degrades the portal (claims-only sessions, path-based role
inference) but never blocks a request.
*/
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/talentgate/internal/platform/constants"
)

const (
	poolSize     = 20
	minIdleConns = 2
	dialTimeout  = 3 * time.Second
	readTimeout  = 500 * time.Millisecond
	writeTimeout = 500 * time.Millisecond
	pingTimeout  = 2 * time.Second
)

// NewClient parses redisURL, connects and pings.
//
// Read and write timeouts are short: guard hydration runs inside a grace
// period of a few hundred milliseconds and must not wait on a stuck server.
func NewClient(ctx context.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	options.ClientName = constants.AppName
	options.PoolSize = poolSize
	options.MinIdleConns = minIdleConns
	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout
	options.ContextTimeoutEnabled = true

	client := redis.NewClient(options)
	if err := Ping(ctx, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
	)
	return client, nil
}

// Ping verifies that the client can reach the server.
func Ping(ctx context.Context, client redis.UniversalClient) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}
	return nil
}

// Checker adapts the client to the readiness probe.
func Checker(client redis.UniversalClient) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return Ping(ctx, client)
	}
}
