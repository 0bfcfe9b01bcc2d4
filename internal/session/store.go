// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"time"

	"github.com/taibuivan/talentgate/internal/platform/sec"
)

// Snapshot is the persisted part of a session, keyed by the token fingerprint.
type Snapshot struct {
	UserID    string       `json:"user_id"`
	UserType  sec.Role     `json:"user_type"`
	Profile   ProfileFlags `json:"profile"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Store persists session snapshots and revoked tokens.
//
// Implementations receive raw tokens and are responsible for never storing them
// verbatim (see [sec.Fingerprint]).
type Store interface {
	SaveSnapshot(ctx context.Context, token string, snapshot Snapshot, ttl time.Duration) error

	// LoadSnapshot reports found=false when no snapshot exists for token.
	LoadSnapshot(ctx context.Context, token string) (snapshot Snapshot, found bool, err error)

	DeleteSnapshot(ctx context.Context, token string) error

	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}
