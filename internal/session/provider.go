// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/taibuivan/talentgate/internal/platform/constants"
	"github.com/taibuivan/talentgate/internal/platform/ctxutil"
	"github.com/taibuivan/talentgate/internal/platform/sec"
)

// Verifier reads the claims of a backend access token.
type Verifier interface {
	Verify(token string) (*sec.AccessClaims, error)
}

// Provider rebuilds the [Session] of an incoming request.
type Provider struct {
	verifier Verifier
	store    Store
}

// NewProvider creates a session provider.
func NewProvider(verifier Verifier, store Store) *Provider {
	return &Provider{verifier: verifier, store: store}
}

/*
Hydrate returns the session carried by the request's access-token cookie.

Description: Hydration never fails the request. Missing, expired, invalid or
revoked tokens yield an anonymous session. A Redis failure degrades to a
claims-only session without profile flags.

When ctx expires mid-hydration the session established so far is returned
together with ctx.Err(), so callers can decide on partial state.

Returns:
  - Session: Best-known identity
  - error: Only context cancellation
*/
func (provider *Provider) Hydrate(ctx context.Context, request *http.Request) (Session, error) {
	logger := ctxutil.GetLogger(ctx)

	// ── 1. Cookie ─────────────────────────────────────────────────────────
	cookie, err := request.Cookie(constants.AccessTokenCookieName)
	if err != nil || cookie.Value == "" {
		return Anonymous(), nil
	}
	token := cookie.Value

	// ── 2. Claims ─────────────────────────────────────────────────────────
	claims, err := provider.verifier.Verify(token)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, sec.ErrTokenExpired) {
			level = slog.LevelDebug
		}
		logger.Log(ctx, level, "session_token_rejected", slog.Any("error", err))
		return Anonymous(), nil
	}

	role, ok := sec.ParseRole(claims.UserType)
	if !ok {
		logger.WarnContext(ctx, "session_unknown_role", slog.String("user_type", claims.UserType))
		return Anonymous(), nil
	}

	current := Session{
		UserID:      claims.Subject(),
		UserType:    role,
		AccessToken: token,
	}
	if claims.ExpiresAt != nil {
		current.ExpiresAt = claims.ExpiresAt.Time
	}

	// ── 3. Revocation ─────────────────────────────────────────────────────
	revoked, err := provider.store.IsRevoked(ctx, token)
	switch {
	case ctx.Err() != nil:
		return current, ctx.Err()
	case err != nil:
		logger.WarnContext(ctx, "session_revocation_check_failed", slog.Any("error", err))
	case revoked:
		return Anonymous(), nil
	}

	// ── 4. Profile Snapshot ───────────────────────────────────────────────
	snapshot, found, err := provider.store.LoadSnapshot(ctx, token)
	switch {
	case ctx.Err() != nil:
		return current, ctx.Err()
	case err != nil:
		logger.WarnContext(ctx, "session_snapshot_unavailable", slog.Any("error", err))
	case found:
		current.Profile = snapshot.Profile
	}

	return current, nil
}
