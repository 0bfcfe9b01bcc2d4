// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/talentgate/internal/platform/apperr"
	"github.com/taibuivan/talentgate/internal/platform/constants"
	"github.com/taibuivan/talentgate/internal/platform/ctxutil"
	"github.com/taibuivan/talentgate/internal/platform/sec"
	"github.com/taibuivan/talentgate/internal/platform/validate"
)

// # Backend Paths

const (
	pathLogin  = "/auth/login"
	pathLogout = "/auth/logout"
)

// Backend is the subset of the REST client used by the session service.
type Backend interface {
	Post(ctx context.Context, path string, in, out any) error
}

// LoginInput carries the credentials submitted on a role login page.
type LoginInput struct {
	Email    string
	Password string
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType string `json:"user_type"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID       string `json:"id"`
		UserType string `json:"user_type"`
		ProfileFlags
	} `json:"user"`
}

// Service implements the login, logout and invalidation flows.
type Service struct {
	backend  Backend
	store    Store
	verifier Verifier
	ttl      time.Duration
	now      func() time.Time
}

// NewService creates the session service. ttl caps the snapshot lifetime.
func NewService(backend Backend, store Store, verifier Verifier, ttl time.Duration) *Service {
	return &Service{backend: backend, store: store, verifier: verifier, ttl: ttl, now: time.Now}
}

/*
Login authenticates role credentials against the backend.

Description: The backend issues the access token. The portal reads its claims,
rejects accounts whose type differs from the login page's role and persists a
profile snapshot for later hydration.

Returns:
  - Session: The authenticated session (caller sets the cookie)
  - error: Validation, upstream or role mismatch failures
*/
func (service *Service) Login(ctx context.Context, role sec.Role, input LoginInput) (Session, error) {
	logger := ctxutil.GetLogger(ctx)

	// ── 1. Validation ─────────────────────────────────────────────────────
	input.Email = strings.TrimSpace(input.Email)
	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)
	if err := validator.Err(); err != nil {
		return Session{}, err
	}

	// ── 2. Backend Authentication ─────────────────────────────────────────
	var response loginResponse
	err := service.backend.Post(ctx, pathLogin, loginRequest{
		Email:    input.Email,
		Password: input.Password,
		UserType: string(role),
	}, &response)
	if err != nil {
		return Session{}, err
	}
	if response.AccessToken == "" {
		return Session{}, apperr.BadGateway("Backend did not issue an access token", nil)
	}

	claims, err := service.verifier.Verify(response.AccessToken)
	if err != nil {
		return Session{}, apperr.BadGateway("Backend issued an unusable access token", err)
	}

	// ── 3. Role Check ─────────────────────────────────────────────────────
	userType := response.User.UserType
	if userType == "" {
		userType = claims.UserType
	}
	accountRole, ok := sec.ParseRole(userType)
	if !ok || accountRole != role {
		logger.WarnContext(ctx, "login_role_mismatch",
			slog.String("requested_role", role.String()),
			slog.String("account_type", userType),
		)
		return Session{}, apperr.Forbidden(fmt.Sprintf("This account cannot sign in as %s", role))
	}

	// ── 4. Snapshot ───────────────────────────────────────────────────────
	current := Session{
		UserID:      response.User.ID,
		UserType:    accountRole,
		AccessToken: response.AccessToken,
		Profile:     response.User.ProfileFlags,
	}
	if current.UserID == "" {
		current.UserID = claims.Subject()
	}
	if claims.ExpiresAt != nil {
		current.ExpiresAt = claims.ExpiresAt.Time
	}

	snapshot := Snapshot{UserID: current.UserID, UserType: current.UserType, Profile: current.Profile, ExpiresAt: current.ExpiresAt}
	if err := service.store.SaveSnapshot(ctx, current.AccessToken, snapshot, service.snapshotTTL(current.ExpiresAt)); err != nil {
		// Hydration falls back to claims, the login itself still succeeded.
		logger.WarnContext(ctx, "session_snapshot_save_failed", slog.Any("error", err))
	}

	logger.InfoContext(ctx, "session_created",
		slog.String("user_id", current.UserID),
		slog.String("user_type", current.UserType.String()),
	)
	return current, nil
}

// Logout revokes token locally and tells the backend, ignoring backend failures.
func (service *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := service.backend.Post(ctx, pathLogout, nil, nil); err != nil {
		ctxutil.GetLogger(ctx).WarnContext(ctx, "backend_logout_failed", slog.Any("error", err))
	}

	return service.clear(ctx, token, "logout")
}

// Invalidate drops a token the backend rejected with 401.
//
// It is registered as the REST client's unauthorized hook and never calls the backend.
func (service *Service) Invalidate(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := service.clear(ctx, token, "backend_unauthorized"); err != nil {
		ctxutil.GetLogger(ctx).ErrorContext(ctx, "session_invalidate_failed", slog.Any("error", err))
	}
}

func (service *Service) clear(ctx context.Context, token, reason string) error {
	expiresAt := time.Time{}
	if claims, err := service.verifier.Verify(token); err == nil && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := service.store.Revoke(ctx, token, service.revocationTTL(expiresAt)); err != nil {
		return fmt.Errorf("session: revoke: %w", err)
	}
	if err := service.store.DeleteSnapshot(ctx, token); err != nil {
		return fmt.Errorf("session: delete snapshot: %w", err)
	}

	ctxutil.GetLogger(ctx).InfoContext(ctx, "session_cleared", slog.String("reason", reason))
	return nil
}

// snapshotTTL is the configured TTL, shortened to the token's remaining lifetime.
func (service *Service) snapshotTTL(expiresAt time.Time) time.Duration {
	if expiresAt.IsZero() {
		return service.ttl
	}
	remaining := expiresAt.Sub(service.now())
	if remaining > 0 && remaining < service.ttl {
		return remaining
	}
	return service.ttl
}

// revocationTTL keeps the revocation at least as long as the token could still be presented.
func (service *Service) revocationTTL(expiresAt time.Time) time.Duration {
	remaining := expiresAt.Sub(service.now())
	if expiresAt.IsZero() || remaining < constants.RevokedTokenMinimumTTL {
		return constants.RevokedTokenMinimumTTL
	}
	return remaining
}
