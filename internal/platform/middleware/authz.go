// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"
	"slices"

	"github.com/taibuivan/talentgate/internal/platform/apperr"
	"github.com/taibuivan/talentgate/internal/platform/respond"
	"github.com/taibuivan/talentgate/internal/platform/sec"
	"github.com/taibuivan/talentgate/internal/session"
)

// SessionHydrator rebuilds the session of a request.
//
// # Why an interface?
//
// It decouples the middleware from [session.Provider] so tests can inject
// a fixed session without Redis or signed tokens.
type SessionHydrator interface {
	Hydrate(ctx context.Context, request *http.Request) (session.Session, error)
}

// Authenticate hydrates the session cookie and stores the result in the context.
//
// # Flow
//  1. Hydrate the access-token cookie via [SessionHydrator].
//  2. Anonymous and degraded sessions proceed; handlers decide what they need.
//  3. Inject [session.Session] into the request context for downstream use.
func Authenticate(hydrator SessionHydrator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// Hydration only errors on cancellation, the partial session is still usable
			current, _ := hydrator.Hydrate(request.Context(), request)

			ctx := session.WithSession(request.Context(), current)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if !session.FromContext(request.Context()).Authenticated() {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks authenticated users whose role is not listed.
//
// It implies [RequireAuth] so you don't need to mount both.
func RequireRole(roles ...sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			current := session.FromContext(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if !current.Authenticated() {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !slices.Contains(roles, current.UserType) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
