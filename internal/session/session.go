// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session owns the portal's view of the authenticated identity.

A [Session] is hydrated from the access-token cookie on every request. There is
no ambient global store: the guard, the REST client and the handlers all receive
the session through the request context or an explicit argument.

Lifecycle:

  - Created: [Service.Login] proxies credentials to the backend, persists a
    profile snapshot in Redis and sets the access-token cookie.
  - Read: [Provider.Hydrate] rebuilds the session from the cookie on every navigation.
  - Cleared: [Service.Logout] or [Service.Invalidate] (backend 401) revoke the token.
*/
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/taibuivan/talentgate/internal/platform/apperr"
	"github.com/taibuivan/talentgate/internal/platform/ctxkey"
	"github.com/taibuivan/talentgate/internal/platform/sec"
)

// # Domain Model

// ProfileFlags are the onboarding milestones the backend reports for a user.
type ProfileFlags struct {
	EmailVerified       bool `json:"email_verified"`
	ProfileCompleted    bool `json:"profile_completed"`
	ResumeUploaded      bool `json:"resume_uploaded"`
	AssessmentCompleted bool `json:"assessment_completed"`
	PaymentCompleted    bool `json:"payment_completed"`
}

// Session is the identity known for the current request.
//
// A Session with a non-empty AccessToken is authenticated; otherwise it is anonymous.
type Session struct {
	UserID      string       `json:"user_id,omitempty"`
	UserType    sec.Role     `json:"user_type,omitempty"`
	AccessToken string       `json:"-"`
	Profile     ProfileFlags `json:"profile"`
	ExpiresAt   time.Time    `json:"expires_at,omitzero"`
}

// Anonymous returns the session of a visitor without credentials.
func Anonymous() Session {
	return Session{}
}

// Authenticated reports whether the session carries an access token.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// # Context Propagation

// WithSession stores the hydrated session in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxkey.KeySession, s)
}

// FromContext returns the session stored by [WithSession], or an anonymous one.
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(ctxkey.KeySession).(Session)
	return s
}

// Required returns the request's session or a 401 when it is anonymous.
func Required(request *http.Request) (Session, error) {
	s := FromContext(request.Context())
	if !s.Authenticated() {
		return Session{}, apperr.Unauthorized("Authentication required")
	}
	return s, nil
}

// Tokens supplies the bearer token of the session stored in the context.
//
// It satisfies backend.TokenSource.
type Tokens struct{}

// AccessToken implements backend.TokenSource.
func (Tokens) AccessToken(ctx context.Context) string {
	return FromContext(ctx).AccessToken
}
