// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guard

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/talentgate/internal/platform/ctxutil"
	"github.com/taibuivan/talentgate/internal/platform/sec"
	"github.com/taibuivan/talentgate/internal/session"
)

// DeniedNotice is the toast shown before a denied user is redirected.
const DeniedNotice = "You do not have access to that page. Taking you to your dashboard."

// Kind is the outcome of a guard evaluation.
type Kind string

const (
	KindRender            Kind = "render"
	KindRedirectLogin     Kind = "redirect_login"
	KindRedirectDashboard Kind = "redirect_dashboard"
)

// Decision is the result of evaluating one navigation.
type Decision struct {
	Kind     Kind          `json:"decision"`
	Path     string        `json:"path"`
	Location string        `json:"location,omitempty"`
	Role     sec.Role      `json:"role,omitempty"`
	Notice   string        `json:"notice,omitempty"`
	Delay    time.Duration `json:"-"`
}

// PreferenceReader returns the role a visitor last picked, or "" when none is stored.
//
// The value is raw and possibly an alias; [Evaluate] normalizes it.
type PreferenceReader interface {
	RolePreference(ctx context.Context) (string, error)
}

/*
Evaluate decides a single navigation.

Description: Checks run strictly in order. Public and reserved paths render,
anonymous visitors are sent to a role login page (unless already on one) and
authenticated users outside their area are redirected to their dashboard with
a notice. Evaluate never fails: a broken preference store degrades to
path-based role inference.

Parameters:
  - policy: The route table
  - target: The requested path (query strings are ignored)
  - current: The hydrated session, possibly anonymous
  - prefs: Stored role preference, may be nil
*/
func Evaluate(ctx context.Context, policy Policy, target string, current session.Session, prefs PreferenceReader) Decision {
	target = Normalize(target)

	// ── 1. Public & Reserved ──────────────────────────────────────────────
	if policy.IsPublic(target) {
		return Decision{Kind: KindRender, Path: target, Role: current.UserType}
	}

	// ── 2. Anonymous ──────────────────────────────────────────────────────
	if !current.Authenticated() {
		if policy.IsLoginPage(target) {
			return Decision{Kind: KindRender, Path: target}
		}

		role := inferRole(ctx, policy, target, prefs)
		return Decision{Kind: KindRedirectLogin, Path: target, Location: policy.LoginPath(role), Role: role}
	}

	// ── 3. Authorization ──────────────────────────────────────────────────
	if policy.Allows(current.UserType, target) {
		return Decision{Kind: KindRender, Path: target, Role: current.UserType}
	}

	return Decision{
		Kind:     KindRedirectDashboard,
		Path:     target,
		Location: policy.DashboardPath(current.UserType),
		Role:     current.UserType,
		Notice:   DeniedNotice,
		Delay:    policy.DenialDelay,
	}
}

// inferRole picks the login page for an anonymous visitor.
//
// Order: stored preference, then the leading path segment, then the default role.
func inferRole(ctx context.Context, policy Policy, target string, prefs PreferenceReader) sec.Role {
	if prefs != nil {
		raw, err := prefs.RolePreference(ctx)
		if err != nil {
			ctxutil.GetLogger(ctx).WarnContext(ctx, "guard_preference_unavailable", slog.Any("error", err))
		} else if role, ok := sec.ParseRole(raw); ok {
			return role
		}
	}

	if role, ok := sec.ParseRole(leadingSegment(target)); ok {
		if _, hasLogin := policy.Login[role]; hasLogin {
			return role
		}
	}

	return policy.DefaultRole
}
