// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guard_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/talentgate/internal/guard"
	"github.com/taibuivan/talentgate/internal/platform/sec"
	"github.com/taibuivan/talentgate/internal/session"
)

var (
	publicPaths    = []string{"/", "/about", "/pricing", "/blog/hiring-tips", "/expert/signup", "/admin/forgot-password", "/api/auth/session", "/assets/logo.svg", "/health"}
	protectedPaths = []string{"/candidate/dashboard", "/candidate/assessment/mcq", "/customer/browse-engineers", "/expert/dashboard", "/panelist/dashboard", "/admin/dashboard", "/payment", "/settings"}
)

func everySession() []session.Session {
	sessions := []session.Session{session.Anonymous()}
	for _, role := range sec.Roles {
		sessions = append(sessions, signedIn(role))
	}
	return sessions
}

/*
TestEvaluate_PublicAlwaysRenders verifies public paths render for every session.
*/
func TestEvaluate_PublicAlwaysRenders(t *testing.T) {
	for _, target := range publicPaths {
		for _, current := range everySession() {
			decision := guard.Evaluate(context.Background(), testPolicy(), target, current, nil)
			assert.Equal(t, guard.KindRender, decision.Kind, "path %s role %q", target, current.UserType)
		}
	}
}

/*
TestEvaluate_AnonymousNeverRendersProtected verifies anonymous visitors are always sent to a login page.
*/
func TestEvaluate_AnonymousNeverRendersProtected(t *testing.T) {
	policy := testPolicy()
	for _, target := range protectedPaths {
		decision := guard.Evaluate(context.Background(), policy, target, session.Anonymous(), nil)
		assert.Equal(t, guard.KindRedirectLogin, decision.Kind, target)
		assert.Contains(t, policy.Login, decision.Role)
		assert.Equal(t, policy.Login[decision.Role], decision.Location)
	}
}

/*
TestEvaluate_DeniedRolesGoToDashboard verifies authorization failures redirect with a notice.
*/
func TestEvaluate_DeniedRolesGoToDashboard(t *testing.T) {
	policy := testPolicy()
	for _, target := range protectedPaths {
		for _, role := range sec.Roles {
			decision := guard.Evaluate(context.Background(), policy, target, signedIn(role), nil)

			if policy.Allows(role, target) {
				assert.Equal(t, guard.KindRender, decision.Kind)
				assert.Empty(t, decision.Notice)
				continue
			}
			assert.Equal(t, guard.KindRedirectDashboard, decision.Kind, "%s as %s", target, role)
			assert.Equal(t, policy.Dashboard[role], decision.Location)
			assert.Equal(t, guard.DeniedNotice, decision.Notice)
			assert.Equal(t, denialDelay, decision.Delay)
		}
	}
}

/*
TestEvaluate_Idempotent verifies repeated evaluation yields the same decision.
*/
func TestEvaluate_Idempotent(t *testing.T) {
	policy := testPolicy()
	prefs := guard.StaticPreference("expert")
	for _, target := range append(publicPaths, protectedPaths...) {
		for _, current := range everySession() {
			first := guard.Evaluate(context.Background(), policy, target, current, prefs)
			second := guard.Evaluate(context.Background(), policy, target, current, prefs)
			assert.Equal(t, first, second)
		}
	}
}

/*
TestEvaluate_RoleInference checks the preference, path and default inference order.
*/
func TestEvaluate_RoleInference(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		prefs    guard.PreferenceReader
		location string
	}{
		{"path_prefix", "/expert/dashboard", nil, "/expert/login"},
		{"alias_path_segment", "/engineer/profile", nil, "/candidate/login"},
		{"preference_wins", "/expert/dashboard", guard.StaticPreference("customer"), "/customer/login"},
		{"preference_alias", "/settings", guard.StaticPreference("Interview_Panel"), "/panelist/login"},
		{"preference_admin_casing", "/settings", guard.StaticPreference("ADMIN"), "/admin/login"},
		{"unknown_preference_falls_through", "/expert/dashboard", guard.StaticPreference("pirate"), "/expert/login"},
		{"storage_failure_falls_through", "/panelist/dashboard", failingPreference{}, "/panelist/login"},
		{"default_role", "/settings", nil, "/candidate/login"},
		{"storage_failure_default", "/payment", failingPreference{}, "/candidate/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := guard.Evaluate(context.Background(), testPolicy(), tt.target, session.Anonymous(), tt.prefs)
			assert.Equal(t, guard.KindRedirectLogin, decision.Kind)
			assert.Equal(t, tt.location, decision.Location)
		})
	}
}

/*
TestEvaluate_AnonymousOnLoginPage verifies login pages render to avoid redirect loops.
*/
func TestEvaluate_AnonymousOnLoginPage(t *testing.T) {
	for _, target := range []string{"/expert/login", "/admin/login", "/login"} {
		decision := guard.Evaluate(context.Background(), testPolicy(), target, session.Anonymous(), nil)
		assert.Equal(t, guard.KindRender, decision.Kind, target)
	}
}

/*
TestEvaluate_Scenarios covers the documented end-to-end cases.
*/
func TestEvaluate_Scenarios(t *testing.T) {
	t.Run("anonymous_expert_dashboard", func(t *testing.T) {
		decision := guard.Evaluate(context.Background(), testPolicy(), "/expert/dashboard", session.Anonymous(), guard.StaticPreference(""))
		assert.Equal(t, guard.KindRedirectLogin, decision.Kind)
		assert.Equal(t, sec.RoleExpert, decision.Role)
		assert.Equal(t, "/expert/login", decision.Location)
	})

	t.Run("customer_on_admin_dashboard", func(t *testing.T) {
		decision := guard.Evaluate(context.Background(), testPolicy(), "/admin/dashboard", signedIn(sec.RoleCustomer), nil)
		assert.Equal(t, guard.KindRedirectDashboard, decision.Kind)
		assert.Equal(t, "/customer/browse-engineers", decision.Location)
		assert.NotEmpty(t, decision.Notice)
		assert.Equal(t, denialDelay, decision.Delay)
	})
}
