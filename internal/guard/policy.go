// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package guard implements the access guard that gates every navigation.

A navigation is classified against a static [Policy] and resolved to one of
three decisions: render the page, redirect an anonymous visitor to a role
login page, or redirect an authenticated user outside their area back to
their dashboard with a denial notice.

Layers:

  - [Evaluate]: the decision as a function of (policy, path, session, preference).
  - [Machine]: the per-navigation state machine driven by discrete events.
  - [Navigator]: drives a Machine with a clock (grace period, delayed redirect).
  - [Middleware]: runs a Machine for every page request on the server.
*/
package guard

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/taibuivan/talentgate/internal/platform/sec"
)

// # Path Matchers

// PathMatcher is either a literal path or a regular expression.
//
// Construct it with [Literal] or [Pattern]; the zero value matches nothing.
type PathMatcher struct {
	literal string
	pattern *regexp.Regexp
}

// Literal matches exactly one path.
func Literal(value string) PathMatcher {
	return PathMatcher{literal: value}
}

// Pattern matches paths against a regular expression. It panics on an invalid expression.
func Pattern(expression string) PathMatcher {
	return PathMatcher{pattern: regexp.MustCompile(expression)}
}

// Match reports whether p is matched.
func (m PathMatcher) Match(p string) bool {
	if m.pattern != nil {
		return m.pattern.MatchString(p)
	}
	return m.literal != "" && m.literal == p
}

// String returns the literal or the expression source.
func (m PathMatcher) String() string {
	if m.pattern != nil {
		return m.pattern.String()
	}
	return m.literal
}

// # Policy

// Policy is the static route classification consulted by the guard.
type Policy struct {
	// Public paths render for everyone.
	Public []PathMatcher

	// Reserved prefixes (API, assets, probes) bypass the guard entirely.
	Reserved []string

	// LoginPages render for anonymous visitors to avoid redirect loops.
	LoginPages []PathMatcher

	// Allowed lists the path prefixes each role may open.
	Allowed map[sec.Role][]string

	// Login is where an anonymous visitor of a role is sent.
	Login map[sec.Role]string

	// Dashboard is where a denied user of a role is sent.
	Dashboard map[sec.Role]string

	// DefaultRole is used when no role can be inferred.
	DefaultRole sec.Role

	// DenialDelay is how long the denial notice shows before redirecting.
	DenialDelay time.Duration
}

// DefaultPolicy returns the portal's route table.
func DefaultPolicy(denialDelay time.Duration) Policy {
	return Policy{
		Public: []PathMatcher{
			Literal("/"),
			Literal("/about"),
			Literal("/contact"),
			Literal("/pricing"),
			Literal("/faq"),
			Literal("/careers"),
			Literal("/privacy-policy"),
			Literal("/terms-and-conditions"),
			Literal("/verify-email"),
			Pattern(`^/blog(/[a-z0-9-]+)?$`),
			Pattern(`^/(candidate|customer|expert|panelist)/signup$`),
			Pattern(`^/(candidate|customer|expert|panelist|admin)/forgot-password$`),
			Pattern(`^/(candidate|customer|expert|panelist|admin)/reset-password(/[A-Za-z0-9_-]+)?$`),
		},
		Reserved: []string{
			"/api/",
			"/static/",
			"/assets/",
			"/health",
			"/ready",
			"/metrics",
			"/favicon.ico",
			"/robots.txt",
		},
		LoginPages: []PathMatcher{
			Literal("/login"),
			Pattern(`^/[a-z_-]+/login(/verify-otp)?$`),
		},
		Allowed: map[sec.Role][]string{
			sec.RoleCandidate: {"/candidate", "/payment"},
			sec.RoleCustomer:  {"/customer", "/payment"},
			sec.RoleExpert:    {"/expert"},
			sec.RolePanelist:  {"/panelist"},
			sec.RoleAdmin:     {"/admin"},
		},
		Login: map[sec.Role]string{
			sec.RoleCandidate: "/candidate/login",
			sec.RoleCustomer:  "/customer/login",
			sec.RoleExpert:    "/expert/login",
			sec.RolePanelist:  "/panelist/login",
			sec.RoleAdmin:     "/admin/login",
		},
		Dashboard: map[sec.Role]string{
			sec.RoleCandidate: "/candidate/dashboard",
			sec.RoleCustomer:  "/customer/browse-engineers",
			sec.RoleExpert:    "/expert/dashboard",
			sec.RolePanelist:  "/panelist/dashboard",
			sec.RoleAdmin:     "/admin/dashboard",
		},
		DefaultRole: sec.RoleCandidate,
		DenialDelay: denialDelay,
	}
}

// Validate checks the table invariants.
//
// Every role with allowed prefixes needs a login page and a dashboard inside
// its own area, and the default role must have a login page.
func (p Policy) Validate() error {
	var errs []error

	if _, ok := p.Login[p.DefaultRole]; !ok {
		errs = append(errs, fmt.Errorf("guard: default role %q has no login path", p.DefaultRole))
	}

	for role, prefixes := range p.Allowed {
		if !role.Valid() {
			errs = append(errs, fmt.Errorf("guard: unknown role %q in allowed prefixes", role))
			continue
		}
		if len(prefixes) == 0 {
			errs = append(errs, fmt.Errorf("guard: role %q has no allowed prefixes", role))
		}
		if _, ok := p.Login[role]; !ok {
			errs = append(errs, fmt.Errorf("guard: role %q has no login path", role))
		}
		dashboard, ok := p.Dashboard[role]
		if !ok {
			errs = append(errs, fmt.Errorf("guard: role %q has no dashboard", role))
		} else if !p.Allows(role, dashboard) {
			errs = append(errs, fmt.Errorf("guard: dashboard %q is outside the area of role %q", dashboard, role))
		}
	}

	return errors.Join(errs...)
}

// # Classification

// Normalize cleans a request path for classification.
func Normalize(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return path.Clean(raw)
}

// IsPublic reports whether p renders without any check.
func (p Policy) IsPublic(target string) bool {
	for _, prefix := range p.Reserved {
		if hasPathPrefix(target, prefix) {
			return true
		}
	}
	for _, matcher := range p.Public {
		if matcher.Match(target) {
			return true
		}
	}
	return false
}

// IsLoginPage reports whether target is a login screen.
func (p Policy) IsLoginPage(target string) bool {
	for _, matcher := range p.LoginPages {
		if matcher.Match(target) {
			return true
		}
	}
	return false
}

// Allows reports whether role may open target.
//
// Prefixes match on segment boundaries, so /candidate does not admit /candidates.
func (p Policy) Allows(role sec.Role, target string) bool {
	for _, prefix := range p.Allowed[role] {
		if hasPathPrefix(target, prefix) {
			return true
		}
	}
	return false
}

// LoginPath returns the login page of role, falling back to the default role.
func (p Policy) LoginPath(role sec.Role) string {
	if login, ok := p.Login[role]; ok {
		return login
	}
	return p.Login[p.DefaultRole]
}

// DashboardPath returns the dashboard of role, falling back to the default role.
func (p Policy) DashboardPath(role sec.Role) string {
	if dashboard, ok := p.Dashboard[role]; ok {
		return dashboard
	}
	return p.Dashboard[p.DefaultRole]
}

func hasPathPrefix(target, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	return target == prefix || strings.HasPrefix(target, prefix+"/")
}

// leadingSegment returns "expert" for "/expert/dashboard".
func leadingSegment(target string) string {
	trimmed := strings.TrimPrefix(target, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}
