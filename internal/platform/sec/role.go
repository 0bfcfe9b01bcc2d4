// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"strings"

	"golang.org/x/text/cases"
)

// # User Roles

// Role is the canonical account type that decides which areas of the portal are reachable.
//
// External strings (cookies, URL segments, backend payloads) must pass through
// [ParseRole] before they become a Role; alias spellings never travel further.
type Role string

const (
	// Job seekers taking assessments (historically also called "engineer")
	RoleCandidate Role = "candidate"

	// Hiring companies browsing vetted engineers
	RoleCustomer Role = "customer"

	// Subject-matter experts offering mentorship
	RoleExpert Role = "expert"

	// Interview panel members
	RolePanelist Role = "panelist"

	// Platform operators
	RoleAdmin Role = "admin"
)

// Roles lists every canonical role in a stable order.
var Roles = []Role{RoleCandidate, RoleCustomer, RoleExpert, RolePanelist, RoleAdmin}

// # Normalization

// aliases maps folded spellings seen in storage, URLs and payloads to canonical roles.
var aliases = map[string]Role{
	"candidate":       RoleCandidate,
	"engineer":        RoleCandidate,
	"customer":        RoleCustomer,
	"expert":          RoleExpert,
	"panelist":        RolePanelist,
	"panel":           RolePanelist,
	"interview_panel": RolePanelist,
	"interview-panel": RolePanelist,
	"interviewpanel":  RolePanelist,
	"admin":           RoleAdmin,
}

// ParseRole converts an external string into a canonical [Role].
//
// Matching is case-insensitive and tolerant of surrounding whitespace.
// The boolean is false when the string names no known role.
func ParseRole(raw string) (Role, bool) {
	// Casers are stateful, so each call gets its own.
	key := cases.Fold().String(strings.TrimSpace(raw))
	role, ok := aliases[key]
	return role, ok
}

// Valid reports whether r is one of the canonical roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCandidate, RoleCustomer, RoleExpert, RolePanelist, RoleAdmin:
		return true
	default:
		return false
	}
}

// String implements [fmt.Stringer].
func (r Role) String() string { return string(r) }
