// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guard

import (
	"context"
	"time"

	"github.com/taibuivan/talentgate/internal/session"
)

// # States

// State is the guard state of the current navigation.
type State int

const (
	// StateChecking shows a neutral loading view until the session is known.
	StateChecking State = iota
	StateAllowed
	StateDeniedRedirecting
	StateAnonymousRedirecting
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAllowed:
		return "allowed"
	case StateDeniedRedirecting:
		return "denied_redirecting"
	case StateAnonymousRedirecting:
		return "anonymous_redirecting"
	default:
		return "unknown"
	}
}

// # Events

// Event is an input to [Machine.Handle].
type Event interface {
	event()
}

// Navigate starts a new navigation to Path.
type Navigate struct {
	Path string
}

// Hydrated reports that the session finished loading.
type Hydrated struct {
	Session session.Session
}

// GraceElapsed reports that the hydration grace period of navigation Seq ran out.
//
// Session is whatever was known at that moment.
type GraceElapsed struct {
	Session session.Session
	Seq     uint64
}

// RedirectDue reports that the delayed redirect scheduled for navigation Seq is due.
type RedirectDue struct {
	Seq uint64
}

func (Navigate) event()     {}
func (Hydrated) event()     {}
func (GraceElapsed) event() {}
func (RedirectDue) event()  {}

// # Effects

// EffectKind names a side effect requested by the machine.
type EffectKind int

const (
	EffectShowLoading EffectKind = iota
	EffectRender
	EffectRedirect
	EffectNotice
	EffectScheduleRedirect
	EffectCancelRedirect
)

// Effect is a side effect the host must perform.
type Effect struct {
	Kind     EffectKind
	Path     string
	Location string
	Notice   string
	Delay    time.Duration
	Seq      uint64
}

// # Machine

// Machine is the guard state machine for one viewer.
//
// It is not safe for concurrent use; [Navigator] and [Middleware] serialize events.
type Machine struct {
	policy Policy
	prefs  PreferenceReader

	state     State
	path      string
	seq       uint64
	evaluated bool
	pending   bool
	decision  Decision
}

// NewMachine creates a machine in [StateChecking] with no navigation yet.
func NewMachine(policy Policy, prefs PreferenceReader) *Machine {
	return &Machine{policy: policy, prefs: prefs}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Seq returns the sequence number of the current navigation.
func (m *Machine) Seq() uint64 { return m.seq }

// Decision returns the decision of the current navigation, once evaluated.
func (m *Machine) Decision() (Decision, bool) { return m.decision, m.evaluated }

// Handle applies one event and returns the effects to perform, in order.
func (m *Machine) Handle(ctx context.Context, ev Event) []Effect {
	switch ev := ev.(type) {
	case Navigate:
		return m.navigate(ctx, ev.Path)
	case Hydrated:
		return m.evaluate(ctx, ev.Session)
	case GraceElapsed:
		if ev.Seq != m.seq {
			return nil
		}
		return m.evaluate(ctx, ev.Session)
	case RedirectDue:
		return m.redirectDue(ev.Seq)
	default:
		return nil
	}
}

func (m *Machine) navigate(ctx context.Context, target string) []Effect {
	var effects []Effect

	// A newer navigation supersedes any delayed redirect
	if m.pending {
		effects = append(effects, Effect{Kind: EffectCancelRedirect, Seq: m.seq})
		m.pending = false
	}

	m.seq++
	m.path = Normalize(target)
	m.state = StateChecking
	m.evaluated = false
	m.decision = Decision{}

	// Public paths never depend on the session
	if m.policy.IsPublic(m.path) {
		m.decision = Evaluate(ctx, m.policy, m.path, session.Anonymous(), nil)
		m.evaluated = true
		m.state = StateAllowed
		return append(effects, Effect{Kind: EffectRender, Path: m.path, Seq: m.seq})
	}

	return append(effects, Effect{Kind: EffectShowLoading, Path: m.path, Seq: m.seq})
}

func (m *Machine) evaluate(ctx context.Context, current session.Session) []Effect {
	if m.seq == 0 || m.evaluated || m.state != StateChecking {
		return nil
	}

	decision := Evaluate(ctx, m.policy, m.path, current, m.prefs)
	m.decision = decision
	m.evaluated = true

	switch decision.Kind {
	case KindRedirectLogin:
		m.state = StateAnonymousRedirecting
		return []Effect{{Kind: EffectRedirect, Path: m.path, Location: decision.Location, Seq: m.seq}}

	case KindRedirectDashboard:
		m.state = StateDeniedRedirecting
		notice := Effect{Kind: EffectNotice, Path: m.path, Notice: decision.Notice, Seq: m.seq}
		if decision.Delay <= 0 {
			return []Effect{notice, {Kind: EffectRedirect, Path: m.path, Location: decision.Location, Seq: m.seq}}
		}
		m.pending = true
		return []Effect{notice, {
			Kind:     EffectScheduleRedirect,
			Path:     m.path,
			Location: decision.Location,
			Delay:    decision.Delay,
			Seq:      m.seq,
		}}

	default:
		m.state = StateAllowed
		return []Effect{{Kind: EffectRender, Path: m.path, Seq: m.seq}}
	}
}

func (m *Machine) redirectDue(seq uint64) []Effect {
	if !m.pending || seq != m.seq || m.state != StateDeniedRedirecting {
		return nil
	}
	m.pending = false
	return []Effect{{Kind: EffectRedirect, Path: m.path, Location: m.decision.Location, Seq: seq}}
}
