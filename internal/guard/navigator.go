// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package guard

import (
	"context"
	"sync"
	"time"

	"github.com/taibuivan/talentgate/internal/platform/clock"
	"github.com/taibuivan/talentgate/internal/session"
)

// Renderer performs the visible side effects of the guard.
type Renderer interface {
	ShowLoading(path string)
	Render(path string)
	Redirect(location string)
	Notice(message string)
}

// Navigator drives a [Machine] for a long-lived viewer (a client router or a test).
//
// It owns the hydration grace timer and the delayed denial redirect, and
// cancels both when a newer navigation starts. Renderer calls happen outside
// the internal lock, so a Renderer may call Navigate from Redirect.
type Navigator struct {
	mu       sync.Mutex
	machine  *Machine
	renderer Renderer
	clock    clock.Clock
	grace    time.Duration

	current  session.Session
	hydrated bool
	closed   bool

	graceTimer    clock.Stopper
	redirectTimer clock.Stopper
}

// NewNavigator creates a navigator. A zero grace evaluates only once Hydrated is called.
func NewNavigator(policy Policy, prefs PreferenceReader, renderer Renderer, clk clock.Clock, grace time.Duration) *Navigator {
	return &Navigator{
		machine:  NewMachine(policy, prefs),
		renderer: renderer,
		clock:    clk,
		grace:    grace,
	}
}

// State returns the machine state of the current navigation.
func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.machine.State()
}

// Navigate starts a guard check for target.
func (n *Navigator) Navigate(ctx context.Context, target string) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}

	stop(&n.graceTimer)
	effects := n.machine.Handle(ctx, Navigate{Path: target})

	switch {
	case n.machine.State() != StateChecking:
	case n.hydrated:
		effects = append(effects, n.machine.Handle(ctx, Hydrated{Session: n.current})...)
	case n.grace > 0:
		seq := n.machine.Seq()
		n.graceTimer = n.clock.AfterFunc(n.grace, func() { n.graceElapsed(ctx, seq) })
	}

	visible := n.schedule(ctx, effects)
	n.mu.Unlock()

	n.deliver(visible)
}

// Hydrated records the loaded session and resolves a pending check.
func (n *Navigator) Hydrated(ctx context.Context, current session.Session) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}

	n.current = current
	n.hydrated = true
	stop(&n.graceTimer)

	visible := n.schedule(ctx, n.machine.Handle(ctx, Hydrated{Session: current}))
	n.mu.Unlock()

	n.deliver(visible)
}

// Close cancels all pending timers. Later calls are ignored.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = true
	stop(&n.graceTimer)
	stop(&n.redirectTimer)
}

func (n *Navigator) graceElapsed(ctx context.Context, seq uint64) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}

	visible := n.schedule(ctx, n.machine.Handle(ctx, GraceElapsed{Session: n.current, Seq: seq}))
	n.mu.Unlock()

	n.deliver(visible)
}

func (n *Navigator) redirectDue(ctx context.Context, seq uint64) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}

	n.redirectTimer = nil
	visible := n.schedule(ctx, n.machine.Handle(ctx, RedirectDue{Seq: seq}))
	n.mu.Unlock()

	n.deliver(visible)
}

// schedule consumes timer effects and returns the visible ones. Caller holds mu.
func (n *Navigator) schedule(ctx context.Context, effects []Effect) []Effect {
	visible := effects[:0:0]
	for _, effect := range effects {
		switch effect.Kind {
		case EffectCancelRedirect:
			stop(&n.redirectTimer)
		case EffectScheduleRedirect:
			stop(&n.redirectTimer)
			seq := effect.Seq
			n.redirectTimer = n.clock.AfterFunc(effect.Delay, func() { n.redirectDue(ctx, seq) })
		default:
			visible = append(visible, effect)
		}
	}
	return visible
}

func (n *Navigator) deliver(effects []Effect) {
	for _, effect := range effects {
		switch effect.Kind {
		case EffectShowLoading:
			n.renderer.ShowLoading(effect.Path)
		case EffectRender:
			n.renderer.Render(effect.Path)
		case EffectNotice:
			n.renderer.Notice(effect.Notice)
		case EffectRedirect:
			n.renderer.Redirect(effect.Location)
		}
	}
}

func stop(timer *clock.Stopper) {
	if *timer != nil {
		(*timer).Stop()
		*timer = nil
	}
}
