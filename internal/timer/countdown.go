// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package timer implements the countdown used by every timed assessment screen.

A [Countdown] is a restartable state machine driven by one discrete event, the
one-second tick. The running ticker only ever calls [Countdown.Tick]; tests can
call Tick directly or advance a [clock.Fake].

# Lifecycle

	New (stopped) ──Start──▶ running ──Tick…──▶ expired (stopped)
	      ▲                    │ Stop                 │
	      └──────Reset─────────┴──────────────────────┘

Close ends the lifecycle for good: the tick is cancelled and no callback is
dispatched afterwards. A non-positive duration yields a disabled countdown that never starts.
*/
package timer

import (
	"fmt"
	"sync"
	"time"

	"github.com/taibuivan/talentgate/internal/platform/clock"
)

const (
	// DefaultWarningThreshold is the warning band in seconds remaining.
	DefaultWarningThreshold = 600

	// CriticalThreshold is the critical band in seconds remaining.
	CriticalThreshold = 300

	// DefaultWarningDisplay is how long ShowWarning stays raised.
	DefaultWarningDisplay = 5 * time.Second

	tickPeriod = time.Second
)

// # Options

type settings struct {
	clock            clock.Clock
	warningThreshold int
	warningDisplay   time.Duration
	onExpire         func()
	onWarning        func()
}

// Option customizes a [Countdown].
type Option func(*settings)

// WithClock injects the time source. Defaults to [clock.Real].
func WithClock(c clock.Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithWarningThreshold sets the warning band in seconds. Negative values keep the default.
func WithWarningThreshold(seconds int) Option {
	return func(s *settings) {
		if seconds >= 0 {
			s.warningThreshold = seconds
		}
	}
}

// WithWarningDisplay sets how long the warning flag stays raised.
func WithWarningDisplay(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.warningDisplay = d
		}
	}
}

// WithOnExpire registers the callback invoked once when the countdown reaches zero.
func WithOnExpire(fn func()) Option {
	return func(s *settings) { s.onExpire = fn }
}

// WithOnWarning registers the callback invoked once per run when the warning band is entered.
func WithOnWarning(fn func()) Option {
	return func(s *settings) { s.onWarning = fn }
}

// # Countdown

// Countdown is a restartable second-resolution countdown.
//
// It is safe for concurrent use. Callbacks run outside the internal lock and
// may call back into the Countdown.
type Countdown struct {
	mu sync.Mutex

	clock            clock.Clock
	warningThreshold int
	warningDisplay   time.Duration
	onExpire         func()
	onWarning        func()

	totalSeconds     int
	secondsRemaining int
	running          bool
	expired          bool
	expiryFired      bool
	warningFired     bool
	showWarning      bool
	closed           bool

	ticker       clock.Stopper
	warningClear clock.Stopper

	// generation invalidates warning-clear callbacks scheduled before a Reset.
	generation uint64
}

// New creates a stopped countdown of totalMinutes.
func New(totalMinutes int, opts ...Option) *Countdown {
	s := settings{
		clock:            clock.Real{},
		warningThreshold: DefaultWarningThreshold,
		warningDisplay:   DefaultWarningDisplay,
	}
	for _, opt := range opts {
		opt(&s)
	}

	total := 0
	if totalMinutes > 0 {
		total = totalMinutes * 60
	}

	return &Countdown{
		clock:            s.clock,
		warningThreshold: s.warningThreshold,
		warningDisplay:   s.warningDisplay,
		onExpire:         s.onExpire,
		onWarning:        s.onWarning,
		totalSeconds:     total,
		secondsRemaining: total,
	}
}

// Start begins decrementing. It reports whether the countdown is running afterwards.
//
// Start is a no-op on a disabled, expired or closed countdown.
func (c *Countdown) Start() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked()
}

func (c *Countdown) startLocked() bool {
	if c.closed || c.expired || c.totalSeconds <= 0 || c.secondsRemaining <= 0 {
		return false
	}
	if c.running {
		return true
	}

	c.running = true
	c.ticker = c.clock.Every(tickPeriod, c.Tick)
	return true
}

// Stop pauses the countdown without resetting it.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTickLocked()
}

func (c *Countdown) stopTickLocked() {
	c.running = false
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

// Reset returns to the full duration, stopped, with expiry and warning re-armed.
func (c *Countdown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.stopTickLocked()
	c.cancelWarningClearLocked()
	c.generation++

	c.secondsRemaining = c.totalSeconds
	c.expired = false
	c.expiryFired = false
	c.warningFired = false
	c.showWarning = false
}

// SetDuration changes the configured duration.
//
// While stopped and not expired, the remaining time is re-seeded and the
// countdown starts. A running countdown keeps its remaining time.
func (c *Countdown) SetDuration(totalMinutes int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	if totalMinutes <= 0 {
		c.stopTickLocked()
		c.totalSeconds = 0
		c.secondsRemaining = 0
		return
	}

	c.totalSeconds = totalMinutes * 60
	if !c.running && !c.expired {
		c.secondsRemaining = c.totalSeconds
		c.startLocked()
	}
}

// Close cancels the tick for good. No callback is dispatched after Close
// returns; one already running when Close is called may still finish, which is
// how a callback can Close its own countdown.
func (c *Countdown) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTickLocked()
	c.cancelWarningClearLocked()
	c.showWarning = false
	c.closed = true
}

// Tick advances the countdown by one second.
//
// Ticks delivered while stopped, expired or closed are ignored, so late ticks
// from a cancelled ticker cannot decrement twice or re-fire expiry.
func (c *Countdown) Tick() {
	var callbacks []func()

	c.mu.Lock()
	if c.closed || !c.running || c.expired {
		c.mu.Unlock()
		return
	}

	c.secondsRemaining--
	if c.secondsRemaining < 0 {
		c.secondsRemaining = 0
	}

	switch {
	case c.secondsRemaining == 0:
		c.stopTickLocked()
		c.expired = true
		if !c.expiryFired {
			c.expiryFired = true
			if c.onExpire != nil {
				callbacks = append(callbacks, c.onExpire)
			}
		}

	case !c.warningFired && c.secondsRemaining <= c.warningThreshold:
		c.warningFired = true
		c.showWarning = true
		generation := c.generation
		c.warningClear = c.clock.AfterFunc(c.warningDisplay, func() { c.clearWarning(generation) })
		if c.onWarning != nil {
			callbacks = append(callbacks, c.onWarning)
		}
	}
	c.mu.Unlock()

	c.dispatch(callbacks)
}

// dispatch runs the callbacks collected by a tick, dropping those that a
// concurrent Close overtook.
func (c *Countdown) dispatch(callbacks []func()) {
	for _, callback := range callbacks {
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()

		if closed {
			return
		}
		callback()
	}
}

func (c *Countdown) clearWarning(generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation == generation {
		c.showWarning = false
		c.warningClear = nil
	}
}

func (c *Countdown) cancelWarningClearLocked() {
	if c.warningClear != nil {
		c.warningClear.Stop()
		c.warningClear = nil
	}
}

// # Observation

// Band classifies the remaining time for display.
type Band string

const (
	BandNormal   Band = "normal"
	BandWarning  Band = "warning"
	BandCritical Band = "critical"
)

// State is a point-in-time view of a [Countdown].
type State struct {
	TotalSeconds            int    `json:"total_seconds"`
	SecondsRemaining        int    `json:"seconds_remaining"`
	Running                 bool   `json:"running"`
	Expired                 bool   `json:"expired"`
	WarningFired            bool   `json:"warning_fired"`
	ShowWarning             bool   `json:"show_warning"`
	WarningThresholdSeconds int    `json:"warning_threshold_seconds"`
	Display                 string `json:"display"`
	Band                    Band   `json:"band"`
}

// Snapshot returns the current state.
func (c *Countdown) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		TotalSeconds:            c.totalSeconds,
		SecondsRemaining:        c.secondsRemaining,
		Running:                 c.running,
		Expired:                 c.expired,
		WarningFired:            c.warningFired,
		ShowWarning:             c.showWarning,
		WarningThresholdSeconds: c.warningThreshold,
		Display:                 Format(c.secondsRemaining),
		Band:                    Classify(c.secondsRemaining, c.warningThreshold),
	}
}

// Format renders seconds as MM:SS. Minutes are not capped at 59.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Classify maps the remaining seconds to a display band.
func Classify(remaining, warningThreshold int) Band {
	switch {
	case remaining <= CriticalThreshold:
		return BandCritical
	case remaining <= warningThreshold:
		return BandWarning
	default:
		return BandNormal
	}
}
