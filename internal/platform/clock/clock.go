// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package clock abstracts wall time and scheduled callbacks.

Countdowns, guard grace periods and delayed redirects are all expressed as
callbacks on a [Clock], so they can be driven deterministically by [Fake]
in tests while production uses [Real].

Both implementations deliver a periodic callback from a single scheduling
source, so at most one tick of a given [Clock.Every] registration is in
flight at any moment.
*/
package clock

import (
	"sync"
	"time"
)

// Stopper cancels a scheduled callback. Stop is idempotent.
type Stopper interface {
	Stop()
}

// Clock is the time source injected into time-dependent components.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f once after d has elapsed.
	AfterFunc(d time.Duration, f func()) Stopper

	// Every calls f each time the period elapses until stopped.
	Every(period time.Duration, f func()) Stopper
}

// # Real Clock

// Real is the production [Clock] backed by the runtime timers.
type Real struct{}

// Now returns [time.Now].
func (Real) Now() time.Time { return time.Now() }

// AfterFunc wraps [time.AfterFunc].
func (Real) AfterFunc(d time.Duration, f func()) Stopper {
	return realTimer{timer: time.AfterFunc(d, f)}
}

// Every runs f on a dedicated goroutine driven by a [time.Ticker].
func (Real) Every(period time.Duration, f func()) Stopper {
	ticker := time.NewTicker(period)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				f()
			case <-done:
				return
			}
		}
	}()

	return &realTicker{done: done}
}

type realTimer struct {
	timer *time.Timer
}

func (t realTimer) Stop() { t.timer.Stop() }

type realTicker struct {
	once sync.Once
	done chan struct{}
}

func (t *realTicker) Stop() {
	t.once.Do(func() { close(t.done) })
}
