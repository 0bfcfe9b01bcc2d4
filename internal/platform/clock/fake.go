// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manually advanced [Clock].
//
// Callbacks run synchronously inside [Fake.Advance], in due-time order,
// on the goroutine that called Advance.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	nextID  int
	entries map[int]*fakeEntry
}

type fakeEntry struct {
	id     int
	due    time.Time
	period time.Duration
	fn     func()
}

// NewFake returns a Fake clock set to start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start, entries: make(map[int]*fakeEntry)}
}

// Now returns the fake's current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc schedules fn once, d after the current fake time.
func (f *Fake) AfterFunc(d time.Duration, fn func()) Stopper {
	return f.schedule(d, 0, fn)
}

// Every schedules fn every period.
func (f *Fake) Every(period time.Duration, fn func()) Stopper {
	return f.schedule(period, period, fn)
}

// Pending reports how many callbacks are still scheduled.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// Advance moves time forward by d, firing every callback that falls due.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		entry := f.nextDue(target)
		if entry == nil {
			f.now = target
			f.mu.Unlock()
			return
		}

		f.now = entry.due
		if entry.period > 0 {
			entry.due = entry.due.Add(entry.period)
		} else {
			delete(f.entries, entry.id)
		}
		fn := entry.fn
		f.mu.Unlock()

		fn()
	}
}

// nextDue returns the earliest entry due at or before target. Caller holds mu.
func (f *Fake) nextDue(target time.Time) *fakeEntry {
	candidates := make([]*fakeEntry, 0, len(f.entries))
	for _, entry := range f.entries {
		if !entry.due.After(target) {
			candidates = append(candidates, entry)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].due.Equal(candidates[j].due) {
			return candidates[i].id < candidates[j].id
		}
		return candidates[i].due.Before(candidates[j].due)
	})
	return candidates[0]
}

func (f *Fake) schedule(d, period time.Duration, fn func()) Stopper {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	entry := &fakeEntry{id: f.nextID, due: f.now.Add(d), period: period, fn: fn}
	f.entries[entry.id] = entry

	return fakeStopper{clock: f, id: entry.id}
}

type fakeStopper struct {
	clock *Fake
	id    int
}

func (s fakeStopper) Stop() {
	s.clock.mu.Lock()
	defer s.clock.mu.Unlock()
	delete(s.clock.entries, s.id)
}
