// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package timer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/talentgate/internal/platform/clock"
	"github.com/taibuivan/talentgate/internal/timer"
)

var epoch = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type counters struct {
	expired int
	warned  int
}

func newCountdown(t *testing.T, minutes int, opts ...timer.Option) (*timer.Countdown, *clock.Fake, *counters) {
	t.Helper()
	fake := clock.NewFake(epoch)
	calls := &counters{}
	base := []timer.Option{
		timer.WithClock(fake),
		timer.WithOnExpire(func() { calls.expired++ }),
		timer.WithOnWarning(func() { calls.warned++ }),
	}
	return timer.New(minutes, append(base, opts...)...), fake, calls
}

/*
TestCountdown_RunsToExpiry verifies that N*60 ticks expire the countdown exactly once.
*/
func TestCountdown_RunsToExpiry(t *testing.T) {
	countdown, fake, calls := newCountdown(t, 2)

	require.True(t, countdown.Start())
	fake.Advance(120 * time.Second)

	state := countdown.Snapshot()
	assert.Equal(t, 0, state.SecondsRemaining)
	assert.True(t, state.Expired)
	assert.False(t, state.Running)
	assert.Equal(t, 1, calls.expired)

	// Late ticks, from the clock or delivered directly, change nothing.
	fake.Advance(30 * time.Second)
	countdown.Tick()
	countdown.Tick()
	assert.Equal(t, 1, calls.expired)
	assert.Equal(t, 0, countdown.Snapshot().SecondsRemaining)
}

/*
TestCountdown_DirectTicks verifies the pure tick event without a running clock source.
*/
func TestCountdown_DirectTicks(t *testing.T) {
	countdown, fake, calls := newCountdown(t, 1, timer.WithWarningThreshold(0))
	require.True(t, countdown.Start())

	for i := 0; i < 60; i++ {
		countdown.Tick()
	}

	assert.True(t, countdown.Snapshot().Expired)
	assert.Equal(t, 1, calls.expired)
	assert.Equal(t, 0, fake.Pending(), "expiry cancels the periodic tick")
}

/*
TestCountdown_WarningFiresOnceAndClears verifies the one-shot warning and its display window.
*/
func TestCountdown_WarningFiresOnceAndClears(t *testing.T) {
	countdown, fake, calls := newCountdown(t, 15)
	require.True(t, countdown.Start())

	fake.Advance(299 * time.Second)
	assert.Equal(t, 0, calls.warned)
	assert.Equal(t, timer.BandNormal, countdown.Snapshot().Band)

	fake.Advance(time.Second)
	state := countdown.Snapshot()
	assert.Equal(t, 600, state.SecondsRemaining)
	assert.Equal(t, 1, calls.warned)
	assert.True(t, state.ShowWarning)
	assert.True(t, state.WarningFired)
	assert.Equal(t, timer.BandWarning, state.Band)

	fake.Advance(timer.DefaultWarningDisplay)
	state = countdown.Snapshot()
	assert.False(t, state.ShowWarning, "warning flag clears itself")
	assert.True(t, state.Running, "warning never stops the countdown")

	fake.Advance(10 * time.Minute)
	assert.Equal(t, 1, calls.warned)
	assert.Equal(t, 1, calls.expired)
}

/*
TestCountdown_ShortRunWarnsOnFirstTick verifies that a run starting inside the band warns immediately.
*/
func TestCountdown_ShortRunWarnsOnFirstTick(t *testing.T) {
	countdown, fake, calls := newCountdown(t, 5)
	require.True(t, countdown.Start())

	fake.Advance(time.Second)
	assert.Equal(t, 1, calls.warned)
	assert.Equal(t, timer.BandCritical, countdown.Snapshot().Band)
}

/*
TestCountdown_CustomThreshold verifies the configurable warning band.
*/
func TestCountdown_CustomThreshold(t *testing.T) {
	countdown, fake, calls := newCountdown(t, 2, timer.WithWarningThreshold(30))
	require.True(t, countdown.Start())

	fake.Advance(89 * time.Second)
	assert.Equal(t, 0, calls.warned)

	fake.Advance(time.Second)
	assert.Equal(t, 1, calls.warned)
	assert.Equal(t, 30, countdown.Snapshot().WarningThresholdSeconds)
}

/*
TestCountdown_StopAndResume verifies that Stop pauses without resetting.
*/
func TestCountdown_StopAndResume(t *testing.T) {
	countdown, fake, _ := newCountdown(t, 1)
	require.True(t, countdown.Start())

	fake.Advance(10 * time.Second)
	countdown.Stop()
	fake.Advance(10 * time.Second)

	state := countdown.Snapshot()
	assert.Equal(t, 50, state.SecondsRemaining)
	assert.False(t, state.Running)

	require.True(t, countdown.Start())
	fake.Advance(5 * time.Second)
	assert.Equal(t, 45, countdown.Snapshot().SecondsRemaining)
}

/*
TestCountdown_Reset verifies the post-reset invariants and that expiry re-arms.
*/
func TestCountdown_Reset(t *testing.T) {
	countdown, fake, calls := newCountdown(t, 1)
	require.True(t, countdown.Start())
	fake.Advance(time.Minute)
	require.True(t, countdown.Snapshot().Expired)

	// Start after expiry is a no-op until reset.
	assert.False(t, countdown.Start())

	countdown.Reset()
	state := countdown.Snapshot()
	assert.Equal(t, 60, state.SecondsRemaining)
	assert.False(t, state.Expired)
	assert.False(t, state.Running)
	assert.False(t, state.WarningFired)
	assert.False(t, state.ShowWarning)

	require.True(t, countdown.Start())
	fake.Advance(time.Minute)
	assert.Equal(t, 2, calls.expired)
	assert.Equal(t, 2, calls.warned)
}

/*
TestCountdown_ResetDropsStaleWarningClear verifies a warning raised after reset keeps its full window.
*/
func TestCountdown_ResetDropsStaleWarningClear(t *testing.T) {
	countdown, fake, _ := newCountdown(t, 1, timer.WithWarningThreshold(59))
	require.True(t, countdown.Start())
	fake.Advance(time.Second)
	require.True(t, countdown.Snapshot().ShowWarning)

	countdown.Reset()
	require.True(t, countdown.Start())
	fake.Advance(time.Second)
	require.True(t, countdown.Snapshot().ShowWarning)

	fake.Advance(4 * time.Second)
	assert.True(t, countdown.Snapshot().ShowWarning)
	fake.Advance(time.Second)
	assert.False(t, countdown.Snapshot().ShowWarning)
}

/*
TestCountdown_Disabled verifies that non-positive durations never start.
*/
func TestCountdown_Disabled(t *testing.T) {
	for _, minutes := range []int{0, -5} {
		countdown, fake, calls := newCountdown(t, minutes)
		assert.False(t, countdown.Start())
		fake.Advance(time.Hour)

		state := countdown.Snapshot()
		assert.False(t, state.Running)
		assert.False(t, state.Expired)
		assert.Equal(t, 0, calls.expired)
	}
}

/*
TestCountdown_SetDuration verifies re-seeding while stopped and the running exemption.
*/
func TestCountdown_SetDuration(t *testing.T) {
	countdown, fake, _ := newCountdown(t, 0)
	countdown.SetDuration(2)

	state := countdown.Snapshot()
	assert.Equal(t, 120, state.SecondsRemaining)
	assert.True(t, state.Running, "re-seeding auto-starts")

	fake.Advance(10 * time.Second)
	countdown.SetDuration(5)
	state = countdown.Snapshot()
	assert.Equal(t, 300, state.TotalSeconds)
	assert.Equal(t, 110, state.SecondsRemaining, "a running countdown keeps its remaining time")

	countdown.SetDuration(-1)
	assert.False(t, countdown.Snapshot().Running)
	assert.False(t, countdown.Start())
}

/*
TestCountdown_CloseCancelsEverything verifies unmount semantics.
*/
func TestCountdown_CloseCancelsEverything(t *testing.T) {
	countdown, fake, calls := newCountdown(t, 11)
	require.True(t, countdown.Start())
	fake.Advance(61 * time.Second)
	require.Equal(t, 1, calls.warned)

	countdown.Close()
	assert.Equal(t, 0, fake.Pending())

	fake.Advance(time.Hour)
	countdown.Tick()
	assert.Equal(t, 0, calls.expired)
	assert.False(t, countdown.Start())
	assert.False(t, countdown.Snapshot().ShowWarning)
}

/*
TestCountdown_CallbackMayReenter verifies callbacks run outside the lock.
*/
func TestCountdown_CallbackMayReenter(t *testing.T) {
	fake := clock.NewFake(epoch)
	var seen timer.State
	var countdown *timer.Countdown
	countdown = timer.New(1, timer.WithClock(fake), timer.WithOnExpire(func() {
		seen = countdown.Snapshot()
		countdown.Close()
	}))

	require.True(t, countdown.Start())
	fake.Advance(time.Minute)
	assert.True(t, seen.Expired)
}

/*
TestFormat verifies MM:SS rendering.
*/
func TestFormat(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{9, "00:09"},
		{61, "01:01"},
		{600, "10:00"},
		{5999, "99:59"},
		{7200, "120:00"},
		{-3, "00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, timer.Format(tt.seconds))
	}
}

/*
TestClassify verifies the three display bands.
*/
func TestClassify(t *testing.T) {
	assert.Equal(t, timer.BandCritical, timer.Classify(0, 600))
	assert.Equal(t, timer.BandCritical, timer.Classify(300, 600))
	assert.Equal(t, timer.BandWarning, timer.Classify(301, 600))
	assert.Equal(t, timer.BandWarning, timer.Classify(600, 600))
	assert.Equal(t, timer.BandNormal, timer.Classify(601, 600))
}
