package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimerDriverCountdownFiresExactlyOnce(t *testing.T) {
	var d TimerDriver
	d.Arm(RegimeShared, 3)

	assert.False(t, d.Tick())
	assert.False(t, d.Tick())
	assert.True(t, d.Tick(), "third tick exhausts the countdown")

	// Self-disarmed at zero: repeated ticks stay silent.
	assert.Equal(t, RegimeNone, d.Regime())
	assert.False(t, d.Tick())
	assert.False(t, d.Tick())
}

func TestTimerDriverElapsedCountsUpWithoutExpiry(t *testing.T) {
	var d TimerDriver
	d.Arm(RegimeElapsed, 0)

	for i := 0; i < 100; i++ {
		assert.False(t, d.Tick())
	}
	assert.Equal(t, 100, d.Elapsed())
	assert.Equal(t, 0, d.Remaining())
}

func TestTimerDriverDisarmFreezesValues(t *testing.T) {
	var d TimerDriver
	d.Arm(RegimeShared, 10)
	d.Tick()
	d.Tick()

	d.Disarm()
	assert.Equal(t, RegimeNone, d.Regime())
	assert.Equal(t, 8, d.Remaining(), "remainder survives disarm")
	assert.False(t, d.Tick(), "disarmed clock does not move")
	assert.Equal(t, 8, d.Remaining())
}

func TestTimerDriverElapsedBelongsToSectionNotClock(t *testing.T) {
	var d TimerDriver
	d.Arm(RegimeIndividual, 5)
	d.Tick()
	d.Tick()

	// Re-arming a per-question countdown keeps the section elapsed.
	d.Arm(RegimeIndividual, 5)
	assert.Equal(t, 2, d.Elapsed())
	assert.Equal(t, 5, d.Remaining())

	d.ResetElapsed()
	assert.Equal(t, 0, d.Elapsed())
}

func TestTimerDriverRestoreElapsed(t *testing.T) {
	var d TimerDriver
	d.RestoreElapsed(42)
	assert.Equal(t, 42, d.Elapsed())

	// Non-positive restores are ignored.
	d.RestoreElapsed(0)
	assert.Equal(t, 42, d.Elapsed())
}

func TestTimerDriverSnapshot(t *testing.T) {
	var d TimerDriver
	d.Arm(RegimeAdaptive, 45)
	d.Tick()

	snap := d.Snapshot()
	assert.Equal(t, "adaptive", snap.Regime)
	assert.Equal(t, 44, snap.Remaining)
	assert.Equal(t, 1, snap.Elapsed)
}
