package session

// TimerRegime selects which of the four clocks is live. Exactly one
// regime is armed at any moment; the controller switches regimes
// explicitly on state entry and disarms on state exit, so a stale
// tick can never auto-advance into the wrong question.
type TimerRegime int

const (
	RegimeNone TimerRegime = iota
	// RegimeElapsed counts seconds up from 0 for untimed sections.
	RegimeElapsed
	// RegimeShared counts down one pooled limit for a whole section
	// (knowledge test, shared phase of the aptitude section).
	RegimeShared
	// RegimeIndividual counts down a per-question limit that resets on
	// every question change (early aptitude questions).
	RegimeIndividual
	// RegimeAdaptive counts down the fixed per-question limit of the
	// adaptive aptitude section.
	RegimeAdaptive
)

func (r TimerRegime) String() string {
	switch r {
	case RegimeElapsed:
		return "elapsed"
	case RegimeShared:
		return "shared"
	case RegimeIndividual:
		return "individual"
	case RegimeAdaptive:
		return "adaptive"
	default:
		return "none"
	}
}

// TimerSnapshot is the externally visible timer state.
type TimerSnapshot struct {
	Regime    string `json:"regime"`
	Remaining int    `json:"remaining"`
	Elapsed   int    `json:"elapsed"`
}

// TimerDriver is the single capability behind all four timer regimes.
// It holds no goroutines and no wall clock: Tick is called once per
// simulated or real second by the owner, which makes expiry policies
// unit-testable without interval callbacks.
//
// The countdown value survives Disarm so that section timings can be
// computed from the frozen remainder on intro/complete screens.
type TimerDriver struct {
	regime    TimerRegime
	remaining int
	elapsed   int
}

// Arm switches the driver to the given regime with a fresh countdown.
// Seconds is ignored for RegimeElapsed. The elapsed counter is not
// touched: it belongs to the section, not to the armed clock, and is
// reset separately on section change.
func (d *TimerDriver) Arm(regime TimerRegime, seconds int) {
	d.regime = regime
	if regime == RegimeElapsed || regime == RegimeNone {
		d.remaining = 0
		return
	}
	d.remaining = seconds
}

// Disarm stops the clock but keeps its last values readable.
func (d *TimerDriver) Disarm() {
	d.regime = RegimeNone
}

// ResetElapsed zeroes the section elapsed counter (section change).
func (d *TimerDriver) ResetElapsed() {
	d.elapsed = 0
}

// RestoreElapsed seeds the elapsed counter from a persisted attempt.
func (d *TimerDriver) RestoreElapsed(seconds int) {
	if seconds > 0 {
		d.elapsed = seconds
	}
}

// Tick advances the live clock by one second and reports whether a
// countdown expired on this tick. A countdown fires exactly once: the
// driver disarms itself at zero, so repeated ticks on an expired
// clock stay silent until the controller re-arms.
func (d *TimerDriver) Tick() bool {
	switch d.regime {
	case RegimeNone:
		return false
	case RegimeElapsed:
		d.elapsed++
		return false
	default:
		d.elapsed++
		if d.remaining > 0 {
			d.remaining--
		}
		if d.remaining == 0 {
			d.regime = RegimeNone
			return true
		}
		return false
	}
}

// Regime returns the live regime (RegimeNone when disarmed).
func (d *TimerDriver) Regime() TimerRegime { return d.regime }

// Remaining returns the last countdown value, frozen across Disarm.
func (d *TimerDriver) Remaining() int { return d.remaining }

// Elapsed returns seconds spent in the current section while any
// clock was live.
func (d *TimerDriver) Elapsed() int { return d.elapsed }

// Snapshot returns the externally visible timer state.
func (d *TimerDriver) Snapshot() TimerSnapshot {
	return TimerSnapshot{
		Regime:    d.regime.String(),
		Remaining: d.remaining,
		Elapsed:   d.elapsed,
	}
}
