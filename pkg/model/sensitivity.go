package model

// Sensitivity carries a probe's de-flapping knobs: a reason must be
// reported at least MinFailures times within FailureWindow seconds
// before the filter will surface it. Mute suppresses the probe's
// reports from ever reaching the filter at all.
type Sensitivity struct {
	MinFailures   int
	FailureWindow int // seconds
	Mute          bool
}

// DefaultSensitivity matches simplomon's Checker defaults
// (original_source/simplomon.hh: d_minfailures=1, d_failurewin=60).
func DefaultSensitivity() Sensitivity {
	return Sensitivity{MinFailures: 1, FailureWindow: 60}
}
