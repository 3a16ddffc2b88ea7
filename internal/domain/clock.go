package domain

import "github.com/jonboulle/clockwork"

// clock is the time source behind Event.DetectedAt. Production code uses the
// real clock; tests inject a fake for deterministic timestamps.
var clock = clockwork.NewRealClock()

// SetClock swaps the detection time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
