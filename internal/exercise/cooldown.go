package exercise

import "time"

// Cooldown is the minimum interval between two counted reps of the same
// detector. It is checked lazily against sample timestamps; nothing clears it
// on a timer.
type Cooldown struct {
	Duration time.Duration
}

// Allows reports whether a rep completed at now may be counted.
func (c Cooldown) Allows(st State, now time.Time) bool {
	return !st.CooldownActive(now)
}

// Arm starts the cooldown window at now.
func (c Cooldown) Arm(st State, now time.Time) State {
	st.CooldownUntil = now.Add(c.Duration)
	return st
}
