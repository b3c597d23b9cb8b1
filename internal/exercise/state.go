package exercise

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// HistorySize is the number of recent signal values kept per detector.
const HistorySize = 10

// Phase is the position of an exercise within a repetition.
type Phase string

const (
	PhaseReady Phase = "ready"
	PhaseDown  Phase = "down"
	PhaseUp    Phase = "up"
	PhaseOut   Phase = "out"
)

// State is the retained state of one detector. It is a plain value:
// detectors take it by value and return the successor.
type State struct {
	Phase          Phase
	Count          int
	LastTransition time.Time
	CooldownUntil  time.Time
	History        History

	// pending counts consecutive frames satisfying a completion rule that
	// needs more than one frame of confirmation.
	pending int
}

// NewState returns the initial detector state.
func NewState() State {
	return State{Phase: PhaseReady}
}

// CooldownActive reports whether a completed rep at now would be suppressed.
func (s State) CooldownActive(now time.Time) bool {
	return now.Before(s.CooldownUntil)
}

// History is a fixed-capacity ring of the most recent signal values.
// The zero value is empty and ready to use.
type History struct {
	buf   [HistorySize]float64
	start int
	n     int
}

// Push appends v, dropping the oldest value when full.
func (h *History) Push(v float64) {
	if h.n < HistorySize {
		h.buf[(h.start+h.n)%HistorySize] = v
		h.n++
		return
	}
	h.buf[h.start] = v
	h.start = (h.start + 1) % HistorySize
}

// Len returns the number of stored values.
func (h History) Len() int {
	return h.n
}

// Values returns the stored values, oldest first.
func (h History) Values() []float64 {
	out := make([]float64, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.buf[(h.start+i)%HistorySize]
	}
	return out
}

// Last returns the newest value, or false when empty.
func (h History) Last() (float64, bool) {
	if h.n == 0 {
		return 0, false
	}
	return h.buf[(h.start+h.n-1)%HistorySize], true
}

// Mean returns the average of the stored values, or 0 when empty.
func (h History) Mean() float64 {
	if h.n == 0 {
		return 0
	}
	return stat.Mean(h.Values(), nil)
}

// StdDev returns the sample standard deviation, or 0 with fewer than two values.
func (h History) StdDev() float64 {
	if h.n < 2 {
		return 0
	}
	return stat.StdDev(h.Values(), nil)
}
