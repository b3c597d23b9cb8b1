package exercise

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/repcount/internal/pose"
)

// Feedback shared by every detector.
const (
	FeedbackIncomplete    = "Incomplete view - step into the frame"
	FeedbackLowVisibility = "Low visibility - improve lighting or move closer"
	FeedbackDegenerate    = "Unable to measure pose"
	FeedbackTooFast       = "Too fast - slow down"
)

// ErrLowConfidence is matched by every LowConfidenceError.
var ErrLowConfidence = errors.New("low confidence")

// LowConfidenceError reports a sample whose joints were all present but
// whose average visibility was too low to trust.
type LowConfidenceError struct {
	Average float64
	Min     float64
}

func (e *LowConfidenceError) Error() string {
	return fmt.Sprintf("low confidence: average visibility %.2f below %.2f", e.Average, e.Min)
}

// Is makes errors.Is(err, ErrLowConfidence) hold.
func (e *LowConfidenceError) Is(target error) bool {
	return target == ErrLowConfidence
}

// Detector is a repetition state machine for one exercise.
type Detector interface {
	// Kind returns the exercise this detector counts.
	Kind() Kind

	// Step consumes one sample and returns the successor state and the
	// outcome. Skipped samples return st unchanged. Step never fails and
	// never blocks; sample timestamps drive the cooldown.
	Step(st State, s pose.Sample) (State, Outcome)
}

// Outcome describes what one sample did to a detector.
type Outcome struct {
	Kind         Kind    `json:"exercise"`
	Phase        Phase   `json:"phase"`
	Transitioned bool    `json:"transitioned"`
	RepDelta     int     `json:"rep_delta"`
	Count        int     `json:"count"`
	Suppressed   bool    `json:"suppressed,omitempty"`
	Feedback     string  `json:"feedback"`
	Signal       float64 `json:"signal"`
	Secondary    float64 `json:"secondary,omitempty"`
	Smoothed     float64 `json:"smoothed"`
	// Jitter is the standard deviation of the recent signal values.
	Jitter float64 `json:"jitter"`
	// Skipped is set when the sample was a no-op.
	Skipped error `json:"-"`
}

// reading is what a detector measured in one sample.
type reading struct {
	signal    float64
	secondary float64
	arm       bool
	complete  bool
}

// event is the kind of transition a sample caused.
type event int

const (
	eventNone event = iota
	eventArmed
	eventRep
	eventSuppressed
)

// machine is the state machine shared by all detectors. From any phase other
// than armed it moves to armed when the arm rule holds. From armed it moves
// to done once the completion rule has held for confirm consecutive frames,
// counting a rep if the cooldown allows.
type machine struct {
	kind     Kind
	armed    Phase
	done     Phase
	cooldown Cooldown
	confirm  int

	minJoint float64
	minAvg   float64
	joints   []pose.Landmark

	measure  func(joints []pose.Joint) (reading, error)
	feedback func(st State, r reading, ev event) string
}

func (m *machine) Kind() Kind {
	return m.kind
}

func (m *machine) Step(st State, s pose.Sample) (State, Outcome) {
	joints, err := s.Require(m.minJoint, m.joints...)
	if err != nil {
		return st, m.skip(st, err, FeedbackIncomplete)
	}

	if avg := pose.AverageVisibility(joints); avg < m.minAvg {
		return st, m.skip(st, &LowConfidenceError{Average: avg, Min: m.minAvg}, FeedbackLowVisibility)
	}

	r, err := m.measure(joints)
	if err != nil {
		return st, m.skip(st, err, FeedbackDegenerate)
	}

	now := s.Timestamp
	next := st
	next.History.Push(r.signal)
	ev := eventNone

	switch {
	case next.Phase != m.armed:
		next.pending = 0
		if r.arm {
			next = m.transition(next, m.armed, now)
			ev = eventArmed
		}
	case r.complete:
		next.pending++
		if next.pending >= m.confirm {
			next.pending = 0
			next = m.transition(next, m.done, now)
			if m.cooldown.Allows(next, now) {
				next.Count++
				next = m.cooldown.Arm(next, now)
				ev = eventRep
			} else {
				ev = eventSuppressed
			}
		}
	default:
		next.pending = 0
	}

	out := Outcome{
		Kind:         m.kind,
		Phase:        next.Phase,
		Transitioned: next.Phase != st.Phase,
		Count:        next.Count,
		Suppressed:   ev == eventSuppressed,
		Signal:       r.signal,
		Secondary:    r.secondary,
		Smoothed:     next.History.Mean(),
		Jitter:       next.History.StdDev(),
	}
	if ev == eventRep {
		out.RepDelta = 1
	}
	if ev == eventSuppressed {
		out.Feedback = FeedbackTooFast
	} else {
		out.Feedback = m.feedback(next, r, ev)
	}
	return next, out
}

func (m *machine) transition(st State, to Phase, now time.Time) State {
	st.Phase = to
	st.LastTransition = now
	return st
}

func (m *machine) skip(st State, err error, feedback string) Outcome {
	return Outcome{
		Kind:     m.kind,
		Phase:    st.Phase,
		Count:    st.Count,
		Feedback: feedback,
		Smoothed: st.History.Mean(),
		Jitter:   st.History.StdDev(),
		Skipped:  err,
	}
}

var constructors = map[Kind]func(Thresholds) Detector{
	KindSquat:       NewSquat,
	KindPushup:      NewPushup,
	KindJumpingJack: NewJumpingJack,
	KindCrunch:      newCrunchVariant,
	KindCurl:        NewCurl,
}

// New builds the detector for kind.
func New(kind Kind, t Thresholds) (Detector, error) {
	ctor, ok := constructors[kind]
	if !ok {
		return nil, fmt.Errorf("unknown exercise %q", kind)
	}
	return ctor(t), nil
}
