// Package session tracks one workout: the active exercise, a detector and
// retained state per exercise, and the stream of rep and phase events.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/repcount/internal/exercise"
	"github.com/ayusman/repcount/internal/metrics"
	"github.com/ayusman/repcount/internal/pose"
)

// EventType names what happened in a session.
type EventType string

const (
	EventRep     EventType = "rep"
	EventPhase   EventType = "phase"
	EventReset   EventType = "reset"
	EventSelect  EventType = "select"
	EventRestart EventType = "restart"
)

// Event is published to subscribers.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	SessionID uuid.UUID      `json:"session_id"`
	Type      EventType      `json:"type"`
	Kind      exercise.Kind  `json:"exercise"`
	Phase     exercise.Phase `json:"phase"`
	Count     int            `json:"count"`
	Feedback  string         `json:"feedback,omitempty"`
	At        time.Time      `json:"at"`
}

// Clock supplies the time for samples that carry none.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds the settings for a new Session.
type Config struct {
	Thresholds exercise.Thresholds
	// Initial is the exercise selected at start. Defaults to squat.
	Initial exercise.Kind
	Log     *log.Entry
	Metrics *metrics.Manager
	Clock   Clock
}

type tracker struct {
	detector exercise.Detector
	state    exercise.State
}

type subscriber struct {
	id int
	fn func(Event)
}

// Session routes samples to the active exercise's detector. Its methods are
// safe for concurrent use; subscribers run on the caller's goroutine after
// the session lock is released, and see events in the order they happened.
// A subscriber may read the session but must not call Process, Select,
// Reset or Restart.
type Session struct {
	// pub is held from building an event until its subscribers return, so
	// concurrent producers cannot reorder events. It is taken before mu.
	pub sync.Mutex

	mu       sync.Mutex
	id       uuid.UUID
	active   exercise.Kind
	trackers map[exercise.Kind]*tracker
	feedback string

	subs    []subscriber
	nextSub int

	log     *log.Entry
	metrics *metrics.Manager
	clock   Clock
}

// New validates cfg and builds a session with every exercise in its
// initial state.
func New(cfg Config) (*Session, error) {
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid thresholds: %w", err)
	}
	if cfg.Initial == "" {
		cfg.Initial = exercise.KindSquat
	}
	if !cfg.Initial.Valid() {
		return nil, fmt.Errorf("unknown exercise %q", cfg.Initial)
	}
	if cfg.Log == nil {
		cfg.Log = log.NewEntry(log.StandardLogger())
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewManager("repcount", "session", prometheus.NewRegistry())
	}
	if cfg.Clock == nil {
		cfg.Clock = realClock{}
	}

	trackers := make(map[exercise.Kind]*tracker, len(exercise.Kinds()))
	for _, k := range exercise.Kinds() {
		d, err := exercise.New(k, cfg.Thresholds)
		if err != nil {
			return nil, err
		}
		trackers[k] = &tracker{detector: d, state: exercise.NewState()}
	}

	s := &Session{
		id:       uuid.New(),
		active:   cfg.Initial,
		trackers: trackers,
		metrics:  cfg.Metrics,
		clock:    cfg.Clock,
	}
	s.log = cfg.Log.WithField("session", s.id.String())
	return s, nil
}

// ID returns the current session ID.
func (s *Session) ID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Active returns the selected exercise.
func (s *Session) Active() exercise.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Count returns the rep count of kind, which keeps its value while another
// exercise is active.
func (s *Session) Count(kind exercise.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.trackers[kind]; ok {
		return t.state.Count
	}
	return 0
}

// Select switches to kind and starts it from zero.
func (s *Session) Select(kind exercise.Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown exercise %q", kind)
	}

	s.pub.Lock()
	defer s.pub.Unlock()

	s.mu.Lock()
	s.active = kind
	t := s.trackers[kind]
	t.state = exercise.NewState()
	s.feedback = ""
	ev := s.event(EventSelect, kind, t.state, "")
	subs := s.subscribers()
	entry := s.log
	s.mu.Unlock()

	entry.WithField("exercise", kind).Info("exercise selected")
	publish(subs, ev)
	return nil
}

// Reset zeroes the active exercise. Other exercises keep their counts.
func (s *Session) Reset() {
	s.pub.Lock()
	defer s.pub.Unlock()

	s.mu.Lock()
	t := s.trackers[s.active]
	t.state = exercise.NewState()
	s.feedback = ""
	ev := s.event(EventReset, s.active, t.state, "")
	subs := s.subscribers()
	entry := s.log
	s.mu.Unlock()

	entry.WithField("exercise", ev.Kind).Info("exercise reset")
	publish(subs, ev)
}

// Restart starts a new session: a fresh ID and every exercise at zero.
func (s *Session) Restart() uuid.UUID {
	s.pub.Lock()
	defer s.pub.Unlock()

	s.mu.Lock()
	s.id = uuid.New()
	for _, t := range s.trackers {
		t.state = exercise.NewState()
	}
	s.feedback = ""
	ev := s.event(EventRestart, s.active, s.trackers[s.active].state, "")
	subs := s.subscribers()
	s.log = s.log.WithField("session", s.id.String())
	entry := s.log
	id := s.id
	s.mu.Unlock()

	entry.Info("session restarted")
	publish(subs, ev)
	return id
}

// Process feeds one sample to the active exercise. A sample with a zero
// timestamp is stamped with the session clock.
func (s *Session) Process(sample pose.Sample) exercise.Outcome {
	start := time.Now()
	if sample.Timestamp.IsZero() {
		sample.Timestamp = s.clock.Now()
	}

	s.pub.Lock()
	defer s.pub.Unlock()

	s.mu.Lock()
	t := s.trackers[s.active]
	next, out := t.detector.Step(t.state, sample)
	t.state = next
	s.feedback = out.Feedback

	var events []Event
	if out.Transitioned {
		events = append(events, s.event(EventPhase, out.Kind, next, out.Feedback))
	}
	if out.RepDelta > 0 {
		events = append(events, s.event(EventRep, out.Kind, next, out.Feedback))
	}
	subs := s.subscribers()
	entry := s.log
	s.mu.Unlock()

	s.record(out)
	s.metrics.HistSampleDuration.Observe(time.Since(start).Seconds())

	if out.RepDelta > 0 {
		entry.WithFields(log.Fields{"exercise": out.Kind, "count": out.Count}).Info("rep counted")
	}
	if out.Suppressed {
		entry.WithField("exercise", out.Kind).Debug("rep suppressed by cooldown")
	}
	for _, ev := range events {
		publish(subs, ev)
	}
	return out
}

func (s *Session) record(out exercise.Outcome) {
	kind := string(out.Kind)
	s.metrics.CounterSamples.WithLabelValues(kind, result(out.Skipped)).Inc()
	if out.RepDelta > 0 {
		s.metrics.CounterReps.WithLabelValues(kind).Add(float64(out.RepDelta))
	}
	if out.Suppressed {
		s.metrics.CounterRepsSuppressed.WithLabelValues(kind).Inc()
	}
}

func result(skipped error) string {
	switch {
	case skipped == nil:
		return metrics.ResultProcessed
	case errors.Is(skipped, pose.ErrMissingJoint):
		return metrics.ResultMissing
	case errors.Is(skipped, exercise.ErrLowConfidence):
		return metrics.ResultLowConf
	default:
		return metrics.ResultDegenerate
	}
}

// Subscribe registers fn for every future event. Calling the returned
// function removes it.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// event builds an Event. Callers hold s.mu.
func (s *Session) event(typ EventType, kind exercise.Kind, st exercise.State, feedback string) Event {
	at := st.LastTransition
	if at.IsZero() || typ != EventPhase && typ != EventRep {
		at = s.clock.Now()
	}
	return Event{
		ID:        uuid.New(),
		SessionID: s.id,
		Type:      typ,
		Kind:      kind,
		Phase:     st.Phase,
		Count:     st.Count,
		Feedback:  feedback,
		At:        at,
	}
}

// subscribers returns a snapshot of the subscriber list. Callers hold s.mu.
func (s *Session) subscribers() []subscriber {
	out := make([]subscriber, len(s.subs))
	copy(out, s.subs)
	return out
}

func publish(subs []subscriber, ev Event) {
	for _, sub := range subs {
		sub.fn(ev)
	}
}
