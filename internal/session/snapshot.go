package session

import (
	"github.com/google/uuid"

	"github.com/ayusman/repcount/internal/exercise"
)

// ExerciseSnapshot is the visible state of one exercise.
type ExerciseSnapshot struct {
	Kind  exercise.Kind  `json:"exercise"`
	Label string         `json:"label"`
	Phase exercise.Phase `json:"phase"`
	Count int            `json:"count"`
}

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	ID        uuid.UUID          `json:"id"`
	Active    exercise.Kind      `json:"active"`
	Feedback  string             `json:"feedback"`
	Exercises []ExerciseSnapshot `json:"exercises"`
}

// Snapshot returns the session state, exercises in display order.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:       s.id,
		Active:   s.active,
		Feedback: s.feedback,
	}
	for _, k := range exercise.Kinds() {
		st := s.trackers[k].state
		snap.Exercises = append(snap.Exercises, ExerciseSnapshot{
			Kind:  k,
			Label: k.Label(),
			Phase: st.Phase,
			Count: st.Count,
		})
	}
	return snap
}
