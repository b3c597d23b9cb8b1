package pose

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissingJoint is matched by every MissingJointError.
var ErrMissingJoint = errors.New("missing joint")

// MissingJointError lists the required joints that were absent or not
// visible enough in a sample.
type MissingJointError struct {
	Missing []Landmark
}

func (e *MissingJointError) Error() string {
	names := make([]string, len(e.Missing))
	for i, l := range e.Missing {
		names[i] = l.String()
	}
	return fmt.Sprintf("missing joints: %s", strings.Join(names, ", "))
}

// Is makes errors.Is(err, ErrMissingJoint) hold.
func (e *MissingJointError) Is(target error) bool {
	return target == ErrMissingJoint
}

// Sample is one pose estimate for a single video frame.
type Sample struct {
	Timestamp time.Time
	Points    [NumLandmarks]Joint
	// World holds metric coordinates for display only.
	World []Joint
}

// Joint returns the joint at l, or false when it was not detected.
func (s *Sample) Joint(l Landmark) (Joint, bool) {
	if !l.Valid() {
		return Joint{}, false
	}
	j := s.Points[l]
	if !j.Present {
		return Joint{}, false
	}
	return j, true
}

// Require returns the requested joints in argument order. Joints that are
// absent or below minVisibility are reported together in a MissingJointError.
func (s *Sample) Require(minVisibility float64, landmarks ...Landmark) ([]Joint, error) {
	joints := make([]Joint, len(landmarks))
	var missing []Landmark

	for i, l := range landmarks {
		j, ok := s.Joint(l)
		if !ok || j.Visibility < minVisibility {
			missing = append(missing, l)
			continue
		}
		joints[i] = j
	}

	if len(missing) > 0 {
		return nil, &MissingJointError{Missing: missing}
	}
	return joints, nil
}

// AverageVisibility returns the mean visibility of the joints, or 0 for none.
func AverageVisibility(joints []Joint) float64 {
	if len(joints) == 0 {
		return 0
	}
	var sum float64
	for _, j := range joints {
		sum += j.Visibility
	}
	return sum / float64(len(joints))
}
