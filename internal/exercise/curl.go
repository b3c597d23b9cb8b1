package exercise

import (
	"github.com/ayusman/repcount/internal/pose"
)

// NewCurl counts bicep curls on one arm. The arm must open past the extended
// threshold before a flexed elbow counts, so a rep is a full range of motion.
func NewCurl(t Thresholds) Detector {
	r := t.Curl
	shoulder, elbow, wrist := r.Side.Arm()
	return &machine{
		kind:     KindCurl,
		armed:    PhaseDown,
		done:     PhaseUp,
		cooldown: Cooldown{Duration: r.Cooldown},
		confirm:  r.Confirm,
		minJoint: t.MinJointVisibility,
		minAvg:   t.MinAverageVisibility,
		joints:   []pose.Landmark{shoulder, elbow, wrist},
		measure: func(j []pose.Joint) (reading, error) {
			angle, err := pose.JointAngle(j[0], j[1], j[2])
			if err != nil {
				return reading{}, err
			}
			return reading{signal: angle, arm: angle > r.Extended, complete: angle < r.Flexed}, nil
		},
		feedback: func(st State, rd reading, ev event) string {
			switch {
			case ev == eventRep:
				return "Great curl! Keep going!"
			case st.Phase == PhaseDown:
				return "Arm extended - curl up"
			case st.Phase == PhaseUp && rd.signal < r.Extended:
				return "Lower the weight fully"
			default:
				return "Ready - extend your arm"
			}
		},
	}
}
