package exercise

import (
	"github.com/ayusman/repcount/internal/pose"
)

// NewJumpingJack counts jumping jacks from how far apart the hands and feet
// are, relative to shoulder and hip width.
func NewJumpingJack(t Thresholds) Detector {
	r := t.JumpingJack
	return &machine{
		kind:     KindJumpingJack,
		armed:    PhaseOut,
		done:     PhaseReady,
		cooldown: Cooldown{Duration: r.Cooldown},
		confirm:  r.Confirm,
		minJoint: t.MinJointVisibility,
		minAvg:   t.MinAverageVisibility,
		joints: []pose.Landmark{
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftWrist, pose.RightWrist,
			pose.LeftHip, pose.RightHip,
			pose.LeftAnkle, pose.RightAnkle,
		},
		measure: func(j []pose.Joint) (reading, error) {
			ls, rs, lw, rw := j[0], j[1], j[2], j[3]
			lh, rh, la, ra := j[4], j[5], j[6], j[7]

			shoulders := pose.JointDistance(ls, rs)
			hips := pose.JointDistance(lh, rh)
			if shoulders < minSpan || hips < minSpan {
				return reading{}, pose.ErrDegenerateGeometry
			}
			hands := pose.JointDistance(lw, rw) / shoulders
			feet := pose.JointDistance(la, ra) / hips

			arm := hands > r.HandsApart && feet > r.FeetApart
			if r.Overhead {
				// Image Y grows downwards.
				arm = arm && lw.Y < ls.Y && rw.Y < rs.Y
			}
			return reading{
				signal:    hands,
				secondary: feet,
				arm:       arm,
				complete:  hands < r.HandsTogether && feet < r.FeetTogether,
			}, nil
		},
		feedback: func(st State, rd reading, ev event) string {
			switch {
			case ev == eventArmed:
				return "Arms and legs out... Good!"
			case ev == eventRep:
				return "Great jumping jack! Keep going!"
			case st.Phase == PhaseOut:
				return "Bring arms and legs back in"
			default:
				return "Ready - jump out"
			}
		},
	}
}

// minSpan is the smallest shoulder or hip width a ratio may be divided by.
const minSpan = 1e-9
