package exercise

import (
	"math"

	"github.com/ayusman/repcount/internal/pose"
)

func newCrunchVariant(t Thresholds) Detector {
	if t.Crunch.Variant == CrunchToeTouch {
		return NewToeTouch(t)
	}
	return NewCrunch(t)
}

// NewCrunch counts crunches from the tilt of the torso away from vertical.
// An upright torso measures 180 degrees; curling up lowers the angle.
func NewCrunch(t Thresholds) Detector {
	r := t.Crunch.Torso
	return &machine{
		kind:     KindCrunch,
		armed:    PhaseUp,
		done:     PhaseReady,
		cooldown: Cooldown{Duration: r.Cooldown},
		confirm:  r.Confirm,
		minJoint: t.MinJointVisibility,
		minAvg:   t.MinAverageVisibility,
		joints: []pose.Landmark{
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftHip, pose.RightHip,
		},
		measure: func(j []pose.Joint) (reading, error) {
			shoulders := pose.Midpoint(j[0].Vec2(), j[1].Vec2())
			hips := pose.Midpoint(j[2].Vec2(), j[3].Vec2())
			if pose.Distance(shoulders, hips) < minSpan {
				return reading{}, pose.ErrDegenerateGeometry
			}
			tilt := pose.TiltFromVertical(shoulders, hips)
			return reading{signal: tilt, arm: tilt < r.Enter, complete: tilt > r.Exit}, nil
		},
		feedback: func(st State, rd reading, ev event) string {
			switch {
			case ev == eventArmed:
				return "Crunching up... Good!"
			case ev == eventRep:
				return "Great crunch! Keep going!"
			case st.Phase == PhaseUp:
				return "Lower back down with control"
			default:
				return "Ready - crunch up"
			}
		},
	}
}

// NewToeTouch counts toe touches from the closest wrist to opposite ankle
// distance, measured in torso lengths.
func NewToeTouch(t Thresholds) Detector {
	r := t.Crunch.ToeTouch
	return &machine{
		kind:     KindCrunch,
		armed:    PhaseDown,
		done:     PhaseReady,
		cooldown: Cooldown{Duration: r.Cooldown},
		confirm:  r.Confirm,
		minJoint: t.MinJointVisibility,
		minAvg:   t.MinAverageVisibility,
		joints: []pose.Landmark{
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftHip, pose.RightHip,
			pose.LeftWrist, pose.RightWrist,
			pose.LeftAnkle, pose.RightAnkle,
		},
		measure: func(j []pose.Joint) (reading, error) {
			torso := pose.Distance(
				pose.Midpoint(j[0].Vec2(), j[1].Vec2()),
				pose.Midpoint(j[2].Vec2(), j[3].Vec2()),
			)
			if torso < minSpan {
				return reading{}, pose.ErrDegenerateGeometry
			}
			lw, rw, la, ra := j[4], j[5], j[6], j[7]
			reach := math.Min(pose.JointDistance(lw, ra), pose.JointDistance(rw, la)) / torso
			return reading{signal: reach, arm: reach < r.Enter, complete: reach > r.Exit}, nil
		},
		feedback: func(st State, rd reading, ev event) string {
			switch {
			case ev == eventArmed:
				return "Reaching down... Good!"
			case ev == eventRep:
				return "Great toe touch! Keep going!"
			case st.Phase == PhaseDown:
				return "Stand back up"
			default:
				return "Ready - reach for your toes"
			}
		},
	}
}
