package exercise

import (
	"github.com/ayusman/repcount/internal/pose"
)

// Form cue thresholds, in degrees.
const (
	deepAngle    = 90
	shallowLower = 140
)

// NewSquat counts squats from the mean hip-knee-ankle angle of both legs.
func NewSquat(t Thresholds) Detector {
	r := t.Squat
	return &machine{
		kind:     KindSquat,
		armed:    PhaseDown,
		done:     PhaseReady,
		cooldown: Cooldown{Duration: r.Cooldown},
		confirm:  r.Confirm,
		minJoint: t.MinJointVisibility,
		minAvg:   t.MinAverageVisibility,
		joints: []pose.Landmark{
			pose.LeftHip, pose.LeftKnee, pose.LeftAnkle,
			pose.RightHip, pose.RightKnee, pose.RightAnkle,
		},
		measure: func(j []pose.Joint) (reading, error) {
			angle, err := meanAngle(j)
			if err != nil {
				return reading{}, err
			}
			return reading{signal: angle, arm: angle < r.Enter, complete: angle > r.Exit}, nil
		},
		feedback: func(st State, rd reading, ev event) string {
			switch {
			case st.Phase == PhaseDown && rd.signal < deepAngle:
				return "Deep squat! Excellent depth!"
			case rd.signal > shallowLower && rd.signal < r.Exit:
				return "Bend your knees more for a proper squat"
			case ev == eventArmed:
				return "Going down... Good!"
			case ev == eventRep:
				return "Great job! Keep going!"
			case st.Phase == PhaseDown:
				return "Drive up through your heels"
			default:
				return "Ready - squat down"
			}
		},
	}
}

// NewPushup counts push-ups from the mean shoulder-elbow-wrist angle of both arms.
func NewPushup(t Thresholds) Detector {
	r := t.Pushup
	return &machine{
		kind:     KindPushup,
		armed:    PhaseDown,
		done:     PhaseReady,
		cooldown: Cooldown{Duration: r.Cooldown},
		confirm:  r.Confirm,
		minJoint: t.MinJointVisibility,
		minAvg:   t.MinAverageVisibility,
		joints: []pose.Landmark{
			pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist,
			pose.RightShoulder, pose.RightElbow, pose.RightWrist,
		},
		measure: func(j []pose.Joint) (reading, error) {
			angle, err := meanAngle(j)
			if err != nil {
				return reading{}, err
			}
			return reading{signal: angle, arm: angle < r.Enter, complete: angle > r.Exit}, nil
		},
		feedback: func(st State, rd reading, ev event) string {
			switch {
			case st.Phase == PhaseDown && rd.signal < deepAngle:
				return "Deep pushup! Great form!"
			case rd.signal > shallowLower && rd.signal < r.Exit:
				return "Go lower for a complete pushup"
			case ev == eventArmed:
				return "Going down... Good!"
			case ev == eventRep:
				return "Great pushup! Keep going!"
			case st.Phase == PhaseDown:
				return "Push back up"
			default:
				return "Ready - lower your chest"
			}
		},
	}
}

// meanAngle averages the angles of two joint triples laid out as
// [a1 b1 c1 a2 b2 c2].
func meanAngle(j []pose.Joint) (float64, error) {
	left, err := pose.JointAngle(j[0], j[1], j[2])
	if err != nil {
		return 0, err
	}
	right, err := pose.JointAngle(j[3], j[4], j[5])
	if err != nil {
		return 0, err
	}
	return (left + right) / 2, nil
}
