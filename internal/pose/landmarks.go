// Package pose provides the body landmark scheme, pose samples and the geometry
// used by the exercise detectors.
package pose

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Landmark is a body joint index following the MediaPipe pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
type Landmark int

// Pose landmark indices.
const (
	Nose           Landmark = 0
	LeftEyeInner   Landmark = 1
	LeftEye        Landmark = 2
	LeftEyeOuter   Landmark = 3
	RightEyeInner  Landmark = 4
	RightEye       Landmark = 5
	RightEyeOuter  Landmark = 6
	LeftEar        Landmark = 7
	RightEar       Landmark = 8
	MouthLeft      Landmark = 9
	MouthRight     Landmark = 10
	LeftShoulder   Landmark = 11
	RightShoulder  Landmark = 12
	LeftElbow      Landmark = 13
	RightElbow     Landmark = 14
	LeftWrist      Landmark = 15
	RightWrist     Landmark = 16
	LeftPinky      Landmark = 17
	RightPinky     Landmark = 18
	LeftIndex      Landmark = 19
	RightIndex     Landmark = 20
	LeftThumb      Landmark = 21
	RightThumb     Landmark = 22
	LeftHip        Landmark = 23
	RightHip       Landmark = 24
	LeftKnee       Landmark = 25
	RightKnee      Landmark = 26
	LeftAnkle      Landmark = 27
	RightAnkle     Landmark = 28
	LeftHeel       Landmark = 29
	RightHeel      Landmark = 30
	LeftFootIndex  Landmark = 31
	RightFootIndex Landmark = 32
	NumLandmarks            = 33
)

var landmarkNames = [NumLandmarks]string{
	"nose",
	"left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear",
	"mouth_left", "mouth_right",
	"left_shoulder", "right_shoulder",
	"left_elbow", "right_elbow",
	"left_wrist", "right_wrist",
	"left_pinky", "right_pinky",
	"left_index", "right_index",
	"left_thumb", "right_thumb",
	"left_hip", "right_hip",
	"left_knee", "right_knee",
	"left_ankle", "right_ankle",
	"left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

// String returns the snake_case name of the landmark.
func (l Landmark) String() string {
	if !l.Valid() {
		return fmt.Sprintf("landmark(%d)", int(l))
	}
	return landmarkNames[l]
}

// Valid reports whether l is inside the 33-joint scheme.
func (l Landmark) Valid() bool {
	return l >= 0 && l < NumLandmarks
}

// Side selects the left or right half of the body.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// Arm returns the shoulder, elbow and wrist landmarks for the side.
func (s Side) Arm() (shoulder, elbow, wrist Landmark) {
	if s == Left {
		return LeftShoulder, LeftElbow, LeftWrist
	}
	return RightShoulder, RightElbow, RightWrist
}

// Leg returns the hip, knee and ankle landmarks for the side.
func (s Side) Leg() (hip, knee, ankle Landmark) {
	if s == Left {
		return LeftHip, LeftKnee, LeftAnkle
	}
	return RightHip, RightKnee, RightAnkle
}

// Joint is a single detected body joint.
// X and Y are normalized to [0,1] relative to the frame width and height,
// Z is the optional normalized depth. A zero Joint is not Present.
type Joint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
	Present    bool    `json:"-"`
}

// Vec2 projects the joint onto the image plane.
func (j Joint) Vec2() r3.Vector {
	return r3.Vector{X: j.X, Y: j.Y}
}
