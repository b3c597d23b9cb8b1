package pose

import (
	"context"
	"io"
	"math"
	"time"
)

// MockSource is a test implementation of the Source interface.
// It replays a fixed list of samples and then returns io.EOF.
type MockSource struct {
	samples []Sample
	index   int
	err     error
	closed  bool
}

// NewMockSource creates a new MockSource replaying samples.
func NewMockSource(samples ...Sample) *MockSource {
	return &MockSource{samples: samples}
}

// SetError sets an error that will be returned once the samples run out,
// instead of io.EOF.
func (m *MockSource) SetError(err error) {
	m.err = err
}

// Next returns the next configured sample.
func (m *MockSource) Next(ctx context.Context) (Sample, error) {
	if err := ctx.Err(); err != nil {
		return Sample{}, err
	}
	if m.index >= len(m.samples) {
		if m.err != nil {
			return Sample{}, m.err
		}
		return Sample{}, io.EOF
	}
	s := m.samples[m.index]
	m.index++
	return s, nil
}

// Close marks the source closed.
func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MockSource) Closed() bool {
	return m.closed
}

// Fixture segment lengths, in normalized image units.
const (
	fixtureThigh   = 0.15
	fixtureShin    = 0.15
	fixtureUpper   = 0.13
	fixtureFore    = 0.12
	fixtureTorso   = 0.25
	fixtureVisible = 0.95
)

// NewFixture returns a fully visible subject standing upright facing the
// camera, arms hanging and legs straight.
func NewFixture() Sample {
	var s Sample

	set := func(l Landmark, x, y float64) {
		s.Points[l] = Joint{X: x, Y: y, Visibility: fixtureVisible, Present: true}
	}

	// Head
	set(Nose, 0.50, 0.12)
	set(LeftEyeInner, 0.51, 0.10)
	set(LeftEye, 0.52, 0.10)
	set(LeftEyeOuter, 0.53, 0.10)
	set(RightEyeInner, 0.49, 0.10)
	set(RightEye, 0.48, 0.10)
	set(RightEyeOuter, 0.47, 0.10)
	set(LeftEar, 0.55, 0.11)
	set(RightEar, 0.45, 0.11)
	set(MouthLeft, 0.51, 0.14)
	set(MouthRight, 0.49, 0.14)

	// Torso. The subject faces the camera, so their left side is image right.
	set(LeftShoulder, 0.60, 0.25)
	set(RightShoulder, 0.40, 0.25)
	set(LeftHip, 0.55, 0.50)
	set(RightHip, 0.45, 0.50)

	// Hands and feet follow the limbs below.
	s = s.WithElbowAngle(180).WithKneeAngle(180)
	return s
}

// limb places the middle and end joints of a limb hanging from root so that
// the root-middle-end angle equals deg. dir is +1 to bend outwards to image
// right and -1 for image left.
func limb(root Joint, upper, lower, deg, dir float64) (Joint, Joint) {
	mid := root
	mid.Y = root.Y + upper

	rad := deg * math.Pi / 180
	end := mid
	end.X = mid.X + dir*lower*math.Sin(rad)
	end.Y = mid.Y - lower*math.Cos(rad)
	return mid, end
}

// WithKneeAngle bends both legs so the hip-knee-ankle angle equals deg.
func (s Sample) WithKneeAngle(deg float64) Sample {
	for _, side := range []Side{Left, Right} {
		hip, knee, ankle := side.Leg()
		dir := 1.0
		if side == Right {
			dir = -1
		}
		k, a := limb(s.Points[hip], fixtureThigh, fixtureShin, deg, dir)
		s.Points[knee] = k
		s.Points[ankle] = a

		heel, foot := LeftHeel, LeftFootIndex
		if side == Right {
			heel, foot = RightHeel, RightFootIndex
		}
		s.Points[heel] = Joint{X: a.X, Y: a.Y + 0.01, Visibility: a.Visibility, Present: true}
		s.Points[foot] = Joint{X: a.X + dir*0.03, Y: a.Y + 0.01, Visibility: a.Visibility, Present: true}
	}
	return s
}

// WithElbowAngle bends both arms so the shoulder-elbow-wrist angle equals deg.
func (s Sample) WithElbowAngle(deg float64) Sample {
	return s.WithArmAngle(Left, deg).WithArmAngle(Right, deg)
}

// WithArmAngle bends one arm so the shoulder-elbow-wrist angle equals deg.
func (s Sample) WithArmAngle(side Side, deg float64) Sample {
	shoulder, elbow, wrist := side.Arm()
	dir := 1.0
	if side == Right {
		dir = -1
	}
	e, w := limb(s.Points[shoulder], fixtureUpper, fixtureFore, deg, dir)
	s.Points[elbow] = e
	s.Points[wrist] = w
	s.placeHand(side)
	return s
}

func (s *Sample) placeHand(side Side) {
	_, _, wrist := side.Arm()
	pinky, index, thumb := LeftPinky, LeftIndex, LeftThumb
	if side == Right {
		pinky, index, thumb = RightPinky, RightIndex, RightThumb
	}
	w := s.Points[wrist]
	s.Points[pinky] = Joint{X: w.X, Y: w.Y + 0.02, Visibility: w.Visibility, Present: true}
	s.Points[index] = Joint{X: w.X, Y: w.Y + 0.025, Visibility: w.Visibility, Present: true}
	s.Points[thumb] = Joint{X: w.X, Y: w.Y + 0.015, Visibility: w.Visibility, Present: true}
}

// WithTorsoTilt moves the shoulders so the hip-midpoint to shoulder-midpoint
// segment has the given TiltFromVertical angle. 180 is upright.
func (s Sample) WithTorsoTilt(deg float64) Sample {
	hipMid := Midpoint(s.Points[LeftHip].Vec2(), s.Points[RightHip].Vec2())
	rad := deg * math.Pi / 180
	cx := hipMid.X + fixtureTorso*math.Sin(rad)
	cy := hipMid.Y + fixtureTorso*math.Cos(rad)

	half := (s.Points[LeftShoulder].X - s.Points[RightShoulder].X) / 2
	s.Points[LeftShoulder].X, s.Points[LeftShoulder].Y = cx+half, cy
	s.Points[RightShoulder].X, s.Points[RightShoulder].Y = cx-half, cy
	return s.WithElbowAngle(180)
}

// WithJumpingJack spreads arms overhead and feet apart when open, and
// brings them together otherwise.
func (s Sample) WithJumpingJack(open bool) Sample {
	ls, rs := s.Points[LeftShoulder], s.Points[RightShoulder]
	lh, rh := s.Points[LeftHip], s.Points[RightHip]
	shoulderMid := (ls.X + rs.X) / 2
	hipMid := (lh.X + rh.X) / 2
	shoulderWidth := math.Abs(ls.X - rs.X)
	hipWidth := math.Abs(lh.X - rh.X)

	var hands, feet, wristY float64
	if open {
		hands, feet, wristY = 3.0*shoulderWidth, 3.0*hipWidth, ls.Y-0.10
	} else {
		hands, feet, wristY = 0.9*shoulderWidth, 0.8*hipWidth, ls.Y+0.25
	}

	s.Points[LeftWrist].X, s.Points[LeftWrist].Y = shoulderMid+hands/2, wristY
	s.Points[RightWrist].X, s.Points[RightWrist].Y = shoulderMid-hands/2, wristY
	s.Points[LeftElbow].X, s.Points[LeftElbow].Y = (ls.X+s.Points[LeftWrist].X)/2, (ls.Y+wristY)/2
	s.Points[RightElbow].X, s.Points[RightElbow].Y = (rs.X+s.Points[RightWrist].X)/2, (rs.Y+wristY)/2
	s.placeHand(Left)
	s.placeHand(Right)

	ankleY := s.Points[LeftAnkle].Y
	s.Points[LeftAnkle].X = hipMid + feet/2
	s.Points[RightAnkle].X = hipMid - feet/2
	s.Points[LeftKnee].X = (lh.X + s.Points[LeftAnkle].X) / 2
	s.Points[RightKnee].X = (rh.X + s.Points[RightAnkle].X) / 2
	s.Points[LeftAnkle].Y, s.Points[RightAnkle].Y = ankleY, ankleY
	return s
}

// WithToeTouch places the right wrist at the given fraction of the torso
// length away from the left ankle. Smaller reach means closer to the toes.
func (s Sample) WithToeTouch(reach float64) Sample {
	torso := Distance(
		Midpoint(s.Points[LeftShoulder].Vec2(), s.Points[RightShoulder].Vec2()),
		Midpoint(s.Points[LeftHip].Vec2(), s.Points[RightHip].Vec2()),
	)
	ankle := s.Points[LeftAnkle]
	w := s.Points[RightWrist]
	w.X = ankle.X
	w.Y = ankle.Y - reach*torso
	s.Points[RightWrist] = w
	s.placeHand(Right)

	// Keep the other hand well away from the right ankle.
	s.Points[LeftWrist].Y = s.Points[LeftShoulder].Y - 0.05
	s.placeHand(Left)
	return s
}

// Without marks the given joints as undetected.
func (s Sample) Without(landmarks ...Landmark) Sample {
	for _, l := range landmarks {
		if l.Valid() {
			s.Points[l] = Joint{}
		}
	}
	return s
}

// WithVisibility sets the visibility of every present joint.
func (s Sample) WithVisibility(v float64) Sample {
	for i := range s.Points {
		if s.Points[i].Present {
			s.Points[i].Visibility = v
		}
	}
	return s
}

// At stamps the sample with t.
func (s Sample) At(t time.Time) Sample {
	s.Timestamp = t
	return s
}
