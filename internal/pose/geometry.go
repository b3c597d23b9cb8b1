package pose

import (
	"errors"
	"math"

	"github.com/golang/geo/r3"
)

// ErrDegenerateGeometry is returned when an angle is undefined because two
// of its points coincide.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

const minMagnitude = 1e-9

// Angle returns the angle at vertex b, in degrees, formed by the rays to a
// and c. The result is in [0,180].
func Angle(a, b, c r3.Vector) (float64, error) {
	ba := a.Sub(b)
	bc := c.Sub(b)

	na := ba.Norm()
	nc := bc.Norm()
	if na < minMagnitude || nc < minMagnitude {
		return math.NaN(), ErrDegenerateGeometry
	}

	cos := ba.Dot(bc) / (na * nc)
	// Rounding can push the cosine just past ±1.
	cos = math.Max(-1, math.Min(1, cos))

	return math.Acos(cos) * 180 / math.Pi, nil
}

// JointAngle is Angle over three joints projected onto the image plane.
func JointAngle(a, b, c Joint) (float64, error) {
	return Angle(a.Vec2(), b.Vec2(), c.Vec2())
}

// Distance returns the Euclidean distance between p and q.
func Distance(p, q r3.Vector) float64 {
	return p.Sub(q).Norm()
}

// JointDistance is Distance between two joints on the image plane.
func JointDistance(p, q Joint) float64 {
	return Distance(p.Vec2(), q.Vec2())
}

// Midpoint returns the point halfway between p and q.
func Midpoint(p, q r3.Vector) r3.Vector {
	return p.Add(q).Mul(0.5)
}

// TiltFromVertical returns the absolute angle, in degrees, of the segment
// from lower to upper measured with atan2(dx, dy). Image Y grows downwards,
// so an upright segment yields 180 and a horizontal one 90.
func TiltFromVertical(upper, lower r3.Vector) float64 {
	dx := upper.X - lower.X
	dy := upper.Y - lower.Y
	return math.Abs(math.Atan2(dx, dy) * 180 / math.Pi)
}
