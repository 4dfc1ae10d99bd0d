package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/docking/utils"
)

// Pose2D is a planar pose: a position in millimeters and a heading in radians measured
// counter-clockwise from the +X axis. Theta is kept in (-pi, pi].
type Pose2D struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// NewPose2D returns a pose with a normalized heading.
func NewPose2D(x, y, theta float64) Pose2D {
	return Pose2D{X: x, Y: y, Theta: NormalizeAngle(theta)}
}

// NewPose2DFromPoint returns a pose at pt with the given heading.
func NewPose2DFromPoint(pt r2.Point, theta float64) Pose2D {
	return NewPose2D(pt.X, pt.Y, theta)
}

// Point returns the position part of the pose.
func (p Pose2D) Point() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// Heading returns the unit vector pointing along Theta.
func (p Pose2D) Heading() r2.Point {
	return r2.Point{X: math.Cos(p.Theta), Y: math.Sin(p.Theta)}
}

// Compose applies delta, expressed in p's frame, on top of p.
func (p Pose2D) Compose(delta Pose2D) Pose2D {
	sin, cos := math.Sincos(p.Theta)
	return NewPose2D(
		p.X+cos*delta.X-sin*delta.Y,
		p.Y+sin*delta.X+cos*delta.Y,
		p.Theta+delta.Theta,
	)
}

// Inverse returns the pose that composes with p to the identity.
func (p Pose2D) Inverse() Pose2D {
	sin, cos := math.Sincos(p.Theta)
	return NewPose2D(
		-cos*p.X-sin*p.Y,
		sin*p.X-cos*p.Y,
		-p.Theta,
	)
}

// Translate moves the pose by dist along its heading, keeping the heading.
func (p Pose2D) Translate(dist float64) Pose2D {
	return NewPose2DFromPoint(p.Point().Add(p.Heading().Mul(dist)), p.Theta)
}

// DistanceTo returns the euclidean distance between the positions of p and q.
func (p Pose2D) DistanceTo(q Pose2D) float64 {
	return p.Point().Sub(q.Point()).Norm()
}

// AlmostEqual compares positions within posTol millimeters and headings within angTol radians.
func (p Pose2D) AlmostEqual(q Pose2D, posTol, angTol float64) bool {
	return p.DistanceTo(q) <= posTol && math.Abs(AngleDiff(p.Theta, q.Theta)) <= angTol
}

func (p Pose2D) String() string {
	return fmt.Sprintf("(%.1f, %.1f, %.1fdeg)", p.X, p.Y, utils.RadToDeg(p.Theta))
}

// PoseBetween returns to expressed in the frame of from.
func PoseBetween(from, to Pose2D) Pose2D {
	return from.Inverse().Compose(to)
}

// Interpolate linearly interpolates between a and b. by is clamped to [0, 1]; headings follow
// the shortest arc.
func Interpolate(a, b Pose2D, by float64) Pose2D {
	by = math.Max(0, math.Min(1, by))
	pt := a.Point().Add(b.Point().Sub(a.Point()).Mul(by))
	return NewPose2DFromPoint(pt, a.Theta+by*AngleDiff(b.Theta, a.Theta))
}

// NormalizeAngle wraps theta into (-pi, pi].
func NormalizeAngle(theta float64) float64 {
	if theta > -math.Pi && theta <= math.Pi {
		return theta
	}
	theta = math.Mod(theta, 2*math.Pi)
	if theta <= -math.Pi {
		theta += 2 * math.Pi
	} else if theta > math.Pi {
		theta -= 2 * math.Pi
	}
	return theta
}

// AngleDiff returns a-b wrapped into (-pi, pi].
func AngleDiff(a, b float64) float64 {
	return NormalizeAngle(a - b)
}
