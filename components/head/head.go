// Package head defines the interface of the head (camera tilt) position controller.
package head

// Head tilts the camera. Angles are in radians, positive looking up.
type Head interface {
	SetDesiredAngle(angleRad float64)
	Angle() float64
	IsInPosition() bool
}
