// Package lift defines the interface of the lift position controller.
package lift

// Lift moves the forklift-style lift in front of the robot. Heights are in mm measured from
// the ground to the lift attachment point.
type Lift interface {
	SetDesiredHeight(heightMM float64)
	DesiredHeight() float64
	Height() float64
	// IsInPosition reports whether the lift has reached the desired height.
	IsInPosition() bool
}
