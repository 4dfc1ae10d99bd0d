// Package control contains the velocity shaping used to drive path segments.
package control

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

const (
	rest = iota
	active
)

// minCreepFraction keeps the profile from stalling just short of the target when
// deceleration is computed from a discretized velocity.
const minCreepFraction = 0.05

// TrapezoidProfile generates a trapezoidal (or triangular, for short moves) velocity
// profile over a fixed distance: accelerate to maxVel, cruise, then decelerate so the
// velocity reaches zero at the target.
type TrapezoidProfile struct {
	maxVel       float64
	accel        float64
	decel        float64
	distance     float64
	traveled     float64
	lastVelCmd   float64
	currentPhase int
}

// NewTrapezoidProfile returns a profile covering distance (always positive) starting at
// startVel. Velocities and accelerations must be positive.
func NewTrapezoidProfile(distance, maxVel, accel, decel, startVel float64) (*TrapezoidProfile, error) {
	if distance < 0 {
		return nil, errors.Errorf("trapezoid profile distance must not be negative, got %.3f", distance)
	}
	if maxVel <= 0 {
		return nil, errors.New("trapezoid profile needs a positive max velocity")
	}
	if accel <= 0 || decel <= 0 {
		return nil, errors.New("trapezoid profile needs positive accel and decel")
	}
	t := &TrapezoidProfile{
		maxVel:     maxVel,
		accel:      accel,
		decel:      decel,
		distance:   distance,
		lastVelCmd: math.Min(math.Abs(startVel), maxVel),
	}
	if distance > 0 {
		t.currentPhase = active
	}
	return t, nil
}

// Next advances the profile by dt and returns the distance covered during the step and the
// commanded velocity at the end of it.
func (t *TrapezoidProfile) Next(dt time.Duration) (float64, float64) {
	if t.currentPhase == rest {
		return 0, 0
	}
	remaining := t.distance - t.traveled
	stoppingDist := t.lastVelCmd * t.lastVelCmd / (2 * t.decel)

	var vel float64
	if remaining <= stoppingDist {
		vel = math.Max(t.lastVelCmd-t.decel*dt.Seconds(), minCreepFraction*t.maxVel)
	} else {
		vel = math.Min(t.lastVelCmd+t.accel*dt.Seconds(), t.maxVel)
	}

	step := vel * dt.Seconds()
	if step >= remaining {
		step = remaining
		vel = 0
		t.currentPhase = rest
	}
	t.traveled += step
	t.lastVelCmd = vel
	return step, vel
}

// Done reports whether the full distance has been covered.
func (t *TrapezoidProfile) Done() bool {
	return t.currentPhase == rest
}

// Remaining returns the distance left.
func (t *TrapezoidProfile) Remaining() float64 {
	return t.distance - t.traveled
}

// Velocity returns the last commanded velocity.
func (t *TrapezoidProfile) Velocity() float64 {
	return t.lastVelCmd
}
