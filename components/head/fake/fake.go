// Package fake implements a fake head that tilts toward its desired angle at a fixed rate.
package fake

import (
	"math"
	"sync"
	"time"
)

const (
	defaultSpeedRadPerSec = 2.0
	inPositionTolRad      = 0.01
)

// Head is a fake head. Step must be called to move it.
type Head struct {
	mu      sync.Mutex
	angle   float64
	desired float64
}

// NewHead returns a head resting at angleRad.
func NewHead(angleRad float64) *Head {
	return &Head{angle: angleRad, desired: angleRad}
}

// SetDesiredAngle records the new target angle.
func (h *Head) SetDesiredAngle(angleRad float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.desired = angleRad
}

// Angle returns the current angle.
func (h *Head) Angle() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.angle
}

// IsInPosition reports whether the head reached the desired angle.
func (h *Head) IsInPosition() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return math.Abs(h.desired-h.angle) <= inPositionTolRad
}

// Step advances the head by dt.
func (h *Head) Step(dt time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	maxMove := defaultSpeedRadPerSec * dt.Seconds()
	diff := h.desired - h.angle
	if math.Abs(diff) <= maxMove {
		h.angle = h.desired
		return
	}
	h.angle += math.Copysign(maxMove, diff)
}
