// Package fake implements a fake lift that moves toward its desired height at a fixed rate.
package fake

import (
	"math"
	"sync"
	"time"
)

const (
	defaultSpeedMMPerSec = 60
	inPositionTolMM      = 0.5
)

// Lift is a fake lift. Step must be called to move it.
type Lift struct {
	mu             sync.Mutex
	height         float64
	desired        float64
	speed          float64
	SetHeightCount int
}

// NewLift returns a lift resting at heightMM.
func NewLift(heightMM float64) *Lift {
	return &Lift{height: heightMM, desired: heightMM, speed: defaultSpeedMMPerSec}
}

// SetDesiredHeight records the new target.
func (l *Lift) SetDesiredHeight(heightMM float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.desired = heightMM
	l.SetHeightCount++
}

// DesiredHeight returns the last commanded height.
func (l *Lift) DesiredHeight() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.desired
}

// Height returns the current height.
func (l *Lift) Height() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.height
}

// IsInPosition reports whether the lift is at the desired height.
func (l *Lift) IsInPosition() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return math.Abs(l.desired-l.height) <= inPositionTolMM
}

// Step advances the lift by dt.
func (l *Lift) Step(dt time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	maxMove := l.speed * dt.Seconds()
	diff := l.desired - l.height
	if math.Abs(diff) <= maxMove {
		l.height = l.desired
		return
	}
	l.height += math.Copysign(maxMove, diff)
}
