package builtin

import (
	"github.com/samber/lo"

	"go.viam.com/docking/components/lift"
)

// liftRamp raises the lift as the robot closes in on the marker so it reaches the dock
// height at the standoff distance. It never lowers the lift during one approach.
type liftRamp struct {
	startDistanceMM float64
	endDistanceMM   float64
	startHeightMM   float64
	targetHeightMM  float64
	lastCommandedMM float64
}

// newLiftRamp starts a ramp from the lift's current desired height.
func newLiftRamp(l lift.Lift, startDistanceMM, endDistanceMM, targetHeightMM float64) *liftRamp {
	current := l.DesiredHeight()
	return &liftRamp{
		startDistanceMM: startDistanceMM,
		endDistanceMM:   endDistanceMM,
		startHeightMM:   current,
		targetHeightMM:  targetHeightMM,
		lastCommandedMM: current,
	}
}

// heightAt returns the ramp height at distanceMM from the marker, clipped to
// [last commanded, target].
func (r *liftRamp) heightAt(distanceMM float64) float64 {
	var h float64
	switch {
	case distanceMM >= r.startDistanceMM:
		h = r.startHeightMM
	case distanceMM <= r.endDistanceMM || r.startDistanceMM <= r.endDistanceMM:
		h = r.targetHeightMM
	default:
		frac := (r.startDistanceMM - distanceMM) / (r.startDistanceMM - r.endDistanceMM)
		h = r.startHeightMM + frac*(r.targetHeightMM-r.startHeightMM)
	}
	if r.lastCommandedMM >= r.targetHeightMM {
		return r.lastCommandedMM
	}
	return lo.Clamp(h, r.lastCommandedMM, r.targetHeightMM)
}

// update commands the lift for distanceMM and reports whether a new height was sent.
func (r *liftRamp) update(l lift.Lift, distanceMM float64) bool {
	h := r.heightAt(distanceMM)
	if h <= r.lastCommandedMM {
		return false
	}
	r.lastCommandedMM = h
	l.SetDesiredHeight(h)
	return true
}
