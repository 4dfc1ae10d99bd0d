package builtin

import (
	"math"

	"go.viam.com/docking/spatialmath"
	"go.viam.com/docking/utils"
)

// fovPredictor predicts whether the whole marker should project inside the camera image.
type fovPredictor struct {
	hFOVRad         float64
	vFOVRad         float64
	maxHalfAngleRad float64
	markerWidthMM   float64
	cameraHeightMM  float64
}

func newFOVPredictor(hFOVDeg, vFOVDeg, maxHalfAngleDeg, markerWidthMM, cameraHeightMM float64) fovPredictor {
	return fovPredictor{
		hFOVRad:         utils.DegToRad(hFOVDeg),
		vFOVRad:         utils.DegToRad(vFOVDeg),
		maxHalfAngleRad: utils.DegToRad(maxHalfAngleDeg),
		markerWidthMM:   markerWidthMM,
		cameraHeightMM:  cameraHeightMM,
	}
}

func (f fovPredictor) halfWidth() float64 {
	return math.Min(f.hFOVRad/2, f.maxHalfAngleRad)
}

// markerInView reports whether a marker of the configured width centered at marker, whose
// center is markerHeightMM above ground, is fully visible from robot.
func (f fovPredictor) markerInView(robot, marker spatialmath.Pose2D, markerHeightMM float64) bool {
	dist := robot.DistanceTo(marker)
	if dist <= 0 {
		return false
	}
	bearing := spatialmath.AngleDiff(math.Atan2(marker.Y-robot.Y, marker.X-robot.X), robot.Theta)
	halfMarker := math.Atan2(f.markerWidthMM/2, dist)
	if math.Abs(bearing)+halfMarker > f.halfWidth() {
		return false
	}
	elevation := math.Atan2(math.Abs(markerHeightMM-f.cameraHeightMM), dist)
	return elevation+halfMarker <= f.vFOVRad/2
}
