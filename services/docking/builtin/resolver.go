package builtin

import (
	"math"

	"go.viam.com/docking/logging"
	"go.viam.com/docking/services/docking"
	"go.viam.com/docking/services/localization"
	"go.viam.com/docking/spatialmath"
)

// robotPoseAt returns the robot pose when signal was captured. Signals stamped zero or now
// use the current pose, as does any timestamp the history cannot answer for.
func robotPoseAt(loc localization.Localizer, signal docking.ErrorSignal, nowMS uint32, logger logging.Logger) spatialmath.Pose2D {
	if signal.TimestampMS == 0 || signal.TimestampMS == nowMS {
		return loc.CurrentPose()
	}
	pose, err := loc.PoseAt(signal.TimestampMS)
	if err != nil {
		logger.Debugw("no historical pose for signal, using current pose",
			"timestamp_ms", signal.TimestampMS, "error", err)
		return loc.CurrentPose()
	}
	return pose
}

// markerPoseFrom places the marker in the world given the robot pose the signal was
// measured from.
func markerPoseFrom(robot spatialmath.Pose2D, signal docking.ErrorSignal) spatialmath.Pose2D {
	r := signal.Distance()
	bearing := math.Atan2(signal.LateralOffsetMM, signal.ForwardDistanceMM)
	return spatialmath.NewPose2D(
		robot.X+r*math.Cos(robot.Theta+bearing),
		robot.Y+r*math.Sin(robot.Theta+bearing),
		robot.Theta+signal.AngleOffsetRad,
	)
}

// dockPoseFrom returns the pose the robot origin must reach to be docked with marker.
func dockPoseFrom(marker spatialmath.Pose2D, params docking.StartParams) spatialmath.Pose2D {
	return marker.Compose(spatialmath.NewPose2D(-params.StandoffXMM, params.StandoffYMM, params.StandoffAngleRad))
}

// markerJumped reports whether next differs from prev by more than the jump tolerances.
func markerJumped(prev, next spatialmath.Pose2D, posTolMM, angTolRad float64) bool {
	return !prev.AlmostEqual(next, posTolMM, angTolRad)
}

// dockError is the robot pose expressed in the dock frame: X toward the marker, Y to the left
// and Theta the heading error.
type dockError = spatialmath.Pose2D

// dockErrorFromPose computes the dock error from odometry.
func dockErrorFromPose(dock, robot spatialmath.Pose2D) dockError {
	return spatialmath.PoseBetween(dock, robot)
}

// dockErrorFromSignal computes the dock error from a fresh marker observation.
func dockErrorFromSignal(signal docking.ErrorSignal, params docking.StartParams) dockError {
	return spatialmath.NewPose2D(
		params.StandoffXMM-signal.ForwardDistanceMM,
		-signal.LateralOffsetMM-params.StandoffYMM,
		-signal.AngleOffsetRad-params.StandoffAngleRad,
	)
}
