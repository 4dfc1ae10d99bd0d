package builtin

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/docking/motionplan/path"
	"go.viam.com/docking/services/docking"
	"go.viam.com/docking/spatialmath"
)

// point turns during recovery maneuvers
const (
	turnSpeedRadPerSec    = 2.0
	turnAccelRadPerSec2   = 10.0
	turnAngleToleranceRad = 0.02
)

func lineSpeed(speed, accel, decel float64) path.Speed {
	return path.Speed{Target: speed, Accel: accel, Decel: decel}
}

// planApproach returns a single line from the robot to dock, continued overshootMM past it
// along the dock heading.
func planApproach(robot, dock spatialmath.Pose2D, overshootMM float64, speed path.Speed) (path.Path, error) {
	var p path.Path
	end := dock.Translate(overshootMM).Point()
	if err := p.AppendLine(path.Line{Start: robot.Point(), End: end, Speed: speed}); err != nil {
		return path.Path{}, errors.Wrap(err, "cannot plan approach line")
	}
	return p, nil
}

// planRetreat returns a reverse line of distanceMM straight back from robot.
func planRetreat(robot spatialmath.Pose2D, distanceMM, speedMMPerSec, accel float64) (path.Path, error) {
	var p path.Path
	end := robot.Translate(-distanceMM).Point()
	if err := p.AppendLine(path.Line{
		Start: robot.Point(),
		End:   end,
		Speed: lineSpeed(-math.Abs(speedMMPerSec), accel, accel),
	}); err != nil {
		return path.Path{}, errors.Wrap(err, "cannot plan retreat")
	}
	return p, nil
}

// planCorrective returns a point turn about the drive center to the dock heading offset by
// turnRad toward the side that reduces lateralErrMM, then a short forward line.
func planCorrective(
	robot, driveCenter, dock spatialmath.Pose2D,
	lateralErrMM, turnRad, advanceMM float64,
	speed path.Speed,
) (path.Path, error) {
	// positive lateral error means the robot is left of the dock line, so turn right
	heading := spatialmath.NormalizeAngle(dock.Theta - math.Copysign(turnRad, lateralErrMM))
	var p path.Path
	if err := p.AppendPointTurn(path.PointTurn{
		Center:         driveCenter.Point(),
		TargetHeading:  heading,
		Speed:          path.Speed{Target: turnSpeedRadPerSec, Accel: turnAccelRadPerSec2, Decel: turnAccelRadPerSec2},
		AngleTolerance: turnAngleToleranceRad,
	}); err != nil {
		return path.Path{}, errors.Wrap(err, "cannot plan corrective turn")
	}
	// the turn swings the robot origin around the drive center
	originOffsetMM := spatialmath.PoseBetween(driveCenter, robot).X
	start := spatialmath.NewPose2DFromPoint(driveCenter.Point(), heading).Translate(originOffsetMM)
	end := start.Translate(advanceMM)
	if err := p.AppendLine(path.Line{Start: start.Point(), End: end.Point(), Speed: speed}); err != nil {
		return path.Path{}, errors.Wrap(err, "cannot plan corrective advance")
	}
	return p, nil
}

// followingMarkerNormal reports whether robot lies within tolMM of the line through the
// marker along its heading.
func followingMarkerNormal(robot, marker spatialmath.Pose2D, tolMM float64) bool {
	return math.Abs(spatialmath.PoseBetween(marker, robot).Y) <= tolMM
}

func goalPoseFor(robot, marker, dock spatialmath.Pose2D, tolMM float64) docking.GoalPose {
	return docking.GoalPose{
		XMM:                   dock.X,
		YMM:                   dock.Y,
		AngleRad:              dock.Theta,
		FollowingMarkerNormal: followingMarkerNormal(robot, marker, tolMM),
	}
}
