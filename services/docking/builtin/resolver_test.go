package builtin

import (
	"math"
	"testing"

	"go.viam.com/test"

	"go.viam.com/docking/logging"
	"go.viam.com/docking/services/docking"
	"go.viam.com/docking/services/localization"
	"go.viam.com/docking/spatialmath"
)

func TestRobotPoseAt(t *testing.T) {
	logger := logging.NewTestLogger(t)
	loc, err := localization.NewHistoryLocalizer(16, 20)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loc.Update(100, spatialmath.NewPose2D(0, 0, 0)), test.ShouldBeNil)
	test.That(t, loc.Update(200, spatialmath.NewPose2D(10, 0, 0)), test.ShouldBeNil)
	test.That(t, loc.Update(300, spatialmath.NewPose2D(20, 0, 0)), test.ShouldBeNil)

	// historical lookup interpolates
	pose := robotPoseAt(loc, docking.ErrorSignal{TimestampMS: 150}, 300, logger)
	test.That(t, pose.X, test.ShouldAlmostEqual, 5)

	// zero and now both mean current
	pose = robotPoseAt(loc, docking.ErrorSignal{TimestampMS: 0}, 300, logger)
	test.That(t, pose.X, test.ShouldAlmostEqual, 20)
	pose = robotPoseAt(loc, docking.ErrorSignal{TimestampMS: 300}, 300, logger)
	test.That(t, pose.X, test.ShouldAlmostEqual, 20)

	// older than the history falls back to current
	pose = robotPoseAt(loc, docking.ErrorSignal{TimestampMS: 50}, 300, logger)
	test.That(t, pose.X, test.ShouldAlmostEqual, 20)
}

func TestMarkerAndDockPose(t *testing.T) {
	robot := spatialmath.NewPose2D(100, 50, math.Pi/2)
	signal := docking.ErrorSignal{ForwardDistanceMM: 150, LateralOffsetMM: 0, AngleOffsetRad: 0}
	marker := markerPoseFrom(robot, signal)
	test.That(t, marker.AlmostEqual(spatialmath.NewPose2D(100, 200, math.Pi/2), 1e-9, 1e-9), test.ShouldBeTrue)

	// marker ahead and to the left, rotated
	robot = spatialmath.NewPose2D(0, 0, 0)
	signal = docking.ErrorSignal{ForwardDistanceMM: 100, LateralOffsetMM: 20, AngleOffsetRad: 0.1}
	marker = markerPoseFrom(robot, signal)
	test.That(t, marker.X, test.ShouldAlmostEqual, 100)
	test.That(t, marker.Y, test.ShouldAlmostEqual, 20)
	test.That(t, marker.Theta, test.ShouldAlmostEqual, 0.1)
	test.That(t, robot.DistanceTo(marker), test.ShouldAlmostEqual, signal.Distance())

	params := docking.StartParams{StandoffXMM: 30, StandoffYMM: 5}
	dock := dockPoseFrom(spatialmath.NewPose2D(200, 0, 0), params)
	test.That(t, dock.AlmostEqual(spatialmath.NewPose2D(170, 5, 0), 1e-9, 1e-9), test.ShouldBeTrue)

	// facing the other way the standoff flips
	dock = dockPoseFrom(spatialmath.NewPose2D(200, 0, math.Pi), docking.StartParams{StandoffXMM: 30})
	test.That(t, dock.AlmostEqual(spatialmath.NewPose2D(230, 0, math.Pi), 1e-9, 1e-9), test.ShouldBeTrue)
}

func TestMarkerJumped(t *testing.T) {
	base := spatialmath.NewPose2D(100, 0, 0)
	test.That(t, markerJumped(base, spatialmath.NewPose2D(105, 0, 0), 10, 0.087), test.ShouldBeFalse)
	test.That(t, markerJumped(base, spatialmath.NewPose2D(112, 0, 0), 10, 0.087), test.ShouldBeTrue)
	test.That(t, markerJumped(base, spatialmath.NewPose2D(100, 0, 0.1), 10, 0.087), test.ShouldBeTrue)
}

func TestDockError(t *testing.T) {
	params := docking.StartParams{StandoffXMM: 30}
	dock := spatialmath.NewPose2D(170, 0, 0)

	// robot 4mm past the dock and 25mm to its left
	robot := spatialmath.NewPose2D(174, 25, 0)
	fromPose := dockErrorFromPose(dock, robot)
	test.That(t, fromPose.X, test.ShouldAlmostEqual, 4)
	test.That(t, fromPose.Y, test.ShouldAlmostEqual, 25)
	test.That(t, fromPose.Theta, test.ShouldAlmostEqual, 0)

	// the same geometry as seen by the camera
	fromSignal := dockErrorFromSignal(docking.ErrorSignal{ForwardDistanceMM: 26, LateralOffsetMM: -25}, params)
	test.That(t, fromSignal.X, test.ShouldAlmostEqual, fromPose.X)
	test.That(t, fromSignal.Y, test.ShouldAlmostEqual, fromPose.Y)

	rotated := dockErrorFromPose(dock, spatialmath.NewPose2D(170, 0, 0.2))
	test.That(t, rotated.Theta, test.ShouldAlmostEqual, 0.2)
	test.That(t, dockErrorFromSignal(docking.ErrorSignal{ForwardDistanceMM: 30, AngleOffsetRad: -0.2}, params).Theta,
		test.ShouldAlmostEqual, 0.2)
}
