package fake

import (
	"math"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.viam.com/docking/components/base"
	"go.viam.com/docking/logging"
	"go.viam.com/docking/motionplan/path"
	"go.viam.com/docking/spatialmath"
)

var testSpeed = path.Speed{Target: 100, Accel: 500, Decel: 500}

func runUntilIdle(t *testing.T, b *Base) {
	t.Helper()
	for i := 0; i < 2000 && b.IsTraversing(); i++ {
		b.Step(5 * time.Millisecond)
	}
	test.That(t, b.IsTraversing(), test.ShouldBeFalse)
}

func TestFollowsPath(t *testing.T) {
	logger := logging.NewTestLogger(t)
	b := NewBase(spatialmath.NewPose2D(0, 0, 0), logger)

	var p path.Path
	test.That(t, p.AppendLine(path.Line{Start: r2.Point{}, End: r2.Point{X: 100}, Speed: testSpeed}), test.ShouldBeNil)
	test.That(t, p.AppendPointTurn(path.PointTurn{
		Center:        r2.Point{X: 100},
		TargetHeading: math.Pi / 2,
		Speed:         path.Speed{Target: 2, Accel: 10, Decel: 10},
	}), test.ShouldBeNil)
	test.That(t, p.AppendLine(path.Line{Start: r2.Point{X: 100}, End: r2.Point{X: 100, Y: -50},
		Speed: path.Speed{Target: -50, Accel: 500, Decel: 500}}), test.ShouldBeNil)

	test.That(t, path.Install(b, &p), test.ShouldBeNil)
	test.That(t, b.IsTraversing(), test.ShouldBeTrue)
	test.That(t, b.PathsStarted, test.ShouldEqual, 1)

	b.Step(100 * time.Millisecond)
	test.That(t, b.Pose().X, test.ShouldBeGreaterThan, 0)
	test.That(t, b.Pose().X, test.ShouldBeLessThan, 100)

	runUntilIdle(t, b)
	final := b.Pose()
	test.That(t, final.X, test.ShouldAlmostEqual, 100)
	test.That(t, final.Y, test.ShouldAlmostEqual, -50)
	// Reversed down the line while facing +Y.
	test.That(t, final.Theta, test.ShouldAlmostEqual, math.Pi/2)
}

func TestPointTurnAboutDriveCenter(t *testing.T) {
	b := NewBase(spatialmath.NewPose2D(20, 0, 0), nil)

	var p path.Path
	test.That(t, p.AppendPointTurn(path.PointTurn{
		Center:        r2.Point{},
		TargetHeading: math.Pi / 2,
		Speed:         path.Speed{Target: 2, Accel: 10, Decel: 10},
	}), test.ShouldBeNil)
	test.That(t, path.Install(b, &p), test.ShouldBeNil)

	b.Step(100 * time.Millisecond)
	mid := b.Pose()
	test.That(t, mid.Theta, test.ShouldBeGreaterThan, 0)
	test.That(t, mid.Point().Norm(), test.ShouldAlmostEqual, 20)

	runUntilIdle(t, b)
	test.That(t, b.Pose().AlmostEqual(spatialmath.NewPose2D(0, 20, math.Pi/2), 1e-9, 1e-9), test.ShouldBeTrue)
}

func TestRejectAndStop(t *testing.T) {
	b := NewBase(spatialmath.Pose2D{}, nil)
	b.RejectPaths = true

	var p path.Path
	test.That(t, p.AppendLine(path.Line{End: r2.Point{X: 10}, Speed: testSpeed}), test.ShouldBeNil)
	test.That(t, path.Install(b, &p), test.ShouldNotBeNil)
	test.That(t, b.IsTraversing(), test.ShouldBeFalse)

	b.RejectPaths = false
	test.That(t, path.Install(b, &p), test.ShouldBeNil)
	b.SetUserCommandedSpeed(80)
	b.Stop()
	test.That(t, b.IsTraversing(), test.ShouldBeFalse)
	test.That(t, b.StopCount, test.ShouldEqual, 1)
	test.That(t, b.UserCommandedSpeed(), test.ShouldEqual, 80)

	gains := base.Gains{K1: 1, K2: 2, PathDistOffsetCapMM: 3, PathAngOffsetCapRad: 4}
	b.SetGains(gains)
	test.That(t, b.Gains(), test.ShouldResemble, gains)
}

func TestLateralDrift(t *testing.T) {
	b := NewBase(spatialmath.NewPose2D(0, 0, 0), nil)
	b.LateralDriftRatio = 0.1

	var p path.Path
	test.That(t, p.AppendLine(path.Line{End: r2.Point{X: 100}, Speed: testSpeed}), test.ShouldBeNil)
	test.That(t, path.Install(b, &p), test.ShouldBeNil)
	runUntilIdle(t, b)
	test.That(t, b.Pose().X, test.ShouldAlmostEqual, 100)
	test.That(t, b.Pose().Y, test.ShouldAlmostEqual, 10)
}
