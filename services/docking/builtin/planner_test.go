package builtin

import (
	"math"
	"testing"

	"go.viam.com/test"

	"go.viam.com/docking/motionplan/path"
	"go.viam.com/docking/spatialmath"
	"go.viam.com/docking/utils"
)

func TestPlanCorrectiveStartsWhereTheTurnEnds(t *testing.T) {
	turn := utils.DegToRad(15)
	dock := spatialmath.NewPose2D(170, 0, 0)
	speed := lineSpeed(100, 200, 200)

	for _, tc := range []struct {
		name     string
		offsetMM float64
	}{
		{"drive center at the origin", 0},
		{"drive center behind the origin", 20},
		{"drive center ahead of the origin", -10},
	} {
		t.Run(tc.name, func(t *testing.T) {
			robot := spatialmath.NewPose2D(175, 25, 0)
			driveCenter := robot.Translate(-tc.offsetMM)
			p, err := planCorrective(robot, driveCenter, dock, 25, turn, 30, speed)
			test.That(t, err, test.ShouldBeNil)

			segs := p.Segments()
			test.That(t, segs, test.ShouldHaveLength, 2)
			test.That(t, segs[0].Type, test.ShouldEqual, path.SegmentPointTurn)
			test.That(t, segs[0].PointTurn.Center, test.ShouldResemble, driveCenter.Point())
			test.That(t, segs[0].PointTurn.TargetHeading, test.ShouldAlmostEqual, -turn)

			// the origin swung around the drive center by the turn
			wantStart := spatialmath.NewPose2D(
				driveCenter.X+tc.offsetMM*math.Cos(turn),
				driveCenter.Y-tc.offsetMM*math.Sin(turn),
				-turn,
			)
			line := segs[1].Line
			test.That(t, segs[1].Type, test.ShouldEqual, path.SegmentLine)
			test.That(t, line.Start.X, test.ShouldAlmostEqual, wantStart.X, 1e-9)
			test.That(t, line.Start.Y, test.ShouldAlmostEqual, wantStart.Y, 1e-9)
			wantEnd := wantStart.Translate(30)
			test.That(t, line.End.X, test.ShouldAlmostEqual, wantEnd.X, 1e-9)
			test.That(t, line.End.Y, test.ShouldAlmostEqual, wantEnd.Y, 1e-9)
		})
	}

	// right of the dock line turns left
	robot := spatialmath.NewPose2D(175, -25, 0)
	p, err := planCorrective(robot, robot, dock, -25, turn, 30, speed)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Segments()[0].PointTurn.TargetHeading, test.ShouldAlmostEqual, turn)
	test.That(t, p.Segments()[1].Line.Start.X, test.ShouldAlmostEqual, robot.X, 1e-9)
	test.That(t, p.Segments()[1].Line.Start.Y, test.ShouldAlmostEqual, robot.Y, 1e-9)
}
