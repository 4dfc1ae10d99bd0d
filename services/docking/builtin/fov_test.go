package builtin

import (
	"math"
	"testing"

	"go.viam.com/test"

	"go.viam.com/docking/spatialmath"
	"go.viam.com/docking/utils"
)

func TestFOVPredictor(t *testing.T) {
	// 60deg camera, clamped to a 20deg half width
	f := newFOVPredictor(60, 45, 20, 25, 20)
	test.That(t, f.halfWidth(), test.ShouldAlmostEqual, utils.DegToRad(20))

	robot := spatialmath.NewPose2D(0, 0, 0)
	for _, tc := range []struct {
		name   string
		marker spatialmath.Pose2D
		height float64
		inView bool
	}{
		{"straight ahead", spatialmath.NewPose2D(200, 0, 0), 20, true},
		{"behind", spatialmath.NewPose2D(-200, 0, 0), 20, false},
		{"off to the side", spatialmath.NewPose2D(200, 100, 0), 20, false},
		// 10deg bearing is inside the half width but the marker edge is not at close range
		{"edge clipped up close", spatialmath.NewPose2D(40*math.Cos(0.17), 40*math.Sin(0.17), 0), 20, false},
		{"edge fits far away", spatialmath.NewPose2D(400*math.Cos(0.17), 400*math.Sin(0.17), 0), 20, true},
		{"too high up close", spatialmath.NewPose2D(60, 0, 0), 120, false},
		{"high far away", spatialmath.NewPose2D(400, 0, 0), 120, true},
		{"on top of it", spatialmath.NewPose2D(0, 0, 0), 20, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			test.That(t, f.markerInView(robot, tc.marker, tc.height), test.ShouldEqual, tc.inView)
		})
	}

	// a narrow camera uses its own half width
	narrow := newFOVPredictor(20, 45, 20, 25, 20)
	test.That(t, narrow.halfWidth(), test.ShouldAlmostEqual, utils.DegToRad(10))
	turned := spatialmath.NewPose2D(0, 0, utils.DegToRad(15))
	test.That(t, f.markerInView(turned, spatialmath.NewPose2D(400, 0, 0), 20), test.ShouldBeTrue)
	test.That(t, narrow.markerInView(turned, spatialmath.NewPose2D(400, 0, 0), 20), test.ShouldBeFalse)
}
