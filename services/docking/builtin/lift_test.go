package builtin

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/docking/components/lift/fake"
)

func TestLiftRamp(t *testing.T) {
	l := fake.NewLift(0)
	r := newLiftRamp(l, 120, 30, 76)

	test.That(t, r.heightAt(200), test.ShouldEqual, 0)
	test.That(t, r.update(l, 200), test.ShouldBeFalse)
	test.That(t, l.SetHeightCount, test.ShouldEqual, 0)

	test.That(t, r.update(l, 75), test.ShouldBeTrue)
	test.That(t, l.DesiredHeight(), test.ShouldAlmostEqual, 38)

	// backing away never lowers it
	test.That(t, r.update(l, 110), test.ShouldBeFalse)
	test.That(t, l.DesiredHeight(), test.ShouldAlmostEqual, 38)

	test.That(t, r.update(l, 30), test.ShouldBeTrue)
	test.That(t, l.DesiredHeight(), test.ShouldAlmostEqual, 76)
	test.That(t, r.update(l, 10), test.ShouldBeFalse)
	test.That(t, l.DesiredHeight(), test.ShouldAlmostEqual, 76)
	test.That(t, l.SetHeightCount, test.ShouldEqual, 2)
}

func TestLiftRampAlreadyHigh(t *testing.T) {
	l := fake.NewLift(90)
	r := newLiftRamp(l, 120, 30, 32)
	for _, d := range []float64{150, 100, 50, 0} {
		test.That(t, r.update(l, d), test.ShouldBeFalse)
	}
	test.That(t, l.DesiredHeight(), test.ShouldEqual, 90)
	test.That(t, l.SetHeightCount, test.ShouldEqual, 0)
}
