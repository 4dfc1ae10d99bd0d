package fake

import (
	"testing"
	"time"

	"go.viam.com/test"
)

func TestLiftMovesToTarget(t *testing.T) {
	l := NewLift(30)
	test.That(t, l.IsInPosition(), test.ShouldBeTrue)

	l.SetDesiredHeight(60)
	test.That(t, l.IsInPosition(), test.ShouldBeFalse)
	test.That(t, l.DesiredHeight(), test.ShouldEqual, 60)

	l.Step(250 * time.Millisecond)
	test.That(t, l.Height(), test.ShouldAlmostEqual, 45)

	l.Step(time.Second)
	test.That(t, l.Height(), test.ShouldEqual, 60)
	test.That(t, l.IsInPosition(), test.ShouldBeTrue)

	l.SetDesiredHeight(0)
	l.Step(100 * time.Millisecond)
	test.That(t, l.Height(), test.ShouldAlmostEqual, 54)
	test.That(t, l.SetHeightCount, test.ShouldEqual, 2)
}
