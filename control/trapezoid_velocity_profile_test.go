package control

import (
	"testing"
	"time"

	"go.viam.com/test"
)

func TestTrapezoidProfileValidation(t *testing.T) {
	_, err := NewTrapezoidProfile(-1, 100, 100, 100, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewTrapezoidProfile(10, 0, 100, 100, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewTrapezoidProfile(10, 100, 0, 100, 0)
	test.That(t, err, test.ShouldNotBeNil)

	p, err := NewTrapezoidProfile(0, 100, 100, 100, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Done(), test.ShouldBeTrue)
	step, vel := p.Next(time.Millisecond)
	test.That(t, step, test.ShouldEqual, 0)
	test.That(t, vel, test.ShouldEqual, 0)
}

func TestTrapezoidProfileCoversDistance(t *testing.T) {
	for _, tc := range []struct {
		name     string
		distance float64
	}{
		{"triangular", 10},
		{"trapezoidal", 400},
	} {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewTrapezoidProfile(tc.distance, 100, 200, 200, 0)
			test.That(t, err, test.ShouldBeNil)

			var total, peak float64
			steps := 0
			for !p.Done() && steps < 10000 {
				step, vel := p.Next(5 * time.Millisecond)
				total += step
				if vel > peak {
					peak = vel
				}
				test.That(t, vel, test.ShouldBeLessThanOrEqualTo, 100)
				steps++
			}
			test.That(t, p.Done(), test.ShouldBeTrue)
			test.That(t, total, test.ShouldAlmostEqual, tc.distance)
			test.That(t, p.Remaining(), test.ShouldAlmostEqual, 0)
			test.That(t, p.Velocity(), test.ShouldEqual, 0)
			if tc.distance > 100 {
				test.That(t, peak, test.ShouldEqual, 100)
			} else {
				test.That(t, peak, test.ShouldBeLessThan, 100)
			}
		})
	}
}
