package docking

import (
	"math"
	"time"

	"github.com/benbjohnson/clock"
)

// Timebase turns wall time into the millisecond timestamps shared by error signals and the
// pose history.
type Timebase struct {
	clock clock.Clock
	epoch time.Time
}

// NewTimebase returns a Timebase whose epoch is the current time of clk.
func NewTimebase(clk clock.Clock) *Timebase {
	return &Timebase{clock: clk, epoch: clk.Now()}
}

// Clock returns the underlying clock.
func (tb *Timebase) Clock() clock.Clock {
	return tb.clock
}

// NowMS returns the milliseconds elapsed since the epoch.
func (tb *Timebase) NowMS() uint32 {
	return uint32(tb.clock.Since(tb.epoch).Milliseconds())
}

// maxFutureSkewMS bounds how far ahead of now a timestamp may be and still count as future
// rather than as a stamp from before the millisecond clock wrapped.
const maxFutureSkewMS = 60 * 1000

// ElapsedMS returns now-then across wraps of the millisecond clock, or zero when then is
// less than a minute in the future.
func ElapsedMS(now, then uint32) uint32 {
	elapsed := now - then
	if elapsed > math.MaxUint32-maxFutureSkewMS {
		return 0
	}
	return elapsed
}
