package builtin

import (
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"

	fakebase "go.viam.com/docking/components/base/fake"
	fakehead "go.viam.com/docking/components/head/fake"
	fakelift "go.viam.com/docking/components/lift/fake"
	"go.viam.com/docking/logging"
	"go.viam.com/docking/services/docking"
	"go.viam.com/docking/services/localization"
	"go.viam.com/docking/spatialmath"
	"go.viam.com/docking/utils"
)

const tick = 10 * time.Millisecond

var (
	groundMarker = spatialmath.NewPose2D(200, 0, 0)
	startPose    = spatialmath.NewPose2D(50, 0, 0)
)

type carryState struct {
	carrying bool
}

func (cs *carryState) IsCarrying() bool {
	return cs.carrying
}

// harness is a small closed-loop world: a fake base following the controller's paths, a pose
// history fed from it and a camera reporting the marker every tick while enabled.
type harness struct {
	t     *testing.T
	clk   *clock.Mock
	tb    *docking.Timebase
	base  *fakebase.Base
	loc   *localization.HistoryLocalizer
	lift  *fakelift.Lift
	head  *fakehead.Head
	carry *carryState
	pub   *docking.RecordingPublisher
	ctrl  *Controller
	logs  *observer.ObservedLogs

	marker         spatialmath.Pose2D
	markerHeightMM float64
	cameraOn       bool
	cameraHalfFOV  float64
	latencyMS      uint32
}

func newHarness(t *testing.T, cfg docking.Config, robot spatialmath.Pose2D) *harness {
	t.Helper()
	return newHarnessWithDriveCenter(t, cfg, robot, 0)
}

// newHarnessWithDriveCenter builds a harness whose robot turns about a point driveCenterOffsetMM
// behind its origin.
func newHarnessWithDriveCenter(t *testing.T, cfg docking.Config, robot spatialmath.Pose2D, driveCenterOffsetMM float64) *harness {
	t.Helper()
	logger, logs := logging.NewObservedTestLogger(t)
	clk := clock.NewMock()
	h := &harness{
		t:              t,
		clk:            clk,
		tb:             docking.NewTimebase(clk),
		base:           fakebase.NewBase(robot, logger.Sublogger("base")),
		lift:           fakelift.NewLift(0),
		head:           fakehead.NewHead(0),
		carry:          &carryState{},
		pub:            &docking.RecordingPublisher{},
		logs:           logs,
		marker:         groundMarker,
		markerHeightMM: 22,
		cameraOn:       true,
		cameraHalfFOV:  utils.DegToRad(50),
	}
	var err error
	h.loc, err = localization.NewHistoryLocalizer(256, driveCenterOffsetMM)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, h.loc.Update(h.tb.NowMS(), robot), test.ShouldBeNil)

	h.ctrl, err = NewController(cfg, Dependencies{
		Executor:  h.base,
		Steering:  h.base,
		Localizer: h.loc,
		Lift:      h.lift,
		Head:      h.head,
		Carry:     h.carry,
		Publisher: h.pub,
	}, h.tb, logger)
	test.That(t, err, test.ShouldBeNil)
	return h
}

func defaultParams() docking.StartParams {
	return docking.StartParams{
		SpeedMMPerSec:  100,
		AccelMMPerSec2: 200,
		DecelMMPerSec2: 200,
		StandoffXMM:    30,
	}
}

// observe returns what the camera sees of the marker at nowMS.
func (h *harness) observe(nowMS uint32) (docking.ErrorSignal, bool) {
	captured := nowMS - h.latencyMS
	robot, err := h.loc.PoseAt(captured)
	if err != nil {
		return docking.ErrorSignal{}, false
	}
	rel := spatialmath.PoseBetween(robot, h.marker)
	if rel.X <= 0 || math.Abs(math.Atan2(rel.Y, rel.X)) > h.cameraHalfFOV {
		return docking.ErrorSignal{}, false
	}
	return docking.ErrorSignal{
		ForwardDistanceMM: rel.X,
		LateralOffsetMM:   rel.Y,
		AngleOffsetRad:    rel.Theta,
		MarkerHeightMM:    h.markerHeightMM,
		TimestampMS:       captured,
	}, true
}

// signalAt builds a signal for a marker seen from the current robot pose.
func (h *harness) signalAt(forward, lateral, angle float64) docking.ErrorSignal {
	return docking.ErrorSignal{
		ForwardDistanceMM: forward,
		LateralOffsetMM:   lateral,
		AngleOffsetRad:    angle,
		MarkerHeightMM:    h.markerHeightMM,
		TimestampMS:       h.tb.NowMS(),
	}
}

// step advances the world by one tick and runs the controller.
func (h *harness) step() {
	h.clk.Add(tick)
	now := h.tb.NowMS()
	h.base.Step(tick)
	h.lift.Step(tick)
	h.head.Step(tick)
	test.That(h.t, h.loc.Update(now, h.base.Pose()), test.ShouldBeNil)
	if h.cameraOn {
		if signal, ok := h.observe(now); ok {
			h.ctrl.SetErrorSignal(signal)
		}
	}
	h.ctrl.Update()
}

// idle advances time by one tick without moving anything or emitting signals.
func (h *harness) idle() {
	h.clk.Add(tick)
	test.That(h.t, h.loc.Update(h.tb.NowMS(), h.base.Pose()), test.ShouldBeNil)
	h.ctrl.Update()
}

// runUntilIdle steps until the session ends and returns its result.
func (h *harness) runUntilIdle(maxTicks int) docking.Result {
	h.t.Helper()
	for i := 0; i < maxTicks && h.ctrl.IsBusy(); i++ {
		h.step()
	}
	test.That(h.t, h.ctrl.IsBusy(), test.ShouldBeFalse)
	return h.ctrl.Result()
}

// runUntil steps until cond holds.
func (h *harness) runUntil(maxTicks int, cond func() bool) {
	h.t.Helper()
	for i := 0; i < maxTicks && !cond(); i++ {
		h.step()
	}
	test.That(h.t, cond(), test.ShouldBeTrue)
}

func countStatus(statuses []docking.DockingStatus, want docking.Status) int {
	n := 0
	for _, s := range statuses {
		if s.Status == want {
			n++
		}
	}
	return n
}
