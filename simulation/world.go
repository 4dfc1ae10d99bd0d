// Package simulation runs the docking controller in a closed loop against fake components: a
// kinematic base, a lift, a head and a camera reporting the marker.
package simulation

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.viam.com/utils"

	fakebase "go.viam.com/docking/components/base/fake"
	fakehead "go.viam.com/docking/components/head/fake"
	fakelift "go.viam.com/docking/components/lift/fake"
	"go.viam.com/docking/logging"
	"go.viam.com/docking/services/docking"
	"go.viam.com/docking/services/docking/builtin"
	"go.viam.com/docking/services/localization"
	"go.viam.com/docking/spatialmath"
	dutils "go.viam.com/docking/utils"
)

type carryState struct {
	carrying bool
}

func (cs *carryState) IsCarrying() bool {
	return cs.carrying
}

// TracePoint is the state of the world after one tick.
type TracePoint struct {
	TimeMS   uint32
	Pose     spatialmath.Pose2D
	Mode     docking.Mode
	LiftMM   float64
	SpeedCmd float64
}

// World is a simulated robot and marker driven by a builtin docking controller.
type World struct {
	cfg    Config
	logger logging.Logger
	tick   time.Duration

	clk    *clock.Mock
	tb     *docking.Timebase
	base   *fakebase.Base
	loc    *localization.HistoryLocalizer
	lift   *fakelift.Lift
	head   *fakehead.Head
	camera *camera
	pub    *docking.RecordingPublisher
	ctrl   *builtin.Controller

	marker      spatialmath.Pose2D
	signalsSent atomic.Int64
	trace       []TracePoint
}

// NewWorld builds a world from cfg with a controller configured by dockCfg.
func NewWorld(cfg Config, dockCfg docking.Config, logger logging.Logger) (*World, error) {
	if err := cfg.Validate("simulation"); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	clk := clock.NewMock()
	w := &World{
		cfg:    cfg,
		logger: logger,
		tick:   time.Duration(cfg.TickMS) * time.Millisecond,
		clk:    clk,
		tb:     docking.NewTimebase(clk),
		base:   fakebase.NewBase(cfg.Robot, logger.Sublogger("base")),
		lift:   fakelift.NewLift(0),
		head:   fakehead.NewHead(0),
		camera: newCamera(cfg.Camera, cfg.Seed),
		pub:    &docking.RecordingPublisher{},
		marker: *cfg.Marker,
	}
	w.base.LateralDriftRatio = cfg.LateralDriftRatio

	var err error
	w.loc, err = localization.NewHistoryLocalizer(historyCapacity, *cfg.DriveCenterOffsetMM)
	if err != nil {
		return nil, err
	}
	if err := w.loc.Update(w.tb.NowMS(), cfg.Robot); err != nil {
		return nil, err
	}

	w.ctrl, err = builtin.NewController(dockCfg, builtin.Dependencies{
		Executor:  w.base,
		Steering:  w.base,
		Localizer: w.loc,
		Lift:      w.lift,
		Head:      w.head,
		Carry:     &carryState{carrying: cfg.Carrying},
		Publisher: w.pub,
	}, w.tb, logger.Sublogger("docking"))
	if err != nil {
		return nil, errors.Wrap(err, "cannot build docking controller")
	}
	vfov := dockCfg.WithDefaults().CameraVFOVDeg
	w.ctrl.SetCameraFieldOfView(2*dutils.DegToRad(cfg.Camera.HalfFOVDeg), dutils.DegToRad(vfov))
	return w, nil
}

// Controller returns the controller under test.
func (w *World) Controller() *builtin.Controller {
	return w.ctrl
}

// Start begins the configured docking session.
func (w *World) Start() error {
	if w.cfg.FixedOffset != nil {
		return w.ctrl.StartDockingToFixedOffset(*w.cfg.FixedOffset)
	}
	return w.ctrl.StartDocking(w.cfg.Approach.StartParams())
}

// Step advances the world by one tick and runs one controller update.
func (w *World) Step() {
	w.clk.Add(w.tick)
	now := w.tb.NowMS()
	w.base.Step(w.tick)
	w.lift.Step(w.tick)
	w.head.Step(w.tick)

	pose := w.base.Pose()
	if err := w.loc.Update(now, pose); err != nil {
		w.logger.Warnw("cannot record pose", "error", err)
	}
	if !w.cfg.Realtime {
		w.capture(now)
	}
	w.ctrl.Update()

	w.trace = append(w.trace, TracePoint{
		TimeMS:   now,
		Pose:     pose,
		Mode:     w.ctrl.Mode(),
		LiftMM:   w.lift.Height(),
		SpeedCmd: w.base.UserCommandedSpeed(),
	})
}

func (w *World) capture(now uint32) {
	if !w.camera.due(now) || now < w.cfg.Camera.LatencyMS {
		return
	}
	captured := now - w.cfg.Camera.LatencyMS
	robot, err := w.loc.PoseAt(captured)
	if err != nil {
		w.logger.Debugw("no pose for frame", "captured", captured, "error", err)
		return
	}
	signal, ok := w.camera.observe(captured, robot, w.marker, w.cfg.MarkerHeightMM)
	if !ok {
		return
	}
	w.signalsSent.Inc()
	w.ctrl.SetErrorSignal(signal)
}

// cameraLoop takes frames on the wall clock, independently of the controller ticks.
func (w *World) cameraLoop(ctx context.Context) {
	period := time.Duration(w.cfg.Camera.PeriodMS) * time.Millisecond
	for utils.SelectContextOrWait(ctx, period) {
		w.capture(w.tb.NowMS())
	}
}

// Run starts the session and ticks until it ends, the configured duration runs out or ctx is
// done. A run that hits the duration limit is cancelled and reported as timed out. In realtime
// mode the camera runs in its own goroutine.
func (w *World) Run(ctx context.Context) (*Report, error) {
	if err := w.Start(); err != nil {
		return nil, err
	}
	var workers *dutils.StoppableWorkers
	if w.cfg.Realtime {
		workers = dutils.NewStoppableWorkers(ctx, w.cameraLoop)
	}
	timedOut, err := w.loop(ctx)
	if workers != nil {
		workers.Stop()
	}
	return w.report(timedOut), err
}

func (w *World) loop(ctx context.Context) (bool, error) {
	maxTicks := int(w.cfg.MaxDurationSec * 1000 / w.cfg.TickMS)
	for i := 0; w.ctrl.IsBusy(); i++ {
		if i >= maxTicks {
			w.logger.Warnw("simulation ran out of time", "max_duration_sec", w.cfg.MaxDurationSec)
			w.ctrl.StopDocking(docking.ResultCancelled)
			return true, nil
		}
		if w.cfg.Realtime {
			if !utils.SelectContextOrWait(ctx, w.tick) {
				w.ctrl.StopDocking(docking.ResultCancelled)
				return false, ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			w.ctrl.StopDocking(docking.ResultCancelled)
			return false, err
		}
		w.Step()
	}
	return false, nil
}

// idealDockPose is where a perfect session would leave the robot.
func (w *World) idealDockPose() spatialmath.Pose2D {
	if fo := w.cfg.FixedOffset; fo != nil {
		return w.cfg.Robot.Compose(spatialmath.NewPose2D(fo.DXMM, fo.DYMM, fo.DAngleRad))
	}
	a := w.cfg.Approach
	return w.marker.Compose(spatialmath.NewPose2D(-a.StandoffXMM, a.StandoffYMM, a.StandoffAngleRad))
}

func (w *World) report(timedOut bool) *Report {
	final := w.base.Pose()
	statuses := w.pub.Statuses()
	r := &Report{
		Result:         w.ctrl.Result(),
		TimedOut:       timedOut,
		Duration:       time.Duration(w.tb.NowMS()) * time.Millisecond,
		Start:          w.cfg.Robot,
		Marker:         w.marker,
		FinalPose:      final,
		DockError:      spatialmath.PoseBetween(w.idealDockPose(), final),
		SignalsSent:    int(w.signalsSent.Load()),
		SignalsDropped: w.ctrl.DroppedSignals(),
		GoalPoses:      w.pub.GoalPoses(),
		Statuses:       statuses,
		Trace:          w.trace,
	}
	for _, s := range statuses {
		switch s.Status {
		case docking.StatusBackingUp:
			r.Retries++
		case docking.StatusDoingCorrectiveManeuver:
			r.CorrectiveManeuvers++
		}
	}
	return r
}
