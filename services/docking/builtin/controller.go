// Package builtin implements the docking session controller: a tick driven state machine that
// turns intermittent marker error signals into an approach path, watches the approach and
// recovers from misaligned docks before reporting one terminal result.
package builtin

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"go.viam.com/docking/components/base"
	"go.viam.com/docking/components/head"
	"go.viam.com/docking/components/lift"
	"go.viam.com/docking/logging"
	"go.viam.com/docking/motionplan/path"
	"go.viam.com/docking/services/docking"
	"go.viam.com/docking/services/localization"
	"go.viam.com/docking/spatialmath"
	"go.viam.com/docking/utils"
)

// arrivedToleranceMM is how close to the end of the approach counts as already there.
const arrivedToleranceMM = 1.0

// Dependencies are the collaborators a Controller drives. Head, Carry and Publisher are
// optional.
type Dependencies struct {
	Executor  path.Executor
	Steering  base.Steering
	Localizer localization.Localizer
	Lift      lift.Lift
	Head      head.Head
	Carry     docking.CarryState
	Publisher docking.Publisher
}

func (d Dependencies) validate() error {
	switch {
	case d.Executor == nil:
		return errors.New("docking requires a path executor")
	case d.Steering == nil:
		return errors.New("docking requires a steering controller")
	case d.Localizer == nil:
		return errors.New("docking requires a localizer")
	case d.Lift == nil:
		return errors.New("docking requires a lift")
	}
	return nil
}

// Controller is the docking session controller. Update must be called once per control tick;
// only SetErrorSignal is safe to call from other goroutines.
type Controller struct {
	logger   logging.Logger
	cfg      docking.Config
	deps     Dependencies
	timebase *docking.Timebase
	fov      fovPredictor
	mailbox  signalMailbox

	method     docking.Method
	maxRetries int

	sess           *session
	lastResult     docking.Result
	lastMarker     spatialmath.Pose2D
	haveLastMarker bool
}

var _ docking.Service = (*Controller)(nil)

// NewController returns an idle controller.
func NewController(
	cfg docking.Config,
	deps Dependencies,
	timebase *docking.Timebase,
	logger logging.Logger,
) (*Controller, error) {
	if err := cfg.Validate("docking"); err != nil {
		return nil, err
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if timebase == nil {
		return nil, errors.New("docking requires a timebase")
	}
	cfg = cfg.WithDefaults()
	if deps.Publisher == nil {
		deps.Publisher = docking.NewLogPublisher(logger.Sublogger("publisher"))
	}
	return &Controller{
		logger:     logger,
		cfg:        cfg,
		deps:       deps,
		timebase:   timebase,
		fov:        newFOVPredictor(cfg.CameraHFOVDeg, cfg.CameraVFOVDeg, cfg.MaxFOVHalfAngleDeg, cfg.MarkerWidthMM, cfg.CameraHeightMM),
		method:     cfg.ParsedMethod(),
		maxRetries: *cfg.MaxRetries,
	}, nil
}

// SetDockingMethod selects the method used by the next session.
func (c *Controller) SetDockingMethod(method docking.Method) error {
	if c.sess != nil {
		return errSessionActive(c.sess.id)
	}
	c.method = method
	return nil
}

func errSessionActive(id uuid.UUID) error {
	return errors.Wrapf(docking.ErrSessionActive, "session %s", id)
}

// SetMaxRetries sets how many retreat-and-retry cycles a session may use.
func (c *Controller) SetMaxRetries(n int) {
	if n < 0 {
		n = 0
	}
	c.maxRetries = n
}

// SetCameraFieldOfView updates the camera field of view used to predict marker visibility.
func (c *Controller) SetCameraFieldOfView(horizontalRad, verticalRad float64) {
	if horizontalRad <= 0 || verticalRad <= 0 {
		c.logger.Warnw("ignoring invalid camera field of view", "horizontal", horizontalRad, "vertical", verticalRad)
		return
	}
	c.fov.hFOVRad = horizontalRad
	c.fov.vFOVRad = verticalRad
}

// SetErrorSignal hands a new marker measurement to the controller. It replaces any signal
// not yet consumed by Update.
func (c *Controller) SetErrorSignal(signal docking.ErrorSignal) {
	c.mailbox.put(signal)
}

// StartDocking starts a marker based session, cancelling any live one.
func (c *Controller) StartDocking(params docking.StartParams) error {
	if err := params.Validate(); err != nil {
		return errors.Wrap(err, "invalid docking parameters")
	}
	c.startSession(params, false)
	return nil
}

// StartDockingToFixedOffset starts an odometric session to the current pose composed with
// the given offset, cancelling any live one. Error signals are ignored for the session.
func (c *Controller) StartDockingToFixedOffset(params docking.FixedOffsetParams) error {
	if err := params.Validate(); err != nil {
		return errors.Wrap(err, "invalid docking parameters")
	}
	s := c.startSession(docking.StartParams{
		SpeedMMPerSec:  params.SpeedMMPerSec,
		AccelMMPerSec2: params.AccelMMPerSec2,
		DecelMMPerSec2: params.DecelMMPerSec2,
	}, true)

	robot := c.deps.Localizer.CurrentPose()
	s.dockPose = robot.Compose(spatialmath.NewPose2D(params.DXMM, params.DYMM, params.DAngleRad))
	c.replan(s, 0)
	return nil
}

func (c *Controller) startSession(params docking.StartParams, fixedOffset bool) *session {
	if c.sess != nil {
		c.logger.Infow("replacing live docking session", "session", c.sess.id.String())
		c.stop(docking.ResultCancelled)
	}
	s := newSession(c.method, params, fixedOffset, c.timebase.NowMS())
	s.savedGains = c.deps.Steering.Gains()
	if c.cfg.DockingGains != nil {
		c.deps.Steering.SetGains(*c.cfg.DockingGains)
	}
	c.sess = s
	c.logger.Infow("docking started",
		"session", s.id.String(),
		"method", s.method.String(),
		"fixed_offset", fixedOffset,
		"speed", params.SpeedMMPerSec,
		"standoff", params.StandoffXMM,
	)
	return s
}

// StopDocking ends the live session with result. It does nothing when idle.
func (c *Controller) StopDocking(result docking.Result) {
	if c.sess == nil {
		c.logger.Debug("StopDocking called with no live session")
		return
	}
	c.stop(result)
}

// stop ends the live session, leaving the base stopped with its own gains.
func (c *Controller) stop(result docking.Result) {
	s := c.sess
	if s == nil {
		return
	}
	c.deps.Steering.SetUserCommandedSpeed(0)
	c.deps.Executor.ClearPath()
	c.deps.Steering.Stop()
	c.deps.Steering.SetGains(s.savedGains)
	c.lastResult = result
	c.sess = nil

	fields := []interface{}{
		"session", s.id.String(),
		"result", result.String(),
		"retries", s.numRetries,
		"corrective_maneuvers", s.numCorrective,
		"dropped_signals", c.mailbox.dropped(),
	}
	if result.Succeeded() || result == docking.ResultCancelled {
		c.logger.Infow("docking finished", fields...)
	} else {
		c.logger.Warnw("docking failed", fields...)
	}
}

// Update runs one control tick.
func (c *Controller) Update() {
	signal, haveSignal := c.mailbox.take()
	s := c.sess
	if s == nil {
		return
	}
	now := c.timebase.NowMS()
	if haveSignal {
		c.handleSignal(s, signal, now)
		if c.sess != s {
			return
		}
	}

	robot := c.deps.Localizer.CurrentPose()
	switch s.mode {
	case docking.ModeLookingForBlock:
		c.checkGiveUp(s, now)
	case docking.ModeApproachingForDock:
		switch s.failure {
		case docking.FailureNone:
			c.updateApproach(s, robot, now)
		case docking.FailureBackingUp:
			c.updateRetreat(s, robot, now)
		case docking.FailureCorrectiveManeuver:
			if !c.deps.Executor.IsTraversing() {
				c.stop(docking.ResultSuccessCorrective)
			}
		}
	case docking.ModeIdle:
	}
}

func (c *Controller) handleSignal(s *session, signal docking.ErrorSignal, now uint32) {
	if !validErrorSignal(signal) {
		c.logger.Debugw("dropping implausible error signal",
			"forward", signal.ForwardDistanceMM, "lateral", signal.LateralOffsetMM, "angle", signal.AngleOffsetRad)
		return
	}
	if s.fixedOffset {
		return
	}
	if signal.MarkerHeightMM > c.cfg.MaxDockMarkerHeightMM {
		c.logger.Warnw("marker is too high to dock with", "marker_height", signal.MarkerHeightMM)
		c.stop(docking.ResultFailureTooHigh)
		return
	}

	captured := signal.TimestampMS
	if captured == 0 {
		captured = now
	}
	s.recordSample(signal, captured)
	if s.failure == docking.FailureCorrectiveManeuver {
		return
	}

	robotAt := robotPoseAt(c.deps.Localizer, signal, now, c.logger)
	marker := markerPoseFrom(robotAt, signal)
	if s.failure == docking.FailureBackingUp {
		c.setMarker(s, marker, signal)
		return
	}

	override := false
	if s.mode == docking.ModeApproachingForDock && s.pathInFlight {
		var accept bool
		accept, override = c.acceptWhileTraversing(s, marker)
		if !accept {
			return
		}
	}
	if s.pathInFlight && !c.deps.Executor.IsTraversing() {
		// the approach just ended; recovery judges it this tick
		return
	}
	c.setMarker(s, marker, signal)
	robot := c.deps.Localizer.CurrentPose()
	c.deps.Publisher.PublishGoalPose(goalPoseFor(robot, s.markerPose, s.dockPose, c.cfg.FollowingNormalToleranceMM))
	if s.pathInFlight && s.pastPointOfNoReturn && !override {
		return
	}
	c.replan(s, now)
}

// acceptWhileTraversing decides whether a signal may replace the marker pose behind the path
// in flight. override is set when the signal must replan even past the point of no return.
func (c *Controller) acceptWhileTraversing(s *session, marker spatialmath.Pose2D) (accept, override bool) {
	if s.params.UseFirstSampleOnly {
		return false, false
	}
	switch s.method {
	case docking.MethodBlind, docking.MethodEvenBlinder:
		return false, false
	case docking.MethodHybrid:
		if !markerJumped(s.markerPose, marker, c.cfg.MarkerJumpPositionMM, utils.DegToRad(c.cfg.MarkerJumpAngleDeg)) {
			s.numLargeJumps = 0
			return false, false
		}
		s.numLargeJumps++
		if s.numLargeJumps < 2 {
			return false, false
		}
		c.logger.Debugw("marker moved twice in a row, replanning", "session", s.id.String())
		s.numLargeJumps = 0
		return true, true
	case docking.MethodContinuousTracking:
		return !s.pastPointOfNoReturn, false
	}
	return false, false
}

func (c *Controller) setMarker(s *session, marker spatialmath.Pose2D, signal docking.ErrorSignal) {
	s.markerPose = marker
	s.haveMarker = true
	s.lastInViewMarker = marker
	s.markerHeightMM = signal.MarkerHeightMM
	s.elevated = signal.MarkerHeightMM > c.cfg.OnGroundMaxMarkerMM
	s.dockPose = dockPoseFrom(marker, s.params)
	if s.lift != nil {
		s.lift.targetHeightMM = c.dockLiftHeight(s)
	}
	c.lastMarker = marker
	c.haveLastMarker = true
}

func (c *Controller) dockLiftHeight(s *session) float64 {
	if s.elevated {
		return c.cfg.HighDockLiftHeightMM
	}
	return c.cfg.LowDockLiftHeightMM
}

func (c *Controller) carrying() bool {
	return c.deps.Carry != nil && c.deps.Carry.IsCarrying()
}

// replan installs a new approach to the session's dock pose. Failures leave the session
// without a path in flight.
func (c *Controller) replan(s *session, now uint32) {
	robot := c.deps.Localizer.CurrentPose()
	overshoot := c.cfg.ContactOvershootMM
	if s.elevated || s.fixedOffset {
		overshoot = 0
	}
	if robot.DistanceTo(s.dockPose.Translate(overshoot)) < arrivedToleranceMM {
		if s.mode == docking.ModeApproachingForDock {
			return
		}
		s.mode = docking.ModeApproachingForDock
		s.failure = docking.FailureNone
		s.pathInFlight = false
		c.onPathComplete(s, robot, now)
		return
	}
	p, err := planApproach(robot, s.dockPose, overshoot,
		lineSpeed(s.params.SpeedMMPerSec, s.params.AccelMMPerSec2, s.params.DecelMMPerSec2))
	if err == nil {
		err = path.Install(c.deps.Executor, &p)
	}
	if err != nil {
		c.logger.Warnw("planning failed", "session", s.id.String(), "dock", s.dockPose.String(), "error", err)
		c.deps.Executor.ClearPath()
		s.pathInFlight = false
		s.plan.Clear()
		return
	}
	s.plan = p
	s.pathInFlight = true
	s.numLargeJumps = 0
	if s.mode != docking.ModeApproachingForDock {
		s.mode = docking.ModeApproachingForDock
		s.failure = docking.FailureNone
		if !s.fixedOffset {
			s.lift = newLiftRamp(c.deps.Lift, c.cfg.LiftRampStartDistanceMM, s.params.StandoffXMM, c.dockLiftHeight(s))
		}
		c.logger.Debugw("approaching dock",
			"session", s.id.String(), "dock", s.dockPose.String(), "length", p.LinearLength(), "now_ms", now)
	}
}

// checkGiveUp runs while looking for the marker. Marker visibility is only predicted while
// approaching, so only the point of no return holds off the timeout here.
func (c *Controller) checkGiveUp(s *session, now uint32) {
	if s.pastPointOfNoReturn {
		return
	}
	if docking.ElapsedMS(now, s.lastSampleTimeMS) > c.cfg.GiveUpTimeoutMS {
		c.logger.Infow("no usable error signal, giving up",
			"session", s.id.String(), "since_ms", docking.ElapsedMS(now, s.lastSampleTimeMS))
		c.stop(docking.ResultFailureNoTarget)
	}
}

func (c *Controller) updateApproach(s *session, robot spatialmath.Pose2D, now uint32) {
	if !s.pathInFlight {
		c.logger.Debugw("approach has no path, waiting for a signal", "session", s.id.String())
		s.returnToLooking()
		return
	}
	if s.lift != nil && !c.carrying() {
		s.lift.update(c.deps.Lift, robot.DistanceTo(s.markerPose))
	}
	if !c.deps.Executor.IsTraversing() {
		s.pathInFlight = false
		c.onPathComplete(s, robot, now)
		return
	}
	if s.fixedOffset {
		return
	}

	c.updateFOV(s, robot, now)
	if !s.pastPointOfNoReturn && !s.markerOutOfFOV &&
		docking.ElapsedMS(now, s.lastSampleTimeMS) > c.cfg.LostTargetTimeoutMS {
		c.logger.Infow("lost the marker, abandoning approach",
			"session", s.id.String(), "since_ms", docking.ElapsedMS(now, s.lastSampleTimeMS))
		c.deps.Executor.ClearPath()
		c.deps.Steering.Stop()
		s.returnToLooking()
	}
}

func (c *Controller) updateFOV(s *session, robot spatialmath.Pose2D, now uint32) {
	if s.pastPointOfNoReturn || !s.haveMarker {
		return
	}
	inView := c.fov.markerInView(robot, s.lastInViewMarker, s.markerHeightMM)
	switch {
	case !inView && !s.markerOutOfFOV:
		s.markerOutOfFOV = true
		c.logger.Debugw("marker expected out of view", "session", s.id.String())
	case inView && s.markerOutOfFOV:
		s.markerOutOfFOV = false
		s.lastSampleTimeMS = now
		c.logger.Debugw("marker expected back in view", "session", s.id.String())
	}
}

// IsBusy reports whether a session is live.
func (c *Controller) IsBusy() bool {
	return c.sess != nil
}

// Result returns the result of the last finished session.
func (c *Controller) Result() docking.Result {
	return c.lastResult
}

// DidLastDockSucceed reports whether the last finished session succeeded.
func (c *Controller) DidLastDockSucceed() bool {
	return c.lastResult.Succeeded()
}

// LastMarkerPose returns the most recent marker pose, if any was ever computed.
func (c *Controller) LastMarkerPose() (spatialmath.Pose2D, bool) {
	return c.lastMarker, c.haveLastMarker
}

// DistanceToLastMarker returns the distance from the robot to the last marker pose.
func (c *Controller) DistanceToLastMarker() (float64, bool) {
	if !c.haveLastMarker {
		return 0, false
	}
	return c.deps.Localizer.CurrentPose().DistanceTo(c.lastMarker), true
}

// Mode returns the mode of the live session, or ModeIdle.
func (c *Controller) Mode() docking.Mode {
	if c.sess == nil {
		return docking.ModeIdle
	}
	return c.sess.mode
}

// FailureState returns the recovery sub-state of the live session.
func (c *Controller) FailureState() docking.FailureState {
	if c.sess == nil {
		return docking.FailureNone
	}
	return c.sess.failure
}

// NumRetries returns how many retreats the live session has used.
func (c *Controller) NumRetries() int {
	if c.sess == nil {
		return 0
	}
	return c.sess.numRetries
}

// PastPointOfNoReturn reports whether the live session has committed to its path.
func (c *Controller) PastPointOfNoReturn() bool {
	return c.sess != nil && c.sess.pastPointOfNoReturn
}

// MarkerOutOfFOV reports whether the marker is predicted to be out of the camera view.
func (c *Controller) MarkerOutOfFOV() bool {
	return c.sess != nil && c.sess.markerOutOfFOV
}

// SessionID returns the ID of the live session.
func (c *Controller) SessionID() (uuid.UUID, bool) {
	if c.sess == nil {
		return uuid.Nil, false
	}
	return c.sess.id, true
}

// DroppedSignals returns how many error signals were overwritten before Update read them.
func (c *Controller) DroppedSignals() uint64 {
	return c.mailbox.dropped()
}
