package builtin

import (
	"math"

	"go.viam.com/docking/motionplan/path"
	"go.viam.com/docking/services/docking"
	"go.viam.com/docking/spatialmath"
	"go.viam.com/docking/utils"
)

// onPathComplete judges where the finished approach left the robot and ends the session or
// starts a recovery maneuver.
func (c *Controller) onPathComplete(s *session, robot spatialmath.Pose2D, now uint32) {
	if s.fixedOffset || s.method == docking.MethodEvenBlinder {
		c.stop(s.successResult())
		return
	}

	dockErr, source := dockErrorFromPose(s.dockPose, robot), "odometry"
	if s.haveSample && docking.ElapsedMS(now, s.lastSampleAtMS) <= c.cfg.RecentSampleWindowMS {
		dockErr, source = dockErrorFromSignal(s.lastSample, s.params), "signal"
	}
	c.logger.Debugw("approach finished",
		"session", s.id.String(),
		"path_index", c.deps.Executor.LastSelectedPathIndex(),
		"source", source,
		"forward_err", dockErr.X,
		"lateral_err", dockErr.Y,
		"heading_err", dockErr.Theta,
	)

	switch {
	case c.inPosition(s, dockErr):
		c.stop(s.successResult())
	case c.canCorrect(s, dockErr):
		c.startCorrective(s, robot, dockErr, now)
	default:
		c.retreat(s, robot, now)
	}
}

func (c *Controller) inPosition(s *session, dockErr dockError) bool {
	lateralTol := c.cfg.LateralToleranceMM
	if s.elevated {
		lateralTol = c.cfg.LateralToleranceHighMM
	}
	return math.Abs(dockErr.X) <= c.cfg.ForwardToleranceMM &&
		math.Abs(dockErr.Y) <= lateralTol &&
		math.Abs(dockErr.Theta) <= utils.DegToRad(c.cfg.HeadingToleranceDeg)
}

func (c *Controller) canCorrect(s *session, dockErr dockError) bool {
	if s.numCorrective >= *c.cfg.MaxCorrectiveManeuvers || s.elevated || c.carrying() {
		return false
	}
	return math.Abs(dockErr.Y) <= c.cfg.CorrectiveMaxLateralMM &&
		math.Abs(dockErr.X) <= c.cfg.CorrectiveMaxForwardMM &&
		math.Abs(dockErr.Theta) <= utils.DegToRad(c.cfg.CorrectiveMaxHeadingDeg)
}

func (c *Controller) startCorrective(s *session, robot spatialmath.Pose2D, dockErr dockError, now uint32) {
	p, err := planCorrective(
		robot, c.deps.Localizer.DriveCenterPose(), s.dockPose,
		dockErr.Y, utils.DegToRad(c.cfg.CorrectiveTurnDeg), c.cfg.CorrectiveAdvanceMM,
		lineSpeed(s.params.SpeedMMPerSec, s.params.AccelMMPerSec2, s.params.DecelMMPerSec2),
	)
	if err == nil {
		err = path.Install(c.deps.Executor, &p)
	}
	if err != nil {
		c.logger.Warnw("cannot start corrective maneuver, retreating instead", "session", s.id.String(), "error", err)
		c.retreat(s, robot, now)
		return
	}
	s.numCorrective++
	s.failure = docking.FailureCorrectiveManeuver
	s.plan = p
	s.pathInFlight = true
	s.lift = nil
	c.logger.Infow("starting corrective maneuver", "session", s.id.String(), "lateral_err", dockErr.Y)
	c.deps.Publisher.PublishStatus(docking.DockingStatus{TimestampMS: now, Status: docking.StatusDoingCorrectiveManeuver})
}

// retreat backs away from the marker to retry, or fails the session once the retry budget
// is spent.
func (c *Controller) retreat(s *session, robot spatialmath.Pose2D, now uint32) {
	s.numRetries++
	if s.numRetries > c.maxRetries {
		c.stop(docking.ResultFailureTooManyRetries)
		return
	}
	c.logger.Infow("not docked, backing up to retry",
		"session", s.id.String(), "attempt", s.numRetries, "max_retries", c.maxRetries)

	if !c.carrying() {
		c.deps.Lift.SetDesiredHeight(c.dockLiftHeight(s))
	}
	if c.deps.Head != nil {
		c.deps.Head.SetDesiredAngle(utils.DegToRad(*c.cfg.RetreatHeadAngleDeg))
	}
	c.deps.Publisher.PublishStatus(docking.DockingStatus{TimestampMS: now, Status: docking.StatusBackingUp})

	p, err := planRetreat(robot, c.cfg.RetreatDistanceMM, c.cfg.RetreatSpeedMMPerSec, s.params.AccelMMPerSec2)
	if err == nil {
		err = path.Install(c.deps.Executor, &p)
	}
	if err != nil {
		c.logger.Warnw("cannot back up, looking for the marker from here", "session", s.id.String(), "error", err)
		c.finishRetreat(s, robot, now)
		return
	}
	s.failure = docking.FailureBackingUp
	s.backingOffRef = robot
	s.plan = p
	s.pathInFlight = true
	s.lift = nil
}

func (c *Controller) updateRetreat(s *session, robot spatialmath.Pose2D, now uint32) {
	if c.deps.Executor.IsTraversing() && robot.DistanceTo(s.backingOffRef) < c.cfg.RetreatDistanceMM {
		return
	}
	if c.deps.Executor.IsTraversing() {
		c.deps.Executor.ClearPath()
	}
	c.finishRetreat(s, robot, now)
}

// finishRetreat waits for a fresh signal to plan the next attempt from. The point of no
// return follows the distance to the last known marker from where the retreat ended.
func (c *Controller) finishRetreat(s *session, robot spatialmath.Pose2D, now uint32) {
	s.returnToLooking()
	if s.haveMarker {
		s.updatePointOfNoReturn(robot.DistanceTo(s.markerPose))
	}
	s.lastSampleTimeMS = now
	c.logger.Debugw("retreat finished, looking for the marker", "session", s.id.String())
}
