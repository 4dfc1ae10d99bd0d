// Package fake implements a fake differential base that follows docking paths kinematically.
// It is both the path executor and the steering controller of the simulation and records
// every pose it passes through into a pose history.
package fake

import (
	"math"
	"sync"
	"time"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/docking/components/base"
	"go.viam.com/docking/control"
	"go.viam.com/docking/logging"
	"go.viam.com/docking/motionplan/path"
	"go.viam.com/docking/spatialmath"
)

// Base is a fake base. Step must be called once per tick to move it.
type Base struct {
	mu     sync.Mutex
	logger logging.Logger

	pose     spatialmath.Pose2D
	segments []path.Segment
	current  int
	profile  *control.TrapezoidProfile
	// direction of travel of the current line segment
	lineDir    float64
	traversing bool
	// linear speed carried into the next path when one replaces another mid-line
	speed float64

	userSpeed float64
	gains     base.Gains

	// RejectPaths makes StartTraversal fail, like an executor refusing a plan.
	RejectPaths bool
	// LateralDriftRatio shifts the robot to its left by this fraction of every mm driven.
	LateralDriftRatio float64
	StopCount         int
	PathsStarted      int
}

// NewBase returns a fake base sitting at pose.
func NewBase(pose spatialmath.Pose2D, logger logging.Logger) *Base {
	return &Base{pose: pose, gains: base.DefaultGains, current: -1, logger: logger}
}

// Pose returns the true pose of the base.
func (b *Base) Pose() spatialmath.Pose2D {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pose
}

// SetPose teleports the base.
func (b *Base) SetPose(pose spatialmath.Pose2D) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pose = pose
}

// ClearPath drops the current path.
func (b *Base) ClearPath() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearPath()
}

func (b *Base) clearPath() {
	b.segments = b.segments[:0]
	b.current = -1
	b.profile = nil
	b.traversing = false
}

// AppendLine queues a line.
func (b *Base) AppendLine(line path.Line) error {
	if err := line.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.segments = append(b.segments, path.Segment{Type: path.SegmentLine, Line: line})
	return nil
}

// AppendPointTurn queues a point turn.
func (b *Base) AppendPointTurn(turn path.PointTurn) error {
	if err := turn.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.segments = append(b.segments, path.Segment{Type: path.SegmentPointTurn, PointTurn: turn})
	return nil
}

// StartTraversal starts following the queued segments.
func (b *Base) StartTraversal() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.RejectPaths {
		return errors.New("fake base configured to reject paths")
	}
	if len(b.segments) == 0 {
		return path.ErrEmptyPath
	}
	b.current = -1
	if err := b.startNextSegment(b.speed); err != nil {
		b.clearPath()
		return err
	}
	b.traversing = true
	b.PathsStarted++
	return nil
}

// IsTraversing reports whether a path is being followed.
func (b *Base) IsTraversing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.traversing
}

// LastSelectedPathIndex always returns 0; the fake base only follows single goal paths.
func (b *Base) LastSelectedPathIndex() int {
	return 0
}

// SetUserCommandedSpeed records the commanded speed.
func (b *Base) SetUserCommandedSpeed(mmPerSec float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.userSpeed = mmPerSec
}

// UserCommandedSpeed returns the commanded speed.
func (b *Base) UserCommandedSpeed() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.userSpeed
}

// Stop stops the wheels and abandons the path.
func (b *Base) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearPath()
	b.speed = 0
	b.StopCount++
}

// Gains returns the installed steering gains.
func (b *Base) Gains() base.Gains {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gains
}

// SetGains installs new steering gains.
func (b *Base) SetGains(gains base.Gains) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gains = gains
}

func (b *Base) startNextSegment(startVel float64) error {
	b.current++
	if b.current >= len(b.segments) {
		b.clearPath()
		b.speed = 0
		return nil
	}
	seg := b.segments[b.current]
	var err error
	switch seg.Type {
	case path.SegmentLine:
		// The robot drives from wherever it is to the end of the line.
		delta := seg.Line.End.Sub(b.pose.Point())
		dist := delta.Norm()
		b.lineDir = math.Atan2(delta.Y, delta.X)
		if seg.Line.Reverse() {
			b.pose.Theta = spatialmath.NormalizeAngle(b.lineDir + math.Pi)
		} else {
			b.pose.Theta = b.lineDir
		}
		sp := seg.Line.Speed
		b.profile, err = control.NewTrapezoidProfile(dist, math.Abs(sp.Target), sp.Accel, sp.Decel, startVel)
	case path.SegmentPointTurn:
		b.speed = 0
		turn := seg.PointTurn
		angle := math.Abs(spatialmath.AngleDiff(turn.TargetHeading, b.pose.Theta))
		b.profile, err = control.NewTrapezoidProfile(angle, math.Abs(turn.Speed.Target), turn.Speed.Accel, turn.Speed.Decel, 0)
	}
	if err != nil {
		return errors.Wrapf(err, "cannot start segment %d", b.current)
	}
	if b.logger != nil {
		b.logger.Debugw("starting segment", "index", b.current, "type", seg.Type.String())
	}
	return nil
}

// Step advances the base by dt along the path being followed.
func (b *Base) Step(dt time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.traversing || b.profile == nil {
		return
	}
	seg := b.segments[b.current]
	stepDist, vel := b.profile.Next(dt)
	switch seg.Type {
	case path.SegmentLine:
		b.speed = vel
		if seg.Line.Reverse() {
			b.speed = 0
		}
		dir := spatialmath.NewPose2D(0, 0, b.lineDir).Heading()
		pt := b.pose.Point().Add(dir.Mul(stepDist))
		if b.LateralDriftRatio != 0 {
			pt = pt.Add(b.pose.Heading().Ortho().Mul(b.LateralDriftRatio * stepDist))
		}
		b.pose = spatialmath.NewPose2DFromPoint(pt, b.pose.Theta)
		if b.profile.Done() && b.LateralDriftRatio == 0 {
			b.pose = spatialmath.NewPose2DFromPoint(seg.Line.End, b.pose.Theta)
		}
	case path.SegmentPointTurn:
		turn := seg.PointTurn
		diff := spatialmath.AngleDiff(turn.TargetHeading, b.pose.Theta)
		delta := math.Copysign(stepDist, diff)
		if b.profile.Done() {
			delta = diff
		}
		b.pose = rotateAbout(b.pose, turn.Center, delta)
	}
	if b.profile.Done() {
		if err := b.startNextSegment(0); err != nil && b.logger != nil {
			b.logger.Warnw("abandoning path", "error", err)
			b.clearPath()
		}
	}
}

// rotateAbout turns pose by delta radians around center.
func rotateAbout(pose spatialmath.Pose2D, center r2.Point, delta float64) spatialmath.Pose2D {
	offset := pose.Point().Sub(center)
	sin, cos := math.Sincos(delta)
	rotated := r2.Point{X: offset.X*cos - offset.Y*sin, Y: offset.X*sin + offset.Y*cos}
	return spatialmath.NewPose2DFromPoint(center.Add(rotated), spatialmath.NormalizeAngle(pose.Theta+delta))
}
