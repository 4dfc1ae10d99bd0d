package docking

import (
	"sync"

	"go.viam.com/docking/logging"
)

// Status is a progress notification published while a recovery maneuver runs.
type Status uint8

const (
	// StatusBackingUp is published when a retreat starts.
	StatusBackingUp Status = iota
	// StatusDoingCorrectiveManeuver is published when the corrective maneuver starts.
	StatusDoingCorrectiveManeuver
)

func (s Status) String() string {
	switch s {
	case StatusBackingUp:
		return "backing_up"
	case StatusDoingCorrectiveManeuver:
		return "doing_corrective_maneuver"
	}
	return "unknown"
}

// DockingStatus is a timestamped Status.
type DockingStatus struct {
	TimestampMS uint32 `json:"timestamp_ms"`
	Status      Status `json:"status"`
}

// GoalPose is the dock pose the current approach is aimed at.
type GoalPose struct {
	XMM                   float64 `json:"x_mm"`
	YMM                   float64 `json:"y_mm"`
	AngleRad              float64 `json:"angle_rad"`
	FollowingMarkerNormal bool    `json:"following_marker_normal"`
}

// Publisher receives the messages a controller emits for the behavior layer.
type Publisher interface {
	PublishGoalPose(goal GoalPose)
	PublishStatus(status DockingStatus)
}

// NewLogPublisher returns a Publisher that writes every message to logger.
func NewLogPublisher(logger logging.Logger) Publisher {
	return &logPublisher{logger: logger}
}

type logPublisher struct {
	logger logging.Logger
}

func (p *logPublisher) PublishGoalPose(goal GoalPose) {
	p.logger.Debugw("goal pose", "x", goal.XMM, "y", goal.YMM, "angle", goal.AngleRad,
		"following_marker_normal", goal.FollowingMarkerNormal)
}

func (p *logPublisher) PublishStatus(status DockingStatus) {
	p.logger.Infow("docking status", "status", status.Status.String(), "timestamp_ms", status.TimestampMS)
}

// RecordingPublisher keeps every published message. It is safe for concurrent use.
type RecordingPublisher struct {
	mu       sync.Mutex
	goals    []GoalPose
	statuses []DockingStatus
}

// PublishGoalPose records goal.
func (p *RecordingPublisher) PublishGoalPose(goal GoalPose) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.goals = append(p.goals, goal)
}

// PublishStatus records status.
func (p *RecordingPublisher) PublishStatus(status DockingStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statuses = append(p.statuses, status)
}

// GoalPoses returns a copy of the recorded goal poses.
func (p *RecordingPublisher) GoalPoses() []GoalPose {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]GoalPose(nil), p.goals...)
}

// Statuses returns a copy of the recorded statuses.
func (p *RecordingPublisher) Statuses() []DockingStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]DockingStatus(nil), p.statuses...)
}
