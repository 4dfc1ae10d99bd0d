// Package localization provides the robot pose as a service: the current pose, the pose of
// the drive center and the pose the robot had at a past timestamp.
package localization

import (
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/docking/spatialmath"
)

// Localizer is the position service consumed by the docking controller. Timestamps are
// milliseconds on the same clock as the error signals.
type Localizer interface {
	CurrentPose() spatialmath.Pose2D
	// DriveCenterPose is the pose of the point the robot turns about.
	DriveCenterPose() spatialmath.Pose2D
	PoseAt(timestampMS uint32) (spatialmath.Pose2D, error)
}

// HistoryLocalizer is a Localizer backed by a History. The robot origin is the camera/lift
// end; the drive center sits driveCenterOffsetMM behind it.
type HistoryLocalizer struct {
	mu                  sync.Mutex
	history             *History
	current             spatialmath.Pose2D
	driveCenterOffsetMM float64
}

// NewHistoryLocalizer returns a localizer remembering up to capacity poses.
func NewHistoryLocalizer(capacity int, driveCenterOffsetMM float64) (*HistoryLocalizer, error) {
	history, err := NewHistory(capacity)
	if err != nil {
		return nil, err
	}
	return &HistoryLocalizer{history: history, driveCenterOffsetMM: driveCenterOffsetMM}, nil
}

// Update records pose as the current pose at timestampMS.
func (hl *HistoryLocalizer) Update(timestampMS uint32, pose spatialmath.Pose2D) error {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	if err := hl.history.Add(timestampMS, pose); err != nil {
		return errors.Wrap(err, "cannot record pose")
	}
	hl.current = pose
	return nil
}

// CurrentPose returns the last recorded pose.
func (hl *HistoryLocalizer) CurrentPose() spatialmath.Pose2D {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	return hl.current
}

// DriveCenterPose returns the current pose moved back to the drive center.
func (hl *HistoryLocalizer) DriveCenterPose() spatialmath.Pose2D {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	return hl.current.Translate(-hl.driveCenterOffsetMM)
}

// PoseAt looks up the pose at timestampMS in the history.
func (hl *HistoryLocalizer) PoseAt(timestampMS uint32) (spatialmath.Pose2D, error) {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	return hl.history.PoseAt(timestampMS)
}
