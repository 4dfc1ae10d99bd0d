package localization

import (
	"github.com/pkg/errors"

	"go.viam.com/docking/spatialmath"
)

var (
	// ErrNoHistory is returned when no pose has been recorded yet.
	ErrNoHistory = errors.New("pose history is empty")
	// ErrTooOld is returned for timestamps older than the oldest recorded pose.
	ErrTooOld = errors.New("timestamp is older than the pose history")
	// ErrTooNew is returned for timestamps newer than the latest recorded pose.
	ErrTooNew = errors.New("timestamp is newer than the pose history")
)

type timedPose struct {
	timestampMS uint32
	pose        spatialmath.Pose2D
}

// History is a fixed size ring buffer of timestamped poses. Lookups between two recorded
// poses interpolate linearly.
type History struct {
	entries []timedPose
	start   int
	size    int
}

// NewHistory returns an empty history holding at most capacity poses.
func NewHistory(capacity int) (*History, error) {
	if capacity < 2 {
		return nil, errors.Errorf("pose history capacity must be at least 2, got %d", capacity)
	}
	return &History{entries: make([]timedPose, capacity)}, nil
}

// Len returns the number of recorded poses.
func (h *History) Len() int {
	return h.size
}

func (h *History) at(i int) timedPose {
	return h.entries[(h.start+i)%len(h.entries)]
}

// Add records pose at timestampMS. Timestamps must not go backwards; a repeated timestamp
// replaces the latest pose.
func (h *History) Add(timestampMS uint32, pose spatialmath.Pose2D) error {
	if h.size > 0 {
		last := h.at(h.size - 1)
		switch {
		case timestampMS < last.timestampMS:
			return errors.Errorf("timestamp %d is older than latest %d", timestampMS, last.timestampMS)
		case timestampMS == last.timestampMS:
			h.entries[(h.start+h.size-1)%len(h.entries)].pose = pose
			return nil
		}
	}
	if h.size == len(h.entries) {
		h.entries[h.start] = timedPose{timestampMS, pose}
		h.start = (h.start + 1) % len(h.entries)
		return nil
	}
	h.entries[(h.start+h.size)%len(h.entries)] = timedPose{timestampMS, pose}
	h.size++
	return nil
}

// Latest returns the most recent pose and its timestamp.
func (h *History) Latest() (uint32, spatialmath.Pose2D, error) {
	if h.size == 0 {
		return 0, spatialmath.Pose2D{}, ErrNoHistory
	}
	last := h.at(h.size - 1)
	return last.timestampMS, last.pose, nil
}

// PoseAt returns the pose at timestampMS.
func (h *History) PoseAt(timestampMS uint32) (spatialmath.Pose2D, error) {
	if h.size == 0 {
		return spatialmath.Pose2D{}, ErrNoHistory
	}
	first, last := h.at(0), h.at(h.size-1)
	if timestampMS < first.timestampMS {
		return spatialmath.Pose2D{}, errors.Wrapf(ErrTooOld, "oldest is %d, asked for %d", first.timestampMS, timestampMS)
	}
	if timestampMS > last.timestampMS {
		return spatialmath.Pose2D{}, errors.Wrapf(ErrTooNew, "latest is %d, asked for %d", last.timestampMS, timestampMS)
	}

	// Binary search for the first entry at or after timestampMS.
	lo, hi := 0, h.size-1
	for lo < hi {
		mid := (lo + hi) / 2
		if h.at(mid).timestampMS < timestampMS {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	after := h.at(lo)
	if after.timestampMS == timestampMS || lo == 0 {
		return after.pose, nil
	}
	before := h.at(lo - 1)
	by := float64(timestampMS-before.timestampMS) / float64(after.timestampMS-before.timestampMS)
	return spatialmath.Interpolate(before.pose, after.pose, by), nil
}
