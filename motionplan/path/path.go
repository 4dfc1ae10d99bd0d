// Package path defines the drive paths that the docking controller hands to a path executor:
// an ordered list of straight lines and point turns, each with its own speed profile.
package path

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// minSegmentLengthMM is the shortest line an executor is expected to follow.
const minSegmentLengthMM = 0.1

// ErrEmptyPath is returned when starting a path without segments.
var ErrEmptyPath = errors.New("path has no segments")

// SegmentType tags which member of a Segment is valid.
type SegmentType uint8

const (
	// SegmentLine is a straight line.
	SegmentLine SegmentType = iota
	// SegmentPointTurn is an in-place turn to an absolute heading.
	SegmentPointTurn
)

func (t SegmentType) String() string {
	switch t {
	case SegmentLine:
		return "line"
	case SegmentPointTurn:
		return "point_turn"
	}
	return "unknown"
}

// Speed is the speed profile of one segment. For lines the units are mm/s and mm/s^2 and a
// negative Target drives the line in reverse. For point turns they are rad/s and rad/s^2.
type Speed struct {
	Target float64 `json:"target"`
	Accel  float64 `json:"accel"`
	Decel  float64 `json:"decel"`
}

func (s Speed) validate() error {
	if s.Target == 0 {
		return errors.New("segment speed must be non-zero")
	}
	if s.Accel <= 0 || s.Decel <= 0 {
		return errors.Errorf("segment accel and decel must be positive, got %.2f and %.2f", s.Accel, s.Decel)
	}
	return nil
}

// Line is a straight segment from Start to End.
type Line struct {
	Start r2.Point
	End   r2.Point
	Speed Speed
}

// Length returns the length of the line in mm.
func (l Line) Length() float64 {
	return l.End.Sub(l.Start).Norm()
}

// Reverse reports whether the line is driven backwards.
func (l Line) Reverse() bool {
	return l.Speed.Target < 0
}

// Validate checks that the line can be driven.
func (l Line) Validate() error {
	if l.Length() < minSegmentLengthMM {
		return errors.Errorf("line length %.3fmm is too short", l.Length())
	}
	return l.Speed.validate()
}

// PointTurn turns in place around Center until the heading reaches TargetHeading.
type PointTurn struct {
	Center         r2.Point
	TargetHeading  float64
	Speed          Speed
	AngleTolerance float64
}

// Validate checks that the turn can be executed.
func (pt PointTurn) Validate() error {
	if math.IsNaN(pt.TargetHeading) || math.IsInf(pt.TargetHeading, 0) {
		return errors.New("point turn target heading must be finite")
	}
	if pt.AngleTolerance < 0 {
		return errors.New("point turn angle tolerance must not be negative")
	}
	return pt.Speed.validate()
}

// Segment is a tagged union of a Line and a PointTurn.
type Segment struct {
	Type      SegmentType
	Line      Line
	PointTurn PointTurn
}

// Path is an ordered list of segments. The zero value is an empty path.
type Path struct {
	segments []Segment
}

// Clear removes every segment. The backing array is kept so replanning does not allocate.
func (p *Path) Clear() {
	p.segments = p.segments[:0]
}

// AppendLine validates and appends a line.
func (p *Path) AppendLine(line Line) error {
	if err := line.Validate(); err != nil {
		return err
	}
	p.segments = append(p.segments, Segment{Type: SegmentLine, Line: line})
	return nil
}

// AppendPointTurn validates and appends a point turn.
func (p *Path) AppendPointTurn(turn PointTurn) error {
	if err := turn.Validate(); err != nil {
		return err
	}
	p.segments = append(p.segments, Segment{Type: SegmentPointTurn, PointTurn: turn})
	return nil
}

// Segments returns the segments of the path. The slice must not be modified.
func (p *Path) Segments() []Segment {
	return p.segments
}

// Len returns the number of segments.
func (p *Path) Len() int {
	return len(p.segments)
}

// Empty reports whether the path has no segments.
func (p *Path) Empty() bool {
	return len(p.segments) == 0
}

// LinearLength sums the lengths of all line segments.
func (p *Path) LinearLength() float64 {
	var total float64
	for _, seg := range p.segments {
		if seg.Type == SegmentLine {
			total += seg.Line.Length()
		}
	}
	return total
}

// Executor follows a path. It is implemented by the steering/path-following subsystem; the
// docking controller is its only writer.
type Executor interface {
	// ClearPath stops following the current path and drops its segments.
	ClearPath()
	AppendLine(line Line) error
	AppendPointTurn(turn PointTurn) error
	// StartTraversal begins following the appended segments from the first one.
	StartTraversal() error
	IsTraversing() bool
	// LastSelectedPathIndex is the index of the goal chosen on multi-goal plans.
	LastSelectedPathIndex() int
}

// Install replaces whatever the executor is following with p and starts traversal. On error
// the executor is left cleared.
func Install(exec Executor, p *Path) error {
	exec.ClearPath()
	if p.Empty() {
		return ErrEmptyPath
	}
	for i, seg := range p.segments {
		var err error
		switch seg.Type {
		case SegmentLine:
			err = exec.AppendLine(seg.Line)
		case SegmentPointTurn:
			err = exec.AppendPointTurn(seg.PointTurn)
		default:
			err = errors.Errorf("unknown segment type %d", seg.Type)
		}
		if err != nil {
			exec.ClearPath()
			return errors.Wrapf(err, "executor rejected %s segment %d", seg.Type, i)
		}
	}
	if err := exec.StartTraversal(); err != nil {
		exec.ClearPath()
		return errors.Wrap(err, "executor failed to start traversal")
	}
	return nil
}
