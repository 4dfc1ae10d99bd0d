// Package docking defines the docking session service used by the behavior layer to align
// the robot with a tracked marker: docking methods, terminal results, the error signals
// coming from vision, the messages published while docking, and the collaborators a
// controller drives.
package docking

import (
	"math"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/docking/spatialmath"
)

// ErrSessionActive is returned by operations that are not allowed while a session is live.
var ErrSessionActive = errors.New("a docking session is active")

// Method selects how new error signals are used once an approach path is in flight.
type Method uint8

const (
	// MethodBlind plans from the first usable signal and then ignores signals until the path
	// finishes.
	MethodBlind Method = iota
	// MethodEvenBlinder is MethodBlind that also trusts the path to have docked the robot when
	// it finishes, skipping the in-position check.
	MethodEvenBlinder
	// MethodHybrid ignores signals while a path is in flight unless the marker pose jumps by a
	// large amount twice in a row.
	MethodHybrid
	// MethodContinuousTracking replans on every signal until the point of no return.
	MethodContinuousTracking
)

var methodNames = map[Method]string{
	MethodBlind:              "blind",
	MethodEvenBlinder:        "even_blinder",
	MethodHybrid:             "hybrid",
	MethodContinuousTracking: "continuous_tracking",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return "unknown"
}

// MethodFromString parses a method name as written in config files.
func MethodFromString(name string) (Method, error) {
	for m, n := range methodNames {
		if strings.EqualFold(n, name) {
			return m, nil
		}
	}
	return MethodBlind, errors.Errorf("unknown docking method %q", name)
}

// Result is the terminal outcome of a docking session.
type Result uint8

const (
	// ResultNone means no session has finished yet.
	ResultNone Result = iota
	// ResultSuccess is a plain success.
	ResultSuccess
	// ResultSuccessRetries is a success after one or more retreat-and-retry cycles.
	ResultSuccessRetries
	// ResultSuccessCorrective is a success via the short corrective maneuver.
	ResultSuccessCorrective
	// ResultFailureNoTarget means no usable error signal arrived for too long.
	ResultFailureNoTarget
	// ResultFailureTooManyRetries means the retreat budget ran out.
	ResultFailureTooManyRetries
	// ResultFailureTooHigh means the marker is above the docking ceiling.
	ResultFailureTooHigh
	// ResultCancelled means the session was stopped from outside.
	ResultCancelled
)

func (r Result) String() string {
	switch r {
	case ResultNone:
		return "none"
	case ResultSuccess:
		return "success"
	case ResultSuccessRetries:
		return "success_after_retries"
	case ResultSuccessCorrective:
		return "success_corrective_maneuver"
	case ResultFailureNoTarget:
		return "failure_too_long_without_target"
	case ResultFailureTooManyRetries:
		return "failure_too_many_retries"
	case ResultFailureTooHigh:
		return "failure_target_too_high"
	case ResultCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Succeeded reports whether r is one of the success results.
func (r Result) Succeeded() bool {
	return r == ResultSuccess || r == ResultSuccessRetries || r == ResultSuccessCorrective
}

// Mode is the top level state of the controller.
type Mode uint8

const (
	// ModeIdle means no session is live.
	ModeIdle Mode = iota
	// ModeLookingForBlock waits for an error signal to plan from.
	ModeLookingForBlock
	// ModeApproachingForDock follows an approach path (or a recovery maneuver).
	ModeApproachingForDock
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeLookingForBlock:
		return "looking_for_block"
	case ModeApproachingForDock:
		return "approaching_for_dock"
	}
	return "unknown"
}

// FailureState is the recovery sub-state of ModeApproachingForDock.
type FailureState uint8

const (
	// FailureNone means no recovery maneuver is running.
	FailureNone FailureState = iota
	// FailureBackingUp means the robot is retreating to retry the approach.
	FailureBackingUp
	// FailureCorrectiveManeuver means the short corrective maneuver is running.
	FailureCorrectiveManeuver
)

func (f FailureState) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureBackingUp:
		return "backing_up"
	case FailureCorrectiveManeuver:
		return "corrective_maneuver"
	}
	return "unknown"
}

// maxPlausibleAngle is the largest marker angle offset vision can report credibly.
var maxPlausibleAngle = 0.75 * (math.Pi / 2)

// ErrorSignal is one relative measurement of the marker from the vision collaborator. The
// marker is ForwardDistanceMM ahead of the robot and LateralOffsetMM to its left; its
// normal is rotated AngleOffsetRad from the robot heading. TimestampMS is when the image was
// taken; zero means "now".
type ErrorSignal struct {
	ForwardDistanceMM float64 `json:"forward_distance_mm"`
	LateralOffsetMM   float64 `json:"lateral_offset_mm"`
	AngleOffsetRad    float64 `json:"angle_offset_rad"`
	MarkerHeightMM    float64 `json:"marker_height_mm"`
	TimestampMS       uint32  `json:"timestamp_ms"`
}

// Plausible reports whether the signal could come from a real marker in front of the robot.
func (s ErrorSignal) Plausible() bool {
	return s.ForwardDistanceMM >= 0 && math.Abs(s.AngleOffsetRad) < maxPlausibleAngle
}

// Distance returns the straight line distance to the marker.
func (s ErrorSignal) Distance() float64 {
	return math.Hypot(s.ForwardDistanceMM, s.LateralOffsetMM)
}

// StartParams configure a marker based docking session. Standoff values describe the dock
// pose relative to the marker: StandoffXMM behind it, StandoffYMM to its left and rotated by
// StandoffAngleRad. A PointOfNoReturnMM of zero disables the point of no return.
type StartParams struct {
	SpeedMMPerSec      float64
	AccelMMPerSec2     float64
	DecelMMPerSec2     float64
	StandoffXMM        float64
	StandoffYMM        float64
	StandoffAngleRad   float64
	PointOfNoReturnMM  float64
	UseFirstSampleOnly bool
}

// Validate checks the parameters.
func (p StartParams) Validate() error {
	if p.SpeedMMPerSec <= 0 || p.AccelMMPerSec2 <= 0 || p.DecelMMPerSec2 <= 0 {
		return errors.Errorf("speed, accel and decel must be positive, got %.1f, %.1f, %.1f",
			p.SpeedMMPerSec, p.AccelMMPerSec2, p.DecelMMPerSec2)
	}
	if p.StandoffXMM < 0 {
		return errors.Errorf("standoff distance must not be negative, got %.1f", p.StandoffXMM)
	}
	if p.PointOfNoReturnMM < 0 {
		return errors.Errorf("point of no return must not be negative, got %.1f", p.PointOfNoReturnMM)
	}
	return nil
}

// FixedOffsetParams configure an odometric docking session to a pose offset from the
// robot's current pose.
type FixedOffsetParams struct {
	SpeedMMPerSec  float64 `json:"speed_mm_per_sec"`
	AccelMMPerSec2 float64 `json:"accel_mm_per_sec2"`
	DecelMMPerSec2 float64 `json:"decel_mm_per_sec2"`
	DXMM           float64 `json:"dx_mm"`
	DYMM           float64 `json:"dy_mm"`
	DAngleRad      float64 `json:"dangle_rad"`
}

// Validate checks the parameters.
func (p FixedOffsetParams) Validate() error {
	if p.SpeedMMPerSec <= 0 || p.AccelMMPerSec2 <= 0 || p.DecelMMPerSec2 <= 0 {
		return errors.Errorf("speed, accel and decel must be positive, got %.1f, %.1f, %.1f",
			p.SpeedMMPerSec, p.AccelMMPerSec2, p.DecelMMPerSec2)
	}
	return nil
}

// CarryState reports whether the robot is holding an object on its lift.
type CarryState interface {
	IsCarrying() bool
}

// Service is the docking session API used by the behavior layer. Update must be called once
// per control tick from a single goroutine; SetErrorSignal may be called from any goroutine.
type Service interface {
	SetDockingMethod(method Method) error
	StartDocking(params StartParams) error
	StartDockingToFixedOffset(params FixedOffsetParams) error
	StopDocking(result Result)
	Update()
	SetErrorSignal(signal ErrorSignal)
	SetMaxRetries(n int)
	SetCameraFieldOfView(horizontalRad, verticalRad float64)

	IsBusy() bool
	DidLastDockSucceed() bool
	Result() Result
	LastMarkerPose() (spatialmath.Pose2D, bool)
	DistanceToLastMarker() (float64, bool)
}
