package docking

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/docking/components/base"
)

// Defaults used for any Config field left at its zero value.
const (
	DefaultMethod                     = MethodBlind
	DefaultMaxRetries                 = 2
	DefaultMaxCorrectiveManeuvers     = 1
	DefaultGiveUpTimeoutMS            = 1000
	DefaultLostTargetTimeoutMS        = 500
	DefaultRecentSampleWindowMS       = 200
	DefaultCameraHFOVDeg              = 60
	DefaultCameraVFOVDeg              = 45
	DefaultMaxFOVHalfAngleDeg         = 20
	DefaultCameraHeightMM             = 20
	DefaultMarkerWidthMM              = 25
	DefaultContactOvershootMM         = 5
	DefaultOnGroundMaxMarkerMM        = 45
	DefaultMaxDockMarkerHeightMM      = 120
	DefaultLowDockLiftHeightMM        = 32
	DefaultHighDockLiftHeightMM       = 76
	DefaultLiftRampStartDistanceMM    = 120
	DefaultRetreatDistanceMM          = 60
	DefaultRetreatSpeedMMPerSec       = 60
	DefaultRetreatHeadAngleDeg        = -15
	DefaultForwardToleranceMM         = 10
	DefaultLateralToleranceMM         = 3
	DefaultLateralToleranceHighMM     = 5
	DefaultHeadingToleranceDeg        = 10
	DefaultCorrectiveMaxLateralMM     = 30
	DefaultCorrectiveMaxForwardMM     = 20
	DefaultCorrectiveMaxHeadingDeg    = 15
	DefaultCorrectiveTurnDeg          = 15
	DefaultCorrectiveAdvanceMM        = 30
	DefaultMarkerJumpPositionMM       = 10
	DefaultMarkerJumpAngleDeg         = 5
	DefaultFollowingNormalToleranceMM = 5
)

// Config holds the tuning of a docking controller. Distances are in millimeters, angles in
// degrees and durations in milliseconds.
type Config struct {
	Method                 string `json:"method,omitempty"`
	MaxRetries             *int   `json:"max_retries,omitempty"`
	MaxCorrectiveManeuvers *int   `json:"max_corrective_maneuvers,omitempty"`

	GiveUpTimeoutMS      uint32 `json:"give_up_timeout_ms,omitempty"`
	LostTargetTimeoutMS  uint32 `json:"lost_target_timeout_ms,omitempty"`
	RecentSampleWindowMS uint32 `json:"recent_sample_window_ms,omitempty"`

	CameraHFOVDeg         float64 `json:"camera_hfov_deg,omitempty"`
	CameraVFOVDeg         float64 `json:"camera_vfov_deg,omitempty"`
	MaxFOVHalfAngleDeg    float64 `json:"max_fov_half_angle_deg,omitempty"`
	CameraHeightMM        float64 `json:"camera_height_mm,omitempty"`
	MarkerWidthMM         float64 `json:"marker_width_mm,omitempty"`
	ContactOvershootMM    float64 `json:"contact_overshoot_mm,omitempty"`
	OnGroundMaxMarkerMM   float64 `json:"on_ground_max_marker_mm,omitempty"`
	MaxDockMarkerHeightMM float64 `json:"max_dock_marker_height_mm,omitempty"`

	LowDockLiftHeightMM     float64 `json:"low_dock_lift_height_mm,omitempty"`
	HighDockLiftHeightMM    float64 `json:"high_dock_lift_height_mm,omitempty"`
	LiftRampStartDistanceMM float64 `json:"lift_ramp_start_distance_mm,omitempty"`

	RetreatDistanceMM    float64  `json:"retreat_distance_mm,omitempty"`
	RetreatSpeedMMPerSec float64  `json:"retreat_speed_mm_per_sec,omitempty"`
	RetreatHeadAngleDeg  *float64 `json:"retreat_head_angle_deg,omitempty"`

	ForwardToleranceMM     float64 `json:"forward_tolerance_mm,omitempty"`
	LateralToleranceMM     float64 `json:"lateral_tolerance_mm,omitempty"`
	LateralToleranceHighMM float64 `json:"lateral_tolerance_high_mm,omitempty"`
	HeadingToleranceDeg    float64 `json:"heading_tolerance_deg,omitempty"`

	CorrectiveMaxLateralMM  float64 `json:"corrective_max_lateral_mm,omitempty"`
	CorrectiveMaxForwardMM  float64 `json:"corrective_max_forward_mm,omitempty"`
	CorrectiveMaxHeadingDeg float64 `json:"corrective_max_heading_deg,omitempty"`
	CorrectiveTurnDeg       float64 `json:"corrective_turn_deg,omitempty"`
	CorrectiveAdvanceMM     float64 `json:"corrective_advance_mm,omitempty"`

	MarkerJumpPositionMM       float64 `json:"marker_jump_position_mm,omitempty"`
	MarkerJumpAngleDeg         float64 `json:"marker_jump_angle_deg,omitempty"`
	FollowingNormalToleranceMM float64 `json:"following_normal_tolerance_mm,omitempty"`

	DockingGains *base.Gains `json:"docking_gains,omitempty"`
}

// Validate returns every problem found in the config, prefixed with path.
func (cfg *Config) Validate(path string) error {
	var errs error
	if cfg.Method != "" {
		if _, err := MethodFromString(cfg.Method); err != nil {
			errs = multierr.Append(errs, utils.NewConfigValidationError(path, err))
		}
	}
	if cfg.MaxRetries != nil && *cfg.MaxRetries < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("max_retries must not be negative, got %d", *cfg.MaxRetries)))
	}
	if cfg.MaxCorrectiveManeuvers != nil && *cfg.MaxCorrectiveManeuvers < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("max_corrective_maneuvers must not be negative, got %d", *cfg.MaxCorrectiveManeuvers)))
	}
	for name, v := range map[string]float64{
		"camera_hfov_deg":             cfg.CameraHFOVDeg,
		"camera_vfov_deg":             cfg.CameraVFOVDeg,
		"max_fov_half_angle_deg":      cfg.MaxFOVHalfAngleDeg,
		"marker_width_mm":             cfg.MarkerWidthMM,
		"contact_overshoot_mm":        cfg.ContactOvershootMM,
		"on_ground_max_marker_mm":     cfg.OnGroundMaxMarkerMM,
		"max_dock_marker_height_mm":   cfg.MaxDockMarkerHeightMM,
		"low_dock_lift_height_mm":     cfg.LowDockLiftHeightMM,
		"high_dock_lift_height_mm":    cfg.HighDockLiftHeightMM,
		"lift_ramp_start_distance_mm": cfg.LiftRampStartDistanceMM,
		"retreat_distance_mm":         cfg.RetreatDistanceMM,
		"retreat_speed_mm_per_sec":    cfg.RetreatSpeedMMPerSec,
		"forward_tolerance_mm":        cfg.ForwardToleranceMM,
		"lateral_tolerance_mm":        cfg.LateralToleranceMM,
		"lateral_tolerance_high_mm":   cfg.LateralToleranceHighMM,
		"heading_tolerance_deg":       cfg.HeadingToleranceDeg,
		"corrective_max_lateral_mm":   cfg.CorrectiveMaxLateralMM,
		"corrective_max_forward_mm":   cfg.CorrectiveMaxForwardMM,
		"corrective_max_heading_deg":  cfg.CorrectiveMaxHeadingDeg,
		"corrective_turn_deg":         cfg.CorrectiveTurnDeg,
		"corrective_advance_mm":       cfg.CorrectiveAdvanceMM,
		"marker_jump_position_mm":     cfg.MarkerJumpPositionMM,
		"marker_jump_angle_deg":       cfg.MarkerJumpAngleDeg,
	} {
		if v < 0 || math.IsNaN(v) {
			errs = multierr.Append(errs, utils.NewConfigValidationError(path,
				errors.Errorf("%s must not be negative, got %v", name, v)))
		}
	}
	if cfg.OnGroundMaxMarkerMM > 0 && cfg.MaxDockMarkerHeightMM > 0 &&
		cfg.OnGroundMaxMarkerMM >= cfg.MaxDockMarkerHeightMM {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.New("on_ground_max_marker_mm must be below max_dock_marker_height_mm")))
	}
	if cfg.DockingGains != nil {
		if err := cfg.DockingGains.Validate(); err != nil {
			errs = multierr.Append(errs, utils.NewConfigValidationError(path, err))
		}
	}
	return errs
}

// WithDefaults returns a copy of cfg with every unset field filled in.
func (cfg Config) WithDefaults() Config {
	if cfg.Method == "" {
		cfg.Method = DefaultMethod.String()
	}
	if cfg.MaxRetries == nil {
		n := DefaultMaxRetries
		cfg.MaxRetries = &n
	}
	if cfg.MaxCorrectiveManeuvers == nil {
		n := DefaultMaxCorrectiveManeuvers
		cfg.MaxCorrectiveManeuvers = &n
	}
	if cfg.RetreatHeadAngleDeg == nil {
		a := float64(DefaultRetreatHeadAngleDeg)
		cfg.RetreatHeadAngleDeg = &a
	}
	setUint := func(v *uint32, def uint32) {
		if *v == 0 {
			*v = def
		}
	}
	setUint(&cfg.GiveUpTimeoutMS, DefaultGiveUpTimeoutMS)
	setUint(&cfg.LostTargetTimeoutMS, DefaultLostTargetTimeoutMS)
	setUint(&cfg.RecentSampleWindowMS, DefaultRecentSampleWindowMS)

	setFloat := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	setFloat(&cfg.CameraHFOVDeg, DefaultCameraHFOVDeg)
	setFloat(&cfg.CameraVFOVDeg, DefaultCameraVFOVDeg)
	setFloat(&cfg.MaxFOVHalfAngleDeg, DefaultMaxFOVHalfAngleDeg)
	setFloat(&cfg.CameraHeightMM, DefaultCameraHeightMM)
	setFloat(&cfg.MarkerWidthMM, DefaultMarkerWidthMM)
	setFloat(&cfg.ContactOvershootMM, DefaultContactOvershootMM)
	setFloat(&cfg.OnGroundMaxMarkerMM, DefaultOnGroundMaxMarkerMM)
	setFloat(&cfg.MaxDockMarkerHeightMM, DefaultMaxDockMarkerHeightMM)
	setFloat(&cfg.LowDockLiftHeightMM, DefaultLowDockLiftHeightMM)
	setFloat(&cfg.HighDockLiftHeightMM, DefaultHighDockLiftHeightMM)
	setFloat(&cfg.LiftRampStartDistanceMM, DefaultLiftRampStartDistanceMM)
	setFloat(&cfg.RetreatDistanceMM, DefaultRetreatDistanceMM)
	setFloat(&cfg.RetreatSpeedMMPerSec, DefaultRetreatSpeedMMPerSec)
	setFloat(&cfg.ForwardToleranceMM, DefaultForwardToleranceMM)
	setFloat(&cfg.LateralToleranceMM, DefaultLateralToleranceMM)
	setFloat(&cfg.LateralToleranceHighMM, DefaultLateralToleranceHighMM)
	setFloat(&cfg.HeadingToleranceDeg, DefaultHeadingToleranceDeg)
	setFloat(&cfg.CorrectiveMaxLateralMM, DefaultCorrectiveMaxLateralMM)
	setFloat(&cfg.CorrectiveMaxForwardMM, DefaultCorrectiveMaxForwardMM)
	setFloat(&cfg.CorrectiveMaxHeadingDeg, DefaultCorrectiveMaxHeadingDeg)
	setFloat(&cfg.CorrectiveTurnDeg, DefaultCorrectiveTurnDeg)
	setFloat(&cfg.CorrectiveAdvanceMM, DefaultCorrectiveAdvanceMM)
	setFloat(&cfg.MarkerJumpPositionMM, DefaultMarkerJumpPositionMM)
	setFloat(&cfg.MarkerJumpAngleDeg, DefaultMarkerJumpAngleDeg)
	setFloat(&cfg.FollowingNormalToleranceMM, DefaultFollowingNormalToleranceMM)
	return cfg
}

// ParsedMethod returns the configured method, falling back to DefaultMethod.
func (cfg *Config) ParsedMethod() Method {
	m, err := MethodFromString(cfg.Method)
	if err != nil {
		return DefaultMethod
	}
	return m
}
