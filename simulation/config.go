package simulation

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/docking/services/docking"
	"go.viam.com/docking/spatialmath"
)

// Defaults for an unconfigured world.
const (
	defaultTickMS              = 10
	defaultMaxDurationSec      = 20
	defaultMarkerHeightMM      = 22
	defaultDriveCenterOffsetMM = 20
	defaultCameraHalfFOVDeg    = 30
	defaultCameraMaxRangeMM    = 600
	defaultSpeedMMPerSec       = 100
	defaultAccelMMPerSec2      = 200
	defaultStandoffXMM         = 30
	historyCapacity            = 512
)

var defaultMarker = spatialmath.NewPose2D(300, 0, 0)

// Interval is a closed range of simulated time in milliseconds since the start of the run.
type Interval struct {
	FromMS uint32 `json:"from_ms"`
	ToMS   uint32 `json:"to_ms"`
}

// Contains reports whether t falls inside the interval.
func (iv Interval) Contains(t uint32) bool {
	return t >= iv.FromMS && t <= iv.ToMS
}

// CameraConfig describes the fake marker detector.
type CameraConfig struct {
	HalfFOVDeg  float64 `json:"half_fov_deg,omitempty"`
	MaxRangeMM  float64 `json:"max_range_mm,omitempty"`
	LatencyMS   uint32  `json:"latency_ms,omitempty"`
	PeriodMS    uint32  `json:"period_ms,omitempty"`
	NoiseMM     float64 `json:"noise_mm,omitempty"`
	NoiseDeg    float64 `json:"noise_deg,omitempty"`
	DropoutProb float64 `json:"dropout_probability,omitempty"`
	// Occlusions are windows during which the marker cannot be seen at all.
	Occlusions []Interval `json:"occlusions,omitempty"`
}

// ApproachConfig holds the start parameters of the docking session the world runs.
type ApproachConfig struct {
	SpeedMMPerSec      float64 `json:"speed_mm_per_sec,omitempty"`
	AccelMMPerSec2     float64 `json:"accel_mm_per_sec2,omitempty"`
	DecelMMPerSec2     float64 `json:"decel_mm_per_sec2,omitempty"`
	StandoffXMM        float64 `json:"standoff_x_mm,omitempty"`
	StandoffYMM        float64 `json:"standoff_y_mm,omitempty"`
	StandoffAngleRad   float64 `json:"standoff_angle_rad,omitempty"`
	PointOfNoReturnMM  float64 `json:"point_of_no_return_mm,omitempty"`
	UseFirstSampleOnly bool    `json:"use_first_sample_only,omitempty"`
}

// StartParams converts the approach into controller start parameters.
func (ac ApproachConfig) StartParams() docking.StartParams {
	return docking.StartParams{
		SpeedMMPerSec:      ac.SpeedMMPerSec,
		AccelMMPerSec2:     ac.AccelMMPerSec2,
		DecelMMPerSec2:     ac.DecelMMPerSec2,
		StandoffXMM:        ac.StandoffXMM,
		StandoffYMM:        ac.StandoffYMM,
		StandoffAngleRad:   ac.StandoffAngleRad,
		PointOfNoReturnMM:  ac.PointOfNoReturnMM,
		UseFirstSampleOnly: ac.UseFirstSampleOnly,
	}
}

// Config describes a simulated docking run.
type Config struct {
	TickMS         uint32 `json:"tick_ms,omitempty"`
	MaxDurationSec uint32 `json:"max_duration_sec,omitempty"`

	Robot               spatialmath.Pose2D  `json:"robot"`
	Marker              *spatialmath.Pose2D `json:"marker,omitempty"`
	MarkerHeightMM      float64             `json:"marker_height_mm,omitempty"`
	DriveCenterOffsetMM *float64            `json:"drive_center_offset_mm,omitempty"`

	Camera   CameraConfig   `json:"camera"`
	Approach ApproachConfig `json:"approach"`
	// FixedOffset, when set, runs a fixed-offset session instead of a marker-driven one.
	FixedOffset *docking.FixedOffsetParams `json:"fixed_offset,omitempty"`

	LateralDriftRatio float64 `json:"lateral_drift_ratio,omitempty"`
	Carrying          bool    `json:"carrying,omitempty"`
	Seed              uint64  `json:"seed,omitempty"`
	// Realtime paces the ticks against the wall clock.
	Realtime bool `json:"realtime,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	var errs error
	if cfg.MarkerHeightMM < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.New("marker_height_mm cannot be negative")))
	}
	if cfg.Camera.HalfFOVDeg < 0 || cfg.Camera.HalfFOVDeg >= 90 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("camera.half_fov_deg must be in [0, 90), got %.1f", cfg.Camera.HalfFOVDeg)))
	}
	if cfg.Camera.MaxRangeMM < 0 || cfg.Camera.NoiseMM < 0 || cfg.Camera.NoiseDeg < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.New("camera range and noise cannot be negative")))
	}
	if cfg.Camera.DropoutProb < 0 || cfg.Camera.DropoutProb > 1 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("camera.dropout_probability must be in [0, 1], got %.2f", cfg.Camera.DropoutProb)))
	}
	for i, iv := range cfg.Camera.Occlusions {
		if iv.ToMS < iv.FromMS {
			errs = multierr.Append(errs, utils.NewConfigValidationError(path,
				errors.Errorf("camera.occlusions[%d] ends before it starts", i)))
		}
	}
	if cfg.FixedOffset != nil {
		if err := cfg.FixedOffset.Validate(); err != nil {
			errs = multierr.Append(errs, utils.NewConfigValidationError(path, err))
		}
	}
	return errs
}

// WithDefaults returns a copy of the config with unset fields filled in.
func (cfg Config) WithDefaults() Config {
	if cfg.TickMS == 0 {
		cfg.TickMS = defaultTickMS
	}
	if cfg.MaxDurationSec == 0 {
		cfg.MaxDurationSec = defaultMaxDurationSec
	}
	if cfg.Marker == nil {
		marker := defaultMarker
		cfg.Marker = &marker
	}
	if cfg.MarkerHeightMM == 0 {
		cfg.MarkerHeightMM = defaultMarkerHeightMM
	}
	if cfg.DriveCenterOffsetMM == nil {
		offset := float64(defaultDriveCenterOffsetMM)
		cfg.DriveCenterOffsetMM = &offset
	}
	if cfg.Camera.HalfFOVDeg == 0 {
		cfg.Camera.HalfFOVDeg = defaultCameraHalfFOVDeg
	}
	if cfg.Camera.MaxRangeMM == 0 {
		cfg.Camera.MaxRangeMM = defaultCameraMaxRangeMM
	}
	if cfg.Camera.PeriodMS == 0 {
		cfg.Camera.PeriodMS = cfg.TickMS
	}
	if cfg.Approach.SpeedMMPerSec == 0 {
		cfg.Approach.SpeedMMPerSec = defaultSpeedMMPerSec
	}
	if cfg.Approach.AccelMMPerSec2 == 0 {
		cfg.Approach.AccelMMPerSec2 = defaultAccelMMPerSec2
	}
	if cfg.Approach.DecelMMPerSec2 == 0 {
		cfg.Approach.DecelMMPerSec2 = cfg.Approach.AccelMMPerSec2
	}
	if cfg.Approach.StandoffXMM == 0 {
		cfg.Approach.StandoffXMM = defaultStandoffXMM
	}
	return cfg
}
