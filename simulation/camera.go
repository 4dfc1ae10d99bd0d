package simulation

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"go.viam.com/docking/services/docking"
	"go.viam.com/docking/spatialmath"
	"go.viam.com/docking/utils"
)

// camera is a fake marker detector. It reports the marker as seen from the robot pose at
// capture time, with gaussian noise, random dropouts and scheduled occlusions.
type camera struct {
	cfg        CameraConfig
	halfFOVRad float64

	posNoise distuv.Normal
	angNoise distuv.Normal
	dropout  distuv.Bernoulli

	shotAtMS uint32
	shot     bool
}

func newCamera(cfg CameraConfig, seed uint64) *camera {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &camera{
		cfg:        cfg,
		halfFOVRad: utils.DegToRad(cfg.HalfFOVDeg),
		posNoise:   distuv.Normal{Mu: 0, Sigma: cfg.NoiseMM, Src: src},
		angNoise:   distuv.Normal{Mu: 0, Sigma: utils.DegToRad(cfg.NoiseDeg), Src: src},
		dropout:    distuv.Bernoulli{P: cfg.DropoutProb, Src: src},
	}
}

// due reports whether a frame is taken at nowMS and, if so, marks it taken.
func (c *camera) due(nowMS uint32) bool {
	if c.shot && nowMS-c.shotAtMS < c.cfg.PeriodMS {
		return false
	}
	c.shot = true
	c.shotAtMS = nowMS
	return true
}

// occluded reports whether tMS falls in an occlusion window. Run time starts at zero.
func (c *camera) occluded(tMS uint32) bool {
	for _, iv := range c.cfg.Occlusions {
		if iv.Contains(tMS) {
			return true
		}
	}
	return false
}

// observe returns the error signal for a frame captured at capturedMS from robot.
func (c *camera) observe(
	capturedMS uint32,
	robot, marker spatialmath.Pose2D,
	markerHeightMM float64,
) (docking.ErrorSignal, bool) {
	if c.occluded(capturedMS) {
		return docking.ErrorSignal{}, false
	}
	rel := spatialmath.PoseBetween(robot, marker)
	if rel.X <= 0 || math.Hypot(rel.X, rel.Y) > c.cfg.MaxRangeMM {
		return docking.ErrorSignal{}, false
	}
	if math.Abs(math.Atan2(rel.Y, rel.X)) > c.halfFOVRad {
		return docking.ErrorSignal{}, false
	}
	if c.cfg.DropoutProb > 0 && c.dropout.Rand() == 1 {
		return docking.ErrorSignal{}, false
	}

	signal := docking.ErrorSignal{
		ForwardDistanceMM: rel.X,
		LateralOffsetMM:   rel.Y,
		AngleOffsetRad:    rel.Theta,
		MarkerHeightMM:    markerHeightMM,
		TimestampMS:       capturedMS,
	}
	if c.cfg.NoiseMM > 0 {
		signal.ForwardDistanceMM += c.posNoise.Rand()
		signal.LateralOffsetMM += c.posNoise.Rand()
	}
	if c.cfg.NoiseDeg > 0 {
		signal.AngleOffsetRad += c.angNoise.Rand()
	}
	return signal, true
}
