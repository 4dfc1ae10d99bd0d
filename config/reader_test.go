package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/docking/logging"
	"go.viam.com/docking/services/docking"
	"go.viam.com/docking/spatialmath"
)

func TestFromReaderValidate(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := FromReader("somepath", strings.NewReader(""), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "EOF")

	_, err = FromReader("somepath", strings.NewReader(`[1, 2]`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to decode")

	conf, err := FromReader("somepath", strings.NewReader(`{}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf, test.ShouldResemble, &Config{
		ConfigFilePath: "somepath",
	})

	_, err = FromReader("somepath", strings.NewReader(`{"docking": {"methd": "blind"}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "methd")

	_, err = FromReader("somepath", strings.NewReader(`{"docking": {"method": "sideways"}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"docking"`)

	_, err = FromReader("somepath", strings.NewReader(`{"log_level": "loud"}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown log level")

	_, err = FromReader("somepath", strings.NewReader(`{"simulation": {"camera": {"dropout_probability": 2}}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "dropout_probability")
}

func TestFromReaderDecodesEverySection(t *testing.T) {
	logger := logging.NewTestLogger(t)
	conf, err := FromReader("somepath", strings.NewReader(`{
		"log_level": "debug",
		"docking": {
			"method": "hybrid",
			"max_retries": 0,
			"lost_target_timeout_ms": 750,
			"retreat_head_angle_deg": -20,
			"docking_gains": {"k1": 0.2, "k2": 10, "path_dist_offset_cap_mm": 15, "path_ang_offset_cap_rad": 0.4}
		},
		"simulation": {
			"tick_ms": 20,
			"robot": {"x": 10, "y": -5, "theta": 0},
			"marker": {"x": 400, "y": 0, "theta": 0},
			"camera": {"latency_ms": 60, "occlusions": [{"from_ms": 100, "to_ms": 300}]},
			"approach": {"speed_mm_per_sec": 80, "point_of_no_return_mm": 60},
			"seed": 3
		}
	}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.Level(), test.ShouldEqual, logging.DEBUG)

	test.That(t, conf.Docking.ParsedMethod(), test.ShouldEqual, docking.MethodHybrid)
	test.That(t, conf.Docking.MaxRetries, test.ShouldNotBeNil)
	test.That(t, *conf.Docking.MaxRetries, test.ShouldEqual, 0)
	test.That(t, conf.Docking.LostTargetTimeoutMS, test.ShouldEqual, 750)
	test.That(t, *conf.Docking.RetreatHeadAngleDeg, test.ShouldEqual, -20)
	test.That(t, conf.Docking.DockingGains, test.ShouldNotBeNil)
	test.That(t, conf.Docking.DockingGains.K2, test.ShouldEqual, 10)

	sim := conf.Simulation
	test.That(t, sim.TickMS, test.ShouldEqual, 20)
	test.That(t, sim.Robot, test.ShouldResemble, spatialmath.Pose2D{X: 10, Y: -5})
	test.That(t, *sim.Marker, test.ShouldResemble, spatialmath.Pose2D{X: 400})
	test.That(t, sim.Camera.LatencyMS, test.ShouldEqual, 60)
	test.That(t, sim.Camera.Occlusions, test.ShouldHaveLength, 1)
	test.That(t, sim.Camera.Occlusions[0].ToMS, test.ShouldEqual, 300)
	test.That(t, sim.Approach.SpeedMMPerSec, test.ShouldEqual, 80)
	test.That(t, sim.Approach.PointOfNoReturnMM, test.ShouldEqual, 60)
	test.That(t, sim.Seed, test.ShouldEqual, 3)
}

func TestReadSubstitutesEnvironment(t *testing.T) {
	logger := logging.NewTestLogger(t)
	t.Setenv("DOCKING_METHOD", "continuous_tracking")
	t.Setenv("DOCKING_SPEED", "120")

	path := filepath.Join(t.TempDir(), "docking.json")
	test.That(t, os.WriteFile(path, []byte(`{
		"docking": {"method": "${DOCKING_METHOD}"},
		"simulation": {"approach": {"speed_mm_per_sec": ${DOCKING_SPEED}}}
	}`), 0o600), test.ShouldBeNil)

	conf, err := Read(path, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, conf.Docking.ParsedMethod(), test.ShouldEqual, docking.MethodContinuousTracking)
	test.That(t, conf.Simulation.Approach.SpeedMMPerSec, test.ShouldEqual, 120)

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"), logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLevel(t *testing.T) {
	test.That(t, (&Config{}).Level(), test.ShouldEqual, logging.INFO)
	test.That(t, (&Config{LogLevel: "WARN"}).Level(), test.ShouldEqual, logging.WARN)
}
