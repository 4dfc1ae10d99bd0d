// Package base defines the wheel and steering contract of a differential drive base.
package base

import "github.com/pkg/errors"

// Gains are the steering controller gains used while following a path. K1 is the heading
// tracking gain and K2 the crosstrack approach rate. While docking, the path distance and
// angular errors fed to the controller are clipped to the two caps.
type Gains struct {
	K1                  float64 `json:"k1"`
	K2                  float64 `json:"k2"`
	PathDistOffsetCapMM float64 `json:"path_dist_offset_cap_mm"`
	PathAngOffsetCapRad float64 `json:"path_ang_offset_cap_rad"`
}

// DefaultGains are the gains the steering controller boots with.
var DefaultGains = Gains{
	K1:                  0.1,
	K2:                  12,
	PathDistOffsetCapMM: 20,
	PathAngOffsetCapRad: 0.5,
}

// Validate ensures the gains can be installed.
func (g Gains) Validate() error {
	if g.K1 <= 0 || g.K2 <= 0 {
		return errors.Errorf("steering gains must be positive, got k1=%.3f k2=%.3f", g.K1, g.K2)
	}
	if g.PathDistOffsetCapMM <= 0 || g.PathAngOffsetCapRad <= 0 {
		return errors.New("path offset caps must be positive")
	}
	return nil
}

// Steering is the part of the steering/wheel controller the docking controller writes to.
type Steering interface {
	// SetUserCommandedSpeed sets the vehicle speed requested by the user in mm/s.
	SetUserCommandedSpeed(mmPerSec float64)
	UserCommandedSpeed() float64
	// Stop commands zero wheel speed directly, bypassing any path in flight.
	Stop()
	Gains() Gains
	SetGains(gains Gains)
}
