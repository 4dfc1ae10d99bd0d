// Package config defines the structures to configure the docking controller and the
// simulator it runs in.
package config

import (
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/docking/logging"
	"go.viam.com/docking/services/docking"
	"go.viam.com/docking/simulation"
)

// Config is the top level configuration file.
type Config struct {
	LogLevel   string            `json:"log_level,omitempty"`
	Docking    docking.Config    `json:"docking"`
	Simulation simulation.Config `json:"simulation"`

	ConfigFilePath string `json:"-"`
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate() error {
	var errs error
	if c.LogLevel != "" {
		if _, err := logging.LevelFromString(c.LogLevel); err != nil {
			errs = multierr.Append(errs, utils.NewConfigValidationError("log_level", err))
		}
	}
	errs = multierr.Append(errs, c.Docking.Validate("docking"))
	errs = multierr.Append(errs, c.Simulation.Validate("simulation"))
	return errs
}

// Level returns the configured log level, INFO when unset.
func (c *Config) Level() logging.Level {
	if c.LogLevel == "" {
		return logging.INFO
	}
	level, err := logging.LevelFromString(c.LogLevel)
	if err != nil {
		return logging.INFO
	}
	return level
}

// AttributeMap is a convenience wrapper for a decoded json object.
type AttributeMap map[string]interface{}

// Has returns whether the given key is in the attributes.
func (am AttributeMap) Has(name string) bool {
	_, has := am[name]
	return has
}
