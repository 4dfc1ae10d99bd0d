package main

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"go.viam.com/docking/config"
	"go.viam.com/docking/logging"
	"go.viam.com/docking/services/docking"
	"go.viam.com/docking/simulation"
)

const (
	// Flags.
	flagConfig   = "config"
	flagMethod   = "method"
	flagPlot     = "plot"
	flagDebug    = "debug"
	flagRealtime = "realtime"
	flagSeed     = "seed"
	flagRetries  = "max-retries"
	flagLogFile  = "log-file"

	logFileMaxSizeMB  = 16
	logFileMaxBackups = 3
)

func newApp(logger logging.Logger) *cli.App {
	var logFile *lumberjack.Logger
	return &cli.App{
		Name:  "dockingsim",
		Usage: "simulate docking sessions",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "also write logs to `FILE`, rotated by size",
			},
		},
		Before: func(c *cli.Context) error {
			if path := c.String(flagLogFile); path != "" {
				logFile = &lumberjack.Logger{
					Filename:   path,
					MaxSize:    logFileMaxSizeMB,
					MaxBackups: logFileMaxBackups,
				}
				logger.AddAppender(logging.NewWriterAppender(logFile))
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if logFile == nil {
				return nil
			}
			return logFile.Close()
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run one docking session and print its report",
				UsageText: "dockingsim run [--config FILE] [--method METHOD] [--plot FILE]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagConfig,
						Aliases: []string{"c"},
						Usage:   "load configuration from `FILE`",
					},
					&cli.StringFlag{
						Name:  flagMethod,
						Usage: "docking method: blind, even_blinder, hybrid or continuous_tracking",
					},
					&cli.StringFlag{
						Name:  flagPlot,
						Usage: "write the trajectory plot to `FILE` (png, svg or pdf)",
					},
					&cli.BoolFlag{
						Name:  flagRealtime,
						Usage: "pace the simulation against the wall clock",
					},
					&cli.Uint64Flag{
						Name:  flagSeed,
						Usage: "seed for camera noise and dropouts",
					},
					&cli.IntFlag{
						Name:  flagRetries,
						Usage: "override the retry budget",
					},
				},
				Action: func(c *cli.Context) error {
					return runAction(c, logger)
				},
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the configuration file",
				Action: schemaAction,
			},
		},
	}
}

// loadConfig reads the config file, if any, and applies the command line overrides.
func loadConfig(c *cli.Context, logger logging.Logger) (*config.Config, error) {
	cfg := &config.Config{}
	if path := c.String(flagConfig); path != "" {
		var err error
		cfg, err = config.Read(path, logger)
		if err != nil {
			return nil, err
		}
	}
	if method := c.String(flagMethod); method != "" {
		if _, err := docking.MethodFromString(method); err != nil {
			return nil, err
		}
		cfg.Docking.Method = method
	}
	if c.IsSet(flagRetries) {
		n := c.Int(flagRetries)
		cfg.Docking.MaxRetries = &n
	}
	if c.IsSet(flagSeed) {
		cfg.Simulation.Seed = c.Uint64(flagSeed)
	}
	if c.Bool(flagRealtime) {
		cfg.Simulation.Realtime = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runAction(c *cli.Context, logger logging.Logger) error {
	cfg, err := loadConfig(c, logger)
	if err != nil {
		return err
	}
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	} else {
		logger.SetLevel(cfg.Level())
	}

	world, err := simulation.NewWorld(cfg.Simulation, cfg.Docking, logger.Sublogger("sim"))
	if err != nil {
		return err
	}
	report, err := world.Run(c.Context)
	if err != nil {
		return errors.Wrap(err, "simulation interrupted")
	}
	fmt.Fprintln(c.App.Writer, report.Table())

	if path := c.String(flagPlot); path != "" {
		if err := report.Plot(path); err != nil {
			return err
		}
		logger.Infow("wrote trajectory plot", "path", path)
	}
	if !report.Result.Succeeded() {
		return errors.Errorf("docking failed: %s", report.Result)
	}
	return nil
}

func schemaAction(c *cli.Context) error {
	schema := jsonschema.Reflect(&config.Config{})
	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return errors.Wrap(err, "cannot encode schema")
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}
