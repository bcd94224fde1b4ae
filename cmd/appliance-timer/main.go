// Command appliance-timer switches a relay on a daily schedule, with front
// panel buttons for override and manual mode, and reports over MQTT and HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/sweeney/appliance-timer/internal/config"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "appliance-timer"
	app.HelpName = "appliance-timer"
	app.Usage = "switch an appliance on a daily schedule"
	app.Version = version
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "YAML config file (defaults are used when empty)",
			EnvVar: "TIMER_CONFIG",
		},
		cli.StringFlag{
			Name:  "env-file",
			Usage: "env file to load before reading the environment (e.g. /run/pi-helper.env)",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "development logging at debug level",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "run the timer daemon",
			Action: runCmd,
		},
		{
			Name:   "schedule",
			Usage:  "print the schedule and the entry in effect now",
			Action: scheduleCmd,
		},
		{
			Name:   "check",
			Usage:  "validate the configuration and exit",
			Action: checkCmd,
		},
		{
			Name:   "state",
			Usage:  "print the current button state and exit",
			Action: stateCmd,
		},
	}
	app.Action = runCmd
	return app
}

// loadConfig reads the env file, config file and environment, in that order.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	if err := config.LoadEnvFile(ctx.GlobalString("env-file")); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(ctx.GlobalString("config"))
	if err != nil {
		return cfg, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
