package cmd

import (
	"io"

	"github.com/achilleasa/sbvh/config"
	"github.com/achilleasa/sbvh/log"
	"github.com/urfave/cli"
)

var logger = log.New("sbvh")

// Load the configuration file passed via the global --config flag and set
// up logging. Flags override the level and log file set by the
// configuration file. The returned closer releases the log file.
func setup(ctx *cli.Context) (config.Config, io.Closer, error) {
	cfg, err := config.Load(ctx.GlobalString("config"))
	if err != nil {
		return cfg, nil, err
	}

	closer, err := setupLogging(ctx, cfg.Logging)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, closer, nil
}

func setupLogging(ctx *cli.Context, cfg log.Config) (io.Closer, error) {
	if logfile := ctx.GlobalString("logfile"); logfile != "" {
		cfg.Logfile = logfile
	}

	if ctx.GlobalBool("v") {
		cfg.Level = "info"
	}

	if ctx.GlobalBool("vv") {
		cfg.Level = "debug"
	}

	return cfg.Apply()
}
