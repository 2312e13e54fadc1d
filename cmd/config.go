package cmd

import (
	"os"

	"github.com/urfave/cli"
)

// Print the effective configuration, after applying the command line
// overrides, as TOML. If --out is set the configuration is written to that
// file instead so it can be passed back via --config.
func DumpConfig(ctx *cli.Context) error {
	cfg, closer, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	cfg.Builder = builderOptions(ctx, cfg.Builder)
	if err = cfg.Validate(); err != nil {
		return err
	}

	if out := ctx.String("out"); out != "" {
		if err = cfg.Save(out); err != nil {
			return err
		}
		logger.Noticef("wrote configuration to %s", out)
		return nil
	}

	return cfg.Encode(os.Stdout)
}
