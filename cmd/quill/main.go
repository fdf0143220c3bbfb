package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/quill/internal/logger"
	"github.com/samcharles93/quill/internal/version"
)

// cfg is the loaded config file, populated before any command runs.
var cfg Config

func main() {
	app := &cli.Command{
		Name:    "quill",
		Usage:   "Next-word text generator",
		Version: version.String(),
		Flags:   rootFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			loaded, err := LoadConfig(configPath())
			if err != nil {
				return ctx, cli.Exit(err, 1)
			}
			cfg = loaded
			applyLoggingConfig(cmd, cfg)

			level := logLevel
			if debug {
				level = "debug"
			}
			log, err := logger.FromOptions(os.Stderr, level, logFormat)
			if err != nil {
				return ctx, cli.Exit(err, 1)
			}
			return logger.WithContext(ctx, log), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			generateCmd(),
			serveCmd(),
			themesCmd(),
			inspectCmd(),
			historyCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
