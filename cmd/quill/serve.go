package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/quill/internal/api"
	"github.com/samcharles93/quill/internal/history"
	"github.com/samcharles93/quill/internal/logger"
	"github.com/samcharles93/quill/internal/webui"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		seed        int64
	)

	flags := append(commonModelFlags(), recordingFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "listen address",
			Value:       "127.0.0.1:8080",
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "read-timeout",
			Usage:       "read header timeout",
			Value:       30 * time.Second,
			Destination: &readTimeout,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "seed for the shared sampler (-1 = random)",
			Value:       -1,
			Destination: &seed,
		},
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the generation HTTP API and web page",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			applyModelConfig(c, cfg)
			applyServeConfig(c, cfg, &addr)
			log := logger.FromContext(ctx)

			loader, err := newLoader(seed)
			if err != nil {
				return cli.Exit(err, 1)
			}
			loaded, err := loader.Load()
			if err != nil {
				return cli.Exit(err, 1)
			}
			defer func() {
				if err := loaded.Engine.Close(); err != nil {
					log.Warn("close engine", "error", err)
				}
			}()

			historyFile := historyPath(noHistory)
			var store history.Store = history.NewMemory()
			if historyFile != "" {
				bolt, err := history.OpenBolt(historyFile)
				switch {
				case err == nil:
					store = bolt
				case cleanPath(historyDB) == "":
					log.Warn("history kept in memory", "path", historyFile, "error", err)
					historyFile = ""
				default:
					return cli.Exit(err, 1)
				}
			}
			defer func() { _ = store.Close() }()

			service := api.NewGenerationService(loaded.Engine, cfg.genDefaults())
			server := api.NewServer(store, service)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			webui.Register(e)
			log.Info("starting server",
				"address", addr,
				"backend", loaded.Info.Backend,
				"input_length", loaded.Info.InputLength,
				"vocab_size", loaded.Info.VocabSize,
				"history", historyFile,
			)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
