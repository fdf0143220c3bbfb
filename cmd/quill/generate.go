package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/quill/internal/history"
	"github.com/samcharles93/quill/internal/inference"
	"github.com/samcharles93/quill/internal/logger"
	"github.com/samcharles93/quill/internal/presets"
)

const emptyPromptWarning = "please enter some starting text"

type generateFlags struct {
	prompt       string
	theme        string
	randomPrompt bool
	words        int64
	temp         float64
	mode         string
	seed         int64
	output       string
}

func generateCmd() *cli.Command {
	var f generateFlags

	flags := append(commonModelFlags(), recordingFlags()...)
	flags = append(flags, generationFlags(&f)...)

	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"run"},
		Usage:   "Generate text from a starting phrase",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			applyModelConfig(c, cfg)
			log := logger.FromContext(ctx)

			loader, err := newLoader(-1)
			if err != nil {
				return cli.Exit(err, 1)
			}
			sp := startSpinner("loading model")
			loaded, err := loader.Load()
			sp.Stop()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() {
				if err := loaded.Engine.Close(); err != nil {
					log.Warn("close engine", "error", err)
				}
			}()
			log.Info("engine loaded",
				"backend", loaded.Info.Backend,
				"input_length", loaded.Info.InputLength,
				"vocab_size", loaded.Info.VocabSize,
			)

			store, err := openHistory(os.Stderr)
			if err != nil {
				return cli.Exit(err, 1)
			}
			if store != nil {
				defer func() { _ = store.Close() }()
			}

			g := &generator{
				engine:   loaded.Engine,
				backend:  loaded.Info.Backend,
				store:    store,
				defaults: cfg.genDefaults(),
				out:      os.Stdout,
				errOut:   os.Stderr,
				rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
			}
			opts, err := g.requestOptions(c, f)
			if err != nil {
				return cli.Exit(err, 1)
			}

			if opts.Prompt == "" && opts.Theme == "" {
				return g.interactive(ctx, opts, f.output)
			}
			if _, err := g.run(ctx, opts, f.output); err != nil {
				return cli.Exit(err, 1)
			}
			return nil
		},
	}
}

// openHistory opens the store generate records into. Failing to open the
// default file only costs the record, so it is reported and skipped.
func openHistory(errOut io.Writer) (history.Store, error) {
	path := historyPath(noHistory)
	if path == "" {
		return nil, nil
	}
	store, err := history.OpenBolt(path)
	if err != nil {
		if cleanPath(historyDB) == "" {
			warn(errOut, "history disabled: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return store, nil
}

func generationFlags(f *generateFlags) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "prompt",
			Aliases:     []string{"p"},
			Usage:       "starting text (omit for interactive mode)",
			Destination: &f.prompt,
		},
		&cli.StringFlag{
			Name:        "theme",
			Usage:       "start from a theme preset (see `quill themes`)",
			Destination: &f.theme,
		},
		&cli.BoolFlag{
			Name:        "random-prompt",
			Usage:       "start from a random prompt",
			Destination: &f.randomPrompt,
		},
		&cli.Int64Flag{
			Name:        "words",
			Aliases:     []string{"n"},
			Usage:       fmt.Sprintf("number of words to generate (%d-%d, step %d)", presets.MinWordLimit, presets.MaxWordLimit, presets.WordLimitStep),
			Value:       presets.DefaultWordLimit,
			Destination: &f.words,
		},
		&cli.Float64Flag{
			Name:        "temp",
			Aliases:     []string{"t"},
			Usage:       "sampling temperature (overrides --mode)",
			Value:       presets.StandardTemperature,
			Destination: &f.temp,
		},
		&cli.StringFlag{
			Name:        "mode",
			Usage:       "temperature mode (standard, surprise)",
			Value:       string(presets.ModeStandard),
			Destination: &f.mode,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "sampling seed for reproducible output (-1 = random)",
			Value:       -1,
			Destination: &f.seed,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "also write the generated text to this file",
			Destination: &f.output,
		},
	}
}

type generator struct {
	engine   inference.Engine
	backend  string
	store    history.Store
	defaults inference.GenDefaults
	out      io.Writer
	errOut   io.Writer
	rng      *rand.Rand
}

// requestOptions maps the flags the user set explicitly onto request
// options. Unset flags stay nil so config defaults can apply.
func (g *generator) requestOptions(c *cli.Command, f generateFlags) (inference.RequestOptions, error) {
	opts := inference.RequestOptions{
		Prompt: strings.TrimSpace(f.prompt),
		Theme:  strings.TrimSpace(f.theme),
	}
	if opts.Theme != "" {
		if _, ok := presets.LookupTheme(opts.Theme); !ok {
			return opts, fmt.Errorf("unknown theme %q", opts.Theme)
		}
	}
	if f.randomPrompt && opts.Prompt == "" {
		opts.Prompt = presets.RandomPrompt(g.rng)
	}
	if c.IsSet("words") {
		n := int(f.words)
		if clamped := presets.ClampWordLimit(n); clamped != n {
			warn(g.errOut, "word limit adjusted to %d (allowed %d-%d in steps of %d)",
				clamped, presets.MinWordLimit, presets.MaxWordLimit, presets.WordLimitStep)
			n = clamped
		}
		opts.WordLimit = &n
	}
	if c.IsSet("temp") {
		t := f.temp
		opts.Temperature = &t
	}
	if c.IsSet("mode") {
		m := f.mode
		opts.Mode = &m
	}
	if c.IsSet("seed") {
		s := f.seed
		opts.Seed = &s
	}
	return opts, nil
}

// run performs one generation and prints it. The record is saved when a
// history store is configured.
func (g *generator) run(ctx context.Context, opts inference.RequestOptions, outputPath string) (history.Record, error) {
	req, err := inference.ResolveRequest(opts, g.defaults, g.rng)
	if err != nil {
		return history.Record{}, err
	}
	if req.Prompt == "" {
		warn(g.errOut, emptyPromptWarning)
		return history.Record{}, errors.New(emptyPromptWarning)
	}

	created := time.Now()
	sp := startSpinner("generating")
	res, err := g.engine.Generate(ctx, &req)
	sp.Stop()
	if err != nil {
		if errors.Is(err, inference.ErrInvalidInput) {
			warn(g.errOut, "%v", err)
			return history.Record{}, err
		}
		fail(g.errOut, "generation failed: %v", err)
		if res != nil && res.Text != "" {
			warn(g.errOut, "partial output:")
			_, _ = fmt.Fprintln(g.out, outputBox(res.Text))
		}
		return history.Record{}, err
	}

	rec := history.Record{
		ID:          history.NewID(),
		CreatedAt:   created,
		Prompt:      req.Prompt,
		Text:        res.Text,
		Temperature: req.Temperature,
		WordLimit:   req.WordLimit,
		Generated:   res.Generated,
		StopReason:  string(res.StopReason),
		Duration:    res.Stats.Duration,
		Backend:     g.backend,
	}
	g.print(rec, opts)

	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(rec.Text+"\n"), 0o644); err != nil {
			return rec, fmt.Errorf("write output: %w", err)
		}
		success(g.errOut, "saved to %s", outputPath)
	}
	if g.store != nil {
		if err := g.store.Save(rec); err != nil {
			warn(g.errOut, "could not save history: %v", err)
		}
	}
	return rec, nil
}

func (g *generator) print(rec history.Record, opts inference.RequestOptions) {
	mode := ""
	if opts.Temperature == nil && opts.Mode != nil {
		if m, err := presets.ParseMode(*opts.Mode); err == nil && m == presets.ModeSurprise {
			mode = " (surprise)"
		}
	}
	caption(g.errOut, "Using temperature: %.2f%s", rec.Temperature, mode)
	_, _ = fmt.Fprintln(g.out, outputBox(rec.Text))

	if rec.StopReason == string(inference.StopDecodeMiss) {
		warn(g.errOut, "stopped after %d of %d words: the model predicted a word outside the vocabulary", rec.Generated, rec.WordLimit)
		return
	}
	success(g.errOut, "generated %d words in %s", rec.Generated, rec.Duration.Round(time.Millisecond))
}

const interactiveHelp = "commands: /random, /themes, /quit"

// interactive reads one starting phrase per line until EOF or /quit.
func (g *generator) interactive(ctx context.Context, base inference.RequestOptions, outputPath string) error {
	if stdinIsTTY() {
		caption(g.errOut, "Type a starting phrase and press enter. %s", interactiveHelp)
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := readInteractiveLine("> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return cli.Exit(err, 1)
		}
		line = strings.TrimSpace(line)

		opts := base
		switch line {
		case "/quit", "/exit":
			return nil
		case "/themes":
			printThemes(g.out)
			continue
		case "/random":
			opts.Prompt = presets.RandomPrompt(g.rng)
			caption(g.errOut, "Prompt: %s", opts.Prompt)
		case "":
			warn(g.errOut, emptyPromptWarning)
			continue
		default:
			if strings.HasPrefix(line, "/") {
				warn(g.errOut, "unknown command %q (%s)", line, interactiveHelp)
				continue
			}
			opts.Prompt = line
		}
		// Invalid input and model errors are already reported.
		_, _ = g.run(ctx, opts, outputPath)
	}
}
