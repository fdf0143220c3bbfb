package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/quill/internal/history"
)

const previewLen = 48

func historyCmd() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Browse saved generations",
		Flags: historyFlags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if cfg.HistoryDB != "" && !c.IsSet("history-db") {
				historyDB = cfg.HistoryDB
			}
			historyDB = historyPath(false)
			return ctx, nil
		},
		Commands: []*cli.Command{
			historyListCmd(),
			historyShowCmd(),
			historyExportCmd(),
			historyRemoveCmd(),
		},
	}
}

func withHistory(fn func(history.Store) error) error {
	if historyDB == "" {
		return cli.Exit("--history-db is required: no user config directory to default to", 1)
	}
	store, err := history.OpenBolt(historyDB)
	if err != nil {
		return cli.Exit(err, 1)
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}

func historyListCmd() *cli.Command {
	var limit int64
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List generations, newest first",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:        "limit",
				Usage:       "maximum number of generations to show (0 = all)",
				Value:       20,
				Destination: &limit,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return withHistory(func(s history.Store) error {
				recs, err := s.List(int(limit))
				if err != nil {
					return cli.Exit(err, 1)
				}
				if len(recs) == 0 {
					fmt.Println("no saved generations")
					return nil
				}
				t := newTable("Id", "Created", "Words", "Temp", "Prompt")
				for _, r := range recs {
					t.Row(
						r.ID,
						humanize.Time(r.CreatedAt),
						fmt.Sprintf("%d/%d", r.Generated, r.WordLimit),
						fmt.Sprintf("%.2f", r.Temperature),
						preview(r.Prompt),
					)
				}
				fmt.Println(t.String())
				return nil
			})
		},
	}
}

func historyShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print one generation",
		ArgsUsage: "<id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := requireID(c)
			if err != nil {
				return err
			}
			return withHistory(func(s history.Store) error {
				r, err := s.Get(id)
				if err != nil {
					return notFoundExit(id, err)
				}
				caption(os.Stderr, "%s · %s · temperature %.2f · %d/%d words · %s",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Temperature, r.Generated, r.WordLimit, r.StopReason)
				fmt.Println(outputBox(r.Text))
				return nil
			})
		},
	}
}

func historyExportCmd() *cli.Command {
	var output string
	return &cli.Command{
		Name:      "export",
		Usage:     "Write a generation's text to a file",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "destination file",
				Value:       "generated_text.txt",
				Destination: &output,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := requireID(c)
			if err != nil {
				return err
			}
			return withHistory(func(s history.Store) error {
				r, err := s.Get(id)
				if err != nil {
					return notFoundExit(id, err)
				}
				if output == "-" {
					fmt.Println(r.Text)
					return nil
				}
				if err := os.WriteFile(output, []byte(r.Text+"\n"), 0o644); err != nil {
					return cli.Exit(err, 1)
				}
				success(os.Stderr, "saved %s (%s)", output, humanize.Bytes(uint64(len(r.Text)+1)))
				return nil
			})
		},
	}
}

func historyRemoveCmd() *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Aliases:   []string{"delete"},
		Usage:     "Delete generations",
		ArgsUsage: "<id>...",
		Action: func(ctx context.Context, c *cli.Command) error {
			ids := c.Args().Slice()
			if len(ids) == 0 {
				return cli.Exit("at least one generation id is required", 1)
			}
			return withHistory(func(s history.Store) error {
				var errs []error
				for _, id := range ids {
					if err := s.Delete(id); err != nil {
						errs = append(errs, fmt.Errorf("%s: %w", id, err))
						continue
					}
					success(os.Stderr, "deleted %s", id)
				}
				if err := errors.Join(errs...); err != nil {
					return cli.Exit(err, 1)
				}
				return nil
			})
		},
	}
}

func requireID(c *cli.Command) (string, error) {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return "", cli.Exit("generation id is required", 1)
	}
	return id, nil
}

func notFoundExit(id string, err error) error {
	if errors.Is(err, history.ErrNotFound) {
		return cli.Exit(fmt.Sprintf("generation %s not found", id), 1)
	}
	return cli.Exit(err, 1)
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= previewLen {
		return s
	}
	return string(r[:previewLen-1]) + "…"
}
