package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/quill/internal/presets"
)

func themesCmd() *cli.Command {
	return &cli.Command{
		Name:  "themes",
		Usage: "List theme presets and random prompts",
		Action: func(ctx context.Context, c *cli.Command) error {
			printThemes(os.Stdout)
			return nil
		},
	}
}

func newTable(headers ...string) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func printThemes(w io.Writer) {
	t := newTable("Theme", "Starts with")
	for _, th := range presets.Themes() {
		t.Row(th.Emoji+" "+th.Name, th.Prompt)
	}
	_, _ = fmt.Fprintln(w, t.String())

	p := newTable("#", "Random prompt")
	for i, prompt := range presets.Prompts() {
		p.Row(strconv.Itoa(i+1), prompt)
	}
	_, _ = fmt.Fprintln(w, p.String())
}
