package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

const outputWidth = 72

var (
	outputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7C3AED")).
			Padding(0, 1).
			Width(outputWidth)

	captionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			Italic(true)

	headerStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Reverse(true)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)

	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
)

func success(w io.Writer, format string, args ...any) {
	_, _ = successColor.Fprintf(w, "✓ "+format+"\n", args...)
}

func warn(w io.Writer, format string, args ...any) {
	_, _ = warnColor.Fprintf(w, "! "+format+"\n", args...)
}

func fail(w io.Writer, format string, args ...any) {
	_, _ = errorColor.Fprintf(w, "✗ "+format+"\n", args...)
}

func caption(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(w, captionStyle.Render(fmt.Sprintf(format, args...)))
}

func outputBox(text string) string {
	return outputBoxStyle.Render(strings.TrimSpace(text))
}

// stderrIsTTY gates the spinner. Swapped in tests.
var stderrIsTTY = func() bool { return isTerminal(os.Stderr) }

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type spinner struct {
	bar  *progressbar.ProgressBar
	stop chan struct{}
	done chan struct{}
}

// startSpinner shows an indeterminate progress indicator on stderr until
// Stop is called. It is a no-op when stderr is not a terminal.
func startSpinner(desc string) *spinner {
	s := &spinner{}
	if !stderrIsTTY() {
		return s
	}
	s.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionClearOnFinish(),
	)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		t := time.NewTicker(100 * time.Millisecond)
		defer t.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-t.C:
				_ = s.bar.Add(1)
			}
		}
	}()
	return s
}

func (s *spinner) Stop() {
	if s.bar == nil {
		return
	}
	close(s.stop)
	<-s.done
	_ = s.bar.Finish()
	s.bar = nil
}
