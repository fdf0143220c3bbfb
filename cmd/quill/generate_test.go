package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/quill/internal/history"
	"github.com/samcharles93/quill/internal/inference"
	"github.com/samcharles93/quill/internal/predictor"
	"github.com/samcharles93/quill/internal/presets"
	"github.com/samcharles93/quill/internal/vocab"
)

type stubEngine struct {
	res *inference.Result
	err error
}

func (e *stubEngine) Generate(context.Context, *inference.Request) (*inference.Result, error) {
	return e.res, e.err
}

func (e *stubEngine) Close() error { return nil }

// satEngine always predicts "sat".
func satEngine(t *testing.T, next int) *inference.EngineImpl {
	t.Helper()
	v, err := vocab.New(map[string]int{"the": 1, "cat": 2, "sat": 3})
	require.NoError(t, err)
	return inference.NewEngine(predictor.OneHot(3, 4, next), v, nil, inference.Info{Backend: "fixed"})
}

func newTestGenerator(t *testing.T, engine inference.Engine) (*generator, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	prev := stderrIsTTY
	stderrIsTTY = func() bool { return false }
	t.Cleanup(func() { stderrIsTTY = prev })

	var out, errOut bytes.Buffer
	return &generator{
		engine:  engine,
		backend: "fixed",
		store:   history.NewMemory(),
		out:     &out,
		errOut:  &errOut,
		rng:     rand.New(rand.NewSource(1)),
	}, &out, &errOut
}

func parseGenerateFlags(t *testing.T, g *generator, args ...string) (inference.RequestOptions, error) {
	t.Helper()
	var (
		f    generateFlags
		opts inference.RequestOptions
		oerr error
	)
	cmd := &cli.Command{
		Name:  "generate",
		Flags: generationFlags(&f),
		Action: func(ctx context.Context, c *cli.Command) error {
			opts, oerr = g.requestOptions(c, f)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"generate"}, args...)))
	return opts, oerr
}

func TestRequestOptionsFromFlags(t *testing.T) {
	g, _, errOut := newTestGenerator(t, nil)

	opts, err := parseGenerateFlags(t, g, "--words", "37", "--temp", "1.2", "--seed", "5", "--theme", "story starter")
	require.NoError(t, err)
	assert.Equal(t, "story starter", opts.Theme)
	require.NotNil(t, opts.WordLimit)
	assert.Equal(t, 40, *opts.WordLimit)
	require.NotNil(t, opts.Temperature)
	assert.Equal(t, 1.2, *opts.Temperature)
	require.NotNil(t, opts.Seed)
	assert.Equal(t, int64(5), *opts.Seed)
	assert.Nil(t, opts.Mode)
	assert.Contains(t, errOut.String(), "word limit adjusted to 40")
}

func TestRequestOptionsUnsetFlagsStayNil(t *testing.T) {
	g, _, errOut := newTestGenerator(t, nil)

	opts, err := parseGenerateFlags(t, g, "-p", "  hello there  ", "--words", "50")
	require.NoError(t, err)
	assert.Equal(t, "hello there", opts.Prompt)
	require.NotNil(t, opts.WordLimit)
	assert.Equal(t, 50, *opts.WordLimit)
	assert.Nil(t, opts.Temperature)
	assert.Nil(t, opts.Mode)
	assert.Nil(t, opts.Seed)
	assert.Empty(t, errOut.String())
}

func TestRequestOptionsRandomPromptAndTheme(t *testing.T) {
	g, _, _ := newTestGenerator(t, nil)

	opts, err := parseGenerateFlags(t, g, "--random-prompt", "--mode", "surprise")
	require.NoError(t, err)
	assert.True(t, slices.Contains(presets.Prompts(), opts.Prompt), "prompt %q", opts.Prompt)
	require.NotNil(t, opts.Mode)
	assert.Equal(t, "surprise", *opts.Mode)

	_, err = parseGenerateFlags(t, g, "--theme", "horror")
	require.Error(t, err)
}

func TestGeneratorRun(t *testing.T) {
	g, out, errOut := newTestGenerator(t, satEngine(t, 3))
	output := filepath.Join(t.TempDir(), "generated_text.txt")

	n := 10
	rec, err := g.run(context.Background(), inference.RequestOptions{Prompt: "the cat", WordLimit: &n}, output)
	require.NoError(t, err)

	want := "the cat" + strings.Repeat(" sat", 10)
	assert.Equal(t, want, rec.Text)
	assert.Equal(t, 10, rec.Generated)
	assert.Equal(t, presets.StandardTemperature, rec.Temperature)
	assert.Equal(t, "fixed", rec.Backend)
	assert.Contains(t, out.String(), want)
	assert.Contains(t, errOut.String(), "Using temperature: 0.80")
	assert.Contains(t, errOut.String(), "generated 10 words")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, want+"\n", string(data))

	saved, err := g.store.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, want, saved.Text)
}

func TestGeneratorRunThemeAndSurpriseCaption(t *testing.T) {
	g, _, errOut := newTestGenerator(t, satEngine(t, 3))

	mode := "surprise"
	rec, err := g.run(context.Background(), inference.RequestOptions{Theme: "Casual Chat", Mode: &mode}, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rec.Text, "Hi, how are you"))
	assert.GreaterOrEqual(t, rec.Temperature, presets.SurpriseMinTemperature)
	assert.LessOrEqual(t, rec.Temperature, presets.SurpriseMaxTemperature)
	assert.Contains(t, errOut.String(), "(surprise)")
}

func TestGeneratorRunEmptyPrompt(t *testing.T) {
	g, out, errOut := newTestGenerator(t, satEngine(t, 3))

	_, err := g.run(context.Background(), inference.RequestOptions{Prompt: "   "}, "")
	require.Error(t, err)
	assert.Contains(t, errOut.String(), emptyPromptWarning)
	assert.Empty(t, out.String())
}

func TestGeneratorRunDecodeMiss(t *testing.T) {
	g, _, errOut := newTestGenerator(t, satEngine(t, vocab.PadID))

	rec, err := g.run(context.Background(), inference.RequestOptions{Prompt: "the cat"}, "")
	require.NoError(t, err)
	assert.Equal(t, "the cat", rec.Text)
	assert.Equal(t, string(inference.StopDecodeMiss), rec.StopReason)
	assert.Contains(t, errOut.String(), "stopped after 0 of 50 words")
}

func TestGeneratorRunEngineFailure(t *testing.T) {
	boom := errors.New("model exploded")
	g, out, errOut := newTestGenerator(t, &stubEngine{
		res: &inference.Result{Text: "the cat sat"},
		err: boom,
	})

	_, err := g.run(context.Background(), inference.RequestOptions{Prompt: "the cat"}, "")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, errOut.String(), "generation failed: model exploded")
	assert.Contains(t, out.String(), "the cat sat")

	recs, err := g.store.List(0)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestInteractiveSession(t *testing.T) {
	prevReader, prevTTY := stdinReader, stdinIsTTY
	stdinReader = bufio.NewReader(strings.NewReader("\n/themes\n/bogus\nthe cat\n/quit\nnever read\n"))
	stdinIsTTY = func() bool { return false }
	t.Cleanup(func() { stdinReader, stdinIsTTY = prevReader, prevTTY })

	g, out, errOut := newTestGenerator(t, satEngine(t, 3))
	n := 10
	require.NoError(t, g.interactive(context.Background(), inference.RequestOptions{WordLimit: &n}, ""))

	assert.Contains(t, errOut.String(), emptyPromptWarning)
	assert.Contains(t, errOut.String(), `unknown command "/bogus"`)
	assert.Contains(t, out.String(), "Casual Chat")
	assert.Contains(t, out.String(), "the cat sat")

	recs, err := g.store.List(0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.NotContains(t, out.String(), "never read")
}

func TestInteractiveStopsAtEOF(t *testing.T) {
	prevReader, prevTTY := stdinReader, stdinIsTTY
	stdinReader = bufio.NewReader(strings.NewReader("the cat"))
	stdinIsTTY = func() bool { return false }
	t.Cleanup(func() { stdinReader, stdinIsTTY = prevReader, prevTTY })

	g, out, _ := newTestGenerator(t, satEngine(t, 3))
	require.NoError(t, g.interactive(context.Background(), inference.RequestOptions{}, ""))
	assert.Contains(t, out.String(), "the cat sat")
}

func TestOpenHistorySharesDefaultWithHistoryCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	prevDB, prevOff := historyDB, noHistory
	t.Cleanup(func() { historyDB, noHistory = prevDB, prevOff })
	historyDB, noHistory = "", false

	var errOut bytes.Buffer
	store, err := openHistory(&errOut)
	require.NoError(t, err)
	require.NotNil(t, store)
	rec := history.Record{ID: history.NewID(), Prompt: "the cat", Text: "the cat sat"}
	require.NoError(t, store.Save(rec))
	require.NoError(t, store.Close())
	assert.Empty(t, errOut.String())

	// history list resolves the same file without any flag.
	reader, err := history.OpenBolt(historyPath(false))
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()
	got, err := reader.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "the cat sat", got.Text)

	noHistory = true
	store, err = openHistory(&errOut)
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestOpenHistoryExplicitPathErrors(t *testing.T) {
	prevDB, prevOff := historyDB, noHistory
	t.Cleanup(func() { historyDB, noHistory = prevDB, prevOff })

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	historyDB, noHistory = filepath.Join(blocker, "history.db"), false

	var errOut bytes.Buffer
	_, err := openHistory(&errOut)
	require.Error(t, err)
}
