package inference

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/quill/internal/logits"
	"github.com/samcharles93/quill/internal/predictor"
	"github.com/samcharles93/quill/internal/vocab"
)

func catVocabulary(t *testing.T) *vocab.Vocabulary {
	t.Helper()
	v, err := vocab.New(map[string]int{"the": 1, "cat": 2, "sat": 3})
	require.NoError(t, err)
	return v
}

func seeded() *logits.Sampler {
	return logits.NewSampler(logits.SamplerConfig{Seed: 1})
}

// recordingPredictor returns a one-hot vector on next and records windows.
type recordingPredictor struct {
	length  int
	size    int
	next    int
	windows [][]int
}

func (p *recordingPredictor) InputLength() int { return p.length }

func (p *recordingPredictor) Predict(_ context.Context, window []int) ([]float64, error) {
	p.windows = append(p.windows, append([]int(nil), window...))
	probs := make([]float64, p.size)
	probs[p.next] = 1
	return probs, nil
}

var errModelDown = errors.New("model down")

// failingPredictor succeeds okCalls times and then fails.
type failingPredictor struct {
	okCalls int
	calls   int
	panics  bool
}

func (p *failingPredictor) InputLength() int { return 3 }

func (p *failingPredictor) Predict(context.Context, []int) ([]float64, error) {
	p.calls++
	if p.calls > p.okCalls {
		if p.panics {
			panic("boom")
		}
		return nil, errModelDown
	}
	return []float64{0, 0, 0, 1}, nil
}

// cancellingPredictor cancels its context after the first prediction.
type cancellingPredictor struct {
	recordingPredictor
	cancel context.CancelFunc
}

func (p *cancellingPredictor) Predict(ctx context.Context, window []int) ([]float64, error) {
	defer p.cancel()
	return p.recordingPredictor.Predict(ctx, window)
}

// blankVocabulary decodes every id to the empty string.
type blankVocabulary struct{}

func (blankVocabulary) Encode(string) []int       { return []int{1} }
func (blankVocabulary) Decode(int) (string, bool) { return "", true }

func TestGenerateCatSat(t *testing.T) {
	t.Parallel()

	g := &Generator{
		Predictor:  predictor.OneHot(3, 4, 3),
		Vocabulary: catVocabulary(t),
		Sampler:    seeded(),
	}
	res, err := g.Generate(context.Background(), "the cat", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, "the cat sat sat", res.Text)
	assert.Equal(t, 2, res.Generated)
	assert.Equal(t, 2, res.Requested)
	assert.Equal(t, StopLimit, res.StopReason)
	assert.Equal(t, 2, res.Stats.TokensGenerated)
}

func TestGenerateFeedsWindowBack(t *testing.T) {
	t.Parallel()

	p := &recordingPredictor{length: 3, size: 4, next: 3}
	g := &Generator{Predictor: p, Vocabulary: catVocabulary(t), Sampler: seeded()}

	_, err := g.Generate(context.Background(), "the cat", 3, 1)
	require.NoError(t, err)
	assert.Equal(t, [][]int{
		{0, 1, 2},
		{1, 2, 3},
		{2, 3, 3},
	}, p.windows)
}

func TestGenerateZeroLimitReturnsSeed(t *testing.T) {
	t.Parallel()

	p := &recordingPredictor{length: 3, size: 4, next: 3}
	g := &Generator{Predictor: p, Vocabulary: catVocabulary(t), Sampler: seeded()}

	res, err := g.Generate(context.Background(), "The Cat ", 0, 0.8)
	require.NoError(t, err)
	assert.Equal(t, "The Cat ", res.Text)
	assert.Zero(t, res.Generated)
	assert.Empty(t, p.windows)
}

func TestGenerateStopsOnPaddingID(t *testing.T) {
	t.Parallel()

	p := &recordingPredictor{length: 3, size: 4, next: vocab.PadID}
	g := &Generator{Predictor: p, Vocabulary: catVocabulary(t), Sampler: seeded()}

	res, err := g.Generate(context.Background(), "the cat", 10, 1)
	require.NoError(t, err)
	assert.Equal(t, "the cat", res.Text)
	assert.Zero(t, res.Generated)
	assert.Equal(t, 10, res.Requested)
	assert.Equal(t, StopDecodeMiss, res.StopReason)
	assert.Len(t, p.windows, 1)
}

func TestGenerateStopsOnUnknownID(t *testing.T) {
	t.Parallel()

	// Vocabulary gaps: id 2 is not mapped.
	v, err := vocab.New(map[string]int{"a": 1, "c": 3})
	require.NoError(t, err)
	g := &Generator{Predictor: predictor.OneHot(2, 4, 2), Vocabulary: v, Sampler: seeded()}

	res, err := g.Generate(context.Background(), "a", 5, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", res.Text)
	assert.Equal(t, StopDecodeMiss, res.StopReason)
}

func TestGenerateUnknownSeedWordsStillRun(t *testing.T) {
	t.Parallel()

	p := &recordingPredictor{length: 2, size: 4, next: 2}
	g := &Generator{Predictor: p, Vocabulary: catVocabulary(t), Sampler: seeded()}

	res, err := g.Generate(context.Background(), "zebra", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, "zebra cat cat", res.Text)
	assert.Equal(t, []int{0, 0}, p.windows[0])
}

func TestGenerateRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	g := &Generator{Predictor: predictor.OneHot(3, 4, 3), Vocabulary: catVocabulary(t), Sampler: seeded()}
	tests := []struct {
		name  string
		seed  string
		limit int
		temp  float64
	}{
		{"empty seed", "", 5, 1},
		{"whitespace seed", " \t\n", 5, 1},
		{"negative limit", "the", -1, 1},
		{"zero temperature", "the", 5, 0},
		{"negative temperature", "the", 5, -0.5},
		{"nan temperature", "the", 5, math.NaN()},
		{"inf temperature", "the", 5, math.Inf(1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := g.Generate(context.Background(), tc.seed, tc.limit, tc.temp)
			require.ErrorIs(t, err, ErrInvalidInput)
			assert.Nil(t, res)

			var ie *InputError
			require.ErrorAs(t, err, &ie)
			assert.NotEmpty(t, ie.Field)
		})
	}
}

func TestGeneratePredictorErrorKeepsPartialText(t *testing.T) {
	t.Parallel()

	p := &failingPredictor{okCalls: 2}
	g := &Generator{Predictor: p, Vocabulary: catVocabulary(t), Sampler: seeded()}

	res, err := g.Generate(context.Background(), "the", 5, 1)
	require.ErrorIs(t, err, errModelDown)
	assert.Equal(t, errModelDown, err)
	require.NotNil(t, res)
	assert.Equal(t, "the sat sat", res.Text)
	assert.Equal(t, 2, res.Generated)
	assert.Equal(t, 3, p.calls)
}

func TestGenerateConvertsPredictorPanic(t *testing.T) {
	t.Parallel()

	g := &Generator{Predictor: &failingPredictor{panics: true}, Vocabulary: catVocabulary(t), Sampler: seeded()}

	res, err := g.Generate(context.Background(), "the", 3, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in Predict")
	require.NotNil(t, res)
	assert.Equal(t, "the", res.Text)
}

func TestGenerateSamplerErrorAborts(t *testing.T) {
	t.Parallel()

	g := &Generator{
		Predictor:  &predictor.Fixed{Length: 2, Probs: []float64{0.5, math.NaN(), 0.5}},
		Vocabulary: catVocabulary(t),
		Sampler:    seeded(),
	}
	res, err := g.Generate(context.Background(), "the", 3, 1)
	require.ErrorIs(t, err, logits.ErrInvalidDistribution)
	require.NotNil(t, res)
	assert.Zero(t, res.Generated)
}

func TestGenerateRequiresCollaborators(t *testing.T) {
	t.Parallel()

	g := &Generator{Vocabulary: catVocabulary(t), Sampler: seeded()}
	_, err := g.Generate(context.Background(), "the", 1, 1)
	require.Error(t, err)
}

func TestGenerateIsReproducibleWithSeed(t *testing.T) {
	t.Parallel()

	v := catVocabulary(t)
	p := &predictor.Fixed{Length: 3, Probs: []float64{0.01, 0.33, 0.33, 0.33}}
	run := func() string {
		g := &Generator{Predictor: p, Vocabulary: v, Sampler: logits.NewSampler(logits.SamplerConfig{Seed: 99})}
		res, err := g.Generate(context.Background(), "the", 20, 1)
		require.NoError(t, err)
		return res.Text
	}
	assert.Equal(t, run(), run())
}

func TestGenerateStopsWhenContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := &cancellingPredictor{recordingPredictor: recordingPredictor{length: 3, size: 4, next: 3}, cancel: cancel}
	g := &Generator{Predictor: p, Vocabulary: catVocabulary(t), Sampler: seeded()}

	res, err := g.Generate(ctx, "the cat", 50, 1)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, "the cat sat", res.Text)
	assert.Equal(t, 1, res.Generated)
	assert.Len(t, p.windows, 1)
}

func TestGenerateTreatsEmptyWordAsMiss(t *testing.T) {
	t.Parallel()

	g := &Generator{
		Predictor:  predictor.OneHot(3, 2, 1),
		Vocabulary: blankVocabulary{},
		Sampler:    seeded(),
	}
	res, err := g.Generate(context.Background(), "hello", 5, 1)
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text)
	assert.Zero(t, res.Generated)
	assert.Equal(t, StopDecodeMiss, res.StopReason)
}

func TestContextWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		ids    []int
		length int
		want   []int
	}{
		{"pads short input", []int{5, 6}, 4, []int{0, 0, 5, 6}},
		{"keeps last ids", []int{1, 2, 3, 4, 5}, 3, []int{3, 4, 5}},
		{"exact length", []int{7, 8}, 2, []int{7, 8}},
		{"empty input", nil, 3, []int{0, 0, 0}},
		{"zero length", []int{1}, 0, []int{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ContextWindow(tc.ids, tc.length, 0))
		})
	}
}

func TestContextWindowDoesNotAliasInput(t *testing.T) {
	t.Parallel()

	ids := []int{1, 2, 3}
	w := ContextWindow(ids, 3, 0)
	w[0] = 9
	assert.Equal(t, []int{1, 2, 3}, ids)

	assert.Equal(t, []int{-1, 4}, ContextWindow([]int{4}, 2, -1))
}
