package inference

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/samcharles93/quill/internal/logger"
	"github.com/samcharles93/quill/internal/logits"
)

// Generator extends text one word at a time: encode the running text, cut it
// to the predictor's context window, predict, sample, decode, append.
type Generator struct {
	Predictor  Predictor
	Vocabulary Vocabulary
	Sampler    *logits.Sampler
	PadID      int
}

// Generate appends up to wordLimit words to seedText. It stops early, without
// error, when a sampled id does not decode to a word.
//
// A predictor or sampler failure aborts the loop. The error is returned as
// is, alongside a Result holding the text generated so far.
func (g *Generator) Generate(ctx context.Context, seedText string, wordLimit int, temperature float64) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(seedText) == "" {
		return nil, invalid("prompt", "seed text is empty")
	}
	if wordLimit < 0 {
		return nil, invalid("word_limit", "must be >= 0, got %d", wordLimit)
	}
	if temperature <= 0 || math.IsNaN(temperature) || math.IsInf(temperature, 0) {
		return nil, invalid("temperature", "must be positive and finite, got %v", temperature)
	}
	if g.Predictor == nil || g.Vocabulary == nil || g.Sampler == nil {
		return nil, fmt.Errorf("generator is not fully configured")
	}

	log := logger.FromContext(ctx)
	start := time.Now()
	res := &Result{
		Text:       seedText,
		Requested:  wordLimit,
		StopReason: StopLimit,
	}
	length := g.Predictor.InputLength()

	for step := range wordLimit {
		if err := ctx.Err(); err != nil {
			res.Stats.finish(start, res.Generated)
			return res, err
		}
		ids, err := safeEncode(g.Vocabulary, res.Text)
		if err != nil {
			res.Stats.finish(start, res.Generated)
			return res, err
		}
		window := ContextWindow(ids, length, g.PadID)

		probs, err := safePredict(ctx, g.Predictor, window)
		if err != nil {
			res.Stats.finish(start, res.Generated)
			return res, err
		}
		id, err := safeSample(g.Sampler, probs, temperature)
		if err != nil {
			res.Stats.finish(start, res.Generated)
			return res, err
		}

		word, ok := g.Vocabulary.Decode(id)
		if !ok || word == "" {
			log.Debug("sampled id has no word", "step", step, "id", id)
			res.StopReason = StopDecodeMiss
			break
		}
		log.Debug("generated word", "step", step, "id", id, "word", word, "context_ids", len(ids))
		res.Text += " " + word
		res.Generated++
	}

	res.Stats.finish(start, res.Generated)
	log.Info("generation finished",
		"generated", res.Generated,
		"requested", wordLimit,
		"temperature", temperature,
		"stop", string(res.StopReason),
		"duration", res.Stats.Duration,
	)
	return res, nil
}

func safeEncode(v Vocabulary, text string) (ids []int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Encode: %v", rec)
		}
	}()
	return v.Encode(text), nil
}

func safePredict(ctx context.Context, p Predictor, window []int) (probs []float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Predict: %v", rec)
		}
	}()
	return p.Predict(ctx, window)
}

func safeSample(s *logits.Sampler, probs []float64, temperature float64) (id int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Sample: %v", rec)
		}
	}()
	return s.Sample(probs, temperature)
}
