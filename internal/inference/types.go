package inference

import (
	"context"
	"time"
)

// Predictor returns a probability vector over the vocabulary for a context
// window of exactly InputLength ids.
type Predictor interface {
	InputLength() int
	Predict(ctx context.Context, window []int) ([]float64, error)
}

// Vocabulary maps text to ids and ids back to words. Decode reports false
// for ids that have no word, including the padding id.
type Vocabulary interface {
	Encode(text string) []int
	Decode(id int) (string, bool)
}

type StopReason string

const (
	// StopLimit means the requested number of words was generated.
	StopLimit StopReason = "limit"
	// StopDecodeMiss means a sampled id had no vocabulary entry or decoded to
	// an empty word.
	StopDecodeMiss StopReason = "decode_miss"
)

type Engine interface {
	Generate(ctx context.Context, req *Request) (*Result, error)
	Close() error
}

type Request struct {
	Prompt      string
	WordLimit   int
	Temperature float64
	// Seed >= 0 gives the request its own reproducible sampler.
	Seed int64
}

type Result struct {
	Text       string
	Generated  int
	Requested  int
	StopReason StopReason
	Stats      Stats
}

type Stats struct {
	TokensGenerated int
	Duration        time.Duration
	TPS             float64
}

func (s *Stats) finish(start time.Time, generated int) {
	s.TokensGenerated = generated
	s.Duration = time.Since(start)
	if s.Duration.Seconds() > 0 {
		s.TPS = float64(generated) / s.Duration.Seconds()
	}
}
