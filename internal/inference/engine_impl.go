package inference

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/samcharles93/quill/internal/logits"
	"github.com/samcharles93/quill/internal/vocab"
)

// Info summarises a loaded engine.
type Info struct {
	Backend     string `json:"backend"`
	InputLength int    `json:"input_length"`
	VocabSize   int    `json:"vocab_size"`
}

// EngineImpl serves generations from one predictor and vocabulary. The
// predictor and vocabulary are read-only and shared by concurrent calls.
type EngineImpl struct {
	predictor  Predictor
	vocabulary Vocabulary
	sampler    *logits.Sampler
	info       Info
	closers    []io.Closer
}

// NewEngine wires an engine from already loaded parts. A nil sampler gets a
// wall-clock seeded one.
func NewEngine(p Predictor, v Vocabulary, sampler *logits.Sampler, info Info) *EngineImpl {
	if sampler == nil {
		sampler = logits.NewSampler(logits.SamplerConfig{Seed: -1})
	}
	if info.InputLength == 0 && p != nil {
		info.InputLength = p.InputLength()
	}
	e := &EngineImpl{
		predictor:  p,
		vocabulary: v,
		sampler:    sampler,
		info:       info,
	}
	if c, ok := p.(io.Closer); ok {
		e.closers = append(e.closers, c)
	}
	return e
}

func (e *EngineImpl) Info() Info { return e.info }

func (e *EngineImpl) Close() error {
	if e == nil {
		return nil
	}
	var errs []error
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	e.closers = nil
	return errors.Join(errs...)
}

func (e *EngineImpl) Generate(ctx context.Context, req *Request) (*Result, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	sampler := e.sampler
	if req.Seed >= 0 {
		sampler = logits.NewSampler(logits.SamplerConfig{Seed: req.Seed})
	}
	gen := &Generator{
		Predictor:  e.predictor,
		Vocabulary: e.vocabulary,
		Sampler:    sampler,
		PadID:      vocab.PadID,
	}
	return gen.Generate(ctx, req.Prompt, req.WordLimit, req.Temperature)
}
