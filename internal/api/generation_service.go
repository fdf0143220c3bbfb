package api

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/samcharles93/quill/internal/history"
	"github.com/samcharles93/quill/internal/inference"
	"github.com/samcharles93/quill/internal/presets"
)

const emptyPromptMessage = "please enter some starting text"

// GenerationService turns API requests into engine calls.
type GenerationService struct {
	engine   inference.Engine
	defaults inference.GenDefaults
	backend  string

	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerationService(engine inference.Engine, defaults inference.GenDefaults) *GenerationService {
	s := &GenerationService{
		engine:   engine,
		defaults: defaults,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if e, ok := engine.(interface{ Info() inference.Info }); ok {
		s.backend = e.Info().Backend
	}
	return s
}

// GenerationError carries the text produced before the engine failed.
type GenerationError struct {
	Err         error
	PartialText string
}

func (e *GenerationError) Error() string { return e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

// Create runs one generation and returns its record. Validation failures
// unwrap to ErrInvalidRequest; engine failures are *GenerationError.
func (s *GenerationService) Create(ctx context.Context, req *GenerationRequest) (history.Record, error) {
	if s.engine == nil {
		return history.Record{}, fmt.Errorf("inference engine not configured")
	}
	if strings.TrimSpace(req.Prompt) == "" && strings.TrimSpace(req.Theme) == "" {
		return history.Record{}, newInvalidRequest("prompt", emptyPromptMessage)
	}

	s.mu.Lock()
	resolved, err := inference.ResolveRequest(inference.RequestOptions{
		Prompt:      req.Prompt,
		Theme:       req.Theme,
		WordLimit:   req.WordLimit,
		Temperature: req.Temperature,
		Mode:        req.Mode,
		Seed:        req.Seed,
	}, s.defaults, s.rng)
	s.mu.Unlock()
	if err != nil {
		return history.Record{}, toInvalidRequest(err)
	}
	if resolved.WordLimit > presets.MaxWordLimit {
		return history.Record{}, newInvalidRequest("word_limit",
			fmt.Sprintf("word_limit: must be at most %d, got %d", presets.MaxWordLimit, resolved.WordLimit))
	}

	created := timeNow()
	res, err := s.engine.Generate(ctx, &resolved)
	if err != nil {
		if errors.Is(err, inference.ErrInvalidInput) {
			return history.Record{}, toInvalidRequest(err)
		}
		gerr := &GenerationError{Err: err}
		if res != nil {
			gerr.PartialText = res.Text
		}
		return history.Record{}, gerr
	}

	return history.Record{
		ID:          history.NewID(),
		CreatedAt:   created,
		Prompt:      resolved.Prompt,
		Text:        res.Text,
		Temperature: resolved.Temperature,
		WordLimit:   resolved.WordLimit,
		Generated:   res.Generated,
		StopReason:  string(res.StopReason),
		Duration:    res.Stats.Duration,
		Backend:     s.backend,
	}, nil
}

func toInvalidRequest(err error) error {
	var ie *inference.InputError
	if errors.As(err, &ie) {
		if ie.Field == "prompt" {
			return newInvalidRequest("prompt", emptyPromptMessage)
		}
		return newInvalidRequest(ie.Field, fmt.Sprintf("%s: %s", ie.Field, ie.Reason))
	}
	return newInvalidRequest("", err.Error())
}

var timeNow = func() time.Time {
	return time.Now()
}

func toGeneration(rec history.Record) Generation {
	return Generation{
		ID:             rec.ID,
		Object:         "generation",
		CreatedAt:      rec.CreatedAt.Unix(),
		Prompt:         rec.Prompt,
		Text:           rec.Text,
		Temperature:    rec.Temperature,
		WordLimit:      rec.WordLimit,
		GeneratedWords: rec.Generated,
		StopReason:     rec.StopReason,
		DurationMS:     rec.Duration.Milliseconds(),
	}
}
