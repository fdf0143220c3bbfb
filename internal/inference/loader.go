package inference

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samcharles93/quill/internal/logits"
	"github.com/samcharles93/quill/internal/predictor"
	"github.com/samcharles93/quill/internal/vocab"
)

const (
	BackendToy    = "toy"
	BackendONNX   = "onnx"
	BackendRemote = "remote"
)

const (
	defaultToyInputLength = 8
	toyHidden             = 32
	toyWeightSeed         = 1
)

// Loader loads a vocabulary and a predictor once per process.
type Loader struct {
	VocabularyPath string
	ModelPath      string
	// Backend is toy, onnx or remote. Empty picks remote when RemoteURL is
	// set, onnx for a .onnx model path and toy otherwise.
	Backend     string
	InputLength int

	RemoteURL   string
	RemoteModel string

	// Seed seeds the shared sampler. Negative uses the wall clock.
	Seed int64
}

type LoadResult struct {
	Engine     *EngineImpl
	Vocabulary *vocab.Vocabulary
	Predictor  Predictor
	Info       Info
}

func (l Loader) Load() (*LoadResult, error) {
	if strings.TrimSpace(l.VocabularyPath) == "" {
		return nil, fmt.Errorf("vocabulary path is required")
	}
	v, err := vocab.Load(l.VocabularyPath)
	if err != nil {
		return nil, err
	}

	backend := l.resolveBackend()
	var p Predictor
	switch backend {
	case BackendToy:
		length := l.InputLength
		if length <= 0 {
			length = defaultToyInputLength
		}
		p, err = predictor.NewToy(v.Size(), toyHidden, length, toyWeightSeed)
	case BackendONNX:
		if strings.TrimSpace(l.ModelPath) == "" {
			return nil, fmt.Errorf("model path is required for the onnx backend")
		}
		p, err = predictor.NewONNX(predictor.ONNXConfig{ModelPath: l.ModelPath, InputLength: l.InputLength})
	case BackendRemote:
		p, err = predictor.NewRemote(predictor.RemoteConfig{
			BaseURL:     l.RemoteURL,
			Model:       l.RemoteModel,
			InputLength: l.InputLength,
		})
	default:
		return nil, fmt.Errorf("unknown backend %q (want toy, onnx or remote)", backend)
	}
	if err != nil {
		return nil, err
	}

	info := Info{
		Backend:     backend,
		InputLength: p.InputLength(),
		VocabSize:   v.Size(),
	}
	sampler := logits.NewSampler(logits.SamplerConfig{Seed: l.Seed})
	return &LoadResult{
		Engine:     NewEngine(p, v, sampler, info),
		Vocabulary: v,
		Predictor:  p,
		Info:       info,
	}, nil
}

func (l Loader) resolveBackend() string {
	if b := strings.ToLower(strings.TrimSpace(l.Backend)); b != "" {
		return b
	}
	if strings.TrimSpace(l.RemoteURL) != "" {
		return BackendRemote
	}
	if strings.EqualFold(filepath.Ext(l.ModelPath), ".onnx") {
		return BackendONNX
	}
	return BackendToy
}
