package logits

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Epsilon is added to every weight before taking the log so that entries the
// predictor scored as exactly zero stay finite.
const Epsilon = 1e-8

var (
	ErrEmptyDistribution   = errors.New("logits: empty distribution")
	ErrInvalidTemperature  = errors.New("logits: temperature must be positive and finite")
	ErrInvalidDistribution = errors.New("logits: invalid distribution")
)

// SamplerConfig configures the random source of a Sampler.
//
// When Source is set it is used as-is and Seed is ignored. A negative Seed
// without a Source seeds from the wall clock.
type SamplerConfig struct {
	Seed   int64
	Source rand.Source
}

// Sampler draws token ids from probability vectors reshaped by temperature.
// It is safe for concurrent use; only the random draw is serialized.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler returns a new sampler with the provided configuration.
func NewSampler(cfg SamplerConfig) *Sampler {
	src := cfg.Source
	if src == nil {
		seed := cfg.Seed
		if seed < 0 {
			seed = time.Now().UnixNano()
		}
		src = rand.NewSource(seed)
	}
	return &Sampler{rng: rand.New(src)}
}

// Sample draws a single index from the provided probability vector. The
// sample process involves the following steps:
//
//  1. Add Epsilon to every weight and take the natural log.
//  2. Divide the log-weights by temperature.
//  3. Exponentiate and renormalize so the weights sum to one.
//  4. Draw a value from [0,1) and walk the cumulative distribution.
//
// Low temperatures sharpen the distribution toward its mode, temperatures
// above one flatten it toward uniform.
func (s *Sampler) Sample(probabilities []float64, temperature float64) (int, error) {
	dist, err := Reshape(probabilities, temperature)
	if err != nil {
		return 0, err
	}
	return pick(dist, s.float64()), nil
}

func (s *Sampler) float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Reshape applies the temperature transform to probabilities and returns a
// new, normalized distribution. The input slice is not modified.
func Reshape(probabilities []float64, temperature float64) ([]float64, error) {
	if len(probabilities) == 0 {
		return nil, ErrEmptyDistribution
	}
	if !(temperature > 0) || math.IsInf(temperature, 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidTemperature, temperature)
	}
	for i, p := range probabilities {
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("%w: weight %d is %v", ErrInvalidDistribution, i, p)
		}
	}

	raw := make([]float64, len(probabilities))
	copy(raw, probabilities)
	floats.AddConst(Epsilon, raw)
	for i, w := range raw {
		raw[i] = math.Log(w)
	}

	logw := make([]float64, len(raw))
	for i, l := range raw {
		logw[i] = l / temperature
	}
	maxv := floats.Max(logw)

	// A tiny temperature can push log-weights past the float range. Division
	// keeps the order, so the limit is uniform over the raw maxima.
	if math.IsInf(maxv, 0) {
		return argmaxDistribution(raw), nil
	}

	dist := make([]float64, len(logw))
	for i, l := range logw {
		dist[i] = math.Exp(l)
	}
	sum := floats.Sum(dist)

	// Extreme temperatures can underflow every entry to zero or overflow one
	// to +Inf. Shifting by the max log-weight yields the same distribution.
	if sum == 0 || math.IsInf(sum, 0) {
		for i, l := range logw {
			dist[i] = math.Exp(l - maxv)
		}
		sum = floats.Sum(dist)
	}
	if !(sum > 0) || math.IsInf(sum, 0) {
		return nil, fmt.Errorf("%w: weights sum to %v", ErrInvalidDistribution, sum)
	}

	for i := range dist {
		dist[i] /= sum
	}
	return dist, nil
}

// argmaxDistribution spreads all mass evenly over the entries tied for the
// largest value.
func argmaxDistribution(x []float64) []float64 {
	maxv := floats.Max(x)
	dist := make([]float64, len(x))
	n := 0
	for i, v := range x {
		if v == maxv {
			dist[i] = 1
			n++
		}
	}
	floats.Scale(1/float64(n), dist)
	return dist
}

// pick walks the cumulative distribution and returns the first index whose
// running total exceeds r. Rounding can leave the total just under one, in
// which case the last index with non-zero weight wins.
func pick(dist []float64, r float64) int {
	var c float64
	for i, p := range dist {
		c += p
		if r < c {
			return i
		}
	}
	for i := len(dist) - 1; i >= 0; i-- {
		if dist[i] > 0 {
			return i
		}
	}
	return len(dist) - 1
}
