package predictor

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// padBias keeps the padding slot unlikely without making it impossible, so
// generations with the toy model still exercise the decode-miss stop.
const padBias = -4

// Toy is a minimal next-word model used for demos, tests and benchmarks when
// no trained model is available. It consists of an embedding matrix, a
// weight matrix projecting hidden activations back to vocabulary logits and
// a bias vector. It conditions only on the most recent non-padding id of the
// window. Weights are derived from a seed, so output is deterministic.
type Toy struct {
	vocab    int
	hidden   int
	inputLen int

	emb  *mat.Dense // [vocab x hidden]
	w    *mat.Dense // [hidden x vocab]
	bias []float64  // [vocab]
}

// NewToy constructs a model with the given vocabulary size, hidden size and
// context length, initialising weights from seed.
func NewToy(vocabSize, hidden, inputLen int, seed int64) (*Toy, error) {
	if vocabSize < 2 {
		return nil, fmt.Errorf("toy predictor: vocab size must be >= 2, got %d", vocabSize)
	}
	if hidden <= 0 || inputLen <= 0 {
		return nil, fmt.Errorf("toy predictor: hidden (%d) and input length (%d) must be positive", hidden, inputLen)
	}

	r := rand.New(rand.NewSource(seed))
	fill := func(n int, scale float64) []float64 {
		data := make([]float64, n)
		for i := range data {
			data[i] = r.NormFloat64() * scale
		}
		return data
	}

	scale := 1 / math.Sqrt(float64(hidden))
	m := &Toy{
		vocab:    vocabSize,
		hidden:   hidden,
		inputLen: inputLen,
		emb:      mat.NewDense(vocabSize, hidden, fill(vocabSize*hidden, 1)),
		w:        mat.NewDense(hidden, vocabSize, fill(hidden*vocabSize, 2*scale)),
		bias:     make([]float64, vocabSize),
	}
	m.bias[0] = padBias
	return m, nil
}

func (m *Toy) InputLength() int { return m.inputLen }

func (m *Toy) VocabSize() int { return m.vocab }

// Predict returns a softmax over the vocabulary conditioned on the last
// non-padding id in window. An all-padding window conditions on id 0.
func (m *Toy) Predict(_ context.Context, window []int) ([]float64, error) {
	if err := checkWindow(window, m.inputLen, m.vocab); err != nil {
		return nil, err
	}
	tok := 0
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] != 0 {
			tok = window[i]
			break
		}
	}

	// logits = W^T * Emb[tok] + bias
	var logits mat.VecDense
	logits.MulVec(m.w.T(), m.emb.RowView(tok))
	out := make([]float64, m.vocab)
	for j := range out {
		out[j] = logits.AtVec(j) + m.bias[j]
	}
	softmax(out)
	return out, nil
}

func softmax(x []float64) {
	maxv := floats.Max(x)
	for i, v := range x {
		x[i] = math.Exp(v - maxv)
	}
	floats.Scale(1/floats.Sum(x), x)
}
