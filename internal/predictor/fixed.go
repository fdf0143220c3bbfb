package predictor

import (
	"context"
	"slices"
)

// Fixed returns the same distribution for every window. It is useful for
// examples and for exercising stop conditions deterministically.
type Fixed struct {
	Length int
	Probs  []float64
}

// OneHot returns a Fixed predictor that puts all mass on id.
func OneHot(inputLen, vocabSize, id int) *Fixed {
	probs := make([]float64, vocabSize)
	probs[id] = 1
	return &Fixed{Length: inputLen, Probs: probs}
}

func (f *Fixed) InputLength() int { return f.Length }

func (f *Fixed) Predict(_ context.Context, window []int) ([]float64, error) {
	if err := checkWindow(window, f.Length, len(f.Probs)); err != nil {
		return nil, err
	}
	return slices.Clone(f.Probs), nil
}
