// Package predictor provides next-word probability models that satisfy the
// generator's predictor contract: a fixed input length and a probability
// vector over the vocabulary for every context window.
package predictor

import (
	"errors"
	"fmt"
)

var (
	ErrShapeMismatch = errors.New("predictor: context length mismatch")
	ErrTokenRange    = errors.New("predictor: token id out of range")
)

func checkWindow(window []int, inputLen, vocabSize int) error {
	if len(window) != inputLen {
		return fmt.Errorf("%w: got %d ids, want %d", ErrShapeMismatch, len(window), inputLen)
	}
	for i, id := range window {
		if id < 0 || (vocabSize > 0 && id >= vocabSize) {
			return fmt.Errorf("%w: position %d has id %d (vocab size %d)", ErrTokenRange, i, id, vocabSize)
		}
	}
	return nil
}
