//go:build !onnx

package predictor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestONNXUnavailableWithoutTag(t *testing.T) {
	t.Parallel()

	_, err := NewONNX(ONNXConfig{ModelPath: "model.onnx"})
	require.ErrorIs(t, err, ErrONNXUnavailable)
}
