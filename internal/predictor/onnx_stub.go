//go:build !onnx

package predictor

import "context"

// ONNX is unavailable without the onnx build tag.
type ONNX struct{}

func NewONNX(ONNXConfig) (*ONNX, error) {
	return nil, ErrONNXUnavailable
}

func (*ONNX) InputLength() int { return 0 }

func (*ONNX) Predict(context.Context, []int) ([]float64, error) {
	return nil, ErrONNXUnavailable
}

func (*ONNX) Close() error { return nil }
