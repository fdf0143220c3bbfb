package predictor

import (
	"errors"
	"os"
)

// ErrONNXUnavailable is returned by NewONNX in builds without the onnx tag.
var ErrONNXUnavailable = errors.New("predictor: onnx backend not available in this build (rebuild with -tags onnx)")

// ONNXConfig configures an ONNX predictor.
type ONNXConfig struct {
	// ModelPath is the exported .onnx file.
	ModelPath string
	// LibraryPath is the onnxruntime shared library. Defaults to
	// $ONNXRUNTIME_SHARED_LIBRARY_PATH.
	LibraryPath string
	// InputLength overrides the context length when the model input has a
	// dynamic sequence dimension.
	InputLength int
}

func (c ONNXConfig) libraryPath() string {
	if c.LibraryPath != "" {
		return c.LibraryPath
	}
	return os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")
}
