//go:build onnx

package predictor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	ortOnce sync.Once
	ortErr  error
)

func initRuntime(libPath string) error {
	ortOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortErr = ort.InitializeEnvironment()
	})
	return ortErr
}

// ONNX runs a next-word model exported to ONNX. The model must take a single
// [1, W-1] id tensor and produce a single [1, V] probability tensor.
type ONNX struct {
	session   *ort.DynamicAdvancedSession
	inputType ort.TensorElementDataType
	inputLen  int
	vocabSize int
}

func NewONNX(cfg ONNXConfig) (*ONNX, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("onnx predictor: model path is required")
	}
	if err := initRuntime(cfg.libraryPath()); err != nil {
		return nil, fmt.Errorf("onnx predictor: initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx predictor: read model info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) != 1 {
		return nil, fmt.Errorf("onnx predictor: expected 1 input and 1 output, got %d and %d", len(inputs), len(outputs))
	}
	in, out := inputs[0], outputs[0]

	inputLen := cfg.InputLength
	if dims := in.Dimensions; len(dims) == 2 && dims[1] > 0 {
		if inputLen > 0 && int(dims[1]) != inputLen {
			return nil, fmt.Errorf("%w: model expects %d ids, configured %d", ErrShapeMismatch, dims[1], inputLen)
		}
		inputLen = int(dims[1])
	}
	if inputLen <= 0 {
		return nil, fmt.Errorf("onnx predictor: input %q has dynamic length %v; set input_length", in.Name, in.Dimensions)
	}

	vocabSize := 0
	if dims := out.Dimensions; len(dims) == 2 && dims[1] > 0 {
		vocabSize = int(dims[1])
	}

	switch in.DataType {
	case ort.TensorElementDataTypeFloat, ort.TensorElementDataTypeInt32, ort.TensorElementDataTypeInt64:
	default:
		return nil, fmt.Errorf("onnx predictor: unsupported input type %v", in.DataType)
	}
	if out.DataType != ort.TensorElementDataTypeFloat {
		return nil, fmt.Errorf("onnx predictor: unsupported output type %v", out.DataType)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, []string{in.Name}, []string{out.Name}, nil)
	if err != nil {
		return nil, fmt.Errorf("onnx predictor: create session: %w", err)
	}
	return &ONNX{
		session:   session,
		inputType: in.DataType,
		inputLen:  inputLen,
		vocabSize: vocabSize,
	}, nil
}

func (m *ONNX) InputLength() int { return m.inputLen }

// VocabSize is the model output width, or 0 when the model leaves it dynamic.
func (m *ONNX) VocabSize() int { return m.vocabSize }

// Predict runs one forward pass. ctx is not consulted; onnxruntime calls are
// not interruptible.
func (m *ONNX) Predict(_ context.Context, window []int) ([]float64, error) {
	if err := checkWindow(window, m.inputLen, m.vocabSize); err != nil {
		return nil, err
	}
	input, err := m.inputTensor(window)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Destroy() }()

	outputs := []ort.Value{nil}
	if err := m.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("onnx predictor: run: %w", err)
	}
	defer func() { _ = outputs[0].Destroy() }()

	t, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, errors.New("onnx predictor: output is not a float32 tensor")
	}
	data := t.GetData()
	probs := make([]float64, len(data))
	for i, v := range data {
		probs[i] = float64(v)
	}
	return probs, nil
}

func (m *ONNX) inputTensor(window []int) (ort.Value, error) {
	shape := ort.NewShape(1, int64(len(window)))
	switch m.inputType {
	case ort.TensorElementDataTypeInt64:
		data := make([]int64, len(window))
		for i, id := range window {
			data[i] = int64(id)
		}
		return ort.NewTensor(shape, data)
	case ort.TensorElementDataTypeInt32:
		data := make([]int32, len(window))
		for i, id := range window {
			data[i] = int32(id)
		}
		return ort.NewTensor(shape, data)
	default:
		data := make([]float32, len(window))
		for i, id := range window {
			data[i] = float32(id)
		}
		return ort.NewTensor(shape, data)
	}
}

func (m *ONNX) Close() error {
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}
