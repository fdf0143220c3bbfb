package predictor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var ErrRemote = errors.New("predictor: remote prediction failed")

// RemoteConfig configures a Remote predictor.
type RemoteConfig struct {
	// BaseURL is the model server root, e.g. http://localhost:8501.
	BaseURL string
	// Model is the served model name.
	Model string
	// InputLength is the context length the served model expects.
	InputLength int
	Timeout     time.Duration
	Client      *http.Client
}

// Remote calls a model server speaking the TensorFlow Serving REST predict
// protocol: POST {base}/v1/models/{model}:predict.
type Remote struct {
	client   *http.Client
	endpoint string
	inputLen int
}

type predictRequest struct {
	Instances [][]int `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error,omitempty"`
}

func NewRemote(cfg RemoteConfig) (*Remote, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("remote predictor: base url is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("remote predictor: parse base url: %w", err)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("remote predictor: model name is required")
	}
	if cfg.InputLength <= 0 {
		return nil, fmt.Errorf("remote predictor: input length must be positive, got %d", cfg.InputLength)
	}
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Remote{
		client:   client,
		endpoint: base + "/v1/models/" + url.PathEscape(cfg.Model) + ":predict",
		inputLen: cfg.InputLength,
	}, nil
}

func (r *Remote) InputLength() int { return r.inputLen }

func (r *Remote) Predict(ctx context.Context, window []int) ([]float64, error) {
	if err := checkWindow(window, r.inputLen, 0); err != nil {
		return nil, err
	}
	body, err := json.Marshal(predictRequest{Instances: [][]int{window}})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemote, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRemote, err)
	}

	var out predictResponse
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && out.Error != "" {
			msg = out.Error
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrRemote, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrRemote, decodeErr)
	}
	if len(out.Predictions) != 1 {
		return nil, fmt.Errorf("%w: expected 1 prediction, got %d", ErrRemote, len(out.Predictions))
	}
	return out.Predictions[0], nil
}
