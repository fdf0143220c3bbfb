package vocab

import (
	"bytes"
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// kerasDocument is the layout written by keras Tokenizer.to_json(). The word
// index is itself a JSON document stored as a string.
type kerasDocument struct {
	ClassName string       `json:"class_name"`
	Config    *kerasConfig `json:"config"`
}

type kerasConfig struct {
	NumWords  *int            `json:"num_words"`
	Filters   *string         `json:"filters"`
	Lower     *bool           `json:"lower"`
	Split     *string         `json:"split"`
	CharLevel *bool           `json:"char_level"`
	OOVToken  *string         `json:"oov_token"`
	WordIndex json.RawMessage `json:"word_index"`
}

// Load reads a vocabulary file from disk. See Parse for accepted layouts.
func Load(path string, opts ...Option) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	v, err := Parse(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary %s: %w", path, err)
	}
	return v, nil
}

// Parse decodes either a flat {"word": id} object or a keras tokenizer JSON
// document. Settings found in a keras document are applied first; opts
// override them.
func Parse(data []byte, opts ...Option) (*Vocabulary, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidWordIndex)
	}

	var doc kerasDocument
	if err := json.Unmarshal(data, &doc); err == nil && doc.Config != nil && len(doc.Config.WordIndex) > 0 {
		return parseKeras(doc.Config, opts)
	}

	var flat map[string]int
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWordIndex, err)
	}
	return New(flat, opts...)
}

func parseKeras(cfg *kerasConfig, opts []Option) (*Vocabulary, error) {
	raw := bytes.TrimSpace(cfg.WordIndex)
	if len(raw) > 0 && raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, fmt.Errorf("%w: word_index: %v", ErrInvalidWordIndex, err)
		}
		raw = []byte(encoded)
	}
	var wordIndex map[string]int
	if err := json.Unmarshal(raw, &wordIndex); err != nil {
		return nil, fmt.Errorf("%w: word_index: %v", ErrInvalidWordIndex, err)
	}

	fromDoc := make([]Option, 0, 6)
	if cfg.NumWords != nil {
		fromDoc = append(fromDoc, WithNumWords(*cfg.NumWords))
	}
	if cfg.Filters != nil {
		fromDoc = append(fromDoc, WithFilters(*cfg.Filters))
	}
	if cfg.Lower != nil {
		fromDoc = append(fromDoc, WithLower(*cfg.Lower))
	}
	if cfg.Split != nil {
		fromDoc = append(fromDoc, WithSplit(*cfg.Split))
	}
	if cfg.CharLevel != nil {
		fromDoc = append(fromDoc, WithCharLevel(*cfg.CharLevel))
	}
	if cfg.OOVToken != nil {
		fromDoc = append(fromDoc, WithOOVToken(*cfg.OOVToken))
	}
	return New(wordIndex, append(fromDoc, opts...)...)
}
