// Package vocab implements the word-level vocabulary that maps text to the
// token ids a next-word predictor was trained on, and ids back to words.
//
// Normalisation follows the Keras text tokenizer: lowercase, replace filter
// characters with the split separator, split, drop empty pieces. Id 0 is
// reserved for padding and never maps to a word.
package vocab

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultFilters are the characters stripped from text before splitting.
const DefaultFilters = "!\"#$%&()*+,-./:;<=>?@[\\]^_`{|}~\t\n"

// PadID is the reserved padding id.
const PadID = 0

var ErrInvalidWordIndex = errors.New("vocab: invalid word index")

// Vocabulary is an immutable bidirectional word <-> id mapping. It is safe
// for concurrent use.
type Vocabulary struct {
	wordIndex map[string]int
	indexWord map[int]string
	maxID     int

	lower     bool
	filters   map[rune]struct{}
	split     string
	charLevel bool
	numWords  int
	oovToken  string
	oovID     int
}

type config struct {
	lower     bool
	filters   string
	split     string
	charLevel bool
	numWords  int
	oovToken  string
}

// Option customises how a Vocabulary normalises and encodes text.
type Option func(*config)

// WithLower toggles lowercasing before lookup (default true).
func WithLower(lower bool) Option {
	return func(c *config) { c.lower = lower }
}

// WithFilters replaces the set of characters removed before splitting.
func WithFilters(filters string) Option {
	return func(c *config) { c.filters = filters }
}

// WithSplit sets the word separator (default a single space).
func WithSplit(split string) Option {
	return func(c *config) { c.split = split }
}

// WithCharLevel makes every character a token.
func WithCharLevel(charLevel bool) Option {
	return func(c *config) { c.charLevel = charLevel }
}

// WithNumWords treats words whose id is >= n as unknown. Zero disables the cap.
func WithNumWords(n int) Option {
	return func(c *config) { c.numWords = n }
}

// WithOOVToken maps unknown words to the id of token instead of dropping
// them. The token must be present in the word index.
func WithOOVToken(token string) Option {
	return func(c *config) { c.oovToken = token }
}

// New builds a Vocabulary from a word -> id index. Words must be non-empty;
// ids must be positive and unique.
func New(wordIndex map[string]int, opts ...Option) (*Vocabulary, error) {
	cfg := config{
		lower:   true,
		filters: DefaultFilters,
		split:   " ",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.split == "" {
		return nil, fmt.Errorf("%w: split separator is empty", ErrInvalidWordIndex)
	}
	if cfg.numWords < 0 {
		return nil, fmt.Errorf("%w: num_words is negative", ErrInvalidWordIndex)
	}

	v := &Vocabulary{
		wordIndex: make(map[string]int, len(wordIndex)),
		indexWord: make(map[int]string, len(wordIndex)),
		lower:     cfg.lower,
		filters:   make(map[rune]struct{}, len(cfg.filters)),
		split:     cfg.split,
		charLevel: cfg.charLevel,
		numWords:  cfg.numWords,
		oovToken:  cfg.oovToken,
	}
	for _, r := range cfg.filters {
		v.filters[r] = struct{}{}
	}

	// Sorted so duplicate-id errors are reported deterministically.
	words := make([]string, 0, len(wordIndex))
	for w := range wordIndex {
		words = append(words, w)
	}
	sort.Strings(words)

	for _, w := range words {
		id := wordIndex[w]
		if w == "" {
			return nil, fmt.Errorf("%w: empty word mapped to id %d", ErrInvalidWordIndex, id)
		}
		if id <= PadID {
			return nil, fmt.Errorf("%w: word %q has id %d (ids must be > %d)", ErrInvalidWordIndex, w, id, PadID)
		}
		if prev, ok := v.indexWord[id]; ok {
			return nil, fmt.Errorf("%w: id %d assigned to both %q and %q", ErrInvalidWordIndex, id, prev, w)
		}
		v.wordIndex[w] = id
		v.indexWord[id] = w
		v.maxID = max(v.maxID, id)
	}

	if cfg.oovToken != "" {
		id, ok := v.wordIndex[cfg.oovToken]
		if !ok {
			return nil, fmt.Errorf("%w: oov token %q is not in the word index", ErrInvalidWordIndex, cfg.oovToken)
		}
		v.oovID = id
	}
	return v, nil
}

// Encode converts text into token ids. Unknown words are dropped, or mapped
// to the out-of-vocabulary id when one is configured.
func (v *Vocabulary) Encode(text string) []int {
	words := v.words(text)
	ids := make([]int, 0, len(words))
	for _, w := range words {
		id, ok := v.wordIndex[w]
		if ok && v.numWords > 0 && id >= v.numWords {
			ok = false
		}
		switch {
		case ok:
			ids = append(ids, id)
		case v.oovID != 0:
			ids = append(ids, v.oovID)
		}
	}
	return ids
}

// Decode returns the word for id. The second result is false when the id is
// not mapped, which includes the padding id.
func (v *Vocabulary) Decode(id int) (string, bool) {
	w, ok := v.indexWord[id]
	return w, ok
}

// ID returns the id of word as stored in the index (no normalisation).
func (v *Vocabulary) ID(word string) (int, bool) {
	id, ok := v.wordIndex[word]
	return id, ok
}

// Size is the length of the probability vector a matching predictor emits:
// the highest id plus one.
func (v *Vocabulary) Size() int {
	return v.maxID + 1
}

// Len is the number of words in the index.
func (v *Vocabulary) Len() int {
	return len(v.wordIndex)
}

func (v *Vocabulary) OOVToken() string { return v.oovToken }
func (v *Vocabulary) NumWords() int    { return v.numWords }
func (v *Vocabulary) Lower() bool      { return v.lower }
func (v *Vocabulary) CharLevel() bool  { return v.charLevel }

func (v *Vocabulary) words(text string) []string {
	if v.lower {
		text = strings.ToLower(text)
	}
	if v.charLevel {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}

	if len(v.filters) > 0 {
		var b strings.Builder
		b.Grow(len(text))
		for _, r := range text {
			if _, drop := v.filters[r]; drop {
				b.WriteString(v.split)
				continue
			}
			b.WriteRune(r)
		}
		text = b.String()
	}

	parts := strings.Split(text, v.split)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
