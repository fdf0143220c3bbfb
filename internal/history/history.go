// Package history persists finished generations so they can be listed,
// re-read and exported later.
package history

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("history: generation not found")

// Record is one finished generation.
type Record struct {
	ID          string        `json:"id"`
	CreatedAt   time.Time     `json:"created_at"`
	Prompt      string        `json:"prompt"`
	Text        string        `json:"text"`
	Temperature float64       `json:"temperature"`
	WordLimit   int           `json:"word_limit"`
	Generated   int           `json:"generated_words"`
	StopReason  string        `json:"stop_reason"`
	Duration    time.Duration `json:"duration"`
	Backend     string        `json:"backend,omitempty"`
}

type Store interface {
	Save(rec Record) error
	Get(id string) (Record, error)
	// List returns records newest first. limit <= 0 returns all of them.
	List(limit int) ([]Record, error)
	Delete(id string) error
	Close() error
}

// NewID returns a fresh generation id.
func NewID() string {
	return "gen_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func sortNewestFirst(recs []Record, limit int) []Record {
	slices.SortFunc(recs, func(a, b Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}
