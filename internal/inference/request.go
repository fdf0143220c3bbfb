package inference

import (
	"math/rand"
	"strings"

	"github.com/samcharles93/quill/internal/presets"
)

// RequestOptions carries caller supplied values. Nil fields fall back to
// GenDefaults, then to built-in defaults.
type RequestOptions struct {
	Prompt string
	Theme  string

	WordLimit   *int
	Temperature *float64
	Mode        *string
	Seed        *int64
}

type GenDefaults struct {
	WordLimit   *int
	Temperature *float64
	Seed        *int64
}

// ResolveRequest builds a Request. The prompt is trimmed; an empty prompt
// with a known theme uses the theme's phrase. An explicit temperature wins
// over the mode; surprise mode draws from r (nil uses the global source).
func ResolveRequest(opts RequestOptions, defaults GenDefaults, r *rand.Rand) (Request, error) {
	req := Request{
		Prompt:      strings.TrimSpace(opts.Prompt),
		WordLimit:   presets.DefaultWordLimit,
		Temperature: presets.StandardTemperature,
		Seed:        -1,
	}

	if req.Prompt == "" && strings.TrimSpace(opts.Theme) != "" {
		th, ok := presets.LookupTheme(opts.Theme)
		if !ok {
			return Request{}, invalid("theme", "unknown theme %q", opts.Theme)
		}
		req.Prompt = th.Prompt
	}

	if defaults.WordLimit != nil && *defaults.WordLimit >= 0 {
		req.WordLimit = *defaults.WordLimit
	}
	if defaults.Temperature != nil && *defaults.Temperature > 0 {
		req.Temperature = *defaults.Temperature
	}
	if defaults.Seed != nil {
		req.Seed = *defaults.Seed
	}

	if opts.WordLimit != nil {
		req.WordLimit = *opts.WordLimit
	}
	if opts.Seed != nil {
		req.Seed = *opts.Seed
	}

	mode := presets.ModeStandard
	if opts.Mode != nil {
		m, err := presets.ParseMode(*opts.Mode)
		if err != nil {
			return Request{}, invalid("mode", "%v", err)
		}
		mode = m
	}
	switch {
	case opts.Temperature != nil:
		req.Temperature = *opts.Temperature
	case mode == presets.ModeSurprise:
		req.Temperature = mode.Temperature(r)
	}

	return req, nil
}
