// Package presets holds the prompt themes, random prompts, temperature modes
// and word-limit bounds offered to users. Everything here is stateless.
package presets

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Theme is a named starting phrase.
type Theme struct {
	Name   string `json:"name"`
	Emoji  string `json:"emoji,omitempty"`
	Prompt string `json:"prompt"`
}

var themes = []Theme{
	{Name: "Casual Chat", Emoji: "💬", Prompt: "Hi, how are you"},
	{Name: "Story Starter", Emoji: "📖", Prompt: "Once upon a time"},
	{Name: "Sci-Fi Tech", Emoji: "🤖", Prompt: "In the year 2099"},
	{Name: "Philosophical", Emoji: "💡", Prompt: "The purpose of life is"},
	{Name: "Text Message", Emoji: "📱", Prompt: "Call me when you reach"},
}

var prompts = []string{
	"He opened the door slowly and saw...",
	"Once upon a time in a world far away...",
	"The robot looked up and said...",
	"Love is not just a feeling, it's...",
	"Deep inside the cave, something moved...",
}

// Themes returns the themes in display order.
func Themes() []Theme {
	return append([]Theme(nil), themes...)
}

// Prompts returns the random prompt pool.
func Prompts() []string {
	return append([]string(nil), prompts...)
}

// LookupTheme finds a theme by name, ignoring case, surrounding whitespace
// and separators, so "sci-fi tech", "Sci-Fi Tech" and "scifi_tech" all match.
func LookupTheme(name string) (Theme, bool) {
	key := themeKey(name)
	if key == "" {
		return Theme{}, false
	}
	for _, t := range themes {
		if themeKey(t.Name) == key {
			return t, true
		}
	}
	return Theme{}, false
}

func themeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '-', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// RandomPrompt picks one prompt uniformly. A nil r uses the global source.
func RandomPrompt(r *rand.Rand) string {
	if r == nil {
		return prompts[rand.Intn(len(prompts))]
	}
	return prompts[r.Intn(len(prompts))]
}

// Mode selects how the sampling temperature is chosen.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModeSurprise Mode = "surprise"
)

const (
	StandardTemperature    = 0.8
	SurpriseMinTemperature = 0.3
	SurpriseMaxTemperature = 1.4
)

// ParseMode accepts "standard", "surprise" and the empty string (standard).
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeStandard:
		return ModeStandard, nil
	case ModeSurprise, "surprise-me", "surprise_me":
		return ModeSurprise, nil
	default:
		return "", fmt.Errorf("unknown temperature mode %q (want standard or surprise)", s)
	}
}

// Temperature returns the temperature for mode. Surprise draws uniformly from
// [0.3, 1.4] and rounds to two decimals.
func (m Mode) Temperature(r *rand.Rand) float64 {
	if m != ModeSurprise {
		return StandardTemperature
	}
	var u float64
	if r == nil {
		u = rand.Float64()
	} else {
		u = r.Float64()
	}
	t := SurpriseMinTemperature + u*(SurpriseMaxTemperature-SurpriseMinTemperature)
	return math.Round(t*100) / 100
}

const (
	MinWordLimit     = 10
	MaxWordLimit     = 200
	WordLimitStep    = 10
	DefaultWordLimit = 50
)

// ClampWordLimit snaps n to the nearest step inside [MinWordLimit,
// MaxWordLimit]. Non-positive values fall back to DefaultWordLimit.
func ClampWordLimit(n int) int {
	if n <= 0 {
		return DefaultWordLimit
	}
	n = (n + WordLimitStep/2) / WordLimitStep * WordLimitStep
	return min(max(n, MinWordLimit), MaxWordLimit)
}
