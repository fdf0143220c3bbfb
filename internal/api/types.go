package api

import "github.com/samcharles93/quill/internal/presets"

type GenerationRequest struct {
	Prompt      string   `json:"prompt"`
	Theme       string   `json:"theme,omitempty"`
	WordLimit   *int     `json:"word_limit,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Mode        *string  `json:"mode,omitempty"`
	Seed        *int64   `json:"seed,omitempty"`
	Store       *bool    `json:"store,omitempty"`
}

type Generation struct {
	ID             string  `json:"id"`
	Object         string  `json:"object"`
	CreatedAt      int64   `json:"created_at"`
	Prompt         string  `json:"prompt"`
	Text           string  `json:"text"`
	Temperature    float64 `json:"temperature"`
	WordLimit      int     `json:"word_limit"`
	GeneratedWords int     `json:"generated_words"`
	StopReason     string  `json:"stop_reason"`
	DurationMS     int64   `json:"duration_ms"`
}

type GenerationList struct {
	Object string       `json:"object"`
	Data   []Generation `json:"data"`
}

type DeleteResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type ThemeList struct {
	Object  string          `json:"object"`
	Data    []presets.Theme `json:"data"`
	Prompts []string        `json:"prompts"`
}

type RandomPrompt struct {
	Object string `json:"object"`
	Prompt string `json:"prompt"`
}

type ResponseError struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

type ErrorResponse struct {
	Error ResponseError `json:"error"`
	// PartialText is the text produced before a failure, when any.
	PartialText string `json:"partial_text,omitempty"`
}
