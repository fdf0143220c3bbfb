package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/quill/internal/inference"
)

// Config is ~/.config/quill/config.yaml. Pointer fields distinguish unset
// from zero.
type Config struct {
	ModelsDir   string `yaml:"models_dir"`
	Vocabulary  string `yaml:"vocabulary"`
	Model       string `yaml:"model"`
	Backend     string `yaml:"backend"`
	InputLength *int64 `yaml:"input_length"`
	RemoteURL   string `yaml:"remote_url"`
	RemoteModel string `yaml:"remote_model"`

	// Generation defaults
	Temperature *float64 `yaml:"temperature"`
	WordLimit   *int     `yaml:"word_limit"`
	Seed        *int64   `yaml:"seed"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ServerAddress string `yaml:"server_address"`
	HistoryDB     string `yaml:"history_db"`
}

func configPath() string {
	if configFile != "" {
		return configFile
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "quill", "config.yaml")
}

// LoadConfig reads the config file. A missing file is a zero Config.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (cfg Config) genDefaults() inference.GenDefaults {
	return inference.GenDefaults{
		WordLimit:   cfg.WordLimit,
		Temperature: cfg.Temperature,
		Seed:        cfg.Seed,
	}
}

// applyModelConfig copies config values into the shared model flags the
// user did not set explicitly.
func applyModelConfig(c *cli.Command, cfg Config) {
	if cfg.ModelsDir != "" && !c.IsSet("models-dir") {
		modelsPath = cfg.ModelsDir
	}
	if cfg.Vocabulary != "" && !c.IsSet("vocabulary") {
		vocabularyPath = cfg.Vocabulary
	}
	if cfg.Model != "" && !c.IsSet("model") {
		modelPath = cfg.Model
	}
	if cfg.Backend != "" && !c.IsSet("backend") {
		backend = cfg.Backend
	}
	if cfg.InputLength != nil && !c.IsSet("input-length") {
		inputLength = *cfg.InputLength
	}
	if cfg.RemoteURL != "" && !c.IsSet("remote-url") {
		remoteURL = cfg.RemoteURL
	}
	if cfg.RemoteModel != "" && !c.IsSet("remote-model") {
		remoteModel = cfg.RemoteModel
	}
	if cfg.HistoryDB != "" && !c.IsSet("history-db") {
		historyDB = cfg.HistoryDB
	}
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
