package main

import "github.com/urfave/cli/v3"

var (
	configFile     string
	modelsPath     string
	vocabularyPath string
	modelPath      string
	backend        string
	inputLength    int64
	remoteURL      string
	remoteModel    string
	historyDB      string
	noHistory      bool
	logLevel       string
	logFormat      string
	debug          bool
)

func commonModelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "models-dir",
			Aliases:     []string{"models-path"},
			Usage:       "directory holding vocabulary.json and an optional .onnx model",
			Destination: &modelsPath,
		},
		&cli.StringFlag{
			Name:        "vocabulary",
			Aliases:     []string{"vocab"},
			Usage:       "path to the tokenizer vocabulary (flat word index or keras tokenizer json)",
			Destination: &vocabularyPath,
		},
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "path to an .onnx next-word model",
			Destination: &modelPath,
		},
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "predictor backend (auto, toy, onnx, remote)",
			Value:       "auto",
			Destination: &backend,
		},
		&cli.Int64Flag{
			Name:        "input-length",
			Usage:       "model context length when it cannot be read from the model",
			Destination: &inputLength,
		},
		&cli.StringFlag{
			Name:        "remote-url",
			Usage:       "base url of a TensorFlow Serving compatible model server",
			Destination: &remoteURL,
		},
		&cli.StringFlag{
			Name:        "remote-model",
			Usage:       "model name on the remote server",
			Value:       "next_word",
			Destination: &remoteModel,
		},
	}
}

func historyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "history-db",
			Usage:       "bbolt file to record generations in (default: user config dir)",
			Destination: &historyDB,
		},
	}
}

// recordingFlags are the history flags of commands that write records.
func recordingFlags() []cli.Flag {
	return append(historyFlags(), &cli.BoolFlag{
		Name:        "no-history",
		Usage:       "do not record generations",
		Destination: &noHistory,
	})
}

func rootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "warn",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}
