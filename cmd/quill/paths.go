package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samcharles93/quill/internal/inference"
)

const envQuillModelsDir = "QUILL_MODELS_DIR"

// Vocabulary file names looked up inside a models directory, in order.
var vocabularyNames = []string{"vocabulary.json", "tokenizer.json", "word_index.json"}

// stdinIsTTY is a small seam for tests.
var stdinIsTTY = func() bool { return isTerminal(os.Stdin) }

type modelFiles struct {
	Vocabulary string
	Model      string
}

// resolveModelFiles fills in the vocabulary and model paths from the models
// directory (flag, then $QUILL_MODELS_DIR) when they are not given directly.
func resolveModelFiles(vocabFlag, modelFlag, modelsDir string) (modelFiles, error) {
	files := modelFiles{
		Vocabulary: cleanPath(vocabFlag),
		Model:      cleanPath(modelFlag),
	}
	if files.Vocabulary != "" && (files.Model != "" || modelsDir == "") {
		return files, nil
	}

	dir := strings.TrimSpace(modelsDir)
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv(envQuillModelsDir))
	}
	if dir == "" {
		if files.Vocabulary != "" {
			return files, nil
		}
		return files, fmt.Errorf("--vocabulary or --models-dir is required unless %s is set", envQuillModelsDir)
	}

	st, err := os.Stat(dir)
	if err != nil {
		return files, err
	}
	if !st.IsDir() {
		return files, fmt.Errorf("models path is not a directory: %s", dir)
	}

	if files.Vocabulary == "" {
		for _, name := range vocabularyNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				files.Vocabulary = p
				break
			}
		}
		if files.Vocabulary == "" {
			return files, fmt.Errorf("no vocabulary found in %s (looked for %s)", dir, strings.Join(vocabularyNames, ", "))
		}
	}
	if files.Model == "" {
		models, err := discoverONNXModels(dir)
		if err != nil {
			return files, err
		}
		if len(models) > 0 {
			files.Model = models[0]
		}
	}
	return files, nil
}

func discoverONNXModels(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("models directory is empty")
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var models []string
	for _, e := range ents {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".onnx") {
			continue
		}
		models = append(models, filepath.Join(dir, e.Name()))
	}
	sort.Strings(models)
	return models, nil
}

// newLoader builds an inference.Loader from the shared model flags.
func newLoader(seed int64) (inference.Loader, error) {
	files, err := resolveModelFiles(vocabularyPath, modelPath, modelsPath)
	if err != nil {
		return inference.Loader{}, err
	}
	b := strings.TrimSpace(backend)
	if strings.EqualFold(b, "auto") {
		b = ""
	}
	return inference.Loader{
		VocabularyPath: files.Vocabulary,
		ModelPath:      files.Model,
		Backend:        b,
		InputLength:    int(inputLength),
		RemoteURL:      remoteURL,
		RemoteModel:    remoteModel,
		Seed:           seed,
	}, nil
}

// historyPath is the bbolt file generate and serve record into, and history
// reads from. An empty result means history is off.
func historyPath(disabled bool) string {
	if disabled {
		return ""
	}
	if p := cleanPath(historyDB); p != "" {
		return p
	}
	return defaultHistoryPath()
}

func defaultHistoryPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "quill", "history.db")
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return filepath.Clean(p)
}
