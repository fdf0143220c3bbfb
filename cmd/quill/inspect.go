package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/quill/internal/vocab"
)

func inspectCmd() *cli.Command {
	var sample int64
	return &cli.Command{
		Name:  "inspect",
		Usage: "Summarise the vocabulary and model",
		Flags: append(commonModelFlags(),
			&cli.Int64Flag{
				Name:        "sample",
				Usage:       "number of lowest-id words to list",
				Value:       10,
				Destination: &sample,
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			applyModelConfig(c, cfg)
			loader, err := newLoader(-1)
			if err != nil {
				return cli.Exit(err, 1)
			}

			v, err := vocab.Load(loader.VocabularyPath)
			if err != nil {
				return cli.Exit(err, 1)
			}
			t := newTable("Field", "Value")
			t.Row("Vocabulary", loader.VocabularyPath)
			if st, err := os.Stat(loader.VocabularyPath); err == nil {
				t.Row("Vocabulary size on disk", humanize.Bytes(uint64(st.Size())))
			}
			t.Row("Words", humanize.Comma(int64(v.Len())))
			t.Row("Output size (max id + 1)", humanize.Comma(int64(v.Size())))
			if v.NumWords() > 0 {
				t.Row("num_words", humanize.Comma(int64(v.NumWords())))
			}
			if tok := v.OOVToken(); tok != "" {
				t.Row("OOV token", tok)
			}
			t.Row("Lowercase", strconv.FormatBool(v.Lower()))

			loaded, err := loader.Load()
			if err != nil {
				t.Row("Model", "error: "+err.Error())
			} else {
				defer func() { _ = loaded.Engine.Close() }()
				if loader.ModelPath != "" {
					t.Row("Model", loader.ModelPath)
					if st, err := os.Stat(loader.ModelPath); err == nil {
						t.Row("Model size on disk", humanize.Bytes(uint64(st.Size())))
					}
				}
				t.Row("Backend", loaded.Info.Backend)
				t.Row("Input length", strconv.Itoa(loaded.Info.InputLength))
				if p, ok := loaded.Predictor.(interface{ VocabSize() int }); ok && p.VocabSize() > 0 {
					t.Row("Model output size", humanize.Comma(int64(p.VocabSize())))
					if p.VocabSize() != v.Size() {
						warn(os.Stderr, "model output size %d does not match vocabulary size %d", p.VocabSize(), v.Size())
					}
				}
			}
			fmt.Println(t.String())

			if sample > 0 {
				words := newTable("Id", "Word")
				for id, n := 1, 0; id < v.Size() && n < int(sample); id++ {
					w, ok := v.Decode(id)
					if !ok {
						continue
					}
					words.Row(strconv.Itoa(id), w)
					n++
				}
				fmt.Println(words.String())
			}
			return nil
		},
	}
}
