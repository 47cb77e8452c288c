package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsawler/sentiment"
)

func (a *app) prepareCommand() *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Clean the raw comment CSV into a labeled corpus",
		Long: `Reads a CSV with clean_comment and category (-1, 0, 1) columns, normalizes every
comment, maps categories to labels 0, 1 and 2, drops comments of 5 characters or fewer
after cleaning and writes a text,label CSV.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(input)
			if err != nil {
				return err
			}
			defer f.Close()

			corpus, stats, err := sentiment.BuildCorpus(f)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			if len(corpus) == 0 {
				return fmt.Errorf("%s: no usable comments", input)
			}
			if err := writeLabeledFile(output, corpus); err != nil {
				return err
			}

			a.logger.Info("corpus prepared",
				zap.String("output", output),
				zap.Int("rows", stats.Rows),
				zap.Int("kept", stats.Kept),
			)
			renderCorpusStats(a.out, stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "data/raw/youtube_comments.csv", "raw comment CSV")
	cmd.Flags().StringVar(&output, "output", "data/processed/comments_clean.csv", "cleaned corpus CSV")
	return cmd
}
