package main

import (
	"github.com/spf13/cobra"

	"github.com/tsawler/sentiment"
)

func (a *app) exploreCommand() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Report class balance and comment length statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			examples, err := readLabeledFile(input)
			if err != nil {
				return err
			}
			report, err := sentiment.ExploreCorpus(examples)
			if err != nil {
				return err
			}
			renderCorpusReport(a.out, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "data/processed/comments_clean.csv", "labeled corpus CSV")
	return cmd
}
