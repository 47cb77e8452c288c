package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsawler/sentiment"
)

func (a *app) splitCommand() *cobra.Command {
	var (
		input, trainOut, testOut string
		testSize                 float64
		seed                     int64
	)

	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a labeled corpus into stratified train and test sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			examples, err := readLabeledFile(input)
			if err != nil {
				return err
			}

			train, test, err := sentiment.StratifiedSplit(examples, testSize, seed)
			if err != nil {
				return err
			}
			if err := writeLabeledFile(trainOut, train); err != nil {
				return err
			}
			if err := writeLabeledFile(testOut, test); err != nil {
				return err
			}

			a.logger.Info("corpus split",
				zap.Int("train", len(train)),
				zap.Int("test", len(test)),
				zap.Int64("seed", seed),
			)
			renderSplit(a.out, train, test)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "data/processed/comments_clean.csv", "labeled corpus CSV")
	cmd.Flags().StringVar(&trainOut, "train-out", "data/processed/train.csv", "training set CSV")
	cmd.Flags().StringVar(&testOut, "test-out", "data/processed/test.csv", "test set CSV")
	cmd.Flags().Float64Var(&testSize, "test-size", 0.2, "fraction held out for testing")
	cmd.Flags().Int64Var(&seed, "seed", 42, "shuffle seed")
	return cmd
}
