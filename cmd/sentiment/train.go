package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsawler/sentiment"
)

func (a *app) trainCommand() *cobra.Command {
	var (
		trainPath, testPath, modelDir string
		families                      []string
	)
	config := sentiment.DefaultTrainerConfig()

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Grid-search every classifier family and save the best model",
		Long: `Fits the TF-IDF vectorizer on the training set, cross-validates the hyperparameter
grid of each classifier family, scores the refitted families on the test set and saves
the one with the highest weighted F1 to the model directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lang := config.Vectorizer.StopWords; lang != "" && !sentiment.IsStopWordLanguageSupported(lang) {
				return fmt.Errorf("unsupported stop word language %q (supported: %s)",
					lang, strings.Join(sentiment.SupportedStopWordLanguages(), ", "))
			}

			train, err := readLabeledFile(trainPath)
			if err != nil {
				return err
			}
			test, err := readLabeledFile(testPath)
			if err != nil {
				return err
			}

			specs, err := selectFamilies(families)
			if err != nil {
				return err
			}
			config.Families = specs
			config.Logger = a.logger

			start := time.Now()
			artifact, results, err := sentiment.NewTrainer(config).TrainAndSelect(cmd.Context(), train, test)
			if err != nil {
				return err
			}

			for _, r := range results {
				renderEvaluation(a.out, r)
			}
			renderComparison(a.out, results, artifact.Metadata.ModelType)

			if err := sentiment.Save(modelDir, artifact); err != nil {
				return err
			}
			a.logger.Info("model saved",
				zap.String("dir", modelDir),
				zap.String("model_type", artifact.Metadata.ModelType),
				zap.String("run_id", artifact.Metadata.RunID),
				zap.Duration("took", time.Since(start)),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&trainPath, "train", "data/processed/train.csv", "training set CSV")
	cmd.Flags().StringVar(&testPath, "test", "data/processed/test.csv", "test set CSV")
	cmd.Flags().StringVar(&modelDir, "model-dir", "models", "directory the artifacts are written to")
	cmd.Flags().StringSliceVar(&families, "families", nil, "families to train (default all)")
	cmd.Flags().IntVar(&config.Folds, "folds", config.Folds, "cross-validation folds")
	cmd.Flags().IntVar(&config.Workers, "workers", config.Workers, "grid points evaluated concurrently")
	cmd.Flags().Int64Var(&config.Seed, "seed", config.Seed, "random seed")
	cmd.Flags().IntVar(&config.Vectorizer.MaxFeatures, "max-features", config.Vectorizer.MaxFeatures, "vocabulary size cap")
	cmd.Flags().StringVar(&config.Vectorizer.StopWords, "stop-words", config.Vectorizer.StopWords, "ISO 639-1 code of stop words to remove (empty keeps them)")
	return cmd
}

// selectFamilies keeps the default grids of the named families, in the
// order given. No names selects every family.
func selectFamilies(names []string) ([]sentiment.FamilySpec, error) {
	all := sentiment.DefaultFamilies()
	if len(names) == 0 {
		return all, nil
	}

	var specs []sentiment.FamilySpec
	for _, name := range names {
		found := false
		for _, spec := range all {
			if string(spec.Family) == name {
				specs = append(specs, spec)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown classifier family %q", name)
		}
	}
	return specs, nil
}
