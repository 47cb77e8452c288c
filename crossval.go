package sentiment

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// stratifiedFolds assigns every example to one of k folds so that each
// class is spread evenly: the j-th example of a class goes to fold j mod k.
func stratifiedFolds(y []Label, k int) ([]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("cross-validation needs at least 2 folds, got %d", k)
	}
	if len(y) < k {
		return nil, fmt.Errorf("cannot split %d examples into %d folds", len(y), k)
	}

	var seen [NumClasses]int
	folds := make([]int, len(y))
	for i, label := range y {
		folds[i] = seen[label] % k
		seen[label]++
	}

	largest := 0
	for _, n := range seen {
		largest = max(largest, n)
	}
	if largest < k {
		return nil, fmt.Errorf("%d folds is more than the number of members in every class", k)
	}
	return folds, nil
}

// splitFold separates the examples held out in fold from the rest.
func splitFold(x []FeatureVector, y []Label, folds []int, fold int) (trainX []FeatureVector, trainY []Label, testX []FeatureVector, testY []Label) {
	for i, f := range folds {
		if f == fold {
			testX = append(testX, x[i])
			testY = append(testY, y[i])
		} else {
			trainX = append(trainX, x[i])
			trainY = append(trainY, y[i])
		}
	}
	return trainX, trainY, testX, testY
}

// crossValidate returns the mean weighted F1 of params over the folds.
func crossValidate(ctx context.Context, family Family, params Params, seed int64, x []FeatureVector, y []Label, folds []int, k int) (float64, error) {
	var total float64
	for fold := 0; fold < k; fold++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		trainX, trainY, testX, testY := splitFold(x, y, folds, fold)
		clf, err := NewClassifier(family, params, seed)
		if err != nil {
			return 0, err
		}
		if err := clf.Fit(ctx, trainX, trainY); err != nil {
			return 0, fmt.Errorf("fold %d: %w", fold, err)
		}
		total += WeightedF1(testY, clf.Predict(testX))
	}
	return total / float64(k), nil
}

// GridPoint is the cross-validated score of one hyperparameter assignment.
type GridPoint struct {
	Params Params
	Score  float64
}

// gridSearch cross-validates every grid point concurrently and returns the
// scores in grid order along with the index of the best one. Equal scores
// keep the earliest grid point.
func gridSearch(ctx context.Context, spec FamilySpec, seed int64, workers int, x []FeatureVector, y []Label, k int) ([]GridPoint, int, error) {
	if len(spec.Grid) == 0 {
		return nil, 0, fmt.Errorf("%s: empty hyperparameter grid", spec.Family)
	}

	folds, err := stratifiedFolds(y, k)
	if err != nil {
		return nil, 0, err
	}

	points := make([]GridPoint, len(spec.Grid))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, params := range spec.Grid {
		i, params := i, params
		g.Go(func() error {
			score, err := crossValidate(gctx, spec.Family, params, seed, x, y, folds, k)
			if err != nil {
				return fmt.Errorf("%s %s: %w", spec.Family, params, err)
			}
			points[i] = GridPoint{Params: params, Score: score}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	best := 0
	for i := range points {
		if points[i].Score > points[best].Score {
			best = i
		}
	}
	return points, best, nil
}
