package sentiment

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// TrainerConfig contains configuration for model training and selection.
type TrainerConfig struct {
	Vectorizer    VectorizerConfig
	Families      []FamilySpec
	Folds         int   // Cross-validation folds per grid point
	Workers       int   // Grid points evaluated concurrently
	Seed          int64 // Seeds forests, SVM coordinate order and the latency sample
	LatencySample int   // Held-out comments timed for the latency estimate
	Logger        *zap.Logger
	Clock         clockwork.Clock
}

// DefaultTrainerConfig returns the configuration used to train the
// production model.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		Vectorizer:    DefaultVectorizerConfig(),
		Families:      DefaultFamilies(),
		Folds:         5,
		Workers:       runtime.GOMAXPROCS(0),
		Seed:          42,
		LatencySample: 50,
	}
}

// EvaluationResult describes one family after grid search and refitting.
type EvaluationResult struct {
	Family     Family
	Params     Params
	Grid       []GridPoint
	CVScore    float64       // Mean weighted F1 of Params across folds
	Accuracy   float64       // Held-out accuracy
	F1         float64       // Held-out weighted F1
	Confusion  *mat.Dense    // Held-out confusion matrix
	Report     []ClassReport // Held-out per-class scores
	Latency    time.Duration // Mean time to classify one comment
	Classifier Classifier
}

// LatencyMs returns the mean per-comment latency in milliseconds.
func (r EvaluationResult) LatencyMs() float64 {
	return float64(r.Latency) / float64(time.Millisecond)
}

// Trainer fits every configured family and keeps the best one.
type Trainer struct {
	config TrainerConfig
	logger *zap.Logger
	clock  clockwork.Clock
}

// NewTrainer creates a new trainer with the given configuration.
func NewTrainer(config TrainerConfig) *Trainer {
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if config.Folds == 0 {
		config.Folds = 5
	}
	if config.LatencySample <= 0 {
		config.LatencySample = 50
	}
	t := &Trainer{config: config, logger: config.Logger, clock: config.Clock}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	if t.clock == nil {
		t.clock = clockwork.NewRealClock()
	}
	return t
}

// TrainAndSelect fits the vectorizer on train, grid-searches every family
// with stratified cross-validation, refits each family's best parameters on
// all of train, scores them on heldOut, and packages the family with the
// highest held-out weighted F1 into an Artifact.
//
// The evaluation of every family is returned in configuration order. Any
// family failing aborts the whole run with a TrainingFailure.
func (t *Trainer) TrainAndSelect(ctx context.Context, train, heldOut []LabeledExample) (*Artifact, []EvaluationResult, error) {
	if len(train) == 0 || len(heldOut) == 0 {
		return nil, nil, TrainingFailure("training and held-out sets must not be empty", nil)
	}
	if len(t.config.Families) == 0 {
		return nil, nil, TrainingFailure("no classifier families configured", nil)
	}

	trainTexts, trainY := splitExamples(train)
	heldTexts, heldY := splitExamples(heldOut)
	for _, label := range append(append([]Label(nil), trainY...), heldY...) {
		if !label.Valid() {
			return nil, nil, TrainingFailure(fmt.Sprintf("invalid label %d", int(label)), nil)
		}
	}

	// Serving normalizes every comment; the vocabulary must see the same text.
	trainTexts = NormalizeAll(trainTexts)
	heldTexts = NormalizeAll(heldTexts)

	vectorizer, trainX, err := FitTransform(trainTexts, t.config.Vectorizer)
	if err != nil {
		return nil, nil, TrainingFailure("fitting vectorizer", err)
	}
	heldX := vectorizer.Transform(heldTexts)
	t.logger.Info("vectorizer fitted",
		zap.Int("documents", len(trainTexts)),
		zap.Int("features", vectorizer.Len()),
	)

	sample := t.latencySample(heldTexts)
	results := make([]EvaluationResult, 0, len(t.config.Families))

	for _, spec := range t.config.Families {
		if err := ctx.Err(); err != nil {
			return nil, nil, TrainingFailure("training cancelled", err)
		}

		result, err := t.trainFamily(ctx, spec, vectorizer, trainX, trainY, heldX, heldY, sample)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, TrainingFailure("training cancelled", ctxErr)
			}
			return nil, nil, TrainingFailure(string(spec.Family), err)
		}
		results = append(results, result)
	}

	best, err := SelectBest(results)
	if err != nil {
		return nil, nil, TrainingFailure("selecting model", err)
	}
	winner := results[best]
	t.logger.Info("model selected",
		zap.String("family", string(winner.Family)),
		zap.Stringer("params", winner.Params),
		zap.Float64("f1", winner.F1),
		zap.Float64("accuracy", winner.Accuracy),
	)

	artifact := &Artifact{
		Vectorizer: vectorizer,
		Classifier: winner.Classifier,
		Metadata: Metadata{
			ModelType:          string(winner.Family),
			Accuracy:           winner.Accuracy,
			F1Score:            winner.F1,
			NFeatures:          vectorizer.Len(),
			Classes:            ClassNames(),
			RunID:              uuid.NewString(),
			TrainedAt:          t.clock.Now().UTC(),
			Params:             winner.Params,
			ConfusionMatrix:    denseRows(winner.Confusion),
			InferenceLatencyMs: winner.LatencyMs(),
		},
	}
	return artifact, results, nil
}

func (t *Trainer) trainFamily(ctx context.Context, spec FamilySpec, vectorizer *Vectorizer, trainX []FeatureVector, trainY []Label, heldX []FeatureVector, heldY []Label, sample []string) (EvaluationResult, error) {
	start := t.clock.Now()
	t.logger.Info("grid search started",
		zap.String("family", string(spec.Family)),
		zap.Int("grid_points", len(spec.Grid)),
		zap.Int("folds", t.config.Folds),
	)

	grid, best, err := gridSearch(ctx, spec, t.config.Seed, t.config.Workers, trainX, trainY, t.config.Folds)
	if err != nil {
		return EvaluationResult{}, err
	}
	params := grid[best].Params

	clf, err := NewClassifier(spec.Family, params, t.config.Seed)
	if err != nil {
		return EvaluationResult{}, err
	}
	if err := clf.Fit(ctx, trainX, trainY); err != nil {
		return EvaluationResult{}, fmt.Errorf("refit: %w", err)
	}

	predicted := clf.Predict(heldX)
	result := EvaluationResult{
		Family:     spec.Family,
		Params:     params,
		Grid:       grid,
		CVScore:    grid[best].Score,
		Accuracy:   Accuracy(heldY, predicted),
		F1:         WeightedF1(heldY, predicted),
		Confusion:  ConfusionMatrix(heldY, predicted),
		Report:     ClassificationReport(heldY, predicted),
		Latency:    t.measureLatency(vectorizer, clf, sample),
		Classifier: clf,
	}

	t.logger.Info("family evaluated",
		zap.String("family", string(spec.Family)),
		zap.Stringer("params", params),
		zap.Float64("cv_f1", result.CVScore),
		zap.Float64("f1", result.F1),
		zap.Float64("accuracy", result.Accuracy),
		zap.Float64("latency_ms", result.LatencyMs()),
		zap.Duration("elapsed", t.clock.Since(start)),
	)
	return result, nil
}

// latencySample picks a seeded subset of the held-out comments.
func (t *Trainer) latencySample(texts []string) []string {
	n := min(t.config.LatencySample, len(texts))
	rng := rand.New(rand.NewSource(t.config.Seed))
	sample := make([]string, n)
	for i, idx := range rng.Perm(len(texts))[:n] {
		sample[i] = texts[idx]
	}
	return sample
}

// measureLatency times vectorizing and classifying each comment on its own.
// The figure is informational and never affects selection beyond breaking
// exact F1 ties.
func (t *Trainer) measureLatency(vectorizer *Vectorizer, clf Classifier, sample []string) time.Duration {
	if len(sample) == 0 {
		return 0
	}
	start := t.clock.Now()
	for _, text := range sample {
		clf.Predict(vectorizer.Transform([]string{text}))
	}
	return t.clock.Since(start) / time.Duration(len(sample))
}

// latencyResolution is the smallest per-comment latency difference that
// breaks an F1 tie. Finer differences are timing noise and count as equal.
const latencyResolution = time.Millisecond

// SelectBest returns the index of the result with the strictly highest
// held-out weighted F1. Equal scores go to the lower latency, compared at
// latencyResolution, then to the earlier result.
func SelectBest(results []EvaluationResult) (int, error) {
	if len(results) == 0 {
		return 0, errors.New("no evaluation results")
	}
	best := 0
	for i := 1; i < len(results); i++ {
		r, b := results[i], results[best]
		if r.F1 > b.F1 || (r.F1 == b.F1 && r.Latency.Round(latencyResolution) < b.Latency.Round(latencyResolution)) {
			best = i
		}
	}
	return best, nil
}

func splitExamples(examples []LabeledExample) ([]string, []Label) {
	texts := make([]string, len(examples))
	labels := make([]Label, len(examples))
	for i, ex := range examples {
		texts[i] = ex.Text
		labels[i] = ex.Label
	}
	return texts, labels
}

func denseRows(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	r, _ := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, m)
	}
	return rows
}
