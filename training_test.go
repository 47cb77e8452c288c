package sentiment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap/zaptest"
)

func smallTrainerConfig(t *testing.T) TrainerConfig {
	config := DefaultTrainerConfig()
	config.Families = []FamilySpec{
		{Family: FamilyLogisticRegression, Grid: []Params{{C: 1, Solver: SolverLBFGS, MaxIter: 100}, {C: 10, Solver: SolverCG, MaxIter: 100}}},
		{Family: FamilyRandomForest, Grid: []Params{{NEstimators: 5, MaxDepth: 10}}},
		{Family: FamilyLinearSVM, Grid: []Params{{C: 1}}},
	}
	config.Folds = 3
	config.Workers = 2
	config.Logger = zaptest.NewLogger(t)
	return config
}

func TestTrainAndSelect(t *testing.T) {
	trainedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	config := smallTrainerConfig(t)
	config.Clock = clockwork.NewFakeClockAt(trainedAt)

	artifact, results, err := NewTrainer(config).TrainAndSelect(context.Background(), fixtureExamples(15), fixtureExamples(4))
	if err != nil {
		t.Fatalf("TrainAndSelect: %v", err)
	}

	if len(results) != len(config.Families) {
		t.Fatalf("Expected %d results, got %d", len(config.Families), len(results))
	}
	for i, r := range results {
		if r.Family != config.Families[i].Family {
			t.Errorf("result %d: expected family %s, got %s", i, config.Families[i].Family, r.Family)
		}
		if len(r.Grid) != len(config.Families[i].Grid) {
			t.Errorf("%s: expected %d grid points, got %d", r.Family, len(config.Families[i].Grid), len(r.Grid))
		}
		if r.Classifier == nil || r.Confusion == nil || len(r.Report) != NumClasses {
			t.Errorf("%s: incomplete evaluation %+v", r.Family, r)
		}
		if r.F1 < 0.8 {
			t.Errorf("%s: held-out F1 %.2f is below 0.8", r.Family, r.F1)
		}
	}

	best, err := SelectBest(results)
	if err != nil {
		t.Fatalf("SelectBest: %v", err)
	}
	m := artifact.Metadata
	if m.ModelType != string(results[best].Family) {
		t.Errorf("Expected model type %s, got %s", results[best].Family, m.ModelType)
	}
	if m.F1Score != results[best].F1 || m.Accuracy != results[best].Accuracy {
		t.Errorf("metadata scores do not match the winner: %+v", m)
	}
	if m.NFeatures != artifact.Vectorizer.Len() || artifact.Classifier.NumFeatures() != m.NFeatures {
		t.Errorf("feature counts disagree: metadata %d, vectorizer %d, classifier %d",
			m.NFeatures, artifact.Vectorizer.Len(), artifact.Classifier.NumFeatures())
	}
	if !m.TrainedAt.Equal(trainedAt) {
		t.Errorf("Expected trained_at %v, got %v", trainedAt, m.TrainedAt)
	}
	if _, err := uuid.Parse(m.RunID); err != nil {
		t.Errorf("Invalid run id %q: %v", m.RunID, err)
	}
	if len(m.ConfusionMatrix) != NumClasses {
		t.Errorf("Expected a %dx%d confusion matrix, got %v", NumClasses, NumClasses, m.ConfusionMatrix)
	}
	if m.Classes[2] != "Positif" {
		t.Errorf("Unexpected class names %v", m.Classes)
	}
	if err := artifact.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestTrainAndSelectFailures(t *testing.T) {
	config := smallTrainerConfig(t)
	train, held := fixtureExamples(10), fixtureExamples(3)

	tests := []struct {
		desc string
		run  func() error
	}{
		{"Empty training set", func() error {
			_, _, err := NewTrainer(config).TrainAndSelect(context.Background(), nil, held)
			return err
		}},
		{"Empty held-out set", func() error {
			_, _, err := NewTrainer(config).TrainAndSelect(context.Background(), train, nil)
			return err
		}},
		{"Invalid label", func() error {
			bad := append([]LabeledExample{{Text: "amazing video", Label: Label(5)}}, train...)
			_, _, err := NewTrainer(config).TrainAndSelect(context.Background(), bad, held)
			return err
		}},
		{"No families", func() error {
			c := config
			c.Families = nil
			_, _, err := NewTrainer(c).TrainAndSelect(context.Background(), train, held)
			return err
		}},
		{"Invalid grid point", func() error {
			c := config
			c.Families = []FamilySpec{{Family: FamilyLinearSVM, Grid: []Params{{C: -1}}}}
			_, _, err := NewTrainer(c).TrainAndSelect(context.Background(), train, held)
			return err
		}},
		{"Too many folds", func() error {
			c := config
			c.Folds = 50
			_, _, err := NewTrainer(c).TrainAndSelect(context.Background(), train, held)
			return err
		}},
		{"Cancelled", func() error {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, _, err := NewTrainer(config).TrainAndSelect(ctx, train, held)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			err := tt.run()
			if !errors.Is(err, ErrTraining) {
				t.Errorf("Expected a training failure, got %v", err)
			}
		})
	}
}

func TestSelectBest(t *testing.T) {
	tests := []struct {
		results  []EvaluationResult
		expected int
		desc     string
	}{
		{
			[]EvaluationResult{{F1: 0.70}, {F1: 0.85}, {F1: 0.80}},
			1,
			"Highest F1 wins",
		},
		{
			[]EvaluationResult{
				{F1: 0.85, Latency: 3 * time.Millisecond},
				{F1: 0.85, Latency: time.Millisecond},
				{F1: 0.80},
			},
			1,
			"Equal F1 goes to the faster model",
		},
		{
			[]EvaluationResult{
				{F1: 0.85, Latency: time.Millisecond},
				{F1: 0.85, Latency: time.Millisecond},
			},
			0,
			"Complete tie keeps the first",
		},
		{
			[]EvaluationResult{
				{F1: 0.85, Latency: 180 * time.Microsecond},
				{F1: 0.85, Latency: 40 * time.Microsecond},
			},
			0,
			"Sub-millisecond latency differences are noise",
		},
		{
			[]EvaluationResult{{F1: 0.5}},
			0,
			"Single result",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := SelectBest(tt.results)
			if err != nil {
				t.Fatalf("SelectBest: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}

	if _, err := SelectBest(nil); err == nil {
		t.Error("Expected an error for no results")
	}
}

func TestLatencySample(t *testing.T) {
	trainer := NewTrainer(TrainerConfig{Seed: 3, LatencySample: 2})
	texts := []string{"a", "b", "c", "d"}

	first := trainer.latencySample(texts)
	if len(first) != 2 {
		t.Fatalf("Expected 2 texts, got %d", len(first))
	}
	second := trainer.latencySample(texts)
	if first[0] != second[0] || first[1] != second[1] {
		t.Errorf("sample is not deterministic: %v vs %v", first, second)
	}
	if got := trainer.latencySample(texts[:1]); len(got) != 1 {
		t.Errorf("Expected the sample to shrink to the input, got %v", got)
	}
}

func TestMeasureLatency(t *testing.T) {
	clock := clockwork.NewFakeClock()
	trainer := NewTrainer(TrainerConfig{Clock: clock})
	artifact := cuedArtifact(t)

	if got := trainer.measureLatency(artifact.Vectorizer, artifact.Classifier, []string{"amazing", "okay"}); got != 0 {
		t.Errorf("Expected zero latency on a stopped clock, got %v", got)
	}
	if got := trainer.measureLatency(artifact.Vectorizer, artifact.Classifier, nil); got != 0 {
		t.Errorf("Expected zero latency for no sample, got %v", got)
	}
}

func TestEvaluationResultLatencyMs(t *testing.T) {
	r := EvaluationResult{Latency: 1500 * time.Microsecond}
	if r.LatencyMs() != 1.5 {
		t.Errorf("Expected 1.5ms, got %f", r.LatencyMs())
	}
}

func TestTrainAndSelectNormalizesLikeServing(t *testing.T) {
	config := smallTrainerConfig(t)
	config.Families = config.Families[:1]

	// Raw, unprepared comments: accents, case and punctuation.
	train := fixtureExamples(10)
	for i := range train {
		if train[i].Label == Positive {
			train[i].Text = "Café génial! " + train[i].Text
		}
	}

	artifact, _, err := NewTrainer(config).TrainAndSelect(context.Background(), train, fixtureExamples(3))
	if err != nil {
		t.Fatalf("TrainAndSelect: %v", err)
	}

	vocab := artifact.Vectorizer.Vocabulary()
	for _, term := range []string{"cafe", "genial", "cafe genial"} {
		if _, ok := vocab[term]; !ok {
			t.Errorf("Expected %q in the vocabulary", term)
		}
	}
	if _, ok := vocab["caf"]; ok {
		t.Error(`Unexpected term "caf" in the vocabulary`)
	}

	served := artifact.Vectorizer.Transform([]string{Normalize("Café génial")})[0]
	if served.NNZ() != 3 {
		t.Errorf("Expected the served comment to hit 3 terms, got %d", served.NNZ())
	}

	p, err := NewPredictor(artifact)
	if err != nil {
		t.Fatalf("NewPredictor: %v", err)
	}
	result, err := p.PredictBatch(rawDocuments("Café génial!"))
	if err != nil {
		t.Fatalf("PredictBatch: %v", err)
	}
	if result.Predictions[0].Label != int(Positive) {
		t.Errorf("Expected Positive, got %+v", result.Predictions[0])
	}
}
