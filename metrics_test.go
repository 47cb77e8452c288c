package sentiment

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestConfusionMatrix(t *testing.T) {
	truth := []Label{Negative, Negative, Neutral, Positive, Positive, Positive}
	predicted := []Label{Negative, Neutral, Neutral, Positive, Positive, Negative}

	expected := mat.NewDense(3, 3, []float64{
		1, 1, 0,
		0, 1, 0,
		1, 0, 2,
	})
	if cm := ConfusionMatrix(truth, predicted); !mat.Equal(cm, expected) {
		t.Errorf("Expected\n%v\nGot\n%v", mat.Formatted(expected), mat.Formatted(cm))
	}
}

func TestClassificationReport(t *testing.T) {
	truth := []Label{Negative, Negative, Neutral, Positive, Positive, Positive}
	predicted := []Label{Negative, Neutral, Neutral, Positive, Positive, Negative}

	expected := []ClassReport{
		{Label: Negative, Precision: 0.5, Recall: 0.5, F1: 0.5, Support: 2},
		{Label: Neutral, Precision: 0.5, Recall: 1, F1: 2.0 / 3, Support: 1},
		{Label: Positive, Precision: 1, Recall: 2.0 / 3, F1: 0.8, Support: 3},
	}

	for i, got := range ClassificationReport(truth, predicted) {
		want := expected[i]
		if got.Label != want.Label || got.Support != want.Support {
			t.Errorf("class %d: expected %+v, got %+v", i, want, got)
		}
		for _, pair := range [][2]float64{
			{got.Precision, want.Precision},
			{got.Recall, want.Recall},
			{got.F1, want.F1},
		} {
			if math.Abs(pair[0]-pair[1]) > 1e-12 {
				t.Errorf("class %s: expected %+v, got %+v", want.Label, want, got)
				break
			}
		}
	}

	// (0.5*2 + 2/3*1 + 0.8*3) / 6
	wantF1 := (1 + 2.0/3 + 2.4) / 6
	if got := WeightedF1(truth, predicted); math.Abs(got-wantF1) > 1e-12 {
		t.Errorf("Expected weighted F1 %.6f, got %.6f", wantF1, got)
	}
	if got := Accuracy(truth, predicted); math.Abs(got-4.0/6) > 1e-12 {
		t.Errorf("Expected accuracy %.6f, got %.6f", 4.0/6, got)
	}
}

func TestReportUndefinedRatios(t *testing.T) {
	truth := []Label{Positive, Positive}
	predicted := []Label{Negative, Negative}

	report := ClassificationReport(truth, predicted)
	for _, r := range report {
		if r.F1 != 0 || r.Precision != 0 || r.Recall != 0 {
			t.Errorf("Expected zero scores, got %+v", r)
		}
	}
	if report[Neutral].Support != 0 {
		t.Errorf("Expected no neutral support, got %d", report[Neutral].Support)
	}
	if WeightedF1(nil, nil) != 0 || Accuracy(nil, nil) != 0 {
		t.Error("Expected zero scores for no examples")
	}
}

func TestPerfectPredictions(t *testing.T) {
	truth := []Label{Negative, Neutral, Positive, Positive}
	if got := WeightedF1(truth, truth); got != 1 {
		t.Errorf("Expected weighted F1 1, got %f", got)
	}
}
