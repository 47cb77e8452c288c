package sentiment

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ClassReport holds the per-class scores of a classification report.
type ClassReport struct {
	Label     Label
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// ConfusionMatrix counts predictions with true classes as rows and
// predicted classes as columns.
func ConfusionMatrix(truth, predicted []Label) *mat.Dense {
	cm := mat.NewDense(NumClasses, NumClasses, nil)
	for i, t := range truth {
		p := predicted[i]
		cm.Set(int(t), int(p), cm.At(int(t), int(p))+1)
	}
	return cm
}

// Accuracy is the fraction of matching labels.
func Accuracy(truth, predicted []Label) float64 {
	if len(truth) == 0 {
		return 0
	}
	correct := 0
	for i, t := range truth {
		if predicted[i] == t {
			correct++
		}
	}
	return float64(correct) / float64(len(truth))
}

// ClassificationReport returns precision, recall, F1 and support for each
// class. Undefined ratios (no predictions or no support) are 0.
func ClassificationReport(truth, predicted []Label) []ClassReport {
	cm := ConfusionMatrix(truth, predicted)
	report := make([]ClassReport, NumClasses)
	for k := 0; k < NumClasses; k++ {
		tp := cm.At(k, k)
		support := floats.Sum(mat.Row(nil, k, cm))
		predictedAs := floats.Sum(mat.Col(nil, k, cm))

		r := ClassReport{Label: Label(k), Support: int(support)}
		if predictedAs > 0 {
			r.Precision = tp / predictedAs
		}
		if support > 0 {
			r.Recall = tp / support
		}
		if r.Precision+r.Recall > 0 {
			r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
		}
		report[k] = r
	}
	return report
}

// WeightedF1 averages the per-class F1 scores weighted by class support.
func WeightedF1(truth, predicted []Label) float64 {
	if len(truth) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ClassificationReport(truth, predicted) {
		sum += r.F1 * float64(r.Support)
	}
	return sum / float64(len(truth))
}
