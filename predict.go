package sentiment

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// Limits bounds what a single batch may contain.
type Limits struct {
	MaxBatchSize  int // Comments per batch
	MaxTextLength int // Characters per comment
}

// DefaultLimits returns the limits enforced by the HTTP service.
func DefaultLimits() Limits {
	return Limits{MaxBatchSize: 100, MaxTextLength: 5000}
}

// A Predictor classifies batches of comments with a loaded Artifact. It
// holds no mutable state and is safe for concurrent use.
type Predictor struct {
	artifact *Artifact
	limits   Limits
}

// NewPredictor returns a Predictor for a using DefaultLimits.
func NewPredictor(a *Artifact) (*Predictor, error) {
	return NewPredictorWithLimits(a, DefaultLimits())
}

// NewPredictorWithLimits returns a Predictor for a with custom limits.
func NewPredictorWithLimits(a *Artifact, limits Limits) (*Predictor, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if limits.MaxBatchSize < 1 || limits.MaxTextLength < 1 {
		return nil, fmt.Errorf("limits must be positive: %+v", limits)
	}
	return &Predictor{artifact: a, limits: limits}, nil
}

// Metadata returns the metadata of the underlying artifact.
func (p *Predictor) Metadata() Metadata {
	return p.artifact.Metadata
}

// Limits returns the limits the predictor enforces.
func (p *Predictor) Limits() Limits {
	return p.limits
}

// Validate checks batch and text sizes without classifying anything.
func (p *Predictor) Validate(items []RawDocument) error {
	if len(items) == 0 {
		return ValidationError("batch must contain at least 1 comment")
	}
	if len(items) > p.limits.MaxBatchSize {
		return ValidationError("batch of %d comments exceeds the limit of %d", len(items), p.limits.MaxBatchSize)
	}
	for i, item := range items {
		n := utf8.RuneCountInString(item.Text)
		if n == 0 {
			return ValidationError("comment %d is empty", i)
		}
		if n > p.limits.MaxTextLength {
			return ValidationError("comment %d has %d characters, limit is %d", i, n, p.limits.MaxTextLength)
		}
	}
	return nil
}

// PredictBatch classifies every comment and aggregates the batch.
//
// Each comment is normalized, the batch is vectorized in one call, and each
// comment receives the most probable class (the lowest label on ties) with
// that probability as its confidence. The batch either succeeds as a whole
// or fails; a panic inside a corrupted model is reported as an
// InferenceError.
func (p *Predictor) PredictBatch(items []RawDocument) (result BatchResult, err error) {
	if err := p.Validate(items); err != nil {
		return BatchResult{}, err
	}

	defer func() {
		if r := recover(); r != nil {
			result = BatchResult{}
			err = InferenceError("prediction failed", fmt.Errorf("%v", r))
		}
	}()

	cleaned := make([]string, len(items))
	for i, item := range items {
		cleaned[i] = Normalize(item.Text)
	}

	x := p.artifact.Vectorizer.Transform(cleaned)
	proba := p.artifact.Classifier.PredictProba(x)
	if len(proba) != len(items) {
		return BatchResult{}, InferenceError("prediction failed",
			fmt.Errorf("classifier returned %d rows for %d comments", len(proba), len(items)))
	}

	predictions := make([]PredictionResult, len(items))
	for i, row := range proba {
		if len(row) != NumClasses || !allFinite(row) {
			return BatchResult{}, InferenceError("prediction failed",
				fmt.Errorf("invalid probabilities %v for comment %d", row, i))
		}
		label := argmax(row)
		predictions[i] = PredictionResult{
			Text:       items[i].Text,
			Sentiment:  Label(label).String(),
			Confidence: math.Min(math.Max(row[label], 0), 1),
			Label:      label,
		}
	}

	return BatchResult{
		Predictions: predictions,
		Statistics:  batchStatistics(predictions),
		Total:       len(predictions),
	}, nil
}

// batchStatistics computes class percentages rounded to 2 decimals and the
// mean confidence rounded to 4.
func batchStatistics(predictions []PredictionResult) BatchStatistics {
	if len(predictions) == 0 {
		return BatchStatistics{}
	}

	var counts [NumClasses]int
	var confidence float64
	for _, p := range predictions {
		counts[p.Label]++
		confidence += p.Confidence
	}

	total := float64(len(predictions))
	percent := func(n int) float64 {
		return roundTo(float64(n)/total*100, 2)
	}
	return BatchStatistics{
		NegativePercentage: percent(counts[Negative]),
		NeutralPercentage:  percent(counts[Neutral]),
		PositivePercentage: percent(counts[Positive]),
		AverageConfidence:  roundTo(confidence/total, 4),
	}
}

func roundTo(x float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(x*scale) / scale
}
