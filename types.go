package sentiment

import "fmt"

// A Label is one of the three sentiment classes a comment can be assigned.
type Label int

const (
	Negative Label = 0 // Negative comments
	Neutral  Label = 1 // Neutral comments
	Positive Label = 2 // Positive comments
)

// NumClasses is the number of sentiment classes.
const NumClasses = 3

// Labels lists every class in index order.
var Labels = []Label{Negative, Neutral, Positive}

var labelNames = map[Label]string{
	Negative: "Négatif",
	Neutral:  "Neutre",
	Positive: "Positif",
}

// String returns the display name of the label.
func (l Label) String() string {
	if name, ok := labelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Label(%d)", int(l))
}

// Valid reports whether l is one of the known classes.
func (l Label) Valid() bool {
	return l >= Negative && l <= Positive
}

// ClassNames returns the label map stored in model metadata.
func ClassNames() map[int]string {
	names := make(map[int]string, len(labelNames))
	for label, name := range labelNames {
		names[int(label)] = name
	}
	return names
}

// MapRawLabel converts a source category in {-1, 0, 1} into a Label.
func MapRawLabel(raw int) (Label, bool) {
	switch raw {
	case -1:
		return Negative, true
	case 0:
		return Neutral, true
	case 1:
		return Positive, true
	}
	return 0, false
}

// A RawDocument is a single comment as submitted for classification.
type RawDocument struct {
	Text string `json:"text"`
}

// A LabeledExample is a cleaned comment paired with its true class.
type LabeledExample struct {
	Text  string // Normalized text
	Label Label  // True class
}

// PredictionResult is the classification of one comment.
type PredictionResult struct {
	Text       string  `json:"text"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"` // Max posterior probability (0.0-1.0)
	Label      int     `json:"label"`
}

// BatchStatistics aggregates the predictions of a single batch.
type BatchStatistics struct {
	NegativePercentage float64 `json:"negative_percentage"`
	NeutralPercentage  float64 `json:"neutral_percentage"`
	PositivePercentage float64 `json:"positive_percentage"`
	AverageConfidence  float64 `json:"average_confidence"`
}

// BatchResult is the outcome of a batch prediction.
type BatchResult struct {
	Predictions []PredictionResult `json:"predictions"`
	Statistics  BatchStatistics    `json:"statistics"`
	Total       int                `json:"total_comments"`
}

// ServiceState is the lifecycle state of a Service.
type ServiceState int32

const (
	StateUninitialized ServiceState = iota
	StateLoading
	StateReady
	StateUnavailable
)

func (s ServiceState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateUnavailable:
		return "unavailable"
	}
	return "unknown"
}
