package sentiment

import (
	"context"
	"fmt"
	"strings"
)

// Family names a classifier family.
type Family string

// The classifier families compared during training.
const (
	FamilyLogisticRegression Family = "logistic_regression"
	FamilyRandomForest       Family = "random_forest"
	FamilyLinearSVM          Family = "linear_svm"
)

// A Classifier scores feature vectors against the three sentiment classes.
type Classifier interface {
	Family() Family
	// NumFeatures is the vector dimension the classifier was fitted on.
	NumFeatures() int
	// PredictProba returns one probability distribution over Labels per row.
	PredictProba(x []FeatureVector) [][]float64
	Predict(x []FeatureVector) []Label
}

// A TrainableClassifier can be fitted on labeled vectors.
type TrainableClassifier interface {
	Classifier
	Fit(ctx context.Context, x []FeatureVector, y []Label) error
}

// Params is one point of a hyperparameter grid. Fields that do not apply to
// a family are left zero.
type Params struct {
	C           float64 `json:"C,omitempty"`
	Solver      string  `json:"solver,omitempty"`
	MaxIter     int     `json:"max_iter,omitempty"`
	NEstimators int     `json:"n_estimators,omitempty"`
	MaxDepth    int     `json:"max_depth,omitempty"`
}

func (p Params) String() string {
	var parts []string
	if p.C != 0 {
		parts = append(parts, fmt.Sprintf("C=%g", p.C))
	}
	if p.Solver != "" {
		parts = append(parts, "solver="+p.Solver)
	}
	if p.MaxIter != 0 {
		parts = append(parts, fmt.Sprintf("max_iter=%d", p.MaxIter))
	}
	if p.NEstimators != 0 {
		parts = append(parts, fmt.Sprintf("n_estimators=%d", p.NEstimators))
	}
	if p.MaxDepth != 0 {
		parts = append(parts, fmt.Sprintf("max_depth=%d", p.MaxDepth))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ClassifierMaker builds an untrained classifier for one grid point.
type ClassifierMaker func(params Params, seed int64) (TrainableClassifier, error)

type classifierDecoder func(data []byte) (Classifier, error)

var classifierMakers = map[Family]ClassifierMaker{
	FamilyLogisticRegression: func(p Params, _ int64) (TrainableClassifier, error) {
		return NewLogisticRegression(p)
	},
	FamilyRandomForest: func(p Params, seed int64) (TrainableClassifier, error) {
		return NewRandomForest(p, seed)
	},
	FamilyLinearSVM: func(p Params, seed int64) (TrainableClassifier, error) {
		return NewLinearSVM(p, seed)
	},
}

var classifierDecoders = map[Family]classifierDecoder{
	FamilyLogisticRegression: func(d []byte) (Classifier, error) {
		return decodeLogisticRegression(d)
	},
	FamilyRandomForest: func(d []byte) (Classifier, error) {
		return decodeRandomForest(d)
	},
	FamilyLinearSVM: func(d []byte) (Classifier, error) {
		return decodeLinearSVM(d)
	},
}

// NewClassifier builds an untrained classifier of the given family.
func NewClassifier(family Family, params Params, seed int64) (TrainableClassifier, error) {
	maker, ok := classifierMakers[family]
	if !ok {
		return nil, fmt.Errorf("unknown classifier family %q", family)
	}
	return maker(params, seed)
}

// FamilySpec pairs a family with the hyperparameter grid searched for it.
type FamilySpec struct {
	Family Family
	Grid   []Params
}

// DefaultFamilies returns the three families and their search grids.
func DefaultFamilies() []FamilySpec {
	var lr []Params
	for _, c := range []float64{0.1, 1, 10} {
		for _, solver := range []string{SolverLBFGS, SolverCG} {
			lr = append(lr, Params{C: c, Solver: solver, MaxIter: 200})
		}
	}

	var rf []Params
	for _, n := range []int{50, 100} {
		for _, depth := range []int{10, 20} {
			rf = append(rf, Params{NEstimators: n, MaxDepth: depth})
		}
	}

	var svm []Params
	for _, c := range []float64{0.1, 1, 10} {
		svm = append(svm, Params{C: c})
	}

	return []FamilySpec{
		{Family: FamilyLogisticRegression, Grid: lr},
		{Family: FamilyRandomForest, Grid: rf},
		{Family: FamilyLinearSVM, Grid: svm},
	}
}

// argmax returns the index of the largest value, the lowest index on ties.
func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

// predictFromProba turns probability rows into labels.
func predictFromProba(proba [][]float64) []Label {
	out := make([]Label, len(proba))
	for i, p := range proba {
		out[i] = Label(argmax(p))
	}
	return out
}

func checkTrainingData(x []FeatureVector, y []Label) (int, error) {
	if len(x) == 0 {
		return 0, fmt.Errorf("no training examples")
	}
	if len(x) != len(y) {
		return 0, fmt.Errorf("%d vectors but %d labels", len(x), len(y))
	}
	dim := featureDim(x)
	if dim <= 0 {
		return 0, fmt.Errorf("feature vectors must share a positive dimension")
	}
	for _, label := range y {
		if !label.Valid() {
			return 0, fmt.Errorf("invalid label %d", int(label))
		}
	}
	return dim, nil
}
