package sentiment

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Solvers accepted by the logistic regression family.
const (
	SolverLBFGS = "lbfgs"
	SolverCG    = "cg"
)

// LogisticRegression is a multinomial (softmax) logistic regression with an
// L2 penalty on the weights. The intercepts are not penalized.
type LogisticRegression struct {
	params  Params
	dim     int
	weights *mat.Dense    // NumClasses x dim
	bias    *mat.VecDense // NumClasses
}

// NewLogisticRegression returns an untrained model. C is the inverse
// regularization strength.
func NewLogisticRegression(params Params) (*LogisticRegression, error) {
	if params.C <= 0 {
		return nil, fmt.Errorf("logistic regression: C must be positive, got %g", params.C)
	}
	if params.Solver == "" {
		params.Solver = SolverLBFGS
	}
	if params.Solver != SolverLBFGS && params.Solver != SolverCG {
		return nil, fmt.Errorf("logistic regression: unknown solver %q", params.Solver)
	}
	if params.MaxIter <= 0 {
		params.MaxIter = 200
	}
	return &LogisticRegression{params: params}, nil
}

// Family implements Classifier.
func (m *LogisticRegression) Family() Family { return FamilyLogisticRegression }

// NumFeatures implements Classifier.
func (m *LogisticRegression) NumFeatures() int { return m.dim }

// Fit minimizes the penalized cross-entropy
//
//	sum_i -log p(y_i | x_i) + ||W||^2 / (2C)
//
// with the configured gonum optimizer, starting from zero weights.
func (m *LogisticRegression) Fit(ctx context.Context, x []FeatureVector, y []Label) error {
	dim, err := checkTrainingData(x, y)
	if err != nil {
		return fmt.Errorf("logistic regression: %w", err)
	}

	nw := NumClasses * dim
	lambda := 1 / m.params.C

	objective := func(theta, grad []float64) float64 {
		if grad != nil {
			for i := range grad {
				grad[i] = 0
			}
		}

		var loss float64
		scores := make([]float64, NumClasses)
		for i, row := range x {
			for k := range scores {
				scores[k] = theta[nw+k] + row.Dot(theta[k*dim:(k+1)*dim])
			}
			lse := floats.LogSumExp(scores)
			loss += lse - scores[y[i]]

			if grad == nil {
				continue
			}
			for k := range scores {
				g := math.Exp(scores[k] - lse)
				if Label(k) == y[i] {
					g--
				}
				grad[nw+k] += g
				gk := grad[k*dim : (k+1)*dim]
				for j, idx := range row.Indices {
					gk[idx] += g * row.Values[j]
				}
			}
		}

		w := theta[:nw]
		loss += 0.5 * lambda * floats.Dot(w, w)
		if grad != nil {
			floats.AddScaled(grad[:nw], lambda, w)
		}
		return loss
	}

	problem := optimize.Problem{
		Func: func(theta []float64) float64 { return objective(theta, nil) },
		Grad: func(grad, theta []float64) { objective(theta, grad) },
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}

	var method optimize.Method
	switch m.params.Solver {
	case SolverCG:
		method = &optimize.CG{}
	default:
		method = &optimize.LBFGS{}
	}

	settings := &optimize.Settings{
		MajorIterations:   m.params.MaxIter,
		GradientThreshold: 1e-5,
	}

	result, err := optimize.Minimize(problem, make([]float64, nw+NumClasses), settings, method)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	// A line search that stalls near the optimum is reported as an error
	// but still leaves a usable location.
	if result == nil {
		return fmt.Errorf("logistic regression: %w", err)
	}
	if !allFinite(result.X) {
		return fmt.Errorf("logistic regression: optimizer diverged")
	}

	theta := result.X
	m.dim = dim
	m.weights = mat.NewDense(NumClasses, dim, append([]float64(nil), theta[:nw]...))
	m.bias = mat.NewVecDense(NumClasses, append([]float64(nil), theta[nw:]...))
	return nil
}

// PredictProba implements Classifier.
func (m *LogisticRegression) PredictProba(x []FeatureVector) [][]float64 {
	out := make([][]float64, len(x))
	raw := m.weights.RawMatrix()
	for i, row := range x {
		scores := make([]float64, NumClasses)
		for k := range scores {
			scores[k] = m.bias.AtVec(k) + row.Dot(raw.Data[k*raw.Stride:k*raw.Stride+m.dim])
		}
		lse := floats.LogSumExp(scores)
		for k := range scores {
			scores[k] = math.Exp(scores[k] - lse)
		}
		out[i] = scores
	}
	return out
}

// Predict implements Classifier.
func (m *LogisticRegression) Predict(x []FeatureVector) []Label {
	return predictFromProba(m.PredictProba(x))
}

// Weights returns the learned coefficients (NumClasses x NumFeatures).
func (m *LogisticRegression) Weights() mat.Matrix {
	return m.weights
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type logisticState struct {
	Params  Params
	Dim     int
	Weights []byte
	Bias    []byte
}

func (m *LogisticRegression) encode() ([]byte, error) {
	w, err := m.weights.MarshalBinary()
	if err != nil {
		return nil, err
	}
	b, err := m.bias.MarshalBinary()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = gob.NewEncoder(&buf).Encode(logisticState{Params: m.params, Dim: m.dim, Weights: w, Bias: b})
	return buf.Bytes(), err
}

func decodeLogisticRegression(data []byte) (*LogisticRegression, error) {
	var state logisticState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return nil, err
	}

	m := &LogisticRegression{params: state.Params, dim: state.Dim, weights: &mat.Dense{}, bias: &mat.VecDense{}}
	if err := m.weights.UnmarshalBinary(state.Weights); err != nil {
		return nil, fmt.Errorf("logistic regression weights: %w", err)
	}
	if err := m.bias.UnmarshalBinary(state.Bias); err != nil {
		return nil, fmt.Errorf("logistic regression bias: %w", err)
	}
	if r, c := m.weights.Dims(); r != NumClasses || c != state.Dim || m.bias.Len() != NumClasses {
		return nil, fmt.Errorf("logistic regression: weights are %dx%d, want %dx%d", r, c, NumClasses, state.Dim)
	}
	return m, nil
}
