package sentiment

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

const (
	svmMaxIter   = 1000
	svmTolerance = 0.1
)

// LinearSVM is a one-vs-rest linear support vector machine with hinge loss.
// Each binary problem is solved in the dual by coordinate descent, with the
// intercept learned as the weight of a constant feature. Probabilities come
// from a sigmoid fitted to each class's decision values (Platt scaling),
// normalized across classes.
type LinearSVM struct {
	params  Params
	seed    int64
	dim     int
	weights *mat.Dense    // NumClasses x dim
	bias    *mat.VecDense // NumClasses
	plattA  []float64
	plattB  []float64
}

// NewLinearSVM returns an untrained model. C bounds the dual variables.
func NewLinearSVM(params Params, seed int64) (*LinearSVM, error) {
	if params.C <= 0 {
		return nil, fmt.Errorf("linear svm: C must be positive, got %g", params.C)
	}
	if params.MaxIter <= 0 {
		params.MaxIter = svmMaxIter
	}
	return &LinearSVM{params: params, seed: seed}, nil
}

// Family implements Classifier.
func (m *LinearSVM) Family() Family { return FamilyLinearSVM }

// NumFeatures implements Classifier.
func (m *LinearSVM) NumFeatures() int { return m.dim }

// Fit trains one binary machine per class.
func (m *LinearSVM) Fit(ctx context.Context, x []FeatureVector, y []Label) error {
	dim, err := checkTrainingData(x, y)
	if err != nil {
		return fmt.Errorf("linear svm: %w", err)
	}

	weights := mat.NewDense(NumClasses, dim, nil)
	bias := mat.NewVecDense(NumClasses, nil)
	plattA := make([]float64, NumClasses)
	plattB := make([]float64, NumClasses)

	for k := 0; k < NumClasses; k++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		targets := make([]float64, len(y))
		for i, label := range y {
			if int(label) == k {
				targets[i] = 1
			} else {
				targets[i] = -1
			}
		}

		rng := rand.New(rand.NewSource(m.seed + int64(k)))
		w, b := solveHingeDual(x, targets, dim, m.params.C, m.params.MaxIter, rng)
		weights.SetRow(k, w)
		bias.SetVec(k, b)

		decisions := make([]float64, len(x))
		for i, row := range x {
			decisions[i] = row.Dot(w) + b
		}
		plattA[k], plattB[k] = fitPlatt(decisions, targets)
	}

	m.dim = dim
	m.weights = weights
	m.bias = bias
	m.plattA = plattA
	m.plattB = plattB
	return nil
}

// solveHingeDual minimizes the dual of the L2-regularized hinge loss
//
//	min_a  a'Qa/2 - sum(a),  0 <= a_i <= C,  Q_ij = y_i y_j (x_i'x_j + 1)
//
// by cyclic coordinate descent over a shuffled order, keeping w = sum a_i y_i x_i
// up to date. It stops when the projected gradient spread drops below
// svmTolerance or after maxIter passes.
func solveHingeDual(x []FeatureVector, targets []float64, dim int, c float64, maxIter int, rng *rand.Rand) ([]float64, float64) {
	n := len(x)
	w := make([]float64, dim)
	var b float64
	alpha := make([]float64, n)

	diag := make([]float64, n)
	for i, row := range x {
		norm := row.Norm()
		diag[i] = norm*norm + 1
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	for iter := 0; iter < maxIter; iter++ {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

		maxPG, minPG := math.Inf(-1), math.Inf(1)
		for _, i := range order {
			yi := targets[i]
			g := yi*(x[i].Dot(w)+b) - 1

			pg := g
			switch {
			case alpha[i] == 0:
				pg = math.Min(g, 0)
			case alpha[i] == c:
				pg = math.Max(g, 0)
			}
			maxPG = math.Max(maxPG, pg)
			minPG = math.Min(minPG, pg)

			if math.Abs(pg) < 1e-12 {
				continue
			}
			old := alpha[i]
			alpha[i] = math.Min(math.Max(old-g/diag[i], 0), c)
			d := (alpha[i] - old) * yi
			for j, idx := range x[i].Indices {
				w[idx] += d * x[i].Values[j]
			}
			b += d
		}

		if maxPG-minPG < svmTolerance {
			break
		}
	}

	return w, b
}

// fitPlatt fits P(y=1|f) = 1/(1+exp(A*f+B)) to decision values by Newton's
// method with a backtracking line search, using the smoothed targets of
// Platt (1999) as refined by Lin, Lin and Weng (2007).
func fitPlatt(decisions, targets []float64) (float64, float64) {
	var prior1, prior0 float64
	for _, t := range targets {
		if t > 0 {
			prior1++
		} else {
			prior0++
		}
	}

	hiTarget := (prior1 + 1) / (prior1 + 2)
	loTarget := 1 / (prior0 + 2)
	t := make([]float64, len(targets))
	for i, y := range targets {
		if y > 0 {
			t[i] = hiTarget
		} else {
			t[i] = loTarget
		}
	}

	const (
		maxIter = 100
		minStep = 1e-10
		sigma   = 1e-12
		eps     = 1e-5
	)

	a, b := 0.0, math.Log((prior0+1)/(prior1+1))
	fval := plattObjective(decisions, t, a, b)

	for iter := 0; iter < maxIter; iter++ {
		h11, h22, h21 := sigma, sigma, 0.0
		var g1, g2 float64
		for i, f := range decisions {
			fApB := f*a + b
			var p, q float64
			if fApB >= 0 {
				p = math.Exp(-fApB) / (1 + math.Exp(-fApB))
				q = 1 / (1 + math.Exp(-fApB))
			} else {
				p = 1 / (1 + math.Exp(fApB))
				q = math.Exp(fApB) / (1 + math.Exp(fApB))
			}
			d2 := p * q
			h11 += f * f * d2
			h22 += d2
			h21 += f * d2
			d1 := t[i] - p
			g1 += f * d1
			g2 += d1
		}

		if math.Abs(g1) < eps && math.Abs(g2) < eps {
			break
		}

		det := h11*h22 - h21*h21
		dA := -(h22*g1 - h21*g2) / det
		dB := -(-h21*g1 + h11*g2) / det
		gd := g1*dA + g2*dB

		step := 1.0
		for step >= minStep {
			newA, newB := a+step*dA, b+step*dB
			newF := plattObjective(decisions, t, newA, newB)
			if newF < fval+0.0001*step*gd {
				a, b, fval = newA, newB, newF
				break
			}
			step /= 2
		}
		if step < minStep {
			break
		}
	}

	return a, b
}

func plattObjective(decisions, t []float64, a, b float64) float64 {
	var f float64
	for i, d := range decisions {
		fApB := d*a + b
		if fApB >= 0 {
			f += t[i]*fApB + math.Log1p(math.Exp(-fApB))
		} else {
			f += (t[i]-1)*fApB + math.Log1p(math.Exp(fApB))
		}
	}
	return f
}

// Decision returns the raw per-class margins of each row.
func (m *LinearSVM) Decision(x []FeatureVector) [][]float64 {
	out := make([][]float64, len(x))
	raw := m.weights.RawMatrix()
	for i, row := range x {
		scores := make([]float64, NumClasses)
		for k := range scores {
			scores[k] = m.bias.AtVec(k) + row.Dot(raw.Data[k*raw.Stride:k*raw.Stride+m.dim])
		}
		out[i] = scores
	}
	return out
}

// PredictProba implements Classifier.
func (m *LinearSVM) PredictProba(x []FeatureVector) [][]float64 {
	out := m.Decision(x)
	for _, scores := range out {
		var sum float64
		for k, f := range scores {
			scores[k] = sigmoid(-(m.plattA[k]*f + m.plattB[k]))
			sum += scores[k]
		}
		for k := range scores {
			if sum > 0 {
				scores[k] /= sum
			} else {
				scores[k] = 1 / float64(NumClasses)
			}
		}
	}
	return out
}

// Predict implements Classifier.
func (m *LinearSVM) Predict(x []FeatureVector) []Label {
	return predictFromProba(m.PredictProba(x))
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

type svmState struct {
	Params  Params
	Dim     int
	Weights []byte
	Bias    []byte
	PlattA  []float64
	PlattB  []float64
}

func (m *LinearSVM) encode() ([]byte, error) {
	w, err := m.weights.MarshalBinary()
	if err != nil {
		return nil, err
	}
	b, err := m.bias.MarshalBinary()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err = gob.NewEncoder(&buf).Encode(svmState{
		Params:  m.params,
		Dim:     m.dim,
		Weights: w,
		Bias:    b,
		PlattA:  m.plattA,
		PlattB:  m.plattB,
	})
	return buf.Bytes(), err
}

func decodeLinearSVM(data []byte) (*LinearSVM, error) {
	var state svmState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return nil, err
	}

	m := &LinearSVM{
		params:  state.Params,
		dim:     state.Dim,
		weights: &mat.Dense{},
		bias:    &mat.VecDense{},
		plattA:  state.PlattA,
		plattB:  state.PlattB,
	}
	if err := m.weights.UnmarshalBinary(state.Weights); err != nil {
		return nil, fmt.Errorf("linear svm weights: %w", err)
	}
	if err := m.bias.UnmarshalBinary(state.Bias); err != nil {
		return nil, fmt.Errorf("linear svm bias: %w", err)
	}
	if r, c := m.weights.Dims(); r != NumClasses || c != state.Dim || m.bias.Len() != NumClasses {
		return nil, fmt.Errorf("linear svm: weights are %dx%d, want %dx%d", r, c, NumClasses, state.Dim)
	}
	if len(m.plattA) != NumClasses || len(m.plattB) != NumClasses {
		return nil, fmt.Errorf("linear svm: missing calibration")
	}
	return m, nil
}
