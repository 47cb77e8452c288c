package sentiment

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// RandomForest is a bagged ensemble of CART trees grown on the Gini
// criterion. Each split considers sqrt(d) randomly drawn features that are
// not constant in the node. Class probabilities are the mean of the leaf
// class distributions reached in every tree.
type RandomForest struct {
	params  Params
	seed    int64
	workers int
	dim     int
	trees   []decisionTree
}

// NewRandomForest returns an untrained forest. A zero MaxDepth grows trees
// until their leaves are pure.
func NewRandomForest(params Params, seed int64) (*RandomForest, error) {
	if params.NEstimators <= 0 {
		return nil, fmt.Errorf("random forest: n_estimators must be positive, got %d", params.NEstimators)
	}
	if params.MaxDepth < 0 {
		return nil, fmt.Errorf("random forest: max_depth must not be negative, got %d", params.MaxDepth)
	}
	return &RandomForest{params: params, seed: seed, workers: runtime.GOMAXPROCS(0)}, nil
}

// Family implements Classifier.
func (f *RandomForest) Family() Family { return FamilyRandomForest }

// NumFeatures implements Classifier.
func (f *RandomForest) NumFeatures() int { return f.dim }

// Fit grows every tree on its own bootstrap sample. Tree t is seeded from
// the forest seed and t alone, so the result does not depend on how many
// trees are grown concurrently.
func (f *RandomForest) Fit(ctx context.Context, x []FeatureVector, y []Label) error {
	dim, err := checkTrainingData(x, y)
	if err != nil {
		return fmt.Errorf("random forest: %w", err)
	}

	maxFeatures := int(math.Sqrt(float64(dim)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	trees := make([]decisionTree, f.params.NEstimators)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for t := range trees {
		t := t
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(f.seed + int64(t)*7919))
			b := &treeBuilder{
				x:           x,
				y:           y,
				maxDepth:    f.params.MaxDepth,
				maxFeatures: maxFeatures,
				rng:         rng,
			}
			b.build(bootstrap(len(x), rng), 0)
			trees[t] = b.tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.dim = dim
	f.trees = trees
	return nil
}

// PredictProba implements Classifier.
func (f *RandomForest) PredictProba(x []FeatureVector) [][]float64 {
	out := make([][]float64, len(x))
	scale := 1 / float64(len(f.trees))
	for i, row := range x {
		proba := make([]float64, NumClasses)
		for t := range f.trees {
			for k, p := range f.trees[t].leaf(row) {
				proba[k] += p
			}
		}
		for k := range proba {
			proba[k] *= scale
		}
		out[i] = proba
	}
	return out
}

// Predict implements Classifier.
func (f *RandomForest) Predict(x []FeatureVector) []Label {
	return predictFromProba(f.PredictProba(x))
}

// Len returns the number of trees.
func (f *RandomForest) Len() int {
	return len(f.trees)
}

// decisionTree stores nodes in flat arrays; node 0 is the root and leaves
// have Feature -1.
type decisionTree struct {
	Feature   []int
	Threshold []float64
	Left      []int
	Right     []int
	Value     [][]float64
}

func (t *decisionTree) leaf(row FeatureVector) []float64 {
	node := 0
	for t.Feature[node] >= 0 {
		if row.At(t.Feature[node]) <= t.Threshold[node] {
			node = t.Left[node]
		} else {
			node = t.Right[node]
		}
	}
	return t.Value[node]
}

func (t *decisionTree) addNode(feature int, threshold float64, value []float64) int {
	t.Feature = append(t.Feature, feature)
	t.Threshold = append(t.Threshold, threshold)
	t.Left = append(t.Left, -1)
	t.Right = append(t.Right, -1)
	t.Value = append(t.Value, value)
	return len(t.Feature) - 1
}

// nodeSample is a training row with its bootstrap multiplicity.
type nodeSample struct {
	row    int
	weight float64
}

// bootstrap draws n rows with replacement, returned in row order.
func bootstrap(n int, rng *rand.Rand) []nodeSample {
	counts := make([]int, n)
	for i := 0; i < n; i++ {
		counts[rng.Intn(n)]++
	}
	samples := make([]nodeSample, 0, n)
	for row, c := range counts {
		if c > 0 {
			samples = append(samples, nodeSample{row: row, weight: float64(c)})
		}
	}
	return samples
}

type classCounts [NumClasses]float64

func (c classCounts) total() float64 {
	var sum float64
	for _, w := range c {
		sum += w
	}
	return sum
}

// giniProxy is sum(c_k^2)/w; maximizing the weighted sum over both children
// minimizes their weighted Gini impurity.
func (c classCounts) giniProxy(w float64) float64 {
	if w <= 0 {
		return 0
	}
	var sum float64
	for _, n := range c {
		sum += n * n
	}
	return sum / w
}

func (c classCounts) distribution() []float64 {
	total := c.total()
	out := make([]float64, NumClasses)
	for k, n := range c {
		out[k] = n / total
	}
	return out
}

type treeBuilder struct {
	x           []FeatureVector
	y           []Label
	maxDepth    int
	maxFeatures int
	rng         *rand.Rand
	tree        decisionTree
}

type splitEntry struct {
	value  float64
	label  Label
	weight float64
}

type split struct {
	feature   int
	threshold float64
	score     float64
}

func (b *treeBuilder) build(samples []nodeSample, depth int) int {
	var counts classCounts
	for _, s := range samples {
		counts[b.y[s.row]] += s.weight
	}
	total := counts.total()

	present := 0
	for _, n := range counts {
		if n > 0 {
			present++
		}
	}
	if present <= 1 || total < 2 || (b.maxDepth > 0 && depth >= b.maxDepth) {
		return b.tree.addNode(-1, 0, counts.distribution())
	}

	best, ok := b.bestSplit(samples, counts, total)
	if !ok {
		return b.tree.addNode(-1, 0, counts.distribution())
	}

	var left, right []nodeSample
	for _, s := range samples {
		if b.x[s.row].At(best.feature) <= best.threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	node := b.tree.addNode(best.feature, best.threshold, nil)
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.tree.Left[node] = l
	b.tree.Right[node] = r
	return node
}

// bestSplit searches features that have a non-zero value in the node; every
// other feature is identically zero there and cannot split it.
func (b *treeBuilder) bestSplit(samples []nodeSample, counts classCounts, total float64) (split, bool) {
	entries := make(map[int][]splitEntry)
	for _, s := range samples {
		row := b.x[s.row]
		for k, j := range row.Indices {
			entries[j] = append(entries[j], splitEntry{value: row.Values[k], label: b.y[s.row], weight: s.weight})
		}
	}

	features := make([]int, 0, len(entries))
	for j := range entries {
		features = append(features, j)
	}
	sort.Ints(features)
	b.rng.Shuffle(len(features), func(i, j int) { features[i], features[j] = features[j], features[i] })

	best := split{score: math.Inf(-1)}
	found := false
	visited := 0
	for _, j := range features {
		if visited >= b.maxFeatures {
			break
		}
		s, ok := evaluateSplit(entries[j], counts, total)
		if !ok {
			continue
		}
		visited++
		if s.score > best.score {
			best = s
			best.feature = j
			found = true
		}
	}
	return best, found
}

type valueGroup struct {
	value  float64
	counts classCounts
	weight float64
}

// evaluateSplit finds the best threshold for one feature. Rows without an
// entry hold an implicit zero. It reports false when the feature is constant
// in the node.
func evaluateSplit(entries []splitEntry, counts classCounts, total float64) (split, bool) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].value < entries[j].value })

	var zero valueGroup
	zero.counts = counts
	zero.weight = total
	for _, e := range entries {
		zero.counts[e.label] -= e.weight
		zero.weight -= e.weight
	}

	groups := make([]valueGroup, 0, len(entries)+1)
	zeroPlaced := zero.weight <= 0
	for _, e := range entries {
		if !zeroPlaced && e.value > 0 {
			groups = append(groups, zero)
			zeroPlaced = true
		}
		if n := len(groups); n > 0 && groups[n-1].value == e.value {
			groups[n-1].counts[e.label] += e.weight
			groups[n-1].weight += e.weight
			continue
		}
		g := valueGroup{value: e.value, weight: e.weight}
		g.counts[e.label] = e.weight
		groups = append(groups, g)
	}
	if !zeroPlaced {
		groups = append(groups, zero)
	}
	if len(groups) < 2 {
		return split{}, false
	}

	best := split{score: math.Inf(-1)}
	var left classCounts
	var leftWeight float64
	for i := 0; i < len(groups)-1; i++ {
		for k := range left {
			left[k] += groups[i].counts[k]
		}
		leftWeight += groups[i].weight

		var right classCounts
		for k := range right {
			right[k] = counts[k] - left[k]
		}
		score := left.giniProxy(leftWeight) + right.giniProxy(total-leftWeight)
		if score > best.score {
			threshold := (groups[i].value + groups[i+1].value) / 2
			if threshold >= groups[i+1].value {
				threshold = groups[i].value
			}
			best = split{threshold: threshold, score: score}
		}
	}
	return best, true
}

type forestState struct {
	Params Params
	Seed   int64
	Dim    int
	Trees  []decisionTree
}

func (f *RandomForest) encode() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(forestState{Params: f.params, Seed: f.seed, Dim: f.dim, Trees: f.trees})
	return buf.Bytes(), err
}

func decodeRandomForest(data []byte) (*RandomForest, error) {
	var state forestState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return nil, err
	}
	if len(state.Trees) == 0 {
		return nil, fmt.Errorf("random forest: no trees")
	}
	for i, t := range state.Trees {
		n := len(t.Feature)
		if n == 0 || len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n || len(t.Value) != n {
			return nil, fmt.Errorf("random forest: tree %d is corrupt", i)
		}
	}
	return &RandomForest{
		params:  state.Params,
		seed:    state.Seed,
		workers: runtime.GOMAXPROCS(0),
		dim:     state.Dim,
		trees:   state.Trees,
	}, nil
}
