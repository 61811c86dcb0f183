package forest

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrEmptyTrainingSet is returned when Fit gets no samples.
	ErrEmptyTrainingSet = errors.New("empty training set")
	// ErrShapeMismatch is returned when X and y disagree in shape.
	ErrShapeMismatch = errors.New("feature matrix and labels do not match")
)

// Predictor predicts labels for a feature matrix.
type Predictor interface {
	Predict(X [][]float64) []int
}

// Learner fits a Predictor on a labeled feature matrix.
type Learner interface {
	Fit(ctx context.Context, X [][]float64, y []int) (Predictor, error)
}

// Forest - ансамбль деревьев решений (random forest)
type Forest struct {
	Params      Params    `json:"params"`
	Classes     []int     `json:"classes"`
	NFeatures   int       `json:"n_features"`
	Trees       []*Tree   `json:"trees"`
	Importances []float64 `json:"importances"`
}

// forestLearner adapts Fit to the Learner interface.
type forestLearner struct {
	params Params
}

// NewLearner returns a Learner that fits random forests with params.
func NewLearner(params Params) Learner {
	return &forestLearner{params: params}
}

func (l *forestLearner) Fit(ctx context.Context, X [][]float64, y []int) (Predictor, error) {
	f, err := Fit(ctx, X, y, l.params)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Fit обучает лес. Деревья строятся параллельно, но результат
// детерминирован для заданного Seed.
func Fit(ctx context.Context, X [][]float64, y []int, params Params) (*Forest, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if len(X) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d labels", ErrShapeMismatch, len(X), len(y))
	}
	nFeatures := len(X[0])
	if nFeatures == 0 {
		return nil, fmt.Errorf("%w: rows have no features", ErrShapeMismatch)
	}
	for i, row := range X {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("%w: row %d has %d features, expected %d", ErrShapeMismatch, i, len(row), nFeatures)
		}
	}

	classes, encoded := encodeLabels(y)
	classWeights := computeClassWeights(encoded, len(classes), params.ClassWeight)

	// seeds are drawn up front so the result does not depend on scheduling
	master := rand.New(rand.NewSource(params.Seed))
	seeds := make([]int64, params.NTrees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	workers := params.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	trees := make([]*Tree, params.NTrees)
	importances := make([][]float64, params.NTrees)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < params.NTrees; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[i]))
			w := sampleWeights(encoded, classWeights, params.Bootstrap, rng)

			b := newTreeBuilder(X, encoded, w, len(classes), params, rng)
			trees[i] = b.build()
			importances[i] = normalizeImportance(b.importance)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fit trees: %w", err)
	}

	return &Forest{
		Params:      params,
		Classes:     classes,
		NFeatures:   nFeatures,
		Trees:       trees,
		Importances: averageImportance(importances, nFeatures),
	}, nil
}

// PredictProba returns the mean class distribution over all trees,
// columns ordered as f.Classes.
func (f *Forest) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, x := range X {
		acc := make([]float64, len(f.Classes))
		for _, t := range f.Trees {
			for k, p := range t.proba(x) {
				acc[k] += p
			}
		}
		for k := range acc {
			acc[k] /= float64(len(f.Trees))
		}
		out[i] = acc
	}
	return out
}

// Predict returns the most probable class per row; ties go to the
// smaller label.
func (f *Forest) Predict(X [][]float64) []int {
	probas := f.PredictProba(X)
	out := make([]int, len(X))
	for i, p := range probas {
		best := 0
		for k := 1; k < len(p); k++ {
			if p[k] > p[best] {
				best = k
			}
		}
		out[i] = f.Classes[best]
	}
	return out
}

// MaxDepth returns the depth of the deepest tree.
func (f *Forest) MaxDepth() int {
	depth := 0
	for _, t := range f.Trees {
		if d := t.Depth(); d > depth {
			depth = d
		}
	}
	return depth
}

// Validate checks that a decoded forest is usable for prediction.
func (f *Forest) Validate() error {
	if len(f.Trees) == 0 {
		return errors.New("forest has no trees")
	}
	if len(f.Classes) == 0 {
		return errors.New("forest has no classes")
	}
	for i, t := range f.Trees {
		if t == nil || len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", i)
		}
		for j, n := range t.Nodes {
			if n.Feature == leaf {
				if len(n.Value) != len(f.Classes) {
					return fmt.Errorf("tree %d node %d: leaf has %d classes, expected %d", i, j, len(n.Value), len(f.Classes))
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= f.NFeatures {
				return fmt.Errorf("tree %d node %d: feature %d out of range", i, j, n.Feature)
			}
			if n.Left <= j || n.Right <= j || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d: bad child index", i, j)
			}
		}
	}
	return nil
}

// encodeLabels maps labels to 0..k-1 in ascending label order.
func encodeLabels(y []int) ([]int, []int) {
	seen := make(map[int]struct{})
	for _, v := range y {
		seen[v] = struct{}{}
	}
	classes := make([]int, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Ints(classes)

	index := make(map[int]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	encoded := make([]int, len(y))
	for i, v := range y {
		encoded[i] = index[v]
	}
	return classes, encoded
}

// computeClassWeights returns n_samples / (n_classes * count_c) per class for
// balanced weighting and 1 otherwise.
func computeClassWeights(encoded []int, nClasses int, mode string) []float64 {
	weights := make([]float64, nClasses)
	if mode != ClassWeightBalanced {
		for k := range weights {
			weights[k] = 1
		}
		return weights
	}

	counts := make([]int, nClasses)
	for _, c := range encoded {
		counts[c]++
	}
	for k, c := range counts {
		weights[k] = float64(len(encoded)) / (float64(nClasses) * float64(c))
	}
	return weights
}

// sampleWeights draws a bootstrap sample and folds the draw counts into
// per-sample weights.
func sampleWeights(encoded []int, classWeights []float64, bootstrap bool, rng *rand.Rand) []float64 {
	n := len(encoded)
	w := make([]float64, n)
	if !bootstrap {
		for i, c := range encoded {
			w[i] = classWeights[c]
		}
		return w
	}

	draws := make([]int, n)
	for i := 0; i < n; i++ {
		draws[rng.Intn(n)]++
	}
	for i, d := range draws {
		w[i] = float64(d) * classWeights[encoded[i]]
	}
	return w
}

func normalizeImportance(raw []float64) []float64 {
	out := make([]float64, len(raw))
	var sum float64
	for _, v := range raw {
		sum += v
	}
	if sum <= 0 {
		return out
	}
	for i, v := range raw {
		out[i] = v / sum
	}
	return out
}

func averageImportance(perTree [][]float64, nFeatures int) []float64 {
	out := make([]float64, nFeatures)
	if len(perTree) == 0 {
		return out
	}
	for _, imp := range perTree {
		for i, v := range imp {
			out[i] += v
		}
	}
	for i := range out {
		out[i] /= float64(len(perTree))
	}
	return out
}
