package forest

import (
	"math/rand"
	"sort"
)

const leaf = -1

// Node is a single decision tree node. Leaves have Feature == -1 and carry
// the class distribution in Value.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t,omitempty"`
	Left      int       `json:"l,omitempty"`
	Right     int       `json:"r,omitempty"`
	Value     []float64 `json:"v,omitempty"`
}

// Tree - дерево решений в плоском виде (корень в Nodes[0])
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// proba returns the class distribution of the leaf x falls into.
func (t *Tree) proba(x []float64) []float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature == leaf {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the length of the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := &t.Nodes[i]
		if n.Feature == leaf {
			return 0
		}
		l, r := walk(n.Left), walk(n.Right)
		if l > r {
			return l + 1
		}
		return r + 1
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0)
}

// treeBuilder grows one CART tree on weighted samples with Gini impurity.
type treeBuilder struct {
	x        [][]float64
	y        []int // индексы классов
	w        []float64
	nClasses int
	params   Params
	mtry     int
	rng      *rand.Rand

	nodes      []Node
	importance []float64
}

func newTreeBuilder(x [][]float64, y []int, w []float64, nClasses int, params Params, rng *rand.Rand) *treeBuilder {
	nFeatures := len(x[0])
	return &treeBuilder{
		x:          x,
		y:          y,
		w:          w,
		nClasses:   nClasses,
		params:     params,
		mtry:       params.featuresPerSplit(nFeatures),
		rng:        rng,
		importance: make([]float64, nFeatures),
	}
}

func (b *treeBuilder) build() *Tree {
	idx := make([]int, 0, len(b.y))
	for i, w := range b.w {
		if w > 0 {
			idx = append(idx, i)
		}
	}
	b.grow(idx, 0)
	return &Tree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	counts := make([]float64, b.nClasses)
	var total float64
	for _, i := range idx {
		counts[b.y[i]] += b.w[i]
		total += b.w[i]
	}

	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: leaf})

	impurity := gini(counts, total)
	if impurity <= 0 ||
		len(idx) < b.params.MinSamplesSplit ||
		len(idx) < 2*b.params.MinSamplesLeaf ||
		(b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) {
		b.nodes[id].Value = normalize(counts, total)
		return id
	}

	s, ok := b.bestSplit(idx, counts, total)
	if !ok {
		b.nodes[id].Value = normalize(counts, total)
		return id
	}

	b.importance[s.feature] += total*impurity - s.childImpurity

	var left, right []int
	for _, i := range idx {
		if b.x[i][s.feature] <= s.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id] = Node{Feature: s.feature, Threshold: s.threshold, Left: l, Right: r}
	return id
}

type split struct {
	feature       int
	threshold     float64
	childImpurity float64 // взвешенная сумма w_left*gini_left + w_right*gini_right
}

// bestSplit draws candidate features without replacement until mtry
// non-constant features were examined or the features run out.
func (b *treeBuilder) bestSplit(idx []int, counts []float64, total float64) (split, bool) {
	nFeatures := len(b.x[0])
	order := b.rng.Perm(nFeatures)

	best := split{}
	found := false
	visited := 0

	sorted := make([]int, len(idx))
	leftCounts := make([]float64, b.nClasses)
	rightCounts := make([]float64, b.nClasses)

	for _, f := range order {
		if visited >= b.mtry {
			break
		}

		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool {
			return b.x[sorted[a]][f] < b.x[sorted[c]][f]
		})
		if b.x[sorted[0]][f] == b.x[sorted[len(sorted)-1]][f] {
			continue
		}
		visited++

		for k := range leftCounts {
			leftCounts[k] = 0
			rightCounts[k] = counts[k]
		}
		var leftTotal float64
		minLeaf := b.params.MinSamplesLeaf

		for pos := 0; pos < len(sorted)-1; pos++ {
			i := sorted[pos]
			leftCounts[b.y[i]] += b.w[i]
			rightCounts[b.y[i]] -= b.w[i]
			leftTotal += b.w[i]

			cur, next := b.x[i][f], b.x[sorted[pos+1]][f]
			if cur == next {
				continue
			}
			if pos+1 < minLeaf || len(sorted)-pos-1 < minLeaf {
				continue
			}

			rightTotal := total - leftTotal
			child := leftTotal*gini(leftCounts, leftTotal) + rightTotal*gini(rightCounts, rightTotal)
			if !found || child < best.childImpurity {
				threshold := cur + (next-cur)/2
				if threshold >= next {
					threshold = cur
				}
				best = split{feature: f, threshold: threshold, childImpurity: child}
				found = true
			}
		}
	}

	return best, found
}

func gini(counts []float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := c / total
		sum += p * p
	}
	return 1 - sum
}

func normalize(counts []float64, total float64) []float64 {
	out := make([]float64, len(counts))
	if total <= 0 {
		return out
	}
	for i, c := range counts {
		out[i] = c / total
	}
	return out
}
