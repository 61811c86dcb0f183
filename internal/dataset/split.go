package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Split - разбиение на обучающую и тестовую части
type Split struct {
	Train []Sample
	Test  []Sample
}

// StratifiedSplit shuffles samples with a fixed seed and holds out testSize of
// them, keeping class proportions in both parts.
func StratifiedSplit(samples []Sample, testSize float64, seed int64) (*Split, error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}

	n := len(samples)
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return nil, fmt.Errorf("cannot split %d samples with test size %v", n, testSize)
	}

	byClass := make(map[int][]int)
	for i, s := range samples {
		byClass[s.Label] = append(byClass[s.Label], i)
	}

	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	if nTest < len(classes) {
		return nil, fmt.Errorf("test size %d should be greater or equal to the number of classes %d", nTest, len(classes))
	}
	if nTrain < len(classes) {
		return nil, fmt.Errorf("train size %d should be greater or equal to the number of classes %d", nTrain, len(classes))
	}
	for _, c := range classes {
		if len(byClass[c]) < 2 {
			return nil, fmt.Errorf("the least populated class (label %d) has only %d member, stratified split needs at least 2", c, len(byClass[c]))
		}
	}

	counts := make([]int, len(classes))
	for i, c := range classes {
		counts[i] = len(byClass[c])
	}
	testPerClass := allocate(counts, nTest)

	rng := rand.New(rand.NewSource(seed))
	split := &Split{
		Train: make([]Sample, 0, nTrain),
		Test:  make([]Sample, 0, nTest),
	}
	for i, c := range classes {
		idx := append([]int(nil), byClass[c]...)
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })

		for j, k := range idx {
			if j < testPerClass[i] {
				split.Test = append(split.Test, samples[k])
			} else {
				split.Train = append(split.Train, samples[k])
			}
		}
	}

	rng.Shuffle(len(split.Train), func(a, b int) { split.Train[a], split.Train[b] = split.Train[b], split.Train[a] })
	rng.Shuffle(len(split.Test), func(a, b int) { split.Test[a], split.Test[b] = split.Test[b], split.Test[a] })

	return split, nil
}

// allocate distributes total draws over classes proportionally to counts.
// Remainders go to the classes with the largest fractional parts, ties to the
// larger class. Every class keeps at least one sample on each side.
func allocate(counts []int, total int) []int {
	n := 0
	for _, c := range counts {
		n += c
	}

	out := make([]int, len(counts))
	type frac struct {
		idx  int
		part float64
	}
	fracs := make([]frac, len(counts))

	assigned := 0
	for i, c := range counts {
		exact := float64(total) * float64(c) / float64(n)
		out[i] = int(math.Floor(exact))
		fracs[i] = frac{idx: i, part: exact - float64(out[i])}
		assigned += out[i]
	}

	sort.SliceStable(fracs, func(a, b int) bool {
		if fracs[a].part != fracs[b].part {
			return fracs[a].part > fracs[b].part
		}
		return counts[fracs[a].idx] > counts[fracs[b].idx]
	})
	for i := 0; assigned < total; i = (i + 1) % len(fracs) {
		k := fracs[i].idx
		if out[k] < counts[k]-1 {
			out[k]++
			assigned++
		}
	}

	// каждый класс должен попасть в тест хотя бы одним примером
	for i := range out {
		if out[i] == 0 {
			donor := largest(out)
			out[donor]--
			out[i]++
		}
	}
	return out
}

func largest(values []int) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
