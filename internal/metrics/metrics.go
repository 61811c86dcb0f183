// Package metrics считает метрики качества бинарного/многоклассового
// классификатора на отложенной выборке.
package metrics

import (
	"errors"
	"fmt"
	"sort"
)

// ErrLengthMismatch is returned when true and predicted labels differ in length.
var ErrLengthMismatch = errors.New("true and predicted labels differ in length")

// ClassMetrics holds precision/recall/F1 for one class.
type ClassMetrics struct {
	Class     int     `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Average is an aggregated row of the report.
type Average struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report - отчёт классификации в духе sklearn classification_report
type Report struct {
	Classes     []ClassMetrics `json:"classes"`
	Accuracy    float64        `json:"accuracy"`
	MacroAvg    Average        `json:"macro_avg"`
	WeightedAvg Average        `json:"weighted_avg"`
	Total       int            `json:"total"`
}

// Accuracy returns the share of matching labels, 0 for empty input.
func Accuracy(yTrue, yPred []int) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return 0, nil
	}
	hits := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(yTrue)), nil
}

// NewReport builds a classification report over the union of labels seen in
// yTrue and yPred. Undefined ratios (zero denominators) are reported as 0.
func NewReport(yTrue, yPred []int) (*Report, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return nil, err
	}

	classes := labelSet(yTrue, yPred)
	tp := make(map[int]int, len(classes))
	fp := make(map[int]int, len(classes))
	fn := make(map[int]int, len(classes))
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t == p {
			tp[t]++
			continue
		}
		fp[p]++
		fn[t]++
	}

	r := &Report{Accuracy: acc, Total: len(yTrue)}
	for _, c := range classes {
		m := ClassMetrics{
			Class:     c,
			Precision: ratio(tp[c], tp[c]+fp[c]),
			Recall:    ratio(tp[c], tp[c]+fn[c]),
			Support:   tp[c] + fn[c],
		}
		m.F1 = harmonic(m.Precision, m.Recall)
		r.Classes = append(r.Classes, m)
	}
	r.MacroAvg, r.WeightedAvg = averages(r.Classes)
	return r, nil
}

func averages(rows []ClassMetrics) (Average, Average) {
	var macro, weighted Average
	if len(rows) == 0 {
		return macro, weighted
	}
	total := 0
	for _, m := range rows {
		macro.Precision += m.Precision
		macro.Recall += m.Recall
		macro.F1 += m.F1
		weighted.Precision += m.Precision * float64(m.Support)
		weighted.Recall += m.Recall * float64(m.Support)
		weighted.F1 += m.F1 * float64(m.Support)
		total += m.Support
	}
	n := float64(len(rows))
	macro.Precision /= n
	macro.Recall /= n
	macro.F1 /= n
	macro.Support = total
	weighted.Support = total
	if total > 0 {
		weighted.Precision /= float64(total)
		weighted.Recall /= float64(total)
		weighted.F1 /= float64(total)
	}
	return macro, weighted
}

func labelSet(a, b []int) []int {
	seen := make(map[int]struct{})
	for _, v := range a {
		seen[v] = struct{}{}
	}
	for _, v := range b {
		seen[v] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func harmonic(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}
