package metrics

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccuracy(t *testing.T) {
	acc, err := Accuracy([]int{1, 0, 1, 1}, []int{1, 0, 0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.75, acc, 1e-12)

	acc, err = Accuracy(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, acc)

	_, err = Accuracy([]int{1}, []int{})
	assert.True(t, errors.Is(err, ErrLengthMismatch))
}

func TestNewReport_HandComputed(t *testing.T) {
	// TP=3 FN=1 FP=2 TN=4 для класса 1
	yTrue := []int{1, 1, 1, 1, 0, 0, 0, 0, 0, 0}
	yPred := []int{1, 1, 1, 0, 1, 1, 0, 0, 0, 0}

	r, err := NewReport(yTrue, yPred)
	require.NoError(t, err)

	require.Len(t, r.Classes, 2)
	safe, phish := r.Classes[0], r.Classes[1]

	assert.Equal(t, 0, safe.Class)
	assert.InDelta(t, 4.0/5.0, safe.Precision, 1e-12)
	assert.InDelta(t, 4.0/6.0, safe.Recall, 1e-12)
	assert.InDelta(t, 2*0.8*(4.0/6.0)/(0.8+4.0/6.0), safe.F1, 1e-12)
	assert.Equal(t, 6, safe.Support)

	assert.Equal(t, 1, phish.Class)
	assert.InDelta(t, 3.0/5.0, phish.Precision, 1e-12)
	assert.InDelta(t, 3.0/4.0, phish.Recall, 1e-12)
	assert.Equal(t, 4, phish.Support)

	assert.InDelta(t, 0.7, r.Accuracy, 1e-12)
	assert.Equal(t, 10, r.Total)
	assert.InDelta(t, (0.8+0.6)/2, r.MacroAvg.Precision, 1e-12)
	assert.InDelta(t, (0.8*6+0.6*4)/10, r.WeightedAvg.Precision, 1e-12)
	assert.InDelta(t, (4.0/6.0*6+0.75*4)/10, r.WeightedAvg.Recall, 1e-12)
}

func TestNewReport_ZeroDivision(t *testing.T) {
	// класс 1 ни разу не предсказан
	r, err := NewReport([]int{0, 1}, []int{0, 0})
	require.NoError(t, err)

	phish := r.Classes[1]
	assert.Equal(t, 0.0, phish.Precision)
	assert.Equal(t, 0.0, phish.Recall)
	assert.Equal(t, 0.0, phish.F1)
	assert.Equal(t, 1, phish.Support)
}

func TestNewReport_PredictedOnlyClass(t *testing.T) {
	r, err := NewReport([]int{0, 0}, []int{0, 1})
	require.NoError(t, err)

	require.Len(t, r.Classes, 2, "labels that only appear in predictions still get a row")
	assert.Equal(t, 0, r.Classes[1].Support)
}

func TestReport_Render(t *testing.T) {
	r, err := NewReport([]int{1, 0, 1, 0}, []int{1, 0, 0, 0})
	require.NoError(t, err)

	var buf bytes.Buffer
	r.Render(&buf, map[int]string{1: "phishing"})
	out := buf.String()

	assert.Contains(t, out, "PRECISION")
	assert.Contains(t, out, "phishing")
	assert.Contains(t, out, "accuracy")
	assert.Contains(t, out, "weighted avg")
	assert.Contains(t, out, "0.7500", "accuracy printed with 4 digits")
	assert.Contains(t, out, "0.6667")
	assert.Equal(t, "accuracy=0.7500 on 4 samples", r.Summary())
}
