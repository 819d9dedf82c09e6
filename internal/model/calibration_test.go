package model

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalibrate_PicksBestCut(t *testing.T) {
	values := []float64{0.5, -2, 2, -1, 1}
	liked := []bool{true, false, true, false, false}

	c := Calibrate(values, liked)

	assert.Equal(t, []float64{-2, -1, 0.5, 1, 2}, c.Sorted)
	assert.Equal(t, 2, c.Index)
	assert.InDelta(t, -0.25, c.Cutoff, 1e-12)
	assert.InDelta(t, 2.0/3.0, c.BestPrecision(), 1e-12)
	assert.InDelta(t, 1.0, c.BestRecall(), 1e-12)
	assert.InDelta(t, math.Sqrt(2.0/3.0), c.BestAccuracy(), 1e-12)
	// only the disliked 1 lands above the cutoff
	assert.InDelta(t, math.Sqrt(1.25*1.25/5), c.RMSE, 1e-12)
}

func TestCalibrate_TieGoesToLowestIndex(t *testing.T) {
	c := Calibrate([]float64{1, 2, 3, 4}, []bool{true, false, false, true})

	require.InDelta(t, c.Accuracy[0], c.Accuracy[3], 1e-12)
	assert.Equal(t, 0, c.Index)
	assert.Equal(t, 1.0, c.Cutoff)
}

func TestCalibrate_Curves(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := 300
	values := make([]float64, n)
	liked := make([]bool, n)
	for i := range values {
		liked[i] = rng.Float64() < 0.4
		values[i] = rng.NormFloat64()
		if liked[i] {
			values[i] += 1
		}
	}

	c := Calibrate(values, liked)

	for k := 1; k < n; k++ {
		assert.LessOrEqual(t, c.Recall[k], c.Recall[k-1], "recall at %d", k)
		assert.LessOrEqual(t, c.Accuracy[k], c.Accuracy[c.Index], "accuracy at %d", k)
		if k < c.Index {
			assert.Less(t, c.Accuracy[k], c.Accuracy[c.Index], "earlier cut %d", k)
		}
	}
	assert.Equal(t, 1.0, c.Recall[0])
}

func TestCalibrate_SeparableIsPerfect(t *testing.T) {
	values := []float64{-0.9, -1.1, -0.7, 0.8, 1.2, 0.95}
	liked := []bool{false, false, false, true, true, true}

	c := Calibrate(values, liked)

	for k := 1; k < len(values); k++ {
		assert.GreaterOrEqual(t, c.Precision[k], c.Precision[k-1])
	}
	assert.Equal(t, 3, c.Index)
	assert.InDelta(t, 0.05, c.Cutoff, 1e-12)
	assert.Equal(t, 1.0, c.BestAccuracy())
	assert.Zero(t, c.RMSE)
}

func TestCalibrate_TieAcrossCut(t *testing.T) {
	values := []float64{2, 1, 0, 1}
	liked := []bool{true, false, false, true}

	cal := Calibrate(values, liked)

	require.Equal(t, 2, cal.Index)
	assert.Equal(t, []float64{0, 1, 1, 2}, cal.Sorted)
	assert.Equal(t, 1.0, cal.Cutoff)
	assert.Equal(t, 1.0, cal.BestPrecision())
	assert.Equal(t, 1.0, cal.BestRecall())

	// the disliked document tied with the cut lands on the high side
	assert.GreaterOrEqual(t, values[1], cal.Cutoff)
	assert.Zero(t, cal.RMSE)
}
