package model

import (
	"math"
	"slices"
)

// Calibration is the outcome of searching the decision threshold over
// cross-validated decision values.
type Calibration struct {
	// Sorted holds the decision values in ascending order. Cut point k
	// predicts Sorted[:k] negative and Sorted[k:] positive.
	Sorted    []float64
	Precision []float64
	Recall    []float64
	Accuracy  []float64

	// Index is the chosen cut point, the lowest one of maximal accuracy.
	Index  int
	Cutoff float64
	// RMSE is the root mean square distance from Cutoff of the misclassified
	// documents, counting correctly classified ones as zero.
	RMSE float64
}

func (c *Calibration) BestPrecision() float64 { return c.Precision[c.Index] }
func (c *Calibration) BestRecall() float64    { return c.Recall[c.Index] }
func (c *Calibration) BestAccuracy() float64  { return c.Accuracy[c.Index] }

// Calibrate picks the cutoff maximising the geometric mean of precision and
// recall. values and liked must be non-empty and of equal length.
func Calibrate(values []float64, liked []bool) *Calibration {
	type point struct {
		value float64
		liked bool
	}
	n := len(values)
	points := make([]point, n)
	var totalLiked float64
	for i, v := range values {
		points[i] = point{v, liked[i]}
		if liked[i] {
			totalLiked++
		}
	}
	slices.SortFunc(points, func(a, b point) int {
		switch {
		case a.value < b.value:
			return -1
		case a.value > b.value:
			return 1
		case a.liked == b.liked:
			return 0
		case b.liked:
			return -1
		default:
			return 1
		}
	})

	c := &Calibration{
		Sorted:    make([]float64, n),
		Precision: make([]float64, n),
		Recall:    make([]float64, n),
		Accuracy:  make([]float64, n),
	}
	var likedBelow float64
	for k, p := range points {
		c.Sorted[k] = p.value
		if totalLiked > 0 {
			c.Recall[k] = 1 - likedBelow/totalLiked
		}
		c.Precision[k] = (totalLiked - likedBelow) / float64(n-k)
		c.Accuracy[k] = Accuracy(c.Precision[k], c.Recall[k])
		if c.Accuracy[k] > c.Accuracy[c.Index] {
			c.Index = k
		}
		if p.liked {
			likedBelow++
		}
	}

	// When Sorted[Index-1] equals Sorted[Index] the cutoff is that value, so
	// the tied documents below the cut also score at least the cutoff. The
	// reported precision and recall still count them as negative.
	c.Cutoff = c.Sorted[0]
	if c.Index > 0 {
		c.Cutoff = 0.5 * (c.Sorted[c.Index-1] + c.Sorted[c.Index])
	}

	var sq float64
	for i, v := range values {
		if (v >= c.Cutoff) != liked[i] {
			d := v - c.Cutoff
			sq += d * d
		}
	}
	c.RMSE = math.Sqrt(sq / float64(n))
	return c
}
