// Package ridge fits a ridge-regularised linear classifier over sparse rows,
// choosing the regularisation strength by efficient leave-one-out cross
// validation.
package ridge

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"feed_triage/internal/textvec"
)

// DefaultAlphas is the regularisation grid searched by FitCV.
var DefaultAlphas = []float64{1e-5, 1e-4, 1e-3, 1e-2, 1e-1, 1}

var (
	ErrTooFewSamples = errors.New("ridge: need at least two samples")
	ErrSingleClass   = errors.New("ridge: both classes must be present")
)

// Classifier is a fitted linear decision function. Positive values predict
// the positive class.
type Classifier struct {
	Coef      []float64
	Intercept float64
	Alpha     float64
}

// Decision returns the classifier's decision value for x.
func (c *Classifier) Decision(x textvec.Vector) float64 {
	return x.DotDense(c.Coef) + c.Intercept
}

func (c *Classifier) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(classifierState(*c)); err != nil {
		return nil, fmt.Errorf("encode classifier: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Classifier) UnmarshalBinary(data []byte) error {
	var state classifierState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return fmt.Errorf("decode classifier: %w", err)
	}
	*c = Classifier(state)
	return nil
}

type classifierState struct {
	Coef      []float64
	Intercept float64
	Alpha     float64
}

// CVResult is the outcome of FitCV.
type CVResult struct {
	Classifier *Classifier
	// Values holds, for every training row, the decision value predicted by
	// the model fitted without that row, at the chosen alpha.
	Values []float64
	// Scores is the balanced accuracy reached at each alpha of the grid.
	Scores []float64
}

// FitCV fits a ridge classifier on rows of dimension dim with targets +1
// (positive) and -1, leaving the intercept unpenalised. Each alpha of the
// grid is scored by the balanced accuracy of its leave-one-out predictions;
// the first best alpha is refitted on all rows.
func FitCV(rows []textvec.Vector, dim int, positive []bool, alphas []float64) (*CVResult, error) {
	n := len(rows)
	if n < 2 {
		return nil, ErrTooFewSamples
	}
	if len(positive) != n {
		return nil, fmt.Errorf("ridge: %d labels for %d rows", len(positive), n)
	}
	if len(alphas) == 0 {
		alphas = DefaultAlphas
	}

	y := make([]float64, n)
	var nPos int
	for i, p := range positive {
		y[i] = -1
		if p {
			y[i] = 1
			nPos++
		}
	}
	if nPos == 0 || nPos == n {
		return nil, ErrSingleClass
	}

	yMean := mean(y)
	yc := make([]float64, n)
	for i := range y {
		yc[i] = y[i] - yMean
	}
	xMean := columnMeans(rows, dim)

	eig, err := decomposeGram(rows, xMean)
	if err != nil {
		return nil, err
	}
	qty := mat.NewVecDense(n, nil)
	qty.MulVec(eig.vectors.T(), mat.NewVecDense(n, yc))

	result := &CVResult{Scores: make([]float64, len(alphas))}
	best := -1
	var bestValues, bestDual []float64
	for a, alpha := range alphas {
		dual, looValues := eig.solve(alpha, qty, y)
		result.Scores[a] = balancedAccuracy(looValues, positive)
		if best < 0 || result.Scores[a] > result.Scores[best] {
			best = a
			bestValues = looValues
			bestDual = dual
		}
	}

	coef := make([]float64, dim)
	var dualSum float64
	for i, row := range rows {
		dualSum += bestDual[i]
		for k, j := range row.Indices {
			coef[j] += bestDual[i] * row.Values[k]
		}
	}
	var offset float64
	for j := range coef {
		coef[j] -= xMean[j] * dualSum
		offset += xMean[j] * coef[j]
	}

	result.Classifier = &Classifier{
		Coef:      coef,
		Intercept: yMean - offset,
		Alpha:     alphas[best],
	}
	result.Values = bestValues
	return result, nil
}

// gramEigen is the eigendecomposition of the centred Gram matrix plus the
// all-ones outer product, which carries the intercept direction.
type gramEigen struct {
	values    []float64
	vectors   *mat.Dense
	intercept int
}

func decomposeGram(rows []textvec.Vector, xMean []float64) (*gramEigen, error) {
	n := len(rows)
	meanNorm := dot(xMean, xMean)
	proj := make([]float64, n)
	for i, row := range rows {
		proj[i] = row.DotDense(xMean)
	}

	gram := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			k := rows[i].Dot(rows[j]) - proj[i] - proj[j] + meanNorm
			gram.SetSym(i, j, k+1)
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(gram, true); !ok {
		return nil, errors.New("ridge: eigendecomposition did not converge")
	}
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// The eigenvector closest to the constant direction stands for the
	// intercept and is left unregularised.
	intercept, bestCos := 0, -1.0
	inv := 1 / math.Sqrt(float64(n))
	for k := 0; k < n; k++ {
		var cos float64
		for i := 0; i < n; i++ {
			cos += vectors.At(i, k) * inv
		}
		if c := math.Abs(cos); c > bestCos {
			intercept, bestCos = k, c
		}
	}

	return &gramEigen{
		values:    eig.Values(nil),
		vectors:   &vectors,
		intercept: intercept,
	}, nil
}

// solve returns the dual coefficients and the leave-one-out decision values
// for one alpha.
func (g *gramEigen) solve(alpha float64, qty *mat.VecDense, y []float64) (dual, loo []float64) {
	n := len(g.values)
	w := make([]float64, n)
	for k, v := range g.values {
		if k != g.intercept {
			w[k] = 1 / (v + alpha)
		}
	}

	dual = make([]float64, n)
	loo = make([]float64, n)
	for i := 0; i < n; i++ {
		var c, ginv float64
		for k := 0; k < n; k++ {
			q := g.vectors.At(i, k)
			c += q * w[k] * qty.AtVec(k)
			ginv += q * q * w[k]
		}
		dual[i] = c
		loo[i] = y[i] - c/ginv
	}
	return dual, loo
}

func balancedAccuracy(values []float64, positive []bool) float64 {
	var tp, pos, tn, neg float64
	for i, v := range values {
		if positive[i] {
			pos++
			if v > 0 {
				tp++
			}
		} else {
			neg++
			if v <= 0 {
				tn++
			}
		}
	}
	return 0.5 * (tp/pos + tn/neg)
}

func columnMeans(rows []textvec.Vector, dim int) []float64 {
	means := make([]float64, dim)
	for _, row := range rows {
		for k, j := range row.Indices {
			means[j] += row.Values[k]
		}
	}
	for j := range means {
		means[j] /= float64(len(rows))
	}
	return means
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
