package textvec

import "math"

// Vector is a sparse row: Indices ascending, one value per index.
type Vector struct {
	Indices []int
	Values  []float64
}

// Dot returns the inner product of two sparse vectors.
func (v Vector) Dot(o Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// DotDense returns the inner product with a dense vector.
func (v Vector) DotDense(dense []float64) float64 {
	var sum float64
	for k, idx := range v.Indices {
		sum += v.Values[k] * dense[idx]
	}
	return sum
}

func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// normalize scales v to unit L2 norm in place; zero vectors are left alone.
func (v Vector) normalize() {
	n := v.Norm()
	if n == 0 {
		return
	}
	for k := range v.Values {
		v.Values[k] /= n
	}
}
