package consumption

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// present returns the non-NaN values of x
func present(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// nanSum adds the non-NaN values of x; an all-NaN slice sums to 0
func nanSum(x []float64) float64 {
	return floats.Sum(present(x))
}

// nanMean averages the non-NaN values of x; NaN when there are none
func nanMean(x []float64) float64 {
	p := present(x)
	if len(p) == 0 {
		return math.NaN()
	}
	return stat.Mean(p, nil)
}

// nanMax is the largest non-NaN value of x; NaN when there are none
func nanMax(x []float64) float64 {
	p := present(x)
	if len(p) == 0 {
		return math.NaN()
	}
	return floats.Max(p)
}

// divide returns v/d, or NaN when d is zero or NaN
func divide(v, d float64) float64 {
	if d == 0 || math.IsNaN(d) {
		return math.NaN()
	}
	return v / d
}

// divideAll divides every value of x by d into a new slice
func divideAll(x []float64, d float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = divide(v, d)
	}
	return out
}

// normalizeToMean scales x so that its mean is 1
func normalizeToMean(x []float64) []float64 {
	return divideAll(x, nanMean(x))
}

// columnMeans averages rows column by column, skipping NaN
func columnMeans(rows [][]float64, width int) []float64 {
	out := make([]float64, width)
	col := make([]float64, 0, len(rows))
	for j := 0; j < width; j++ {
		col = col[:0]
		for _, row := range rows {
			col = append(col, row[j])
		}
		out[j] = nanMean(col)
	}
	return out
}

func nan() float64 {
	return math.NaN()
}
