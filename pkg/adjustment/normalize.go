package adjustment

import "gonum.org/v1/gonum/floats"

// Normalize maps data from the reference range [lo, hi] onto [0, 1] in a new
// buffer. When lo == hi the range is degenerate and the result is all zeros.
func Normalize(data []float64, lo, hi float64) []float64 {
	out := make([]float64, len(data))
	if hi == lo {
		return out
	}
	scale := hi - lo
	for i, v := range data {
		out[i] = (v - lo) / scale
	}
	return out
}

// Denormalize maps normalized data back onto [lo, hi] in a new buffer
func Denormalize(data []float64, lo, hi float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	floats.Scale(hi-lo, out)
	floats.AddConst(lo, out)
	return out
}
