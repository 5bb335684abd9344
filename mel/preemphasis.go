package mel

import (
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// Preemphasis applies the first-order high-pass filter y[n] = x[n] - c*x[n-1]
// and returns a new slice. A zero coefficient returns an unfiltered copy.
func Preemphasis(x []float64, coeff float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	if coeff == 0 {
		copy(out, x)
		return out
	}
	out[0] = x[0]
	for i := 1; i < len(x); i++ {
		out[i] = x[i] - coeff*x[i-1]
	}
	return out
}

// InversePreemphasis undoes Preemphasis with the recursive filter
// y[n] = x[n] + c*y[n-1]. The feedback state is flushed against denormals
// on decaying tails.
func InversePreemphasis(x []float64, coeff float64) []float64 {
	out := make([]float64, len(x))
	if coeff == 0 {
		copy(out, x)
		return out
	}
	var prev float64
	for i, v := range x {
		prev = dspcore.FlushDenormals(v + coeff*prev)
		out[i] = prev
	}
	return out
}
