package mel

import (
	"fmt"
	"math"
)

// hzToMel converts a frequency in Hz to the HTK mel scale.
func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// melToHz converts a mel value back to Hz.
func melToHz(m float64) float64 {
	return 700.0 * (math.Pow(10, m/2595.0) - 1.0)
}

// Basis is a bank of triangular mel filters over FFT bin center frequencies,
// one row per mel band. Immutable after construction; safe to share between
// goroutines.
type Basis struct {
	weights [][]float64
	lo, hi  []int // nonzero column range [lo,hi) per band
	centers []float64
	numMels int
	bins    int
}

// newBasis builds the filterbank. Parameters must already be validated.
func newBasis(sampleRate, fftSize, numMels int, fMin, fMax float64) *Basis {
	bins := fftSize/2 + 1
	b := &Basis{
		weights: make([][]float64, numMels),
		lo:      make([]int, numMels),
		hi:      make([]int, numMels),
		centers: make([]float64, numMels),
		numMels: numMels,
		bins:    bins,
	}

	// numMels+2 edges equally spaced on the mel scale.
	melMin := hzToMel(fMin)
	melMax := hzToMel(fMax)
	edges := make([]float64, numMels+2)
	for i := range edges {
		m := melMin + (melMax-melMin)*float64(i)/float64(numMels+1)
		edges[i] = melToHz(m)
	}

	binHz := float64(sampleRate) / float64(fftSize)
	for m := 0; m < numMels; m++ {
		left, center, right := edges[m], edges[m+1], edges[m+2]
		b.centers[m] = center
		row := make([]float64, bins)
		lo, hi := bins, 0
		for k := 0; k < bins; k++ {
			f := float64(k) * binHz
			var w float64
			switch {
			case f <= left || f >= right:
			case f <= center:
				if center > left {
					w = (f - left) / (center - left)
				}
			default:
				if right > center {
					w = (right - f) / (right - center)
				}
			}
			if w <= 0 {
				continue
			}
			row[k] = w
			if k < lo {
				lo = k
			}
			if k+1 > hi {
				hi = k + 1
			}
		}
		if lo > hi {
			lo, hi = 0, 0
		}
		b.weights[m] = row
		b.lo[m] = lo
		b.hi[m] = hi
	}
	return b
}

// NumMels returns the number of mel bands.
func (b *Basis) NumMels() int { return b.numMels }

// Bins returns the number of FFT bins each filter spans.
func (b *Basis) Bins() int { return b.bins }

// CenterFreq returns the center frequency in Hz of mel band m.
func (b *Basis) CenterFreq(m int) float64 { return b.centers[m] }

// Apply projects one magnitude spectrum onto the mel bands.
func (b *Basis) Apply(dst, spectrum []float64) error {
	if len(spectrum) != b.bins {
		return fmt.Errorf("spectrum has %d bins, want %d", len(spectrum), b.bins)
	}
	if len(dst) != b.numMels {
		return fmt.Errorf("destination has %d bands, want %d", len(dst), b.numMels)
	}
	for m := 0; m < b.numMels; m++ {
		row := b.weights[m]
		var sum float64
		for k := b.lo[m]; k < b.hi[m]; k++ {
			sum += row[k] * spectrum[k]
		}
		dst[m] = sum
	}
	return nil
}

// ApplyTranspose projects mel band values back onto the FFT bins through the
// transposed filterbank, the approximate inverse used for resynthesis.
func (b *Basis) ApplyTranspose(dst, mels []float64) error {
	if len(mels) != b.numMels {
		return fmt.Errorf("input has %d bands, want %d", len(mels), b.numMels)
	}
	if len(dst) != b.bins {
		return fmt.Errorf("destination has %d bins, want %d", len(dst), b.bins)
	}
	for k := range dst {
		dst[k] = 0
	}
	for m := 0; m < b.numMels; m++ {
		v := mels[m]
		if v == 0 {
			continue
		}
		row := b.weights[m]
		for k := b.lo[m]; k < b.hi[m]; k++ {
			dst[k] += row[k] * v
		}
	}
	return nil
}
