package stft

import (
	"fmt"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// FFT computes forward and inverse discrete Fourier transforms of real
// frames. Implementations reuse internal state and are not safe for
// concurrent use.
type FFT interface {
	// Size returns the transform length.
	Size() int
	// Bins returns the number of non-redundant spectrum bins, Size()/2+1.
	Bins() int
	// Forward computes the half spectrum of frame into spec.
	// len(frame) must be Size() and len(spec) must be Bins().
	Forward(spec []complex128, frame []float64) error
	// Inverse computes the real frame for a half spectrum, scaled so that
	// Inverse(Forward(x)) reproduces x.
	Inverse(frame []float64, spec []complex128) error
}

type realForwardPlan interface {
	Forward(dst []complex128, src []float64) error
}

type complexForwardPlan interface {
	Forward(dst, src []complex128) error
}

// planFFT is the default backend built on algo-fft plans. Only the forward
// half-spectrum transform has a real-valued plan, so the inverse runs through
// a complex plan using ifft(x) = conj(fft(conj(x)))/n.
type planFFT struct {
	size    int
	fwd     realForwardPlan
	inv     complexForwardPlan
	full    []complex128
	scratch []complex128
}

// NewFFT returns the default FFT backend for the given transform size.
// The size must be a power of two.
func NewFFT(size int) (FFT, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	fwd, err := algofft.NewPlanReal64(size)
	if err != nil {
		return nil, fmt.Errorf("forward plan: %w", err)
	}
	inv, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("inverse plan: %w", err)
	}
	return &planFFT{
		size:    size,
		fwd:     fwd,
		inv:     inv,
		full:    make([]complex128, size),
		scratch: make([]complex128, size),
	}, nil
}

func (p *planFFT) Size() int { return p.size }

func (p *planFFT) Bins() int { return p.size/2 + 1 }

func (p *planFFT) Forward(spec []complex128, frame []float64) error {
	if len(frame) != p.size {
		return fmt.Errorf("frame length %d, want %d", len(frame), p.size)
	}
	if len(spec) != p.Bins() {
		return fmt.Errorf("spectrum length %d, want %d", len(spec), p.Bins())
	}
	return p.fwd.Forward(spec, frame)
}

func (p *planFFT) Inverse(frame []float64, spec []complex128) error {
	if len(spec) != p.Bins() {
		return fmt.Errorf("spectrum length %d, want %d", len(spec), p.Bins())
	}
	if len(frame) != p.size {
		return fmt.Errorf("frame length %d, want %d", len(frame), p.size)
	}
	n := p.size
	// Hermitian expansion, pre-conjugated for the inverse identity.
	p.full[0] = cmplx.Conj(spec[0])
	p.full[n/2] = cmplx.Conj(spec[n/2])
	for k := 1; k < n/2; k++ {
		p.full[k] = cmplx.Conj(spec[k])
		p.full[n-k] = spec[k]
	}
	if err := p.inv.Forward(p.scratch, p.full); err != nil {
		return err
	}
	scale := 1.0 / float64(n)
	for i := range frame {
		frame[i] = real(p.scratch[i]) * scale
	}
	return nil
}

// gonumFFT adapts gonum's real FFT. fourier.FFT keeps internal work buffers,
// so instances must not be shared between goroutines.
type gonumFFT struct {
	size int
	fft  *fourier.FFT
}

// NewGonumFFT returns an FFT backend built on gonum's dsp/fourier package.
// The size must be a power of two.
func NewGonumFFT(size int) (FFT, error) {
	if err := checkSize(size); err != nil {
		return nil, err
	}
	return &gonumFFT{size: size, fft: fourier.NewFFT(size)}, nil
}

func (g *gonumFFT) Size() int { return g.size }

func (g *gonumFFT) Bins() int { return g.size/2 + 1 }

func (g *gonumFFT) Forward(spec []complex128, frame []float64) error {
	if len(frame) != g.size {
		return fmt.Errorf("frame length %d, want %d", len(frame), g.size)
	}
	if len(spec) != g.Bins() {
		return fmt.Errorf("spectrum length %d, want %d", len(spec), g.Bins())
	}
	g.fft.Coefficients(spec, frame)
	return nil
}

func (g *gonumFFT) Inverse(frame []float64, spec []complex128) error {
	if len(spec) != g.Bins() {
		return fmt.Errorf("spectrum length %d, want %d", len(spec), g.Bins())
	}
	if len(frame) != g.size {
		return fmt.Errorf("frame length %d, want %d", len(frame), g.size)
	}
	// Sequence is unnormalized; Sequence(Coefficients(x)) == n*x.
	g.fft.Sequence(frame, spec)
	scale := 1.0 / float64(g.size)
	for i := range frame {
		frame[i] *= scale
	}
	return nil
}

func checkSize(size int) error {
	if size < 2 || size&(size-1) != 0 {
		return fmt.Errorf("fft size must be a power of two >= 2, got %d", size)
	}
	return nil
}
