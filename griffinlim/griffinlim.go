// Package griffinlim recovers time-domain audio from magnitude spectrograms
// by iterative phase refinement.
package griffinlim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-approx"
	"github.com/cwbudde/algo-mel/stft"
)

// Config controls phase reconstruction.
type Config struct {
	// Iterations is the number of refinement passes. Zero keeps the random
	// initial phases.
	Iterations int
	// Power sharpens the magnitude spectrogram before inversion.
	Power float64
	Seed  int64
	STFT  stft.Config
}

func DefaultConfig() Config {
	return Config{
		Iterations: 30,
		Power:      1.2,
		Seed:       1,
		STFT:       stft.DefaultConfig(),
	}
}

func (c Config) Validate() error {
	if c.Iterations < 0 {
		return fmt.Errorf("iterations must be >= 0, got %d", c.Iterations)
	}
	if c.Power <= 0 {
		return fmt.Errorf("power must be > 0, got %g", c.Power)
	}
	return c.STFT.Validate()
}

// Option configures a Reconstructor.
type Option func(*options)

type options struct {
	fft stft.FFT
}

// WithFFT substitutes the FFT backend used by the transform pair.
func WithFFT(f stft.FFT) Option {
	return func(o *options) { o.fft = f }
}

// Reconstructor inverts linear magnitude spectrograms. Each Reconstruct call
// reseeds the initial phases, so equal inputs give equal outputs. It reuses
// the transform scratch buffers and is not safe for concurrent use.
type Reconstructor struct {
	cfg Config
	st  *stft.STFT
}

// New creates a Reconstructor for the given configuration.
func New(cfg Config, opts ...Option) (*Reconstructor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	var stftOpts []stft.Option
	if o.fft != nil {
		stftOpts = append(stftOpts, stft.WithFFT(o.fft))
	}
	st, err := stft.New(cfg.STFT, stftOpts...)
	if err != nil {
		return nil, err
	}
	return &Reconstructor{cfg: cfg, st: st}, nil
}

// Config returns the reconstruction parameters.
func (r *Reconstructor) Config() Config { return r.cfg }

// Bins returns the number of spectrum bins each input frame must have.
func (r *Reconstructor) Bins() int { return r.st.Bins() }

// Reconstruct estimates a signal whose magnitude spectrogram matches mag.
// mag holds one row per frame with Bins values each. The phases start
// random and are re-estimated from the running signal on every iteration
// while the magnitude stays fixed. The output has the natural overlap-add
// length (frames-1)*hop + window.
func (r *Reconstructor) Reconstruct(mag [][]float64) ([]float64, error) {
	if len(mag) == 0 {
		return []float64{}, nil
	}
	bins := r.st.Bins()
	target := make([][]float64, len(mag))
	for t, row := range mag {
		if len(row) != bins {
			return nil, fmt.Errorf("frame %d has %d bins, want %d", t, len(row), bins)
		}
		target[t] = make([]float64, bins)
		for k, v := range row {
			target[t][k] = powApprox(v, r.cfg.Power)
		}
	}

	rng := rand.New(rand.NewSource(r.cfg.Seed))
	spec := make([][]complex128, len(target))
	for t := range spec {
		spec[t] = make([]complex128, bins)
		for k := range spec[t] {
			phi := 2 * math.Pi * rng.Float64()
			spec[t][k] = complex(target[t][k]*math.Cos(phi), target[t][k]*math.Sin(phi))
		}
	}

	wav, err := r.st.Synthesize(spec, -1)
	if err != nil {
		return nil, err
	}
	for i := 0; i < r.cfg.Iterations; i++ {
		est, err := r.st.Analyze(wav)
		if err != nil {
			return nil, err
		}
		for t := range spec {
			for k := range spec[t] {
				re := real(est[t][k])
				im := imag(est[t][k])
				m := math.Hypot(re, im)
				if m > 0 {
					scale := target[t][k] / m
					spec[t][k] = complex(re*scale, im*scale)
				} else {
					spec[t][k] = complex(target[t][k], 0)
				}
			}
		}
		wav, err = r.st.Synthesize(spec, -1)
		if err != nil {
			return nil, err
		}
	}
	return wav, nil
}

// powApprox raises a nonnegative magnitude to p using the fast exponential.
func powApprox(x, p float64) float64 {
	if x <= 0 {
		return 0
	}
	if p == 1 {
		return x
	}
	return float64(approx.FastExp(float32(p * math.Log(x))))
}
