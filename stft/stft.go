package stft

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Config holds the framing parameters of a short-time Fourier transform.
type Config struct {
	FFTSize int
	HopSize int
	WinSize int
}

// DefaultConfig returns the framing used by the feature-extraction defaults.
func DefaultConfig() Config {
	return Config{FFTSize: 1024, HopSize: 256, WinSize: 1024}
}

// Validate checks the framing parameters.
func (c Config) Validate() error {
	if c.FFTSize < 2 || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("fft size must be a power of two >= 2, got %d", c.FFTSize)
	}
	if c.HopSize < 1 {
		return fmt.Errorf("hop size must be >= 1, got %d", c.HopSize)
	}
	if c.WinSize < 1 {
		return fmt.Errorf("window size must be >= 1, got %d", c.WinSize)
	}
	if c.HopSize > c.WinSize {
		return fmt.Errorf("hop size %d exceeds window size %d", c.HopSize, c.WinSize)
	}
	if c.WinSize > c.FFTSize {
		return fmt.Errorf("window size %d exceeds fft size %d", c.WinSize, c.FFTSize)
	}
	return nil
}

// Option configures an STFT.
type Option func(*options)

type options struct {
	fft FFT
}

// WithFFT substitutes the FFT backend. The backend size must match the
// configured FFT size.
func WithFFT(f FFT) Option {
	return func(o *options) { o.fft = f }
}

// STFT performs forward and inverse short-time Fourier transforms with a
// periodic Hann window. Frames are windowed and zero-padded to the transform
// size; the signal itself is never padded, so the first frame starts at
// sample zero and NumFrames reports the resulting count.
//
// An STFT reuses scratch buffers and the backend plan between calls and is
// not safe for concurrent use.
type STFT struct {
	cfg    Config
	fft    FFT
	window []float64
	frame  []float64
}

// New creates an STFT for the given framing.
func New(cfg Config, opts ...Option) (*STFT, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	f := o.fft
	if f == nil {
		var err error
		f, err = NewFFT(cfg.FFTSize)
		if err != nil {
			return nil, err
		}
	} else if f.Size() != cfg.FFTSize {
		return nil, fmt.Errorf("fft backend size %d does not match configured fft size %d", f.Size(), cfg.FFTSize)
	}
	return &STFT{
		cfg:    cfg,
		fft:    f,
		window: hannWindow(cfg.WinSize),
		frame:  make([]float64, cfg.FFTSize),
	}, nil
}

// Config returns the framing parameters.
func (s *STFT) Config() Config { return s.cfg }

// Bins returns the number of spectrum bins per frame.
func (s *STFT) Bins() int { return s.fft.Bins() }

// NumFrames returns the number of analysis frames for a signal of n samples.
func (s *STFT) NumFrames(n int) int {
	if n < s.cfg.WinSize {
		return 0
	}
	return (n-s.cfg.WinSize)/s.cfg.HopSize + 1
}

// Analyze computes the half spectrum of every frame.
func (s *STFT) Analyze(x []float64) ([][]complex128, error) {
	frames := s.NumFrames(len(x))
	out := make([][]complex128, frames)
	for t := 0; t < frames; t++ {
		pos := t * s.cfg.HopSize
		for i := 0; i < s.cfg.WinSize; i++ {
			s.frame[i] = x[pos+i] * s.window[i]
		}
		for i := s.cfg.WinSize; i < s.cfg.FFTSize; i++ {
			s.frame[i] = 0
		}
		spec := make([]complex128, s.fft.Bins())
		if err := s.fft.Forward(spec, s.frame); err != nil {
			return nil, fmt.Errorf("frame %d: %w", t, err)
		}
		out[t] = spec
	}
	return out, nil
}

// Magnitude computes the magnitude spectrogram, one row per frame.
func (s *STFT) Magnitude(x []float64) ([][]float64, error) {
	spec, err := s.Analyze(x)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(spec))
	for t, frame := range spec {
		row := make([]float64, len(frame))
		for k, c := range frame {
			row[k] = cmplx.Abs(c)
		}
		out[t] = row
	}
	return out, nil
}

// Synthesize reconstructs a signal from half spectra by overlap-add with
// squared-window compensation. n sets the output length; pass a negative
// value for the natural length (frames-1)*hop + window.
func (s *STFT) Synthesize(spec [][]complex128, n int) ([]float64, error) {
	if len(spec) == 0 {
		if n < 0 {
			n = 0
		}
		return make([]float64, n), nil
	}
	natural := (len(spec)-1)*s.cfg.HopSize + s.cfg.WinSize
	if n < 0 {
		n = natural
	}
	out := make([]float64, natural)
	wsum := make([]float64, natural)
	for t, frame := range spec {
		if len(frame) != s.fft.Bins() {
			return nil, fmt.Errorf("frame %d has %d bins, want %d", t, len(frame), s.fft.Bins())
		}
		if err := s.fft.Inverse(s.frame, frame); err != nil {
			return nil, fmt.Errorf("frame %d: %w", t, err)
		}
		pos := t * s.cfg.HopSize
		for i := 0; i < s.cfg.WinSize; i++ {
			w := s.window[i]
			out[pos+i] += s.frame[i] * w
			wsum[pos+i] += w * w
		}
	}
	for i := range out {
		if wsum[i] > 1e-11 {
			out[i] /= wsum[i]
		}
	}
	if n <= natural {
		return out[:n], nil
	}
	padded := make([]float64, n)
	copy(padded, out)
	return padded, nil
}

// hannWindow returns a periodic Hann window.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}
