package mel

import (
	"fmt"

	"github.com/cwbudde/algo-mel/stft"
)

// Option configures an Extractor.
type Option func(*options)

type options struct {
	cache *BasisCache
	fft   stft.FFT
}

// WithBasisCache makes the extractor fetch its filterbank from a shared
// cache instead of building a private one.
func WithBasisCache(c *BasisCache) Option {
	return func(o *options) { o.cache = c }
}

// WithFFT substitutes the FFT backend of the underlying transform.
func WithFFT(f stft.FFT) Option {
	return func(o *options) { o.fft = f }
}

// Extractor converts waveforms into normalized mel spectrograms and projects
// them back to linear spectra for resynthesis.
//
// An Extractor reuses scratch buffers and the transform plan between calls
// and is not safe for concurrent use; create one per goroutine. A Basis
// obtained through WithBasisCache may be shared freely.
type Extractor struct {
	cfg    Config
	stft   *stft.STFT
	basis  *Basis
	norm   normalizer
	melBuf []float64
}

// NewExtractor validates cfg and builds the extraction pipeline.
func NewExtractor(cfg Config, opts ...Option) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var sopts []stft.Option
	if o.fft != nil {
		sopts = append(sopts, stft.WithFFT(o.fft))
	}
	st, err := stft.New(cfg.STFTConfig(), sopts...)
	if err != nil {
		return nil, err
	}

	var basis *Basis
	if o.cache != nil {
		basis, err = o.cache.Get(cfg)
		if err != nil {
			return nil, err
		}
	} else {
		basis = newBasis(cfg.SampleRate, cfg.FFTSize, cfg.NumMels, cfg.FMin, cfg.FMax)
	}

	return &Extractor{
		cfg:    cfg,
		stft:   st,
		basis:  basis,
		norm:   newNormalizer(cfg),
		melBuf: make([]float64, cfg.NumMels),
	}, nil
}

// Config returns the extractor configuration.
func (e *Extractor) Config() Config { return e.cfg }

// Basis returns the filterbank in use.
func (e *Extractor) Basis() *Basis { return e.basis }

// Frames returns the number of analysis frames for a signal of n samples.
func (e *Extractor) Frames(n int) int { return e.stft.NumFrames(n) }

// Floor returns the feature value silent input maps to.
func (e *Extractor) Floor() float64 { return e.norm.floor() }

// MelSpectrogram computes the normalized mel spectrogram, one row per frame
// with NumMels values each.
func (e *Extractor) MelSpectrogram(x []float64) ([][]float64, error) {
	if e.cfg.Preemphasize {
		x = Preemphasis(x, e.cfg.Preemphasis)
	}
	mag, err := e.stft.Magnitude(x)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(mag))
	for t, row := range mag {
		if err := e.basis.Apply(e.melBuf, row); err != nil {
			return nil, fmt.Errorf("frame %d: %w", t, err)
		}
		mels := make([]float64, e.cfg.NumMels)
		for m, v := range e.melBuf {
			mels[m] = e.norm.apply(v)
		}
		out[t] = mels
	}
	return out, nil
}

// Spectrogram computes the linear magnitude spectrogram with the same
// framing and preprocessing as MelSpectrogram, one row per frame with
// FFTSize/2+1 bins.
func (e *Extractor) Spectrogram(x []float64) ([][]float64, error) {
	if e.cfg.Preemphasize {
		x = Preemphasis(x, e.cfg.Preemphasis)
	}
	return e.stft.Magnitude(x)
}

// MelToLinear denormalizes a mel spectrogram and projects it back onto the
// FFT bins through the transposed filterbank. The result feeds phase
// reconstruction; it is an approximation, not an exact inverse.
func (e *Extractor) MelToLinear(mels [][]float64) ([][]float64, error) {
	out := make([][]float64, len(mels))
	for t, row := range mels {
		if len(row) != e.cfg.NumMels {
			return nil, fmt.Errorf("frame %d has %d mel bands, want %d", t, len(row), e.cfg.NumMels)
		}
		for m, v := range row {
			e.melBuf[m] = e.norm.invert(v)
		}
		lin := make([]float64, e.basis.Bins())
		if err := e.basis.ApplyTranspose(lin, e.melBuf); err != nil {
			return nil, fmt.Errorf("frame %d: %w", t, err)
		}
		out[t] = lin
	}
	return out, nil
}
