package mel

import "sync"

// basisKey is the subset of Config that determines the filterbank.
type basisKey struct {
	sampleRate int
	fftSize    int
	numMels    int
	fMin       float64
	fMax       float64
}

// BasisCache builds filterbanks lazily and shares them between extractors,
// so corpus jobs with a common configuration pay the construction cost once.
// Safe for concurrent use.
type BasisCache struct {
	mu    sync.Mutex
	bases map[basisKey]*Basis
}

// NewBasisCache creates an empty cache.
func NewBasisCache() *BasisCache {
	return &BasisCache{bases: make(map[basisKey]*Basis)}
}

// Get returns the filterbank for cfg, building it on first use. Configs that
// agree on sample rate, FFT size, band count and frequency range receive the
// identical basis.
func (c *BasisCache) Get(cfg Config) (*Basis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	key := basisKey{
		sampleRate: cfg.SampleRate,
		fftSize:    cfg.FFTSize,
		numMels:    cfg.NumMels,
		fMin:       cfg.FMin,
		fMax:       cfg.FMax,
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.bases[key]; ok {
		return b, nil
	}
	b := newBasis(cfg.SampleRate, cfg.FFTSize, cfg.NumMels, cfg.FMin, cfg.FMax)
	c.bases[key] = b
	return b, nil
}

// Len reports how many distinct bases the cache holds.
func (c *BasisCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bases)
}
