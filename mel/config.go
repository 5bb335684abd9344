package mel

import (
	"fmt"

	"github.com/cwbudde/algo-mel/stft"
)

// Normalization selects how linear mel magnitudes are compressed into the
// feature domain. The set is closed; the policy and its constants are fixed
// when an extractor is built.
type Normalization int

const (
	// NormLog floors magnitudes at 1e-5 and takes the natural log.
	NormLog Normalization = iota
	// NormDB converts magnitudes to decibels above a configurable floor and
	// optionally maps them into a fixed value range.
	NormDB
)

// String returns the flag/JSON name of the policy.
func (n Normalization) String() string {
	switch n {
	case NormLog:
		return "log"
	case NormDB:
		return "db"
	default:
		return fmt.Sprintf("Normalization(%d)", int(n))
	}
}

// ParseNormalization converts a flag/JSON name into a policy.
func ParseNormalization(s string) (Normalization, error) {
	switch s {
	case "log":
		return NormLog, nil
	case "db":
		return NormDB, nil
	default:
		return 0, fmt.Errorf("unknown normalization %q (use \"log\" or \"db\")", s)
	}
}

// Config holds all feature-extraction parameters.
type Config struct {
	SampleRate int
	FFTSize    int
	HopSize    int
	WinSize    int
	NumMels    int
	FMin       float64
	FMax       float64

	// Preemphasize applies the high-pass preemphasis filter before analysis.
	Preemphasize bool
	Preemphasis  float64

	Normalization Normalization

	// Decibel policy constants, ignored under NormLog.
	MinLevelDB          float64
	RefLevelDB          float64
	MaxAbsValue         float64
	SymmetricMels       bool
	SignalNormalization bool
	AllowClipping       bool

	// Resynthesis settings: magnitude exponent and Griffin-Lim iterations.
	Power           float64
	GriffinLimIters int
}

// DefaultConfig returns the standard 16 kHz / 80 band configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:          16000,
		FFTSize:             1024,
		HopSize:             256,
		WinSize:             1024,
		NumMels:             80,
		FMin:                0,
		FMax:                8000,
		Preemphasize:        false,
		Preemphasis:         0.97,
		Normalization:       NormLog,
		MinLevelDB:          -100,
		RefLevelDB:          20,
		MaxAbsValue:         4.0,
		SymmetricMels:       true,
		SignalNormalization: true,
		AllowClipping:       true,
		Power:               1.2,
		GriffinLimIters:     30,
	}
}

// Validate checks every parameter and reports the first violation.
func (c Config) Validate() error {
	if c.SampleRate < 1 {
		return fmt.Errorf("sample rate must be >= 1, got %d", c.SampleRate)
	}
	if err := c.STFTConfig().Validate(); err != nil {
		return err
	}
	if c.NumMels < 1 {
		return fmt.Errorf("mel band count must be >= 1, got %d", c.NumMels)
	}
	if c.FMin < 0 {
		return fmt.Errorf("fmin must be >= 0, got %g", c.FMin)
	}
	if c.FMax <= c.FMin {
		return fmt.Errorf("fmax %g must exceed fmin %g", c.FMax, c.FMin)
	}
	nyquist := float64(c.SampleRate) / 2
	if c.FMax > nyquist {
		return fmt.Errorf("fmax %g exceeds Nyquist frequency %g", c.FMax, nyquist)
	}
	if c.Preemphasis < 0 || c.Preemphasis >= 1 {
		return fmt.Errorf("preemphasis coefficient must be in [0,1), got %g", c.Preemphasis)
	}
	switch c.Normalization {
	case NormLog:
	case NormDB:
		if c.MinLevelDB >= 0 {
			return fmt.Errorf("min level must be negative dB, got %g", c.MinLevelDB)
		}
		if c.MaxAbsValue <= 0 {
			return fmt.Errorf("max abs value must be > 0, got %g", c.MaxAbsValue)
		}
	default:
		return fmt.Errorf("unknown normalization %d", int(c.Normalization))
	}
	if c.Power <= 0 {
		return fmt.Errorf("power must be > 0, got %g", c.Power)
	}
	if c.GriffinLimIters < 0 {
		return fmt.Errorf("griffin-lim iterations must be >= 0, got %d", c.GriffinLimIters)
	}
	return nil
}

// STFTConfig returns the framing subset of the configuration.
func (c Config) STFTConfig() stft.Config {
	return stft.Config{FFTSize: c.FFTSize, HopSize: c.HopSize, WinSize: c.WinSize}
}
