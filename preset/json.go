// Package preset loads and stores extraction settings as JSON files.
package preset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cwbudde/algo-mel/mel"
)

// File is the JSON schema for extraction presets. Pointer fields keep the
// built-in defaults when the key is absent.
type File struct {
	SampleRate *int     `json:"sample_rate"`
	FFTSize    *int     `json:"n_fft"`
	HopSize    *int     `json:"hop_size"`
	WinSize    *int     `json:"win_size"`
	NumMels    *int     `json:"num_mels"`
	FMin       *float64 `json:"fmin"`
	FMax       *float64 `json:"fmax"`

	Preemphasize *bool    `json:"preemphasize"`
	Preemphasis  *float64 `json:"preemphasis"`

	Normalization       *string  `json:"normalization"`
	MinLevelDB          *float64 `json:"min_level_db"`
	RefLevelDB          *float64 `json:"ref_level_db"`
	MaxAbsValue         *float64 `json:"max_abs_value"`
	SymmetricMels       *bool    `json:"symmetric_mels"`
	SignalNormalization *bool    `json:"signal_normalization"`
	AllowClipping       *bool    `json:"allow_clipping_in_normalization"`

	Power           *float64 `json:"power"`
	GriffinLimIters *int     `json:"griffin_lim_iters"`
}

// LoadJSON loads a preset JSON file, applies it on top of the defaults and
// validates the result.
func LoadJSON(path string) (mel.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return mel.DefaultConfig(), err
	}
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return mel.DefaultConfig(), fmt.Errorf("parse %s: %w", path, err)
	}
	return ToConfig(&f)
}

// ToConfig resolves a parsed file against the defaults and validates the
// result.
func ToConfig(f *File) (mel.Config, error) {
	cfg := mel.DefaultConfig()
	if err := ApplyFile(&cfg, f); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyFile applies a parsed preset file onto an existing configuration.
// Range checks happen in Validate, only the normalization name is parsed
// here.
func ApplyFile(dst *mel.Config, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination config")
	}
	if f == nil {
		return nil
	}

	if f.SampleRate != nil {
		dst.SampleRate = *f.SampleRate
	}
	if f.FFTSize != nil {
		dst.FFTSize = *f.FFTSize
	}
	if f.HopSize != nil {
		dst.HopSize = *f.HopSize
	}
	if f.WinSize != nil {
		dst.WinSize = *f.WinSize
	}
	if f.NumMels != nil {
		dst.NumMels = *f.NumMels
	}
	if f.FMin != nil {
		dst.FMin = *f.FMin
	}
	if f.FMax != nil {
		dst.FMax = *f.FMax
	}
	if f.Preemphasize != nil {
		dst.Preemphasize = *f.Preemphasize
	}
	if f.Preemphasis != nil {
		dst.Preemphasis = *f.Preemphasis
	}
	if f.Normalization != nil {
		n, err := mel.ParseNormalization(*f.Normalization)
		if err != nil {
			return err
		}
		dst.Normalization = n
	}
	if f.MinLevelDB != nil {
		dst.MinLevelDB = *f.MinLevelDB
	}
	if f.RefLevelDB != nil {
		dst.RefLevelDB = *f.RefLevelDB
	}
	if f.MaxAbsValue != nil {
		dst.MaxAbsValue = *f.MaxAbsValue
	}
	if f.SymmetricMels != nil {
		dst.SymmetricMels = *f.SymmetricMels
	}
	if f.SignalNormalization != nil {
		dst.SignalNormalization = *f.SignalNormalization
	}
	if f.AllowClipping != nil {
		dst.AllowClipping = *f.AllowClipping
	}
	if f.Power != nil {
		dst.Power = *f.Power
	}
	if f.GriffinLimIters != nil {
		dst.GriffinLimIters = *f.GriffinLimIters
	}
	return nil
}

// FromConfig captures the full configuration in the file schema.
func FromConfig(cfg mel.Config) File {
	norm := cfg.Normalization.String()
	return File{
		SampleRate:          &cfg.SampleRate,
		FFTSize:             &cfg.FFTSize,
		HopSize:             &cfg.HopSize,
		WinSize:             &cfg.WinSize,
		NumMels:             &cfg.NumMels,
		FMin:                &cfg.FMin,
		FMax:                &cfg.FMax,
		Preemphasize:        &cfg.Preemphasize,
		Preemphasis:         &cfg.Preemphasis,
		Normalization:       &norm,
		MinLevelDB:          &cfg.MinLevelDB,
		RefLevelDB:          &cfg.RefLevelDB,
		MaxAbsValue:         &cfg.MaxAbsValue,
		SymmetricMels:       &cfg.SymmetricMels,
		SignalNormalization: &cfg.SignalNormalization,
		AllowClipping:       &cfg.AllowClipping,
		Power:               &cfg.Power,
		GriffinLimIters:     &cfg.GriffinLimIters,
	}
}

// SaveJSON writes the full configuration, so a stored preset reproduces the
// run even if the defaults change later.
func SaveJSON(path string, cfg mel.Config) error {
	f := FromConfig(cfg)
	b, err := json.MarshalIndent(&f, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}
