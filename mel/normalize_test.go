package mel

import (
	"math"
	"testing"
)

func dbConfig(symmetric, mapping, clip bool) Config {
	cfg := DefaultConfig()
	cfg.Normalization = NormDB
	cfg.SymmetricMels = symmetric
	cfg.SignalNormalization = mapping
	cfg.AllowClipping = clip
	return cfg
}

func TestLogPolicyFloorsSilence(t *testing.T) {
	n := newNormalizer(DefaultConfig())

	want := math.Log(1e-5)
	for _, v := range []float64{0, 1e-12, 1e-6, 1e-5} {
		got := n.apply(v)
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Fatalf("apply(%g) is not finite: %g", v, got)
		}
		if got < want-1e-15 {
			t.Fatalf("apply(%g) = %g below the floor %g", v, got, want)
		}
	}
	if got := n.apply(0); math.Abs(got-want) > 1e-15 {
		t.Fatalf("apply(0) = %g, want %g", got, want)
	}
	if got := n.floor(); math.Abs(got-want) > 1e-15 {
		t.Fatalf("floor() = %g, want %g", got, want)
	}
}

func TestDBPolicyReferenceValues(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		in   float64
		want float64
	}{
		// min_level = 1e-4; amp 1.0 is -20 dB after the reference shift,
		// mapped to 0.8 of the range.
		{"symmetric unity", dbConfig(true, true, true), 1.0, 2.4},
		{"symmetric silence", dbConfig(true, true, true), 0.0, -4.0},
		{"asymmetric unity", dbConfig(false, true, true), 1.0, 3.2},
		{"asymmetric silence", dbConfig(false, true, true), 0.0, 0.0},
		{"unmapped unity", dbConfig(true, false, true), 1.0, -20.0},
		{"clipped loud", dbConfig(true, true, true), 1000.0, 4.0},
		{"unclipped loud", dbConfig(true, true, false), 1000.0, 7.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newNormalizer(tt.cfg)
			got := n.apply(tt.in)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("apply(%g) = %g, want %g", tt.in, got, tt.want)
			}
		})
	}
}

func TestDBPolicyFloorIncludesReferenceLevel(t *testing.T) {
	n := newNormalizer(dbConfig(true, false, false))
	want := math.Exp((-100.0 + 20.0) / 20.0 * math.Ln10) // 1e-4
	if math.Abs(n.minLevel-want) > 1e-18 {
		t.Fatalf("minLevel = %g, want %g", n.minLevel, want)
	}
	// Everything at or below the floor maps to min_level_db.
	if got := n.apply(0); math.Abs(got-(-100)) > 1e-9 {
		t.Fatalf("apply(0) = %g, want -100", got)
	}
	if got := n.apply(want / 10); math.Abs(got-(-100)) > 1e-9 {
		t.Fatalf("apply(min/10) = %g, want -100", got)
	}
}

func TestNormalizeInvertRoundTrip(t *testing.T) {
	configs := []struct {
		name string
		cfg  Config
	}{
		{"log", DefaultConfig()},
		{"db symmetric", dbConfig(true, true, true)},
		{"db asymmetric", dbConfig(false, true, true)},
		{"db unmapped", dbConfig(true, false, false)},
	}

	for _, tc := range configs {
		t.Run(tc.name, func(t *testing.T) {
			n := newNormalizer(tc.cfg)
			for _, v := range []float64{1e-3, 0.01, 0.1, 0.5, 1.0, 5.0} {
				back := n.invert(n.apply(v))
				if math.Abs(back-v) > 1e-9*v {
					t.Fatalf("invert(apply(%g)) = %g", v, back)
				}
			}
		})
	}
}

func TestInvertClampsOutOfRange(t *testing.T) {
	n := newNormalizer(dbConfig(true, true, true))

	top := n.invert(n.maxAbs)
	if got := n.invert(n.maxAbs + 10); got != top {
		t.Fatalf("invert above range = %g, want clamped %g", got, top)
	}
	bottom := n.invert(-n.maxAbs)
	if got := n.invert(-n.maxAbs - 10); got != bottom {
		t.Fatalf("invert below range = %g, want clamped %g", got, bottom)
	}
}
