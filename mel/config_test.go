package mel

import "testing"

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"db policy", func(c *Config) { c.Normalization = NormDB }, false},
		{"narrow band", func(c *Config) { c.FMin = 50; c.FMax = 7600 }, false},
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }, true},
		{"fft not power of two", func(c *Config) { c.FFTSize = 1000; c.WinSize = 1000 }, true},
		{"hop exceeds window", func(c *Config) { c.HopSize = 2048 }, true},
		{"window exceeds fft", func(c *Config) { c.WinSize = 4096 }, true},
		{"zero mel bands", func(c *Config) { c.NumMels = 0 }, true},
		{"negative fmin", func(c *Config) { c.FMin = -1 }, true},
		{"fmax below fmin", func(c *Config) { c.FMin = 4000; c.FMax = 1000 }, true},
		{"fmax above nyquist", func(c *Config) { c.FMax = 8001 }, true},
		{"preemphasis at one", func(c *Config) { c.Preemphasis = 1.0 }, true},
		{"negative preemphasis", func(c *Config) { c.Preemphasis = -0.1 }, true},
		{"unknown normalization", func(c *Config) { c.Normalization = Normalization(9) }, true},
		{"db with non-negative floor", func(c *Config) { c.Normalization = NormDB; c.MinLevelDB = 0 }, true},
		{"db with zero range", func(c *Config) { c.Normalization = NormDB; c.MaxAbsValue = 0 }, true},
		{"zero power", func(c *Config) { c.Power = 0 }, true},
		{"negative iterations", func(c *Config) { c.GriffinLimIters = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error for %+v", cfg)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSTFTConfigSubset(t *testing.T) {
	cfg := DefaultConfig()
	sc := cfg.STFTConfig()
	if sc.FFTSize != cfg.FFTSize || sc.HopSize != cfg.HopSize || sc.WinSize != cfg.WinSize {
		t.Fatalf("STFTConfig %+v does not match %+v", sc, cfg)
	}
}

func TestParseNormalization(t *testing.T) {
	tests := []struct {
		in      string
		want    Normalization
		wantErr bool
	}{
		{"log", NormLog, false},
		{"db", NormDB, false},
		{"", 0, true},
		{"loudness", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseNormalization(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseNormalization(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseNormalization(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseNormalization(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if back, err := ParseNormalization(got.String()); err != nil || back != got {
			t.Errorf("String/Parse round trip failed for %v", got)
		}
	}
}
