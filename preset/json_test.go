package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-mel/mel"
)

func writePreset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preset.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	return path
}

func TestLoadJSONAppliesOverrides(t *testing.T) {
	path := writePreset(t, `{
  "sample_rate": 22050,
  "n_fft": 2048,
  "hop_size": 275,
  "win_size": 1100,
  "num_mels": 96,
  "fmax": 11025,
  "preemphasize": true,
  "preemphasis": 0.95,
  "normalization": "db",
  "min_level_db": -120,
  "ref_level_db": 16,
  "max_abs_value": 1.0,
  "symmetric_mels": false,
  "griffin_lim_iters": 60
}`)

	cfg, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if cfg.SampleRate != 22050 || cfg.FFTSize != 2048 || cfg.HopSize != 275 || cfg.WinSize != 1100 {
		t.Fatalf("framing mismatch: %+v", cfg)
	}
	if cfg.NumMels != 96 || cfg.FMax != 11025 {
		t.Fatalf("band fields mismatch: %+v", cfg)
	}
	if !cfg.Preemphasize || cfg.Preemphasis != 0.95 {
		t.Fatalf("preemphasis fields mismatch: %+v", cfg)
	}
	if cfg.Normalization != mel.NormDB || cfg.MinLevelDB != -120 || cfg.RefLevelDB != 16 {
		t.Fatalf("normalization fields mismatch: %+v", cfg)
	}
	if cfg.MaxAbsValue != 1.0 || cfg.SymmetricMels {
		t.Fatalf("range fields mismatch: %+v", cfg)
	}
	if cfg.GriffinLimIters != 60 {
		t.Fatalf("griffin_lim_iters mismatch: %d", cfg.GriffinLimIters)
	}
}

func TestLoadJSONKeepsDefaultsForAbsentKeys(t *testing.T) {
	path := writePreset(t, `{"num_mels": 64}`)

	cfg, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	want := mel.DefaultConfig()
	want.NumMels = 64
	if cfg != want {
		t.Fatalf("config mismatch:\ngot  %+v\nwant %+v", cfg, want)
	}
}

func TestLoadJSONRejectsUnknownNormalization(t *testing.T) {
	path := writePreset(t, `{"normalization": "cubic"}`)
	if _, err := LoadJSON(path); err == nil {
		t.Fatalf("expected error for unknown normalization name")
	}
}

func TestLoadJSONRejectsInvalidRanges(t *testing.T) {
	path := writePreset(t, `{"fmax": 9000}`)
	if _, err := LoadJSON(path); err == nil {
		t.Fatalf("expected error for band edge above Nyquist")
	}
}

func TestLoadJSONMissingFile(t *testing.T) {
	if _, err := LoadJSON(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestApplyFileNilArguments(t *testing.T) {
	if err := ApplyFile(nil, &File{}); err == nil {
		t.Fatalf("expected error for nil destination")
	}
	cfg := mel.DefaultConfig()
	if err := ApplyFile(&cfg, nil); err != nil {
		t.Fatalf("ApplyFile(nil file): %v", err)
	}
	if cfg != mel.DefaultConfig() {
		t.Fatalf("nil file changed the config: %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := mel.DefaultConfig()
	cfg.SampleRate = 24000
	cfg.FMax = 12000
	cfg.NumMels = 100
	cfg.Normalization = mel.NormDB
	cfg.SymmetricMels = false
	cfg.Preemphasize = true

	path := filepath.Join(t.TempDir(), "saved.json")
	if err := SaveJSON(path, cfg); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	loaded, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if loaded != cfg {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", loaded, cfg)
	}
}
