package featio

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-mel/mel"
)

func testFrames(frames, bands int) [][]float64 {
	out := make([][]float64, frames)
	for t := range out {
		row := make([]float64, bands)
		for k := range row {
			row[k] = math.Sin(float64(t*bands+k)) * 3.5
		}
		out[t] = row
	}
	return out
}

func TestWriteReadJSONRoundTrip(t *testing.T) {
	cfg := mel.DefaultConfig()
	cfg.NumMels = 16
	frames := testFrames(5, 16)

	path := filepath.Join(t.TempDir(), "tone.mel.json")
	if err := WriteJSON(path, cfg, frames); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	gotCfg, got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if gotCfg != cfg {
		t.Fatalf("config mismatch:\ngot  %+v\nwant %+v", gotCfg, cfg)
	}
	if len(got) != len(frames) {
		t.Fatalf("got %d frames, want %d", len(got), len(frames))
	}
	for ti := range frames {
		for k := range frames[ti] {
			if got[ti][k] != frames[ti][k] {
				t.Fatalf("frame %d band %d: %g != %g", ti, k, got[ti][k], frames[ti][k])
			}
		}
	}
}

func TestWriteReadF32RoundTrip(t *testing.T) {
	cfg := mel.DefaultConfig()
	cfg.NumMels = 24
	frames := testFrames(7, 24)

	dir := t.TempDir()
	sidecar := filepath.Join(dir, "tone.mel.json")
	data := filepath.Join(dir, "tone.mel.f32")
	if err := WriteF32(sidecar, data, cfg, frames); err != nil {
		t.Fatalf("WriteF32: %v", err)
	}

	gotCfg, got, err := Read(sidecar)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if gotCfg != cfg {
		t.Fatalf("config mismatch:\ngot  %+v\nwant %+v", gotCfg, cfg)
	}
	if len(got) != len(frames) {
		t.Fatalf("got %d frames, want %d", len(got), len(frames))
	}
	for ti := range frames {
		for k := range frames[ti] {
			if d := math.Abs(got[ti][k] - frames[ti][k]); d > 1e-5 {
				t.Fatalf("frame %d band %d differs by %g", ti, k, d)
			}
		}
	}
}

func TestReadRejectsBandMismatch(t *testing.T) {
	cfg := mel.DefaultConfig()
	path := filepath.Join(t.TempDir(), "bad.mel.json")
	if err := WriteJSON(path, cfg, testFrames(2, 40)); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if _, _, err := Read(path); err == nil {
		t.Fatal("expected error for band count mismatch")
	}
}

func TestReadMissingDataFile(t *testing.T) {
	cfg := mel.DefaultConfig()
	cfg.NumMels = 8
	dir := t.TempDir()
	sidecar := filepath.Join(dir, "tone.mel.json")
	data := filepath.Join(dir, "tone.mel.f32")
	if err := WriteF32(sidecar, data, cfg, testFrames(3, 8)); err != nil {
		t.Fatalf("WriteF32: %v", err)
	}
	if err := os.Remove(data); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, _, err := Read(sidecar); err == nil {
		t.Fatal("expected error for missing data file")
	}
}

func TestReadMissingDocument(t *testing.T) {
	if _, _, err := Read(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing document")
	}
}
