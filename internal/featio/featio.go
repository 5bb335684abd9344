// Package featio reads and writes extracted feature files.
package featio

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-mel/mel"
	"github.com/cwbudde/algo-mel/preset"
)

// Document is the JSON schema for stored mel features. Small runs embed the
// frames directly; large runs point at a raw little-endian float32 file and
// record its shape.
type Document struct {
	Config preset.File `json:"config"`

	Frames [][]float64 `json:"frames,omitempty"`

	FrameCount int    `json:"frame_count,omitempty"`
	Bands      int    `json:"bands,omitempty"`
	DataFile   string `json:"data_file,omitempty"`
}

// WriteJSON stores the configuration and frames as a single JSON document.
func WriteJSON(path string, cfg mel.Config, frames [][]float64) error {
	doc := Document{Config: preset.FromConfig(cfg), Frames: frames}
	b, err := json.Marshal(&doc)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}

// WriteF32 stores the frames as raw little-endian float32 values next to a
// JSON sidecar describing the shape and configuration.
func WriteF32(sidecarPath, dataPath string, cfg mel.Config, frames [][]float64) error {
	bands := 0
	if len(frames) > 0 {
		bands = len(frames[0])
	}

	f, err := os.Create(dataPath)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	row32 := make([]float32, bands)
	for t, row := range frames {
		if len(row) != bands {
			f.Close()
			return fmt.Errorf("frame %d has %d values, want %d", t, len(row), bands)
		}
		for i, v := range row {
			row32[i] = float32(v)
		}
		if err := binary.Write(w, binary.LittleEndian, row32); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	doc := Document{
		Config:     preset.FromConfig(cfg),
		FrameCount: len(frames),
		Bands:      bands,
		DataFile:   filepath.Base(dataPath),
	}
	b, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(sidecarPath, b, 0o644)
}

// Read loads a feature document written by WriteJSON or WriteF32. A relative
// data file resolves against the document directory.
func Read(path string) (mel.Config, [][]float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return mel.DefaultConfig(), nil, err
	}
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return mel.DefaultConfig(), nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg, err := preset.ToConfig(&doc.Config)
	if err != nil {
		return cfg, nil, err
	}

	if doc.DataFile == "" {
		for t, row := range doc.Frames {
			if len(row) != cfg.NumMels {
				return cfg, nil, fmt.Errorf("frame %d has %d bands, want %d", t, len(row), cfg.NumMels)
			}
		}
		return cfg, doc.Frames, nil
	}

	if doc.FrameCount == 0 {
		return cfg, nil, nil
	}
	if doc.Bands != cfg.NumMels {
		return cfg, nil, fmt.Errorf("data file has %d bands, config wants %d", doc.Bands, cfg.NumMels)
	}
	dataPath := doc.DataFile
	if !filepath.IsAbs(dataPath) {
		dataPath = filepath.Join(filepath.Dir(path), dataPath)
	}
	raw, err := os.ReadFile(dataPath)
	if err != nil {
		return cfg, nil, err
	}
	if want := doc.FrameCount * doc.Bands * 4; len(raw) != want {
		return cfg, nil, fmt.Errorf("%s holds %d bytes, want %d", dataPath, len(raw), want)
	}

	frames := make([][]float64, doc.FrameCount)
	off := 0
	for t := range frames {
		row := make([]float64, doc.Bands)
		for k := range row {
			row[k] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[off:])))
			off += 4
		}
		frames[t] = row
	}
	return cfg, frames, nil
}
