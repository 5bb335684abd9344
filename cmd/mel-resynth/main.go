package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cwbudde/algo-mel/griffinlim"
	"github.com/cwbudde/algo-mel/internal/featio"
	"github.com/cwbudde/algo-mel/internal/wavio"
	"github.com/cwbudde/algo-mel/mel"
	"github.com/cwbudde/algo-mel/preset"
)

func main() {
	inPath := flag.String("in", "", "Feature document to invert (.mel.json)")
	wavPath := flag.String("wav", "", "WAV to round-trip through features instead of -in")
	outPath := flag.String("out", "out/resynth.wav", "Output WAV path")
	presetPath := flag.String("preset", "", "Preset JSON path, -wav mode only (empty uses the built-in defaults)")
	iters := flag.Int("iters", -1, "Griffin-Lim iterations (-1 keeps the configured count)")
	seed := flag.Int64("seed", 1, "Random seed for the initial phases")
	power := flag.Float64("power", 0, "Magnitude exponent (<= 0 keeps the configured value)")
	flag.Parse()

	if (*inPath == "") == (*wavPath == "") {
		die("pass exactly one of -in or -wav")
	}
	if *presetPath != "" && *inPath != "" {
		die("-preset only applies with -wav; feature documents carry their own configuration")
	}

	var (
		cfg    mel.Config
		frames [][]float64
		err    error
	)
	switch {
	case *inPath != "":
		cfg, frames, err = featio.Read(*inPath)
		if err != nil {
			die("failed to read features: %v", err)
		}
	default:
		cfg = mel.DefaultConfig()
		if *presetPath != "" {
			cfg, err = preset.LoadJSON(*presetPath)
			if err != nil {
				die("failed to load preset: %v", err)
			}
		}
		frames, err = extractFromWAV(*wavPath, cfg)
		if err != nil {
			die("%s: %v", *wavPath, err)
		}
	}
	if len(frames) == 0 {
		die("no feature frames to invert")
	}

	e, err := mel.NewExtractor(cfg)
	if err != nil {
		die("invalid configuration: %v", err)
	}
	linear, err := e.MelToLinear(frames)
	if err != nil {
		die("failed to project features back to the linear spectrum: %v", err)
	}

	gcfg := griffinlim.Config{
		Iterations: cfg.GriffinLimIters,
		Power:      cfg.Power,
		Seed:       *seed,
		STFT:       cfg.STFTConfig(),
	}
	if *iters >= 0 {
		gcfg.Iterations = *iters
	}
	if *power > 0 {
		gcfg.Power = *power
	}
	r, err := griffinlim.New(gcfg)
	if err != nil {
		die("invalid reconstruction settings: %v", err)
	}

	start := time.Now()
	wav, err := r.Reconstruct(linear)
	if err != nil {
		die("reconstruction failed: %v", err)
	}
	if cfg.Preemphasize {
		wav = mel.InversePreemphasis(wav, cfg.Preemphasis)
	}

	data := make([]float32, len(wav))
	for i, v := range wav {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		data[i] = float32(v)
	}
	if err := wavio.WriteMonoWAV(*outPath, data, cfg.SampleRate); err != nil {
		die("failed to write %s: %v", *outPath, err)
	}

	seconds := float64(len(data)) / float64(cfg.SampleRate)
	fmt.Printf("Wrote %s: %d frames -> %d samples (%.2fs audio, %d iterations, %.2fs elapsed)\n",
		*outPath, len(frames), len(data), seconds, gcfg.Iterations, time.Since(start).Seconds())
}

func extractFromWAV(path string, cfg mel.Config) ([][]float64, error) {
	x, rate, err := wavio.ReadWAVMono(path)
	if err != nil {
		return nil, err
	}
	x, err = wavio.ResampleIfNeeded(x, rate, cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	e, err := mel.NewExtractor(cfg)
	if err != nil {
		return nil, err
	}
	return e.MelSpectrogram(x)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
