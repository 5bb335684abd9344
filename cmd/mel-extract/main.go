package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-mel/internal/featio"
	"github.com/cwbudde/algo-mel/internal/wavio"
	"github.com/cwbudde/algo-mel/mel"
	"github.com/cwbudde/algo-mel/preset"
)

func main() {
	inGlob := flag.String("in", "", "Input WAV glob, in addition to files given as arguments")
	presetPath := flag.String("preset", "", "Preset JSON path (empty uses the built-in defaults)")
	outDir := flag.String("out-dir", "out/mel", "Output directory")
	format := flag.String("format", "json", "Output format: json|f32")
	workersFlag := flag.String("workers", "auto", "Parallel workers (number or 'auto')")
	flag.Parse()

	cfg := mel.DefaultConfig()
	if *presetPath != "" {
		var err error
		cfg, err = preset.LoadJSON(*presetPath)
		if err != nil {
			die("failed to load preset: %v", err)
		}
	}
	if *format != "json" && *format != "f32" {
		die("invalid -format %q (use json or f32)", *format)
	}

	inputs := append([]string(nil), flag.Args()...)
	if *inGlob != "" {
		matches, err := filepath.Glob(*inGlob)
		if err != nil {
			die("invalid -in pattern: %v", err)
		}
		inputs = append(inputs, matches...)
	}
	sort.Strings(inputs)
	inputs = dedupe(inputs)
	if len(inputs) == 0 {
		die("no input files (pass WAV paths or -in glob)")
	}

	workers, err := wavio.ParseWorkers(*workersFlag)
	if err != nil {
		die("invalid workers value: %v", err)
	}
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}
	if workers < 1 {
		workers = 1
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		die("failed to create output directory: %v", err)
	}
	if err := preset.SaveJSON(filepath.Join(*outDir, "preset.json"), cfg); err != nil {
		die("failed to write effective preset: %v", err)
	}

	cache := mel.NewBasisCache()
	extractors := make([]*mel.Extractor, workers)
	for i := range extractors {
		e, err := mel.NewExtractor(cfg, mel.WithBasisCache(cache))
		if err != nil {
			die("invalid configuration: %v", err)
		}
		extractors[i] = e
	}

	fmt.Printf("Extracting %d file(s) with %d worker(s) -> %s (%s)\n",
		len(inputs), workers, *outDir, *format)
	start := time.Now()

	jobs := make(chan string)
	var done, failed int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(e *mel.Extractor) {
			defer wg.Done()
			for path := range jobs {
				frames, err := processFile(e, path, *outDir, *format)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
					continue
				}
				n := atomic.AddInt64(&done, 1)
				fmt.Printf("[%d/%d] %s (%d frames)\n", n, len(inputs), filepath.Base(path), frames)
			}
		}(extractors[i])
	}
	for _, path := range inputs {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	fmt.Printf("Done: %d ok, %d failed in %.2fs\n", done, failed, time.Since(start).Seconds())
	if failed > 0 {
		os.Exit(1)
	}
}

func processFile(e *mel.Extractor, path string, outDir string, format string) (int, error) {
	x, rate, err := wavio.ReadWAVMono(path)
	if err != nil {
		return 0, err
	}
	cfg := e.Config()
	x, err = wavio.ResampleIfNeeded(x, rate, cfg.SampleRate)
	if err != nil {
		return 0, err
	}
	frames, err := e.MelSpectrogram(x)
	if err != nil {
		return 0, err
	}
	if len(frames) == 0 {
		return 0, fmt.Errorf("shorter than one analysis window (%d samples)", len(x))
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sidecar := filepath.Join(outDir, base+".mel.json")
	if format == "f32" {
		return len(frames), featio.WriteF32(sidecar, filepath.Join(outDir, base+".mel.f32"), cfg, frames)
	}
	return len(frames), featio.WriteJSON(sidecar, cfg, frames)
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, p := range sorted {
		if i == 0 || p != sorted[i-1] {
			out = append(out, p)
		}
	}
	return out
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
