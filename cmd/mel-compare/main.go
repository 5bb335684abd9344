package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-mel/analysis"
	"github.com/cwbudde/algo-mel/internal/wavio"
	"github.com/cwbudde/algo-mel/stft"
)

func main() {
	referencePath := flag.String("reference", "", "Reference WAV path")
	candidatePath := flag.String("candidate", "", "Candidate WAV path")
	sampleRate := flag.Int("sample-rate", 0, "Analysis sample rate in Hz (0 uses the reference rate)")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	flag.Parse()

	if *referencePath == "" || *candidatePath == "" {
		die("pass both -reference and -candidate")
	}

	ref, refSR, err := wavio.ReadWAVMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	cand, candSR, err := wavio.ReadWAVMono(*candidatePath)
	if err != nil {
		die("failed to read candidate: %v", err)
	}

	sr := *sampleRate
	if sr == 0 {
		sr = refSR
	}
	ref, err = wavio.ResampleIfNeeded(ref, refSR, sr)
	if err != nil {
		die("failed to resample reference: %v", err)
	}
	cand, err = wavio.ResampleIfNeeded(cand, candSR, sr)
	if err != nil {
		die("failed to resample candidate: %v", err)
	}

	metrics := analysis.Compare(ref, cand, sr)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metrics); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}

	fmt.Printf("Reference: %d samples @ %d Hz (%.2fs)\n", len(ref), sr, float64(len(ref))/float64(sr))
	fmt.Printf("Candidate: %d samples @ %d Hz (%.2fs)\n", len(cand), sr, float64(len(cand))/float64(sr))
	fmt.Println()
	fmt.Printf("Aligned samples:  %d\n", metrics.AlignedSamples)
	fmt.Printf("Lag:              %d samples (%.3f ms)\n", metrics.LagSamples, 1000.0*float64(metrics.LagSamples)/float64(metrics.SampleRate))
	fmt.Println()
	fmt.Printf("Component        Raw          Norm   Weight  Contribution\n")
	fmt.Printf("─────────────────────────────────────────────────────────\n")
	printComp := func(name string, raw string, norm, weight float64, dominant bool) {
		contrib := norm * weight
		marker := ""
		if dominant {
			marker = " ◄"
		}
		fmt.Printf("%-16s %-12s %5.1f%%  ×%.2f   → %.4f%s\n", name, raw, norm*100, weight, contrib, marker)
	}
	printComp("Time RMSE", fmt.Sprintf("%.6f", metrics.TimeRMSE), metrics.TimeNorm, analysis.WeightTime, metrics.Dominant == "time")
	printComp("Envelope RMSE", fmt.Sprintf("%.1f dB", metrics.EnvelopeRMSEDB), metrics.EnvelopeNorm, analysis.WeightEnvelope, metrics.Dominant == "envelope")
	printComp("Spectral RMSE", fmt.Sprintf("%.1f dB", metrics.SpectralRMSEDB), metrics.SpectralNorm, analysis.WeightSpectral, metrics.Dominant == "spectral")
	printComp("Mel RMSE", fmt.Sprintf("%.4f", metrics.MelRMSE), metrics.MelNorm, analysis.WeightMel, metrics.Dominant == "mel")
	fmt.Printf("─────────────────────────────────────────────────────────\n")
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", metrics.Score)
	fmt.Printf("Similarity:       %.2f%%\n", metrics.Similarity*100.0)
	fmt.Printf("Dominant factor:  %s\n", metrics.Dominant)
	fmt.Println()

	printBandBreakdown(ref, cand, sr)
}

// printBandBreakdown averages bin magnitudes over the peak-aligned overlap
// and reports the dB error per frequency band.
func printBandBreakdown(ref, cand []float64, sr int) {
	refPeak, refPos := absPeak(ref)
	candPeak, candPos := absPeak(cand)
	if refPeak == 0 || candPeak == 0 {
		fmt.Println("Band breakdown skipped: silent input.")
		return
	}
	lag := candPos - refPos
	if lag > 0 && lag < len(cand) {
		cand = cand[lag:]
	} else if lag < 0 && -lag < len(ref) {
		ref = ref[-lag:]
	}

	n := len(ref)
	if len(cand) < n {
		n = len(cand)
	}
	fftSize := 4096
	for fftSize > n && fftSize > 256 {
		fftSize /= 2
	}
	if n < fftSize {
		fmt.Println("Band breakdown skipped: too little overlap.")
		return
	}

	st, err := stft.New(stft.Config{FFTSize: fftSize, HopSize: fftSize / 2, WinSize: fftSize})
	if err != nil {
		die("band analysis setup failed: %v", err)
	}
	magRef, err := st.Magnitude(ref[:n])
	if err != nil {
		die("band analysis failed: %v", err)
	}
	magCand, err := st.Magnitude(cand[:n])
	if err != nil {
		die("band analysis failed: %v", err)
	}
	frames := len(magRef)
	if len(magCand) < frames {
		frames = len(magCand)
	}
	if frames == 0 {
		fmt.Println("Band breakdown skipped: too little overlap.")
		return
	}

	nBins := fftSize / 2
	avgRef := make([]float64, nBins)
	avgCand := make([]float64, nBins)
	for t := 0; t < frames; t++ {
		for k := 1; k < nBins; k++ {
			avgRef[k] += magRef[t][k]
			avgCand[k] += magCand[t][k]
		}
	}
	scale := 1.0 / float64(frames)
	for k := range avgRef {
		avgRef[k] *= scale
		avgCand[k] *= scale
	}

	type band struct {
		name string
		loHz float64
		hiHz float64
	}
	bands := []band{
		{"sub-bass (20-100Hz)", 20, 100},
		{"bass (100-300Hz)", 100, 300},
		{"low-mid (300-1kHz)", 300, 1000},
		{"mid (1-3kHz)", 1000, 3000},
		{"hi-mid (3-6kHz)", 3000, 6000},
		{"high (6-12kHz)", 6000, 12000},
		{"air (12-20kHz)", 12000, 20000},
	}

	binHz := float64(sr) / float64(fftSize)
	fmt.Printf("--- band breakdown (lag %d samples, %d frames of %d) ---\n", lag, frames, fftSize)
	for _, b := range bands {
		loK := int(b.loHz / binHz)
		hiK := int(b.hiHz / binHz)
		if loK < 1 {
			loK = 1
		}
		if hiK >= nBins {
			hiK = nBins - 1
		}
		if loK > hiK {
			continue
		}

		var sumSq float64
		var refPow, candPow float64
		cnt := 0
		for k := loK; k <= hiK; k++ {
			rDB := 20 * math.Log10(math.Max(avgRef[k], 1e-12))
			cDB := 20 * math.Log10(math.Max(avgCand[k], 1e-12))
			d := rDB - cDB
			sumSq += d * d
			refPow += avgRef[k] * avgRef[k]
			candPow += avgCand[k] * avgCand[k]
			cnt++
		}
		rmseDB := math.Sqrt(sumSq / float64(cnt))
		refDB := 10 * math.Log10(math.Max(refPow/float64(cnt), 1e-24))
		candDB := 10 * math.Log10(math.Max(candPow/float64(cnt), 1e-24))
		diff := candDB - refDB
		marker := ""
		if rmseDB > 15 {
			marker = " <<<"
		}
		if rmseDB > 25 {
			marker = " <<< !!!"
		}
		fmt.Printf("  %-22s RMSE=%5.1fdB  ref=%6.1fdB  cand=%6.1fdB  diff=%+5.1fdB%s\n",
			b.name, rmseDB, refDB, candDB, diff, marker)
	}
}

func absPeak(x []float64) (float64, int) {
	peak := 0.0
	pos := 0
	for i, v := range x {
		if a := math.Abs(v); a > peak {
			peak = a
			pos = i
		}
	}
	return peak, pos
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
