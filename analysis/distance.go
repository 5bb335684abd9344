// Package analysis measures how closely a resynthesized signal matches its
// reference recording.
package analysis

import (
	"math"

	"github.com/cwbudde/algo-mel/mel"
	"github.com/cwbudde/algo-mel/stft"
)

// Weights of the sub-metrics in the combined score.
const (
	WeightTime     = 0.25
	WeightEnvelope = 0.20
	WeightSpectral = 0.30
	WeightMel      = 0.25
)

// Metrics contains distance and similarity measurements between two audio signals.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceSamples int `json:"reference_samples"`
	CandidateSamples int `json:"candidate_samples"`
	AlignedSamples   int `json:"aligned_samples"`
	LagSamples       int `json:"lag_samples"`

	TimeRMSE       float64 `json:"time_rmse"`
	EnvelopeRMSEDB float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB float64 `json:"spectral_rmse_db"`
	MelRMSE        float64 `json:"mel_rmse"`

	TimeNorm     float64 `json:"time_norm"`
	EnvelopeNorm float64 `json:"envelope_norm"`
	SpectralNorm float64 `json:"spectral_norm"`
	MelNorm      float64 `json:"mel_norm"`
	Dominant     string  `json:"dominant"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

// Compare returns objective distance metrics and a combined score in [0,1].
// Degenerate inputs score as maximally distant instead of failing.
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:       sampleRate,
		ReferenceSamples: len(reference),
		CandidateSamples: len(candidate),
	}
	if sampleRate <= 0 || len(reference) == 0 || len(candidate) == 0 {
		m.Score = 1.0
		m.Similarity = 0.0
		return m
	}

	ref := trimLeadingSilence(reference, 1e-6)
	cand := trimLeadingSilence(candidate, 1e-6)
	if len(ref) == 0 || len(cand) == 0 {
		m.Score = 1.0
		m.Similarity = 0.0
		return m
	}

	ref = normalizeRMS(ref, 0.1)
	cand = normalizeRMS(cand, 0.1)

	maxLag := sampleRate / 2
	if maxLag < 1 {
		maxLag = 1
	}
	if maxLag > len(ref)-1 {
		maxLag = len(ref) - 1
	}
	if maxLag > len(cand)-1 {
		maxLag = len(cand) - 1
	}
	if maxLag < 1 {
		maxLag = 1
	}
	lag := estimateLag(ref, cand, maxLag)
	m.LagSamples = lag

	refA, candA := alignByLag(ref, cand, lag)
	n := len(refA)
	if len(candA) < n {
		n = len(candA)
	}
	if n < 256 {
		m.Score = 1.0
		m.Similarity = 0.0
		return m
	}
	maxSamples := sampleRate * 12
	if maxSamples > 0 && n > maxSamples {
		n = maxSamples
	}
	refA = refA[:n]
	candA = candA[:n]
	m.AlignedSamples = n

	m.TimeRMSE = rmse(refA, candA)

	refEnv := rmsEnvelope(refA, 256, 128)
	candEnv := rmsEnvelope(candA, 256, 128)
	envN := len(refEnv)
	if len(candEnv) < envN {
		envN = len(candEnv)
	}
	if envN > 0 {
		envDiff := make([]float64, envN)
		for i := 0; i < envN; i++ {
			r := linToDB(refEnv[i])
			c := linToDB(candEnv[i])
			envDiff[i] = r - c
		}
		m.EnvelopeRMSEDB = rms1(envDiff)
	}

	m.SpectralRMSEDB = spectralRMSEDB(refA, candA)
	m.MelRMSE = melRMSE(refA, candA, sampleRate)

	// Normalize sub-metrics and combine.
	m.TimeNorm = clamp01(m.TimeRMSE / 0.25)
	m.EnvelopeNorm = clamp01(m.EnvelopeRMSEDB / 30.0)
	m.SpectralNorm = clamp01(m.SpectralRMSEDB / 30.0)
	m.MelNorm = clamp01(m.MelRMSE / 8.0)
	m.Score = clamp01(WeightTime*m.TimeNorm + WeightEnvelope*m.EnvelopeNorm +
		WeightSpectral*m.SpectralNorm + WeightMel*m.MelNorm)
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))

	m.Dominant = "time"
	best := WeightTime * m.TimeNorm
	if c := WeightEnvelope * m.EnvelopeNorm; c > best {
		m.Dominant = "envelope"
		best = c
	}
	if c := WeightSpectral * m.SpectralNorm; c > best {
		m.Dominant = "spectral"
		best = c
	}
	if c := WeightMel * m.MelNorm; c > best {
		m.Dominant = "mel"
	}

	return m
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i := 0; i < len(x); i++ {
		if math.Abs(x[i]) > threshold {
			return x[i:]
		}
	}
	return nil
}

func normalizeRMS(x []float64, target float64) []float64 {
	if len(x) == 0 {
		return x
	}
	r := rms1(x)
	if r <= 1e-12 {
		return append([]float64(nil), x...)
	}
	g := target / r
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] * g
	}
	return out
}

func estimateLag(ref []float64, cand []float64, maxLag int) int {
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	step := 2
	if len(ref) > 200000 || len(cand) > 200000 {
		step = 4
	}
	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		s := dotAtLag(ref, cand, lag, step)
		if s > best {
			best = s
			bestLag = lag
		}
	}
	return bestLag
}

func dotAtLag(a []float64, b []float64, lag int, step int) float64 {
	var ai, bi int
	if lag >= 0 {
		ai = lag
		bi = 0
	} else {
		ai = 0
		bi = -lag
	}
	n := len(a) - ai
	if len(b)-bi < n {
		n = len(b) - bi
	}
	if n <= 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i += step {
		sum += a[ai+i] * b[bi+i]
	}
	return sum
}

func alignByLag(ref []float64, cand []float64, lag int) ([]float64, []float64) {
	if lag >= 0 {
		if lag >= len(ref) {
			return nil, nil
		}
		return ref[lag:], cand
	}
	o := -lag
	if o >= len(cand) {
		return nil, nil
	}
	return ref, cand[o:]
}

func rmse(a []float64, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

func rms1(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func rmsEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * hop
		out[i] = rms1(x[start : start+frame])
	}
	return out
}

// spectralRMSEDB measures the frame-by-frame log-magnitude distance of the
// two signals under a common short-time transform. Signals shorter than one
// analysis window contribute nothing.
func spectralRMSEDB(a []float64, b []float64) float64 {
	st, err := stft.New(stft.DefaultConfig())
	if err != nil {
		return 0
	}
	ma, err := st.Magnitude(a)
	if err != nil || len(ma) == 0 {
		return 0
	}
	mb, err := st.Magnitude(b)
	if err != nil || len(mb) == 0 {
		return 0
	}
	frames := len(ma)
	if len(mb) < frames {
		frames = len(mb)
	}
	var sum float64
	var n int
	for t := 0; t < frames; t++ {
		for k := range ma[t] {
			d := linToDB(ma[t][k]) - linToDB(mb[t][k])
			sum += d * d
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

// melRMSE measures the distance between the log-mel features of the two
// signals. Broadband perceptual errors weigh more here than in the bin-level
// spectral measure.
func melRMSE(a []float64, b []float64, sampleRate int) float64 {
	cfg := mel.DefaultConfig()
	cfg.SampleRate = sampleRate
	if nyquist := float64(sampleRate) / 2; cfg.FMax > nyquist {
		cfg.FMax = nyquist
	}
	e, err := mel.NewExtractor(cfg)
	if err != nil {
		return 0
	}
	fa, err := e.MelSpectrogram(a)
	if err != nil || len(fa) == 0 {
		return 0
	}
	fb, err := e.MelSpectrogram(b)
	if err != nil || len(fb) == 0 {
		return 0
	}
	frames := len(fa)
	if len(fb) < frames {
		frames = len(fb)
	}
	var sum float64
	var n int
	for t := 0; t < frames; t++ {
		for k := range fa[t] {
			d := fa[t][k] - fb[t][k]
			sum += d * d
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
