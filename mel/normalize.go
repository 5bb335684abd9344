package mel

import "math"

// magnitudeFloor keeps log compression finite on silent input.
const magnitudeFloor = 1e-5

// normalizer applies one of the normalization policies to a linear magnitude
// and inverts it for resynthesis. All constants are resolved at build time.
type normalizer struct {
	policy       Normalization
	minLevel     float64 // linear amplitude floor of the dB policy
	minLevelDB   float64
	refLevelDB   float64
	maxAbs       float64
	symmetric    bool
	rangeMapping bool
	clip         bool
}

func newNormalizer(cfg Config) normalizer {
	return normalizer{
		policy:       cfg.Normalization,
		minLevel:     math.Exp((cfg.MinLevelDB + cfg.RefLevelDB) / 20.0 * math.Ln10),
		minLevelDB:   cfg.MinLevelDB,
		refLevelDB:   cfg.RefLevelDB,
		maxAbs:       cfg.MaxAbsValue,
		symmetric:    cfg.SymmetricMels,
		rangeMapping: cfg.SignalNormalization,
		clip:         cfg.AllowClipping,
	}
}

// apply maps a linear magnitude into the feature domain. It never produces
// NaN or infinities; silence lands on the policy floor.
func (n normalizer) apply(v float64) float64 {
	switch n.policy {
	case NormDB:
		db := 20.0*math.Log10(math.Max(n.minLevel, v)) - n.refLevelDB
		if !n.rangeMapping {
			return db
		}
		s := (db - n.minLevelDB) / -n.minLevelDB
		if n.symmetric {
			s = 2.0*n.maxAbs*s - n.maxAbs
			if n.clip {
				s = clamp(s, -n.maxAbs, n.maxAbs)
			}
		} else {
			s = n.maxAbs * s
			if n.clip {
				s = clamp(s, 0, n.maxAbs)
			}
		}
		return s
	default:
		return math.Log(math.Max(magnitudeFloor, v))
	}
}

// invert maps a feature value back to a linear magnitude. Out-of-range
// values of a clipped policy are clamped first.
func (n normalizer) invert(v float64) float64 {
	switch n.policy {
	case NormDB:
		db := v
		if n.rangeMapping {
			var s float64
			if n.symmetric {
				s = (clamp(v, -n.maxAbs, n.maxAbs) + n.maxAbs) / (2.0 * n.maxAbs)
			} else {
				s = clamp(v, 0, n.maxAbs) / n.maxAbs
			}
			db = s*-n.minLevelDB + n.minLevelDB
		}
		return math.Pow(10, (db+n.refLevelDB)/20.0)
	default:
		return math.Exp(v)
	}
}

// floor returns the feature-domain value silence maps to.
func (n normalizer) floor() float64 {
	return n.apply(0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
