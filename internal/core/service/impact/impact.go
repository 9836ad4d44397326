package impact

import (
	"math"

	"ecolink/internal/core/domain"
)

const bytesPerGiB = 1 << 30

// ScorePolicy sets how size, CO2 and duplicate status weigh into the 0-100 score
type ScorePolicy struct {
	// Base is the floor of a non-duplicate score; it keeps duplicates strictly lower even at zero size
	Base               float64
	SizeWeight         float64
	CO2Weight          float64
	SizeReferenceBytes int64
	CO2ReferenceG      float64
	DuplicateFactor    float64
}

// DefaultScorePolicy weighs size 60/40 against CO2, saturating at 1GiB and 1kg
func DefaultScorePolicy() ScorePolicy {
	return ScorePolicy{
		Base:               10,
		SizeWeight:         0.6,
		CO2Weight:          0.4,
		SizeReferenceBytes: bytesPerGiB,
		CO2ReferenceG:      1000,
		DuplicateFactor:    0.5,
	}
}

// Estimate maps a size and region constants to energy, carbon and score.
func Estimate(sizeBytes int64, duplicate bool, region domain.RegionConstants, policy ScorePolicy) domain.Impact {
	kwh := KWh(sizeBytes, region)
	co2 := kwh * region.CO2GPerKWh
	return domain.Impact{
		KWh:   kwh,
		CO2g:  co2,
		Score: Score(sizeBytes, co2, duplicate, policy),
	}
}

// KWh is size in GiB times the region's energy intensity
func KWh(sizeBytes int64, region domain.RegionConstants) float64 {
	if sizeBytes <= 0 {
		return 0
	}
	return float64(sizeBytes) / bytesPerGiB * region.KWhPerGB
}

// Score is the bounded composite. It is non-decreasing in sizeBytes and co2g.
func Score(sizeBytes int64, co2g float64, duplicate bool, policy ScorePolicy) int {
	composite := policy.SizeWeight*normalize(float64(sizeBytes), float64(policy.SizeReferenceBytes)) +
		policy.CO2Weight*normalize(co2g, policy.CO2ReferenceG)
	composite = clamp(composite, 0, 1)

	base := clamp(policy.Base, 0, 100)
	score := base + (100-base)*composite
	full := int(math.Round(clamp(score, 0, 100)))
	if !duplicate {
		return full
	}

	reduced := int(math.Round(clamp(score*clamp(policy.DuplicateFactor, 0, 1), 0, 100)))
	if full > 0 && reduced >= full {
		// rounding must not lift a duplicate back to its canonical's score
		reduced = full - 1
	}
	return reduced
}

func normalize(v, reference float64) float64 {
	if reference <= 0 || v <= 0 || math.IsNaN(v) {
		return 0
	}
	return clamp(v/reference, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
