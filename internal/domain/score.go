package domain

// ─── Score Calculator ───────────────────────────────────────────────────────
// The scoring formula and band cut points are fixed and documented so a
// verifier can recompute both from the stored numeric score alone.

const (
	// FactorMin and FactorMax bound every submission factor.
	FactorMin = 0
	FactorMax = 100

	// ScoreMax caps the computed score.
	ScoreMax = 100

	// Formula weights: score = income×0.4 + guarantor×0.3 + history×0.2 + offset.
	WeightIncome    = 0.4
	WeightGuarantor = 0.3
	WeightHistory   = 0.2
	BaseOffset      = 10

	// Band cut points over the numeric score.
	ThresholdExcellent = 80
	ThresholdAverage   = 50
)

// ComputeScore maps a submission to its RentScore. Pure, deterministic,
// and total over the declared input domain: any factor outside
// [FactorMin, FactorMax] fails with ErrInvalidProfile.
func ComputeScore(s ScoreSubmission) (RentScore, error) {
	for _, f := range []int{s.Income, s.Guarantor, s.History} {
		if f < FactorMin || f > FactorMax {
			return RentScore{}, ErrInvalidProfile
		}
	}

	value := int(float64(s.Income)*WeightIncome +
		float64(s.Guarantor)*WeightGuarantor +
		float64(s.History)*WeightHistory +
		BaseOffset)
	if value > ScoreMax {
		value = ScoreMax
	}

	return RentScore{Value: value, Band: BandFor(value)}, nil
}

// BandFor returns the risk band for a numeric score.
func BandFor(score int) RiskBand {
	switch {
	case score >= ThresholdExcellent:
		return BandExcellent
	case score >= ThresholdAverage:
		return BandAverage
	default:
		return BandRisky
	}
}
