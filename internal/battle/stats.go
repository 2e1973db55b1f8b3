package battle

const (
	MinStage = -6
	MaxStage = 6
)

// StageMultiplier converts a stat stage into a multiplier: (2+s)/2 for boosts,
// 2/(2-s) for drops, clamped to [-6, 6].
func StageMultiplier(stage int) float64 {
	stage = clampStage(stage)
	if stage >= 0 {
		return float64(2+stage) / 2
	}
	return 2 / float64(2-stage)
}

// AccuracyStageMultiplier is the accuracy/evasion variant: (3+s)/3 and 3/(3-s).
func AccuracyStageMultiplier(stage int) float64 {
	stage = clampStage(stage)
	if stage >= 0 {
		return float64(3+stage) / 3
	}
	return 3 / float64(3-stage)
}

func clampStage(s int) int {
	if s < MinStage {
		return MinStage
	}
	if s > MaxStage {
		return MaxStage
	}
	return s
}

// percentOf returns floor(amount*percent/100), at least 1 when amount > 0.
func percentOf(amount, percent int) int {
	if amount <= 0 {
		return 0
	}
	v := amount * percent / 100
	if v < 1 {
		v = 1
	}
	return v
}

// fractionOf returns floor(amount/div), at least 1 when amount > 0.
func fractionOf(amount, div int) int {
	if amount <= 0 {
		return 0
	}
	v := amount / div
	if v < 1 {
		v = 1
	}
	return v
}
