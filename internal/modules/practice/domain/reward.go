package domain

type Reward struct {
	Natural          bool
	TargetMinutes    int
	CompletedMinutes int
	KarmaAvailable   int
	KarmaAwarded     int
}

// Fraction is completed/target clamped to [0, 1].
func (r Reward) Fraction() float64 {
	if r.TargetMinutes <= 0 {
		return 0
	}
	f := float64(r.CompletedMinutes) / float64(r.TargetMinutes)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// CompletedMinutes counts whole minutes finished; a partially elapsed minute
// does not count.
func CompletedMinutes(targetMinutes, remainingSeconds int) int {
	if remainingSeconds < 0 {
		remainingSeconds = 0
	}
	completed := targetMinutes - (remainingSeconds+59)/60
	if completed < 0 {
		return 0
	}
	if completed > targetMinutes {
		return targetMinutes
	}
	return completed
}

func ComputeReward(karmaPoints, targetMinutes, remainingSeconds int, natural bool) Reward {
	if karmaPoints < 0 {
		karmaPoints = 0
	}
	r := Reward{Natural: natural, TargetMinutes: targetMinutes, KarmaAvailable: karmaPoints}
	if targetMinutes <= 0 {
		return r
	}
	if natural {
		r.CompletedMinutes = targetMinutes
		r.KarmaAwarded = karmaPoints
		return r
	}
	r.CompletedMinutes = CompletedMinutes(targetMinutes, remainingSeconds)
	if r.CompletedMinutes <= 0 {
		return r
	}
	r.KarmaAwarded = r.CompletedMinutes * karmaPoints / targetMinutes
	return r
}
