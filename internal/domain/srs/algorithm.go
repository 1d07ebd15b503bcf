package srs

import (
	"math"
	"math/rand/v2"

	"github.com/phrazzld/scry-fsrs/internal/domain"
)

// minStability keeps stability strictly positive once a card has been seen.
const minStability = 0.001

// stabilityEpsilon guards the retrievability curve against a zero stability.
const stabilityEpsilon = 0.01

// retrievability is the forgetting curve R(t, S) = exp(-t / S) with t and S
// in days.
func retrievability(elapsedDays, stability float64) float64 {
	if elapsedDays <= 0 {
		return 1
	}
	return math.Exp(-elapsedDays / math.Max(stability, stabilityEpsilon))
}

// intervalForRetention inverts the forgetting curve: the smallest t at
// which R(t, S) equals the desired retention.
func intervalForRetention(stability, desiredRetention float64) float64 {
	return -math.Max(stability, stabilityEpsilon) * math.Log(desiredRetention)
}

// initialStability seeds stability from the first rating: S0 = w[r-1].
func initialStability(w *[WeightCount]float64, r domain.Rating) float64 {
	return clampStability(w[r-1])
}

// initialDifficulty seeds difficulty from the first rating:
// D0 = w4 - e^(w5*(r-1)) + 1.
func initialDifficulty(w *[WeightCount]float64, r domain.Rating) float64 {
	return w[4] - math.Exp(w[5]*float64(r-1)) + 1
}

// shortTermStability applies a same-day review:
// S' = S * e^(w17*(r-3+w18)) * S^-w19, never decreasing on Good or Easy.
func shortTermStability(w *[WeightCount]float64, s float64, r domain.Rating) float64 {
	inc := math.Exp(w[17]*(float64(r)-3+w[18])) * math.Pow(s, -w[19])
	if r >= domain.RatingGood {
		inc = math.Max(inc, 1)
	}
	return clampStability(s * inc)
}

// nextDifficulty moves difficulty linearly toward the bound given by the
// rating, then reverts it toward the Easy seed by w7.
func nextDifficulty(w *[WeightCount]float64, d float64, r domain.Rating) float64 {
	delta := -w[6] * (float64(r) - 3)
	damped := d + (10-d)*delta/9
	reverted := w[7]*initialDifficulty(w, domain.RatingEasy) + (1-w[7])*damped
	return clampDifficulty(reverted)
}

// recallStability is the stability after a successful recall:
// S' = S * (1 + e^w8 * (11-D) * S^-w9 * (e^((1-R)*w10) - 1) * penalty * bonus)
// with the Hard penalty w15 and the Easy bonus w16.
func recallStability(w *[WeightCount]float64, d, s, r float64, rating domain.Rating) float64 {
	penalty, bonus := 1.0, 1.0
	switch rating {
	case domain.RatingHard:
		penalty = w[15]
	case domain.RatingEasy:
		bonus = w[16]
	}
	growth := math.Exp(w[8]) *
		(11 - d) *
		math.Pow(s, -w[9]) *
		(math.Exp((1-r)*w[10]) - 1) *
		penalty * bonus
	return clampStability(s * (1 + growth))
}

// forgetStability is the stability after a lapse. It never exceeds the
// pre-lapse stability:
// S' = min(w11 * D^-w12 * ((S+1)^w13 - 1) * e^((1-R)*w14), S / e^(w17*w18)).
func forgetStability(w *[WeightCount]float64, d, s, r float64) float64 {
	long := w[11] *
		math.Pow(d, -w[12]) *
		(math.Pow(s+1, w[13]) - 1) *
		math.Exp((1-r)*w[14])
	short := s / math.Exp(w[17]*w[18])
	return clampStability(math.Min(long, short))
}

func clampStability(s float64) float64 {
	return math.Max(s, minStability)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, domain.MinDifficulty), domain.MaxDifficulty)
}

type fuzzRange struct {
	start, end, factor float64
}

var fuzzRanges = []fuzzRange{
	{2.5, 7.0, 0.15},
	{7.0, 20.0, 0.10},
	{20.0, math.Inf(1), 0.05},
}

// fuzzDelta is the half-width of the jitter window for an interval.
func fuzzDelta(days float64) float64 {
	delta := 1.0
	for _, r := range fuzzRanges {
		delta += r.factor * math.Max(math.Min(days, r.end)-r.start, 0)
	}
	return delta
}

// fuzzDays jitters a whole-day interval within its window, staying inside
// [minDays, maxDays]. Intervals under 2.5 days are returned unchanged.
func fuzzDays(days, minDays, maxDays int, rng *rand.Rand) int {
	if float64(days) < 2.5 {
		return days
	}
	ivl := float64(days)
	delta := fuzzDelta(ivl)

	lo := max(minDays, 2, int(math.Round(ivl-delta)))
	hi := min(maxDays, int(math.Round(ivl+delta)))
	if lo > hi {
		lo = hi
	}
	return lo + rng.IntN(hi-lo+1)
}
