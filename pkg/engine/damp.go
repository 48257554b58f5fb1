package engine

import "math"

// dampLadder maps the in-thread occurrence rank of a rule ID to its
// weight multiplier. Rank 6 and beyond floors at 0.35: repetition of
// one cheap keyword must not dominate the thread score.
var dampLadder = [5]float64{1.00, 0.85, 0.70, 0.55, 0.45}

const dampFloor = 0.35

// dampMultiplier returns the multiplier for the rank-th occurrence
// (1-based) of a rule ID.
func dampMultiplier(rank int) float64 {
	if rank <= 0 {
		rank = 1
	}
	if rank <= len(dampLadder) {
		return dampLadder[rank-1]
	}
	return dampFloor
}

// Dampen applies diminishing returns to repeated same-rule hits, in
// input order, rounding each dampened weight to 2 decimals. Returns a
// new slice; the input is not modified.
func Dampen(hits []Hit) []Hit {
	counts := make(map[string]int, len(hits))
	out := make([]Hit, len(hits))
	for i, h := range hits {
		counts[h.RuleID]++
		h.Weight = round2(h.Weight * dampMultiplier(counts[h.RuleID]))
		out[i] = h
	}
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
