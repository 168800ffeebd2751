package clarify

import (
	"fmt"
	"math"
	"strconv"

	"mmDiagnosis/business/scoring"
	"mmDiagnosis/domain"
)

const minNormalizer = 0.001

// Reconcile applies the chosen option's deltas to a copy of provisional,
// renormalizes and re-sorts it. An unknown choice returns an unchanged copy.
// The input slice is never modified.
func Reconcile(provisional []domain.Provisional, question domain.ClarifyingQuestion, choiceID string) []domain.Provisional {
	out := cloneProvisional(provisional)

	choice, ok := question.Choice(choiceID)
	if !ok {
		return out
	}

	// 1) bounded additive adjustment
	for i := range out {
		d, hit := choice.Delta[out[i].Category]
		if !hit || d == 0 {
			continue
		}
		out[i].Score = clamp01(out[i].Score + d)
		out[i].Reasons = append(out[i].Reasons, fmt.Sprintf("%s (%s)", choice.Label, signed(d)))
	}

	// 2) renormalize against the new leader
	maxScore := minNormalizer
	for _, p := range out {
		if p.Score > maxScore {
			maxScore = p.Score
		}
	}
	for i := range out {
		out[i].Score = clamp01(out[i].Score / maxScore)
	}

	// 3) re-sort
	scoring.SortProvisional(out)

	return out
}

func cloneProvisional(in []domain.Provisional) []domain.Provisional {
	out := make([]domain.Provisional, len(in))
	for i, p := range in {
		out[i] = p
		if p.Reasons != nil {
			out[i].Reasons = make([]string, len(p.Reasons))
			copy(out[i].Reasons, p.Reasons)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func signed(d float64) string {
	s := strconv.FormatFloat(d, 'f', -1, 64)
	if d > 0 {
		return "+" + s
	}
	return s
}
