package scoring

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"mmDiagnosis/business/budget"
	"mmDiagnosis/domain"
)

const (
	summaryTopN     = 3
	maxInsightLines = 6
	minNormalizer   = 0.001
)

// Scorer turns answers into a ranked category list. It holds only
// immutable configuration and is safe for concurrent use.
type Scorer struct {
	weights *WeightTable
	bands   *budget.Table
}

// NewScorer checks that every budget condition in weights names a band in
// bands. A nil bands disables budget conditions.
func NewScorer(weights *WeightTable, bands *budget.Table) (*Scorer, error) {
	if weights == nil {
		return nil, ErrMissingBase
	}
	if bands != nil {
		for _, id := range weights.BudgetKeys() {
			if _, ok := bands.ByID(id); !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownBudget, id)
			}
		}
	}
	return &Scorer{weights: weights, bands: bands}, nil
}

type accumulator struct {
	raw     map[domain.CategoryID]float64
	reasons map[domain.CategoryID][]string
}

func (a *accumulator) add(entry WeightEntry) {
	// category order keeps provenance deterministic
	for _, cat := range domain.AllCategories() {
		w, ok := entry.Categories[cat]
		if !ok {
			continue
		}
		a.raw[cat] += w
		a.reasons[cat] = append(a.reasons[cat], fmt.Sprintf("%s (+%s)", entry.Reason, formatWeight(w)))
	}
}

// Score applies every satisfied condition to the accumulator, normalizes
// by the largest raw score and sorts descending.
func (s *Scorer) Score(answers domain.Answers) domain.ScoreResult {
	acc := &accumulator{
		raw:     make(map[domain.CategoryID]float64),
		reasons: make(map[domain.CategoryID][]string),
	}

	for _, key := range s.conditions(answers) {
		if entry, ok := s.weights.lookup(key); ok {
			acc.add(entry)
		}
	}

	provisional := normalize(acc)

	return domain.ScoreResult{
		Provisional: provisional,
		Insight:     buildInsight(provisional),
	}
}

// conditions lists the weight-table keys satisfied by answers, in the order
// they are applied.
func (s *Scorer) conditions(a domain.Answers) []string {
	keys := []string{BaseKey}

	// 1) posture x rollover, falling back to posture alone
	postures := a.AllPostures()
	if len(postures) > 0 {
		primary := postures[0]
		combo := comboKey(primary, a.Rollover)
		if _, ok := s.weights.lookup(combo); ok && a.Rollover != "" {
			keys = append(keys, combo)
		} else {
			keys = append(keys, conditionKey("posture", primary))
		}
		for _, p := range postures[1:] {
			keys = append(keys, conditionKey("posture", p))
		}
	}

	// 2) each neck/shoulder issue
	seen := make(map[string]struct{}, len(a.NeckShoulderIssues))
	for _, issue := range a.NeckShoulderIssues {
		if _, dup := seen[issue]; dup {
			continue
		}
		seen[issue] = struct{}{}
		keys = append(keys, conditionKey("neck_shoulder_issues", issue))
	}

	// 3) single-select comfort and preference signals
	singles := []struct{ dim, value string }{
		{"snoring", a.Snoring},
		{"morning_fatigue", a.MorningFatigue},
		{"heat_sensitivity", a.HeatSensitivity},
		{"mattress_firmness", a.MattressFirmness},
		{"adjustability", a.Adjustability},
		{"material", a.Material},
		{"size", a.Size},
	}
	for _, sv := range singles {
		if sv.value != "" {
			keys = append(keys, conditionKey(sv.dim, sv.value))
		}
	}

	// 4) resolved budget band
	if s.bands != nil && a.Budget != "" {
		if band, ok := s.bands.Resolve(a.Budget); ok {
			keys = append(keys, conditionKey("budget", band.ID))
		}
	}

	return keys
}

func normalize(acc *accumulator) []domain.Provisional {
	maxRaw := minNormalizer
	for _, v := range acc.raw {
		if v > maxRaw {
			maxRaw = v
		}
	}

	cats := domain.AllCategories()
	out := make([]domain.Provisional, 0, len(cats))
	for _, cat := range cats {
		reasons := acc.reasons[cat]
		if reasons == nil {
			reasons = []string{}
		}
		out = append(out, domain.Provisional{
			Category: cat,
			Score:    clamp01(acc.raw[cat] / maxRaw),
			Reasons:  reasons,
		})
	}

	SortProvisional(out)
	return out
}

// SortProvisional orders by descending score; equal scores keep category
// declaration order.
func SortProvisional(p []domain.Provisional) {
	sort.SliceStable(p, func(i, j int) bool {
		if p[i].Score != p[j].Score {
			return p[i].Score > p[j].Score
		}
		return p[i].Category.Index() < p[j].Category.Index()
	})
}

// Top returns at most n leading entries.
func Top(p []domain.Provisional, n int) []domain.Provisional {
	if n < 0 {
		n = 0
	}
	if len(p) < n {
		n = len(p)
	}
	return p[:n]
}

func buildInsight(p []domain.Provisional) domain.Insight {
	top := Top(p, summaryTopN)
	if len(top) == 0 {
		return domain.Insight{Reasons: []string{}}
	}

	parts := make([]string, 0, len(top))
	for _, e := range top {
		parts = append(parts, fmt.Sprintf("%s (%d%%)", e.Category.Label(), int(math.Round(e.Score*100))))
	}
	summary := "Best matches: " + strings.Join(parts, ", ") + "."

	seen := make(map[string]struct{})
	reasons := make([]string, 0, maxInsightLines)
	for _, e := range top {
		for _, r := range e.Reasons {
			if len(reasons) == maxInsightLines {
				break
			}
			if _, dup := seen[r]; dup {
				continue
			}
			seen[r] = struct{}{}
			reasons = append(reasons, r)
		}
	}

	return domain.Insight{Summary: summary, Reasons: reasons}
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

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}
