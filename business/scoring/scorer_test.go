package scoring

import (
	"strings"
	"testing"

	"mmDiagnosis/business/budget"
	"mmDiagnosis/domain"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	wt, err := DefaultWeightTable()
	require.NoError(t, err)
	bands, err := budget.DefaultTable()
	require.NoError(t, err)
	s, err := NewScorer(wt, bands)
	require.NoError(t, err)
	return s
}

func assertSortedInRange(t *testing.T, p []domain.Provisional) {
	t.Helper()
	require.Len(t, p, len(domain.AllCategories()))
	for i, e := range p {
		assert.GreaterOrEqual(t, e.Score, 0.0)
		assert.LessOrEqual(t, e.Score, 1.0)
		if i == 0 {
			continue
		}
		prev := p[i-1]
		assert.GreaterOrEqual(t, prev.Score, e.Score)
		if prev.Score == e.Score {
			assert.Less(t, prev.Category.Index(), e.Category.Index(), "ties keep declaration order")
		}
	}
}

func TestScore_SideMidRolloverPrefersSideContour(t *testing.T) {
	s := newTestScorer(t)

	res := s.Score(domain.Answers{Posture: "side", Rollover: "mid"})

	assertSortedInRange(t, res.Provisional)
	assert.Equal(t, domain.CategorySideContour, res.Provisional[0].Category)
	assert.Equal(t, 1.0, res.Provisional[0].Score)
	assert.Contains(t, res.Provisional[0].Reasons, "side sleeper who turns over sometimes (+0.6)")
}

func TestScore_EmptyAnswersUsesBaseOnly(t *testing.T) {
	s := newTestScorer(t)

	res := s.Score(domain.Answers{})

	assertSortedInRange(t, res.Provisional)
	assert.Equal(t, domain.CategoryMidLoft, res.Provisional[0].Category)
	for _, p := range res.Provisional {
		for _, r := range p.Reasons {
			assert.True(t, strings.HasPrefix(r, "baseline fit"), "unexpected reason %q", r)
		}
	}

	// low-loft, high-loft, cooling... all tie at 0.05 and must follow declaration order
	var tied []domain.CategoryID
	for _, p := range res.Provisional {
		if p.Score == res.Provisional[len(res.Provisional)-1].Score {
			tied = append(tied, p.Category)
		}
	}
	assert.Equal(t, []domain.CategoryID{
		domain.CategoryLowLoft,
		domain.CategoryHighLoft,
		domain.CategoryCooling,
		domain.CategoryFirmSupport,
		domain.CategorySoftPlush,
		domain.CategoryNaturalFill,
	}, tied)
}

func TestScore_UnknownValuesContributeNothing(t *testing.T) {
	s := newTestScorer(t)

	base := s.Score(domain.Answers{})
	res := s.Score(domain.Answers{
		Posture:         "upside-down",
		HeatSensitivity: "volcanic",
		Budget:          "whatever",
		Extra:           map[string]any{"favourite_colour": "blue"},
	})

	assert.Equal(t, base.Provisional, res.Provisional)
}

func TestScore_MultiDimensionAnswers(t *testing.T) {
	s := newTestScorer(t)

	var answers domain.Answers
	require.NoError(t, json.Unmarshal([]byte(`{
		"posture": "back",
		"rollover": "low",
		"neck_shoulder_issues": ["neck_pain", "neck_pain", "headache"],
		"heat_sensitivity": "high",
		"material": "buckwheat",
		"budget": "12,000円"
	}`), &answers))

	res := s.Score(answers)

	assertSortedInRange(t, res.Provisional)
	assert.Equal(t, domain.CategoryBackContour, res.Provisional[0].Category)

	byCat := map[domain.CategoryID]domain.Provisional{}
	for _, p := range res.Provisional {
		byCat[p.Category] = p
	}
	assert.Contains(t, byCat[domain.CategoryCooling].Reasons, "sleeps hot (+0.5)")
	assert.Contains(t, byCat[domain.CategoryBackContour].Reasons, "budget 10,000 to 20,000 yen (+0.05)")

	neck := 0
	for _, r := range byCat[domain.CategoryBackContour].Reasons {
		if strings.HasPrefix(r, "neck pain") {
			neck++
		}
	}
	assert.Equal(t, 1, neck, "duplicate multi-select values count once")
}

func TestScore_InsightSummaryAndReasons(t *testing.T) {
	s := newTestScorer(t)

	res := s.Score(domain.Answers{
		Posture:            "side",
		Rollover:           "mid",
		NeckShoulderIssues: []string{"shoulder_pain", "stiff_shoulder"},
		Snoring:            "often",
		Adjustability:      "want",
	})

	assert.True(t, strings.HasPrefix(res.Insight.Summary, "Best matches: "))
	assert.Contains(t, res.Insight.Summary, domain.CategorySideContour.Label()+" (100%)")
	assert.LessOrEqual(t, len(res.Insight.Reasons), 6)

	seen := map[string]bool{}
	for _, r := range res.Insight.Reasons {
		assert.False(t, seen[r], "duplicate insight reason %q", r)
		seen[r] = true
	}
}

func TestScore_ExtraPosturesAddTheirOwnWeights(t *testing.T) {
	s := newTestScorer(t)

	res := s.Score(domain.Answers{Postures: []string{"stomach", "side"}})

	byCat := map[domain.CategoryID]domain.Provisional{}
	for _, p := range res.Provisional {
		byCat[p.Category] = p
	}
	assert.Contains(t, byCat[domain.CategoryLowLoft].Reasons, "sleeps on the stomach (+0.6)")
	assert.Contains(t, byCat[domain.CategorySideContour].Reasons, "sleeps on the side (+0.5)")
}

func TestLoadWeightTable_RejectsUnknownCategory(t *testing.T) {
	_, err := LoadWeightTable([]byte(`
weights:
  base:
    reason: b
    categories:
      mid-loft: 0.3
  snoring=often:
    reason: s
    categories:
      anti-snore-3000: 0.2
`))
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestLoadWeightTable_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  error
	}{
		{"missing base", "weights:\n  snoring=often: {reason: s, categories: {cooling: 0.1}}\n", ErrMissingBase},
		{"bad dimension", "weights:\n  base: {reason: b, categories: {cooling: 0.1}}\n  shoe=9: {reason: s, categories: {cooling: 0.1}}\n", ErrUnknownCondition},
		{"bad combo", "weights:\n  base: {reason: b, categories: {cooling: 0.1}}\n  posture=side|mood=ok: {reason: s, categories: {cooling: 0.1}}\n", ErrUnknownCondition},
		{"zero weight", "weights:\n  base: {reason: b, categories: {cooling: 0}}\n", ErrInvalidWeight},
		{"weight above one", "weights:\n  base: {reason: b, categories: {cooling: 1.5}}\n", ErrInvalidWeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWeightTable([]byte(tt.yaml))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNewScorer_RejectsUnknownBudgetBand(t *testing.T) {
	wt, err := LoadWeightTable([]byte("weights:\n  base: {reason: b, categories: {cooling: 0.1}}\n  budget=1m+: {reason: rich, categories: {cooling: 0.1}}\n"))
	require.NoError(t, err)
	bands, err := budget.DefaultTable()
	require.NoError(t, err)

	_, err = NewScorer(wt, bands)
	assert.ErrorIs(t, err, ErrUnknownBudget)
}

func TestTop(t *testing.T) {
	p := []domain.Provisional{{Category: domain.CategoryCooling}, {Category: domain.CategoryLowLoft}}

	assert.Len(t, Top(p, 1), 1)
	assert.Len(t, Top(p, 5), 2)
	assert.Empty(t, Top(p, -1))
}
