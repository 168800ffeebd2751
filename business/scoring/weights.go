package scoring

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"strings"

	"mmDiagnosis/domain"

	"gopkg.in/yaml.v3"
)

//go:embed weights.yaml
var defaultWeightsYAML []byte

var (
	ErrUnknownCategory  = errors.New("weight table references unknown category")
	ErrUnknownCondition = errors.New("weight table has malformed condition key")
	ErrInvalidWeight    = errors.New("weight must be a finite number in (0, 1]")
	ErrMissingBase      = errors.New("weight table has no base entry")
	ErrUnknownBudget    = errors.New("weight table references unknown budget band")
)

const BaseKey = "base"

// dimensions that may appear on the left of a condition key
var conditionDimensions = map[string]struct{}{
	"posture":              {},
	"neck_shoulder_issues": {},
	"snoring":              {},
	"morning_fatigue":      {},
	"heat_sensitivity":     {},
	"mattress_firmness":    {},
	"adjustability":        {},
	"material":             {},
	"size":                 {},
	"budget":               {},
}

// WeightEntry is what one satisfied condition adds to the accumulator.
type WeightEntry struct {
	Reason     string                        `yaml:"reason"`
	Categories map[domain.CategoryID]float64 `yaml:"categories"`
}

// WeightTable maps condition keys to weight entries. It is read once at
// startup and never modified.
type WeightTable struct {
	Version string                 `yaml:"version"`
	Weights map[string]WeightEntry `yaml:"weights"`
}

// DefaultWeightTable parses the embedded table.
func DefaultWeightTable() (*WeightTable, error) {
	return LoadWeightTable(defaultWeightsYAML)
}

// LoadWeightTable parses and validates a YAML weight table.
func LoadWeightTable(data []byte) (*WeightTable, error) {
	var wt WeightTable
	if err := yaml.Unmarshal(data, &wt); err != nil {
		return nil, fmt.Errorf("parse weight table: %w", err)
	}
	if err := wt.Validate(); err != nil {
		return nil, err
	}
	return &wt, nil
}

// Validate rejects unknown categories, malformed keys and out-of-range weights.
func (wt *WeightTable) Validate() error {
	if _, ok := wt.Weights[BaseKey]; !ok {
		return ErrMissingBase
	}

	for key, entry := range wt.Weights {
		if err := validateKey(key); err != nil {
			return err
		}
		for cat, w := range entry.Categories {
			if !cat.Valid() {
				return fmt.Errorf("%w: %q in %q", ErrUnknownCategory, cat, key)
			}
			if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 || w > 1 {
				return fmt.Errorf("%w: %s/%s = %v", ErrInvalidWeight, key, cat, w)
			}
		}
	}

	return nil
}

// BudgetKeys lists the band ids referenced by budget conditions.
func (wt *WeightTable) BudgetKeys() []string {
	var out []string
	for key := range wt.Weights {
		if id, ok := strings.CutPrefix(key, "budget="); ok {
			out = append(out, id)
		}
	}
	return out
}

func (wt *WeightTable) lookup(key string) (WeightEntry, bool) {
	e, ok := wt.Weights[key]
	return e, ok
}

func validateKey(key string) error {
	if key == BaseKey {
		return nil
	}

	// posture=<p>|rollover=<r>
	if posture, rollover, combo := strings.Cut(key, "|"); combo {
		p, okP := strings.CutPrefix(posture, "posture=")
		r, okR := strings.CutPrefix(rollover, "rollover=")
		if !okP || !okR || p == "" || r == "" {
			return fmt.Errorf("%w: %q", ErrUnknownCondition, key)
		}
		return nil
	}

	dim, value, ok := strings.Cut(key, "=")
	if !ok || value == "" {
		return fmt.Errorf("%w: %q", ErrUnknownCondition, key)
	}
	if _, known := conditionDimensions[dim]; !known {
		return fmt.Errorf("%w: %q", ErrUnknownCondition, key)
	}
	return nil
}

func conditionKey(dim, value string) string {
	return dim + "=" + value
}

func comboKey(posture, rollover string) string {
	return "posture=" + posture + "|rollover=" + rollover
}
