package clarify

import (
	_ "embed"
	"errors"
	"fmt"
	"math"

	"mmDiagnosis/domain"

	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var defaultRulesYAML []byte

// Wildcard matches any category in a rule pair.
const Wildcard domain.CategoryID = "*"

const (
	defaultMarginThreshold = 0.2
	marginEpsilon          = 1e-9
	maxDelta               = 1.0
)

var (
	ErrUnknownCategory = errors.New("question rule references unknown category")
	ErrInvalidRule     = errors.New("invalid question rule")
)

type Config struct {
	// top-1 minus top-2 at or above this skips the follow-up question
	MarginThreshold float64
}

func DefaultConfig() Config {
	return Config{MarginThreshold: defaultMarginThreshold}
}

// Rule ties a follow-up question to the category pairs it separates.
type Rule struct {
	Pairs    [][]domain.CategoryID     `yaml:"pairs"`
	Question domain.ClarifyingQuestion `yaml:"question"`
}

func (r Rule) wildcard() bool {
	for _, p := range r.Pairs {
		if p[0] == Wildcard || p[1] == Wildcard {
			return true
		}
	}
	return false
}

func (r Rule) matches(a, b domain.CategoryID) bool {
	for _, p := range r.Pairs {
		if pairMatches(p, a, b) || pairMatches(p, b, a) {
			return true
		}
	}
	return false
}

func pairMatches(p []domain.CategoryID, a, b domain.CategoryID) bool {
	return (p[0] == Wildcard || p[0] == a) && (p[1] == Wildcard || p[1] == b)
}

// Selector decides whether the leading categories are close enough to need
// a follow-up question and which one separates them. Rules are immutable
// after construction.
type Selector struct {
	cfg   Config
	rules []Rule
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules parses and validates a YAML rule set.
func LoadRules(data []byte) ([]Rule, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse question rules: %w", err)
	}
	if err := validateRules(f.Rules); err != nil {
		return nil, err
	}
	return f.Rules, nil
}

func validateRules(rules []Rule) error {
	ids := make(map[string]struct{}, len(rules))
	for i, r := range rules {
		q := r.Question
		if q.ID == "" || len(q.Choices) == 0 || len(r.Pairs) == 0 {
			return fmt.Errorf("%w: rule %d needs a question id, choices and pairs", ErrInvalidRule, i)
		}
		if _, dup := ids[q.ID]; dup {
			return fmt.Errorf("%w: duplicate question %s", ErrInvalidRule, q.ID)
		}
		ids[q.ID] = struct{}{}

		for _, p := range r.Pairs {
			if len(p) != 2 {
				return fmt.Errorf("%w: %s has a pair without exactly two categories", ErrInvalidRule, q.ID)
			}
			if p[0] == Wildcard && p[1] == Wildcard {
				return fmt.Errorf("%w: %s pairs two wildcards", ErrInvalidRule, q.ID)
			}
			for _, c := range p {
				if c != Wildcard && !c.Valid() {
					return fmt.Errorf("%w: %q in %s", ErrUnknownCategory, c, q.ID)
				}
			}
		}

		choiceIDs := make(map[string]struct{}, len(q.Choices))
		for _, ch := range q.Choices {
			if _, dup := choiceIDs[ch.ID]; dup || ch.ID == "" {
				return fmt.Errorf("%w: %s has an empty or duplicate choice id", ErrInvalidRule, q.ID)
			}
			choiceIDs[ch.ID] = struct{}{}
			for c, d := range ch.Delta {
				if !c.Valid() {
					return fmt.Errorf("%w: %q in %s/%s", ErrUnknownCategory, c, q.ID, ch.ID)
				}
				if math.IsNaN(d) || math.Abs(d) > maxDelta {
					return fmt.Errorf("%w: %s/%s delta %v out of range", ErrInvalidRule, q.ID, ch.ID, d)
				}
			}
		}
	}
	return nil
}

// NewSelector orders rules so that exact pairs are tried before wildcard
// pairs; relative order within each group is kept.
func NewSelector(cfg Config, rules []Rule) (*Selector, error) {
	if err := validateRules(rules); err != nil {
		return nil, err
	}
	if cfg.MarginThreshold <= 0 {
		cfg.MarginThreshold = defaultMarginThreshold
	}

	ordered := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if !r.wildcard() {
			ordered = append(ordered, r)
		}
	}
	for _, r := range rules {
		if r.wildcard() {
			ordered = append(ordered, r)
		}
	}

	return &Selector{cfg: cfg, rules: ordered}, nil
}

// DefaultSelector uses the embedded rule set.
func DefaultSelector(cfg Config) (*Selector, error) {
	rules, err := LoadRules(defaultRulesYAML)
	if err != nil {
		return nil, err
	}
	return NewSelector(cfg, rules)
}

// Question finds a rule's question by id.
func (s *Selector) Question(id string) (domain.ClarifyingQuestion, bool) {
	for _, r := range s.rules {
		if r.Question.ID == id {
			return r.Question, true
		}
	}
	return domain.ClarifyingQuestion{}, false
}

// Select inspects the two leading entries of a sorted provisional list.
// Questions whose ids are in asked are never chosen again. The decision
// always carries a Reason, with a nil Question when nothing should be asked.
func (s *Selector) Select(provisional []domain.Provisional, asked ...string) domain.QuestionDecision {
	if len(provisional) == 0 {
		return domain.QuestionDecision{Reason: "no scored categories"}
	}
	if len(provisional) == 1 {
		return domain.QuestionDecision{
			Margin: provisional[0].Score,
			Reason: fmt.Sprintf("only %s is scored", provisional[0].Category),
		}
	}

	first, second := provisional[0], provisional[1]
	margin := first.Score - second.Score
	pair := []domain.CategoryID{first.Category, second.Category}

	if margin+marginEpsilon >= s.cfg.MarginThreshold {
		return domain.QuestionDecision{
			Margin: margin,
			Pair:   pair,
			Reason: fmt.Sprintf("margin %.2f between %s and %s meets threshold %.2f",
				margin, first.Category, second.Category, s.cfg.MarginThreshold),
		}
	}

	skip := make(map[string]struct{}, len(asked))
	for _, id := range asked {
		skip[id] = struct{}{}
	}

	for _, r := range s.rules {
		if _, done := skip[r.Question.ID]; done {
			continue
		}
		if !r.matches(first.Category, second.Category) {
			continue
		}
		q := r.Question
		return domain.QuestionDecision{
			Question: &q,
			Margin:   margin,
			Pair:     pair,
			Reason: fmt.Sprintf("margin %.2f between %s and %s is below %.2f; asking %s",
				margin, first.Category, second.Category, s.cfg.MarginThreshold, q.ID),
		}
	}

	return domain.QuestionDecision{
		Margin: margin,
		Pair:   pair,
		Reason: fmt.Sprintf("margin %.2f between %s and %s is below %.2f but no question separates them",
			margin, first.Category, second.Category, s.cfg.MarginThreshold),
	}
}
