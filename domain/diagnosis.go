package domain

// Provisional is one scored category. Slices of Provisional are ordered by
// descending score; equal scores keep category declaration order.
type Provisional struct {
	Category CategoryID `json:"category"`
	Score    float64    `json:"score"`
	Reasons  []string   `json:"reasons"`
}

// Insight summarises the top of a scoring pass for display.
type Insight struct {
	Summary string   `json:"summary"`
	Reasons []string `json:"reasons"`
}

// ScoreResult is the output of one scoring pass over Answers.
type ScoreResult struct {
	Provisional []Provisional `json:"provisional"`
	Insight     Insight       `json:"insight"`
}

// Choice is one option of a clarifying question. Delta is added to the score
// of each listed category when the option is chosen.
type Choice struct {
	ID    string                 `json:"id" yaml:"id"`
	Label string                 `json:"label" yaml:"label"`
	Delta map[CategoryID]float64 `json:"delta" yaml:"delta"`
}

type ClarifyingQuestion struct {
	ID      string   `json:"id" yaml:"id"`
	Title   string   `json:"title" yaml:"title"`
	Choices []Choice `json:"choices" yaml:"choices"`
}

// Choice looks up an option by id.
func (q ClarifyingQuestion) Choice(id string) (Choice, bool) {
	for _, c := range q.Choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// QuestionDecision records whether a follow-up question is asked and why.
// Question is nil when no question should be asked.
type QuestionDecision struct {
	Question *ClarifyingQuestion `json:"question"`
	Margin   float64             `json:"margin"`
	Pair     []CategoryID        `json:"pair,omitempty"`
	Reason   string              `json:"reason"`
}
