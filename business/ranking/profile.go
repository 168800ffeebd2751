package ranking

import (
	"mmDiagnosis/business/budget"
	"mmDiagnosis/domain"
)

// ProfileFromAnswers normalizes questionnaire answers into the attributes
// the ranker matches against. A nil bands leaves Budget unset.
func ProfileFromAnswers(a domain.Answers, bands *budget.Table) domain.Profile {
	p := domain.Profile{
		Postures: a.AllPostures(),
		Concerns: []string{},
	}
	if p.Postures == nil {
		p.Postures = []string{}
	}

	seen := make(map[string]struct{})
	addConcern := func(c string) {
		if _, dup := seen[c]; dup {
			return
		}
		seen[c] = struct{}{}
		p.Concerns = append(p.Concerns, c)
	}

	for _, issue := range a.NeckShoulderIssues {
		if _, known := concernKeywords[issue]; known {
			addConcern(issue)
		}
	}
	switch a.Snoring {
	case "often", "sometimes":
		addConcern("snoring")
	}
	switch a.HeatSensitivity {
	case "high", "mid":
		addConcern("overheating")
	}

	if _, known := materialKeywords[a.Material]; known {
		p.Material = a.Material
	}

	if bands != nil && a.Budget != "" {
		if b, ok := bands.Resolve(a.Budget); ok {
			p.Budget = &b
		}
	}

	return p
}
