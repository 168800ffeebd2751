package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"mmDiagnosis/business/budget"
	"mmDiagnosis/business/clarify"
	"mmDiagnosis/business/ranking"
	"mmDiagnosis/business/scoring"
	"mmDiagnosis/business/search"
	"mmDiagnosis/domain"
	"mmDiagnosis/pkg/logger"

	"github.com/google/uuid"
)

var ErrUnknownQuestion = errors.New("unknown clarifying question")

// Searcher runs an aggregated marketplace search.
type Searcher interface {
	Search(ctx context.Context, req search.Request) search.Result
}

// ScoreOutcome is a scoring pass plus the follow-up question decision.
type ScoreOutcome struct {
	SessionID string                  `json:"session_id"`
	Result    domain.ScoreResult      `json:"result"`
	Decision  domain.QuestionDecision `json:"decision"`
}

// Recommendation is the final answer of a diagnosis.
type Recommendation struct {
	SessionID   string                `json:"session_id"`
	Categories  []domain.Provisional  `json:"categories"`
	Queries     []string              `json:"queries"`
	Budget      *domain.BudgetBand    `json:"budget,omitempty"`
	Products    domain.RankedProducts `json:"products"`
	Rung        search.Rung           `json:"rung"`
	Message     string                `json:"message,omitempty"`
	NoProducts  bool                  `json:"no_products"`
	ResultCount int                   `json:"result_count"`
}

// Service wires scoring, clarification, search and ranking into the
// diagnosis flow and records each step.
type Service struct {
	scorer   *scoring.Scorer
	selector *clarify.Selector
	ranker   *ranking.Ranker
	searcher Searcher
	bands    *budget.Table
	events   EventRepository
	cfg      Config

	pending sync.WaitGroup
}

func NewService(
	scorer *scoring.Scorer,
	selector *clarify.Selector,
	ranker *ranking.Ranker,
	searcher Searcher,
	bands *budget.Table,
	events EventRepository,
	cfg Config,
) *Service {
	def := DefaultConfig()
	if cfg.SearchCategories <= 0 {
		cfg.SearchCategories = def.SearchCategories
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = def.SearchLimit
	}
	if cfg.EventTimeout <= 0 {
		cfg.EventTimeout = def.EventTimeout
	}

	return &Service{
		scorer:   scorer,
		selector: selector,
		ranker:   ranker,
		searcher: searcher,
		bands:    bands,
		events:   events,
		cfg:      cfg,
	}
}

func ensureSession(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}

// Score ranks categories for answers and decides on a follow-up question.
func (s *Service) Score(ctx context.Context, sessionID string, answers domain.Answers) (ScoreOutcome, error) {
	if err := ctx.Err(); err != nil {
		return ScoreOutcome{}, fmt.Errorf("context error: %w", err)
	}
	sessionID = ensureSession(sessionID)

	res := s.scorer.Score(answers)
	decision := s.selector.Select(res.Provisional)

	outcome := "decided"
	if decision.Question != nil {
		outcome = "question"
	}
	DiagnosisStepsTotal.WithLabelValues(domain.StepScore, outcome).Inc()

	logger.Debug("diagnosis_score",
		"trace_id", logger.TraceIDFromContext(ctx),
		"session_id", sessionID,
		"top", string(res.Provisional[0].Category),
		"margin", decision.Margin,
		"reason", decision.Reason,
	)

	out := ScoreOutcome{SessionID: sessionID, Result: res, Decision: decision}
	s.record(ctx, sessionID, domain.StepScore, &answers, out)

	return out, nil
}

// SelectQuestion re-runs the question decision on a provisional list the
// caller already holds. Question ids in asked are not repeated.
func (s *Service) SelectQuestion(ctx context.Context, sessionID string, provisional []domain.Provisional, asked []string) (domain.QuestionDecision, error) {
	if err := ctx.Err(); err != nil {
		return domain.QuestionDecision{}, fmt.Errorf("context error: %w", err)
	}
	sessionID = ensureSession(sessionID)

	sorted := append([]domain.Provisional(nil), provisional...)
	scoring.SortProvisional(sorted)

	decision := s.selector.Select(sorted, asked...)

	outcome := "decided"
	if decision.Question != nil {
		outcome = "question"
	}
	DiagnosisStepsTotal.WithLabelValues(domain.StepQuestion, outcome).Inc()
	s.record(ctx, sessionID, domain.StepQuestion, nil, decision)

	return decision, nil
}

// Reconcile applies a clarifying answer. An unknown question id is an
// error; an unknown choice leaves the scores unchanged.
func (s *Service) Reconcile(ctx context.Context, sessionID string, provisional []domain.Provisional, questionID, choiceID string) ([]domain.Provisional, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	sessionID = ensureSession(sessionID)

	q, ok := s.selector.Question(questionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}

	out := clarify.Reconcile(provisional, q, choiceID)

	outcome := "applied"
	if _, known := q.Choice(choiceID); !known {
		outcome = "unknown_choice"
	}
	DiagnosisStepsTotal.WithLabelValues(domain.StepReconcile, outcome).Inc()
	s.record(ctx, sessionID, domain.StepReconcile, nil, map[string]any{
		"question_id": questionID,
		"choice_id":   choiceID,
		"provisional": out,
	})

	return out, nil
}

// Recommend derives queries from the leading categories, runs the search
// ladder and ranks what comes back. When provisional is empty the answers
// are scored first.
func (s *Service) Recommend(ctx context.Context, sessionID string, answers domain.Answers, provisional []domain.Provisional) (Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return Recommendation{}, fmt.Errorf("context error: %w", err)
	}
	sessionID = ensureSession(sessionID)

	// 1) final category list
	final := append([]domain.Provisional(nil), provisional...)
	if len(final) == 0 {
		final = s.scorer.Score(answers).Provisional
	}
	scoring.SortProvisional(final)

	top := scoring.Top(final, s.cfg.SearchCategories)
	categories := make([]domain.CategoryID, 0, len(top))
	for _, p := range top {
		categories = append(categories, p.Category)
	}

	// 2) profile and budget
	profile := ranking.ProfileFromAnswers(answers, s.bands)

	// 3) search ladder
	queries := search.KeywordsFor(categories)
	res := s.searcher.Search(ctx, search.Request{
		Queries:    queries,
		Categories: categories,
		Band:       profile.Budget,
		Limit:      s.cfg.SearchLimit,
	})

	// 4) rank
	ranked := s.ranker.Rank(res.Items, profile)

	rec := Recommendation{
		SessionID:   sessionID,
		Categories:  final,
		Queries:     queries,
		Budget:      profile.Budget,
		Products:    ranked,
		Rung:        res.Rung,
		Message:     res.Message,
		NoProducts:  res.Empty(),
		ResultCount: len(res.Items),
	}

	DiagnosisStepsTotal.WithLabelValues(domain.StepRecommend, res.Rung.String()).Inc()
	logger.Info("diagnosis_recommend",
		"trace_id", logger.TraceIDFromContext(ctx),
		"session_id", sessionID,
		"rung", res.Rung.String(),
		"result_count", len(res.Items),
	)
	s.record(ctx, sessionID, domain.StepRecommend, &answers, rec)

	return rec, nil
}

// Search exposes the aggregated search ladder directly.
func (s *Service) Search(ctx context.Context, req search.Request) (search.Result, error) {
	if err := ctx.Err(); err != nil {
		return search.Result{}, fmt.Errorf("context error: %w", err)
	}
	return s.searcher.Search(ctx, req), nil
}

// RankProducts ranks caller-supplied items against a profile.
func (s *Service) RankProducts(items []domain.SearchItem, profile domain.Profile) domain.RankedProducts {
	return s.ranker.Rank(items, profile)
}

// Profile normalizes answers into the ranker's matching profile.
func (s *Service) Profile(answers domain.Answers) domain.Profile {
	return ranking.ProfileFromAnswers(answers, s.bands)
}

// ResolveBudget maps a free-form budget answer to a band.
func (s *Service) ResolveBudget(signal string) (domain.BudgetBand, bool) {
	if s.bands == nil {
		return domain.BudgetBand{}, false
	}
	return s.bands.Resolve(signal)
}
