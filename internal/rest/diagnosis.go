package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"mmDiagnosis/business/diagnosis"
	"mmDiagnosis/domain"
	"mmDiagnosis/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	DiagnosisHandler struct {
		validate         *validator.Validate
		diagnosisService DiagnosisService
		timeout          time.Duration
	}

	DiagnosisService interface {
		Score(ctx context.Context, sessionID string, answers domain.Answers) (diagnosis.ScoreOutcome, error)
		SelectQuestion(ctx context.Context, sessionID string, provisional []domain.Provisional, asked []string) (domain.QuestionDecision, error)
		Reconcile(ctx context.Context, sessionID string, provisional []domain.Provisional, questionID, choiceID string) ([]domain.Provisional, error)
		Recommend(ctx context.Context, sessionID string, answers domain.Answers, provisional []domain.Provisional) (diagnosis.Recommendation, error)
	}

	ScoreRequest struct {
		SessionID string         `json:"session_id" validate:"omitempty,max=128"`
		Answers   domain.Answers `json:"answers"`
	}

	ProvisionalInput struct {
		Category domain.CategoryID `json:"category" validate:"required,category"`
		Score    float64           `json:"score" validate:"gte=0,lte=1"`
		Reasons  []string          `json:"reasons"`
	}

	QuestionRequest struct {
		SessionID   string             `json:"session_id" validate:"omitempty,max=128"`
		Provisional []ProvisionalInput `json:"provisional" validate:"required,min=1,dive"`
		Asked       []string           `json:"asked"`
	}

	ReconcileRequest struct {
		SessionID   string             `json:"session_id" validate:"omitempty,max=128"`
		Provisional []ProvisionalInput `json:"provisional" validate:"required,min=1,dive"`
		QuestionID  string             `json:"question_id" validate:"required"`
		ChoiceID    string             `json:"choice_id" validate:"required"`
	}

	RecommendRequest struct {
		SessionID   string             `json:"session_id" validate:"omitempty,max=128"`
		Answers     domain.Answers     `json:"answers"`
		Provisional []ProvisionalInput `json:"provisional" validate:"omitempty,dive"`
	}
)

func NewDiagnosisHandler(svc DiagnosisService, timeout time.Duration) *DiagnosisHandler {
	return &DiagnosisHandler{
		validate:         newValidator(),
		diagnosisService: svc,
		timeout:          timeout,
	}
}

func toProvisional(in []ProvisionalInput) []domain.Provisional {
	out := make([]domain.Provisional, 0, len(in))
	for _, p := range in {
		out = append(out, domain.Provisional{Category: p.Category, Score: p.Score, Reasons: p.Reasons})
	}
	return out
}

func (h *DiagnosisHandler) Score(c echo.Context) error {
	var req ScoreRequest
	if resErr := decode(c, h.validate, &req); resErr != nil {
		return c.JSON(http.StatusBadRequest, resErr)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	out, err := h.diagnosisService.Score(ctx, req.SessionID, req.Answers)
	if err != nil {
		logger.Error("Failed to score answers", "trace_id", logger.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: "failed to score answers"})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(out))
}

func (h *DiagnosisHandler) Question(c echo.Context) error {
	var req QuestionRequest
	if resErr := decode(c, h.validate, &req); resErr != nil {
		return c.JSON(http.StatusBadRequest, resErr)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	decision, err := h.diagnosisService.SelectQuestion(ctx, req.SessionID, toProvisional(req.Provisional), req.Asked)
	if err != nil {
		logger.Error("Failed to select question", "trace_id", logger.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: "failed to select question"})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(decision))
}

func (h *DiagnosisHandler) Reconcile(c echo.Context) error {
	var req ReconcileRequest
	if resErr := decode(c, h.validate, &req); resErr != nil {
		return c.JSON(http.StatusBadRequest, resErr)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	out, err := h.diagnosisService.Reconcile(ctx, req.SessionID, toProvisional(req.Provisional), req.QuestionID, req.ChoiceID)
	if err != nil {
		if errors.Is(err, diagnosis.ErrUnknownQuestion) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		logger.Error("Failed to reconcile scores", "trace_id", logger.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: "failed to reconcile scores"})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]interface{}{
		"session_id":  req.SessionID,
		"provisional": out,
	}))
}

func (h *DiagnosisHandler) Recommend(c echo.Context) error {
	var req RecommendRequest
	if resErr := decode(c, h.validate, &req); resErr != nil {
		return c.JSON(http.StatusBadRequest, resErr)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	rec, err := h.diagnosisService.Recommend(ctx, req.SessionID, req.Answers, toProvisional(req.Provisional))
	if err != nil {
		logger.Error("Failed to build recommendation", "trace_id", logger.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: "failed to build recommendation"})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(rec))
}
