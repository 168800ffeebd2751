package rest

import (
	"context"
	"net/http"
	"time"

	"mmDiagnosis/business/search"
	"mmDiagnosis/domain"
	"mmDiagnosis/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	SearchHandler struct {
		validate      *validator.Validate
		searchService SearchService
		timeout       time.Duration
	}

	SearchService interface {
		Search(ctx context.Context, req search.Request) (search.Result, error)
		RankProducts(items []domain.SearchItem, profile domain.Profile) domain.RankedProducts
		Profile(answers domain.Answers) domain.Profile
		ResolveBudget(signal string) (domain.BudgetBand, bool)
	}

	SearchRequest struct {
		Queries    []string            `json:"queries" validate:"max=10,dive,required,max=100"`
		Categories []domain.CategoryID `json:"categories" validate:"omitempty,max=5,dive,category"`
		Budget     string              `json:"budget" validate:"omitempty,max=64"`
		Limit      int                 `json:"limit" validate:"gte=0,lte=100"`
	}

	SearchItemInput struct {
		ID          string      `json:"id"`
		Mall        domain.Mall `json:"mall" validate:"required,oneof=rakuten yahoo"`
		Title       string      `json:"title" validate:"required"`
		Description string      `json:"description"`
		URL         string      `json:"url" validate:"required_without=ID"`
		Image       string      `json:"image"`
		Price       int         `json:"price" validate:"gte=0"`
		Shop        string      `json:"shop"`
	}

	RankRequest struct {
		Items   []SearchItemInput `json:"items" validate:"max=200,dive"`
		Answers domain.Answers    `json:"answers"`
	}

	SearchResponse struct {
		Items   []domain.SearchItem `json:"items"`
		Rung    search.Rung         `json:"rung"`
		Message string              `json:"message,omitempty"`
		Budget  *domain.BudgetBand  `json:"budget,omitempty"`
	}
)

func NewSearchHandler(svc SearchService, timeout time.Duration) *SearchHandler {
	return &SearchHandler{
		validate:      newValidator(),
		searchService: svc,
		timeout:       timeout,
	}
}

func (h *SearchHandler) Search(c echo.Context) error {
	var req SearchRequest
	if resErr := decode(c, h.validate, &req); resErr != nil {
		return c.JSON(http.StatusBadRequest, resErr)
	}
	if len(req.Queries) == 0 && len(req.Categories) == 0 {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "queries or categories are required"})
	}

	var band *domain.BudgetBand
	if req.Budget != "" {
		b, ok := h.searchService.ResolveBudget(req.Budget)
		if !ok {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: "unrecognised budget"})
		}
		band = &b
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	res, err := h.searchService.Search(ctx, search.Request{
		Queries:    req.Queries,
		Categories: req.Categories,
		Band:       band,
		Limit:      req.Limit,
	})
	if err != nil {
		logger.Error("Failed to search marketplaces", "trace_id", logger.TraceIDFromContext(ctx), "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: "failed to search marketplaces"})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(SearchResponse{
		Items:   res.Items,
		Rung:    res.Rung,
		Message: res.Message,
		Budget:  band,
	}))
}

func (h *SearchHandler) Rank(c echo.Context) error {
	var req RankRequest
	if resErr := decode(c, h.validate, &req); resErr != nil {
		return c.JSON(http.StatusBadRequest, resErr)
	}

	items := make([]domain.SearchItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.SearchItem(it))
	}

	profile := h.searchService.Profile(req.Answers)
	ranked := h.searchService.RankProducts(items, profile)

	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]interface{}{
		"profile":  profile,
		"products": ranked,
	}))
}
