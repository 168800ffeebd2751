package router

import (
	"net/http"

	"mmDiagnosis/internal/rest"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupDiagnosisRoutes(api *echo.Group, handler *rest.DiagnosisHandler) {
	diag := api.Group("/diagnosis")

	diag.POST("/score", handler.Score)
	diag.POST("/question", handler.Question)
	diag.POST("/reconcile", handler.Reconcile)
	diag.POST("/recommend", handler.Recommend)
}

func SetupSearchRoutes(api *echo.Group, handler *rest.SearchHandler) {
	api.POST("/search", handler.Search)
	api.POST("/products/rank", handler.Rank)
}

func SetupOpsRoutes(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
