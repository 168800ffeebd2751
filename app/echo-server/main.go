package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mmDiagnosis/app/echo-server/metrics"
	"mmDiagnosis/app/echo-server/router"
	"mmDiagnosis/business/budget"
	"mmDiagnosis/business/clarify"
	"mmDiagnosis/business/diagnosis"
	"mmDiagnosis/business/ranking"
	"mmDiagnosis/business/scoring"
	"mmDiagnosis/business/search"
	"mmDiagnosis/internal/middleware"
	"mmDiagnosis/internal/repository/marketplace"
	psqlRepo "mmDiagnosis/internal/repository/postgres"
	redisRepo "mmDiagnosis/internal/repository/redis"
	"mmDiagnosis/internal/rest"
	"mmDiagnosis/pkg/config"
	"mmDiagnosis/pkg/database"
	redisdb "mmDiagnosis/pkg/database/redis"
	"mmDiagnosis/pkg/logger"
	pkgmetrics "mmDiagnosis/pkg/metrics"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	logger.Info("Starting pillow diagnosis server", "version", cfg.App.Version)

	// Static tables: any error here is fatal
	bands, err := budget.DefaultTable()
	if err != nil {
		logger.Fatal("Failed to load budget bands", "error", err)
	}
	weights, err := scoring.DefaultWeightTable()
	if err != nil {
		logger.Fatal("Failed to load weight table", "error", err)
	}
	scorer, err := scoring.NewScorer(weights, bands)
	if err != nil {
		logger.Fatal("Failed to build scorer", "error", err)
	}
	selector, err := clarify.DefaultSelector(clarify.Config{MarginThreshold: cfg.Diagnosis.MarginThreshold})
	if err != nil {
		logger.Fatal("Failed to load clarifying questions", "error", err)
	}

	pkgmetrics.Init()
	metrics.Init(cfg.App.Version, cfg.App.Environment, bands.Version, weights.Version)

	// Event sink
	var db *gorm.DB
	var events diagnosis.EventRepository = diagnosis.NoopEventRepository{}
	if cfg.Database.Enabled() {
		db, err = database.InitPostgres(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to database", "error", err)
		}
		events = psqlRepo.NewDiagnosisEventRepository(db)
		logger.Info("Database connected successfully")
	} else {
		logger.Warn("DB_HOST not set, diagnosis events are not stored")
	}

	// Search cache
	var redisClient *goredis.Client
	var cache search.Cache = search.NewMemoryCache(cfg.Search.CacheSize, cfg.Search.CacheTTL)
	if cfg.Redis.Enabled() {
		redisClient, err = redisdb.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", "error", err)
		}
		cache = redisRepo.NewSearchCache(redisClient)
		logger.Info("Redis connected successfully")
	}

	// Marketplaces
	retry := marketplace.RetryConfig{MaxAttempts: cfg.Search.MaxAttempts}
	var markets []search.Marketplace
	if cfg.Rakuten.Enabled() {
		markets = append(markets, marketplace.NewRakuten(marketplaceConfig(cfg.Rakuten, cfg.Search, retry)))
	}
	if cfg.Yahoo.Enabled() {
		markets = append(markets, marketplace.NewYahoo(marketplaceConfig(cfg.Yahoo, cfg.Search, retry)))
	}

	aggregator := search.NewAggregator(markets, cache, search.Config{
		RoundTimeout:   cfg.Search.RoundTimeout,
		CacheTTL:       cfg.Search.CacheTTL,
		MaxConcurrency: cfg.Search.MaxConcurrency,
		HitsPerQuery:   cfg.Search.HitsPerQuery,
		EmptyMessage:   cfg.Search.EmptyMessage,
	})

	// Init service
	diagnosisService := diagnosis.NewService(
		scorer,
		selector,
		ranking.NewRanker(ranking.DefaultConfig()),
		aggregator,
		bands,
		events,
		diagnosis.Config{
			SearchCategories: cfg.Diagnosis.SearchCategories,
			SearchLimit:      cfg.Diagnosis.SearchLimit,
			EventTimeout:     cfg.Diagnosis.EventTimeout,
		},
	)

	// Init handler
	diagnosisHandler := rest.NewDiagnosisHandler(diagnosisService, cfg.Server.RequestTimeout)
	searchHandler := rest.NewSearchHandler(diagnosisService, cfg.Server.RequestTimeout)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.TraceID())
	e.Use(middleware.RequestMetrics())
	e.Use(echomiddleware.BodyLimit("1M"))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:  cfg.Server.AllowOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
		ExposeHeaders: []string{echo.HeaderXRequestID},
	}))

	// Setup routes
	router.SetupOpsRoutes(e)
	api := e.Group("/api/v1")
	router.SetupDiagnosisRoutes(api, diagnosisHandler)
	router.SetupSearchRoutes(api, searchHandler)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr, "marketplaces", len(markets))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	// Flush pending diagnosis events
	if err := diagnosisService.Drain(ctx); err != nil {
		logger.Warn("Pending diagnosis events dropped", "error", err)
	}

	if err := redisdb.CloseRedisClient(redisClient); err != nil {
		logger.Error("Redis close error", "error", err)
	}
	if err := database.ClosePostgres(db); err != nil {
		logger.Error("Database close error", "error", err)
	}

	logger.Info("Server stopped")
}

func marketplaceConfig(m config.MarketplaceConfig, s config.SearchConfig, retry marketplace.RetryConfig) marketplace.Config {
	return marketplace.Config{
		BaseURL:           m.BaseURL,
		AppID:             m.AppID,
		AffiliateID:       m.AffiliateID,
		BasicAuthUser:     m.BasicAuthUser,
		BasicAuthPassword: m.BasicAuthPassword,
		CallTimeout:       s.CallTimeout,
		RPS:               m.RPS,
		Burst:             m.Burst,
		Retry:             retry,
	}
}
