package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/melitools/sheet-sync/pkg/catalog"
	"github.com/melitools/sheet-sync/pkg/config"
	"github.com/melitools/sheet-sync/pkg/logging"
	"github.com/melitools/sheet-sync/pkg/marketplace"
	"github.com/melitools/sheet-sync/pkg/pipeline"
	"github.com/melitools/sheet-sync/pkg/ratelimit"
	"github.com/melitools/sheet-sync/pkg/sheets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis connection failed")
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")

	limiter := ratelimit.New(cfg.Marketplace.RequestInterval, logging.NewLogger("ratelimit"))
	defer limiter.Close()

	sheetsClient, err := sheets.NewClient(sheets.Config{
		BaseURL:      cfg.Sheets.BaseURL,
		DriveBaseURL: cfg.Sheets.DriveBaseURL,
		AccessToken:  cfg.Sheets.AccessToken,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create sheets client")
	}

	market, err := marketplace.NewClient(marketplace.Config{
		BaseURL:     cfg.Marketplace.BaseURL,
		AccessToken: cfg.Marketplace.AccessToken,
		SellerID:    cfg.Marketplace.SellerID,
	}, limiter)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create marketplace client")
	}

	store := catalog.NewRedisStore(redisClient)
	enricher := catalog.NewEnricher(store, catalog.EnricherConfig{
		ListingFixedFee: cfg.Pipeline.ListingFixedFee,
	}, logging.NewLogger("catalog"))

	productPipe := pipeline.NewProductPipeline(sheetsClient, enricher, pipeline.ProductConfig{
		ReportSpreadsheetID:    cfg.Sheets.ReportSpreadsheetID,
		ProductsSpreadsheetID:  cfg.Sheets.ProductsSpreadsheetID,
		InventorySpreadsheetID: cfg.Sheets.InventorySpreadsheetID,
		MetricsSpreadsheetID:   cfg.Sheets.MetricsSpreadsheetID,
	}, logging.NewLogger("pipeline"))

	metricsPipe := pipeline.NewMetricsPipeline(sheetsClient, market, pipeline.MetricsConfig{
		MetricsSpreadsheetID: cfg.Sheets.MetricsSpreadsheetID,
		OrderWindowDays:      cfg.Marketplace.OrderWindowDays,
		VisitWindowDays:      cfg.Marketplace.VisitWindowDays,
		PageSize:             cfg.Marketplace.PageSize,
		UTCOffsetHours:       cfg.Marketplace.UTCOffsetHours,
		SettleDelay:          cfg.Pipeline.SettleDelay,
	}, logging.NewLogger("pipeline"))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(productPipe, metricsPipe)

	addr := ":" + cfg.App.Port
	logger.Info().Str("addr", addr).Str("env", cfg.App.Env).Msg("Starting sync server")
	if err := router.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}
