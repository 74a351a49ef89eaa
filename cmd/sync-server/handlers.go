package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/melitools/sheet-sync/pkg/pipeline"
)

// The handlers depend on the pipelines through these interfaces so tests
// can trigger them without real collaborators.
type productRunner interface {
	Run(ctx context.Context) (*pipeline.ProductReport, error)
}

type metricsRunner interface {
	Run(ctx context.Context) error
}

func newRouter(products productRunner, metrics metricsRunner) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/api/product/fetch-info", fetchProductInfo(products))
	router.GET("/api/metrics/", fetchSalesAndVisits(metrics))

	return router
}

// fetchProductInfo triggers the product pipeline. Every fatal pipeline
// error maps to the same generic 500 body; the typed cause only reaches
// the logs.
func fetchProductInfo(products productRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := products.Run(c.Request.Context())
		if err != nil {
			log.Error().Err(err).Msg("Product sync failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "Failed to fetch product information.",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":             "success",
			"productos":          report.Products,
			"inventario":         report.Inventory,
			"asinCatalogMapping": report.Catalog,
			"sales":              report.Sales,
		})
	}
}

// fetchSalesAndVisits triggers the order/visit pipeline.
func fetchSalesAndVisits(metrics metricsRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := metrics.Run(c.Request.Context()); err != nil {
			log.Error().Err(err).Msg("Order/visit sync failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "Failed to fetch orders and visits from the last 180 days.",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Orders and visits from the last 180 days fetched successfully.",
		})
	}
}
