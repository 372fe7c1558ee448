package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	_ "github.com/hypernova-labs/products-service/docs"
	"github.com/hypernova-labs/products-service/internal/metrics"
	"github.com/hypernova-labs/products-service/internal/models"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterOptions agrupa las piezas opcionales del router
type RouterOptions struct {
	// CORS habilita los headers de CORS (solo desarrollo)
	CORS bool
	// RateCounter habilita el rate limiting cuando no es nil
	RateCounter    RateCounter
	RateLimit      int
	RateLimitBurst int
	// Tracing es el middleware de trazas, nil si está deshabilitado
	Tracing gin.HandlerFunc
}

// NewRouter configura el router principal
func NewRouter(apiHandler *API, opts RouterOptions) *gin.Engine {
	router := gin.New()

	// Middleware global
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		apiHandler.requestLogger(c).WithField("panic", recovered).Error("Recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.NewErrorResponse(
			http.StatusText(http.StatusInternalServerError),
			"An unexpected error occurred",
		))
	}))
	router.Use(RequestID())
	if opts.Tracing != nil {
		router.Use(opts.Tracing)
	}
	router.Use(RequestLogger(apiHandler.logger))
	router.Use(metrics.Middleware())
	if opts.CORS {
		router.Use(CORS())
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.NewErrorResponse(http.StatusText(http.StatusNotFound), "Route not found"))
	})

	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/api-docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/health", apiHandler.HealthCheck)

		products := apiGroup.Group("/products")
		if opts.RateCounter != nil && opts.RateLimit > 0 {
			products.Use(RateLimit(opts.RateCounter, opts.RateLimit, opts.RateLimitBurst, apiHandler.logger))
		}
		{
			// Las rutas estáticas conviven con /:id en el árbol de gin
			products.GET("/analytics/summary", apiHandler.GetAnalyticsSummary)
			products.GET("/low-stock", apiHandler.GetLowStock)

			products.GET("", apiHandler.ListProducts)
			products.POST("", apiHandler.CreateProduct)
			products.GET("/:id", apiHandler.GetProduct)
			products.PUT("/:id", apiHandler.UpdateProduct)
			products.DELETE("/:id", apiHandler.DeleteProduct)
		}
	}

	return router
}
