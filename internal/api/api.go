package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/products-service/internal/models"
	"github.com/hypernova-labs/products-service/internal/services"
	"github.com/sirupsen/logrus"
)

// API maneja todos los endpoints de la API
type API struct {
	productService *services.ProductService
	healthService  *services.HealthService
	logger         *logrus.Logger
}

// NewAPI crea una nueva instancia de la API
func NewAPI(
	productService *services.ProductService,
	healthService *services.HealthService,
	logger *logrus.Logger,
) *API {
	return &API{
		productService: productService,
		healthService:  healthService,
		logger:         logger,
	}
}

// ListProducts godoc
// @Summary      List products
// @Description  Paginated list with optional case-insensitive search over stock_code and description.
// @Tags         products
// @Produce      json
// @Param        page        query  int     false  "Page number"     default(1)
// @Param        limit       query  int     false  "Page size"       default(10)
// @Param        search      query  string  false  "Substring to match against stock_code or description"
// @Param        sort_by     query  string  false  "Sort column"     Enums(product_id, stock_code, description, unit_price)
// @Param        sort_order  query  string  false  "Sort direction"  Enums(asc, desc)
// @Success      200  {object}  models.Response{data=[]models.Product}
// @Failure      500  {object}  models.Response
// @Router       /products [get]
func (api *API) ListProducts(c *gin.Context) {
	// Parámetros inválidos se convierten en 0 y se normalizan a los valores por defecto
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	products, err := api.productService.List(c.Request.Context(), models.ListProductsQuery{
		Page:      page,
		Limit:     limit,
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	})
	if err != nil {
		api.respondError(c, err, "listing products")
		return
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse(products))
}

// GetProduct godoc
// @Summary      Get a product
// @Description  Looks up by product_id when the identifier is an integer, otherwise by stock_code.
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "product_id or stock_code"
// @Success      200  {object}  models.Response{data=models.Product}
// @Failure      404  {object}  models.Response
// @Failure      500  {object}  models.Response
// @Router       /products/{id} [get]
func (api *API) GetProduct(c *gin.Context) {
	product, err := api.productService.GetByIdentifier(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.respondError(c, err, "retrieving product")
		return
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse(product))
}

// CreateProduct godoc
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        product  body      models.ProductRequest  true  "Product to create"
// @Success      201      {object}  models.Response{data=models.Product}
// @Failure      400      {object}  models.Response
// @Failure      409      {object}  models.Response
// @Failure      500      {object}  models.Response
// @Router       /products [post]
func (api *API) CreateProduct(c *gin.Context) {
	var req models.ProductRequest
	if !api.bindProductRequest(c, &req) {
		return
	}

	product, err := api.productService.Create(c.Request.Context(), &req)
	if err != nil {
		api.respondError(c, err, "creating product")
		return
	}

	c.JSON(http.StatusCreated, models.NewMessageResponse(product, "Product created successfully"))
}

// UpdateProduct godoc
// @Summary      Replace a product
// @Description  Replaces stock_code, description and unit_price of the product with the given product_id.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id       path      int                    true  "product_id"
// @Param        product  body      models.ProductRequest  true  "New field values"
// @Success      200      {object}  models.Response{data=models.Product}
// @Failure      400      {object}  models.Response
// @Failure      404      {object}  models.Response
// @Failure      409      {object}  models.Response
// @Failure      500      {object}  models.Response
// @Router       /products/{id} [put]
func (api *API) UpdateProduct(c *gin.Context) {
	var req models.ProductRequest
	if !api.bindProductRequest(c, &req) {
		return
	}

	product, err := api.productService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		api.respondError(c, err, "updating product")
		return
	}

	c.JSON(http.StatusOK, models.NewMessageResponse(product, "Product updated successfully"))
}

// DeleteProduct godoc
// @Summary      Delete a product
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "product_id"
// @Success      200  {object}  models.Response{data=models.Product}
// @Failure      400  {object}  models.Response
// @Failure      404  {object}  models.Response
// @Failure      500  {object}  models.Response
// @Router       /products/{id} [delete]
func (api *API) DeleteProduct(c *gin.Context) {
	product, err := api.productService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.respondError(c, err, "deleting product")
		return
	}

	c.JSON(http.StatusOK, models.NewMessageResponse(product, "Product deleted successfully"))
}

// GetAnalyticsSummary godoc
// @Summary      Product analytics
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  models.Response{data=models.AnalyticsSummary}
// @Failure      500  {object}  models.Response
// @Router       /products/analytics/summary [get]
func (api *API) GetAnalyticsSummary(c *gin.Context) {
	summary, err := api.productService.AnalyticsSummary(c.Request.Context())
	if err != nil {
		api.respondError(c, err, "computing analytics")
		return
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse(summary))
}

// GetLowStock godoc
// @Summary      Low stock products
// @Description  Products whose stock_quantity is at or below reorder_level, ascending by stock_quantity.
// @Tags         analytics
// @Produce      json
// @Success      200  {object}  models.Response{data=[]models.LowStockItem}
// @Failure      500  {object}  models.Response
// @Router       /products/low-stock [get]
func (api *API) GetLowStock(c *gin.Context) {
	items, err := api.productService.LowStock(c.Request.Context())
	if err != nil {
		api.respondError(c, err, "listing low stock products")
		return
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse(items))
}

// HealthCheck godoc
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200  {object}  models.Response{data=models.HealthStatus}
// @Failure      500  {object}  models.Response{data=models.HealthStatus}
// @Router       /health [get]
func (api *API) HealthCheck(c *gin.Context) {
	status, err := api.healthService.Check(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.Response{
			Success: false,
			Data:    status,
			Error:   "Service unhealthy",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.NewSuccessResponse(status))
}

// bindProductRequest parsea el body; responde 400 y retorna false si es inválido
func (api *API) bindProductRequest(c *gin.Context, req *models.ProductRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		api.requestLogger(c).WithError(err).Warn("Error binding product request")
		c.JSON(http.StatusBadRequest, models.NewErrorResponse(
			http.StatusText(http.StatusBadRequest),
			"Invalid request body: "+err.Error(),
		))
		return false
	}
	return true
}

// respondError traduce el error clasificado a status HTTP y envelope
func (api *API) respondError(c *gin.Context, err error, action string) {
	var apiErr *models.APIError
	if !errors.As(err, &apiErr) {
		apiErr = &models.APIError{Code: models.ErrorCodeInternal, Cause: err}
	}

	status := StatusFor(apiErr.Code)
	if status >= http.StatusInternalServerError {
		api.requestLogger(c).WithError(err).Errorf("Error %s", action)
		c.JSON(status, models.NewErrorResponse(
			http.StatusText(status),
			"An unexpected error occurred while "+action,
		))
		return
	}

	api.requestLogger(c).WithError(err).WithField("code", apiErr.Code).Infof("Request rejected while %s", action)
	c.JSON(status, models.NewErrorResponse(http.StatusText(status), apiErr.Message))
}

// StatusFor retorna el status HTTP de cada código de error
func StatusFor(code models.ErrorCode) int {
	switch code {
	case models.ErrorCodeInvalidRequest,
		models.ErrorCodeInvalidReference,
		models.ErrorCodeConstraintViolation:
		return http.StatusBadRequest
	case models.ErrorCodeNotFound:
		return http.StatusNotFound
	case models.ErrorCodeConflict:
		return http.StatusConflict
	case models.ErrorCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// requestLogger retorna un entry con el request id de la petición actual
func (api *API) requestLogger(c *gin.Context) *logrus.Entry {
	return api.logger.WithFields(logrus.Fields{
		"request_id": c.GetString(requestIDKey),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
	})
}
