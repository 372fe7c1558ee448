package services

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hypernova-labs/products-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100

	maxStockCodeLength   = 50
	maxDescriptionLength = 500

	// unit_price es NUMERIC(12,2)
	priceScale = 2
)

// maxUnitPrice es el primer valor que no cabe en NUMERIC(12,2)
var maxUnitPrice = decimal.New(1, 10)

// ProductStore define las operaciones de persistencia que necesita el servicio
type ProductStore interface {
	List(ctx context.Context, q models.ListProductsQuery) ([]models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	GetByStockCode(ctx context.Context, stockCode string) (*models.Product, error)
	Create(ctx context.Context, req *models.ProductRequest) (*models.Product, error)
	Update(ctx context.Context, id int64, req *models.ProductRequest) (*models.Product, error)
	Delete(ctx context.Context, id int64) (*models.Product, error)
	Summary(ctx context.Context) (*models.AnalyticsSummary, error)
	LowStock(ctx context.Context) ([]models.LowStockItem, error)
}

// ProductService maneja la lógica de negocio para Product
type ProductService struct {
	store  ProductStore
	logger *logrus.Logger
}

// NewProductService crea una nueva instancia del servicio
func NewProductService(store ProductStore, logger *logrus.Logger) *ProductService {
	return &ProductService{
		store:  store,
		logger: logger,
	}
}

// NormalizeListQuery aplica los valores por defecto de paginación
func NormalizeListQuery(q models.ListProductsQuery) models.ListProductsQuery {
	if q.Page < 1 {
		q.Page = defaultPage
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	// (page-1)*limit no debe desbordar int
	if maxPage := math.MaxInt / q.Limit; q.Page > maxPage {
		q.Page = maxPage
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// ParseProductID interpreta un identificador como product_id numérico.
// Solo dígitos sin signo: "+5" o "-1" se buscan como stock_code.
func ParseProductID(id string) (int64, bool) {
	if id == "" {
		return 0, false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return 0, false
		}
	}

	productID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, false
	}
	return productID, true
}

// List obtiene una página de productos
func (s *ProductService) List(ctx context.Context, q models.ListProductsQuery) ([]models.Product, error) {
	if !utf8.ValidString(q.Search) {
		return nil, models.NewValidationError("search must be valid UTF-8")
	}
	q = NormalizeListQuery(q)

	products, err := s.store.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}

	return products, nil
}

// GetByIdentifier busca por product_id si el identificador es numérico, si no por stock_code
func (s *ProductService) GetByIdentifier(ctx context.Context, id string) (*models.Product, error) {
	var (
		product *models.Product
		err     error
	)

	if productID, ok := ParseProductID(id); ok {
		product, err = s.store.GetByID(ctx, productID)
	} else if !utf8.ValidString(id) {
		// Ningún stock_code almacenado puede contener UTF-8 inválido
		return nil, models.NewNotFoundError("Product not found")
	} else {
		product, err = s.store.GetByStockCode(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting product %q: %w", id, err)
	}

	return product, nil
}

// Create crea un nuevo producto
func (s *ProductService) Create(ctx context.Context, req *models.ProductRequest) (*models.Product, error) {
	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	product, err := s.store.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("error creating product: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"product_id": product.ProductID,
		"stock_code": product.StockCode,
	}).Info("Product created successfully")

	return product, nil
}

// Update reemplaza los campos editables de un producto identificado por product_id
func (s *ProductService) Update(ctx context.Context, id string, req *models.ProductRequest) (*models.Product, error) {
	productID, ok := ParseProductID(id)
	if !ok {
		return nil, models.NewValidationError("Product ID must be an integer")
	}

	if err := validateProductRequest(req); err != nil {
		return nil, err
	}

	product, err := s.store.Update(ctx, productID, req)
	if err != nil {
		return nil, fmt.Errorf("error updating product %d: %w", productID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"product_id": product.ProductID,
		"stock_code": product.StockCode,
	}).Info("Product updated successfully")

	return product, nil
}

// Delete elimina un producto identificado por product_id y retorna su estado previo
func (s *ProductService) Delete(ctx context.Context, id string) (*models.Product, error) {
	productID, ok := ParseProductID(id)
	if !ok {
		return nil, models.NewValidationError("Product ID must be an integer")
	}

	product, err := s.store.Delete(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("error deleting product %d: %w", productID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"product_id": product.ProductID,
		"stock_code": product.StockCode,
	}).Info("Product deleted successfully")

	return product, nil
}

// AnalyticsSummary retorna los agregados de la tabla
func (s *ProductService) AnalyticsSummary(ctx context.Context) (*models.AnalyticsSummary, error) {
	summary, err := s.store.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting analytics summary: %w", err)
	}
	return summary, nil
}

// LowStock retorna los productos en o por debajo de su nivel de reorden
func (s *ProductService) LowStock(ctx context.Context) ([]models.LowStockItem, error) {
	items, err := s.store.LowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting low stock products: %w", err)
	}
	return items, nil
}

// validateProductRequest valida el body antes de tocar la base de datos
func validateProductRequest(req *models.ProductRequest) error {
	if req == nil {
		return models.NewValidationError("Request body is required")
	}

	if strings.TrimSpace(req.StockCode) == "" {
		return models.NewValidationError("stock_code is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return models.NewValidationError("description is required")
	}

	if !utf8.ValidString(req.StockCode) || !utf8.ValidString(req.Description) {
		return models.NewValidationError("stock_code and description must be valid UTF-8")
	}

	if utf8.RuneCountInString(req.StockCode) > maxStockCodeLength {
		return models.NewValidationError(fmt.Sprintf("stock_code too long (max %d characters)", maxStockCodeLength))
	}
	if utf8.RuneCountInString(req.Description) > maxDescriptionLength {
		return models.NewValidationError(fmt.Sprintf("description too long (max %d characters)", maxDescriptionLength))
	}

	if req.UnitPrice != nil {
		if !req.UnitPrice.IsPositive() {
			return models.NewValidationError("unit_price must be a positive number")
		}
		if !req.UnitPrice.Equal(req.UnitPrice.Round(priceScale)) {
			return models.NewValidationError(fmt.Sprintf("unit_price must have at most %d decimal places", priceScale))
		}
		if req.UnitPrice.GreaterThanOrEqual(maxUnitPrice) {
			return models.NewValidationError("unit_price must be less than " + maxUnitPrice.String())
		}
	}

	return nil
}
