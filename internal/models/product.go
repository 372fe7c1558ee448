package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Los precios se serializan como números JSON y no como strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Product representa una fila de la tabla products
type Product struct {
	ProductID     int64               `json:"product_id" db:"product_id"`
	StockCode     string              `json:"stock_code" db:"stock_code"`
	Description   string              `json:"description" db:"description"`
	UnitPrice     decimal.NullDecimal `json:"unit_price" db:"unit_price" swaggertype:"number"`
	StockQuantity int                 `json:"stock_quantity" db:"stock_quantity"`
	ReorderLevel  int                 `json:"reorder_level" db:"reorder_level"`
	IsActive      bool                `json:"is_active" db:"is_active"`
	UpdatedAt     time.Time           `json:"updated_at" db:"updated_at"`
}

// ProductRequest representa el body para crear o reemplazar un producto
type ProductRequest struct {
	StockCode   string           `json:"stock_code" example:"A1"`
	Description string           `json:"description" example:"Widget"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty" swaggertype:"number" example:"9.99"`
}

// ListProductsQuery representa los parámetros de listado ya normalizados
type ListProductsQuery struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
}

// Offset calcula el desplazamiento de la página solicitada
func (q ListProductsQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// AnalyticsSummary representa las métricas agregadas de la tabla
type AnalyticsSummary struct {
	TotalProducts  int64               `json:"total_products"`
	ActiveProducts int64               `json:"active_products"`
	AvgPrice       decimal.NullDecimal `json:"avg_price" swaggertype:"number"`
	TotalStock     int64               `json:"total_stock"`
}

// LowStockItem representa un producto en o por debajo de su nivel de reorden
type LowStockItem struct {
	ProductID     int64  `json:"product_id"`
	StockCode     string `json:"stock_code"`
	Description   string `json:"description"`
	StockQuantity int    `json:"stock_quantity"`
	ReorderLevel  int    `json:"reorder_level"`
}

// HealthStatus representa el resultado del health check
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	Cache     string    `json:"cache"`
}
