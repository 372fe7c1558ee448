package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hypernova-labs/products-service/internal/metrics"
	"github.com/hypernova-labs/products-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const productColumns = `product_id, stock_code, description, unit_price,
			   stock_quantity, reorder_level, is_active, updated_at`

// sortColumns es la lista permitida de columnas de ordenamiento.
// Nunca se interpola un valor recibido del cliente.
var sortColumns = map[string]string{
	"product_id":  "product_id",
	"stock_code":  "stock_code",
	"description": "description",
	"unit_price":  "unit_price",
}

// SortColumn resuelve sort_by contra la lista permitida; por defecto stock_code
func SortColumn(sortBy string) string {
	if column, ok := sortColumns[sortBy]; ok {
		return column
	}
	return "stock_code"
}

// SortDirection normaliza sort_order a ASC o DESC
func SortDirection(sortOrder string) string {
	if strings.EqualFold(sortOrder, "desc") {
		return "DESC"
	}
	return "ASC"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike hace que los comodines de LIKE en el término se busquen literalmente
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// ProductRepository maneja las operaciones de base de datos para Product
type ProductRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewProductRepository crea una nueva instancia del repositorio
func NewProductRepository(db *DB, logger *logrus.Logger) *ProductRepository {
	return &ProductRepository{
		db:     db,
		logger: logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var product models.Product
	err := row.Scan(
		&product.ProductID, &product.StockCode, &product.Description, &product.UnitPrice,
		&product.StockQuantity, &product.ReorderLevel, &product.IsActive, &product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func nullPrice(price *decimal.Decimal) decimal.NullDecimal {
	if price == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *price, Valid: true}
}

// finish clasifica el error, lo registra y actualiza las métricas de la operación
func (r *ProductRepository) finish(operation string, start time.Time, err error) error {
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err == nil {
		return nil
	}

	classified := ClassifyError(err)
	code := models.CodeOf(classified)
	if code != models.ErrorCodeNotFound {
		metrics.StoreErrors.WithLabelValues(string(code)).Inc()
		r.logger.WithError(err).WithFields(logrus.Fields{
			"operation": operation,
			"code":      code,
		}).Error("Store operation failed")
	}
	return classified
}

// List obtiene una página de productos con búsqueda y ordenamiento opcionales
func (r *ProductRepository) List(ctx context.Context, q models.ListProductsQuery) (products []models.Product, err error) {
	defer func(start time.Time) { err = r.finish("list", start, err) }(time.Now())

	query := `SELECT ` + productColumns + ` FROM products`
	args := make([]interface{}, 0, 3)

	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		query += ` WHERE stock_code ILIKE $1 OR description ILIKE $1`
	}

	column := SortColumn(q.SortBy)
	direction := SortDirection(q.SortOrder)
	query += fmt.Sprintf(` ORDER BY %s %s NULLS LAST`, column, direction)
	if column != "product_id" {
		query += `, product_id ASC`
	}

	args = append(args, q.Limit, q.Offset())
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	products = make([]models.Product, 0, q.Limit)
	err = r.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("error querying products: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			product, err := scanProduct(rows)
			if err != nil {
				return fmt.Errorf("error scanning product: %w", err)
			}
			products = append(products, *product)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return products, nil
}

// GetByID obtiene un producto por product_id
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (product *models.Product, err error) {
	defer func(start time.Time) { err = r.finish("get_by_id", start, err) }(time.Now())

	query := `SELECT ` + productColumns + ` FROM products WHERE product_id = $1`

	err = r.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		product, err = scanProduct(conn.QueryRowContext(ctx, query, id))
		return err
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

// GetByStockCode obtiene un producto por stock_code
func (r *ProductRepository) GetByStockCode(ctx context.Context, stockCode string) (product *models.Product, err error) {
	defer func(start time.Time) { err = r.finish("get_by_stock_code", start, err) }(time.Now())

	query := `SELECT ` + productColumns + ` FROM products WHERE stock_code = $1`

	err = r.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		product, err = scanProduct(conn.QueryRowContext(ctx, query, stockCode))
		return err
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

// Create inserta un producto; la base de datos asigna product_id
func (r *ProductRepository) Create(ctx context.Context, req *models.ProductRequest) (product *models.Product, err error) {
	defer func(start time.Time) { err = r.finish("create", start, err) }(time.Now())

	query := `
		INSERT INTO products (stock_code, description, unit_price)
		VALUES ($1, $2, $3)
		RETURNING ` + productColumns

	err = r.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		product, err = scanProduct(conn.QueryRowContext(ctx, query,
			req.StockCode, req.Description, nullPrice(req.UnitPrice),
		))
		return err
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

// Update reemplaza stock_code, description y unit_price y refresca updated_at
func (r *ProductRepository) Update(ctx context.Context, id int64, req *models.ProductRequest) (product *models.Product, err error) {
	defer func(start time.Time) { err = r.finish("update", start, err) }(time.Now())

	query := `
		UPDATE products
		SET stock_code = $1, description = $2, unit_price = $3, updated_at = NOW()
		WHERE product_id = $4
		RETURNING ` + productColumns

	err = r.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		product, err = scanProduct(conn.QueryRowContext(ctx, query,
			req.StockCode, req.Description, nullPrice(req.UnitPrice), id,
		))
		return err
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

// Delete elimina un producto y retorna su estado previo
func (r *ProductRepository) Delete(ctx context.Context, id int64) (product *models.Product, err error) {
	defer func(start time.Time) { err = r.finish("delete", start, err) }(time.Now())

	query := `DELETE FROM products WHERE product_id = $1 RETURNING ` + productColumns

	err = r.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		product, err = scanProduct(conn.QueryRowContext(ctx, query, id))
		return err
	})
	if err != nil {
		return nil, err
	}

	return product, nil
}

// Summary calcula los agregados sobre toda la tabla
func (r *ProductRepository) Summary(ctx context.Context) (summary *models.AnalyticsSummary, err error) {
	defer func(start time.Time) { err = r.finish("summary", start, err) }(time.Now())

	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       AVG(unit_price),
		       COALESCE(SUM(stock_quantity), 0)
		FROM products
	`

	summary = &models.AnalyticsSummary{}
	err = r.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, query).Scan(
			&summary.TotalProducts, &summary.ActiveProducts,
			&summary.AvgPrice, &summary.TotalStock,
		)
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// LowStock lista los productos con stock_quantity <= reorder_level
func (r *ProductRepository) LowStock(ctx context.Context) (items []models.LowStockItem, err error) {
	defer func(start time.Time) { err = r.finish("low_stock", start, err) }(time.Now())

	query := `
		SELECT product_id, stock_code, description, stock_quantity, reorder_level
		FROM products
		WHERE stock_quantity <= reorder_level
		ORDER BY stock_quantity ASC, product_id ASC
	`

	items = make([]models.LowStockItem, 0)
	err = r.db.WithConn(ctx, func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("error querying low stock products: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var item models.LowStockItem
			if err := rows.Scan(
				&item.ProductID, &item.StockCode, &item.Description,
				&item.StockQuantity, &item.ReorderLevel,
			); err != nil {
				return fmt.Errorf("error scanning low stock product: %w", err)
			}
			items = append(items, item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}
