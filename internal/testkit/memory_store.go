// Package testkit contiene dobles de prueba compartidos entre paquetes.
package testkit

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hypernova-labs/products-service/internal/database"
	"github.com/hypernova-labs/products-service/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryStore implementa services.ProductStore en memoria con la misma
// semántica de errores que el repositorio PostgreSQL.
type MemoryStore struct {
	mu       sync.Mutex
	products map[int64]*models.Product
	nextID   int64
	clock    time.Time

	// Err, si no es nil, lo retornan todas las operaciones
	Err error
	// Calls cuenta las llamadas recibidas por operación
	Calls map[string]int
}

// NewMemoryStore crea un store vacío
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[int64]*models.Product),
		nextID:   1,
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Calls:    make(map[string]int),
	}
}

// now avanza un segundo por llamada para que updated_at siempre cambie
func (s *MemoryStore) now() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *MemoryStore) enter(op string) error {
	s.Calls[op]++
	return s.Err
}

// TotalCalls retorna el total de llamadas recibidas
func (s *MemoryStore) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, n := range s.Calls {
		total += n
	}
	return total
}

// Len retorna la cantidad de productos almacenados
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.products)
}

// SetStock fija stock_quantity, reorder_level e is_active de un producto existente
func (s *MemoryStore) SetStock(id int64, quantity, reorderLevel int, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.products[id]; ok {
		p.StockQuantity = quantity
		p.ReorderLevel = reorderLevel
		p.IsActive = active
	}
}

func (s *MemoryStore) findByCode(code string) *models.Product {
	for _, p := range s.products {
		if p.StockCode == code {
			return p
		}
	}
	return nil
}

func notFound() error {
	return models.NewNotFoundError("Product not found")
}

func conflict() error {
	return models.NewConflictError("Product with this stock code already exists", nil)
}

func priceOf(price *decimal.Decimal) decimal.NullDecimal {
	if price == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *price, Valid: true}
}

// List filtra, ordena y pagina igual que el repositorio
func (s *MemoryStore) List(ctx context.Context, q models.ListProductsQuery) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("list"); err != nil {
		return nil, err
	}

	term := strings.ToLower(q.Search)
	matched := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if term == "" ||
			strings.Contains(strings.ToLower(p.StockCode), term) ||
			strings.Contains(strings.ToLower(p.Description), term) {
			matched = append(matched, *p)
		}
	}

	column := database.SortColumn(q.SortBy)
	desc := database.SortDirection(q.SortOrder) == "DESC"
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if c := compare(column, a, b); c != 0 {
			if desc {
				// NULLS LAST también en orden descendente
				if column == "unit_price" && (!a.UnitPrice.Valid || !b.UnitPrice.Valid) {
					return c < 0
				}
				return c > 0
			}
			return c < 0
		}
		return a.ProductID < b.ProductID
	})

	start := q.Offset()
	if start >= len(matched) {
		return []models.Product{}, nil
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func compare(column string, a, b models.Product) int {
	switch column {
	case "product_id":
		switch {
		case a.ProductID < b.ProductID:
			return -1
		case a.ProductID > b.ProductID:
			return 1
		}
		return 0
	case "description":
		return strings.Compare(a.Description, b.Description)
	case "unit_price":
		switch {
		case !a.UnitPrice.Valid && !b.UnitPrice.Valid:
			return 0
		case !a.UnitPrice.Valid:
			return 1
		case !b.UnitPrice.Valid:
			return -1
		}
		return a.UnitPrice.Decimal.Cmp(b.UnitPrice.Decimal)
	default:
		return strings.Compare(a.StockCode, b.StockCode)
	}
}

// GetByID busca por product_id
func (s *MemoryStore) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("get_by_id"); err != nil {
		return nil, err
	}

	p, ok := s.products[id]
	if !ok {
		return nil, notFound()
	}
	copied := *p
	return &copied, nil
}

// GetByStockCode busca por stock_code
func (s *MemoryStore) GetByStockCode(ctx context.Context, stockCode string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("get_by_stock_code"); err != nil {
		return nil, err
	}

	p := s.findByCode(stockCode)
	if p == nil {
		return nil, notFound()
	}
	copied := *p
	return &copied, nil
}

// Create inserta un producto asignando product_id
func (s *MemoryStore) Create(ctx context.Context, req *models.ProductRequest) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("create"); err != nil {
		return nil, err
	}

	if s.findByCode(req.StockCode) != nil {
		return nil, conflict()
	}

	p := &models.Product{
		ProductID:   s.nextID,
		StockCode:   req.StockCode,
		Description: req.Description,
		UnitPrice:   priceOf(req.UnitPrice),
		IsActive:    true,
		UpdatedAt:   s.now(),
	}
	s.products[p.ProductID] = p
	s.nextID++

	copied := *p
	return &copied, nil
}

// Update reemplaza los campos editables
func (s *MemoryStore) Update(ctx context.Context, id int64, req *models.ProductRequest) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("update"); err != nil {
		return nil, err
	}

	p, ok := s.products[id]
	if !ok {
		return nil, notFound()
	}
	if other := s.findByCode(req.StockCode); other != nil && other.ProductID != id {
		return nil, conflict()
	}

	p.StockCode = req.StockCode
	p.Description = req.Description
	p.UnitPrice = priceOf(req.UnitPrice)
	p.UpdatedAt = s.now()

	copied := *p
	return &copied, nil
}

// Delete elimina y retorna el estado previo
func (s *MemoryStore) Delete(ctx context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("delete"); err != nil {
		return nil, err
	}

	p, ok := s.products[id]
	if !ok {
		return nil, notFound()
	}
	delete(s.products, id)
	return p, nil
}

// Summary calcula los agregados
func (s *MemoryStore) Summary(ctx context.Context) (*models.AnalyticsSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("summary"); err != nil {
		return nil, err
	}

	summary := &models.AnalyticsSummary{}
	sum := decimal.Zero
	priced := 0
	for _, p := range s.products {
		summary.TotalProducts++
		if p.IsActive {
			summary.ActiveProducts++
		}
		summary.TotalStock += int64(p.StockQuantity)
		if p.UnitPrice.Valid {
			sum = sum.Add(p.UnitPrice.Decimal)
			priced++
		}
	}
	if priced > 0 {
		summary.AvgPrice = decimal.NullDecimal{Decimal: sum.Div(decimal.NewFromInt(int64(priced))), Valid: true}
	}
	return summary, nil
}

// LowStock lista los productos con stock_quantity <= reorder_level
func (s *MemoryStore) LowStock(ctx context.Context) ([]models.LowStockItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("low_stock"); err != nil {
		return nil, err
	}

	items := make([]models.LowStockItem, 0)
	for _, p := range s.products {
		if p.StockQuantity <= p.ReorderLevel {
			items = append(items, models.LowStockItem{
				ProductID:     p.ProductID,
				StockCode:     p.StockCode,
				Description:   p.Description,
				StockQuantity: p.StockQuantity,
				ReorderLevel:  p.ReorderLevel,
			})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].StockQuantity != items[j].StockQuantity {
			return items[i].StockQuantity < items[j].StockQuantity
		}
		return items[i].ProductID < items[j].ProductID
	})
	return items, nil
}
