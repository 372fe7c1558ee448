package services_test

import (
	"context"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/hypernova-labs/products-service/internal/models"
	"github.com/hypernova-labs/products-service/internal/services"
	"github.com/hypernova-labs/products-service/internal/testkit"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() (*services.ProductService, *testkit.MemoryStore) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	store := testkit.NewMemoryStore()
	return services.NewProductService(store, logger), store
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("ValidInputEchoesFields", func(t *testing.T) {
		svc, _ := newService()

		product, err := svc.Create(ctx, &models.ProductRequest{StockCode: "A1", Description: "Widget", UnitPrice: price("9.99")})
		require.NoError(t, err)
		assert.NotZero(t, product.ProductID)
		assert.Equal(t, "A1", product.StockCode)
		assert.Equal(t, "Widget", product.Description)
		require.True(t, product.UnitPrice.Valid)
		assert.True(t, product.UnitPrice.Decimal.Equal(decimal.RequireFromString("9.99")))
	})

	t.Run("PriceIsOptional", func(t *testing.T) {
		svc, _ := newService()

		product, err := svc.Create(ctx, &models.ProductRequest{StockCode: "A1", Description: "Widget"})
		require.NoError(t, err)
		assert.False(t, product.UnitPrice.Valid)
	})

	invalid := map[string]*models.ProductRequest{
		"MissingStockCode":  {Description: "Widget"},
		"BlankStockCode":    {StockCode: "   ", Description: "Widget"},
		"EmptyDescription":  {StockCode: "A1"},
		"ZeroPrice":         {StockCode: "A1", Description: "Widget", UnitPrice: price("0")},
		"NegativePrice":     {StockCode: "A1", Description: "Widget", UnitPrice: price("-1.50")},
		"StockCodeTooLong":  {StockCode: string(make([]byte, 51)), Description: "Widget"},
		"PriceScaleTooFine": {StockCode: "A1", Description: "Widget", UnitPrice: price("9.999")},
		"PriceTooLarge":     {StockCode: "A1", Description: "Widget", UnitPrice: price("100000000000")},
		"PriceAtColumnMax":  {StockCode: "A1", Description: "Widget", UnitPrice: price("10000000000")},
		"InvalidUTF8":       {StockCode: "A\xff", Description: "Widget"},
	}
	for name, req := range invalid {
		t.Run("Rejects"+name+"BeforeStore", func(t *testing.T) {
			svc, store := newService()

			_, err := svc.Create(ctx, req)
			require.Error(t, err)
			assert.Equal(t, models.ErrorCodeInvalidRequest, models.CodeOf(err))
			assert.Zero(t, store.TotalCalls())
			assert.Zero(t, store.Len())
		})
	}

	t.Run("AcceptsLargestStorablePrice", func(t *testing.T) {
		svc, _ := newService()

		product, err := svc.Create(ctx, &models.ProductRequest{StockCode: "A1", Description: "Widget", UnitPrice: price("9999999999.99")})
		require.NoError(t, err)
		assert.Equal(t, "9999999999.99", product.UnitPrice.Decimal.String())
	})

	t.Run("AcceptsTrailingZeros", func(t *testing.T) {
		svc, _ := newService()

		_, err := svc.Create(ctx, &models.ProductRequest{StockCode: "A1", Description: "Widget", UnitPrice: price("12.500")})
		assert.NoError(t, err)
	})

	t.Run("RejectsNilRequest", func(t *testing.T) {
		svc, _ := newService()

		_, err := svc.Create(ctx, nil)
		assert.Equal(t, models.ErrorCodeInvalidRequest, models.CodeOf(err))
	})

	t.Run("DuplicateStockCodeIsConflict", func(t *testing.T) {
		svc, _ := newService()

		_, err := svc.Create(ctx, &models.ProductRequest{StockCode: "A1", Description: "Widget"})
		require.NoError(t, err)

		_, err = svc.Create(ctx, &models.ProductRequest{StockCode: "A1", Description: "Other"})
		assert.Equal(t, models.ErrorCodeConflict, models.CodeOf(err))
	})
}

func TestProductService_GetByIdentifier(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()

	created, err := svc.Create(ctx, &models.ProductRequest{StockCode: "SKU-9", Description: "Gadget"})
	require.NoError(t, err)

	t.Run("NumericIdentifierUsesProductID", func(t *testing.T) {
		product, err := svc.GetByIdentifier(ctx, "1")
		require.NoError(t, err)
		assert.Equal(t, created.ProductID, product.ProductID)
		assert.Equal(t, 1, store.Calls["get_by_id"])
	})

	t.Run("NonNumericIdentifierUsesStockCode", func(t *testing.T) {
		product, err := svc.GetByIdentifier(ctx, "SKU-9")
		require.NoError(t, err)
		assert.Equal(t, created.ProductID, product.ProductID)
		assert.Equal(t, 1, store.Calls["get_by_stock_code"])
	})

	t.Run("PartiallyNumericIsStockCode", func(t *testing.T) {
		_, err := svc.GetByIdentifier(ctx, "12abc")
		assert.True(t, models.IsNotFound(err))
		assert.Equal(t, 2, store.Calls["get_by_stock_code"])
	})

	t.Run("UnknownIsNotFound", func(t *testing.T) {
		_, err := svc.GetByIdentifier(ctx, "999")
		assert.True(t, models.IsNotFound(err))
	})
}

func TestProductService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("ReplacesFieldsAndRefreshesUpdatedAt", func(t *testing.T) {
		svc, _ := newService()
		created, err := svc.Create(ctx, &models.ProductRequest{StockCode: "A1", Description: "Widget", UnitPrice: price("9.99")})
		require.NoError(t, err)

		updated, err := svc.Update(ctx, "1", &models.ProductRequest{StockCode: "A1", Description: "Widget v2"})
		require.NoError(t, err)
		assert.Equal(t, "Widget v2", updated.Description)
		assert.False(t, updated.UnitPrice.Valid, "absent price replaces the stored one")
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	})

	t.Run("StockCodeIdentifierIsRejected", func(t *testing.T) {
		svc, store := newService()

		_, err := svc.Update(ctx, "A1", &models.ProductRequest{StockCode: "A1", Description: "Widget"})
		assert.Equal(t, models.ErrorCodeInvalidRequest, models.CodeOf(err))
		assert.Zero(t, store.TotalCalls())
	})

	t.Run("InvalidBodyIsRejected", func(t *testing.T) {
		svc, store := newService()

		_, err := svc.Update(ctx, "1", &models.ProductRequest{StockCode: "A1", Description: "Widget", UnitPrice: price("0")})
		assert.Equal(t, models.ErrorCodeInvalidRequest, models.CodeOf(err))
		assert.Zero(t, store.TotalCalls())
	})

	t.Run("MissingProductIsNotFound", func(t *testing.T) {
		svc, _ := newService()

		_, err := svc.Update(ctx, "42", &models.ProductRequest{StockCode: "A1", Description: "Widget"})
		assert.True(t, models.IsNotFound(err))
	})
}

func TestProductService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()

	_, err := svc.Create(ctx, &models.ProductRequest{StockCode: "A1", Description: "Widget"})
	require.NoError(t, err)

	deleted, err := svc.Delete(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "A1", deleted.StockCode)
	assert.Zero(t, store.Len())

	_, err = svc.Delete(ctx, "1")
	assert.True(t, models.IsNotFound(err))

	_, err = svc.Delete(ctx, "A1")
	assert.Equal(t, models.ErrorCodeInvalidRequest, models.CodeOf(err))
}

func TestProductService_List(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()

	for _, code := range []string{"C3", "A1", "B2"} {
		_, err := svc.Create(ctx, &models.ProductRequest{StockCode: code, Description: "Item " + code})
		require.NoError(t, err)
	}

	t.Run("DefaultsApplyWhenUnset", func(t *testing.T) {
		products, err := svc.List(ctx, models.ListProductsQuery{})
		require.NoError(t, err)
		require.Len(t, products, 3)
		assert.Equal(t, "A1", products[0].StockCode)
	})

	t.Run("PaginationUsesOffset", func(t *testing.T) {
		products, err := svc.List(ctx, models.ListProductsQuery{Page: 2, Limit: 2})
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "C3", products[0].StockCode)
	})

	t.Run("HugePageIsEmpty", func(t *testing.T) {
		products, err := svc.List(ctx, models.ListProductsQuery{Page: math.MaxInt, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, products)
	})

	t.Run("InvalidUTF8SearchIsRejected", func(t *testing.T) {
		before := store.Calls["list"]

		_, err := svc.List(ctx, models.ListProductsQuery{Search: "wid\xffget"})
		assert.Equal(t, models.ErrorCodeInvalidRequest, models.CodeOf(err))
		assert.Equal(t, before, store.Calls["list"])
	})

	t.Run("StoreErrorsPropagate", func(t *testing.T) {
		store.Err = models.NewInternalError("database error", errors.New("boom"))
		defer func() { store.Err = nil }()

		_, err := svc.List(ctx, models.ListProductsQuery{})
		assert.Equal(t, models.ErrorCodeInternal, models.CodeOf(err))
	})
}

func TestNormalizeListQuery(t *testing.T) {
	cases := []struct {
		name string
		in   models.ListProductsQuery
		page int
		lim  int
	}{
		{"Zero", models.ListProductsQuery{}, 1, 10},
		{"Negative", models.ListProductsQuery{Page: -3, Limit: -1}, 1, 10},
		{"Capped", models.ListProductsQuery{Page: 4, Limit: 1000}, 4, 100},
		{"Kept", models.ListProductsQuery{Page: 2, Limit: 25}, 2, 25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := services.NormalizeListQuery(tc.in)
			assert.Equal(t, tc.page, got.Page)
			assert.Equal(t, tc.lim, got.Limit)
			assert.Equal(t, (tc.page-1)*tc.lim, got.Offset())
		})
	}
}

func TestNormalizeListQueryOffsetNeverOverflows(t *testing.T) {
	for _, limit := range []int{1, 7, 10, 100} {
		got := services.NormalizeListQuery(models.ListProductsQuery{Page: math.MaxInt, Limit: limit})
		assert.GreaterOrEqual(t, got.Offset(), 0, "limit %d", limit)
		assert.Equal(t, limit, got.Limit)
	}
}

func TestParseProductID(t *testing.T) {
	id, ok := services.ParseProductID("42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, in := range []string{"", "A1", "4.2", "42abc", " 42", "+5", "-1", "99999999999999999999"} {
		_, ok := services.ParseProductID(in)
		assert.False(t, ok, in)
	}
}
