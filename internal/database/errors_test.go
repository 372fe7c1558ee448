package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/hypernova-labs/products-service/internal/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want models.ErrorCode
	}{
		{"NoRows", sql.ErrNoRows, models.ErrorCodeNotFound},
		{"WrappedNoRows", fmt.Errorf("scan: %w", sql.ErrNoRows), models.ErrorCodeNotFound},
		{"UniqueViolation", &pq.Error{Code: "23505", Constraint: "products_stock_code_key"}, models.ErrorCodeConflict},
		{"ForeignKeyViolation", &pq.Error{Code: "23503"}, models.ErrorCodeInvalidReference},
		{"CheckViolation", &pq.Error{Code: "23514", Constraint: "products_unit_price_check"}, models.ErrorCodeConstraintViolation},
		{"NumericOutOfRange", &pq.Error{Code: "22003"}, models.ErrorCodeInvalidRequest},
		{"InvalidEncoding", &pq.Error{Code: "22021"}, models.ErrorCodeInvalidRequest},
		{"OtherPostgresError", &pq.Error{Code: "42P01"}, models.ErrorCodeInternal},
		{"Timeout", fmt.Errorf("error acquiring connection: %w", context.DeadlineExceeded), models.ErrorCodeInternal},
		{"Unknown", errors.New("connection reset"), models.ErrorCodeInternal},
		{"AlreadyClassified", models.NewValidationError("bad"), models.ErrorCodeInvalidRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyError(tc.err)
			assert.Equal(t, tc.want, models.CodeOf(got))
		})
	}

	t.Run("Nil", func(t *testing.T) {
		assert.NoError(t, ClassifyError(nil))
	})

	t.Run("KeepsCause", func(t *testing.T) {
		cause := &pq.Error{Code: "23505"}
		got := ClassifyError(cause)

		var pqErr *pq.Error
		assert.True(t, errors.As(got, &pqErr))
	})
}
