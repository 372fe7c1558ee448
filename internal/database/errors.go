package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hypernova-labs/products-service/internal/models"
	"github.com/lib/pq"
)

// Códigos SQLSTATE que se traducen a errores de la API
const (
	pqUniqueViolation     = pq.ErrorCode("23505")
	pqForeignKeyViolation = pq.ErrorCode("23503")
	pqCheckViolation      = pq.ErrorCode("23514")
	pqNumericOutOfRange   = pq.ErrorCode("22003")
	pqInvalidEncoding     = pq.ErrorCode("22021")
)

// ClassifyError traduce un error del driver a un *models.APIError.
// El código SQLSTATE es la única fuente de verdad.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *models.APIError
	if errors.As(err, &apiErr) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return models.NewNotFoundError("Product not found")
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return models.NewConflictError("Product with this stock code already exists", err)
		case pqForeignKeyViolation:
			return models.NewReferenceError("Referenced record does not exist", err)
		case pqCheckViolation:
			return models.NewConstraintError("Value violates constraint "+pqErr.Constraint, err)
		case pqNumericOutOfRange:
			return &models.APIError{Code: models.ErrorCodeInvalidRequest, Message: "Numeric value out of range", Cause: err}
		case pqInvalidEncoding:
			return &models.APIError{Code: models.ErrorCodeInvalidRequest, Message: "Invalid character encoding", Cause: err}
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewInternalError("database operation timed out", err)
	}

	return models.NewInternalError("database error", err)
}
