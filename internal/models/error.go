package models

import (
	"errors"
	"fmt"
)

// ErrorCode representa el código de error
type ErrorCode string

const (
	ErrorCodeInvalidRequest      ErrorCode = "INVALID_REQUEST"
	ErrorCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrorCodeConflict            ErrorCode = "CONFLICT"
	ErrorCodeInvalidReference    ErrorCode = "INVALID_REFERENCE"
	ErrorCodeConstraintViolation ErrorCode = "CONSTRAINT_VIOLATION"
	ErrorCodeRateLimited         ErrorCode = "RATE_LIMITED"
	ErrorCodeInternal            ErrorCode = "INTERNAL"
)

// APIError es el error tipado que viaja desde el repositorio hasta los handlers
type APIError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implementa la interfaz error
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap expone la causa original
func (e *APIError) Unwrap() error {
	return e.Cause
}

// NewValidationError crea un error de validación
func NewValidationError(message string) error {
	return &APIError{Code: ErrorCodeInvalidRequest, Message: message}
}

// NewNotFoundError crea un error de recurso no encontrado
func NewNotFoundError(message string) error {
	return &APIError{Code: ErrorCodeNotFound, Message: message}
}

// NewConflictError crea un error de conflicto (clave duplicada)
func NewConflictError(message string, cause error) error {
	return &APIError{Code: ErrorCodeConflict, Message: message, Cause: cause}
}

// NewReferenceError crea un error de llave foránea inválida
func NewReferenceError(message string, cause error) error {
	return &APIError{Code: ErrorCodeInvalidReference, Message: message, Cause: cause}
}

// NewConstraintError crea un error de violación de check constraint
func NewConstraintError(message string, cause error) error {
	return &APIError{Code: ErrorCodeConstraintViolation, Message: message, Cause: cause}
}

// NewInternalError crea un error interno del servidor
func NewInternalError(message string, cause error) error {
	return &APIError{Code: ErrorCodeInternal, Message: message, Cause: cause}
}

// CodeOf retorna el código de un error, INTERNAL si no es un APIError
func CodeOf(err error) ErrorCode {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ErrorCodeInternal
}

// IsNotFound indica si el error es de recurso no encontrado
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrorCodeNotFound
}
