package dto

import (
	"net/http"

	"github.com/marketplace/backend/internal/domain/shared"
)

// API error codes. Domain errors keep their own code unless it is one of the
// generic shared codes, which are prefixed here.
const (
	ErrCodeInternal            = "ERR_INTERNAL"
	ErrCodeValidation          = "ERR_VALIDATION"
	ErrCodeBadRequest          = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput        = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON         = "ERR_INVALID_JSON"
	ErrCodeTooLarge            = "ERR_REQUEST_TOO_LARGE"
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeInsufficientStock   = "ERR_INSUFFICIENT_STOCK"
)

var sharedCodes = map[string]string{
	shared.ErrNotFound.Code:            ErrCodeNotFound,
	shared.ErrAlreadyExists.Code:       ErrCodeAlreadyExists,
	shared.ErrInvalidInput.Code:        ErrCodeInvalidInput,
	shared.ErrConcurrencyConflict.Code: ErrCodeConcurrencyConflict,
	shared.ErrInvalidState.Code:        ErrCodeInvalidState,
	shared.ErrInsufficientStock.Code:   ErrCodeInsufficientStock,
}

// StatusForKind maps a domain error kind to its HTTP status. Unknown kinds
// are internal errors.
func StatusForKind(kind shared.ErrorKind) int {
	switch kind {
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindDependency:
		return http.StatusBadGateway
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindConflict, shared.KindState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func NormalizeErrorCode(code string) string {
	if apiCode, ok := sharedCodes[code]; ok {
		return apiCode
	}
	return code
}
