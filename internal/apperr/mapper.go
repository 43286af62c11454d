package apperr

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// HTTPStatus converts core/infra errors into an HTTP status code for the
// optional service wrapper. Keeps handlers clean by centralizing the mapping.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrProfileNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrNotVerified):
		return http.StatusForbidden

	case isType[*PolicyError](err):
		return http.StatusTooManyRequests

	case isType[*ValidationError](err):
		return http.StatusBadRequest

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout

	default:
		return http.StatusInternalServerError
	}
}

func isType[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}
