package httpadapter

import (
	"net/http"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput), domain.IsKind(err, domain.ErrSegmentation):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrInsufficientSignal):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrJobNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary), domain.IsKind(err, domain.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
