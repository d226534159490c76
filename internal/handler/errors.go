package handler

import (
	"net/http"

	"backend/pkg/apperror"
)

// httpStatus maps engine error kinds to HTTP status codes so services never
// deal in transport concerns.
func httpStatus(err error) int {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindBusinessRule:
		return http.StatusUnprocessableEntity
	case apperror.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
