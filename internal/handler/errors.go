package handler

import (
	"errors"
	"net/http"

	"github.com/Softbalance/equipment/internal/catalog"
	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/engine"
	"github.com/Softbalance/equipment/internal/repository"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrSessionNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrSessionConflict):
		return http.StatusConflict
	case errors.Is(err, driver.ErrMethodNotSupported):
		return http.StatusNotImplemented
	case errors.Is(err, catalog.ErrBadBlob), errors.Is(err, catalog.ErrUnknownDriver):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
