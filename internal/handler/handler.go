// Package handler implements the HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing useful left to do
		return
	}
}

// writeError maps the error onto the API's error taxonomy and writes it.
// Unrecognised errors become an opaque 500 so internals never leak.
func writeError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		writeJSON(w, statusFor(domainErr.Code), model.ErrorResponse{
			Error:   domainErr.Code,
			Message: domainErr.Message,
		})
		return
	}

	logger.Error().Err(err).Msg("internal error")
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
		Error:   model.ErrCodeInternalError,
		Message: "Internal server error",
	})
}

func statusFor(code string) int {
	switch code {
	case model.ErrCodeNotFound, model.ErrCodeProductNotFound:
		return http.StatusNotFound
	case model.ErrCodeEmptyCart, model.ErrCodeInvalidCoupon, model.ErrCodeInvalidQuantity,
		model.ErrCodeDuplicateCoupon, model.ErrCodeInvalidJSON:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Malformed request body")
	}
	return nil
}

// currentUser resolves the authenticated caller placed in the context by
// the auth middleware.
func currentUser(r *http.Request) (model.User, error) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		return model.User{}, model.ErrUnauthenticated
	}
	return u, nil
}
