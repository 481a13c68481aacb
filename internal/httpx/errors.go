package httpx

import (
	"errors"
	"net/http"

	"bookreviews/internal/apperror"

	"github.com/rs/zerolog"
)

// WriteError renders err using the error envelope. Application errors keep
// their code and message; anything else becomes a logged 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		JSONError(w, r, apperror.HTTPStatus(appErr), appErr.Code, appErr.Message, appErr.Details)
		return
	}

	status := apperror.HTTPStatus(err)
	if status != http.StatusInternalServerError {
		JSONError(w, r, status, http.StatusText(status), err.Error(), nil)
		return
	}

	zerolog.Ctx(r.Context()).Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")
	JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}

// DecodeError answers a malformed request body.
func DecodeError(w http.ResponseWriter, r *http.Request) {
	JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
}
