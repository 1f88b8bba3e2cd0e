package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/user/foodgram-go/apperror"
)

// maxBodyBytes bounds JSON request bodies. Recipe payloads carry a base64 image, hence
// the generous limit.
const maxBodyBytes = 10 << 20

// WriteJSON serializes data to JSON and writes it with the given status.
// A nil data writes only the status line (used for 204 responses).
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	if data == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent, nothing useful can be written to the client.
		return
	}
}

// WriteError converts any error into the standard apperror.ErrorResponse body.
// Errors that are not *apperror.AppError become 500s; 5xx are logged with the
// request-scoped logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("an unexpected error occurred", err)
	}

	if appErr.StatusCode() >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}

	WriteJSON(w, appErr.StatusCode(), appErr.ToResponse())
}

// DecodeJSON reads a JSON body into dst, reporting malformed input as a 400.
func DecodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.NewBadRequestError("request body is empty", nil)
		}
		return apperror.NewBadRequestError("invalid request body: "+err.Error(), err)
	}
	return nil
}

// PathID reads a positive integer chi URL parameter. Anything else cannot name an object,
// so it is reported as 404 like an unknown id.
func PathID(r *http.Request, key string) (int64, error) {
	raw := chi.URLParam(r, key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NewNotFoundError("not found: "+raw, nil)
	}
	return id, nil
}
