// Package respond writes JSON responses and maps errors to the API error shape.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/isdelr/routines-api/internal/apperrors"
	"github.com/rs/zerolog/log"
)

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// JSON writes body with the given status.
func JSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response body")
	}
}

// Error writes err in the API error shape. A non-zero status overrides the
// kind's default. Unknown errors are logged and reported as internal errors.
func Error(w http.ResponseWriter, r *http.Request, err error, status int) {
	appErr, known := apperrors.From(err)
	if !known {
		log.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("Unhandled error")
	}
	if status == 0 {
		status = appErr.Status
	}
	JSON(w, status, ErrorBody{Name: appErr.Name, Message: appErr.Message, Error: appErr.Message})
}
