// Package api is the HTTP surface of the places backend: a chi router
// exposing the place and rating endpoints behind the bearer token gate,
// plus liveness and readiness probes.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperr "github.com/ludimus/places-backend/pkg/errors"
)

// errorResponse is the JSON error envelope returned for failed
// requests. Authentication failures never carry a body.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes data as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("api: failed to encode response", "error", err)
	}
}

// writeError maps err onto an HTTP status through its error code and
// writes the error envelope. Authentication errors collapse to a bare
// 401 regardless of subtype; server-side failures hide their message
// behind a generic one so internals never leak to clients.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	structured, ok := apperr.AsError(err)
	if !ok {
		structured = apperr.Wrap(err, apperr.CodeInternal, "api: unclassified error")
	}

	status := structured.HTTPStatus()

	if apperr.IsAuthentication(err) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	message := structured.Message
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "api: request failed",
			"method", r.Method, "path", r.URL.Path,
			"code", structured.Code, "error", err)
		message = "internal error"
	}

	writeJSON(w, status, errorResponse{Error: errorDetail{
		Code:    string(structured.Code),
		Message: message,
	}})
}

// decodeBody reads a JSON request body into target. Unknown fields are
// rejected so typos in client payloads fail loudly instead of silently
// dropping data.
func decodeBody(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return apperr.Wrap(err, apperr.CodeValidation,
			"api: invalid request body")
	}
	return nil
}
