package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/practiceops/practiceops/libs/apperr"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON reads a single JSON object into dst, rejecting unknown fields.
// Failures come back as validation errors on the "body" field.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Validation("body", "request body too large")
		}
		if errors.Is(err, io.EOF) {
			return apperr.Validation("body", "request body is empty")
		}
		return apperr.Validation("body", "invalid json: "+err.Error())
	}
	if dec.More() {
		return apperr.Validation("body", "request body must hold a single json object")
	}
	return nil
}

// StatusFor maps an error kind to the HTTP status the API answers with.
func StatusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindFetchFailed, apperr.KindWriteFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError answers with {"error","kind",...}. Store failures keep their
// original message and carry Retry-After so clients can try again.
func WriteError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	status := StatusFor(err)
	extra := map[string]string{}
	kind := "internal"
	msg := "internal error"

	if e, ok := apperr.As(err); ok {
		kind = string(e.Kind)
		msg = e.Error()
		if e.Field != "" {
			extra["field"] = e.Field
		}
		if e.Table != "" && e.Retryable() {
			extra["table"] = e.Table
		}
		if e.Retryable() {
			w.Header().Set("Retry-After", "1")
		}
	}

	if logger != nil && status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"request_id", RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"kind", kind,
			"err", err,
		)
	}
	writeErrorBody(w, status, msg, kind, extra)
}

func writeErrorBody(w http.ResponseWriter, status int, msg, kind string, extra map[string]string) {
	body := map[string]string{"error": strings.TrimSpace(msg), "kind": kind}
	for k, v := range extra {
		body[k] = v
	}
	WriteJSON(w, status, body)
}
