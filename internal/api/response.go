// Package api exposes the recommender over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"findmovie/internal/logging"
)

// Response is the envelope for every API response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	Meta    Meta        `json:"meta"`
}

// Error is a machine-readable error payload.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Meta carries request tracing information.
type Meta struct {
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeDataUnavailable    = "DATA_UNAVAILABLE"
)

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeJSON(w, status, Response{
		Success: status < 400,
		Data:    data,
		Meta:    Meta{RequestID: requestIDFrom(r.Context()), Timestamp: time.Now()},
	})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, Response{
		Error: &Error{Code: code, Message: message},
		Meta:  Meta{RequestID: requestIDFrom(r.Context()), Timestamp: time.Now()},
	})
}

// writeJSON encodes v before touching the response so an encoding failure
// can still be reported as a 500 envelope.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
		status = http.StatusInternalServerError
		meta := Meta{Timestamp: time.Now()}
		if resp, ok := v.(Response); ok {
			meta.RequestID = resp.Meta.RequestID
		}
		body, _ = json.Marshal(Response{
			Error: &Error{Code: ErrCodeInternalError, Message: "failed to encode response"},
			Meta:  meta,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		logging.Debug().Err(err).Msg("failed to write response")
	}
}
