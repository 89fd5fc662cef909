package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/supertracker-go/internal/core/domain"
	"github.com/yndnr/supertracker-go/internal/telemetry/logger"
)

// Response is the JSON envelope of every endpoint except /metrics.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   string `json:"details,omitempty"`
}

// writeJSON writes a success envelope carrying data.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeEnvelope(w, status, &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: GetRequestIDFromContext(r.Context()),
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	})
}

// writeError writes an error envelope. Errors that are not domain errors
// are reported as ErrInternal.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		de = domain.ErrInternal
	}
	w.Header().Set("X-Error-Code", de.Code)
	writeEnvelope(w, errorCodeToHTTPStatus(de.Code), &Response{
		Code:      de.Code,
		Message:   de.Message,
		RequestID: GetRequestIDFromContext(r.Context()),
		Timestamp: time.Now().UnixMilli(),
		Details:   de.Details,
	})
}

func writeEnvelope(w http.ResponseWriter, status int, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Default().Error("failed to encode response", "error", err)
	}
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4090"):
		return http.StatusConflict
	case strings.HasPrefix(code, "ST-AUTH-401"):
		return http.StatusUnauthorized
	case strings.HasPrefix(code, "ST-ARG-"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "-5030"), strings.HasSuffix(code, "-5031"):
		return http.StatusServiceUnavailable
	case strings.HasSuffix(code, "-5020"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
