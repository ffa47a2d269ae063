package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as user-friendly messages with action suggestions
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. Error is mapped via core.MapError to get user-friendly message
//  4. Status is chosen from the error kind
//  5. Technical error + context is logged with request ID for correlation

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/trainfuel/internal/core"
	"github.com/JonMunkholm/trainfuel/internal/logging"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// errorStatus pairs a sentinel with its HTTP status.
type errorStatus struct {
	target error
	status int
}

var errorStatuses = []errorStatus{
	{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{core.ErrPlanNotFound, http.StatusNotFound},
	{core.ErrWeightUnknown, http.StatusUnprocessableEntity},
	{core.ErrTooManyImports, http.StatusServiceUnavailable},
	{core.ErrRateLimited, http.StatusTooManyRequests},
	{context.DeadlineExceeded, http.StatusGatewayTimeout},

	{core.ErrEmptyInput, http.StatusBadRequest},
	{core.ErrNoFile, http.StatusBadRequest},
	{core.ErrInvalidWeight, http.StatusBadRequest},
	{core.ErrInvalidRange, http.StatusBadRequest},
	{core.ErrInvalidPlacement, http.StatusBadRequest},
	{core.ErrInvalidRequest, http.StatusBadRequest},
}

// statusFor picks the HTTP status for err. Validation codes map to 400 and
// anything unrecognised to 500.
func statusFor(err error, code string) int {
	for _, es := range errorStatuses {
		if errors.Is(err, es.target) {
			return es.status
		}
	}
	if strings.HasPrefix(code, "VAL") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError logs the technical error server-side and writes the mapped
// user message as JSON.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	userMsg := core.MapError(err)
	status := statusFor(err, userMsg.Code)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Info("request rejected", attrs...)
	}

	writeJSON(w, r, status, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}
