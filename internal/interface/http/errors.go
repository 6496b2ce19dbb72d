package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/hjun-park/backend/internal/domain/shared"
	"github.com/hjun-park/backend/pkg/circuitbreaker"
	"github.com/hjun-park/backend/pkg/logger"
)

// errorStatus maps a domain error to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case shared.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case shared.IsUnauthorized(err):
		return http.StatusUnauthorized, "unauthorized"
	case shared.IsForbidden(err):
		return http.StatusForbidden, "forbidden"
	case shared.IsValidation(err):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, shared.ErrServiceUnavailable), circuitbreaker.IsRejected(err):
		return http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, shared.ErrTimeout):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError renders err in the standard envelope. Internal errors are
// logged and replaced with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)

	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed",
			logger.Err(err),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
		)
	}
	if status == http.StatusInternalServerError {
		writeJSONError(w, r, status, code, "An unexpected error occurred")
		return
	}

	message := err.Error()
	var de *shared.DomainError
	if errors.As(err, &de) {
		message = de.Message
	}
	writeJSONErrorWithDetails(w, r, status, code, message, detailsOf(err, message))
}

func detailsOf(err error, message string) string {
	if full := err.Error(); full != message {
		return full
	}
	return ""
}
