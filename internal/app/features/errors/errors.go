// Package errors maps journal errors to JSON HTTP responses.
//
// Body shape:
//
//	{"error":{"code":"USER_ALREADY_INVITED","message":"..."}}
package errors

import (
	"net/http"

	"github.com/dalemusser/tripjournal/internal/domain/journalerr"
	"go.uber.org/zap"
)

// Status returns the HTTP status for err.
func Status(err error) int {
	switch journalerr.KindOf(err) {
	case journalerr.KindNotFound:
		return http.StatusNotFound
	case journalerr.KindForbidden:
		return http.StatusForbidden
	case journalerr.KindConflict:
		return http.StatusConflict
	case journalerr.KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ErrorLogger writes error responses and logs the ones that are not the
// caller's fault.
type ErrorLogger struct {
	Log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

// Write renders err. Internal errors are logged with the request path and
// reported to the client without detail.
func (e *ErrorLogger) Write(w http.ResponseWriter, r *http.Request, err error) {
	status := Status(err)
	if status == http.StatusInternalServerError {
		e.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		RenderError(w, status, "INTERNAL", "internal error")
		return
	}
	RenderError(w, status, journalerr.CodeOf(err), err.Error())
}
