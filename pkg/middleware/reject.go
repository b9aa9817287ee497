package middleware

import (
	"net/http"
	apperrors "roombook/pkg/errors"
	httputil "roombook/pkg/http"
	"roombook/pkg/logger"
)

// reject writes err in the standard error envelope. Middleware never has a
// caller to return to, so a failed write is only logged.
func reject(w http.ResponseWriter, log *logger.Logger, r *http.Request, err *apperrors.AppError) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil && log != nil {
		log.Error("failed to write error response",
			"request_id", RequestIDFromContext(r.Context()),
			"operation", "WriteError",
			"error", writeErr,
		)
	}
}
