package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

type errorBody struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// writeError maps service errors onto HTTP statuses. Unclassified errors are
// logged and reported as a generic 500.
func writeError(c *gin.Context, log *zap.Logger, err error) {
	body := errorBody{CorrelationID: correlationID(c)}
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, body.Error, body.Message = http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		status, body.Error, body.Message = http.StatusBadRequest, "invalid_input", err.Error()
	case errors.Is(err, domain.ErrConflict):
		status, body.Error, body.Message = http.StatusConflict, "conflict", err.Error()
	default:
		log.Error("request failed",
			zap.String("correlation_id", body.CorrelationID),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		body.Error, body.Message = "internal", "internal error"
	}
	c.AbortWithStatusJSON(status, body)
}
