package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

const CorrelationIDHeader = "X-Correlation-ID"

type ctxKey string

const (
	tenantCtxKey      ctxKey = "tenant"
	correlationCtxKey ctxKey = "correlationID"
)

// correlationMiddleware makes sure every request carries a correlation id,
// taken from the request header or generated, and echoes it in the response.
func correlationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(CorrelationIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(string(correlationCtxKey), id)
		c.Header(CorrelationIDHeader, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), correlationCtxKey, id))
		c.Next()
	}
}

func correlationID(c *gin.Context) string {
	return c.GetString(string(correlationCtxKey))
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("correlation_id", correlationID(c)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if t, ok := tenantFromContext(c.Request.Context()); ok {
			fields = append(fields, zap.String("tenant", t.Key))
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// tenantMiddleware resolves :tenantKey and stores the tenant in the request context.
func tenantMiddleware(repo tenantLookup, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.Param("tenantKey"))
		if key == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "invalid_input", Message: "tenant key required"})
			return
		}
		tenant, err := repo.GetByKey(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, errorBody{Error: "not_found", Message: "tenant not found"})
				return
			}
			log.Error("tenant lookup failed", zap.String("tenant", key), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal error"})
			return
		}
		ctx := context.WithValue(c.Request.Context(), tenantCtxKey, tenant)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func tenantFromContext(ctx context.Context) (*domain.Tenant, bool) {
	t, ok := ctx.Value(tenantCtxKey).(*domain.Tenant)
	return t, ok && t != nil
}
