package middleware

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/procura/backend/internal/infrastructure/cache"
)

const (
	// IdempotencyKeyHeader carries the client-chosen dedup key
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotentReplayHeader marks a response served from capture
	IdempotentReplayHeader = "X-Idempotent-Replay"
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	// Store persists first-response captures and in-flight locks
	Store *cache.IdempotencyStore
	// Logger for middleware logging
	Logger *zap.Logger
}

// IdempotencyMiddleware replays the captured response for duplicate
// mutating requests carrying the same Idempotency-Key. A duplicate that
// arrives while the first request is still executing is rejected with 409
// rather than run twice. Requests without the header pass through
func IdempotencyMiddleware(store *cache.IdempotencyStore) gin.HandlerFunc {
	return IdempotencyMiddlewareWithConfig(IdempotencyConfig{Store: store})
}

// mutatingMethods are the methods the Idempotency-Key contract covers.
// GET and HEAD are safe to repeat and never deduplicated
var mutatingMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// IdempotencyMiddlewareWithConfig creates idempotency middleware with custom config
func IdempotencyMiddlewareWithConfig(cfg IdempotencyConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !mutatingMethods[c.Request.Method] {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		tenantID, err := GetTenantUUID(c)
		if err != nil || tenantID == uuid.Nil {
			// Keys are scoped per tenant; without one there is nothing to
			// deduplicate against
			c.Next()
			return
		}

		ctx := c.Request.Context()

		stored, err := cfg.Store.Get(ctx, tenantID, key)
		if err != nil {
			// Fail open: a Redis blip must not block writes
			if cfg.Logger != nil {
				cfg.Logger.Warn("Idempotency capture lookup failed, executing request",
					zap.String("idempotency_key", key),
					zap.Error(err))
			}
			c.Next()
			return
		}
		if stored != nil {
			replayStored(c, stored)
			return
		}

		acquired, err := cfg.Store.Lock(ctx, tenantID, key)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Idempotency lock failed, executing request",
					zap.String("idempotency_key", key),
					zap.Error(err))
			}
			c.Next()
			return
		}
		if !acquired {
			// The first submission may have completed between our Get and
			// the lock attempt; replay it if so
			if stored, err := cfg.Store.Get(ctx, tenantID, key); err == nil && stored != nil {
				replayStored(c, stored)
				return
			}
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "IDEMPOTENT_REQUEST_IN_FLIGHT",
					"message": "A request with this idempotency key is already being processed",
				},
			})
			return
		}

		capture := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = capture

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusInternalServerError {
			// Server errors stay uncaptured so the client's retry actually
			// retries
			resp := &cache.StoredResponse{
				Status:      status,
				ContentType: c.Writer.Header().Get("Content-Type"),
				Body:        capture.body.Bytes(),
			}
			if err := cfg.Store.Store(ctx, tenantID, key, resp); err != nil && cfg.Logger != nil {
				cfg.Logger.Warn("Failed to capture idempotent response",
					zap.String("idempotency_key", key),
					zap.Error(err))
			}
		}

		if err := cfg.Store.Unlock(ctx, tenantID, key); err != nil && cfg.Logger != nil {
			cfg.Logger.Warn("Failed to release idempotency lock",
				zap.String("idempotency_key", key),
				zap.Error(err))
		}
	}
}

// replayStored writes the captured response verbatim
func replayStored(c *gin.Context, stored *cache.StoredResponse) {
	c.Header(IdempotentReplayHeader, "true")
	contentType := stored.ContentType
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Data(stored.Status, contentType, stored.Body)
	c.Abort()
}

// captureWriter tees the response body so it can be stored for replay
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
