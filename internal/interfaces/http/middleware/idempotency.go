package middleware

import (
	"bytes"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicely/backend/internal/infrastructure/cache"
	"github.com/invoicely/backend/internal/infrastructure/logger"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Idempotency headers
const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotencyReplayedHeader = "Idempotency-Replayed"
	maxIdempotencyKeyLength   = 255
)

// responseRecorder tees the response body so it can be stored
type responseRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *responseRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the first response recorded for an Idempotency-Key.
// Keys are scoped by user, method and route. Requests without the header
// pass through. A retry while the first request is still running gets 409.
// Server errors release the key so the client can retry. If the store is
// unreachable the request is processed without protection.
func Idempotency(store cache.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			abortWithError(c, dto.ErrCodeBadRequest, "Idempotency-Key must be at most 255 characters")
			return
		}

		ctx := c.Request.Context()
		scoped := c.GetString(logger.GinUserIDKey) + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key

		state, stored, err := store.Begin(ctx, scoped, ttl)
		if err != nil {
			logger.L(ctx).Warn("Idempotency store unavailable, processing request without it", zap.Error(err))
			c.Next()
			return
		}

		switch state {
		case cache.IdempotencyInFlight:
			abortWithError(c, dto.ErrCodeIdempotencyConflict, "A request with this Idempotency-Key is still being processed")
			return
		case cache.IdempotencyDone:
			c.Header(IdempotencyReplayedHeader, "true")
			c.Data(stored.Status, stored.ContentType, stored.Body)
			c.Abort()
			return
		}

		recorder := &responseRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder

		c.Next()

		status := recorder.Status()
		if status >= 500 {
			if err := store.Release(ctx, scoped); err != nil {
				logger.L(ctx).Warn("Failed to release idempotency key", zap.Error(err))
			}
			return
		}
		resp := cache.StoredResponse{
			Status:      status,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        recorder.body.Bytes(),
		}
		if err := store.Complete(ctx, scoped, resp, ttl); err != nil {
			logger.L(ctx).Warn("Failed to record idempotent response", zap.Error(err))
		}
	}
}
