package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicely/backend/internal/infrastructure/cache"
	"github.com/invoicely/backend/internal/infrastructure/logger"
	"github.com/invoicely/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdempotentRouter(store cache.IdempotencyStore, calls *int32, status int) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(logger.GinUserIDKey, c.GetHeader("X-Test-User"))
		c.Next()
	})
	router.POST("/api/v1/invoices", Idempotency(store, time.Minute), func(c *gin.Context) {
		n := atomic.AddInt32(calls, 1)
		c.JSON(status, gin.H{"call": n})
	})
	return router
}

func postWithKey(router *gin.Engine, user, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices", nil)
	req.Header.Set("X-Test-User", user)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_ReplaysFirstResponse(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls int32
	router := newIdempotentRouter(store, &calls, http.StatusCreated)

	first := postWithKey(router, "alice", "key-1")
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(IdempotencyReplayedHeader))

	second := postWithKey(router, "alice", "key-1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(IdempotencyReplayedHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Contains(t, second.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIdempotency_KeysAreScopedPerUser(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls int32
	router := newIdempotentRouter(store, &calls, http.StatusCreated)

	postWithKey(router, "alice", "shared-key")
	postWithKey(router, "bob", "shared-key")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotency_WithoutHeaderAlwaysRuns(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls int32
	router := newIdempotentRouter(store, &calls, http.StatusCreated)

	postWithKey(router, "alice", "")
	postWithKey(router, "alice", "")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotency_ServerErrorReleasesKey(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls int32
	router := newIdempotentRouter(store, &calls, http.StatusInternalServerError)

	postWithKey(router, "alice", "key-1")
	postWithKey(router, "alice", "key-1")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotency_InFlightConflict(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls int32
	router := newIdempotentRouter(store, &calls, http.StatusCreated)

	_, _, err := store.Begin(context.Background(), "alice:POST:/api/v1/invoices:key-1", time.Minute)
	require.NoError(t, err)

	rec := postWithKey(router, "alice", "key-1")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, dto.ErrCodeIdempotencyConflict, decodeError(t, rec).Code)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestIdempotency_KeyTooLong(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	var calls int32
	router := newIdempotentRouter(store, &calls, http.StatusCreated)

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'k'
	}
	rec := postWithKey(router, "alice", string(long))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

type failingStore struct{}

func (failingStore) Begin(context.Context, string, time.Duration) (cache.IdempotencyState, *cache.StoredResponse, error) {
	return cache.IdempotencyNew, nil, errors.New("redis down")
}
func (failingStore) Complete(context.Context, string, cache.StoredResponse, time.Duration) error {
	return nil
}
func (failingStore) Release(context.Context, string) error { return nil }
func (failingStore) Close() error                          { return nil }

func TestIdempotency_StoreFailureFailsOpen(t *testing.T) {
	var calls int32
	router := newIdempotentRouter(failingStore{}, &calls, http.StatusCreated)

	assert.Equal(t, http.StatusCreated, postWithKey(router, "alice", "key-1").Code)
	assert.Equal(t, http.StatusCreated, postWithKey(router, "alice", "key-1").Code)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
