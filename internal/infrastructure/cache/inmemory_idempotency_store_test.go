package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/invoicely/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_Lifecycle(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	state, resp, err := store.Begin(ctx, "user-1:key-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, IdempotencyNew, state)
	assert.Nil(t, resp)

	state, _, err = store.Begin(ctx, "user-1:key-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, IdempotencyInFlight, state)

	body := []byte(`{"success":true}`)
	require.NoError(t, store.Complete(ctx, "user-1:key-1", StoredResponse{
		Status:      201,
		ContentType: "application/json",
		Body:        body,
	}, time.Hour))
	body[0] = 'X'

	state, resp, err = store.Begin(ctx, "user-1:key-1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, IdempotencyDone, state)
	require.NotNil(t, resp)
	assert.Equal(t, 201, resp.Status)
	assert.Equal(t, `{"success":true}`, string(resp.Body))
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, _, err := store.Begin(ctx, "k", time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "k"))

	state, _, err := store.Begin(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, IdempotencyNew, state, "released key can be claimed again")

	require.NoError(t, store.Complete(ctx, "k", StoredResponse{Status: 200}, time.Hour))
	require.NoError(t, store.Release(ctx, "k"))
	state, _, err = store.Begin(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, IdempotencyDone, state, "release never drops a recorded response")
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Complete(ctx, "k", StoredResponse{Status: 201}, time.Minute))

	now = now.Add(2 * time.Minute)
	state, _, err := store.Begin(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, IdempotencyNew, state)

	now = now.Add(2 * time.Minute)
	store.cleanup()
	assert.Equal(t, 0, store.Size())
}

func TestInMemoryIdempotencyStore_ConcurrentBegin(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, _, err := store.Begin(ctx, "same", time.Hour)
			if err == nil && state == IdempotencyNew {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func TestInMemoryIdempotencyStore_EmptyKey(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	_, _, err := store.Begin(context.Background(), "", time.Hour)
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.ErrorIs(t, store.Complete(context.Background(), "", StoredResponse{}, time.Hour), ErrEmptyKey)
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := newInMemoryIdempotencyStore(time.Millisecond)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestIdempotencyStoreFactory_RedisDisabled(t *testing.T) {
	f := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: false})
	store, err := f.CreateStore(context.Background())
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}

func TestIdempotencyStoreFactory_FallbackControl(t *testing.T) {
	unreachable := config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

	store, err := NewIdempotencyStoreFactory(unreachable).CreateStore(context.Background())
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)

	_, err = NewIdempotencyStoreFactory(unreachable, WithInMemoryFallback(false)).CreateStore(context.Background())
	assert.Error(t, err)
}

func TestResponseCodec(t *testing.T) {
	raw, err := encodeResponse(StoredResponse{Status: 201, ContentType: "application/json", Body: []byte(`{}`)})
	require.NoError(t, err)

	resp, err := decodeResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.Status)
	assert.Equal(t, []byte(`{}`), resp.Body)

	_, err = decodeResponse(pendingMarker)
	assert.Error(t, err)
}
