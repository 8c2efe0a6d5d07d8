//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisIdempotencyStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	client, err := NewRedisClient(ctx, startRedis(t), "", 0)
	require.NoError(t, err)
	store := NewRedisIdempotencyStore(client, "test:")
	defer store.Close()

	state, _, err := store.Begin(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, IdempotencyNew, state)

	state, _, err = store.Begin(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, IdempotencyInFlight, state)

	require.NoError(t, store.Release(ctx, "k"))
	state, _, err = store.Begin(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, IdempotencyNew, state)

	require.NoError(t, store.Complete(ctx, "k", StoredResponse{Status: 201, Body: []byte(`{"id":1}`)}, time.Minute))
	require.NoError(t, store.Release(ctx, "k"))

	state, resp, err := store.Begin(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, IdempotencyDone, state)
	require.NotNil(t, resp)
	assert.Equal(t, 201, resp.Status)
	assert.JSONEq(t, `{"id":1}`, string(resp.Body))
}
