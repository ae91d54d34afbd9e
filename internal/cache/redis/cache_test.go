package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"kundali-lab/internal/domain"
	"kundali-lab/internal/geo"
)

func setupTestRedis(t *testing.T) (*Client, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := New(ctx, ClientConfig{Addr: fmt.Sprintf("%s:%s", host, port.Port()), TTL: time.Minute})
	require.NoError(t, err)

	return client, func() {
		_ = client.Close()
		_ = container.Terminate(ctx)
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "chart:abc", chartKey("abc"))
	assert.Equal(t, "chart:short:xyz", chartShortKey("xyz"))
	assert.Equal(t, "geo:lucknow|up|india", geoKey(geo.PlaceKey(" Lucknow", "UP", "India ")))
}

func TestChartCache(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewChartCache(client)
	ctx := context.Background()

	_, ok, err := cache.GetChart(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.SetChart(ctx, "chart-1", "short-1", []byte(`{"a":1}`)))

	data, ok, err := cache.GetChart(ctx, "chart-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(data))

	id, ok, err := cache.ResolveShortID(ctx, "short-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "chart-1", id)

	ttl, err := client.Underlying().TTL(ctx, chartKey("chart-1")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestGeoCache(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	cache := NewGeoCache(client)
	ctx := context.Background()
	key := geo.PlaceKey("Lucknow", "", "India")

	_, ok, err := cache.GetPosition(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	want := domain.GeoPosition{Latitude: 26.8467, Longitude: 80.9462}
	require.NoError(t, cache.SetPosition(ctx, key, want))

	got, ok, err := cache.GetPosition(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}
