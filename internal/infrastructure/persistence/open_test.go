package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"probaho-server/internal/infrastructure/config"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
	"probaho-server/internal/infrastructure/persistence/memory"
	"probaho-server/internal/infrastructure/resilience"
)

func testLogger() *otelinfra.Logger {
	return otelinfra.NewLoggerWithZap(noop.NewTracerProvider().Tracer("test"), nil)
}

func TestOpen_Memory(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "memory"}}

	b, err := Open(context.Background(), cfg, nil, testLogger(), nil)
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, "memory", b.Driver)
	assert.IsType(t, &memory.Store{}, b.Storage)
}

func TestOpen_RedisIsWrapped(t *testing.T) {
	// 接続はコマンド実行時まで行われない
	cfg := &config.Config{
		Storage: config.StorageConfig{Driver: "redis"},
		Redis:   config.RedisConfig{Host: "localhost", Port: 6379},
		Breaker: config.BreakerConfig{MaxFailures: 5},
	}

	b, err := Open(context.Background(), cfg, nil, testLogger(), nil)
	require.NoError(t, err)

	assert.IsType(t, &resilience.Storage{}, b.Storage)
	assert.NoError(t, b.Close())
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "sqlite"}}

	_, err := Open(context.Background(), cfg, nil, testLogger(), nil)
	assert.Error(t, err)
}
