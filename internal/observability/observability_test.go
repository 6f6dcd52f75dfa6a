package observability

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/ar-tracker/internal/config"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tickets", "GET", 200, 15*time.Millisecond)
	m.RecordRequest("/tickets", "GET", 200, 5*time.Millisecond)
	m.RecordError("/report", "GET", "AUTHORIZATION_DENIED")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/tickets|GET|200"])
	assert.Equal(t, int64(20), snap.RequestMillis["/tickets|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/report|GET|AUTHORIZATION_DENIED"])
	assert.Nil(t, snap.EscalatedAsOf)

	m.SetEscalated(3)
	snap = m.Snapshot()
	assert.Equal(t, int64(3), snap.Escalated)
	require.NotNil(t, snap.EscalatedAsOf)

	snap.Requests["/tickets|GET|200"] = 99
	assert.Equal(t, int64(2), m.Snapshot().Requests["/tickets|GET|200"], "snapshot is a copy")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.SetEscalated(1)
	assert.Equal(t, MetricsSnapshot{}, m.Snapshot())
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	metrics := NewMetrics()

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/tickets/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	app.Get("/boom", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusBadGateway) })

	resp, err := app.Test(httptest.NewRequest("GET", "/tickets/AR-1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	_, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/tickets/AR-1", entries[0].ContextMap()["path"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)

	assert.Equal(t, int64(1), metrics.Snapshot().Requests["/tickets/:id|GET|204"], "counted by route pattern")
}

func TestNewLoggerLevels(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "warn", Output: "stderr"}, "test")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	fallback, err := NewLogger(config.LoggerConfig{Level: "loud"}, "")
	require.NoError(t, err)
	assert.True(t, fallback.Core().Enabled(zapcore.InfoLevel))
}

func TestSetupTracingDisabledWithoutEndpoint(t *testing.T) {
	shutdown := SetupTracing(context.Background(), "test", config.TelemetryConfig{}, zap.NewNop())
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
