package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ar-tracker/internal/domain"
	"github.com/spec-kit/ar-tracker/internal/escalation"
)

func readiness(t *testing.T, h *HealthHandler) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/ready", h.Ready)

	resp, err := app.Test(httptest.NewRequest("GET", "/ready", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestReadyWithoutStores(t *testing.T) {
	status, body := readiness(t, NewHealthHandler("svc", "dev", nil, nil, nil))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "not configured (in-memory store)", deps["postgres"])
	assert.Equal(t, "not configured", deps["redis"])
	assert.NotContains(t, deps, "escalation_monitor")
}

func TestReadyReportsMonitor(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tickets := []domain.Ticket{{
		ARNumber:  "AR-1",
		Status:    domain.TicketStatusInProgress,
		Severity:  "1 hour",
		CreatedAt: now.Add(-2 * time.Hour),
	}}
	monitor := escalation.NewMonitor(
		escalation.SourceFunc(func(context.Context) ([]domain.Ticket, error) { return tickets, nil }),
		escalation.MonitorOptions{Interval: 30 * time.Second, Now: func() time.Time { return now }},
	)
	h := NewHealthHandler("svc", "dev", nil, nil, monitor)

	_, body := readiness(t, h)
	state := body["dependencies"].(map[string]any)["escalation_monitor"].(map[string]any)
	assert.Equal(t, "pending", state["state"])
	assert.EqualValues(t, 30, state["intervalSeconds"])

	_, err := monitor.Tick(context.Background())
	require.NoError(t, err)

	status, body := readiness(t, h)
	assert.Equal(t, fiber.StatusOK, status)
	state = body["dependencies"].(map[string]any)["escalation_monitor"].(map[string]any)
	assert.Equal(t, "running", state["state"])
	assert.EqualValues(t, 1, state["scanned"])
	assert.EqualValues(t, 1, state["escalated"])
}
