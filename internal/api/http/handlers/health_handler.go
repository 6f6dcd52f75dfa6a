package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ar-tracker/internal/escalation"
	"github.com/spec-kit/ar-tracker/internal/persistence"
)

const readyProbeTimeout = 2 * time.Second

type probe struct {
	name    string
	absent  string
	enabled bool
	ping    func(context.Context) error
}

// HealthHandler answers liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	probes      []probe
	monitor     *escalation.Monitor
}

// NewHealthHandler builds the probe set. Stores that are nil are reported as absent and never
// fail readiness; the monitor is informational.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis, monitor *escalation.Monitor) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		monitor:     monitor,
		probes: []probe{
			{
				name:    "postgres",
				absent:  "not configured (in-memory store)",
				enabled: postgres.PoolHandle() != nil,
				ping:    postgres.Ping,
			},
			{
				name:    "redis",
				absent:  "not configured",
				enabled: redis != nil,
				ping:    redis.Ping,
			},
		},
	}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready pings every configured store.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readyProbeTimeout)
	defer cancel()

	deps := fiber.Map{}
	failed := 0
	for _, p := range h.probes {
		if !p.enabled {
			deps[p.name] = p.absent
			continue
		}
		if err := p.ping(ctx); err != nil {
			deps[p.name] = err.Error()
			failed++
			continue
		}
		deps[p.name] = "ok"
	}
	if h.monitor != nil {
		deps["escalation_monitor"] = h.monitorState()
	}

	if failed > 0 {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error":        "one or more dependencies unavailable",
			"code":         "DEPENDENCY_UNAVAILABLE",
			"details":      fiber.Map{"failed": failed},
			"dependencies": deps,
		})
	}
	return c.JSON(fiber.Map{
		"status":       "ready",
		"dependencies": deps,
	})
}

func (h *HealthHandler) monitorState() fiber.Map {
	state := fiber.Map{"intervalSeconds": int(h.monitor.Interval() / time.Second)}
	r, ok := h.monitor.Latest()
	if !ok {
		state["state"] = "pending"
		return state
	}
	state["state"] = "running"
	state["computedAt"] = r.ComputedAt.UTC()
	state["scanned"] = r.Scanned
	state["escalated"] = len(r.Escalated)
	return state
}
