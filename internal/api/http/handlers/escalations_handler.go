package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ar-tracker/internal/api/dto"
	"github.com/spec-kit/ar-tracker/internal/escalation"
	"github.com/spec-kit/ar-tracker/internal/persistence"
	"github.com/spec-kit/ar-tracker/internal/service"
)

// EscalationsHandler exposes the monitor's latest result.
type EscalationsHandler struct {
	service *service.TicketService
	monitor *escalation.Monitor
	cache   *persistence.EscalationCache
}

// NewEscalationsHandler constructs handler. cache may be nil.
func NewEscalationsHandler(ticketService *service.TicketService, monitor *escalation.Monitor, cache *persistence.EscalationCache) *EscalationsHandler {
	return &EscalationsHandler{service: ticketService, monitor: monitor, cache: cache}
}

// List GET /escalations. Before the first local tick the Redis copy is served when present,
// otherwise the list is empty.
func (h *EscalationsHandler) List(c *fiber.Ctx) error {
	identity, err := callerFor(c, "")
	if err != nil {
		return err
	}
	resp := dto.EscalationsResponse{
		IntervalSeconds: int(h.monitor.Interval().Seconds()),
		Escalated:       []string{},
	}

	result, ok := h.monitor.Latest()
	if !ok {
		result, ok = h.cached(c)
	}
	if ok {
		computed := result.ComputedAt.UTC()
		resp.ComputedAt = &computed
		visible, err := h.service.VisibleEscalations(c.UserContext(), identity, result.Escalated)
		if err != nil {
			return err
		}
		resp.Escalated = visible
	}
	return c.JSON(fiber.Map{"data": resp})
}

func (h *EscalationsHandler) cached(c *fiber.Ctx) (escalation.Result, bool) {
	doc, found, err := h.cache.Load(c.UserContext())
	if err != nil || !found {
		return escalation.Result{}, false
	}
	set := make(escalation.Set, len(doc.Escalated))
	for _, ar := range doc.Escalated {
		set[ar] = struct{}{}
	}
	return escalation.Result{ComputedAt: doc.ComputedAt, Scanned: doc.Scanned, Escalated: set}, true
}
