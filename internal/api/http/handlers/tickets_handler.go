package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ar-tracker/internal/api/dto"
	"github.com/spec-kit/ar-tracker/internal/auth"
	"github.com/spec-kit/ar-tracker/internal/domain"
	"github.com/spec-kit/ar-tracker/internal/search"
	"github.com/spec-kit/ar-tracker/internal/service"
	apperrors "github.com/spec-kit/ar-tracker/pkg/util/errorutil"
)

// TicketsHandler serves the ticket store endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /tickets?userId=&role=.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	identity, err := callerFor(c, c.Query("userId"))
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), identity, c.Query("userId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTickets(tickets)})
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	identity, err := callerFor(c, req.UserID)
	if err != nil {
		return err
	}
	if req.UserID != "" && req.UserID != identity.UserID {
		return apperrors.NewAuthorizationDenied("tickets are filed as the authenticated user")
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), identity, req.ToCreateInput())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// Search GET /search?<criteria>&role=.
func (h *TicketsHandler) Search(c *fiber.Ctx) error {
	identity, err := callerFor(c, "")
	if err != nil {
		return err
	}
	criteria, err := search.FromValues(func(key string) string { return c.Query(key) })
	if err != nil {
		return err
	}
	limit, offset := pageBounds(c)
	tickets, err := h.service.SearchTickets(c.UserContext(), identity, criteria, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTickets(tickets)})
}

// GetDetails GET /ticketdetails?arNumber=&userId=.
func (h *TicketsHandler) GetDetails(c *fiber.Ctx) error {
	identity, err := callerFor(c, c.Query("userId"))
	if err != nil {
		return err
	}
	ticket, err := h.service.GetDetails(c.UserContext(), identity, c.Query("arNumber"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// SaveDetails POST /ticketdetails.
func (h *TicketsHandler) SaveDetails(c *fiber.Ctx) error {
	var req dto.SaveTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	identity, err := callerFor(c, req.UserID)
	if err != nil {
		return err
	}
	ticket, err := h.service.SaveDetails(c.UserContext(), identity, req.ToSaveInput())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// ChangeStatus POST /tickets/:arNumber/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	identity, err := callerFor(c, "")
	if err != nil {
		return err
	}
	var req dto.StatusChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.ChangeStatus(c.UserContext(), identity, c.Params("arNumber"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// Report GET /report.
func (h *TicketsHandler) Report(c *fiber.Ctx) error {
	identity, err := callerFor(c, "")
	if err != nil {
		return err
	}
	criteria, err := search.FromValues(func(key string) string { return c.Query(key) })
	if err != nil {
		return err
	}
	report, err := h.service.GenerateReport(c.UserContext(), identity, criteria)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromReport(report)})
}

// Catalog GET /catalog.
func (h *TicketsHandler) Catalog(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.service.Catalog().Products()})
}

// callerFor returns the authenticated identity and rejects a requester naming another user.
func callerFor(c *fiber.Ctx, userID string) (domain.AuthContext, error) {
	identity, ok := auth.AuthFromContext(c)
	if !ok {
		return domain.AuthContext{}, apperrors.NewUnauthorized("authentication required")
	}
	if userID != "" && userID != identity.UserID && !identity.IsStaff() {
		return domain.AuthContext{}, apperrors.NewAuthorizationDenied("userId does not match the authenticated user")
	}
	return identity, nil
}

func pageBounds(c *fiber.Ctx) (limit, offset int) {
	pageSize := parseInt(c.Query("page_size"), 0)
	if pageSize == 0 {
		return 0, 0
	}
	page := parseInt(c.Query("page"), 1)
	return pageSize, (page - 1) * pageSize
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
