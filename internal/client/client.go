// Package client talks to the ticket store over HTTP. It never retries and never mutates
// caller state; Session layers the per-user snapshot on top.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ar-tracker/internal/api/dto"
	"github.com/spec-kit/ar-tracker/internal/domain"
	"github.com/spec-kit/ar-tracker/internal/search"
	apperrors "github.com/spec-kit/ar-tracker/pkg/util/errorutil"
)

// DefaultTimeout bounds a single request when none is configured.
const DefaultTimeout = 10 * time.Second

// Client is a thin wrapper over the ticket store endpoints.
type Client struct {
	baseURL string
	token   string
	timeout time.Duration
}

// New builds a client for baseURL authenticating with a bearer token.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token, timeout: timeout}
}

// Token returns the bearer token.
func (c *Client) Token() string {
	return c.token
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Code  string          `json:"code"`
}

// ListTickets GET /tickets.
func (c *Client) ListTickets(ctx context.Context, userID string, role domain.Role) ([]domain.Ticket, error) {
	q := url.Values{}
	if userID != "" {
		q.Set("userId", userID)
	}
	if role != "" {
		q.Set("role", string(role))
	}
	var out []dto.Ticket
	if err := c.do(ctx, fiber.MethodGet, "/tickets", q, nil, &out); err != nil {
		return nil, err
	}
	return toDomain(out), nil
}

// CreateTicket POST /tickets.
func (c *Client) CreateTicket(ctx context.Context, req dto.CreateTicketRequest) (*domain.Ticket, error) {
	var out dto.Ticket
	if err := c.do(ctx, fiber.MethodPost, "/tickets", nil, req, &out); err != nil {
		return nil, err
	}
	ticket := out.ToDomain()
	return &ticket, nil
}

// Search GET /search.
func (c *Client) Search(ctx context.Context, criteria search.Criteria, role domain.Role) ([]domain.Ticket, error) {
	q := criteria.Values()
	if role != "" {
		q.Set("role", string(role))
	}
	var out []dto.Ticket
	if err := c.do(ctx, fiber.MethodGet, "/search", q, nil, &out); err != nil {
		return nil, err
	}
	return toDomain(out), nil
}

// GetDetails GET /ticketdetails.
func (c *Client) GetDetails(ctx context.Context, arNumber, userID string) (*domain.Ticket, error) {
	q := url.Values{"arNumber": {arNumber}}
	if userID != "" {
		q.Set("userId", userID)
	}
	var out dto.Ticket
	if err := c.do(ctx, fiber.MethodGet, "/ticketdetails", q, nil, &out); err != nil {
		return nil, err
	}
	ticket := out.ToDomain()
	return &ticket, nil
}

// SaveDetails POST /ticketdetails.
func (c *Client) SaveDetails(ctx context.Context, req dto.SaveTicketRequest) (*domain.Ticket, error) {
	var out dto.Ticket
	if err := c.do(ctx, fiber.MethodPost, "/ticketdetails", nil, req, &out); err != nil {
		return nil, err
	}
	ticket := out.ToDomain()
	return &ticket, nil
}

// ChangeStatus POST /tickets/:arNumber/status.
func (c *Client) ChangeStatus(ctx context.Context, arNumber, status string) (*domain.Ticket, error) {
	var out dto.Ticket
	path := "/tickets/" + url.PathEscape(arNumber) + "/status"
	if err := c.do(ctx, fiber.MethodPost, path, nil, dto.StatusChangeRequest{Status: status}, &out); err != nil {
		return nil, err
	}
	ticket := out.ToDomain()
	return &ticket, nil
}

// Report GET /report.
func (c *Client) Report(ctx context.Context, criteria search.Criteria) (*dto.ReportResponse, error) {
	var out dto.ReportResponse
	if err := c.do(ctx, fiber.MethodGet, "/report", criteria.Values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Escalations GET /escalations.
func (c *Client) Escalations(ctx context.Context) (*dto.EscalationsResponse, error) {
	var out dto.EscalationsResponse
	if err := c.do(ctx, fiber.MethodGet, "/escalations", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Catalog GET /catalog.
func (c *Client) Catalog(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.do(ctx, fiber.MethodGet, "/catalog", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewRemoteUnavailable("request cancelled", 0, err)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	var agent *fiber.Agent
	switch method {
	case fiber.MethodPost:
		agent = fiber.Post(c.baseURL + path)
	default:
		agent = fiber.Get(c.baseURL + path)
	}
	agent.Timeout(timeout)
	if c.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	if len(query) > 0 {
		agent.QueryString(query.Encode())
	}
	if body != nil {
		agent.JSON(body)
	}

	status, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		return apperrors.NewRemoteUnavailable(fmt.Sprintf("%s %s failed", method, path), 0, errs[0])
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if status < 200 || status >= 300 {
			return apperrors.NewRemoteRejection(status, "", "")
		}
		return apperrors.NewRemoteUnavailable("malformed response", status, err)
	}
	if status < 200 || status >= 300 {
		return apperrors.NewRemoteRejection(status, env.Code, env.Error)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperrors.NewRemoteUnavailable("malformed response", status, err)
	}
	return nil
}

func toDomain(tickets []dto.Ticket) []domain.Ticket {
	out := make([]domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ToDomain())
	}
	return out
}
