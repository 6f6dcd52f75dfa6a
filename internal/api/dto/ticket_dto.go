package dto

import (
	"time"

	"github.com/spec-kit/ar-tracker/internal/domain"
	"github.com/spec-kit/ar-tracker/internal/service"
)

// CreateTicketRequest payload. ARNumber is optional; the store generates one when empty.
type CreateTicketRequest struct {
	ARNumber      string                `json:"arNumber,omitempty"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Product       string                `json:"product"`
	SubProduct    string                `json:"subProduct"`
	Severity      string                `json:"severity"`
	Priority      domain.TicketPriority `json:"priority,omitempty"`
	Assignee      string                `json:"assignee,omitempty"`
	AssigneeEmail string                `json:"assigneeEmail,omitempty"`
	UserID        string                `json:"userId,omitempty"`
}

// SaveTicketRequest is the body of POST /ticketdetails.
type SaveTicketRequest struct {
	ARNumber        string   `json:"arNumber"`
	Status          string   `json:"status,omitempty"`
	Priority        string   `json:"priority,omitempty"`
	Severity        string   `json:"severity,omitempty"`
	Title           *string  `json:"title,omitempty"`
	Description     *string  `json:"description,omitempty"`
	ProgressLog     []string `json:"progressLog,omitempty"`
	ResolutionNotes *string  `json:"resolutionNotes,omitempty"`
	UserID          string   `json:"userId,omitempty"`
}

// StatusChangeRequest is the body of POST /tickets/:arNumber/status.
type StatusChangeRequest struct {
	Status string `json:"status"`
}

// Ticket is the wire form of a ticket.
type Ticket struct {
	ARNumber          string                `json:"arNumber"`
	Title             string                `json:"title"`
	Description       string                `json:"description"`
	Product           string                `json:"product"`
	SubProduct        string                `json:"subProduct"`
	Severity          string                `json:"severity"`
	Priority          domain.TicketPriority `json:"priority"`
	Status            domain.TicketStatus   `json:"status"`
	RequestorID       string                `json:"requestorId"`
	RequestorUsername string                `json:"requestorUsername"`
	Assignee          string                `json:"assignee,omitempty"`
	AssigneeEmail     string                `json:"assigneeEmail,omitempty"`
	ProgressLog       []string              `json:"progressLog"`
	ResolutionNotes   string                `json:"resolutionNotes,omitempty"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         *time.Time            `json:"updatedAt,omitempty"`
}

// EscalationsResponse lists the escalated AR numbers visible to the caller.
type EscalationsResponse struct {
	ComputedAt      *time.Time `json:"computedAt,omitempty"`
	IntervalSeconds int        `json:"intervalSeconds"`
	Escalated       []string   `json:"escalated"`
}

// ReportResponse is the staff report.
type ReportResponse struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Total       int            `json:"total"`
	ByStatus    map[string]int `json:"byStatus"`
	Rows        []ReportRow    `json:"rows"`
}

// ReportRow is one report line.
type ReportRow struct {
	ARNumber  string `json:"arNumber"`
	Requestor string `json:"requestor"`
	Title     string `json:"title"`
	Status    string `json:"status"`
}

// FromTicket converts a domain ticket.
func FromTicket(t *domain.Ticket) Ticket {
	log := t.ProgressLog
	if log == nil {
		log = []string{}
	}
	return Ticket{
		ARNumber:          t.ARNumber,
		Title:             t.Title,
		Description:       t.Description,
		Product:           t.Product,
		SubProduct:        t.SubProduct,
		Severity:          t.Severity,
		Priority:          t.Priority,
		Status:            t.Status,
		RequestorID:       t.RequestorID,
		RequestorUsername: t.RequestorUsername,
		Assignee:          t.Assignee,
		AssigneeEmail:     t.AssigneeEmail,
		ProgressLog:       log,
		ResolutionNotes:   t.ResolutionNotes,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

// FromTickets converts a slice.
func FromTickets(tickets []domain.Ticket) []Ticket {
	out := make([]Ticket, 0, len(tickets))
	for i := range tickets {
		out = append(out, FromTicket(&tickets[i]))
	}
	return out
}

// ToDomain converts back to the domain record. Timestamps are normalized to UTC.
func (t Ticket) ToDomain() domain.Ticket {
	ticket := domain.Ticket{
		ARNumber:          t.ARNumber,
		Title:             t.Title,
		Description:       t.Description,
		Product:           t.Product,
		SubProduct:        t.SubProduct,
		Severity:          t.Severity,
		Priority:          t.Priority,
		Status:            t.Status,
		RequestorID:       t.RequestorID,
		RequestorUsername: t.RequestorUsername,
		Assignee:          t.Assignee,
		AssigneeEmail:     t.AssigneeEmail,
		ProgressLog:       append([]string(nil), t.ProgressLog...),
		ResolutionNotes:   t.ResolutionNotes,
		CreatedAt:         t.CreatedAt.UTC(),
	}
	if t.UpdatedAt != nil {
		ticket.Touch(*t.UpdatedAt)
	}
	return ticket
}

// ToCreateInput maps the request to the service input.
func (r CreateTicketRequest) ToCreateInput() service.TicketCreateInput {
	return service.TicketCreateInput{
		ARNumber:      r.ARNumber,
		Title:         r.Title,
		Description:   r.Description,
		Product:       r.Product,
		SubProduct:    r.SubProduct,
		Severity:      r.Severity,
		Priority:      r.Priority,
		Assignee:      r.Assignee,
		AssigneeEmail: r.AssigneeEmail,
	}
}

// ToSaveInput maps the request to the service input.
func (r SaveTicketRequest) ToSaveInput() service.TicketSaveInput {
	return service.TicketSaveInput{
		ARNumber:        r.ARNumber,
		Status:          r.Status,
		Priority:        r.Priority,
		Severity:        r.Severity,
		Title:           r.Title,
		Description:     r.Description,
		ProgressLog:     r.ProgressLog,
		ResolutionNotes: r.ResolutionNotes,
	}
}

// FromReport converts the service report.
func FromReport(r *service.Report) ReportResponse {
	resp := ReportResponse{
		GeneratedAt: r.GeneratedAt,
		Total:       r.Total,
		ByStatus:    make(map[string]int, len(r.ByStatus)),
		Rows:        make([]ReportRow, 0, len(r.Rows)),
	}
	for status, n := range r.ByStatus {
		resp.ByStatus[string(status)] = n
	}
	for _, row := range r.Rows {
		resp.Rows = append(resp.Rows, ReportRow{
			ARNumber:  row.ARNumber,
			Requestor: row.Requestor,
			Title:     row.Title,
			Status:    string(row.Status),
		})
	}
	return resp
}
