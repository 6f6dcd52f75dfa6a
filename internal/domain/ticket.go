package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/spec-kit/ar-tracker/pkg/util/errorutil"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusAssigned   TicketStatus = "Assigned"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusPending    TicketStatus = "Pending"
	TicketStatusResolved   TicketStatus = "Resolved"
	TicketStatusClosed     TicketStatus = "Closed"
)

// InitialStatus is assigned to every newly created ticket.
const InitialStatus = TicketStatusAssigned

// Statuses lists the recognized labels in workflow order.
var Statuses = []TicketStatus{
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusPending,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid reports whether s is one of the recognized labels.
func (s TicketStatus) Valid() bool {
	for _, candidate := range Statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStatus validates a raw label.
func ParseStatus(raw string) (TicketStatus, error) {
	status := TicketStatus(raw)
	if !status.Valid() {
		return "", apperrors.NewInvalidStatus(raw)
	}
	return status, nil
}

// TicketPriority is informational and does not drive any logic.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "Low"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityVeryHigh TicketPriority = "Very High"

	TicketPriorityP1 TicketPriority = "P1"
	TicketPriorityP2 TicketPriority = "P2"
	TicketPriorityP3 TicketPriority = "P3"
)

// DefaultPriority is used when a ticket is filed without one.
const DefaultPriority = TicketPriorityMedium

// Priorities lists both profiles in display order.
var Priorities = []TicketPriority{
	TicketPriorityVeryHigh, TicketPriorityHigh, TicketPriorityMedium, TicketPriorityLow,
	TicketPriorityP1, TicketPriorityP2, TicketPriorityP3,
}

// Valid reports whether p belongs to either priority profile.
func (p TicketPriority) Valid() bool {
	for _, known := range Priorities {
		if p == known {
			return true
		}
	}
	return false
}

// Ticket is the canonical Action Request record.
//
// UpdatedAt is nil for historical records written before the field existed;
// ClockAnchor falls back to CreatedAt for those.
type Ticket struct {
	ARNumber          string
	Title             string
	Description       string
	Product           string
	SubProduct        string
	Severity          string
	Priority          TicketPriority
	Status            TicketStatus
	RequestorID       string
	RequestorUsername string
	Assignee          string
	AssigneeEmail     string
	ProgressLog       []string
	ResolutionNotes   string
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

// ClockAnchor returns the instant the escalation clock counts from.
func (t *Ticket) ClockAnchor() time.Time {
	if t.UpdatedAt != nil {
		return *t.UpdatedAt
	}
	return t.CreatedAt
}

// Touch records an accepted change at the given instant.
func (t *Ticket) Touch(at time.Time) {
	at = at.UTC()
	t.UpdatedAt = &at
}

// SetProduct changes the product. Any other product invalidates the chosen sub-product, even
// when the new product lists one with the same name.
func (t *Ticket) SetProduct(product string) {
	product = strings.TrimSpace(product)
	if product != t.Product {
		t.SubProduct = ""
	}
	t.Product = product
}

// SetSubProduct assigns a sub-product after checking it against the current product.
func (t *Ticket) SetSubProduct(subProduct string, catalog *Catalog) error {
	subProduct = strings.TrimSpace(subProduct)
	if subProduct == "" {
		t.SubProduct = ""
		return nil
	}
	if !catalog.Contains(t.Product, subProduct) {
		return apperrors.NewValidationError("sub-product does not belong to product", map[string]any{
			"product":    t.Product,
			"subProduct": subProduct,
		})
	}
	t.SubProduct = subProduct
	return nil
}

// Validate checks the invariants a persisted ticket must satisfy.
func (t *Ticket) Validate(catalog *Catalog) error {
	missing := []string{}
	if t.ARNumber == "" {
		missing = append(missing, "arNumber")
	}
	if strings.TrimSpace(t.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(t.Description) == "" {
		missing = append(missing, "description")
	}
	if t.Product == "" {
		missing = append(missing, "product")
	}
	if t.SubProduct == "" {
		missing = append(missing, "subProduct")
	}
	if strings.TrimSpace(t.Severity) == "" {
		missing = append(missing, "severity")
	}
	if t.RequestorID == "" {
		missing = append(missing, "requestorId")
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}
	if !catalog.HasProduct(t.Product) {
		return apperrors.NewValidationError("unknown product", map[string]any{"product": t.Product})
	}
	if !catalog.Contains(t.Product, t.SubProduct) {
		return apperrors.NewValidationError("sub-product does not belong to product", map[string]any{
			"product":    t.Product,
			"subProduct": t.SubProduct,
		})
	}
	if !t.Priority.Valid() {
		return apperrors.NewValidationError("unknown priority", map[string]any{"priority": t.Priority})
	}
	if !t.Status.Valid() {
		return apperrors.NewInvalidStatus(string(t.Status))
	}
	return nil
}

// IsParticipant reports whether the identity owns or is assigned to the ticket.
func (t *Ticket) IsParticipant(auth AuthContext) bool {
	if auth.UserID != "" && t.RequestorID == auth.UserID {
		return true
	}
	if t.Assignee != "" && auth.Username != "" && t.Assignee == auth.Username {
		return true
	}
	if t.AssigneeEmail != "" && auth.Email != "" && strings.EqualFold(t.AssigneeEmail, auth.Email) {
		return true
	}
	return false
}

// Clone returns a deep copy so callers can stage edits without touching a snapshot.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	cp := *t
	cp.ProgressLog = append([]string(nil), t.ProgressLog...)
	if t.UpdatedAt != nil {
		updated := *t.UpdatedAt
		cp.UpdatedAt = &updated
	}
	return &cp
}

// NewARNumber generates an AR number from the creation instant and a random suffix.
func NewARNumber(at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("AR-%d-%s", at.UnixMilli(), suffix)
}
