// Package lifecycle applies status transitions and field edits to a ticket and keeps its
// audit trail. Any status is reachable from any other; Closed is terminal only by convention.
package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/ar-tracker/internal/access"
	"github.com/spec-kit/ar-tracker/internal/domain"
	apperrors "github.com/spec-kit/ar-tracker/pkg/util/errorutil"
)

// TimestampLayout formats the bracketed instant at the start of each audit line.
const TimestampLayout = time.RFC3339

// StatusChangeEntry renders the audit line for a transition. old may be empty.
func StatusChangeEntry(old, next domain.TicketStatus, at time.Time) string {
	ts := at.UTC().Format(TimestampLayout)
	if old == "" {
		return fmt.Sprintf("[%s] Status changed to %q.", ts, string(next))
	}
	return fmt.Sprintf("[%s] Status changed from %q to %q.", ts, string(old), string(next))
}

// ChangeStatus validates newStatus, appends exactly one audit entry, sets the status and
// advances UpdatedAt. On error the ticket is left untouched.
func ChangeStatus(t *domain.Ticket, newStatus string, actor domain.AuthContext, at time.Time) error {
	next, err := domain.ParseStatus(newStatus)
	if err != nil {
		return err
	}
	if !access.CanEdit(actor.Role(), access.FieldStatus) {
		return apperrors.NewAuthorizationDenied("status is not editable for this role")
	}
	t.ProgressLog = append(t.ProgressLog, StatusChangeEntry(t.Status, next, at))
	t.Status = next
	t.Touch(at)
	return nil
}

// SetTitle edits the title under the same ownership rule as the description.
func SetTitle(t *domain.Ticket, title string, actor domain.AuthContext, at time.Time) error {
	if !access.CanEdit(actor.Role(), access.FieldTitle) {
		return apperrors.NewAuthorizationDenied("title is not editable for this role")
	}
	if !actor.IsStaff() && t.RequestorID != actor.UserID {
		return apperrors.NewAuthorizationDenied("only the requestor or staff may edit the title")
	}
	if strings.TrimSpace(title) == "" {
		return apperrors.NewValidationError("title required", nil)
	}
	t.Title = title
	t.Touch(at)
	return nil
}

// SetDescription edits the description. Requesters may only edit tickets they own.
func SetDescription(t *domain.Ticket, description string, actor domain.AuthContext, at time.Time) error {
	if !access.CanEdit(actor.Role(), access.FieldDescription) {
		return apperrors.NewAuthorizationDenied("description is not editable for this role")
	}
	if !actor.IsStaff() && t.RequestorID != actor.UserID {
		return apperrors.NewAuthorizationDenied("only the requestor or staff may edit the description")
	}
	if strings.TrimSpace(description) == "" {
		return apperrors.NewValidationError("description required", nil)
	}
	t.Description = description
	t.Touch(at)
	return nil
}

// SetResolutionNotes edits the staff-only resolution notes. The ticket status is not
// checked.
func SetResolutionNotes(t *domain.Ticket, notes string, actor domain.AuthContext, at time.Time) error {
	if !access.CanEdit(actor.Role(), access.FieldResolutionNotes) {
		return apperrors.NewAuthorizationDenied("resolution notes require the staff capability")
	}
	t.ResolutionNotes = notes
	t.Touch(at)
	return nil
}

// ExtendsLog reports whether next keeps every entry of prev, in order, as its prefix.
func ExtendsLog(prev, next []string) bool {
	if len(next) < len(prev) {
		return false
	}
	for i := range prev {
		if prev[i] != next[i] {
			return false
		}
	}
	return true
}
