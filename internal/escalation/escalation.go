// Package escalation flags tickets that stayed "In Progress" longer than their severity window.
// Escalation is derived at read time and never written back to the ticket.
package escalation

import (
	"sort"
	"time"

	"github.com/spec-kit/ar-tracker/internal/domain"
	"github.com/spec-kit/ar-tracker/internal/severity"
)

// Set holds escalated AR numbers.
type Set map[string]struct{}

// Has reports membership.
func (s Set) Has(arNumber string) bool {
	_, ok := s[arNumber]
	return ok
}

// Sorted lists the AR numbers in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for ar := range s {
		out = append(out, ar)
	}
	sort.Strings(out)
	return out
}

// IsEscalated reports whether a single ticket has breached its SLA at now. The boundary is
// exclusive: a ticket exactly at its window is not escalated.
func IsEscalated(t *domain.Ticket, now time.Time) bool {
	if t.Status != domain.TicketStatusInProgress {
		return false
	}
	window, ok := severity.Window(t.Severity)
	if !ok {
		return false
	}
	return now.Sub(t.ClockAnchor()) > window
}

// Compute returns the escalated subset of tickets. It does not modify its input.
func Compute(tickets []domain.Ticket, now time.Time) Set {
	out := Set{}
	for i := range tickets {
		if IsEscalated(&tickets[i], now) {
			out[tickets[i].ARNumber] = struct{}{}
		}
	}
	return out
}

// Added lists members of next missing from prev, sorted.
func Added(prev, next Set) []string {
	out := []string{}
	for ar := range next {
		if !prev.Has(ar) {
			out = append(out, ar)
		}
	}
	sort.Strings(out)
	return out
}
