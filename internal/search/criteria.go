// Package search evaluates ticket filter criteria. The same predicate runs over an in-memory
// slice (Matches, Filter), compiles to Postgres WHERE clauses (Where) and travels as URL query
// parameters (Values, FromValues).
package search

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spec-kit/ar-tracker/internal/domain"
	apperrors "github.com/spec-kit/ar-tracker/pkg/util/errorutil"
)

const dateLayout = "2006-01-02"

// Criteria holds the optional filters. Empty strings and nil times impose no constraint;
// every supplied constraint must hold.
type Criteria struct {
	ARNumber          string
	Severity          string
	Priority          string
	RequestorUsername string
	AssigneeUsername  string
	Status            string
	StartDate         *time.Time
	EndDate           *time.Time
	Product           string
	SubProduct        string
}

// Normalize trims every text field.
func (c Criteria) Normalize() Criteria {
	c.ARNumber = strings.TrimSpace(c.ARNumber)
	c.Severity = strings.TrimSpace(c.Severity)
	c.Priority = strings.TrimSpace(c.Priority)
	c.RequestorUsername = strings.TrimSpace(c.RequestorUsername)
	c.AssigneeUsername = strings.TrimSpace(c.AssigneeUsername)
	c.Status = strings.TrimSpace(c.Status)
	c.Product = strings.TrimSpace(c.Product)
	c.SubProduct = strings.TrimSpace(c.SubProduct)
	return c
}

// IsEmpty reports whether no constraint is set.
func (c Criteria) IsEmpty() bool {
	n := c.Normalize()
	return n.ARNumber == "" && n.Severity == "" && n.Priority == "" &&
		n.RequestorUsername == "" && n.AssigneeUsername == "" && n.Status == "" &&
		n.StartDate == nil && n.EndDate == nil && n.Product == "" && n.SubProduct == ""
}

// Matches reports whether t satisfies every supplied criterion.
func Matches(t *domain.Ticket, criteria Criteria) bool {
	c := criteria.Normalize()
	switch {
	case c.ARNumber != "" && !strings.Contains(t.ARNumber, c.ARNumber):
		return false
	case c.Severity != "" && t.Severity != c.Severity:
		return false
	case c.Priority != "" && string(t.Priority) != c.Priority:
		return false
	case c.RequestorUsername != "" && !strings.Contains(t.RequestorUsername, c.RequestorUsername):
		return false
	case c.AssigneeUsername != "" && !strings.Contains(t.Assignee, c.AssigneeUsername):
		return false
	case c.Status != "" && string(t.Status) != c.Status:
		return false
	case c.StartDate != nil && t.CreatedAt.Before(*c.StartDate):
		return false
	case c.EndDate != nil && t.CreatedAt.After(*c.EndDate):
		return false
	case c.Product != "" && t.Product != c.Product:
		return false
	case c.SubProduct != "" && t.SubProduct != c.SubProduct:
		return false
	}
	return true
}

// Filter returns the matching tickets in their original order.
func Filter(tickets []domain.Ticket, criteria Criteria) []domain.Ticket {
	out := make([]domain.Ticket, 0, len(tickets))
	for i := range tickets {
		if Matches(&tickets[i], criteria) {
			out = append(out, tickets[i])
		}
	}
	return out
}

// Where compiles the criteria to SQL predicates over the tickets table. Placeholders start
// at $(len(args)+1) so the result can be appended to an existing clause list.
func Where(criteria Criteria, clauses []string, args []any) ([]string, []any) {
	c := criteria.Normalize()
	add := func(format string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(format, len(args)))
	}
	if c.ARNumber != "" {
		add("strpos(ar_number, $%d) > 0", c.ARNumber)
	}
	if c.Severity != "" {
		add("severity = $%d", c.Severity)
	}
	if c.Priority != "" {
		add("priority = $%d", c.Priority)
	}
	if c.RequestorUsername != "" {
		add("strpos(requestor_username, $%d) > 0", c.RequestorUsername)
	}
	if c.AssigneeUsername != "" {
		add("strpos(assignee, $%d) > 0", c.AssigneeUsername)
	}
	if c.Status != "" {
		add("status = $%d", c.Status)
	}
	if c.StartDate != nil {
		add("created_at >= $%d", *c.StartDate)
	}
	if c.EndDate != nil {
		add("created_at <= $%d", *c.EndDate)
	}
	if c.Product != "" {
		add("product = $%d", c.Product)
	}
	if c.SubProduct != "" {
		add("sub_product = $%d", c.SubProduct)
	}
	return clauses, args
}

// Values encodes the criteria as the query parameters of GET /search.
func (c Criteria) Values() url.Values {
	n := c.Normalize()
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("arNumber", n.ARNumber)
	set("severity", n.Severity)
	set("priority", n.Priority)
	set("requestorUsername", n.RequestorUsername)
	set("assigneeUsername", n.AssigneeUsername)
	set("status", n.Status)
	if n.StartDate != nil {
		v.Set("startDate", n.StartDate.UTC().Format(time.RFC3339Nano))
	}
	if n.EndDate != nil {
		v.Set("endDate", n.EndDate.UTC().Format(time.RFC3339Nano))
	}
	set("product", n.Product)
	set("subProduct", n.SubProduct)
	return v
}

// Lookup reads one query parameter, e.g. url.Values.Get.
type Lookup func(key string) string

// FromValues decodes criteria from query parameters. Dates accept RFC 3339 or YYYY-MM-DD;
// a date-only endDate covers the whole day.
func FromValues(get Lookup) (Criteria, error) {
	c := Criteria{
		ARNumber:          get("arNumber"),
		Severity:          get("severity"),
		Priority:          get("priority"),
		RequestorUsername: get("requestorUsername"),
		AssigneeUsername:  get("assigneeUsername"),
		Status:            get("status"),
		Product:           get("product"),
		SubProduct:        get("subProduct"),
	}
	start, err := parseBound(get("startDate"), false)
	if err != nil {
		return Criteria{}, apperrors.NewValidationError("invalid startDate", map[string]any{"startDate": get("startDate")})
	}
	end, err := parseBound(get("endDate"), true)
	if err != nil {
		return Criteria{}, apperrors.NewValidationError("invalid endDate", map[string]any{"endDate": get("endDate")})
	}
	c.StartDate, c.EndDate = start, end
	return c.Normalize(), nil
}

func parseBound(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		// Postgres keeps microseconds, so stop one microsecond before midnight.
		day = day.AddDate(0, 0, 1).Add(-time.Microsecond)
	}
	return &day, nil
}
