package search

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ar-tracker/internal/domain"
)

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func fixtures() []domain.Ticket {
	return []domain.Ticket{
		{ARNumber: "AR-100-aaaa", Severity: "5 days", Priority: "High", RequestorUsername: "jdoe", Assignee: "it-ann", Status: "Closed", Product: "About", SubProduct: "Bylaws", CreatedAt: day(2024, 3, 1, 9)},
		{ARNumber: "AR-200-bbbb", Severity: "1 day", Priority: "Low", RequestorUsername: "asmith", Assignee: "it-bob", Status: "In Progress", Product: "News", SubProduct: "Media", CreatedAt: day(2024, 3, 5, 23)},
		{ARNumber: "AR-300-cccc", Severity: "5 days", Priority: "High", RequestorUsername: "jdoe2", Assignee: "", Status: "Closed", Product: "About", SubProduct: "Policies", CreatedAt: day(2024, 3, 10, 0)},
	}
}

func arNumbers(tickets []domain.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ARNumber)
	}
	return out
}

func ptr(t time.Time) *time.Time { return &t }

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"no criteria is identity", Criteria{}, []string{"AR-100-aaaa", "AR-200-bbbb", "AR-300-cccc"}},
		{"blank criteria is identity", Criteria{Status: "  ", Product: ""}, []string{"AR-100-aaaa", "AR-200-bbbb", "AR-300-cccc"}},
		{"status exact", Criteria{Status: "Closed"}, []string{"AR-100-aaaa", "AR-300-cccc"}},
		{"status is not substring", Criteria{Status: "Close"}, []string{}},
		{"ar number substring", Criteria{ARNumber: "200"}, []string{"AR-200-bbbb"}},
		{"requestor substring", Criteria{RequestorUsername: "jdoe"}, []string{"AR-100-aaaa", "AR-300-cccc"}},
		{"substring is case sensitive", Criteria{RequestorUsername: "JDOE"}, []string{}},
		{"assignee substring", Criteria{AssigneeUsername: "it-"}, []string{"AR-100-aaaa", "AR-200-bbbb"}},
		{"severity exact", Criteria{Severity: "1 day"}, []string{"AR-200-bbbb"}},
		{"priority and product", Criteria{Priority: "High", Product: "About", SubProduct: "Policies"}, []string{"AR-300-cccc"}},
		{"conjunction excludes", Criteria{Status: "Closed", Severity: "1 day"}, []string{}},
		{"start inclusive", Criteria{StartDate: ptr(day(2024, 3, 5, 23))}, []string{"AR-200-bbbb", "AR-300-cccc"}},
		{"end inclusive", Criteria{EndDate: ptr(day(2024, 3, 5, 23))}, []string{"AR-100-aaaa", "AR-200-bbbb"}},
		{"range", Criteria{StartDate: ptr(day(2024, 3, 2, 0)), EndDate: ptr(day(2024, 3, 9, 0))}, []string{"AR-200-bbbb"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, arNumbers(Filter(fixtures(), tt.criteria)))
		})
	}
}

func TestWhere(t *testing.T) {
	start := day(2024, 3, 1, 0)
	clauses, args := Where(Criteria{
		ARNumber:  " AR-1 ",
		Status:    "Closed",
		StartDate: &start,
		Product:   "About",
	}, []string{"1=1", "requestor_id=$1"}, []any{"u-1"})

	assert.Equal(t, []string{
		"1=1",
		"requestor_id=$1",
		"strpos(ar_number, $2) > 0",
		"status = $3",
		"created_at >= $4",
		"product = $5",
	}, clauses)
	assert.Equal(t, []any{"u-1", "AR-1", "Closed", start, "About"}, args)
}

func TestWhereEmpty(t *testing.T) {
	clauses, args := Where(Criteria{}, nil, nil)
	assert.Empty(t, clauses)
	assert.Empty(t, args)
}

func TestValuesRoundTrip(t *testing.T) {
	start := day(2024, 3, 1, 0)
	end := day(2024, 3, 31, 12)
	in := Criteria{
		ARNumber:          "AR-1",
		Severity:          "5 days",
		Priority:          "Very High",
		RequestorUsername: "jdoe",
		AssigneeUsername:  "ann",
		Status:            "In Progress",
		StartDate:         &start,
		EndDate:           &end,
		Product:           "About",
		SubProduct:        "Bylaws",
	}
	values := in.Values()
	out, err := FromValues(values.Get)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	assert.Empty(t, Criteria{}.Values())
}

func TestFromValuesDateOnly(t *testing.T) {
	values := url.Values{"startDate": {"2024-03-05"}, "endDate": {"2024-03-05"}}
	c, err := FromValues(values.Get)
	require.NoError(t, err)

	assert.Equal(t, []string{"AR-200-bbbb"}, arNumbers(Filter(fixtures(), c)))
	assert.Equal(t, day(2024, 3, 5, 0), *c.StartDate)
	assert.Equal(t, day(2024, 3, 6, 0).Add(-time.Microsecond), *c.EndDate)
}

func TestFromValuesRejectsBadDates(t *testing.T) {
	_, err := FromValues(url.Values{"startDate": {"yesterday"}}.Get)
	assert.Error(t, err)
	_, err = FromValues(url.Values{"endDate": {"2024-13-01"}}.Get)
	assert.Error(t, err)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, Criteria{}.IsEmpty())
	assert.True(t, Criteria{Status: " "}.IsEmpty())
	assert.False(t, Criteria{Status: "Closed"}.IsEmpty())
}
