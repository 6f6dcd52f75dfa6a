package domain

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/ar-tracker/pkg/util/errorutil"
)

func validTicket() *Ticket {
	return &Ticket{
		ARNumber:    "AR-1-deadbeef",
		Title:       "Broken link",
		Description: "The bylaws page 404s",
		Product:     "About",
		SubProduct:  "Bylaws",
		Severity:    "5 days",
		Priority:    TicketPriorityMedium,
		Status:      TicketStatusAssigned,
		RequestorID: "u-1",
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"Assigned", "In Progress", "Pending", "Resolved", "Closed"} {
		got, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, TicketStatus(s), got)
	}
	for _, s := range []string{"", "in progress", "Open", "CLOSED"} {
		_, err := ParseStatus(s)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidStatus), s)
	}
}

func TestSetProductClearsForeignSubProduct(t *testing.T) {
	catalog := DefaultCatalog()
	ticket := validTicket()

	ticket.SetProduct(" About ")
	assert.Equal(t, "Bylaws", ticket.SubProduct)

	ticket.SetProduct("Award")
	assert.Equal(t, "Award", ticket.Product)
	assert.Empty(t, ticket.SubProduct)

	require.NoError(t, ticket.SetSubProduct("Scholarship", catalog))
	assert.Equal(t, "Scholarship", ticket.SubProduct)

	err := ticket.SetSubProduct("Bylaws", catalog)
	require.Error(t, err)
	assert.Equal(t, "Scholarship", ticket.SubProduct)
}

func TestSetProductClearsSharedSubProductName(t *testing.T) {
	catalog, err := NewCatalog([]Product{
		{Name: "A", SubProducts: []string{"Shared"}},
		{Name: "B", SubProducts: []string{"Shared"}},
	})
	require.NoError(t, err)

	ticket := &Ticket{}
	ticket.SetProduct("A")
	require.NoError(t, ticket.SetSubProduct("Shared", catalog))

	ticket.SetProduct("B")
	assert.Equal(t, "B", ticket.Product)
	assert.Empty(t, ticket.SubProduct)
}

func TestValidate(t *testing.T) {
	catalog := DefaultCatalog()
	require.NoError(t, validTicket().Validate(catalog))

	tests := []struct {
		name   string
		mutate func(*Ticket)
	}{
		{"missing title", func(tk *Ticket) { tk.Title = " " }},
		{"missing sub-product", func(tk *Ticket) { tk.SubProduct = "" }},
		{"unknown product", func(tk *Ticket) { tk.Product = "Games" }},
		{"foreign sub-product", func(tk *Ticket) { tk.SubProduct = "SEED" }},
		{"bad priority", func(tk *Ticket) { tk.Priority = "Critical" }},
		{"bad status", func(tk *Ticket) { tk.Status = "Open" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := validTicket()
			tt.mutate(ticket)
			assert.Error(t, ticket.Validate(catalog))
		})
	}
}

func TestClockAnchor(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ticket := &Ticket{CreatedAt: created}
	assert.Equal(t, created, ticket.ClockAnchor())

	updated := created.Add(time.Hour)
	ticket.Touch(updated)
	assert.Equal(t, updated, ticket.ClockAnchor())
}

func TestCloneIsDeep(t *testing.T) {
	ticket := validTicket()
	ticket.ProgressLog = []string{"one"}
	ticket.Touch(time.Now())

	cp := ticket.Clone()
	cp.ProgressLog[0] = "two"
	*cp.UpdatedAt = cp.UpdatedAt.Add(time.Hour)

	assert.Equal(t, "one", ticket.ProgressLog[0])
	assert.NotEqual(t, *ticket.UpdatedAt, *cp.UpdatedAt)
}

func TestIsParticipant(t *testing.T) {
	ticket := validTicket()
	ticket.Assignee = "it-ann"
	ticket.AssigneeEmail = "Ann@Example.com"

	assert.True(t, ticket.IsParticipant(AuthContext{UserID: "u-1"}))
	assert.True(t, ticket.IsParticipant(AuthContext{UserID: "s-9", Username: "it-ann"}))
	assert.True(t, ticket.IsParticipant(AuthContext{UserID: "s-9", Email: "ann@example.com"}))
	assert.False(t, ticket.IsParticipant(AuthContext{UserID: "u-2", Username: "bob"}))
	assert.False(t, ticket.IsParticipant(AuthContext{}))
}

func TestNewARNumber(t *testing.T) {
	at := time.UnixMilli(1730000000000)
	a := NewARNumber(at)
	b := NewARNumber(at)
	assert.Regexp(t, regexp.MustCompile(`^AR-1730000000000-[0-9a-f]{8}$`), a)
	assert.NotEqual(t, a, b)
}

func TestAuthContextRole(t *testing.T) {
	assert.Equal(t, RoleRequester, AuthContext{}.Role())
	assert.Equal(t, RoleStaff, AuthContext{Groups: []string{"Users", "ITStaff"}}.Role())
	assert.Equal(t, RoleRequester, AuthContext{Groups: []string{"ITStaff"}, StaffGroup: "Helpdesk"}.Role())
	assert.Equal(t, RoleStaff, AuthContext{Groups: []string{"Helpdesk"}, StaffGroup: "Helpdesk"}.Role())
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := `products:
  - name: Email
    subProducts: [Outlook, Webmail, Outlook]
  - name: Network
    subProducts:
      - VPN
      - Wi-Fi
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, []Product{
		{Name: "Email", SubProducts: []string{"Outlook", "Webmail"}},
		{Name: "Network", SubProducts: []string{"VPN", "Wi-Fi"}},
	}, catalog.Products())
	assert.True(t, catalog.Contains("Network", "VPN"))
	assert.False(t, catalog.Contains("Email", "VPN"))

	defaults, err := LoadCatalog("")
	require.NoError(t, err)
	assert.True(t, defaults.Contains("Activity", "Katalyst"))

	_, err = LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	_, err := NewCatalog([]Product{{Name: "A"}, {Name: "A"}})
	assert.Error(t, err)
}

func TestPriorityProfiles(t *testing.T) {
	for _, p := range []TicketPriority{"Very High", "High", "Medium", "Low", "P1", "P2", "P3"} {
		assert.True(t, p.Valid(), p)
	}
	for _, p := range []TicketPriority{"", "very high", "P4", "Urgent"} {
		assert.False(t, p.Valid(), p)
	}
}
