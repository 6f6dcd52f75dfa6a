package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ar-tracker/internal/api/dto"
	httptransport "github.com/spec-kit/ar-tracker/internal/api/http"
	"github.com/spec-kit/ar-tracker/internal/api/http/handlers"
	"github.com/spec-kit/ar-tracker/internal/auth"
	"github.com/spec-kit/ar-tracker/internal/config"
	"github.com/spec-kit/ar-tracker/internal/domain"
	"github.com/spec-kit/ar-tracker/internal/escalation"
	"github.com/spec-kit/ar-tracker/internal/observability"
	"github.com/spec-kit/ar-tracker/internal/repository"
	"github.com/spec-kit/ar-tracker/internal/service"
	apperrors "github.com/spec-kit/ar-tracker/pkg/util/errorutil"
)

const testSecret = "cli-secret"

func startServer(t *testing.T) string {
	t.Helper()
	metrics := observability.NewMetrics()
	svc := service.NewTicketService(service.TicketDependencies{TicketRepo: repository.NewMemoryTicketRepository()})
	monitor := escalation.NewMonitor(escalation.SourceFunc(svc.Snapshot), escalation.MonitorOptions{})

	app := httptransport.NewApp("cli-test", zap.NewNop(), metrics, time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("cli-test", "dev", nil, nil, monitor),
		Tickets:        handlers.NewTicketsHandler(svc),
		Escalations:    handlers.NewEscalationsHandler(svc, monitor, nil),
		Metrics:        handlers.NewMetricsHandler(metrics),
		AuthMiddleware: auth.NewAuthMiddleware(auth.NewTokenManager(testSecret, 5, "")),
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "http://" + ln.Addr().String()
}

func testConfig(baseURL, token string) *config.Config {
	return &config.Config{
		Auth:       config.AuthConfig{JWTSecret: testSecret, AccessTokenTTLMinutes: 5, StaffGroup: "ITStaff"},
		Escalation: config.EscalationConfig{IntervalSeconds: 10},
		Client:     config.ClientConfig{BaseURL: baseURL, Token: token, TimeoutSeconds: 2},
	}
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand(cfg, nil, &out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func issueToken(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, testConfig("", ""), append([]string{"token"}, args...)...)
	require.NoError(t, err)
	return strings.TrimSpace(out)
}

func TestTokenCommand(t *testing.T) {
	token := issueToken(t, "--user-id", "u-1", "--username", "jdoe", "--staff")

	identity, err := auth.NewTokenManager(testSecret, 5, "ITStaff").AuthContext(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", identity.UserID)
	assert.Equal(t, "jdoe", identity.Username)
	assert.Equal(t, domain.RoleStaff, identity.Role())

	_, err = run(t, testConfig("", ""), "token")
	assert.Error(t, err)
}

func TestTicketWorkflow(t *testing.T) {
	baseURL := startServer(t)
	cfg := testConfig(baseURL, issueToken(t, "--user-id", "u-1", "--username", "jdoe"))

	out, err := run(t, cfg, "--json", "tickets", "create",
		"--title", "Broken link", "--description", "404 on bylaws",
		"--product", "About", "--sub-product", "Bylaws", "--severity", "1 day")
	require.NoError(t, err)
	var created dto.Ticket
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, domain.TicketStatusAssigned, created.Status)
	assert.Equal(t, domain.DefaultPriority, created.Priority)

	out, err = run(t, cfg, "tickets", "status", created.ARNumber, "In Progress")
	require.NoError(t, err)
	assert.Equal(t, created.ARNumber+" is now In Progress\n", out)

	out, err = run(t, cfg, "tickets", "show", created.ARNumber)
	require.NoError(t, err)
	assert.Contains(t, out, "In Progress")
	assert.Contains(t, out, "Progress:")

	out, err = run(t, cfg, "tickets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, created.ARNumber)

	out, err = run(t, cfg, "--json", "search", "--status", "In Progress", "--product", "About")
	require.NoError(t, err)
	var found []dto.Ticket
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	require.Len(t, found, 1)
	assert.Equal(t, created.ARNumber, found[0].ARNumber)

	out, err = run(t, cfg, "--json", "search", "--local", "--status", "Closed")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)

	_, err = run(t, cfg, "tickets", "status", created.ARNumber, "Done")
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
}

func TestStaffOnlyCommands(t *testing.T) {
	baseURL := startServer(t)
	requester := testConfig(baseURL, issueToken(t, "--user-id", "u-1", "--username", "jdoe"))
	staff := testConfig(baseURL, issueToken(t, "--user-id", "s-1", "--username", "ann", "--staff"))

	out, err := run(t, requester, "--json", "tickets", "create",
		"--title", "Scholarship form", "--description", "upload fails",
		"--product", "Award", "--sub-product", "Scholarship", "--severity", "4 hours")
	require.NoError(t, err)
	var created dto.Ticket
	require.NoError(t, json.Unmarshal([]byte(out), &created))

	_, err = run(t, requester, "report")
	assert.ErrorIs(t, err, apperrors.ErrAuthorizationDenied)
	_, err = run(t, requester, "tickets", "notes", created.ARNumber, "done")
	assert.ErrorIs(t, err, apperrors.ErrAuthorizationDenied)

	out, err = run(t, staff, "tickets", "notes", created.ARNumber, "form fixed")
	require.NoError(t, err)
	assert.Contains(t, out, "form fixed")

	out, err = run(t, staff, "report")
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 1")
	assert.Contains(t, out, created.ARNumber)

	_, err = run(t, staff, "report", "--from", "not-a-date")
	assert.Error(t, err)
}

func TestEscalationsAndCatalog(t *testing.T) {
	baseURL := startServer(t)
	cfg := testConfig(baseURL, issueToken(t, "--user-id", "u-1"))

	out, err := run(t, cfg, "escalations")
	require.NoError(t, err)
	assert.Equal(t, "no escalation scan has completed yet\n", out)

	out, err = run(t, testConfig(baseURL, ""), "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "About: ")
	assert.Contains(t, out, "Bylaws")

	_, err = run(t, testConfig(baseURL, ""), "tickets", "list")
	assert.EqualError(t, err, "no token: pass --token or set ARCTL_TOKEN")
}

func TestCreateHelpListsEveryPriority(t *testing.T) {
	out, err := run(t, testConfig("", ""), "tickets", "create", "--help")
	require.NoError(t, err)
	for _, p := range domain.Priorities {
		assert.Contains(t, out, string(p))
	}
	assert.Contains(t, out, "(default Medium)")
}
