package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ar-tracker/internal/domain"
	apperrors "github.com/spec-kit/ar-tracker/pkg/util/errorutil"
)

var staffIdentity = domain.AuthContext{
	UserID:   "u-staff",
	Username: "sam",
	Email:    "sam@example.com",
	Groups:   []string{"Everyone", "ITStaff"},
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5, "")
	token, expires, err := tm.GenerateToken(staffIdentity)
	require.NoError(t, err)
	assert.False(t, expires.IsZero())

	identity, err := tm.AuthContext(token)
	require.NoError(t, err)
	assert.Equal(t, "u-staff", identity.UserID)
	assert.Equal(t, "sam", identity.Username)
	assert.Equal(t, domain.RoleStaff, identity.Role())
	assert.Equal(t, token, identity.Token)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", 5, "").GenerateToken(staffIdentity)
	require.NoError(t, err)

	_, err = NewTokenManager("two", 5, "").ParseToken(token)
	assert.Error(t, err)
}

func TestContextFromTokenSkipsVerification(t *testing.T) {
	token, _, err := NewTokenManager("server-only", 5, "").GenerateToken(staffIdentity)
	require.NoError(t, err)

	identity, err := ContextFromToken(token, "Support")
	require.NoError(t, err)
	assert.Equal(t, "sam", identity.Username)
	assert.Equal(t, domain.RoleRequester, identity.Role(), "staff group is configurable")

	_, err = ContextFromToken("not-a-jwt", "")
	assert.Error(t, err)
}

func newApp(tm *TokenManager) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": de.Message, "code": de.Code})
		},
	})
	mw := NewAuthMiddleware(tm)
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		identity, _ := AuthFromContext(c)
		return c.SendString(identity.Username)
	})
	app.Get("/staff", mw.Handle, RequireStaff(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func TestMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 5, "")
	app := newApp(tm)

	staffToken, _, err := tm.GenerateToken(staffIdentity)
	require.NoError(t, err)
	requesterToken, _, err := tm.GenerateToken(domain.AuthContext{UserID: "u-1", Username: "rita"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"bad scheme", "/me", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer abc", http.StatusUnauthorized},
		{"requester ok", "/me", "Bearer " + requesterToken, http.StatusOK},
		{"requester denied staff route", "/staff", "Bearer " + requesterToken, http.StatusForbidden},
		{"staff allowed", "/staff", "Bearer " + staffToken, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
