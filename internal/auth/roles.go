package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ar-tracker/internal/domain"
	apperrors "github.com/spec-kit/ar-tracker/pkg/util/errorutil"
)

// RequireStaff rejects callers without the staff role.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := AuthFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if identity.Role() != domain.RoleStaff {
			return apperrors.NewAuthorizationDenied("staff role required")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures the auth middleware ran.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := AuthFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
