package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/infonest-auth/internal/domain"
	apperrors "github.com/spec-kit/infonest-auth/pkg/util/errorutil"
)

// RequireAuthenticated rejects requests the gate left anonymous.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c.UserContext()); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// CurrentIdentity returns the identity the gate attached to c.
func CurrentIdentity(c *fiber.Ctx) (domain.Identity, bool) {
	return IdentityFromContext(c.UserContext())
}
