package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/infonest-auth/internal/api/dto"
	"github.com/spec-kit/infonest-auth/internal/auth"
	apperrors "github.com/spec-kit/infonest-auth/pkg/util/errorutil"
)

// MeHandler reports the identity the gate attached to the request.
type MeHandler struct{}

// NewMeHandler constructs handler.
func NewMeHandler() *MeHandler {
	return &MeHandler{}
}

// Get handles GET /api/v1/me.
func (h *MeHandler) Get(c *fiber.Ctx) error {
	id, ok := auth.CurrentIdentity(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(dto.IdentityResponse{Subject: id.Subject, Role: string(id.Role)})
}
