package handlers

import (
	"errors"
	"math"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/infonest-auth/internal/api/dto"
	"github.com/spec-kit/infonest-auth/internal/service"
	apperrors "github.com/spec-kit/infonest-auth/pkg/util/errorutil"
)

// AuthHandler exposes the signup and login endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Signup handles POST /auth/signup.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	msg, err := h.auth.Register(c.UserContext(), service.Signup{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		ClubID:    req.ClubID,
	})
	if err != nil {
		return mapAuthError(err)
	}

	return c.Status(http.StatusOK).JSON(dto.MessageResponse{Message: msg})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	res, err := h.auth.Login(c.UserContext(), service.Credentials{
		Email:      req.Email,
		Password:   req.Password,
		RemoteAddr: c.IP(),
	})
	if err != nil {
		return mapAuthError(err)
	}

	return c.JSON(dto.LoginResponse{
		Token:     res.Token.Value,
		Role:      string(res.Role),
		FirstName: res.FirstName,
		ClubID:    res.ClubID,
		ExpiresAt: res.Token.ExpiresAt,
	})
}

func mapAuthError(err error) error {
	var lockout *service.LockoutError
	switch {
	case errors.Is(err, service.ErrDuplicateIdentity):
		return apperrors.NewBadRequest("DUPLICATE_IDENTITY", "Error: Email already registered!")
	case errors.Is(err, service.ErrInvalidRole):
		return apperrors.NewValidationError("invalid role", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperrors.NewDomainError("INVALID_CREDENTIALS", "Error: Invalid email or password", http.StatusUnauthorized, nil)
	case errors.As(err, &lockout):
		return apperrors.NewTooManyRequests("too many failed login attempts", int(math.Ceil(lockout.RetryAfter.Seconds())))
	case errors.Is(err, service.ErrStoreUnavailable):
		return apperrors.NewServiceUnavailable(err)
	default:
		return apperrors.NewInternalError(err)
	}
}
