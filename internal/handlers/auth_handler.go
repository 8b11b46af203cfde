package handlers

import (
	"huddle-backend/config"
	"huddle-backend/internal/auth"
	"huddle-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *auth.AuthService
	config      *config.Config
}

func NewAuthHandler(authService *auth.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		config:      cfg,
	}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input auth.RegisterRequest
	if err := c.BodyParser(&input); err != nil {
		return invalidInput(c)
	}

	resp, err := h.authService.Register(input)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input auth.LoginRequest
	if err := c.BodyParser(&input); err != nil {
		return invalidInput(c)
	}

	resp, err := h.authService.Login(input)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(resp)
}

// RefreshRequest represents the refresh token request payload
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken exchanges a refresh token for a new token pair
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var input RefreshRequest
	if err := c.BodyParser(&input); err != nil || input.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Invalid input - expected JSON with refresh_token field",
		})
	}

	tokens, err := h.authService.Refresh(input.RefreshToken)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(tokens)
}

func (h *AuthHandler) GetMe(c *fiber.Ctx) error {
	user, err := h.authService.GetUserByID(middleware.Claims(c).UserID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(user)
}

// LogoutRequest represents the logout request payload
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Logout revokes the caller's refresh token
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input LogoutRequest
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Invalid input - expected JSON with refresh_token field",
		})
	}

	if err := h.authService.Logout(middleware.Claims(c).UserID, input.RefreshToken); err != nil {
		return respondError(c, err)
	}

	c.ClearCookie("jwt")
	return c.JSON(fiber.Map{
		"message": "Successfully logged out",
	})
}

// Providers reports which social sign-in providers are configured
func (h *AuthHandler) Providers(c *fiber.Ctx) error {
	return c.JSON(ProvidersResponse{
		Google:  h.config.Auth.Google.Enabled(),
		Github:  h.config.Auth.Github.Enabled(),
		Twitter: h.config.Auth.Twitter.Enabled(),
	})
}
