package handlers

import (
	"net/url"
	"time"

	"huddle-backend/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/markbates/goth/gothic"
	"github.com/rs/zerolog/log"
)

// BeginAuth redirects to the provider's consent page
func (h *AuthHandler) BeginAuth(c *fiber.Ctx) error {
	provider := c.Params("provider")
	log.Debug().Str("provider", provider).Msg("Beginning social login")

	w := auth.NewResponseWriter(c)
	authURL, err := gothic.GetAuthURL(w, auth.GothicRequest(c, provider))
	if err != nil {
		log.Error().Err(err).Str("provider", provider).Msg("Failed to get auth URL")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to begin authentication",
		})
	}
	w.Flush()

	return c.Redirect(authURL)
}

// AuthCallback completes social login, sets the jwt cookie and hands the token to the frontend
func (h *AuthHandler) AuthCallback(c *fiber.Ctx) error {
	provider := c.Params("provider")

	w := auth.NewResponseWriter(c)
	gothUser, err := gothic.CompleteUserAuth(w, auth.GothicRequest(c, provider))
	if err != nil {
		log.Error().Err(err).Str("provider", provider).Msg("Failed to complete auth")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: "Failed to complete authentication",
		})
	}
	w.Flush()

	user, token, err := h.authService.SocialLogin(gothUser)
	if err != nil {
		return respondError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    token,
		Expires:  time.Now().Add(time.Duration(h.config.Auth.TokenDuration) * time.Hour),
		HTTPOnly: true,
		Secure:   c.Protocol() == "https",
		SameSite: "Lax",
	})

	if h.config.Auth.FrontendURL != "" {
		frontendURL, err := url.Parse(h.config.Auth.FrontendURL)
		if err != nil {
			log.Error().Err(err).Msg("Invalid frontend URL in config")
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Error: "Invalid frontend configuration",
			})
		}

		frontendURL.Path = "/auth/callback"
		q := frontendURL.Query()
		q.Set("token", token)
		frontendURL.RawQuery = q.Encode()
		return c.Redirect(frontendURL.String())
	}

	return c.JSON(AuthResponse{
		User: UserResponse{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			Provider:  user.Provider,
			AvatarURL: user.AvatarURL,
		},
		Token: token,
	})
}
