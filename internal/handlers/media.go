package handlers

import (
	"huddle-backend/internal/media"
	"time"

	"github.com/gofiber/fiber/v2"
)

// TokenIssuer mints media-server credentials
type TokenIssuer interface {
	IssueToken(req media.TokenRequest) (*media.Credentials, error)
}

type MediaHandler struct {
	issuer TokenIssuer
}

func NewMediaHandler(issuer TokenIssuer) *MediaHandler {
	return &MediaHandler{issuer: issuer}
}

// Token issues LiveKit credentials. Missing fields get defaults so a bare POST works.
func (h *MediaHandler) Token(c *fiber.Ctx) error {
	var req media.TokenRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidInput(c)
		}
	}

	creds, err := h.issuer.IssueToken(req.WithDefaults(time.Now()))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(creds)
}
