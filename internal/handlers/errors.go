package handlers

import (
	"errors"
	"huddle-backend/internal/meeting"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

var kindStatus = map[meeting.Kind]int{
	meeting.KindValidation:    fiber.StatusBadRequest,
	meeting.KindUnauthorized:  fiber.StatusUnauthorized,
	meeting.KindForbidden:     fiber.StatusForbidden,
	meeting.KindNotFound:      fiber.StatusNotFound,
	meeting.KindConflict:      fiber.StatusConflict,
	meeting.KindCodeExhausted: fiber.StatusServiceUnavailable,
	meeting.KindUnavailable:   fiber.StatusServiceUnavailable,
	meeting.KindInternal:      fiber.StatusInternalServerError,
}

// respondError writes err as an ErrorResponse with the status of its kind
func respondError(c *fiber.Ctx, err error) error {
	kind := meeting.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = fiber.StatusInternalServerError
	}

	message := "Something went wrong"
	var merr *meeting.Error
	if errors.As(err, &merr) {
		message = merr.Message
	}

	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).
			Str("path", c.Path()).
			Str("ip", c.IP()).
			Msg("Error handling request")
	}

	return c.Status(status).JSON(ErrorResponse{Error: message})
}

func invalidInput(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "Invalid input"})
}
