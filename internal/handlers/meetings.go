package handlers

import (
	"huddle-backend/internal/meeting"
	"huddle-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type MeetingHandler struct {
	meetings *meeting.Service
}

func NewMeetingHandler(meetings *meeting.Service) *MeetingHandler {
	return &MeetingHandler{meetings: meetings}
}

// Create schedules a meeting hosted by the caller
func (h *MeetingHandler) Create(c *fiber.Ctx) error {
	var input meeting.CreateMeetingInput
	if err := c.BodyParser(&input); err != nil {
		return invalidInput(c)
	}

	m, err := h.meetings.Create(c.UserContext(), middleware.Caller(c), input)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(m)
}

// List returns the caller's own meetings
func (h *MeetingHandler) List(c *fiber.Ctx) error {
	meetings, err := h.meetings.ListForHost(c.UserContext(), middleware.Caller(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(meetings)
}

func (h *MeetingHandler) Get(c *fiber.Ctx) error {
	m, err := h.meetings.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(m)
}

// GetByRoomCode resolves a shared room code. Guests may call it.
func (h *MeetingHandler) GetByRoomCode(c *fiber.Ctx) error {
	m, err := h.meetings.ResolveByRoomCode(c.UserContext(), c.Params("roomCode"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(m)
}

func (h *MeetingHandler) Update(c *fiber.Ctx) error {
	var input meeting.UpdateMeetingInput
	if err := c.BodyParser(&input); err != nil {
		return invalidInput(c)
	}

	m, err := h.meetings.Update(c.UserContext(), middleware.Caller(c), c.Params("id"), input)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(m)
}

func (h *MeetingHandler) Delete(c *fiber.Ctx) error {
	if err := h.meetings.Delete(c.UserContext(), middleware.Caller(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}

	return c.JSON(SuccessResponse{Success: true})
}

// Join records the caller as a participant of the meeting
func (h *MeetingHandler) Join(c *fiber.Ctx) error {
	var input meeting.JoinInput
	if err := c.BodyParser(&input); err != nil {
		return invalidInput(c)
	}

	p, err := h.meetings.Join(c.UserContext(), middleware.Caller(c), c.Params("id"), input)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(p)
}

func (h *MeetingHandler) Leave(c *fiber.Ctx) error {
	var input meeting.LeaveInput
	if err := c.BodyParser(&input); err != nil {
		return invalidInput(c)
	}

	if err := h.meetings.Leave(c.UserContext(), input); err != nil {
		return respondError(c, err)
	}

	return c.JSON(SuccessResponse{Success: true})
}

func (h *MeetingHandler) ListParticipants(c *fiber.Ctx) error {
	participants, err := h.meetings.ListParticipants(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(participants)
}

func (h *MeetingHandler) PostMessage(c *fiber.Ctx) error {
	var input meeting.ChatMessageInput
	if err := c.BodyParser(&input); err != nil {
		return invalidInput(c)
	}

	msg, err := h.meetings.PostMessage(c.UserContext(), middleware.Caller(c), c.Params("id"), input)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(msg)
}

func (h *MeetingHandler) ListMessages(c *fiber.Ctx) error {
	messages, err := h.meetings.ListMessages(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(messages)
}
