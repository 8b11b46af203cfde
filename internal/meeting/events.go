package meeting

import (
	"context"
	"huddle-backend/internal/models"
	"time"
)

type EventType string

const (
	EventCreated EventType = "created"
	EventStarted EventType = "started"
	EventEnded   EventType = "ended"
	EventDeleted EventType = "deleted"
)

// Event describes a lifecycle transition of a meeting
type Event struct {
	Type       EventType            `json:"type"`
	MeetingID  string               `json:"meetingId"`
	RoomCode   string               `json:"roomCode"`
	HostID     string               `json:"hostId"`
	Status     models.MeetingStatus `json:"status"`
	StartedAt  *time.Time           `json:"startedAt,omitempty"`
	EndedAt    *time.Time           `json:"endedAt,omitempty"`
	Duration   *int64               `json:"duration,omitempty"`
	OccurredAt time.Time            `json:"occurredAt"`
}

func NewEvent(t EventType, m *models.Meeting, at time.Time) Event {
	return Event{
		Type:       t,
		MeetingID:  m.ID,
		RoomCode:   m.RoomCode,
		HostID:     m.HostID,
		Status:     m.Status,
		StartedAt:  m.StartedAt,
		EndedAt:    m.EndedAt,
		Duration:   m.Duration,
		OccurredAt: at,
	}
}

// EventPublisher delivers lifecycle events. Delivery failures never fail the operation
// that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
