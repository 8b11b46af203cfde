package events

import (
	"context"
	"encoding/json"
	"huddle-backend/internal/meeting"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Conn is the part of a NATS connection the publisher needs
type Conn interface {
	Publish(subj string, data []byte) error
}

// NatsPublisher publishes meeting lifecycle events as JSON to "<prefix>.<type>"
type NatsPublisher struct {
	conn   Conn
	prefix string
}

func NewNatsPublisher(conn Conn, prefix string) *NatsPublisher {
	return &NatsPublisher{conn: conn, prefix: prefix}
}

// Connect dials url and returns a publisher on the new connection. The caller drains it on shutdown.
func Connect(url, prefix string) (*NatsPublisher, *nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("huddle-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, nil, err
	}
	return NewNatsPublisher(nc, prefix), nc, nil
}

// Subject returns the subject events of type t are published on
func (p *NatsPublisher) Subject(t meeting.EventType) string {
	return p.prefix + "." + string(t)
}

func (p *NatsPublisher) Publish(ctx context.Context, event meeting.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	subject := p.Subject(event.Type)
	if err := p.conn.Publish(subject, data); err != nil {
		return err
	}

	log.Debug().Str("subject", subject).Str("meeting_id", event.MeetingID).Msg("Published meeting event")
	return nil
}
