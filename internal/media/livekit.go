package media

import (
	"context"
	"fmt"
	"huddle-backend/config"
	"huddle-backend/internal/meeting"
	"time"

	lkauth "github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/rs/zerolog/log"
)

const (
	DefaultRoomName        = "meet-room"
	DefaultParticipantName = "Participant"
)

// Credentials let a client connect to the media server
type Credentials struct {
	ServerURL        string `json:"server_url"`
	ParticipantToken string `json:"participant_token"`
}

// TokenRequest names the room and the participant a token is issued for
type TokenRequest struct {
	RoomName        string `json:"room_name"`
	ParticipantName string `json:"participant_name"`
	Identity        string `json:"participant_identity"`
}

// WithDefaults fills the fields a client left empty
func (r TokenRequest) WithDefaults(now time.Time) TokenRequest {
	if r.RoomName == "" {
		r.RoomName = DefaultRoomName
	}
	if r.Identity == "" {
		r.Identity = fmt.Sprintf("user-%d", now.UnixMilli())
	}
	if r.ParticipantName == "" {
		r.ParticipantName = DefaultParticipantName
	}
	return r
}

// Broker issues LiveKit join tokens and manages LiveKit rooms
type Broker struct {
	url       string
	apiKey    string
	apiSecret string
	validFor  time.Duration
	rooms     *lksdk.RoomServiceClient
}

func NewBroker(cfg config.LiveKitConfig) *Broker {
	b := &Broker{
		url:       cfg.URL,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		validFor:  cfg.TokenValidity(),
	}
	if b.validFor <= 0 {
		b.validFor = 2 * time.Hour
	}
	if cfg.Configured() {
		b.rooms = lksdk.NewRoomServiceClient(cfg.URL, cfg.APIKey, cfg.APISecret)
	}
	return b
}

func (b *Broker) Configured() bool {
	return b.url != "" && b.apiKey != "" && b.apiSecret != ""
}

// IssueToken signs a room-join token for identity in roomName
func (b *Broker) IssueToken(req TokenRequest) (*Credentials, error) {
	if !b.Configured() {
		return nil, meeting.NewUnavailableError("LiveKit is not configured")
	}

	at := lkauth.NewAccessToken(b.apiKey, b.apiSecret)
	grant := &lkauth.VideoGrant{
		RoomJoin: true,
		Room:     req.RoomName,
	}
	at.AddGrant(grant).
		SetIdentity(req.Identity).
		SetName(req.ParticipantName).
		SetValidFor(b.validFor)

	token, err := at.ToJWT()
	if err != nil {
		return nil, meeting.NewInternalError("failed to generate token", err)
	}

	return &Credentials{
		ServerURL:        b.url,
		ParticipantToken: token,
	}, nil
}

// CloseRoom removes the LiveKit room, disconnecting everyone still in it
func (b *Broker) CloseRoom(ctx context.Context, roomName string) error {
	if b.rooms == nil {
		return nil
	}

	_, err := b.rooms.DeleteRoom(ctx, &livekit.DeleteRoomRequest{Room: roomName})
	if err != nil {
		return err
	}

	log.Debug().Str("room", roomName).Msg("LiveKit room closed")
	return nil
}
