package meeting

import (
	"context"
	"errors"
	"huddle-backend/internal/models"
	"huddle-backend/internal/repository"
	"huddle-backend/internal/validation"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultRoomCodeAttempts = 10

// Store is the persistence the lifecycle needs. Lookups return (nil, nil) when the
// record does not exist. The Activate/End/MarkLeft methods are compare-and-swap
// updates that report whether this call performed the transition.
type Store interface {
	CreateMeeting(ctx context.Context, meeting *models.Meeting) error
	RoomCodeExists(ctx context.Context, code string) (bool, error)
	GetMeeting(ctx context.Context, id string) (*models.Meeting, error)
	GetMeetingByRoomCode(ctx context.Context, code string) (*models.Meeting, error)
	ListMeetingsByHost(ctx context.Context, hostID string) ([]models.Meeting, error)
	CountParticipants(ctx context.Context, meetingIDs ...string) (map[string]int64, error)
	UpdateMeeting(ctx context.Context, id string, patch repository.MeetingPatch) error
	ActivateMeeting(ctx context.Context, id string, startedAt time.Time) (bool, error)
	EndMeeting(ctx context.Context, id string, endedAt time.Time) (bool, error)
	DeleteMeeting(ctx context.Context, id string) error

	CreateParticipant(ctx context.Context, participant *models.Participant) error
	GetParticipant(ctx context.Context, meetingID, participantID string) (*models.Participant, error)
	MarkParticipantLeft(ctx context.Context, meetingID, participantID string, leftAt time.Time) (bool, error)
	ListParticipants(ctx context.Context, meetingID string) ([]models.Participant, error)

	CreateChatMessage(ctx context.Context, message *models.ChatMessage) error
	ListChatMessages(ctx context.Context, meetingID string) ([]models.ChatMessage, error)
}

// MediaRooms tears down the media-server room of a meeting that is over
type MediaRooms interface {
	CloseRoom(ctx context.Context, roomName string) error
}

type CreateMeetingInput struct {
	Title       string     `json:"title" validate:"min=1,max=200"`
	Agenda      *string    `json:"agenda"`
	ScheduledAt *time.Time `json:"scheduledAt"`
}

// UpdateMeetingInput holds the fields a host may change. Absent fields stay as they are.
type UpdateMeetingInput struct {
	Title       *string    `json:"title"`
	Agenda      *string    `json:"agenda"`
	ScheduledAt *time.Time `json:"scheduledAt"`
	IsRecorded  *bool      `json:"isRecorded"`
}

type JoinInput struct {
	DisplayName string                  `json:"displayName" validate:"min=1,max=100"`
	Role        *models.ParticipantRole `json:"role"`
}

type LeaveInput struct {
	RoomCode      string `json:"roomCode" validate:"required"`
	ParticipantID string `json:"participantId" validate:"required"`
}

type ChatMessageInput struct {
	Message    string `json:"message" validate:"min=1,max=2000"`
	SenderName string `json:"senderName" validate:"min=1,max=100"`
}

// MeetingDetails is a meeting as shown to clients: the record plus its host's name
// and how many joins it has seen.
type MeetingDetails struct {
	models.Meeting
	HostName         string `json:"hostName,omitempty"`
	ParticipantCount int64  `json:"participantCount"`
}

// Service owns the meeting lifecycle: SCHEDULED on create, ACTIVE on first join,
// ENDED when the host leaves. It holds no per-meeting state; every transition is a
// conditional update in the Store.
type Service struct {
	store        Store
	events       EventPublisher
	rooms        MediaRooms
	validate     *validator.Validate
	newRoomCode  func() string
	codeAttempts int
	now          func() time.Time
}

type Option func(*Service)

// WithEvents publishes lifecycle events to p
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// WithMediaRooms closes the media room when a meeting ends or is deleted
func WithMediaRooms(r MediaRooms) Option {
	return func(s *Service) { s.rooms = r }
}

// WithRoomCodeAttempts bounds the room code allocation loop
func WithRoomCodeAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.codeAttempts = n
		}
	}
}

// WithRoomCodeSource replaces GenerateRoomCode
func WithRoomCodeSource(fn func() string) Option {
	return func(s *Service) { s.newRoomCode = fn }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		events:       NopPublisher{},
		validate:     validation.New(),
		newRoomCode:  GenerateRoomCode,
		codeAttempts: defaultRoomCodeAttempts,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create schedules a new meeting hosted by caller under a fresh room code
func (s *Service) Create(ctx context.Context, caller *Caller, in CreateMeetingInput) (*models.Meeting, error) {
	if caller.ID() == "" {
		return nil, NewUnauthorizedError("Unauthorized")
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, NewValidationError(validation.Message(err))
	}

	for attempt := 0; attempt < s.codeAttempts; attempt++ {
		code := s.newRoomCode()

		exists, err := s.store.RoomCodeExists(ctx, code)
		if err != nil {
			return nil, NewInternalError("failed to check room code", err)
		}
		if exists {
			continue
		}

		m := &models.Meeting{
			ID:          uuid.New().String(),
			RoomCode:    code,
			HostID:      caller.UserID,
			Title:       in.Title,
			Agenda:      in.Agenda,
			Status:      models.MeetingScheduled,
			ScheduledAt: in.ScheduledAt,
		}

		err = s.store.CreateMeeting(ctx, m)
		if errors.Is(err, repository.ErrRoomCodeTaken) {
			// lost a race for the same code after the pre-check
			continue
		}
		if err != nil {
			return nil, NewInternalError("failed to create meeting", err)
		}

		log.Info().
			Str("meeting_id", m.ID).
			Str("room_code", m.RoomCode).
			Str("host_id", m.HostID).
			Msg("Meeting created")
		s.publish(ctx, EventCreated, m)
		return m, nil
	}

	return nil, NewCodeExhaustedError("could not allocate a unique room code")
}

// Get returns a meeting by ID
func (s *Service) Get(ctx context.Context, id string) (*MeetingDetails, error) {
	m, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, m)
}

// ResolveByRoomCode returns the meeting a shared room code points to. It needs no caller.
func (s *Service) ResolveByRoomCode(ctx context.Context, code string) (*MeetingDetails, error) {
	m, err := s.store.GetMeetingByRoomCode(ctx, code)
	if err != nil {
		return nil, NewInternalError("failed to load meeting", err)
	}
	if m == nil {
		return nil, NewNotFoundError("Meeting not found")
	}
	return s.details(ctx, m)
}

// ListForHost returns the caller's own meetings, newest first
func (s *Service) ListForHost(ctx context.Context, caller *Caller) ([]MeetingDetails, error) {
	if caller.ID() == "" {
		return nil, NewUnauthorizedError("Unauthorized")
	}

	meetings, err := s.store.ListMeetingsByHost(ctx, caller.UserID)
	if err != nil {
		return nil, NewInternalError("failed to list meetings", err)
	}

	ids := make([]string, 0, len(meetings))
	for _, m := range meetings {
		ids = append(ids, m.ID)
	}
	counts, err := s.store.CountParticipants(ctx, ids...)
	if err != nil {
		return nil, NewInternalError("failed to count participants", err)
	}

	out := make([]MeetingDetails, 0, len(meetings))
	for _, m := range meetings {
		out = append(out, MeetingDetails{Meeting: m, ParticipantCount: counts[m.ID]})
	}
	return out, nil
}

// Join records a participant. The first join of a SCHEDULED meeting activates it.
// Joining an ENDED meeting is recorded but does not reopen it.
func (s *Service) Join(ctx context.Context, caller *Caller, meetingID string, in JoinInput) (*models.Participant, error) {
	m, err := s.mustGet(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	if err := s.validate.Struct(in); err != nil {
		return nil, NewValidationError(validation.Message(err))
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, NewValidationError("role must be one of HOST, PARTICIPANT, GUEST")
		}
		if *in.Role == models.RoleHost && !CanMutateMeeting(caller, m) {
			return nil, NewForbiddenError("only the host can join as HOST")
		}
	}

	now := s.now()
	if m.Status == models.MeetingScheduled {
		activated, err := s.store.ActivateMeeting(ctx, m.ID, now)
		if err != nil {
			return nil, NewInternalError("failed to start meeting", err)
		}
		if activated {
			m.Status = models.MeetingActive
			m.StartedAt = &now
			log.Info().Str("meeting_id", m.ID).Msg("Meeting started")
			s.publish(ctx, EventStarted, m)
		}
	}

	// the insert goes last; a failure before it leaves nothing to undo
	p := &models.Participant{
		ID:          uuid.New().String(),
		MeetingID:   m.ID,
		DisplayName: in.DisplayName,
		Role:        ResolveRole(caller, m, in.Role),
		JoinedAt:    now,
	}
	if id := caller.ID(); id != "" {
		p.UserID = &id
	}

	if err := s.store.CreateParticipant(ctx, p); err != nil {
		return nil, NewInternalError("failed to record participant", err)
	}

	return p, nil
}

// Leave stamps the participant's leave time. When the host leaves an ACTIVE meeting it
// ends. A participant can leave only once.
func (s *Service) Leave(ctx context.Context, in LeaveInput) error {
	if err := s.validate.Struct(in); err != nil {
		return NewValidationError(validation.Message(err))
	}

	m, err := s.store.GetMeetingByRoomCode(ctx, in.RoomCode)
	if err != nil {
		return NewInternalError("failed to load meeting", err)
	}
	if m == nil {
		return NewNotFoundError("Meeting not found")
	}

	p, err := s.store.GetParticipant(ctx, m.ID, in.ParticipantID)
	if err != nil {
		return NewInternalError("failed to load participant", err)
	}
	if p == nil {
		return NewNotFoundError("Participant not found")
	}

	leftAt := s.now()
	if leftAt.Before(p.JoinedAt) {
		leftAt = p.JoinedAt
	}
	marked, err := s.store.MarkParticipantLeft(ctx, m.ID, p.ID, leftAt)
	if err != nil {
		return NewInternalError("failed to record leave", err)
	}
	if !marked {
		// A host whose earlier leave was stamped but failed to end the meeting gets
		// the end transition on retry.
		if p.LeftAt != nil && isHostParticipant(p, m) {
			ended, err := s.endMeeting(ctx, m, p, *p.LeftAt)
			if err != nil {
				return err
			}
			if ended {
				return nil
			}
		}
		return NewConflictError("Participant already left")
	}

	if !isHostParticipant(p, m) {
		return nil
	}

	_, err = s.endMeeting(ctx, m, p, leftAt)
	return err
}

// endMeeting performs the ACTIVE to ENDED transition. It reports false when the meeting
// was not ACTIVE.
func (s *Service) endMeeting(ctx context.Context, m *models.Meeting, p *models.Participant, endedAt time.Time) (bool, error) {
	ended, err := s.store.EndMeeting(ctx, m.ID, endedAt)
	if err != nil {
		return false, NewInternalError("failed to end meeting", err)
	}
	if !ended {
		return false, nil
	}

	log.Info().Str("meeting_id", m.ID).Str("participant_id", p.ID).Msg("Meeting ended by host")
	if current, err := s.store.GetMeeting(ctx, m.ID); err == nil && current != nil {
		m = current
	}
	s.publish(ctx, EventEnded, m)
	s.closeRoom(ctx, m)
	return true, nil
}

// Update applies the supplied fields. Only the host may update a meeting.
func (s *Service) Update(ctx context.Context, caller *Caller, meetingID string, in UpdateMeetingInput) (*models.Meeting, error) {
	m, err := s.mustGet(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !CanMutateMeeting(caller, m) {
		return nil, NewForbiddenError("Forbidden")
	}
	if in.Title != nil {
		if err := s.validate.Var(*in.Title, "min=1,max=200"); err != nil {
			return nil, NewValidationError("title must be between 1 and 200 characters")
		}
	}

	patch := repository.MeetingPatch{
		Title:       in.Title,
		Agenda:      in.Agenda,
		ScheduledAt: in.ScheduledAt,
		IsRecorded:  in.IsRecorded,
	}
	if err := s.store.UpdateMeeting(ctx, m.ID, patch); err != nil {
		return nil, NewInternalError("failed to update meeting", err)
	}

	return s.mustGet(ctx, m.ID)
}

// Delete removes a meeting with its participants and chat. Only the host may delete.
func (s *Service) Delete(ctx context.Context, caller *Caller, meetingID string) error {
	m, err := s.mustGet(ctx, meetingID)
	if err != nil {
		return err
	}
	if !CanMutateMeeting(caller, m) {
		return NewForbiddenError("Forbidden")
	}

	if err := s.store.DeleteMeeting(ctx, m.ID); err != nil {
		return NewInternalError("failed to delete meeting", err)
	}

	log.Info().Str("meeting_id", m.ID).Str("room_code", m.RoomCode).Msg("Meeting deleted")
	s.publish(ctx, EventDeleted, m)
	if m.Status == models.MeetingActive {
		s.closeRoom(ctx, m)
	}
	return nil
}

// ListParticipants returns every join of the meeting, oldest first
func (s *Service) ListParticipants(ctx context.Context, meetingID string) ([]models.Participant, error) {
	if _, err := s.mustGet(ctx, meetingID); err != nil {
		return nil, err
	}
	participants, err := s.store.ListParticipants(ctx, meetingID)
	if err != nil {
		return nil, NewInternalError("failed to list participants", err)
	}
	return participants, nil
}

// PostMessage appends a chat message. Guests may post; their sender ID stays empty.
func (s *Service) PostMessage(ctx context.Context, caller *Caller, meetingID string, in ChatMessageInput) (*models.ChatMessage, error) {
	m, err := s.mustGet(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, NewValidationError(validation.Message(err))
	}

	msg := &models.ChatMessage{
		ID:         uuid.New().String(),
		MeetingID:  m.ID,
		SenderName: in.SenderName,
		Message:    in.Message,
		SentAt:     s.now(),
	}
	if id := caller.ID(); id != "" {
		msg.SenderID = &id
	}

	if err := s.store.CreateChatMessage(ctx, msg); err != nil {
		return nil, NewInternalError("failed to save message", err)
	}
	return msg, nil
}

// ListMessages returns the meeting's chat ordered by send time
func (s *Service) ListMessages(ctx context.Context, meetingID string) ([]models.ChatMessage, error) {
	if _, err := s.mustGet(ctx, meetingID); err != nil {
		return nil, err
	}
	messages, err := s.store.ListChatMessages(ctx, meetingID)
	if err != nil {
		return nil, NewInternalError("failed to list messages", err)
	}
	return messages, nil
}

func (s *Service) mustGet(ctx context.Context, id string) (*models.Meeting, error) {
	m, err := s.store.GetMeeting(ctx, id)
	if err != nil {
		return nil, NewInternalError("failed to load meeting", err)
	}
	if m == nil {
		return nil, NewNotFoundError("Meeting not found")
	}
	return m, nil
}

func (s *Service) details(ctx context.Context, m *models.Meeting) (*MeetingDetails, error) {
	counts, err := s.store.CountParticipants(ctx, m.ID)
	if err != nil {
		return nil, NewInternalError("failed to count participants", err)
	}

	d := &MeetingDetails{Meeting: *m, ParticipantCount: counts[m.ID]}
	if m.Host != nil {
		d.HostName = m.Host.Name
	}
	return d, nil
}

func (s *Service) publish(ctx context.Context, t EventType, m *models.Meeting) {
	if err := s.events.Publish(ctx, NewEvent(t, m, s.now())); err != nil {
		log.Warn().Err(err).Str("meeting_id", m.ID).Str("event", string(t)).Msg("Failed to publish meeting event")
	}
}

func (s *Service) closeRoom(ctx context.Context, m *models.Meeting) {
	if s.rooms == nil {
		return
	}
	if err := s.rooms.CloseRoom(ctx, m.RoomCode); err != nil {
		log.Warn().Err(err).Str("meeting_id", m.ID).Str("room_code", m.RoomCode).Msg("Failed to close media room")
	}
}
