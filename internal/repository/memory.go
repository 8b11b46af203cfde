package repository

import (
	"context"
	"huddle-backend/internal/models"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process implementation of the meeting store with the same
// uniqueness and conditional-update guarantees as MeetingRepository.
type MemoryStore struct {
	mu           sync.RWMutex
	meetings     map[string]*models.Meeting
	roomCodes    map[string]string
	participants map[string]*models.Participant
	messages     map[string][]models.ChatMessage
	users        map[string]*models.User
	revoked      map[string]models.RevokedToken
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		meetings:     make(map[string]*models.Meeting),
		roomCodes:    make(map[string]string),
		participants: make(map[string]*models.Participant),
		messages:     make(map[string][]models.ChatMessage),
		users:        make(map[string]*models.User),
		revoked:      make(map[string]models.RevokedToken),
	}
}

// AddUser registers a user so meetings hosted by it are returned with Host set
func (s *MemoryStore) AddUser(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = &user
}

func (s *MemoryStore) CreateMeeting(ctx context.Context, meeting *models.Meeting) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roomCodes[meeting.RoomCode]; ok {
		return ErrRoomCodeTaken
	}

	now := time.Now()
	if meeting.CreatedAt.IsZero() {
		meeting.CreatedAt = now
	}
	meeting.UpdatedAt = now

	stored := *meeting
	stored.Host = nil
	s.meetings[meeting.ID] = &stored
	s.roomCodes[meeting.RoomCode] = meeting.ID
	return nil
}

func (s *MemoryStore) RoomCodeExists(ctx context.Context, code string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.roomCodes[code]
	return ok, nil
}

func (s *MemoryStore) GetMeeting(ctx context.Context, id string) (*models.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.meetingCopy(id), nil
}

func (s *MemoryStore) GetMeetingByRoomCode(ctx context.Context, code string) (*models.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.roomCodes[code]
	if !ok {
		return nil, nil
	}
	return s.meetingCopy(id), nil
}

// meetingCopy must be called with s.mu held
func (s *MemoryStore) meetingCopy(id string) *models.Meeting {
	stored, ok := s.meetings[id]
	if !ok {
		return nil
	}

	meeting := *stored
	if host, ok := s.users[meeting.HostID]; ok {
		h := *host
		meeting.Host = &h
	}
	return &meeting
}

func (s *MemoryStore) ListMeetingsByHost(ctx context.Context, hostID string) ([]models.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var meetings []models.Meeting
	for _, m := range s.meetings {
		if m.HostID == hostID {
			meetings = append(meetings, *m)
		}
	}
	sort.SliceStable(meetings, func(i, j int) bool {
		return meetings[i].CreatedAt.After(meetings[j].CreatedAt)
	})
	return meetings, nil
}

func (s *MemoryStore) CountParticipants(ctx context.Context, meetingIDs ...string) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]bool, len(meetingIDs))
	for _, id := range meetingIDs {
		wanted[id] = true
	}

	counts := make(map[string]int64, len(meetingIDs))
	for _, p := range s.participants {
		if wanted[p.MeetingID] {
			counts[p.MeetingID]++
		}
	}
	return counts, nil
}

func (s *MemoryStore) UpdateMeeting(ctx context.Context, id string, patch MeetingPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetings[id]
	if !ok || patch.Empty() {
		return nil
	}

	if patch.Title != nil {
		m.Title = *patch.Title
	}
	if patch.Agenda != nil {
		agenda := *patch.Agenda
		m.Agenda = &agenda
	}
	if patch.ScheduledAt != nil {
		at := *patch.ScheduledAt
		m.ScheduledAt = &at
	}
	if patch.IsRecorded != nil {
		m.IsRecorded = *patch.IsRecorded
	}
	m.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ActivateMeeting(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetings[id]
	if !ok || m.Status != models.MeetingScheduled {
		return false, nil
	}

	m.Status = models.MeetingActive
	m.StartedAt = &startedAt
	m.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemoryStore) EndMeeting(ctx context.Context, id string, endedAt time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetings[id]
	if !ok || m.Status != models.MeetingActive {
		return false, nil
	}

	m.Status = models.MeetingEnded
	m.EndedAt = &endedAt
	m.Duration = models.MeetingDuration(m.StartedAt, endedAt)
	m.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemoryStore) DeleteMeeting(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.meetings[id]
	if !ok {
		return nil
	}

	for pid, p := range s.participants {
		if p.MeetingID == id {
			delete(s.participants, pid)
		}
	}
	delete(s.messages, id)
	delete(s.roomCodes, m.RoomCode)
	delete(s.meetings, id)
	return nil
}

func (s *MemoryStore) CreateParticipant(ctx context.Context, participant *models.Participant) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *participant
	s.participants[participant.ID] = &stored
	return nil
}

func (s *MemoryStore) GetParticipant(ctx context.Context, meetingID, participantID string) (*models.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.participants[participantID]
	if !ok || p.MeetingID != meetingID {
		return nil, nil
	}
	participant := *p
	return &participant, nil
}

func (s *MemoryStore) MarkParticipantLeft(ctx context.Context, meetingID, participantID string, leftAt time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[participantID]
	if !ok || p.MeetingID != meetingID || p.LeftAt != nil {
		return false, nil
	}
	p.LeftAt = &leftAt
	return true, nil
}

func (s *MemoryStore) ListParticipants(ctx context.Context, meetingID string) ([]models.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var participants []models.Participant
	for _, p := range s.participants {
		if p.MeetingID == meetingID {
			participants = append(participants, *p)
		}
	}
	sort.SliceStable(participants, func(i, j int) bool {
		return participants[i].JoinedAt.Before(participants[j].JoinedAt)
	})
	return participants, nil
}

func (s *MemoryStore) CreateChatMessage(ctx context.Context, message *models.ChatMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages[message.MeetingID] = append(s.messages[message.MeetingID], *message)
	return nil
}

func (s *MemoryStore) ListChatMessages(ctx context.Context, meetingID string) ([]models.ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := append([]models.ChatMessage(nil), s.messages[meetingID]...)
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].SentAt.Before(messages[j].SentAt)
	})
	return messages, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
