package models

import "time"

type MeetingStatus string

const (
	MeetingScheduled MeetingStatus = "SCHEDULED"
	MeetingActive    MeetingStatus = "ACTIVE"
	MeetingEnded     MeetingStatus = "ENDED"
)

type ParticipantRole string

const (
	RoleHost        ParticipantRole = "HOST"
	RoleParticipant ParticipantRole = "PARTICIPANT"
	RoleGuest       ParticipantRole = "GUEST"
)

// Valid reports whether r is one of the known roles.
func (r ParticipantRole) Valid() bool {
	switch r {
	case RoleHost, RoleParticipant, RoleGuest:
		return true
	}
	return false
}

// Meeting is a scheduled video call addressed by its room code.
type Meeting struct {
	ID          string        `json:"id" gorm:"primaryKey;type:varchar(36)"`
	RoomCode    string        `json:"roomCode" gorm:"uniqueIndex;not null;type:varchar(11)"`
	HostID      string        `json:"hostId" gorm:"type:varchar(36);not null;index"`
	Title       string        `json:"title" gorm:"not null;type:varchar(200)"`
	Agenda      *string       `json:"agenda" gorm:"type:text"`
	Status      MeetingStatus `json:"status" gorm:"type:varchar(16);not null;default:SCHEDULED;index"`
	ScheduledAt *time.Time    `json:"scheduledAt"`
	StartedAt   *time.Time    `json:"startedAt"`
	EndedAt     *time.Time    `json:"endedAt"`
	Duration    *int64        `json:"duration"` // seconds
	IsRecorded  bool          `json:"isRecorded" gorm:"not null;default:false"`
	CreatedAt   time.Time     `json:"createdAt" gorm:"autoCreateTime;not null"`
	UpdatedAt   time.Time     `json:"updatedAt" gorm:"autoUpdateTime;not null"`

	Host         *User         `json:"-" gorm:"foreignKey:HostID"`
	Participants []Participant `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Messages     []ChatMessage `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

// Participant is one join of a meeting. Rows are never deleted on leave.
type Participant struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	MeetingID   string          `json:"meetingId" gorm:"type:varchar(36);not null;index"`
	UserID      *string         `json:"userId" gorm:"type:varchar(36);index"`
	DisplayName string          `json:"displayName" gorm:"not null;type:varchar(100)"`
	Role        ParticipantRole `json:"role" gorm:"type:varchar(16);not null"`
	JoinedAt    time.Time       `json:"joinedAt" gorm:"not null"`
	LeftAt      *time.Time      `json:"leftAt"`
}

type ChatMessage struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	MeetingID  string    `json:"meetingId" gorm:"type:varchar(36);not null;index:idx_chat_meeting_sent"`
	SenderID   *string   `json:"senderId" gorm:"type:varchar(36)"`
	SenderName string    `json:"senderName" gorm:"not null;type:varchar(100)"`
	Message    string    `json:"message" gorm:"not null;type:text"`
	SentAt     time.Time `json:"sentAt" gorm:"not null;index:idx_chat_meeting_sent"`
}

// TableName specifies the table names for GORM
func (Meeting) TableName() string {
	return "meetings"
}

func (Participant) TableName() string {
	return "participants"
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// MeetingDuration returns the whole seconds between startedAt and endedAt, or nil when
// the meeting never started.
func MeetingDuration(startedAt *time.Time, endedAt time.Time) *int64 {
	if startedAt == nil {
		return nil
	}
	d := int64(endedAt.Sub(*startedAt) / time.Second)
	if d < 0 {
		d = 0
	}
	return &d
}
