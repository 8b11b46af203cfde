package repository

import (
	"context"
	"errors"
	"huddle-backend/internal/models"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrRoomCodeTaken is returned when the unique index on meetings.room_code rejects an insert
var ErrRoomCodeTaken = errors.New("room code already exists")

// MeetingPatch carries the host-editable fields of a meeting. Nil fields are left untouched.
type MeetingPatch struct {
	Title       *string
	Agenda      *string
	ScheduledAt *time.Time
	IsRecorded  *bool
}

// Empty reports whether the patch changes nothing
func (p MeetingPatch) Empty() bool {
	return p.Title == nil && p.Agenda == nil && p.ScheduledAt == nil && p.IsRecorded == nil
}

func (p MeetingPatch) columns() map[string]interface{} {
	updates := map[string]interface{}{}
	if p.Title != nil {
		updates["title"] = *p.Title
	}
	if p.Agenda != nil {
		updates["agenda"] = *p.Agenda
	}
	if p.ScheduledAt != nil {
		updates["scheduled_at"] = *p.ScheduledAt
	}
	if p.IsRecorded != nil {
		updates["is_recorded"] = *p.IsRecorded
	}
	return updates
}

type MeetingRepository struct {
	db *gorm.DB
}

func NewMeetingRepository(db *gorm.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// CreateMeeting inserts a meeting. The room code uniqueness is enforced by the database.
func (r *MeetingRepository) CreateMeeting(ctx context.Context, meeting *models.Meeting) error {
	if err := r.db.WithContext(ctx).Create(meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrRoomCodeTaken
		}
		return err
	}
	return nil
}

func (r *MeetingRepository) RoomCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Meeting{}).
		Where("room_code = ?", code).
		Count(&count).Error
	return count > 0, err
}

// GetMeeting retrieves a meeting with its host by ID
func (r *MeetingRepository) GetMeeting(ctx context.Context, id string) (*models.Meeting, error) {
	return r.firstMeeting(ctx, "id = ?", id)
}

// GetMeetingByRoomCode retrieves a meeting with its host by room code
func (r *MeetingRepository) GetMeetingByRoomCode(ctx context.Context, code string) (*models.Meeting, error) {
	return r.firstMeeting(ctx, "room_code = ?", code)
}

func (r *MeetingRepository) firstMeeting(ctx context.Context, query string, arg string) (*models.Meeting, error) {
	var meeting models.Meeting
	result := r.db.WithContext(ctx).Preload("Host").First(&meeting, query, arg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &meeting, nil
}

// ListMeetingsByHost returns the host's meetings, newest first
func (r *MeetingRepository) ListMeetingsByHost(ctx context.Context, hostID string) ([]models.Meeting, error) {
	var meetings []models.Meeting
	err := r.db.WithContext(ctx).
		Where("host_id = ?", hostID).
		Order("created_at desc").
		Find(&meetings).Error
	return meetings, err
}

// CountParticipants returns the number of participant records per meeting ID
func (r *MeetingRepository) CountParticipants(ctx context.Context, meetingIDs ...string) (map[string]int64, error) {
	counts := make(map[string]int64, len(meetingIDs))
	if len(meetingIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		MeetingID string
		Count     int64
	}
	err := r.db.WithContext(ctx).Model(&models.Participant{}).
		Select("meeting_id, count(*) as count").
		Where("meeting_id IN ?", meetingIDs).
		Group("meeting_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.MeetingID] = row.Count
	}
	return counts, nil
}

// UpdateMeeting applies the non-nil fields of patch
func (r *MeetingRepository) UpdateMeeting(ctx context.Context, id string, patch MeetingPatch) error {
	if patch.Empty() {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.Meeting{}).
		Where("id = ?", id).
		Updates(patch.columns()).Error
}

// ActivateMeeting moves a SCHEDULED meeting to ACTIVE. It reports false when another
// caller already performed the transition.
func (r *MeetingRepository) ActivateMeeting(ctx context.Context, id string, startedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Meeting{}).
		Where("id = ? AND status = ?", id, models.MeetingScheduled).
		Updates(map[string]interface{}{
			"status":     models.MeetingActive,
			"started_at": startedAt,
		})
	return result.RowsAffected == 1, result.Error
}

// EndMeeting moves an ACTIVE meeting to ENDED and derives its duration from the stored
// started_at. It reports false when the meeting was not ACTIVE, leaving endedAt and
// duration of an earlier transition untouched.
func (r *MeetingRepository) EndMeeting(ctx context.Context, id string, endedAt time.Time) (bool, error) {
	ended := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var meeting models.Meeting
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&meeting, "id = ? AND status = ?", id, models.MeetingActive).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		result := tx.Model(&models.Meeting{}).
			Where("id = ? AND status = ?", id, models.MeetingActive).
			Updates(map[string]interface{}{
				"status":   models.MeetingEnded,
				"ended_at": endedAt,
				"duration": models.MeetingDuration(meeting.StartedAt, endedAt),
			})
		ended = result.RowsAffected == 1
		return result.Error
	})
	return ended, err
}

// DeleteMeeting removes a meeting together with its participants and chat history
func (r *MeetingRepository) DeleteMeeting(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.ChatMessage{}, "meeting_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Participant{}, "meeting_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Meeting{}, "id = ?", id).Error
	})
}

func (r *MeetingRepository) CreateParticipant(ctx context.Context, participant *models.Participant) error {
	return r.db.WithContext(ctx).Create(participant).Error
}

// GetParticipant retrieves a participant only if it belongs to the given meeting
func (r *MeetingRepository) GetParticipant(ctx context.Context, meetingID, participantID string) (*models.Participant, error) {
	var participant models.Participant
	result := r.db.WithContext(ctx).
		Where("id = ? AND meeting_id = ?", participantID, meetingID).
		First(&participant)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &participant, nil
}

// MarkParticipantLeft stamps left_at once. It reports false if it was already set.
func (r *MeetingRepository) MarkParticipantLeft(ctx context.Context, meetingID, participantID string, leftAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Participant{}).
		Where("id = ? AND meeting_id = ? AND left_at IS NULL", participantID, meetingID).
		Update("left_at", leftAt)
	return result.RowsAffected == 1, result.Error
}

// ListParticipants returns every join of a meeting in join order
func (r *MeetingRepository) ListParticipants(ctx context.Context, meetingID string) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("joined_at asc").
		Find(&participants).Error
	return participants, err
}

func (r *MeetingRepository) CreateChatMessage(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// ListChatMessages returns a meeting's chat in the order it was sent
func (r *MeetingRepository) ListChatMessages(ctx context.Context, meetingID string) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("sent_at asc").
		Find(&messages).Error
	return messages, err
}

// Ping checks database connectivity
func (r *MeetingRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
