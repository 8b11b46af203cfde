package repository

import (
	"errors"
	"huddle-backend/internal/models"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ErrEmailTaken is returned when the unique index on users.email rejects an insert
var ErrEmailTaken = errors.New("email already registered")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateOrUpdateUser upserts a user signing in through a social provider
func (r *UserRepository) CreateOrUpdateUser(user *models.User) error {
	user.UpdatedAt = time.Now()

	result := r.db.Where("email = ? AND provider = ?", user.Email, user.Provider).
		Assign(user).
		FirstOrCreate(user)

	if result.Error != nil {
		log.Error().Err(result.Error).Str("email", user.Email).Msg("Failed to create or update user")
		return result.Error
	}

	return nil
}

func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	return r.firstUser("email = ?", email)
}

func (r *UserRepository) GetUserByID(id string) (*models.User, error) {
	return r.firstUser("id = ?", id)
}

func (r *UserRepository) firstUser(query, arg string) (*models.User, error) {
	var user models.User
	result := r.db.Where(query, arg).First(&user)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if result.Error != nil {
		log.Error().Err(result.Error).Msg("Failed to get user")
		return nil, result.Error
	}

	return &user, nil
}

func (r *UserRepository) CreateUser(user *models.User) error {
	result := r.db.Create(user)
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return ErrEmailTaken
	}
	if result.Error != nil {
		log.Error().Err(result.Error).Str("email", user.Email).Msg("Failed to create user")
		return result.Error
	}
	return nil
}

func (r *UserRepository) UpdateRefreshToken(userID, refreshToken string) error {
	result := r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("refresh_token", refreshToken)

	if result.Error != nil {
		log.Error().Err(result.Error).Str("user_id", userID).Msg("Failed to update refresh token")
		return result.Error
	}
	return nil
}

func (r *UserRepository) RevokeRefreshToken(userID, token string, expiresAt time.Time) error {
	revoked := &models.RevokedToken{
		ID:        uuid.New().String(),
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}

	return r.db.Create(revoked).Error
}

func (r *UserRepository) IsRefreshTokenRevoked(token string) bool {
	var count int64
	r.db.Model(&models.RevokedToken{}).
		Where("token = ? AND expires_at > ?", token, time.Now()).
		Count(&count)
	return count > 0
}

// PurgeExpiredRevocations deletes revocations of tokens that have expired anyway
func (r *UserRepository) PurgeExpiredRevocations() (int64, error) {
	result := r.db.Where("expires_at < ?", time.Now()).
		Delete(&models.RevokedToken{})
	return result.RowsAffected, result.Error
}

// DeleteUser deletes a user, the meetings they host and everything attached to them
func (r *UserRepository) DeleteUser(userID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		hosted := tx.Model(&models.Meeting{}).Select("id").Where("host_id = ?", userID)

		if err := tx.Where("meeting_id IN (?)", hosted).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("meeting_id IN (?)", hosted).Delete(&models.Participant{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Meeting{}, "host_id = ?", userID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.RevokedToken{}, "user_id = ?", userID).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", userID).Error
	})
}
