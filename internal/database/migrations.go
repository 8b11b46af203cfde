package database

import (
	"huddle-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// RunMigrations creates or updates the schema. Meetings must exist before the
// participant and chat tables that reference them.
func RunMigrations() error {
	db := GetDB()

	if err := db.AutoMigrate(&models.User{}, &models.RevokedToken{}); err != nil {
		return err
	}
	if err := db.AutoMigrate(&models.Meeting{}); err != nil {
		return err
	}
	if err := db.AutoMigrate(&models.Participant{}, &models.ChatMessage{}); err != nil {
		return err
	}

	// Keep status to the three lifecycle values even for writes that bypass the service
	if err := db.Exec(`
        ALTER TABLE meetings
        ADD CONSTRAINT chk_meetings_status
        CHECK (status IN ('SCHEDULED', 'ACTIVE', 'ENDED'))
    `).Error; err != nil {
		log.Warn().Err(err).Msg("Failed to add status check constraint - might already exist")
	}

	log.Info().Msg("Database migrations completed successfully")
	return nil
}
