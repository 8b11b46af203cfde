package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog/log"
)

// RevocationPurger deletes refresh-token revocations that no longer matter
type RevocationPurger interface {
	PurgeExpiredRevocations() (int64, error)
}

var scheduler *gocron.Scheduler

// Initialize creates the scheduler, registers housekeeping jobs and starts it
func Initialize(purger RevocationPurger, every time.Duration) error {
	scheduler = gocron.NewScheduler(time.Local)

	if _, err := scheduler.Every(every).Do(PurgeRevokedTokens, purger); err != nil {
		log.Error().Err(err).Msg("Failed to schedule revoked token purge")
		return err
	}

	scheduler.StartAsync()
	return nil
}

// PurgeRevokedTokens runs one purge and logs the outcome
func PurgeRevokedTokens(purger RevocationPurger) {
	purged, err := purger.PurgeExpiredRevocations()
	if err != nil {
		log.Error().Err(err).Msg("Failed to purge revoked tokens")
		return
	}
	if purged > 0 {
		log.Info().Int64("purged", purged).Msg("Purged expired token revocations")
	}
}

// Stop gracefully shuts down the scheduler
func Stop() {
	if scheduler != nil {
		scheduler.Stop()
	}
}
