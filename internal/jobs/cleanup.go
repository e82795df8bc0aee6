package jobs

import (
	"log/slog"
	"time"

	"lovdash/internal/config"
	"lovdash/internal/database"
	"lovdash/internal/events"
)

// CleanupJob deletes tracking events older than the retention window. Bio
// analytics only ever queries bounded windows, so expired rows are pure
// storage cost (and a data-minimization liability).
type CleanupJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	cfg       *config.Config
}

func NewCleanupJob(dbManager *database.DBManager, logger *slog.Logger, cfg *config.Config) *CleanupJob {
	return &CleanupJob{
		dbManager: dbManager,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run removes page-view and link-click rows past the retention period.
func (j *CleanupJob) Run() error {
	retentionDays := j.cfg.EventsRetentionDays
	cutoffDate := time.Now().AddDate(0, 0, -retentionDays)

	j.logger.Info("Starting cleanup of expired tracking events",
		slog.Int("retention_days", retentionDays),
		slog.Time("cutoff_date", cutoffDate))

	viewsDeleted, err := j.deleteExpired(&events.PageViewEvent{}, cutoffDate)
	if err != nil {
		return err
	}
	clicksDeleted, err := j.deleteExpired(&events.LinkClickEvent{}, cutoffDate)
	if err != nil {
		return err
	}

	if viewsDeleted+clicksDeleted > 0 {
		j.logger.Info("Cleaned up expired tracking events",
			slog.Int64("views_deleted", viewsDeleted),
			slog.Int64("clicks_deleted", clicksDeleted),
			slog.Int("retention_days", retentionDays))
	} else {
		j.logger.Debug("No expired tracking events to clean up")
	}
	return nil
}

// deleteExpired removes matching rows in batches to avoid holding the write
// lock for too long.
func (j *CleanupJob) deleteExpired(model interface{}, cutoffDate time.Time) (int64, error) {
	db := j.dbManager.GetConnection()
	batchSize := 1000
	totalDeleted := int64(0)

	for {
		result := db.Where("created_at < ?", cutoffDate).
			Limit(batchSize).
			Delete(model)

		if result.Error != nil {
			j.logger.Error("Failed to delete expired tracking events",
				slog.Any("error", result.Error),
				slog.Int64("deleted_so_far", totalDeleted))
			return totalDeleted, result.Error
		}

		totalDeleted += result.RowsAffected
		if result.RowsAffected < int64(batchSize) {
			break
		}

		// Breathe between batches to limit lock contention.
		time.Sleep(100 * time.Millisecond)
	}

	return totalDeleted, nil
}
