package jobs

import (
	"log/slog"

	"lovdash/internal/database"
)

// CheckpointJob periodically folds the SQLite WAL back into the main
// database file so the log cannot grow without bound under sustained event
// ingestion.
type CheckpointJob struct {
	dbManager *database.DBManager
	logger    *slog.Logger
}

func NewCheckpointJob(dbManager *database.DBManager, logger *slog.Logger) *CheckpointJob {
	return &CheckpointJob{
		dbManager: dbManager,
		logger:    logger,
	}
}

// Run performs a passive WAL checkpoint; writers are never blocked.
func (j *CheckpointJob) Run() error {
	if err := j.dbManager.CheckpointWAL("PASSIVE"); err != nil {
		j.logger.Warn("WAL checkpoint failed", slog.Any("error", err))
		return err
	}
	return nil
}
