package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"lovdash/internal/config"
	"lovdash/internal/database"
	"lovdash/internal/pkg/geoip"
)

// Scheduler runs the background maintenance jobs. It satisfies the
// cartridge.BackgroundWorker interface so the application manages its
// lifecycle alongside the HTTP server.
type Scheduler struct {
	dbManager *database.DBManager
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	enabled   bool
	isRunning bool
	cfg       *config.Config

	// Jobs never overlap; a slow cleanup skips the next checkpoint tick.
	processingMutex sync.Mutex
	isProcessing    bool

	cleanupJob    *CleanupJob
	checkpointJob *CheckpointJob

	cleanupTicker    *time.Ticker
	checkpointTicker *time.Ticker
}

func NewScheduler(dbManager *database.DBManager, logger *slog.Logger) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := config.GetConfig()

	s := &Scheduler{
		dbManager: dbManager,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		enabled:   true,
		cfg:       cfg,
	}

	s.cleanupJob = NewCleanupJob(dbManager, logger, cfg)
	s.checkpointJob = NewCheckpointJob(dbManager, logger)

	return s, nil
}

// executeJobSafely runs a job only if no other job is currently executing.
func (s *Scheduler) executeJobSafely(jobName string, jobFunc func() error) {
	s.processingMutex.Lock()
	if s.isProcessing {
		s.logger.Debug("Skipping job execution - previous job still running", slog.String("job", jobName))
		s.processingMutex.Unlock()
		return
	}
	s.isProcessing = true
	s.processingMutex.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Panic recovered in background job",
				slog.String("job", jobName),
				slog.Any("panic", r))
		}

		s.processingMutex.Lock()
		s.isProcessing = false
		s.processingMutex.Unlock()
	}()

	if err := jobFunc(); err != nil {
		s.logger.Error("Error executing job", slog.String("job", jobName), slog.Any("error", err))
	}
}

// Start begins all background jobs.
// Implements cartridge.BackgroundWorker interface.
func (s *Scheduler) Start() error {
	if !s.enabled {
		s.logger.Info("Background jobs are disabled.")
		return nil
	}
	if s.isRunning {
		s.logger.Info("Background jobs already running.")
		return nil
	}

	s.logger.Info("Starting background jobs...")
	s.isRunning = true

	s.startCheckpointJob()
	s.startCleanupJob()

	return nil
}

func (s *Scheduler) startCheckpointJob() {
	interval := time.Duration(s.cfg.JobIntervalSeconds) * time.Second
	s.logger.Info("Starting WAL checkpoint job", slog.Duration("interval", interval))
	s.checkpointTicker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-s.checkpointTicker.C:
				s.executeJobSafely("wal_checkpoint", s.checkpointJob.Run)
			case <-s.ctx.Done():
				s.logger.Info("WAL checkpoint job stopped")
				return
			}
		}
	}()
}

func (s *Scheduler) startCleanupJob() {
	interval := 24 * time.Hour
	s.logger.Info("Starting cleanup job", slog.Duration("interval", interval))
	s.cleanupTicker = time.NewTicker(interval)

	go func() {
		// Run once on startup so a long-stopped instance trims its backlog.
		s.executeJobSafely("event_cleanup", s.cleanupJob.Run)

		for {
			select {
			case <-s.cleanupTicker.C:
				s.executeJobSafely("event_cleanup", s.cleanupJob.Run)
				s.executeJobSafely("geoip_reload", s.reloadGeoDB)
			case <-s.ctx.Done():
				s.logger.Info("Cleanup job stopped")
				return
			}
		}
	}()
}

// reloadGeoDB reopens the GeoLite2 database so a file replaced on disk is
// picked up without a restart.
func (s *Scheduler) reloadGeoDB() error {
	geoip.ReloadGeoDB()
	return nil
}

// Stop halts all background jobs.
// Implements cartridge.BackgroundWorker interface.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background jobs...")
	s.enabled = false

	if s.cleanupTicker != nil {
		s.cleanupTicker.Stop()
	}
	if s.checkpointTicker != nil {
		s.checkpointTicker.Stop()
	}

	s.cancel()
	s.isRunning = false
	s.logger.Info("Background jobs stopped")
}

// IsRunning reports whether jobs are currently running.
func (s *Scheduler) IsRunning() bool {
	return s.isRunning
}

// RunCleanup triggers the retention cleanup outside the schedule, used by the
// control CLI.
func (s *Scheduler) RunCleanup() error {
	if !s.enabled {
		return nil
	}
	return s.cleanupJob.Run()
}
