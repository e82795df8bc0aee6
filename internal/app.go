// Package internal wires the application together: config, database,
// background jobs, and HTTP routes.
package internal

import (
	"fmt"

	"github.com/karloscodes/cartridge"

	"lovdash/internal/config"
	"lovdash/internal/database"
	"lovdash/internal/jobs"
	"lovdash/internal/pkg/geoip"
)

// Application bundles the cartridge application with the DB manager so
// callers (main, the CLI) can run migrations and reach the connection
// directly.
type Application struct {
	*cartridge.Application
	DBManager *database.DBManager
}

// NewApp builds an application from the environment config.
func NewApp() (*Application, error) {
	return NewAppWithConfig(config.GetConfig())
}

// NewAppWithConfig builds the full dependency graph: logger, database,
// job scheduler, and the HTTP server with all routes mounted.
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	logger := cartridge.NewLogger(cfg, nil)
	geoip.InitLogger(logger)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	scheduler, err := jobs.NewScheduler(dbManager, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jobs: %w", err)
	}

	app, err := cartridge.NewApplication(cartridge.ApplicationOptions{
		Config:            cfg,
		Logger:            logger,
		DBManager:         dbManager,
		RouteMountFunc:    MountAppRoutes,
		BackgroundWorkers: []cartridge.BackgroundWorker{scheduler},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return &Application{
		Application: app,
		DBManager:   dbManager,
	}, nil
}
