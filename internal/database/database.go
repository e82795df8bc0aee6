package database

import (
	"log/slog"

	"github.com/karloscodes/cartridge/cache"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"lovdash/internal/config"
	"lovdash/internal/events"
	"lovdash/internal/links"
	"lovdash/internal/users"
)

// DBManager wraps cartridge's sqlite.Manager and owns the schema migration.
type DBManager struct {
	*sqlite.Manager
	logger *slog.Logger
}

func NewDBManager(cfg *config.Config, logger *slog.Logger) *DBManager {
	return &DBManager{
		Manager: sqlite.NewManager(sqlite.Config{
			Path:         cfg.DatabaseName,
			MaxOpenConns: cfg.GetMaxOpenConns(),
			MaxIdleConns: cfg.GetMaxIdleConns(),
			Logger:       logger,
			EnableWAL:    true,
			TxImmediate:  true,
			BusyTimeout:  5000,
		}),
		logger: logger,
	}
}

// Init opens the underlying sqlite connection.
func (dm *DBManager) Init() error {
	_, err := dm.Manager.Connect()
	return err
}

// migratedModels is the full schema, in creation order.
func migratedModels() []interface{} {
	return []interface{}{
		&cache.CacheRecord{},
		&users.User{},
		&links.BioLink{},
		&events.PageViewEvent{},
		&events.LinkClickEvent{},
	}
}

// MigrateDatabase auto-migrates the schema inside a transaction and
// checkpoints the WAL so the main database file reflects the new schema.
func (dm *DBManager) MigrateDatabase() error {
	db := dm.GetConnection()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(migratedModels()...)
	})
	if err != nil {
		dm.logger.Error("Failed to auto-migrate database", slog.Any("error", err))
		return err
	}

	if err := dm.CheckpointWAL("FULL"); err != nil {
		dm.logger.Warn("Failed to checkpoint WAL after migration", slog.Any("error", err))
	}

	dm.logger.Info("Database migration completed successfully")
	return nil
}
