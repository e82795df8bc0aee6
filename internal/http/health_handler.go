package http

import (
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"
)

// HealthStatus is the health check response body.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	DBStatus  string    `json:"db_status"`
}

// HealthIndexAction reports process liveness plus a database ping. A failing
// ping degrades the status instead of erroring so load balancers still get a
// parseable body.
func HealthIndexAction(ctx *cartridge.Context) error {
	dbStatus := pingDatabase(ctx)

	health := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		DBStatus:  dbStatus,
	}
	if dbStatus != "ok" {
		health.Status = "degraded"
	}
	return ctx.JSON(health)
}

func pingDatabase(ctx *cartridge.Context) string {
	db := ctx.DBManager.GetConnection()
	if db == nil {
		ctx.Logger.Error("Database connection unavailable")
		return "error"
	}
	sqlDB, err := db.DB()
	if err != nil {
		ctx.Logger.Error("Database connection error", slog.Any("error", err))
		return "error"
	}
	if err := sqlDB.Ping(); err != nil {
		ctx.Logger.Error("Database ping failed", slog.Any("error", err))
		return "error"
	}
	return "ok"
}
