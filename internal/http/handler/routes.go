package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"mediaapi/internal/service"
)

// RegisterRoutes attaches the health and recording routes to app.
// GET routes also answer HEAD.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.RecordingService, log *zap.Logger) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/recordings", ListRecordings(svc, log))
	app.Post("/recordings", UploadRecording(svc, log))
	app.Get("/recordings/:id", StreamRecording(svc, log))
}
