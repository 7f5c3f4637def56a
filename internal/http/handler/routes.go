package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docvault/internal/service"
	"docvault/internal/storage"
)

// Dependencies carries everything the routes need.
type Dependencies struct {
	DB        *sql.DB // nil with in-memory metadata
	Documents service.DocumentService
	Auth      fiber.Handler
	Blobs     *storage.MemoryStorage // set only for the memory storage driver
	Metrics   prometheus.Gatherer
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin: parsing, identity and status mapping only.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/health", HealthCheck(deps.DB))
	app.Get("/healthz", LivenessProbe())

	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	if deps.Blobs != nil {
		app.Get(storage.BlobPathPrefix+"*", ServeBlob(deps.Blobs))
	}

	var guards []fiber.Handler
	if deps.Auth != nil {
		guards = append(guards, deps.Auth)
	}
	docs := app.Group("/documents", guards...)
	docs.Get("", ListDocuments(deps.Documents))
	docs.Post("", UploadDocument(deps.Documents))
	docs.Get("/:id/url", GetDocumentURL(deps.Documents))
}
