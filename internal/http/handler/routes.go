package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"materialapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic.
func RegisterRoutes(app *fiber.App, db *sql.DB, matSvc service.MaterialService, gatherer prometheus.Gatherer) {
	// Serve OpenAPI spec for external tooling
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})

	// Health endpoints
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// Prometheus exposition
	if gatherer != nil {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(
			promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		)
		app.Get("/metrics", func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	// Material workflow
	app.Get("/materials/approved", ListApprovedMaterials(matSvc))
	app.Get("/materials/pending", ListPendingMaterials(matSvc))
	app.Post("/materials", SubmitMaterial(matSvc))
	app.Get("/materials/:id", GetMaterial(matSvc))
	app.Patch("/materials/:id/status", SetMaterialStatus(matSvc))

	// Attachment bytes, served under the public path stored on the record
	app.Get(service.PublicFilePrefix+"+", DownloadAttachment(matSvc))
}
