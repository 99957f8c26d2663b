// path: routes/routes.go
package routes

import (
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mirqab/controllers"
	"mirqab/metrics"
)

// Register attaches all API endpoints to the app.
func Register(app *fiber.App, h *controllers.Handlers, met *metrics.Metrics) {
	app.Use(instrument(met))

	app.Get("/health", h.HandleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	api.Post("/analyze_media", h.HandleAnalyzeMedia)
	api.Post("/report_detection", h.HandleReportDetection)
	api.Post("/test_segmentation", h.HandleTestSegmentation)

	api.Get("/detection-reports", h.HandleListReports)
	api.Get("/detection-reports/:id", h.HandleGetReport)
	api.Patch("/detection-reports/:id/status", h.HandleUpdateStatus)

	api.Get("/detection-stats", h.HandleDetectionStats)
	api.Get("/fetch-image-base64", h.HandleFetchImageBase64)

	api.Post("/moraqib_query", h.HandleMoraqibQuery)
}

// instrument records per-route request counts and latency.
func instrument(met *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		if met != nil && route != "/metrics" {
			met.HTTPRequests.WithLabelValues(route, statusLabel(c, err)).Inc()
			met.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
		return err
	}
}

func statusLabel(c *fiber.Ctx, err error) string {
	code := c.Response().StatusCode()
	if err != nil {
		if fe, ok := err.(*fiber.Error); ok {
			code = fe.Code
		} else {
			code = fiber.StatusInternalServerError
		}
	}
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
