// path: controllers/health.go
package controllers

import (
	"github.com/gofiber/fiber/v2"

	"mirqab/models"
)

// HandleHealth reports the liveness of each dependency the service needs.
// GET /health
func (h *Handlers) HandleHealth(c *fiber.Ctx) error {
	resp := models.HealthResponse{
		Status:   "ok",
		Database: h.reports.Kind(),
		Storage:  h.images.Kind(),
	}
	if h.seg != nil {
		resp.ModelLoaded = h.seg.Loaded()
	}
	if h.llm != nil && h.llm.Available() {
		resp.LLMAvailable = h.llm.CheckConnection(c.Context())
	}
	if !resp.ModelLoaded {
		resp.Status = "degraded"
	}
	return c.JSON(resp)
}
