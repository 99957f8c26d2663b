// path: controllers/stats.go
package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"mirqab/models"
	"mirqab/store"
)

// HandleDetectionStats returns the dashboard aggregate counters.
// GET /api/detection-stats?time_range=7d
func (h *Handlers) HandleDetectionStats(c *fiber.Ctx) error {
	// unrecognized ranges (including "all") mean no time filter
	from := store.ParseTimeRange(c.Query("time_range"), time.Now().UTC())

	stats, err := h.reports.Stats(c.Context(), from, time.Time{})
	if err != nil {
		return serverErr(c, err)
	}

	return c.JSON(models.StatsResponse{OK: true, Stats: *stats})
}
