// path: controllers/reports.go
package controllers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"mirqab/models"
	"mirqab/store"
)

// HandleListReports returns stored detection reports, newest first.
// GET /api/detection-reports?time_range=24h&limit=50&device_id=Pi-001&q=woodland
func (h *Handlers) HandleListReports(c *fiber.Ctx) error {
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return badReq(c, "invalid limit")
		}
		if n > 500 {
			n = 500
		}
		limit = n
	}

	// unrecognized ranges (including "all") mean no time filter
	timeRange := c.Query("time_range")
	from := store.ParseTimeRange(timeRange, time.Now().UTC())

	reports, err := h.reports.List(c.Context(), store.Filter{
		From:     from,
		DeviceID: strings.TrimSpace(c.Query("device_id")),
		FreeText: strings.TrimSpace(c.Query("q")),
		Limit:    limit,
	})
	if err != nil {
		return serverErr(c, err)
	}

	return c.JSON(models.ReportListResponse{
		OK:         true,
		Detections: reports,
		Total:      len(reports),
		TimeRange:  timeRange,
	})
}

// HandleGetReport returns one report by its public id.
// GET /api/detection-reports/:id
func (h *Handlers) HandleGetReport(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return badReq(c, "missing report id")
	}

	report, err := h.reports.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound(c, "report not found")
		}
		return serverErr(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "report": report})
}

// StatusUpdateReq is the body for triage updates.
type StatusUpdateReq struct {
	Status   string `json:"status"`
	Assignee string `json:"assignee,omitempty"`
}

// HandleUpdateStatus moves a report through the triage workflow.
// PATCH /api/detection-reports/:id/status
func (h *Handlers) HandleUpdateStatus(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return badReq(c, "missing report id")
	}

	var req StatusUpdateReq
	if err := c.BodyParser(&req); err != nil {
		return badReq(c, "invalid JSON")
	}
	req.Status = strings.TrimSpace(req.Status)
	if !models.ValidStatus(req.Status) {
		return badReq(c, "invalid status: must be one of New, In Progress, Closed - False Positive, Closed - Remediated")
	}

	report, err := h.reports.UpdateStatus(c.Context(), id, req.Status, strings.TrimSpace(req.Assignee))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFound(c, "report not found")
		}
		return serverErr(c, err)
	}

	h.log.WithFields(map[string]any{
		"report_id": id,
		"status":    req.Status,
	}).Info("report status updated")

	return c.JSON(fiber.Map{"success": true, "report": report})
}
