// path: controllers/ingest.go
package controllers

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/gofiber/fiber/v2"

	"mirqab/models"
	"mirqab/pipeline"
)

// IngestPayload is the body edge capture devices push when they have
// already run detection locally.
type IngestPayload struct {
	APIKey      string           `json:"api_key" validate:"required"`
	DeviceID    string           `json:"device_id" validate:"required,max=64"`
	ObjectCount int              `json:"object_count" validate:"gte=0,lte=1000"`
	Summary     string           `json:"summary" validate:"max=2000"`
	Location    *models.Location `json:"location,omitempty"`
	ImageBase64 string           `json:"image_base64,omitempty"`
}

// HandleReportDetection stores a device-originated detection report.
// POST /api/report_detection
func (h *Handlers) HandleReportDetection(c *fiber.Ctx) error {
	var p IngestPayload
	if err := c.BodyParser(&p); err != nil {
		return badReq(c, "invalid JSON")
	}
	if err := h.validate.Struct(&p); err != nil {
		return badReq(c, err.Error())
	}

	if h.cfg.IngestAPIKey == "" ||
		subtle.ConstantTimeCompare([]byte(p.APIKey), []byte(h.cfg.IngestAPIKey)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResp{OK: false, Error: "invalid api key"})
	}

	var imageData []byte
	if p.ImageBase64 != "" {
		raw := p.ImageBase64
		// tolerate data-URI prefixed payloads from older device firmware
		if i := strings.Index(raw, ","); i >= 0 && strings.HasPrefix(raw, "data:") {
			raw = raw[i+1:]
		}
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return badReq(c, "invalid image_base64")
		}
		imageData = decoded
	}

	report, err := h.pipe.Ingest(c.Context(), pipeline.IngestInput{
		SourceDeviceID: p.DeviceID,
		ObjectCount:    p.ObjectCount,
		SummaryText:    strings.TrimSpace(p.Summary),
		Location:       p.Location,
		ImageData:      imageData,
	})
	if err != nil {
		return serverErr(c, err)
	}

	return c.JSON(models.IngestResponse{
		OK:       true,
		ReportID: report.ReportID,
		Message:  "Detection report stored",
	})
}
