// path: controllers/analyze.go
package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"mirqab/models"
	"mirqab/pipeline"
)

// 20 MB upload ceiling, matching typical camera still sizes with headroom.
const maxUploadBytes = 20 << 20

// HandleAnalyzeMedia accepts a multipart image upload, runs the full
// detection pipeline and returns the outcome with preview images inline.
// POST /api/analyze_media
func (h *Handlers) HandleAnalyzeMedia(c *fiber.Ctx) error {
	data, errMsg := readUpload(c)
	if errMsg != "" {
		return badReq(c, errMsg)
	}

	loc, err := parseLocation(c.FormValue("location"))
	if err != nil {
		return badReq(c, err.Error())
	}

	deviceID := strings.TrimSpace(c.FormValue("device_id"))
	if deviceID == "" {
		deviceID = h.cfg.DeviceID
	}

	res, err := h.pipe.Submit(c.Context(), pipeline.SubmitInput{
		ImageData:      data,
		Location:       loc,
		SourceDeviceID: deviceID,
	})
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrInvalidInput):
			return badReq(c, err.Error())
		case errors.Is(err, pipeline.ErrDetectionTimeout):
			return c.Status(fiber.StatusGatewayTimeout).JSON(ErrorResp{OK: false, Error: err.Error()})
		default:
			return serverErr(c, err)
		}
	}

	if !res.Detection {
		// success mirrors detection here; clients key off it to skip
		// report rendering entirely
		return c.JSON(models.AnalyzeResponse{
			OK:        false,
			Detection: false,
			Message:   "No camouflaged soldiers detected",
		})
	}

	return c.JSON(models.AnalyzeResponse{
		OK:            true,
		Detection:     true,
		HasCamouflage: true,
		SoldierCount:  res.SoldierCount,
		OverlayImage:  res.OverlayDataURI,
		OriginalImage: res.OriginalDataURI,
		Report:        res.Report,
	})
}

// readUpload pulls the multipart image out of the "file" field, bounding
// its size. A non-empty second return is a client-facing error message.
func readUpload(c *fiber.Ctx) ([]byte, string) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "missing file field"
	}
	if fh.Size > maxUploadBytes {
		return nil, fmt.Sprintf("file exceeds %d MB limit", maxUploadBytes>>20)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, "unreadable upload"
	}
	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	src.Close()
	if err != nil {
		return nil, "unreadable upload"
	}
	if len(data) > maxUploadBytes {
		return nil, fmt.Sprintf("file exceeds %d MB limit", maxUploadBytes>>20)
	}
	return data, ""
}

// parseLocation decodes the optional location form field, a JSON object
// like {"latitude": 8.48, "longitude": -13.23}.
func parseLocation(raw string) (*models.Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var loc models.Location
	if err := json.Unmarshal([]byte(raw), &loc); err != nil {
		return nil, fmt.Errorf("invalid location JSON")
	}
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		return nil, fmt.Errorf("location out of range")
	}
	return &loc, nil
}
