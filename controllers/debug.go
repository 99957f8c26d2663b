// path: controllers/debug.go
package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"mirqab/pipeline"
)

// HandleTestSegmentation runs the model on an upload without captioning or
// persistence, for verifying a deployed model end to end.
// POST /api/test_segmentation
func (h *Handlers) HandleTestSegmentation(c *fiber.Ctx) error {
	data, errMsg := readUpload(c)
	if errMsg != "" {
		return badReq(c, errMsg)
	}

	res, err := h.pipe.Inspect(c.Context(), data)
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

	return c.JSON(fiber.Map{
		"success":       true,
		"soldier_count": res.SoldierCount,
		"regions":       res.Regions,
		"overlay_image": res.OverlayDataURI,
	})
}
